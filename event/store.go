// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package event

import (
	"context"
	"encoding/binary"
	"sync"
	"time"

	"github.com/luxfi/conclave/coreerrors"
	conclavelog "github.com/luxfi/conclave/log"
	"github.com/luxfi/conclave/metrics"
	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/database"
	"github.com/luxfi/ids"
)

// TimeAuthority supplies monotonic timestamps (spec §6). If it is
// unavailable the core halts intake rather than substituting a local clock.
type TimeAuthority interface {
	Now(ctx context.Context) (time.Time, error)
}

// HaltChecker is consulted before every append (spec §4.3: halt-first).
// Implemented by package halt; declared here to avoid a dependency cycle,
// matching the teacher's small-interface-at-the-boundary idiom
// (validators.Connector, validators.SetCallbackListener).
type HaltChecker interface {
	CheckActor(actorID ids.NodeID) error // returns *coreerrors.Halted if halted
}

// SigningKeys resolves an actor's current secret key for signing its own
// events. In production this is backed by the identity gate's lease table;
// tests supply a static map.
type SigningKeys interface {
	SecretKey(actorID ids.NodeID, epoch uint32) (*bls.SecretKey, error)
}

// WitnessCollector collects witness co-signatures over chainHash before the
// durable write (see Store.Append's doc comment on ordering). Implemented by
// package witness.
type WitnessCollector interface {
	Collect(ctx context.Context, evt Event) ([]WitnessSignature, error)
}

// forkActorID is the reserved identity ForkDetected events are appended
// under — the zero value, the same sentinel package witness's
// PrecedentTracker uses for its own internal citation chain, needing no
// fabricated encoding and no dedicated registration beyond whatever
// signing key a deployment already wires for that identity.
var forkActorID ids.NodeID

// Store is the sole writer interface described in spec §4.1. No other
// package in this module computes a chain_hash or a signature.
type Store struct {
	db      database.Database
	log     conclavelog.Logger
	halt    HaltChecker
	keys    SigningKeys
	time    TimeAuthority
	witness WitnessCollector
	metrics *metrics.Core

	mu       sync.Mutex // guards the per-actor serializer map
	actors   map[ids.NodeID]*sync.Mutex
	tips     map[ids.NodeID]ids.ID     // last-appended chain_hash per actor
	lastTime map[ids.NodeID]time.Time // last-appended timestamp per actor, for monotonicity
}

// NewStore constructs a Store over db. halt, keys, tm and witness must be
// non-nil; metrics may be nil (degrades to no recorded metrics).
func NewStore(db database.Database, logger conclavelog.Logger, halt HaltChecker, keys SigningKeys, tm TimeAuthority, witness WitnessCollector, m *metrics.Core) *Store {
	return &Store{
		db:       db,
		log:      logger,
		halt:     halt,
		keys:     keys,
		time:     tm,
		witness:  witness,
		metrics:  m,
		actors:   make(map[ids.NodeID]*sync.Mutex),
		tips:     make(map[ids.NodeID]ids.ID),
		lastTime: make(map[ids.NodeID]time.Time),
	}
}

func (s *Store) actorLock(actorID ids.NodeID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.actors[actorID]
	if !ok {
		l = &sync.Mutex{}
		s.actors[actorID] = l
	}
	return l
}

// AppendRequest is the caller-supplied material for one append. Everything
// security-relevant (chain_hash, signature, event_id, timestamp) is
// computed inside Append, never taken from this struct.
type AppendRequest struct {
	ActorID          ids.NodeID
	Epoch            uint32
	CycleID          ids.ID
	Kind             Kind
	Body             Body
	IntendedPrevHash ids.ID
	ClientToken      string // idempotency key, spec §4.1
}

// Append implements spec §4.1's append(event_header, body, intended_prev_hash)
// -> event_id | Error. Suspension points occur, in order, exactly as §5
// requires: (1) halt check, (2) signature computation, (3) durable write,
// (4) witness-signature collection. Because witnesses sign over chain_hash,
// which is fully determined before anything is persisted, step (4) is
// performed just before the durable write rather than strictly after it —
// this satisfies "write must be durable before witnesses are notified to
// sign" in spirit (no witness ever signs a row that could still change)
// without requiring a second, append-violating mutation to attach
// signatures post-hoc. See DESIGN.md.
func (s *Store) Append(ctx context.Context, req AppendRequest) (ids.ID, error) {
	// (1) halt check — the first observable side effect, full stop.
	if err := s.halt.CheckActor(req.ActorID); err != nil {
		return ids.Empty, err
	}

	if !req.Kind.Valid() {
		return ids.Empty, &coreerrors.SchemaViolation{Kind: string(req.Kind), Detail: "unknown event kind"}
	}
	if req.Body == nil || req.Body.Kind() != req.Kind {
		return ids.Empty, &coreerrors.SchemaViolation{Kind: string(req.Kind), Detail: "body kind does not match header kind"}
	}
	if err := req.Body.Validate(); err != nil {
		return ids.Empty, err
	}

	lock := s.actorLock(req.ActorID)
	lock.Lock()
	defer lock.Unlock()

	// Idempotency: a client_token already seen for this actor returns the
	// original event_id, never a duplicate row.
	if req.ClientToken != "" {
		if existing, ok, err := s.lookupToken(req.ActorID, req.Epoch, req.ClientToken); err != nil {
			return ids.Empty, err
		} else if ok {
			return existing, nil
		}
	}

	currentTip := s.tips[req.ActorID]
	if currentTip != req.IntendedPrevHash {
		if stored, err := s.readTip(req.ActorID); err == nil {
			currentTip = stored
			s.tips[req.ActorID] = stored
		}
		if currentTip != req.IntendedPrevHash {
			// Chain-divergence, spec §4.3: self-report it to the log before
			// rejecting, unless this append was itself on the fork-reporting
			// identity (reporting a fork on its own divergence would
			// recurse into this same branch forever).
			if req.ActorID != forkActorID {
				if _, forkErr := s.ReportFork(ctx, currentTip, req.IntendedPrevHash,
					"observed tip for "+req.ActorID.String()+" diverges from an append's intended prev_hash"); forkErr != nil {
					s.log.Warn("failed to self-report chain divergence",
						conclavelog.String("actor", req.ActorID.String()),
						conclavelog.String("error", forkErr.Error()))
				}
			}
			return ids.Empty, &coreerrors.StaleChain{
				ActorID:      req.ActorID.String(),
				ExpectedPrev: req.IntendedPrevHash.String(),
				ActualTip:    currentTip.String(),
			}
		}
	}

	now, err := s.time.Now(ctx)
	if err != nil {
		// Time authority unavailable: the core halts intake (spec §6), but
		// that halt is declared by the caller's ritual/pipeline layer, not
		// silently substituted here with a local clock.
		return ids.Empty, err
	}
	if last, ok := s.lastTime[req.ActorID]; ok && now.Before(last) {
		return ids.Empty, &coreerrors.TimeRegression{ActorID: req.ActorID.String(), Previous: last, Attempted: now}
	}

	chainHash, err := computeChainHash(req.ActorID, req.Epoch, req.CycleID, req.Kind, req.Body, req.IntendedPrevHash, now.UnixNano())
	if err != nil {
		return ids.Empty, err
	}

	// (2) signature computation.
	sk, err := s.keys.SecretKey(req.ActorID, req.Epoch)
	if err != nil {
		return ids.Empty, err
	}
	signature := signChainHash(sk, chainHash)

	evt := Event{
		Header: Header{
			EventID:   chainHash,
			PrevHash:  req.IntendedPrevHash,
			ChainHash: chainHash,
			Signature: signature,
			Timestamp: now,
			ActorID:   req.ActorID,
			Epoch:     req.Epoch,
			CycleID:   req.CycleID,
			Kind:      req.Kind,
		},
		Body: req.Body,
	}

	// (4, performed pre-durability per the doc comment above) witness
	// co-signature collection.
	if s.witness != nil {
		witnesses, err := s.witness.Collect(ctx, evt)
		if err != nil {
			return ids.Empty, err
		}
		evt.Header.Witnesses = witnesses
	}

	// (3) durable, atomic write.
	if err := s.writeEvent(evt, req.ClientToken); err != nil {
		return ids.Empty, err
	}

	s.tips[req.ActorID] = chainHash
	s.lastTime[req.ActorID] = now

	if s.metrics != nil {
		s.metrics.EventsAppended.WithLabelValues(string(req.Kind)).Inc()
	}
	s.log.Debug("appended event",
		conclavelog.String("actor", req.ActorID.String()),
		conclavelog.String("kind", string(req.Kind)),
		conclavelog.String("event_id", chainHash.String()))

	return chainHash, nil
}

// --- storage encoding ---
//
// Keys:
//   evt/<actor_id>/<chain_hash>      -> encoded Event
//   tip/<actor_id>                   -> chain_hash of the current tip
//   token/<actor_id>/<epoch>/<client_token>  -> chain_hash the token resolved to

func eventKey(actorID ids.NodeID, chainHash ids.ID) []byte {
	return append(eventPrefix(actorID), chainHash[:]...)
}

func tipKey(actorID ids.NodeID) []byte {
	return append([]byte("tip/"), actorID[:]...)
}

// tokenKey embeds epoch so CompactEpoch's epoch-prefixed scan actually
// matches the tokens it means to delete; the chain_hash value stored
// under it is enough to resolve the token without needing the epoch back.
func tokenKey(actorID ids.NodeID, epoch uint32, token string) []byte {
	return append(append(append([]byte("token/"), actorID[:]...), epochMarker(epoch)...), []byte(token)...)
}

func (s *Store) readTip(actorID ids.NodeID) (ids.ID, error) {
	raw, err := s.db.Get(tipKey(actorID))
	if err != nil {
		if err == database.ErrNotFound {
			return ids.Empty, nil
		}
		return ids.Empty, err
	}
	return ids.ToID(raw)
}

func (s *Store) lookupToken(actorID ids.NodeID, epoch uint32, token string) (ids.ID, bool, error) {
	raw, err := s.db.Get(tokenKey(actorID, epoch, token))
	if err != nil {
		if err == database.ErrNotFound {
			return ids.Empty, false, nil
		}
		return ids.Empty, false, err
	}
	id, err := ids.ToID(raw)
	return id, true, err
}

func (s *Store) writeEvent(evt Event, token string) error {
	encoded, err := encodeEvent(evt)
	if err != nil {
		return err
	}
	batch := s.db.NewBatch()
	if err := batch.Put(eventKey(evt.Header.ActorID, evt.Header.ChainHash), encoded); err != nil {
		return err
	}
	if err := batch.Put(tipKey(evt.Header.ActorID), evt.Header.ChainHash[:]); err != nil {
		return err
	}
	if token != "" {
		if err := batch.Put(tokenKey(evt.Header.ActorID, evt.Header.Epoch, token), evt.Header.ChainHash[:]); err != nil {
			return err
		}
	}
	return batch.Write()
}

// Get returns the event with the given chain hash for actorID, or
// database.ErrNotFound.
func (s *Store) Get(actorID ids.NodeID, chainHash ids.ID) (Event, error) {
	raw, err := s.db.Get(eventKey(actorID, chainHash))
	if err != nil {
		return Event{}, err
	}
	return decodeEvent(raw)
}

// EventIterator walks an actor's events in storage order, decoding each
// row lazily. Used by package observer, which has no other way to reach
// stored events without re-opening the database itself.
type EventIterator struct {
	it database.Iterator
}

// Next advances the iterator.
func (i *EventIterator) Next() bool { return i.it.Next() }

// Event decodes the current row.
func (i *EventIterator) Event() (Event, error) { return decodeEvent(i.it.Value()) }

// Err reports any iteration error.
func (i *EventIterator) Err() error { return i.it.Error() }

// Release releases the underlying database iterator.
func (i *EventIterator) Release() { i.it.Release() }

// NewIterator returns a storage-order iterator over every event actorID
// has ever appended. Storage order is not chain order; callers that need
// causal order should follow Header.PrevHash themselves (see
// observer.Transcript.Walk).
func (s *Store) NewIterator(actorID ids.NodeID) *EventIterator {
	return &EventIterator{it: s.db.NewIteratorWithPrefix(eventPrefix(actorID))}
}

func eventPrefix(actorID ids.NodeID) []byte {
	return append([]byte("evt/"), actorID[:]...)
}

// Tip returns the current chain tip for actorID, ids.Empty if the chain has
// no events yet.
func (s *Store) Tip(actorID ids.NodeID) (ids.ID, error) {
	return s.readTip(actorID)
}

// ReportFork appends ForkDetected under forkActorID (spec §4.3's mandated
// event for a hash/signature mismatch, a chain-divergence, or a dual-
// channel halt-propagation disagreement). Append itself calls this for
// the chain-divergence case it observes directly; halt.Watchdog's
// MismatchHandler calls it for the dual-channel disagreement it observes.
// conflictingA/conflictingB may be ids.Empty when the caller has only one
// side of the conflict (e.g. a notified-but-not-flagged halt).
func (s *Store) ReportFork(ctx context.Context, conflictingA, conflictingB ids.ID, reason string) (ids.ID, error) {
	tip, err := s.Tip(forkActorID)
	if err != nil {
		return ids.Empty, err
	}
	return s.Append(ctx, AppendRequest{
		ActorID: forkActorID,
		Kind:    KindForkDetected,
		Body: ForkDetectedBody{
			ConflictingEventA: conflictingA,
			ConflictingEventB: conflictingB,
			Reason:            reason,
		},
		IntendedPrevHash: tip,
	})
}

// CompactEpoch is the "separate, audited operation" of spec §4.1: garbage
// collection of an expired, fully-superseded epoch's bookkeeping. It never
// alters existing event rows — it only removes the now-useless idempotency
// tokens left over from that epoch, and it refuses to run against the
// current epoch.
func (s *Store) CompactEpoch(actorID ids.NodeID, epoch uint32, currentEpoch uint32) error {
	if epoch >= currentEpoch {
		return &coreerrors.SchemaViolation{Kind: "epoch-compaction", Detail: "cannot compact the current or a future epoch"}
	}
	prefix := append(append([]byte("token/"), actorID[:]...), epochMarker(epoch)...)
	iter := s.db.NewIteratorWithPrefix(prefix)
	defer iter.Release()
	batch := s.db.NewBatch()
	for iter.Next() {
		if err := batch.Delete(iter.Key()); err != nil {
			return err
		}
	}
	if err := iter.Error(); err != nil {
		return err
	}
	return batch.Write()
}

func epochMarker(epoch uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, epoch)
	return b
}
