// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package witness

import (
	"context"

	"github.com/luxfi/conclave/coreerrors"
	"github.com/luxfi/conclave/event"
	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/ids"
)

// WitnessKeys resolves a witness's signing key, analogous to
// event.SigningKeys for the actor's own key. In production this is
// backed by the same identity gate (package identity); it is a distinct
// interface because a witness signs on its own epoch, not the event
// actor's.
type WitnessKeys interface {
	SecretKey(witnessID ids.NodeID, epoch uint32) (*bls.SecretKey, error)
}

// HaltChecker mirrors event.HaltChecker so package witness does not need
// to import package event's store-side consumer of it; identity.Gate's
// companion halt.Detector already implements this shape.
type HaltChecker interface {
	CheckActor(actorID ids.NodeID) error
}

// Collector is the concrete event.WitnessCollector: it samples a
// deterministic witness set from the roster (seeded from the event's own
// PrevHash, per spec §4.6) and has each selected witness sign the event's
// chain_hash. Collection happens synchronously inside Store.Append, so by
// the time a Collect call returns, every signature it yields is already
// over a chain_hash that cannot change (see event/store.go's doc comment
// on append ordering).
type Collector struct {
	selector  *Selector
	roster    func() []ids.NodeID
	keys      WitnessKeys
	epochs    func(witnessID ids.NodeID) uint32
	precedent *PrecedentTracker
	halted    HaltChecker
}

// NewCollector wires a Selector, a roster accessor (the current witness
// pool, which can change between cycles), a key resolver, an epoch
// accessor (typically identity.Gate.CurrentEpoch), a halt checker
// (typically halt.Detector, used to exclude any currently-halted identity
// from the candidate pool), and an optional PrecedentTracker (nil disables
// collusion escalation — some call sites, like a cold-start cycle with no
// history, have nothing to escalate yet). The tracker, if present, must be
// keyed to a ledger actor_id distinct from every actor whose events this
// Collector witnesses (see PrecedentTracker's doc comment) — Collect runs
// inside Store.Append's per-actor lock for the event's own actor_id.
func NewCollector(selector *Selector, roster func() []ids.NodeID, keys WitnessKeys, epochs func(ids.NodeID) uint32, halted HaltChecker, precedent *PrecedentTracker) *Collector {
	return &Collector{selector: selector, roster: roster, keys: keys, epochs: epochs, halted: halted, precedent: precedent}
}

// Collect implements event.WitnessCollector. The candidate pool excludes
// the event's own actor (an actor cannot witness itself) and any
// currently-halted identity (a halted actor cannot attest to anyone
// else's event either).
func (c *Collector) Collect(ctx context.Context, evt event.Event) ([]event.WitnessSignature, error) {
	candidates := c.roster()
	pool := make([]ids.NodeID, 0, len(candidates))
	for _, id := range candidates {
		if id == evt.Header.ActorID {
			continue
		}
		if c.halted != nil && c.halted.CheckActor(id) != nil {
			continue
		}
		pool = append(pool, id)
	}

	witnesses, err := c.selector.Select(pool, evt.Header.PrevHash)
	if err != nil {
		return nil, err
	}

	sigs := make([]event.WitnessSignature, 0, len(witnesses))
	for _, w := range witnesses {
		epoch := uint32(0)
		if c.epochs != nil {
			epoch = c.epochs(w)
		}
		sk, err := c.keys.SecretKey(w, epoch)
		if err != nil {
			return nil, err
		}
		if sk == nil {
			return nil, &coreerrors.SchemaViolation{Kind: "witness-collect", Detail: "no signing key for selected witness"}
		}
		sig := bls.Sign(sk, evt.Header.ChainHash[:])
		sigs = append(sigs, event.WitnessSignature{WitnessID: w, Signature: bls.SignatureToBytes(sig)})
	}

	if c.precedent != nil {
		if _, err := c.precedent.ObserveSelection(ctx, evt.Header.EventID, witnesses); err != nil {
			return sigs, err
		}
	}
	return sigs, nil
}
