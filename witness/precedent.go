// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package witness

import (
	"context"
	"sync"

	"github.com/luxfi/conclave/event"
	"github.com/luxfi/conclave/metrics"
	"github.com/luxfi/ids"
)

// CollusionThreshold is the default pair-frequency above which a repeated
// witness pairing is escalated into a breach citation rather than merely
// observed. Exported so an operator can tune it without forking the
// package.
const CollusionThreshold = 8

// PrecedentTracker wires PairFrequency observations to PrecedentCited
// escalation: every completed witness selection is observed, and any
// pair whose frequency crosses threshold results in a non-binding
// citation appended to the log, for a human or the Override ritual to
// act on — binding is always false (enforced independently in
// PrecedentCitedBody.Validate).
//
// Citations are appended under a dedicated ledgerActor identity rather
// than the cited event's own actor_id. ObserveSelection is invoked from
// inside Collector.Collect, which Store.Append calls while still holding
// that event's actor_id lock (store.go's actorLock is a plain, non-
// reentrant sync.Mutex) — appending under the same actor_id from inside
// that call would deadlock. A separate, never-otherwise-used actor_id
// keeps the precedent log itself a first-class, independently-auditable
// chain instead of a side channel on every witnessed actor's chain.
type PrecedentTracker struct {
	store       *event.Store
	freq        *PairFrequency
	threshold   int
	metrics     *metrics.Core
	ledgerActor ids.NodeID
	ledgerEpoch uint32

	mu  sync.Mutex
	tip ids.ID
}

// NewPrecedentTracker wires a store, its pair-frequency cache, an
// escalation threshold, and the reserved actor_id the citation chain is
// appended under (see type doc). m may be nil. ledgerActor must have a
// signing key registered with the store's key resolver (typically
// identity.Gate) and must never be used as an operating cycle actor.
//
// store may be nil at construction and bound later with SetStore: a
// Collector built from this tracker is itself a constructor argument to
// event.NewStore, so a wiring call site that builds both together (see
// cmd/conclave) has no non-circular order in which store can already
// exist. This mirrors the teacher corpus's own two-phase engine wiring
// for the same kind of mutual dependency.
func NewPrecedentTracker(store *event.Store, freq *PairFrequency, threshold int, m *metrics.Core, ledgerActor ids.NodeID) *PrecedentTracker {
	if threshold <= 0 {
		threshold = CollusionThreshold
	}
	return &PrecedentTracker{store: store, freq: freq, threshold: threshold, metrics: m, ledgerActor: ledgerActor, tip: ids.Empty}
}

// SetStore binds the store this tracker appends citations to, for the
// circular-construction case described above. Must be called before any
// selection is observed.
func (t *PrecedentTracker) SetStore(store *event.Store) {
	t.store = store
}

// ObserveSelection records a witness selection and appends PrecedentCited
// for every pair that has now crossed the threshold. citedEventID is the
// event the witnesses just signed, used as the citation's grounds.
func (t *PrecedentTracker) ObserveSelection(ctx context.Context, citedEventID ids.ID, witnesses []ids.NodeID) ([]ids.ID, error) {
	t.freq.Observe(witnesses)
	if t.metrics != nil {
		for i := 0; i < len(witnesses); i++ {
			for j := i + 1; j < len(witnesses); j++ {
				t.metrics.WitnessPairFreq.Observe(float64(t.freq.Frequency(witnesses[i], witnesses[j])))
			}
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var appended []ids.ID
	for i := 0; i < len(witnesses); i++ {
		for j := i + 1; j < len(witnesses); j++ {
			freq := t.freq.Frequency(witnesses[i], witnesses[j])
			if freq < t.threshold {
				continue
			}
			id, err := t.store.Append(ctx, event.AppendRequest{
				ActorID: t.ledgerActor, Epoch: t.ledgerEpoch,
				Kind: event.KindPrecedentCited,
				Body: event.PrecedentCitedBody{
					CitedEventID: citedEventID,
					Grounds:      "witness pair co-selected beyond collusion threshold",
					Binding:      false,
					CitationKind: "witness-anomaly",
				},
				IntendedPrevHash: t.tip,
			})
			if err != nil {
				return appended, err
			}
			appended = append(appended, id)
			t.tip = id
		}
	}
	return appended, nil
}

// Challenge appends PrecedentChallenged against a previously cited event,
// under the same ledgerActor chain ObserveSelection writes to. Unlike
// ObserveSelection, this is always called directly by an operator (never
// from inside Store.Append); it chains onto the tracker's own internal
// tip, the same one ObserveSelection advances, and takes no prevHash.
func (t *PrecedentTracker) Challenge(ctx context.Context, citedEventID ids.ID, grounds string) (ids.ID, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id, err := t.store.Append(ctx, event.AppendRequest{
		ActorID: t.ledgerActor, Epoch: t.ledgerEpoch,
		Kind:             event.KindPrecedentChallenged,
		Body:             event.PrecedentChallengedBody{CitedEventID: citedEventID, Grounds: grounds},
		IntendedPrevHash: t.tip,
	})
	if err != nil {
		return ids.Empty, err
	}
	t.tip = id
	return id, nil
}
