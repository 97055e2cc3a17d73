// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package observer implements C7, the read-only Observer Interface: an
// iterator-backed view over one actor's event chain for external parties
// who must be able to follow a conclave's business without ever being
// able to influence it. Every method here is advisory — nothing in this
// package can append, halt, or otherwise mutate state; it only replays
// what event.Store already durably wrote.
package observer

import (
	"github.com/luxfi/conclave/event"
	"github.com/luxfi/ids"
)

// Transcript replays one actor's event chain through event.Store's own
// read surface — generalized from the teacher's `engine/dag/state.State`,
// which offers the same "read-side view over a write-owning store" shape
// for vertices instead of events. Transcript never opens the database
// itself; it has no access beyond what Store already exposes.
type Transcript struct {
	store   *event.Store
	actorID ids.NodeID
}

// NewTranscript returns a read-only view over actorID's chain.
func NewTranscript(store *event.Store, actorID ids.NodeID) *Transcript {
	return &Transcript{store: store, actorID: actorID}
}

// NewIterator returns a storage-order iterator over every event this
// actor has ever appended. Storage order is not guaranteed to equal
// chain order — Walk reconstructs that separately.
func (t *Transcript) NewIterator() *event.EventIterator {
	return t.store.NewIterator(t.actorID)
}

// Tip returns the actor's current chain tip.
func (t *Transcript) Tip() (ids.ID, error) {
	return t.store.Tip(t.actorID)
}

// Walk reconstructs the chain in causal order (genesis first) by
// following PrevHash links from tip, rather than trusting storage order.
// This is what Attest and Audit build on, since "re-reading the log
// reproduces the state exactly" (spec §4.5 cross-cutting invariant)
// requires causal, not incidental, ordering.
func (t *Transcript) Walk(tip ids.ID) ([]event.Event, error) {
	var chain []event.Event
	cursor := tip
	for cursor != ids.Empty {
		evt, err := t.store.Get(t.actorID, cursor)
		if err != nil {
			return nil, err
		}
		chain = append(chain, evt)
		cursor = evt.Header.PrevHash
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}
