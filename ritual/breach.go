// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ritual

import (
	"context"
	"sync"

	"github.com/luxfi/conclave/coreerrors"
	"github.com/luxfi/conclave/event"
	"github.com/luxfi/ids"
)

type breachState struct {
	kind     string
	detail   string
	resolved bool
}

// BreachLedger tracks open BreachDeclared events for one cycle (spec §4.5
// Breach Acknowledgment). It never decides policy on its own — it only
// records what the event log already says and blocks CycleClosed until
// every tracked breach has a matching BreachResponded.
type BreachLedger struct {
	store *event.Store
	mu    sync.Mutex
	open  map[ids.ID]*breachState
}

// NewBreachLedger returns an empty ledger. CarriedForward lets a new
// cycle start already carrying unresolved breaches from its predecessor,
// as spec §4.5 requires.
func NewBreachLedger(store *event.Store, carriedForward map[ids.ID]string) *BreachLedger {
	l := &BreachLedger{store: store, open: make(map[ids.ID]*breachState)}
	for id, kind := range carriedForward {
		l.open[id] = &breachState{kind: kind}
	}
	return l
}

// Declare appends BreachDeclared and opens the breach.
func (l *BreachLedger) Declare(ctx context.Context, actorID ids.NodeID, epoch uint32, breachID ids.ID, kind, detail string, prevHash ids.ID) (ids.ID, error) {
	id, err := l.store.Append(ctx, event.AppendRequest{
		ActorID: actorID, Epoch: epoch,
		Kind: event.KindBreachDeclared,
		Body: event.BreachDeclaredBody{BreachID: breachID, BreachKind: kind, Detail: detail},
		IntendedPrevHash: prevHash,
	})
	if err != nil {
		return ids.Empty, err
	}
	l.mu.Lock()
	l.open[breachID] = &breachState{kind: kind, detail: detail}
	l.mu.Unlock()
	return id, nil
}

// Respond appends BreachResponded and, if the breach was tracked open,
// resolves it.
func (l *BreachLedger) Respond(ctx context.Context, actorID ids.NodeID, epoch uint32, breachID ids.ID, response string, prevHash ids.ID) (ids.ID, error) {
	l.mu.Lock()
	state, ok := l.open[breachID]
	l.mu.Unlock()
	if !ok {
		return ids.Empty, &coreerrors.SchemaViolation{Kind: "breach-response", Detail: "no tracked breach with that id"}
	}
	id, err := l.store.Append(ctx, event.AppendRequest{
		ActorID: actorID, Epoch: epoch,
		Kind: event.KindBreachResponded,
		Body: event.BreachRespondedBody{BreachID: breachID, Response: response},
		IntendedPrevHash: prevHash,
	})
	if err != nil {
		return ids.Empty, err
	}
	l.mu.Lock()
	state.resolved = true
	l.mu.Unlock()
	return id, nil
}

// Unresolved returns the breach ids that have been declared but not yet
// responded to.
func (l *BreachLedger) Unresolved() []ids.ID {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []ids.ID
	for id, s := range l.open {
		if !s.resolved {
			out = append(out, id)
		}
	}
	return out
}

// CarryForward returns the breach-kind map a successor cycle's ledger
// should be seeded with (spec §4.5: "unresolved breaches carry forward
// into the next cycle's open state").
func (l *BreachLedger) CarryForward() map[ids.ID]string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[ids.ID]string)
	for id, s := range l.open {
		if !s.resolved {
			out[id] = s.kind
		}
	}
	return out
}

// AttemptCycleClose implements the suppression check: if any breach is
// still unresolved, closing is not performed. Instead a SuppressionAttempted
// event is appended — itself a secondary, separately-witnessed breach —
// and the caller must not proceed to CycleBoundary.Close.
func (l *BreachLedger) AttemptCycleClose(ctx context.Context, attemptedBy ids.NodeID, epoch uint32, prevHash ids.ID) (eventID ids.ID, blocked bool, err error) {
	unresolved := l.Unresolved()
	if len(unresolved) == 0 {
		return ids.Empty, false, nil
	}
	id, err := l.store.Append(ctx, event.AppendRequest{
		ActorID: attemptedBy, Epoch: epoch,
		Kind: event.KindSuppressionAttempted,
		Body: event.SuppressionAttemptedBody{AttemptedBy: attemptedBy, UnresolvedBreach: unresolved[0]},
		IntendedPrevHash: prevHash,
	})
	if err != nil {
		return ids.Empty, true, err
	}
	return id, true, nil
}
