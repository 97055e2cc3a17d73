// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ritual

import (
	"context"
	"crypto/sha256"
	"sync"
	"time"

	"github.com/luxfi/conclave/coreerrors"
	"github.com/luxfi/conclave/event"
	"github.com/luxfi/ids"
)

// DefaultOverrideDuration is the spec §4.5 default scope duration when
// none is supplied.
const DefaultOverrideDuration = 72 * time.Hour

// Override tracks the spec §4.5 Override Ritual: OverrideInvoked is
// synchronous notification (the event itself is the notice to the
// conclave), and OverrideConcluded is mandatory — its absence at scope
// expiry is a breach, never a silent end.
type Override struct {
	store *event.Store

	mu        sync.Mutex
	actorID   ids.NodeID
	invokedAt time.Time
	duration  time.Duration
	scope     string
	concluded bool
}

// NewOverride returns an un-invoked override tracker.
func NewOverride(store *event.Store) *Override {
	return &Override{store: store}
}

// Invoke appends OverrideInvoked. A zero duration is replaced by
// DefaultOverrideDuration.
func (o *Override) Invoke(ctx context.Context, actorID ids.NodeID, epoch uint32, declaration, scope string, duration time.Duration, invokedAt time.Time, prevHash ids.ID) (ids.ID, error) {
	o.mu.Lock()
	if o.scope != "" && !o.concluded {
		o.mu.Unlock()
		return ids.Empty, &coreerrors.SchemaViolation{Kind: "override-invoked", Detail: "an override is already active"}
	}
	o.mu.Unlock()

	if duration <= 0 {
		duration = DefaultOverrideDuration
	}
	id, err := o.store.Append(ctx, event.AppendRequest{
		ActorID: actorID, Epoch: epoch,
		Kind: event.KindOverrideInvoked,
		Body: event.OverrideInvokedBody{Declaration: declaration, Scope: scope, Duration: duration},
		IntendedPrevHash: prevHash,
	})
	if err != nil {
		return ids.Empty, err
	}
	o.mu.Lock()
	o.actorID, o.scope, o.duration, o.invokedAt, o.concluded = actorID, scope, duration, invokedAt, false
	o.mu.Unlock()
	return id, nil
}

// Conclude appends OverrideConcluded, ending the active override.
func (o *Override) Conclude(ctx context.Context, actorID ids.NodeID, epoch uint32, outcome string, prevHash ids.ID) (ids.ID, error) {
	o.mu.Lock()
	if o.scope == "" || o.concluded {
		o.mu.Unlock()
		return ids.Empty, &coreerrors.SchemaViolation{Kind: "override-concluded", Detail: "no active override to conclude"}
	}
	scope := o.scope
	o.mu.Unlock()

	id, err := o.store.Append(ctx, event.AppendRequest{
		ActorID: actorID, Epoch: epoch,
		Kind: event.KindOverrideConcluded,
		Body: event.OverrideConcludedBody{Scope: scope, Outcome: outcome},
		IntendedPrevHash: prevHash,
	})
	if err != nil {
		return ids.Empty, err
	}
	o.mu.Lock()
	o.concluded = true
	o.mu.Unlock()
	return id, nil
}

// expired reports whether an active, unconcluded override's scope has
// elapsed as of now.
func (o *Override) expired(now time.Time) (bool, ids.NodeID, uint32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.scope == "" || o.concluded {
		return false, ids.NodeID{}, 0
	}
	return now.After(o.invokedAt.Add(o.duration)), o.actorID, 0
}

// OverrideMonitor implements the spec §4.5 resolved Open Question: scope
// expiry emits a breach automatically rather than waiting for an operator
// to notice. It polls rather than fires a single timer so that a late
// OverrideConcluded racing the expiry check is never missed.
type OverrideMonitor struct {
	override *Override
	breach   *BreachLedger
	store    *event.Store
	now      func() time.Time
	interval time.Duration
}

// NewOverrideMonitor wires an Override to the BreachLedger that should
// receive the automatic override-expired breach.
func NewOverrideMonitor(override *Override, breach *BreachLedger, store *event.Store, now func() time.Time, interval time.Duration) *OverrideMonitor {
	if interval <= 0 {
		interval = time.Second
	}
	return &OverrideMonitor{override: override, breach: breach, store: store, now: now, interval: interval}
}

// Run polls until ctx is done or it emits the automatic expiry breach
// (whichever comes first); a concluded override is never expired, so
// concluding one does not end Run. It runs in its own goroutine for the
// lifetime of one cycle. epochFor resolves the
// invoking actor's current lease epoch at the moment expiry is observed
// (typically identity.Gate.CurrentEpoch) rather than a fixed epoch
// supplied at Run's call time, since Run is started once per cycle —
// often before any override has even been invoked — and the eventual
// invoker's epoch is not yet known then.
func (m *OverrideMonitor) Run(ctx context.Context, epochFor func(ids.NodeID) uint32) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			expired, invokerID, _ := m.override.expired(m.now())
			if !expired {
				continue
			}
			tip, err := m.store.Tip(invokerID)
			if err != nil {
				return err
			}
			breachID := overrideExpiryBreachID(invokerID, tip, m.now())
			_, err = m.breach.Declare(ctx, invokerID, epochFor(invokerID), breachID, "override-expired",
				"override scope elapsed without OverrideConcluded", tip)
			if err != nil {
				return err
			}
			return nil
		}
	}
}

// overrideExpiryBreachID derives a content-addressed id for the automatic
// expiry breach, the same way the rest of the system derives ids — from
// the material that caused it, not a random nonce.
func overrideExpiryBreachID(invokerID ids.NodeID, tip ids.ID, at time.Time) ids.ID {
	var buf []byte
	buf = append(buf, invokerID[:]...)
	buf = append(buf, tip[:]...)
	buf = append(buf, []byte(at.UTC().Format(time.RFC3339Nano))...)
	return ids.ID(sha256.Sum256(buf))
}
