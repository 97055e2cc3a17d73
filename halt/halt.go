// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package halt implements the Halt & Fork Detector (spec §4.3): a sticky,
// dual-channel halt mechanism that every read feeding a decision, every
// append, and every ritual advance must consult before acting.
package halt

import (
	"sync"
	"time"

	"github.com/luxfi/conclave/coreerrors"
	"github.com/luxfi/conclave/utils"
	"github.com/luxfi/ids"
)

// record captures why and when a chain halted — nil means not halted.
type record struct {
	reason     string
	declaredBy string
	declaredAt time.Time
}

// Flag is the shared, sticky halt state for one scope (one actor_id's
// chain, or the whole core for a global halt). Once set, it does not
// expire, auto-recover, or clear on heartbeat/timer/retry — the only exit
// is an explicit ReformMotion adopted in a newly opened cycle (spec §4.3).
// The reset itself is Detector.ClearActor/ClearGlobal; no package in this
// module calls them, and ritual.DissolutionDeliberation.Reform appends
// ReformMotion without clearing any Flag.
//
// Generalized from utils.Atomic[T], which the teacher uses for single
// process-wide flags; here one Flag exists per actor_id plus one for the
// global scope, held in a Detector's map.
type Flag struct {
	state *utils.Atomic[*record]
}

func newFlag() *Flag {
	f := &Flag{state: utils.NewAtomic[*record](nil)}
	return f
}

// Halted reports whether the flag is currently set.
func (f *Flag) Halted() bool {
	return f.state.Get() != nil
}

// Check returns a *coreerrors.Halted if the flag is set, nil otherwise.
// Every call site in the core that can observe a halt condition calls this
// first (spec §4.3, §5).
func (f *Flag) Check() error {
	r := f.state.Get()
	if r == nil {
		return nil
	}
	return &coreerrors.Halted{Reason: r.reason, DeclaredBy: r.declaredBy, DeclaredAt: r.declaredAt}
}

// set declares halt if it is not already declared; returns false if it was
// already set (halt is idempotent — the first declaration wins and later
// ones are no-ops, not errors, since multiple independent detectors can
// race to declare the same condition).
func (f *Flag) set(reason, declaredBy string, at time.Time) bool {
	if f.state.Get() != nil {
		return false
	}
	f.state.Set(&record{reason: reason, declaredBy: declaredBy, declaredAt: at})
	return true
}

// clear is the sole reset path, invoked only by an adopted ReformMotion.
func (f *Flag) clear() {
	f.state.Set(nil)
}

// Detector owns one Flag per actor_id plus one global Flag, and the
// notification channel that is the second of the spec's two independent
// propagation channels (see notifier.go).
type Detector struct {
	mu       sync.Mutex
	global   *Flag
	perActor map[ids.NodeID]*Flag
	notifier *Notifier
}

// NewDetector returns a Detector with no halts declared.
func NewDetector() *Detector {
	return &Detector{
		global:   newFlag(),
		perActor: make(map[ids.NodeID]*Flag),
		notifier: NewNotifier(),
	}
}

func (d *Detector) flagFor(actorID ids.NodeID) *Flag {
	d.mu.Lock()
	defer d.mu.Unlock()
	f, ok := d.perActor[actorID]
	if !ok {
		f = newFlag()
		d.perActor[actorID] = f
	}
	return f
}

// CheckActor implements event.HaltChecker: a global halt takes precedence
// over (and implies) a halt on any individual actor.
func (d *Detector) CheckActor(actorID ids.NodeID) error {
	if err := d.global.Check(); err != nil {
		return err
	}
	return d.flagFor(actorID).Check()
}

// DeclareGlobal sets the global halt flag — used for an operator-declared
// HaltDeclared with override scope, or an unresolved breach persisting
// across a cycle boundary (spec §4.5). Returns false if already halted.
func (d *Detector) DeclareGlobal(reason, declaredBy string, at time.Time) bool {
	ok := d.global.set(reason, declaredBy, at)
	if ok {
		d.notifier.Broadcast(HaltEvent{Scope: ScopeGlobal, Reason: reason, DeclaredBy: declaredBy, DeclaredAt: at})
	}
	return ok
}

// DeclareActor sets the halt flag for one actor_id's chain — used on a
// hash/signature verification failure in C1, or a detected fork (spec
// §4.3). Returns false if that actor was already halted.
func (d *Detector) DeclareActor(actorID ids.NodeID, reason, declaredBy string, at time.Time) bool {
	ok := d.flagFor(actorID).set(reason, declaredBy, at)
	if ok {
		d.notifier.Broadcast(HaltEvent{Scope: ScopeActor, ActorID: actorID, Reason: reason, DeclaredBy: declaredBy, DeclaredAt: at})
	}
	return ok
}

// ClearActor implements the sole exit from a per-actor halt: an adopted
// ReformMotion in a newly opened cycle. Global halts are cleared the same
// way via ClearGlobal; the two are never conflated by a single call.
func (d *Detector) ClearActor(actorID ids.NodeID) {
	d.flagFor(actorID).clear()
}

// ClearGlobal clears the global halt flag, again only ever in response to
// an adopted ReformMotion.
func (d *Detector) ClearGlobal() {
	d.global.clear()
}

// Notifications returns the detector's notification channel for subscription by
// the dual-channel mismatch watchdog (see notifier.go).
func (d *Detector) Notifications() *Notifier {
	return d.notifier
}
