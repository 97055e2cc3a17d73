// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package coreerrors declares the closed set of error kinds from spec §7.
// Halted and IntegrityFailure are distinct exported struct types rather
// than sentinel values: a call site that wants to continue past either one
// has to name the type explicitly (errors.As), which makes "swallow the
// halt" a visible, greppable decision instead of an accidental
// `if err != nil { return nil }`.
package coreerrors

import (
	"errors"
	"fmt"
	"time"
)

// Halted is returned by any operation attempted while the affected chain
// (or the whole core, for a global halt) is halted. It is never recoverable
// locally: every call site that can receive it must propagate it unchanged.
type Halted struct {
	Reason      string
	DeclaredBy  string
	DeclaredAt  time.Time
}

func (e *Halted) Error() string {
	return fmt.Sprintf("halted: %s (declared by %s at %s)", e.Reason, e.DeclaredBy, e.DeclaredAt.Format(time.RFC3339))
}

// IntegrityFailure covers signature mismatch, hash mismatch, and fork
// detection (spec §4.1, §4.3). Like Halted, it halts the affected chain and
// must not be recovered locally.
type IntegrityFailure struct {
	ActorID string
	Kind    string // "signature", "hash", "fork"
	Detail  string
}

func (e *IntegrityFailure) Error() string {
	return fmt.Sprintf("integrity failure (%s) on actor %s: %s", e.Kind, e.ActorID, e.Detail)
}

// StaleChain is an optimistic-concurrency miss: the caller's intended
// prev_hash no longer matches the chain tip. Retryable outside halt.
type StaleChain struct {
	ActorID      string
	ExpectedPrev string
	ActualTip    string
}

func (e *StaleChain) Error() string {
	return fmt.Sprintf("stale chain for actor %s: expected prev %s, tip is %s", e.ActorID, e.ExpectedPrev, e.ActualTip)
}

// IdentityConflict means a lease is already held by another live instance.
// The caller must not retry without re-acquiring.
type IdentityConflict struct {
	ActorID string
}

func (e *IdentityConflict) Error() string {
	return fmt.Sprintf("identity conflict: a live lease already exists for actor %s", e.ActorID)
}

// SchemaViolation means an event body failed kind-specific validation.
// Not halt-inducing unless recurrent (that judgment is made by the caller,
// typically by emitting a BreachDeclared after repeated violations).
type SchemaViolation struct {
	Kind   string
	Detail string
}

func (e *SchemaViolation) Error() string {
	return fmt.Sprintf("schema violation for event kind %s: %s", e.Kind, e.Detail)
}

// QuorumUnmet means a tally was attempted without quorum. The tally is not
// written; the caller is expected to emit a breach event if appropriate.
type QuorumUnmet struct {
	MotionID     string
	CastFraction float64
	Required     float64
}

func (e *QuorumUnmet) Error() string {
	return fmt.Sprintf("quorum unmet for motion %s: cast fraction %.3f < required %.3f", e.MotionID, e.CastFraction, e.Required)
}

// TimeRegression is a non-monotone timestamp: caller error, never a halt.
type TimeRegression struct {
	ActorID  string
	Previous time.Time
	Attempted time.Time
}

func (e *TimeRegression) Error() string {
	return fmt.Sprintf("time regression for actor %s: attempted %s is before previous %s",
		e.ActorID, e.Attempted.Format(time.RFC3339Nano), e.Previous.Format(time.RFC3339Nano))
}

// IsHalted reports whether err is, or wraps, a *Halted.
func IsHalted(err error) bool {
	var h *Halted
	return errors.As(err, &h)
}

// IsIntegrityFailure reports whether err is, or wraps, an *IntegrityFailure.
func IsIntegrityFailure(err error) bool {
	var f *IntegrityFailure
	return errors.As(err, &f)
}

// IsStaleChain reports whether err is, or wraps, a *StaleChain — the only
// error kind in this package that is retryable, and only outside halt.
func IsStaleChain(err error) bool {
	var s *StaleChain
	return errors.As(err, &s)
}

// IsIdentityConflict reports whether err is, or wraps, an *IdentityConflict.
func IsIdentityConflict(err error) bool {
	var c *IdentityConflict
	return errors.As(err, &c)
}
