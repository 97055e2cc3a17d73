// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package identity implements the Agent Identity Gate (spec §4.2):
// single-instance enforcement per actor_id via short-lived, heartbeat-
// renewed leases. Byzantine agreement is deliberately not the mechanism
// here — the failure mode this guards against is two live instances of the
// same agent producing inconsistent writes, not a faulty quorum, so a
// leased mutex with epoch-fencing at C1 is the whole of the design.
package identity

import (
	"time"

	"github.com/luxfi/ids"
)

// Lease is the unit the gate hands out: at most one live Lease may exist
// for a given actor_id at any moment (spec §4.2).
type Lease struct {
	ActorID   ids.NodeID
	Epoch     uint32
	ExpiresAt time.Time
}

// Expired reports whether the lease is past its TTL as of now.
func (l Lease) Expired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}

// renewalDeadline is when a heartbeat must land to keep the lease alive —
// strictly before ExpiresAt, by safetyMargin (spec §4.2: "must refresh
// strictly before expires_at - safety_margin").
func (l Lease) renewalDeadline(safetyMargin time.Duration) time.Time {
	return l.ExpiresAt.Add(-safetyMargin)
}
