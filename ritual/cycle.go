// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ritual implements the six state machines of spec §4.5 — Cycle
// Boundary, Continuation Vote, Dissolution Deliberation, Breach
// Acknowledgment, Override, and Cessation. Every transition here is
// event-driven only: there is no timer-based advance anywhere in this
// package except the Override monitor's expiry check (spec §4.5's
// resolved Open Question), which itself only ever emits an event — it
// never mutates state directly.
package ritual

import (
	"context"

	"github.com/luxfi/conclave/coreerrors"
	"github.com/luxfi/conclave/event"
	"github.com/luxfi/ids"
)

// CycleStage is the Cycle Boundary ritual's own state, distinct from
// package deliberation's finer-grained Stage: this tracks only
// ∅ -> OPEN -> READY -> {CLOSED, DISSOLVED, INDEFINITE_SUSPENSION} (spec
// §4.5), while deliberation.Stage tracks the intake/voting machinery that
// runs during READY.
type CycleStage string

const (
	CycleEmpty               CycleStage = ""
	CycleOpen                CycleStage = "OPEN"
	CycleReady               CycleStage = "READY"
	CycleClosed              CycleStage = "CLOSED"
	CycleDissolved           CycleStage = "DISSOLVED"
	CycleIndefiniteSuspended CycleStage = "INDEFINITE_SUSPENSION"
)

// CycleBoundary is the spec §4.5 Cycle Boundary ritual:
// ∅ --CycleOpened--> OPEN --RollCallCompleted--> READY --...--CycleClosed--> CLOSED.
type CycleBoundary struct {
	store              *event.Store
	cycleID            ids.ID
	stage              CycleStage
	costSnapshotSeen   bool
}

// NewCycleBoundary returns a ritual tracker for a not-yet-opened cycle.
func NewCycleBoundary(store *event.Store, cycleID ids.ID) *CycleBoundary {
	return &CycleBoundary{store: store, cycleID: cycleID, stage: CycleEmpty}
}

// Stage returns the ritual's current stage.
func (c *CycleBoundary) Stage() CycleStage { return c.stage }

// Open appends CycleOpened and enters OPEN. A cost snapshot must follow
// immediately (spec §4.5); this method does not enforce adjacency itself
// (two appends can never be literally simultaneous), but Close refuses to
// silently ignore its absence.
func (c *CycleBoundary) Open(ctx context.Context, actorID ids.NodeID, epoch uint32, candidate []ids.NodeID, prevHash ids.ID) (ids.ID, error) {
	if c.stage != CycleEmpty {
		return ids.Empty, &coreerrors.SchemaViolation{Kind: "cycle-boundary", Detail: "cycle already opened"}
	}
	id, err := c.store.Append(ctx, event.AppendRequest{
		ActorID: actorID, Epoch: epoch, CycleID: c.cycleID,
		Kind: event.KindCycleOpened, Body: event.CycleOpenedBody{Roster: candidate},
		IntendedPrevHash: prevHash,
	})
	if err != nil {
		return ids.Empty, err
	}
	c.stage = CycleOpen
	return id, nil
}

// AnnounceCost appends the CostSnapshotAnnounced event the spec requires
// immediately after CycleOpened, and records that it was seen.
func (c *CycleBoundary) AnnounceCost(ctx context.Context, actorID ids.NodeID, epoch uint32, computeUnits uint64, wallClockSeconds float64, prevHash ids.ID) (ids.ID, error) {
	id, err := c.store.Append(ctx, event.AppendRequest{
		ActorID: actorID, Epoch: epoch, CycleID: c.cycleID,
		Kind: event.KindCostSnapshotAnnounced,
		Body: event.CostSnapshotAnnouncedBody{ComputeUnits: computeUnits, WallClockSeconds: wallClockSeconds},
		IntendedPrevHash: prevHash,
	})
	if err != nil {
		return ids.Empty, err
	}
	c.costSnapshotSeen = true
	return id, nil
}

// RollCall appends RollCallCompleted and enters READY.
func (c *CycleBoundary) RollCall(ctx context.Context, actorID ids.NodeID, epoch uint32, attending []ids.NodeID, prevHash ids.ID) (ids.ID, error) {
	if c.stage != CycleOpen {
		return ids.Empty, &coreerrors.SchemaViolation{Kind: "cycle-boundary", Detail: "roll call requires an open cycle"}
	}
	id, err := c.store.Append(ctx, event.AppendRequest{
		ActorID: actorID, Epoch: epoch, CycleID: c.cycleID,
		Kind: event.KindRollCallCompleted, Body: event.RollCallCompletedBody{Attending: attending},
		IntendedPrevHash: prevHash,
	})
	if err != nil {
		return ids.Empty, err
	}
	c.stage = CycleReady
	return id, nil
}

// Close appends CycleClosed with finalStage. It reports, via the returned
// bool, whether a CostSnapshotAnnounced breach must be declared — the
// close itself is not blocked by a missing cost snapshot (spec §4.5:
// "its absence is a breach detected at cycle close", not a close-blocking
// condition; only unresolved BreachDeclared events block close, per
// breach.go).
func (c *CycleBoundary) Close(ctx context.Context, actorID ids.NodeID, epoch uint32, finalStage CycleStage, prevHash ids.ID) (id ids.ID, costSnapshotBreach bool, err error) {
	if c.stage != CycleReady {
		return ids.Empty, false, &coreerrors.SchemaViolation{Kind: "cycle-boundary", Detail: "close requires a ready cycle"}
	}
	id, err = c.store.Append(ctx, event.AppendRequest{
		ActorID: actorID, Epoch: epoch, CycleID: c.cycleID,
		Kind: event.KindCycleClosed, Body: event.CycleClosedBody{FinalStage: string(cycleClosedFinalStage(finalStage))},
		IntendedPrevHash: prevHash,
	})
	if err != nil {
		return ids.Empty, false, err
	}
	c.stage = finalStage
	return id, !c.costSnapshotSeen, nil
}

// cycleClosedFinalStage maps a CycleStage terminal value onto the three
// FinalStage values CycleClosedBody.Validate accepts; INDEFINITE_SUSPENSION
// passes through unchanged, matching the wire value already used there.
func cycleClosedFinalStage(stage CycleStage) CycleStage {
	return stage
}
