// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ritual

import (
	"context"

	"github.com/luxfi/conclave/coreerrors"
	"github.com/luxfi/conclave/event"
	"github.com/luxfi/ids"
)

// DissolutionOutcome is the terminal or transitional result of a
// Dissolution Deliberation.
type DissolutionOutcome string

const (
	DissolutionPending      DissolutionOutcome = ""
	DissolutionReconsidered DissolutionOutcome = "RECONSIDERED"
	DissolutionDissolved    DissolutionOutcome = "DISSOLVED"
	DissolutionReformed     DissolutionOutcome = "REFORMED"
)

// DissolutionDeliberation is the spec §4.5 Dissolution Deliberation ritual.
// It admits exactly three motion kinds — ReconsiderMotion, DissolveMotion,
// ReformMotion — each already adopted through the normal deliberation
// pipeline (the motion text names which of the three it enacts); this type
// only appends the one action event that actually performs the transition.
// No timer advances this state: the only way out is one of the three
// events below, or the cycle closing with none of them present, which
// CycleBoundary.Close's caller must then record as INDEFINITE_SUSPENSION.
type DissolutionDeliberation struct {
	store   *event.Store
	outcome DissolutionOutcome
}

// NewDissolutionDeliberation returns a tracker in the not-yet-resolved
// state.
func NewDissolutionDeliberation(store *event.Store) *DissolutionDeliberation {
	return &DissolutionDeliberation{store: store}
}

// Outcome reports the current resolution, or DissolutionPending if none
// of the three admissible motions has been enacted yet.
func (d *DissolutionDeliberation) Outcome() DissolutionOutcome { return d.outcome }

func (d *DissolutionDeliberation) guard() error {
	if d.outcome != DissolutionPending {
		return &coreerrors.SchemaViolation{Kind: "dissolution-deliberation", Detail: "already resolved as " + string(d.outcome)}
	}
	return nil
}

// Reconsider appends ReconsiderMotion, returning the cycle to OPEN.
func (d *DissolutionDeliberation) Reconsider(ctx context.Context, actorID ids.NodeID, epoch uint32, motionID ids.ID, prevHash ids.ID) (ids.ID, error) {
	if err := d.guard(); err != nil {
		return ids.Empty, err
	}
	id, err := d.store.Append(ctx, event.AppendRequest{
		ActorID: actorID, Epoch: epoch,
		Kind: event.KindReconsiderMotion, Body: event.ReconsiderMotionBody{MotionID: motionID},
		IntendedPrevHash: prevHash,
	})
	if err != nil {
		return ids.Empty, err
	}
	d.outcome = DissolutionReconsidered
	return id, nil
}

// Dissolve appends DissolveMotion. This is the terminal path the
// Cessation ritual (cessation.go) builds on.
func (d *DissolutionDeliberation) Dissolve(ctx context.Context, actorID ids.NodeID, epoch uint32, motionID ids.ID, prevHash ids.ID) (ids.ID, error) {
	if err := d.guard(); err != nil {
		return ids.Empty, err
	}
	id, err := d.store.Append(ctx, event.AppendRequest{
		ActorID: actorID, Epoch: epoch,
		Kind: event.KindDissolveMotion, Body: event.DissolveMotionBody{MotionID: motionID},
		IntendedPrevHash: prevHash,
	})
	if err != nil {
		return ids.Empty, err
	}
	d.outcome = DissolutionDissolved
	return id, nil
}

// Reform appends ReformMotion, carrying the conclave into nextCycle.
func (d *DissolutionDeliberation) Reform(ctx context.Context, actorID ids.NodeID, epoch uint32, motionID, nextCycle ids.ID, prevHash ids.ID) (ids.ID, error) {
	if err := d.guard(); err != nil {
		return ids.Empty, err
	}
	id, err := d.store.Append(ctx, event.AppendRequest{
		ActorID: actorID, Epoch: epoch,
		Kind: event.KindReformMotion, Body: event.ReformMotionBody{MotionID: motionID, NextCycle: nextCycle},
		IntendedPrevHash: prevHash,
	})
	if err != nil {
		return ids.Empty, err
	}
	d.outcome = DissolutionReformed
	return id, nil
}
