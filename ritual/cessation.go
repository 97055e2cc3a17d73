// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ritual

import (
	"context"
	"time"

	"github.com/luxfi/conclave/coreerrors"
	"github.com/luxfi/conclave/event"
	"github.com/luxfi/conclave/halt"
	"github.com/luxfi/ids"
)

// Cessation implements the spec §4.5 Cessation ritual: on adoption of
// DissolveMotion, a final SuspensionBegan{terminal:true} event is written
// and no further appends for that chain are accepted by C1. "No further
// appends accepted" is exactly what halt.Detector already guarantees for
// a halted actor, so Cessation reuses it rather than inventing a second,
// parallel closed-chain mechanism: event.Store already consults a
// HaltChecker on every Append.
type Cessation struct {
	store    *event.Store
	detector *halt.Detector
}

// NewCessation wires the store a DissolveMotion-adopting actor writes to
// and the halt detector that same store consults.
func NewCessation(store *event.Store, detector *halt.Detector) *Cessation {
	return &Cessation{store: store, detector: detector}
}

// Begin requires that DissolveMotion was already adopted (dissolution must
// be in the DissolutionDissolved outcome); it appends SuspensionBegan with
// Terminal: true and then declares a permanent per-actor halt, closing the
// chain to further appends.
func (c *Cessation) Begin(ctx context.Context, dissolution *DissolutionDeliberation, actorID ids.NodeID, epoch uint32, declaredBy string, at time.Time, prevHash ids.ID) (ids.ID, error) {
	if dissolution.Outcome() != DissolutionDissolved {
		return ids.Empty, &coreerrors.SchemaViolation{Kind: "cessation", Detail: "cessation requires an adopted DissolveMotion"}
	}
	id, err := c.store.Append(ctx, event.AppendRequest{
		ActorID: actorID, Epoch: epoch,
		Kind: event.KindSuspensionBegan, Body: event.SuspensionBeganBody{Terminal: true},
		IntendedPrevHash: prevHash,
	})
	if err != nil {
		return ids.Empty, err
	}
	c.detector.DeclareActor(actorID, "cessation: dissolve motion adopted", declaredBy, at)
	return id, nil
}
