// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package deliberation implements the Deliberation Pipeline (spec §4.4):
// the per-cycle stage machine from intake through motion resolution.
package deliberation

import (
	"github.com/luxfi/conclave/coreerrors"
	"github.com/luxfi/conclave/utils/set"
	"github.com/luxfi/ids"
)

// Roster is the attending-agent set for one cycle, established by a
// RollCallCompleted event and fixed for the cycle's lifetime (spec §4.4:
// "no item may be admitted without a RollCallCompleted event establishing
// the attending roster"). Generalized from validators.Set, trimmed to the
// membership-test-plus-ordered-list surface the pipeline needs — no
// weight/stake fields, since attendance here is one-agent-one-vote.
type Roster struct {
	ordered []ids.NodeID
	members set.Set[ids.NodeID]
}

// NewRoster builds a Roster from the attendance list of a RollCallCompleted
// event. Order is preserved for turn-taking (spec §4.4's deliberation
// stage: "agents emit AgentUtterance events in turn-taking order dictated
// by the roster").
func NewRoster(attending []ids.NodeID) (*Roster, error) {
	if len(attending) == 0 {
		return nil, &coreerrors.SchemaViolation{Kind: "roll-call", Detail: "attending roster must be non-empty"}
	}
	r := &Roster{
		ordered: append([]ids.NodeID(nil), attending...),
		members: set.NewSet[ids.NodeID](len(attending)),
	}
	r.members.Add(attending...)
	return r, nil
}

// Contains reports whether actorID attended roll call for this cycle.
func (r *Roster) Contains(actorID ids.NodeID) bool {
	return r.members.Contains(actorID)
}

// Size returns the roster's attendance count.
func (r *Roster) Size() int {
	return len(r.ordered)
}

// TurnOrder returns the fixed speaking order for the cycle's deliberation
// stage.
func (r *Roster) TurnOrder() []ids.NodeID {
	return append([]ids.NodeID(nil), r.ordered...)
}

// NextSpeaker returns the actor_id whose turn it is given seq prior
// utterances have already been recorded this cycle (turn-taking is simple
// round-robin over the fixed roster order; spec §4.4 only requires that
// sequence, identity and signing are enforced, not a particular scheduling
// policy beyond that).
func (r *Roster) NextSpeaker(seq uint64) ids.NodeID {
	return r.ordered[int(seq)%len(r.ordered)]
}
