// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package deliberation

import (
	"github.com/luxfi/conclave/coreerrors"
	"github.com/luxfi/conclave/event"
	"github.com/luxfi/ids"
)

// Motion tracks one proposal's in-memory state across the voting stage.
// The reproducible source of truth is always the on-chain VoteCast events;
// Motion is a derived, rebuildable view kept for the pipeline's own
// bookkeeping (spec §4.4: "a tally... reproducible from the on-chain
// votes" — this struct is that reproduction, not an independent record).
type Motion struct {
	MotionID   ids.ID
	Level      event.ConsensusLevel
	Supporters []ids.NodeID
	votes      map[ids.NodeID]castVote
	resolved   bool
}

// castVote is one voter's current choice plus the chain_sequence it was
// cast under, so a later replacement can be ordered against it.
type castVote struct {
	choice   event.Choice
	sequence uint64
}

// NewMotion constructs the in-memory tracker for a just-proposed motion.
func NewMotion(body event.MotionProposedBody) *Motion {
	return &Motion{
		MotionID:   body.MotionID,
		Level:      body.Level,
		Supporters: body.Supporters,
		votes:      make(map[ids.NodeID]castVote),
	}
}

// RecordVote applies one VoteCast to the in-memory tally. A voter may
// replace an earlier vote only while the motion is still open and only
// with a strictly higher chain_sequence than the one it replaces — a
// lower-or-equal sequence, or any vote at all once the motion has been
// resolved, is rejected (a later vote with a lower sequence would make it
// impossible to tell, from the log alone, which VoteCast is authoritative).
func (m *Motion) RecordVote(voter ids.NodeID, choice event.Choice, sequence uint64) error {
	if m.resolved {
		return &coreerrors.SchemaViolation{Kind: "vote-cast", Detail: "motion is already resolved"}
	}
	if existing, already := m.votes[voter]; already && sequence <= existing.sequence {
		return &coreerrors.SchemaViolation{Kind: "vote-cast", Detail: "replacement vote must carry a higher chain_sequence than the vote it replaces"}
	}
	m.votes[voter] = castVote{choice: choice, sequence: sequence}
	return nil
}

// MarkResolved closes the motion to further votes once TallyAndResolve has
// appended a resolution for it.
func (m *Motion) MarkResolved() {
	m.resolved = true
}

// Tally computes the reproducible Tally for the current vote set against
// rosterSize.
func (m *Motion) Tally(rosterSize int) Tally {
	t := Tally{RosterSize: rosterSize}
	for _, v := range m.votes {
		switch v.choice {
		case event.ChoiceYea:
			t.Yea++
		case event.ChoiceNay:
			t.Nay++
		case event.ChoiceAbstain:
			t.Abstain++
		case event.ChoicePresent:
			t.Present++
		}
	}
	return t
}
