// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ritual

import (
	"context"

	"github.com/luxfi/conclave/deliberation"
	"github.com/luxfi/conclave/event"
	"github.com/luxfi/ids"
)

// ContinuationText is the fixed motion text the spec uses to identify a
// continuation-vote motion among a cycle's ordinary business.
const ContinuationText = "continue operation"

// ContinuationVote is the spec §4.5 Continuation Vote ritual: a motion of
// kind "continue operation" proposed, voted, and resolved through the
// normal deliberation pipeline. Its only special behavior is what happens
// on rejection — the cycle is driven into DISSOLUTION_DELIBERATION.
type ContinuationVote struct {
	pipeline *deliberation.Pipeline
}

// NewContinuationVote wraps an already-open pipeline.
func NewContinuationVote(pipeline *deliberation.Pipeline) *ContinuationVote {
	return &ContinuationVote{pipeline: pipeline}
}

// Propose appends MotionProposed for the continuation motion.
func (c *ContinuationVote) Propose(ctx context.Context, actorID ids.NodeID, epoch uint32, motionID ids.ID, supporters []ids.NodeID, prevHash ids.ID) (ids.ID, error) {
	return c.pipeline.ProposeMotion(ctx, actorID, epoch, motionID, ContinuationText, supporters, prevHash)
}

// Vote appends VoteCast for the continuation motion.
func (c *ContinuationVote) Vote(ctx context.Context, actorID ids.NodeID, epoch uint32, motionID ids.ID, choice event.Choice, justification string, chainSequence uint64, prevHash ids.ID) (ids.ID, error) {
	return c.pipeline.CastVote(ctx, actorID, epoch, motionID, choice, justification, chainSequence, prevHash)
}

// Resolve tallies and resolves the continuation motion. On rejection it
// additionally appends DissolutionTriggered, returning its id as
// dissolutionID; on any other outcome dissolutionID is ids.Empty.
func (c *ContinuationVote) Resolve(ctx context.Context, actorID ids.NodeID, epoch uint32, motionID ids.ID, prevHash ids.ID, cycleStillOpen bool) (tallyID, resolveID, dissolutionID ids.ID, outcome deliberation.Outcome, err error) {
	tallyID, resolveID, outcome, err = c.pipeline.TallyAndResolve(ctx, actorID, epoch, motionID, prevHash, cycleStillOpen)
	if err != nil {
		return ids.Empty, ids.Empty, ids.Empty, "", err
	}
	if outcome != deliberation.OutcomeRejected {
		return tallyID, resolveID, ids.Empty, outcome, nil
	}
	dissolutionID, err = c.pipeline.TriggerDissolution(ctx, actorID, epoch, "continuation-vote-rejected", resolveID)
	if err != nil {
		return tallyID, resolveID, ids.Empty, outcome, err
	}
	return tallyID, resolveID, dissolutionID, outcome, nil
}
