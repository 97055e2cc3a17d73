// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package deliberation

import (
	"context"
	"testing"
	"time"

	conclavelog "github.com/luxfi/conclave/log"
	"github.com/luxfi/conclave/event"
	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"
)

type noopHaltChecker struct{}

func (noopHaltChecker) CheckActor(ids.NodeID) error { return nil }

type staticSigningKeys struct {
	keys map[ids.NodeID]*bls.SecretKey
}

func newStaticSigningKeys(actors ...ids.NodeID) *staticSigningKeys {
	s := &staticSigningKeys{keys: make(map[ids.NodeID]*bls.SecretKey)}
	for _, a := range actors {
		sk, err := bls.NewSecretKey()
		if err != nil {
			panic(err)
		}
		s.keys[a] = sk
	}
	return s
}

func (s *staticSigningKeys) SecretKey(actorID ids.NodeID, _ uint32) (*bls.SecretKey, error) {
	return s.keys[actorID], nil
}

type noopWitnessCollector struct{}

func (noopWitnessCollector) Collect(context.Context, event.Event) ([]event.WitnessSignature, error) {
	return nil, nil
}

func newTestPipeline(t *testing.T, roster []ids.NodeID) *Pipeline {
	t.Helper()
	store := event.NewStore(
		memdb.New(),
		conclavelog.NewNoOp(),
		noopHaltChecker{},
		newStaticSigningKeys(roster...),
		event.NewFixedTimeAuthority(time.Unix(1_700_000_000, 0).UTC()),
		noopWitnessCollector{},
		nil,
	)
	return NewPipeline(store, ids.GenerateTestID(), 16)
}

func TestPipelineHappyPathToAdoption(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	a, b := ids.GenerateTestNodeID(), ids.GenerateTestNodeID()
	p := newTestPipeline(t, []ids.NodeID{a, b})

	openID, err := p.OpenCycle(ctx, a, 1, []ids.NodeID{a, b}, ids.Empty)
	require.NoError(err)
	require.Equal(StageOpen, p.Stage())

	rcID, err := p.RollCall(ctx, a, 1, []ids.NodeID{a, b}, openID)
	require.NoError(err)
	require.Equal(StageIntake, p.Stage())

	uttID, err := p.Utter(ctx, a, 1, "I propose we continue", rcID)
	require.NoError(err)
	require.Equal(StageDeliberation, p.Stage())

	motionID := ids.GenerateTestID()
	propID, err := p.ProposeMotion(ctx, a, 1, motionID, "continue the cycle", []ids.NodeID{a, b}, uttID)
	require.NoError(err)
	require.Equal(StageMotionQueue, p.Stage())

	voteAID, err := p.CastVote(ctx, a, 1, motionID, event.ChoiceYea, "in favor", 0, propID)
	require.NoError(err)
	require.Equal(StageVoting, p.Stage())

	_, err = p.CastVote(ctx, b, 1, motionID, event.ChoiceYea, "agreed", 0, ids.Empty)
	require.NoError(err)

	tallyID, resolveID, outcome, err := p.TallyAndResolve(ctx, a, 1, motionID, voteAID, true)
	require.NoError(err)
	require.NotEqual(ids.Empty, tallyID)
	require.NotEqual(ids.Empty, resolveID)
	require.Equal(OutcomeAdopted, outcome)
	require.Equal(StageResolution, p.Stage())

	_, err = p.Close(ctx, a, 1, "CLOSED", resolveID)
	require.NoError(err)
	require.Equal(StageClosing, p.Stage())
}

func TestPipelineCastVoteReplacesOnHigherChainSequence(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	a, b := ids.GenerateTestNodeID(), ids.GenerateTestNodeID()
	p := newTestPipeline(t, []ids.NodeID{a, b})

	openID, err := p.OpenCycle(ctx, a, 1, []ids.NodeID{a, b}, ids.Empty)
	require.NoError(err)
	rcID, err := p.RollCall(ctx, a, 1, []ids.NodeID{a, b}, openID)
	require.NoError(err)
	uttID, err := p.Utter(ctx, a, 1, "let's vote", rcID)
	require.NoError(err)

	motionID := ids.GenerateTestID()
	propID, err := p.ProposeMotion(ctx, a, 1, motionID, "continue the cycle", []ids.NodeID{a, b}, uttID)
	require.NoError(err)

	voteID, err := p.CastVote(ctx, a, 1, motionID, event.ChoiceNay, "changed my mind later", 1, propID)
	require.NoError(err)

	replaceID, err := p.CastVote(ctx, a, 1, motionID, event.ChoiceYea, "on reflection, yea", 2, voteID)
	require.NoError(err)
	require.NotEqual(ids.Empty, replaceID)

	motion := p.motions[motionID]
	tally := motion.Tally(2)
	require.Equal(1, tally.Yea)
	require.Equal(0, tally.Nay)

	_, err = p.CastVote(ctx, a, 1, motionID, event.ChoiceNay, "stale replay", 2, replaceID)
	require.Error(err)
}

func TestPipelineRejectsIntakeBeforeRollCall(t *testing.T) {
	p := newTestPipeline(t, []ids.NodeID{ids.GenerateTestNodeID()})
	err := p.AdmitIntake(Item{Source: "petition", Text: "summary"})
	require.Error(t, err)
}

func TestPipelineRejectsUtteranceFromNonAttendee(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	a, b, stranger := ids.GenerateTestNodeID(), ids.GenerateTestNodeID(), ids.GenerateTestNodeID()
	p := newTestPipeline(t, []ids.NodeID{a, b, stranger})

	openID, err := p.OpenCycle(ctx, a, 1, []ids.NodeID{a, b}, ids.Empty)
	require.NoError(err)
	rcID, err := p.RollCall(ctx, a, 1, []ids.NodeID{a, b}, openID)
	require.NoError(err)

	_, err = p.Utter(ctx, stranger, 1, "I was not here", rcID)
	require.Error(err)
}

func TestPipelineRejectsOutOfTurnUtterance(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	a, b := ids.GenerateTestNodeID(), ids.GenerateTestNodeID()
	p := newTestPipeline(t, []ids.NodeID{a, b})

	openID, err := p.OpenCycle(ctx, a, 1, []ids.NodeID{a, b}, ids.Empty)
	require.NoError(err)
	rcID, err := p.RollCall(ctx, a, 1, []ids.NodeID{a, b}, openID)
	require.NoError(err)

	_, err = p.Utter(ctx, b, 1, "jumping the queue", rcID)
	require.Error(err)
}

func TestPipelineTallyAndResolveRejectsUnmetQuorum(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	roster := make([]ids.NodeID, 16)
	for i := range roster {
		roster[i] = ids.GenerateTestNodeID()
	}
	a := roster[0]
	p := newTestPipeline(t, roster)

	openID, err := p.OpenCycle(ctx, a, 1, roster, ids.Empty)
	require.NoError(err)
	rcID, err := p.RollCall(ctx, a, 1, roster, openID)
	require.NoError(err)

	motionID := ids.GenerateTestID()
	propID, err := p.ProposeMotion(ctx, a, 1, motionID, "a critical motion", roster, rcID)
	require.NoError(err)

	voteID, err := p.CastVote(ctx, a, 1, motionID, event.ChoiceYea, "", 0, propID)
	require.NoError(err)

	_, _, _, err = p.TallyAndResolve(ctx, a, 1, motionID, voteID, true)
	require.Error(err)
}

func TestPipelineProposeMotionRejectsDuplicateSupporters(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	a, b := ids.GenerateTestNodeID(), ids.GenerateTestNodeID()
	p := newTestPipeline(t, []ids.NodeID{a, b})

	openID, err := p.OpenCycle(ctx, a, 1, []ids.NodeID{a, b}, ids.Empty)
	require.NoError(err)
	rcID, err := p.RollCall(ctx, a, 1, []ids.NodeID{a, b}, openID)
	require.NoError(err)

	motionID := ids.GenerateTestID()
	_, err = p.ProposeMotion(ctx, a, 1, motionID, "duplicate supporters", []ids.NodeID{a, b, a}, rcID)
	require.Error(err)
}

func TestPipelineProposeMotionRejectsNonRosterSupporter(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	a, b, stranger := ids.GenerateTestNodeID(), ids.GenerateTestNodeID(), ids.GenerateTestNodeID()
	p := newTestPipeline(t, []ids.NodeID{a, b, stranger})

	openID, err := p.OpenCycle(ctx, a, 1, []ids.NodeID{a, b}, ids.Empty)
	require.NoError(err)
	rcID, err := p.RollCall(ctx, a, 1, []ids.NodeID{a, b}, openID)
	require.NoError(err)

	motionID := ids.GenerateTestID()
	_, err = p.ProposeMotion(ctx, a, 1, motionID, "outsider support", []ids.NodeID{a, stranger}, rcID)
	require.Error(err)
}
