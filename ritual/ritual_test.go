// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ritual

import (
	"context"
	"testing"
	"time"

	"github.com/luxfi/conclave/deliberation"
	"github.com/luxfi/conclave/event"
	"github.com/luxfi/conclave/halt"
	conclavelog "github.com/luxfi/conclave/log"
	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"
)

type fakeSigningKeys struct {
	keys map[ids.NodeID]*bls.SecretKey
}

func newFakeSigningKeys(actors ...ids.NodeID) *fakeSigningKeys {
	f := &fakeSigningKeys{keys: make(map[ids.NodeID]*bls.SecretKey)}
	for _, a := range actors {
		sk, err := bls.NewSecretKey()
		if err != nil {
			panic(err)
		}
		f.keys[a] = sk
	}
	return f
}

func (f *fakeSigningKeys) SecretKey(actorID ids.NodeID, _ uint32) (*bls.SecretKey, error) {
	return f.keys[actorID], nil
}

type noopWitnessCollector struct{}

func (noopWitnessCollector) Collect(context.Context, event.Event) ([]event.WitnessSignature, error) {
	return nil, nil
}

func newTestStore(t *testing.T, detector *halt.Detector, actors ...ids.NodeID) *event.Store {
	t.Helper()
	if detector == nil {
		detector = halt.NewDetector()
	}
	return event.NewStore(
		memdb.New(),
		conclavelog.NewNoOp(),
		detector,
		newFakeSigningKeys(actors...),
		event.NewFixedTimeAuthority(time.Unix(1_700_000_000, 0).UTC()),
		noopWitnessCollector{},
		nil,
	)
}

func TestCycleBoundaryHappyPath(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	a := ids.GenerateTestNodeID()
	store := newTestStore(t, nil, a)
	cb := NewCycleBoundary(store, ids.GenerateTestID())

	openID, err := cb.Open(ctx, a, 1, []ids.NodeID{a}, ids.Empty)
	require.NoError(err)
	require.Equal(CycleOpen, cb.Stage())

	costID, err := cb.AnnounceCost(ctx, a, 1, 10, 1.5, openID)
	require.NoError(err)

	rcID, err := cb.RollCall(ctx, a, 1, []ids.NodeID{a}, costID)
	require.NoError(err)
	require.Equal(CycleReady, cb.Stage())

	_, breach, err := cb.Close(ctx, a, 1, CycleClosed, rcID)
	require.NoError(err)
	require.False(breach)
	require.Equal(CycleClosed, cb.Stage())
}

func TestCycleBoundaryFlagsMissingCostSnapshot(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	a := ids.GenerateTestNodeID()
	store := newTestStore(t, nil, a)
	cb := NewCycleBoundary(store, ids.GenerateTestID())

	openID, err := cb.Open(ctx, a, 1, []ids.NodeID{a}, ids.Empty)
	require.NoError(err)
	rcID, err := cb.RollCall(ctx, a, 1, []ids.NodeID{a}, openID)
	require.NoError(err)

	_, breach, err := cb.Close(ctx, a, 1, CycleClosed, rcID)
	require.NoError(err)
	require.True(breach)
}

func TestContinuationVoteRejectionTriggersDissolution(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	a, b := ids.GenerateTestNodeID(), ids.GenerateTestNodeID()
	store := newTestStore(t, nil, a, b)
	pipeline := deliberation.NewPipeline(store, ids.GenerateTestID(), 8)

	openID, err := pipeline.OpenCycle(ctx, a, 1, []ids.NodeID{a, b}, ids.Empty)
	require.NoError(err)
	rcID, err := pipeline.RollCall(ctx, a, 1, []ids.NodeID{a, b}, openID)
	require.NoError(err)
	uttID, err := pipeline.Utter(ctx, a, 1, "should we continue?", rcID)
	require.NoError(err)

	cv := NewContinuationVote(pipeline)
	motionID := ids.GenerateTestID()
	propID, err := cv.Propose(ctx, a, 1, motionID, []ids.NodeID{a, b}, uttID)
	require.NoError(err)

	voteAID, err := cv.Vote(ctx, a, 1, motionID, event.ChoiceNay, "", 0, propID)
	require.NoError(err)
	_, err = cv.Vote(ctx, b, 1, motionID, event.ChoiceNay, "", 0, ids.Empty)
	require.NoError(err)

	_, _, dissolutionID, outcome, err := cv.Resolve(ctx, a, 1, motionID, voteAID, true)
	require.NoError(err)
	require.Equal(deliberation.OutcomeRejected, outcome)
	require.NotEqual(ids.Empty, dissolutionID)
	require.Equal(deliberation.StageDissolutionDeliberation, pipeline.Stage())
}

func TestDissolutionDeliberationAdmitsExactlyOneOutcome(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	a := ids.GenerateTestNodeID()
	store := newTestStore(t, nil, a)
	dd := NewDissolutionDeliberation(store)

	id, err := dd.Dissolve(ctx, a, 1, ids.GenerateTestID(), ids.Empty)
	require.NoError(err)
	require.NotEqual(ids.Empty, id)
	require.Equal(DissolutionDissolved, dd.Outcome())

	_, err = dd.Reconsider(ctx, a, 1, ids.GenerateTestID(), id)
	require.Error(err)
}

func TestCessationHaltsFurtherAppends(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	a := ids.GenerateTestNodeID()
	detector := halt.NewDetector()
	store := newTestStore(t, detector, a)
	dd := NewDissolutionDeliberation(store)

	dissolveID, err := dd.Dissolve(ctx, a, 1, ids.GenerateTestID(), ids.Empty)
	require.NoError(err)

	cessation := NewCessation(store, detector)
	_, err = cessation.Begin(ctx, dd, a, 1, "operator", time.Unix(1_700_000_100, 0).UTC(), dissolveID)
	require.NoError(err)

	_, err = store.Append(ctx, event.AppendRequest{
		ActorID: a, Epoch: 1, Kind: event.KindAgentUtterance,
		Body:             event.AgentUtteranceBody{Text: "are we still here?"},
		IntendedPrevHash: dissolveID,
	})
	require.Error(err)
}

func TestBreachLedgerBlocksSuppressionAndCarriesForward(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	a := ids.GenerateTestNodeID()
	store := newTestStore(t, nil, a)
	ledger := NewBreachLedger(store, nil)

	breachID := ids.GenerateTestID()
	declareID, err := ledger.Declare(ctx, a, 1, breachID, "missing-cost-snapshot", "no snapshot seen", ids.Empty)
	require.NoError(err)

	suppressionID, blocked, err := ledger.AttemptCycleClose(ctx, a, 1, declareID)
	require.NoError(err)
	require.True(blocked)

	respondID, err := ledger.Respond(ctx, a, 1, breachID, "acknowledged and corrected", suppressionID)
	require.NoError(err)

	_, blocked, err = ledger.AttemptCycleClose(ctx, a, 1, respondID)
	require.NoError(err)
	require.False(blocked)
	require.Empty(ledger.CarryForward())
}

func TestBreachLedgerCarriesForwardUnresolved(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	a := ids.GenerateTestNodeID()
	store := newTestStore(t, nil, a)
	ledger := NewBreachLedger(store, nil)

	breachID := ids.GenerateTestID()
	_, err := ledger.Declare(ctx, a, 1, breachID, "suppression", "unresolved at close", ids.Empty)
	require.NoError(err)

	carried := ledger.CarryForward()
	require.Len(carried, 1)
	require.Equal("suppression", carried[breachID])
}

func TestOverrideInvokeAndConclude(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	a := ids.GenerateTestNodeID()
	store := newTestStore(t, nil, a)
	ov := NewOverride(store)

	invokeID, err := ov.Invoke(ctx, a, 1, "emergency quorum bypass", "vote:motion-42", time.Hour, time.Unix(1_700_000_000, 0).UTC(), ids.Empty)
	require.NoError(err)

	_, err = ov.Conclude(ctx, a, 1, "resolved", invokeID)
	require.NoError(err)

	_, err = ov.Conclude(ctx, a, 1, "resolved-again", invokeID)
	require.Error(err)
}

func TestOverrideMonitorDeclaresBreachOnExpiry(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	a := ids.GenerateTestNodeID()
	store := newTestStore(t, nil, a)
	ov := NewOverride(store)
	ledger := NewBreachLedger(store, nil)

	_, err := ov.Invoke(ctx, a, 1, "emergency quorum bypass", "vote:motion-42", time.Millisecond, time.Unix(1_700_000_000, 0).UTC(), ids.Empty)
	require.NoError(err)

	fixedNow := time.Unix(1_700_000_000, 0).UTC().Add(time.Hour)
	monitor := NewOverrideMonitor(ov, ledger, store, func() time.Time { return fixedNow }, 5*time.Millisecond)

	runCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	err = monitor.Run(runCtx, func(ids.NodeID) uint32 { return 1 })
	require.NoError(err)
	require.Len(ledger.Unresolved(), 1)
}
