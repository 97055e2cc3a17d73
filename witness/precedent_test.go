// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package witness

import (
	"context"
	"testing"
	"time"

	"github.com/luxfi/conclave/event"
	"github.com/luxfi/conclave/halt"
	conclavelog "github.com/luxfi/conclave/log"
	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"
)

type fakeSigningKeys struct{ keys map[ids.NodeID]*bls.SecretKey }

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

func newTestStoreNoWitness(t *testing.T, actors ...ids.NodeID) *event.Store {
	t.Helper()
	return event.NewStore(
		memdb.New(),
		conclavelog.NewNoOp(),
		halt.NewDetector(),
		newFakeSigningKeys(actors...),
		event.NewFixedTimeAuthority(time.Unix(1_700_000_000, 0).UTC()),
		nil,
		nil,
	)
}

func TestPrecedentTrackerEscalatesAtThreshold(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	ledger := ids.GenerateTestNodeID()
	w1, w2 := ids.GenerateTestNodeID(), ids.GenerateTestNodeID()
	store := newTestStoreNoWitness(t, ledger)

	tracker := NewPrecedentTracker(store, NewPairFrequency(), 3, nil, ledger)

	var lastAppended []ids.ID
	for i := 0; i < 3; i++ {
		appended, err := tracker.ObserveSelection(ctx, ids.GenerateTestID(), []ids.NodeID{w1, w2})
		require.NoError(err)
		lastAppended = appended
	}
	// Third observation brings the pair's frequency to 3, crossing the
	// threshold of 3: that round must have appended a citation.
	require.NotEmpty(lastAppended)
}

func TestPrecedentTrackerStaysSilentBelowThreshold(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	ledger := ids.GenerateTestNodeID()
	w1, w2 := ids.GenerateTestNodeID(), ids.GenerateTestNodeID()
	store := newTestStoreNoWitness(t, ledger)

	tracker := NewPrecedentTracker(store, NewPairFrequency(), 10, nil, ledger)

	appended, err := tracker.ObserveSelection(ctx, ids.GenerateTestID(), []ids.NodeID{w1, w2})
	require.NoError(err)
	require.Empty(appended)
}

func TestCollectorSignsOverChainHash(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	actor := ids.GenerateTestNodeID()
	w1, w2, w3 := ids.GenerateTestNodeID(), ids.GenerateTestNodeID(), ids.GenerateTestNodeID()
	roster := []ids.NodeID{w1, w2, w3}
	witnessKeys := newFakeSigningKeys(w1, w2, w3)

	collector := NewCollector(NewSelector(2), func() []ids.NodeID { return roster }, witnessKeys, nil, nil, nil)

	evt := event.Event{Header: event.Header{
		ActorID:   actor,
		ChainHash: ids.GenerateTestID(),
		EventID:   ids.GenerateTestID(),
		PrevHash:  ids.GenerateTestID(),
	}}

	sigs, err := collector.Collect(ctx, evt)
	require.NoError(err)
	require.Len(sigs, 2)
	for _, sig := range sigs {
		require.NotEmpty(sig.Signature)
		require.Contains(roster, sig.WitnessID)
	}
}

func TestCollectorExcludesSelfAndHaltedFromWitnessPool(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	actor, halted, w2, w3 := ids.GenerateTestNodeID(), ids.GenerateTestNodeID(), ids.GenerateTestNodeID(), ids.GenerateTestNodeID()
	roster := []ids.NodeID{actor, halted, w2, w3}
	witnessKeys := newFakeSigningKeys(actor, halted, w2, w3)

	detector := halt.NewDetector()
	detector.DeclareActor(halted, "test-halted", "test", time.Unix(1_700_000_000, 0).UTC())

	collector := NewCollector(NewSelector(2), func() []ids.NodeID { return roster }, witnessKeys, nil, detector, nil)

	evt := event.Event{Header: event.Header{
		ActorID:   actor,
		ChainHash: ids.GenerateTestID(),
		EventID:   ids.GenerateTestID(),
		PrevHash:  ids.GenerateTestID(),
	}}

	for i := 0; i < 10; i++ {
		sigs, err := collector.Collect(ctx, evt)
		require.NoError(err)
		for _, sig := range sigs {
			require.NotEqual(actor, sig.WitnessID)
			require.NotEqual(halted, sig.WitnessID)
		}
	}
}
