// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package observer

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

type staticKeys struct {
	sk map[ids.NodeID]*bls.SecretKey
}

func newStaticKeys(actors ...ids.NodeID) *staticKeys {
	s := &staticKeys{sk: make(map[ids.NodeID]*bls.SecretKey)}
	for _, a := range actors {
		key, err := bls.NewSecretKey()
		if err != nil {
			panic(err)
		}
		s.sk[a] = key
	}
	return s
}

func (s *staticKeys) SecretKey(actorID ids.NodeID, _ uint32) (*bls.SecretKey, error) {
	return s.sk[actorID], nil
}

func (s *staticKeys) PublicKey(actorID ids.NodeID, _ uint32) (*bls.PublicKey, error) {
	return bls.PublicKeyFromSecretKey(s.sk[actorID]), nil
}

type noopWitness struct{}

func (noopWitness) Collect(context.Context, event.Event) ([]event.WitnessSignature, error) {
	return nil, nil
}

func newTestStore(t *testing.T, actors ...ids.NodeID) (*event.Store, *staticKeys) {
	t.Helper()
	keys := newStaticKeys(actors...)
	store := event.NewStore(
		memdb.New(),
		conclavelog.NewNoOp(),
		halt.NewDetector(),
		keys,
		event.NewFixedTimeAuthority(time.Unix(1_700_000_000, 0).UTC()),
		noopWitness{},
		nil,
	)
	return store, keys
}

func TestTranscriptWalkReproducesCausalOrder(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	a := ids.GenerateTestNodeID()
	store, _ := newTestStore(t, a)

	id1, err := store.Append(ctx, event.AppendRequest{
		ActorID: a, Epoch: 1, Kind: event.KindCycleOpened,
		Body: event.CycleOpenedBody{Roster: []ids.NodeID{a}}, IntendedPrevHash: ids.Empty,
	})
	require.NoError(err)
	id2, err := store.Append(ctx, event.AppendRequest{
		ActorID: a, Epoch: 1, Kind: event.KindRollCallCompleted,
		Body: event.RollCallCompletedBody{Attending: []ids.NodeID{a}}, IntendedPrevHash: id1,
	})
	require.NoError(err)

	transcript := NewTranscript(store, a)
	chain, err := transcript.Walk(id2)
	require.NoError(err)
	require.Len(chain, 2)
	require.Equal(event.KindCycleOpened, chain[0].Header.Kind)
	require.Equal(event.KindRollCallCompleted, chain[1].Header.Kind)
}

func TestAuditorVerifyChainFindsNoIssuesOnCleanChain(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	a := ids.GenerateTestNodeID()
	store, keys := newTestStore(t, a)

	id1, err := store.Append(ctx, event.AppendRequest{
		ActorID: a, Epoch: 1, Kind: event.KindCycleOpened,
		Body: event.CycleOpenedBody{Roster: []ids.NodeID{a}}, IntendedPrevHash: ids.Empty,
	})
	require.NoError(err)

	transcript := NewTranscript(store, a)
	auditor := NewAuditor(transcript, keys)
	findings, err := auditor.VerifyChain(id1)
	require.NoError(err)
	require.Empty(findings)
}

func TestAttestDigestChangesWithChainContent(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	a := ids.GenerateTestNodeID()
	store, keys := newTestStore(t, a)

	id1, err := store.Append(ctx, event.AppendRequest{
		ActorID: a, Epoch: 1, Kind: event.KindCycleOpened,
		Body: event.CycleOpenedBody{Roster: []ids.NodeID{a}}, IntendedPrevHash: ids.Empty,
	})
	require.NoError(err)

	transcript := NewTranscript(store, a)
	auditor := NewAuditor(transcript, keys)
	attestation1, err := auditor.Attest(id1)
	require.NoError(err)
	require.Equal(1, attestation1.EventCount)

	id2, err := store.Append(ctx, event.AppendRequest{
		ActorID: a, Epoch: 1, Kind: event.KindRollCallCompleted,
		Body: event.RollCallCompletedBody{Attending: []ids.NodeID{a}}, IntendedPrevHash: id1,
	})
	require.NoError(err)

	attestation2, err := auditor.Attest(id2)
	require.NoError(err)
	require.Equal(2, attestation2.EventCount)
	require.NotEqual(attestation1.Digest, attestation2.Digest)
}
