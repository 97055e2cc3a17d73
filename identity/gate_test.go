// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package identity

import (
	"testing"
	"time"

	"github.com/luxfi/conclave/coreerrors"
	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"
)

func newRegisteredActor(t *testing.T, g *Gate) ids.NodeID {
	t.Helper()
	actor := ids.GenerateTestNodeID()
	sk, err := bls.NewSecretKey()
	require.NoError(t, err)
	g.RegisterKey(actor, sk)
	return actor
}

func TestAcquireGrantsWhenNoLiveLease(t *testing.T) {
	require := require.New(t)
	g := NewGate()
	actor := newRegisteredActor(t, g)
	now := time.Now()

	lease, err := g.Acquire(actor, time.Minute, now)
	require.NoError(err)
	require.Equal(uint32(1), lease.Epoch)
}

func TestAcquireConflictsOnLiveLease(t *testing.T) {
	require := require.New(t)
	g := NewGate()
	actor := newRegisteredActor(t, g)
	now := time.Now()

	_, err := g.Acquire(actor, time.Minute, now)
	require.NoError(err)

	_, err = g.Acquire(actor, time.Minute, now)
	require.Error(err)
	var conflict *coreerrors.IdentityConflict
	require.ErrorAs(err, &conflict)
}

func TestAcquireReclaimsExpiredLease(t *testing.T) {
	require := require.New(t)
	g := NewGate()
	actor := newRegisteredActor(t, g)
	now := time.Now()

	first, err := g.Acquire(actor, time.Minute, now)
	require.NoError(err)

	later := now.Add(2 * time.Minute)
	second, err := g.Acquire(actor, time.Minute, later)
	require.NoError(err)
	require.Greater(second.Epoch, first.Epoch)
}

func TestHeartbeatRenewsLiveLease(t *testing.T) {
	require := require.New(t)
	g := NewGate()
	actor := newRegisteredActor(t, g)
	now := time.Now()

	lease, err := g.Acquire(actor, time.Minute, now)
	require.NoError(err)

	renewed, err := g.Heartbeat(actor, lease.Epoch, time.Minute, now.Add(30*time.Second))
	require.NoError(err)
	require.True(renewed.ExpiresAt.After(lease.ExpiresAt))
}

func TestHeartbeatRejectsStaleEpoch(t *testing.T) {
	require := require.New(t)
	g := NewGate()
	actor := newRegisteredActor(t, g)
	now := time.Now()

	lease, err := g.Acquire(actor, time.Minute, now)
	require.NoError(err)

	require.NoError(g.Release(actor, lease.Epoch))

	_, err = g.Heartbeat(actor, lease.Epoch, time.Minute, now)
	require.Error(err)
}

func TestReleaseBumpsEpochAndFencesSigningKey(t *testing.T) {
	require := require.New(t)
	g := NewGate()
	actor := newRegisteredActor(t, g)
	now := time.Now()

	lease, err := g.Acquire(actor, time.Minute, now)
	require.NoError(err)

	_, err = g.SecretKey(actor, lease.Epoch)
	require.NoError(err)

	require.NoError(g.Release(actor, lease.Epoch))

	_, err = g.SecretKey(actor, lease.Epoch)
	require.Error(err)
}

func TestRevokeForceEndsLeaseRegardlessOfHolder(t *testing.T) {
	require := require.New(t)
	g := NewGate()
	actor := newRegisteredActor(t, g)
	now := time.Now()

	lease, err := g.Acquire(actor, time.Minute, now)
	require.NoError(err)

	newEpoch := g.Revoke(actor)
	require.Greater(newEpoch, lease.Epoch)

	_, err = g.SecretKey(actor, lease.Epoch)
	require.Error(err)

	_, held, err := g.CurrentEpoch(actor)
	require.NoError(err)
	require.False(held)
}

func TestPublicKeyMatchesSecretKey(t *testing.T) {
	require := require.New(t)
	g := NewGate()
	actor := newRegisteredActor(t, g)
	now := time.Now()

	lease, err := g.Acquire(actor, time.Minute, now)
	require.NoError(err)

	sk, err := g.SecretKey(actor, lease.Epoch)
	require.NoError(err)
	pk, err := g.PublicKey(actor, lease.Epoch)
	require.NoError(err)
	require.Equal(bls.PublicKeyToCompressedBytes(bls.PublicKeyFromSecretKey(sk)), bls.PublicKeyToCompressedBytes(pk))
}
