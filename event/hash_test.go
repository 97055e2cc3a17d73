// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package event

import (
	"testing"

	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"
)

func TestComputeChainHashDeterministic(t *testing.T) {
	require := require.New(t)

	actor := ids.GenerateTestNodeID()
	cycle := ids.GenerateTestID()
	body := HaltDeclaredBody{Reason: "test"}

	h1, err := computeChainHash(actor, 1, cycle, KindHaltDeclared, body, ids.Empty, 1000)
	require.NoError(err)
	h2, err := computeChainHash(actor, 1, cycle, KindHaltDeclared, body, ids.Empty, 1000)
	require.NoError(err)
	require.Equal(h1, h2)

	h3, err := computeChainHash(actor, 1, cycle, KindHaltDeclared, body, ids.Empty, 1001)
	require.NoError(err)
	require.NotEqual(h1, h3)
}

func TestComputeChainHashDiffersByPrevHash(t *testing.T) {
	require := require.New(t)

	actor := ids.GenerateTestNodeID()
	cycle := ids.GenerateTestID()
	body := HaltDeclaredBody{Reason: "test"}

	h1, err := computeChainHash(actor, 1, cycle, KindHaltDeclared, body, ids.Empty, 1000)
	require.NoError(err)
	h2, err := computeChainHash(actor, 1, cycle, KindHaltDeclared, body, ids.GenerateTestID(), 1000)
	require.NoError(err)
	require.NotEqual(h1, h2)
}

func TestSignAndVerifyChainHash(t *testing.T) {
	require := require.New(t)

	sk, err := bls.NewSecretKey()
	require.NoError(err)
	pk := bls.PublicKeyFromSecretKey(sk)

	chainHash := ids.GenerateTestID()
	sig := signChainHash(sk, chainHash)

	ok, err := verifySignature(pk, chainHash, sig)
	require.NoError(err)
	require.True(ok)

	ok, err = verifySignature(pk, ids.GenerateTestID(), sig)
	require.NoError(err)
	require.False(ok)
}
