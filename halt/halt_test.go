// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package halt

import (
	"testing"
	"time"

	"github.com/luxfi/conclave/coreerrors"
	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"
)

func TestCheckActorClearWhenNothingHalted(t *testing.T) {
	d := NewDetector()
	require.NoError(t, d.CheckActor(ids.GenerateTestNodeID()))
}

func TestDeclareActorHaltsOnlyThatActor(t *testing.T) {
	require := require.New(t)
	d := NewDetector()
	halted := ids.GenerateTestNodeID()
	other := ids.GenerateTestNodeID()

	ok := d.DeclareActor(halted, "fork detected", "c3", time.Now())
	require.True(ok)

	err := d.CheckActor(halted)
	require.Error(err)
	require.True(coreerrors.IsHalted(err))

	require.NoError(d.CheckActor(other))
}

func TestDeclareActorIsIdempotent(t *testing.T) {
	require := require.New(t)
	d := NewDetector()
	actor := ids.GenerateTestNodeID()

	require.True(d.DeclareActor(actor, "first", "c3", time.Now()))
	require.False(d.DeclareActor(actor, "second", "c3", time.Now()))

	err := d.CheckActor(actor)
	var halted *coreerrors.Halted
	require.ErrorAs(err, &halted)
	require.Equal("first", halted.Reason)
}

func TestGlobalHaltOverridesPerActor(t *testing.T) {
	require := require.New(t)
	d := NewDetector()
	actor := ids.GenerateTestNodeID()

	require.True(d.DeclareGlobal("operator override", "operator", time.Now()))
	err := d.CheckActor(actor)
	require.Error(err)
	require.True(coreerrors.IsHalted(err))
}

func TestClearActorIsOnlyWayOut(t *testing.T) {
	require := require.New(t)
	d := NewDetector()
	actor := ids.GenerateTestNodeID()

	d.DeclareActor(actor, "fork", "c3", time.Now())
	require.Error(d.CheckActor(actor))

	d.ClearActor(actor)
	require.NoError(d.CheckActor(actor))
}
