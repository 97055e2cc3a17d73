// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package event

import (
	"testing"

	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"
)

func TestDeriveConsensusLevel(t *testing.T) {
	cases := []struct {
		supporters int
		want       ConsensusLevel
	}{
		{0, LevelSingle},
		{1, LevelSingle},
		{2, LevelLow},
		{3, LevelLow},
		{4, LevelMedium},
		{7, LevelMedium},
		{8, LevelHigh},
		{15, LevelHigh},
		{16, LevelCritical},
		{200, LevelCritical},
	}
	for _, c := range cases {
		require.Equal(t, c.want, DeriveConsensusLevel(c.supporters), "supporters=%d", c.supporters)
	}
}

func TestMotionProposedBodyValidate(t *testing.T) {
	require := require.New(t)

	ok := MotionProposedBody{
		MotionID:   ids.GenerateTestID(),
		Text:       "adopt the new charter",
		Supporters: []ids.NodeID{ids.GenerateTestNodeID(), ids.GenerateTestNodeID()},
		Level:      LevelLow,
	}
	require.NoError(ok.Validate())

	mismatched := ok
	mismatched.Level = LevelHigh
	require.Error(mismatched.Validate())

	empty := ok
	empty.Text = ""
	require.Error(empty.Validate())

	noSupporters := ok
	noSupporters.Supporters = nil
	require.Error(noSupporters.Validate())
}

func TestPrecedentCitedBodyRejectsBinding(t *testing.T) {
	b := PrecedentCitedBody{
		CitedEventID: ids.GenerateTestID(),
		Grounds:      "prior ruling on quorum",
		Binding:      true,
	}
	require.Error(t, b.Validate())

	b.Binding = false
	require.NoError(t, b.Validate())
}

func TestVoteCastBodyRejectsUnknownChoice(t *testing.T) {
	b := VoteCastBody{MotionID: ids.GenerateTestID(), Choice: Choice("maybe")}
	require.Error(t, b.Validate())

	b.Choice = ChoiceAbstain
	require.NoError(t, b.Validate())
}
