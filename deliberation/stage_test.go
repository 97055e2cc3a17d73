// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package deliberation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStageTransitionsFollowDiagram(t *testing.T) {
	require := require.New(t)

	require.NoError(advance(StageOpen, StageIntake))
	require.NoError(advance(StageIntake, StageDeliberation))
	require.NoError(advance(StageDeliberation, StageMotionQueue))
	require.NoError(advance(StageMotionQueue, StageVoting))
	require.NoError(advance(StageMotionQueue, StageDissolutionDeliberation))
	require.NoError(advance(StageVoting, StageResolution))
	require.NoError(advance(StageResolution, StageClosing))
	require.NoError(advance(StageResolution, StageDissolutionDeliberation))
	require.NoError(advance(StageDissolutionDeliberation, StageClosing))
}

func TestStageTransitionsRejectIllegalEdges(t *testing.T) {
	require := require.New(t)

	require.Error(advance(StageOpen, StageVoting))
	require.Error(advance(StageClosing, StageOpen))
	require.Error(advance(StageVoting, StageIntake))
}
