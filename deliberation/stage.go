// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package deliberation

import "github.com/luxfi/conclave/coreerrors"

// Stage is a cycle's position in the spec §4.4 stage machine:
//
//	OPEN -> INTAKE -> DELIBERATION -> MOTION_QUEUE -> VOTING -> RESOLUTION -> CLOSING
//	                                       |                        |
//	                                       +--> DISSOLUTION_DELIBERATION <--+
//
// Stage is exported as a closed string enum, matching the teacher's
// choices/status.go style, rather than an int iota, so event bodies that
// carry a stage name (CycleClosedBody.FinalStage) serialize to a
// self-describing value.
type Stage string

const (
	StageOpen                     Stage = "OPEN"
	StageIntake                   Stage = "INTAKE"
	StageDeliberation              Stage = "DELIBERATION"
	StageMotionQueue               Stage = "MOTION_QUEUE"
	StageVoting                   Stage = "VOTING"
	StageResolution                Stage = "RESOLUTION"
	StageClosing                   Stage = "CLOSING"
	StageDissolutionDeliberation   Stage = "DISSOLUTION_DELIBERATION"
)

// transitions is the closed adjacency list of the stage diagram above.
// Both branch points (MOTION_QUEUE and RESOLUTION can each lead into
// DISSOLUTION_DELIBERATION) are represented explicitly; there is no
// fallback "anything goes" transition.
var transitions = map[Stage][]Stage{
	StageOpen:                   {StageIntake},
	StageIntake:                 {StageDeliberation},
	StageDeliberation:           {StageMotionQueue},
	StageMotionQueue:            {StageVoting, StageDissolutionDeliberation},
	StageVoting:                 {StageResolution},
	StageResolution:             {StageClosing, StageDissolutionDeliberation},
	StageDissolutionDeliberation: {StageClosing},
	StageClosing:                nil,
}

// canTransition reports whether from -> to is a legal stage-machine edge.
func canTransition(from, to Stage) bool {
	for _, candidate := range transitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// advance validates a stage transition, returning a SchemaViolation if the
// edge is not in the closed set above. Every pipeline method that moves a
// cycle forward goes through this rather than assigning Stage directly.
func advance(from, to Stage) error {
	if !canTransition(from, to) {
		return &coreerrors.SchemaViolation{
			Kind:   "stage-transition",
			Detail: string(from) + " -> " + string(to) + " is not a legal stage transition",
		}
	}
	return nil
}
