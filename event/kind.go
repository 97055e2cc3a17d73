// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package event

// Kind is the closed set of event kinds from spec §3. No other kind may be
// appended; Store.Append rejects anything not in this set before it ever
// reaches the hash/signature trust boundary.
type Kind string

const (
	KindCycleOpened          Kind = "CycleOpened"
	KindCycleClosed          Kind = "CycleClosed"
	KindRollCallCompleted    Kind = "RollCallCompleted"
	KindAgentUtterance       Kind = "AgentUtterance"
	KindMotionProposed       Kind = "MotionProposed"
	KindVoteCast             Kind = "VoteCast"
	KindVoteTallied          Kind = "VoteTallied"
	KindMotionResolved       Kind = "MotionResolved"
	KindDissolutionTriggered Kind = "DissolutionTriggered"
	KindReconsiderMotion     Kind = "ReconsiderMotion"
	KindDissolveMotion       Kind = "DissolveMotion"
	KindReformMotion         Kind = "ReformMotion"
	KindSuspensionBegan      Kind = "SuspensionBegan"
	KindBreachDeclared       Kind = "BreachDeclared"
	KindSuppressionAttempted Kind = "SuppressionAttempted"
	KindBreachResponded      Kind = "BreachResponded"
	KindOverrideInvoked      Kind = "OverrideInvoked"
	KindOverrideConcluded    Kind = "OverrideConcluded"
	KindPrecedentCited       Kind = "PrecedentCited"
	KindPrecedentChallenged  Kind = "PrecedentChallenged"
	KindCostSnapshotAnnounced Kind = "CostSnapshotAnnounced"
	KindHaltDeclared         Kind = "HaltDeclared"
	KindForkDetected         Kind = "ForkDetected"
)

// knownKinds backs Kind.Valid; a map lookup rather than a long switch,
// matching the teacher's choices/status.go closed-enum idiom.
var knownKinds = map[Kind]bool{
	KindCycleOpened: true, KindCycleClosed: true, KindRollCallCompleted: true,
	KindAgentUtterance: true, KindMotionProposed: true, KindVoteCast: true,
	KindVoteTallied: true, KindMotionResolved: true, KindDissolutionTriggered: true,
	KindReconsiderMotion: true, KindDissolveMotion: true, KindReformMotion: true,
	KindSuspensionBegan: true, KindBreachDeclared: true, KindSuppressionAttempted: true,
	KindBreachResponded: true, KindOverrideInvoked: true, KindOverrideConcluded: true,
	KindPrecedentCited: true, KindPrecedentChallenged: true,
	KindCostSnapshotAnnounced: true, KindHaltDeclared: true, KindForkDetected: true,
}

// Valid reports whether k is a member of the closed set.
func (k Kind) Valid() bool {
	return knownKinds[k]
}

func (k Kind) String() string { return string(k) }
