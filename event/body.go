// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package event

import (
	"time"

	"github.com/luxfi/conclave/coreerrors"
	"github.com/luxfi/ids"
)

// Body is the kind-specific payload of an event. It is a closed tagged
// union: every concrete type below implements Body, Store.Append rejects
// any Body whose Kind() is not the Kind passed to Append, and Validate
// rejects unknown/out-of-range fields rather than silently accepting them
// (spec §9 "validation rejects unknown fields rather than silently
// accepting").
type Body interface {
	Kind() Kind
	Validate() error
}

// ConsensusLevel is spec §3's motion.consensus_level, derived deterministically
// from supporter count and never mutable after derivation.
type ConsensusLevel string

const (
	LevelSingle   ConsensusLevel = "SINGLE"
	LevelLow      ConsensusLevel = "LOW"
	LevelMedium   ConsensusLevel = "MEDIUM"
	LevelHigh     ConsensusLevel = "HIGH"
	LevelCritical ConsensusLevel = "CRITICAL"
)

// DeriveConsensusLevel implements spec §4.4's deterministic derivation:
// SINGLE (1), LOW (2-3), MEDIUM (4-7), HIGH (8-15), CRITICAL (>=16). Ties
// are impossible by construction since the ranges partition the integers.
func DeriveConsensusLevel(supporterCount int) ConsensusLevel {
	switch {
	case supporterCount <= 1:
		return LevelSingle
	case supporterCount <= 3:
		return LevelLow
	case supporterCount <= 7:
		return LevelMedium
	case supporterCount <= 15:
		return LevelHigh
	default:
		return LevelCritical
	}
}

// Choice is a spec §3 Vote.choice.
type Choice string

const (
	ChoiceYea     Choice = "yea"
	ChoiceNay     Choice = "nay"
	ChoiceAbstain Choice = "abstain"
	ChoicePresent Choice = "present"
)

func (c Choice) valid() bool {
	switch c {
	case ChoiceYea, ChoiceNay, ChoiceAbstain, ChoicePresent:
		return true
	}
	return false
}

// --- Cycle boundary ---

type CycleOpenedBody struct {
	Roster []ids.NodeID // candidate roster; finalized by RollCallCompleted
}

func (CycleOpenedBody) Kind() Kind { return KindCycleOpened }
func (b CycleOpenedBody) Validate() error {
	if len(b.Roster) == 0 {
		return &coreerrors.SchemaViolation{Kind: string(KindCycleOpened), Detail: "roster must be non-empty"}
	}
	return nil
}

type CycleClosedBody struct {
	FinalStage string // the Cycle state the cycle closed into: CLOSED, DISSOLVED, INDEFINITE_SUSPENSION
}

func (CycleClosedBody) Kind() Kind { return KindCycleClosed }
func (b CycleClosedBody) Validate() error {
	switch b.FinalStage {
	case "CLOSED", "DISSOLVED", "INDEFINITE_SUSPENSION":
		return nil
	default:
		return &coreerrors.SchemaViolation{Kind: string(KindCycleClosed), Detail: "final_stage must be CLOSED, DISSOLVED or INDEFINITE_SUSPENSION"}
	}
}

type RollCallCompletedBody struct {
	Attending []ids.NodeID
}

func (RollCallCompletedBody) Kind() Kind { return KindRollCallCompleted }
func (b RollCallCompletedBody) Validate() error {
	if len(b.Attending) == 0 {
		return &coreerrors.SchemaViolation{Kind: string(KindRollCallCompleted), Detail: "attending roster must be non-empty"}
	}
	return nil
}

// --- Deliberation ---

type AgentUtteranceBody struct {
	Sequence uint64 // turn-taking order within the cycle
	Text     string // never constrained by content, only by size (quarantine boundary)
}

func (AgentUtteranceBody) Kind() Kind { return KindAgentUtterance }
func (b AgentUtteranceBody) Validate() error {
	if b.Text == "" {
		return &coreerrors.SchemaViolation{Kind: string(KindAgentUtterance), Detail: "text must be non-empty"}
	}
	return nil
}

type MotionProposedBody struct {
	MotionID   ids.ID
	Text       string
	Supporters []ids.NodeID
	Level      ConsensusLevel
}

func (MotionProposedBody) Kind() Kind { return KindMotionProposed }
func (b MotionProposedBody) Validate() error {
	if b.Text == "" {
		return &coreerrors.SchemaViolation{Kind: string(KindMotionProposed), Detail: "text must be non-empty"}
	}
	if len(b.Supporters) == 0 {
		return &coreerrors.SchemaViolation{Kind: string(KindMotionProposed), Detail: "supporters must be non-empty"}
	}
	seen := make(map[ids.NodeID]struct{}, len(b.Supporters))
	for _, s := range b.Supporters {
		if _, dup := seen[s]; dup {
			return &coreerrors.SchemaViolation{Kind: string(KindMotionProposed), Detail: "supporters must be distinct; a repeated actor_id cannot count twice toward the consensus level"}
		}
		seen[s] = struct{}{}
	}
	if DeriveConsensusLevel(len(b.Supporters)) != b.Level {
		return &coreerrors.SchemaViolation{Kind: string(KindMotionProposed), Detail: "level does not match derived level for supporter count"}
	}
	return nil
}

type VoteCastBody struct {
	MotionID      ids.ID
	Choice        Choice
	Justification string
	ChainSequence uint64 // the voter's identity-chain sequence number this vote was signed at
}

func (VoteCastBody) Kind() Kind { return KindVoteCast }
func (b VoteCastBody) Validate() error {
	if !b.Choice.valid() {
		return &coreerrors.SchemaViolation{Kind: string(KindVoteCast), Detail: "choice must be yea, nay, abstain or present"}
	}
	return nil
}

type VoteTalliedBody struct {
	MotionID     ids.ID
	Yea          int
	Nay          int
	Abstain      int
	Present      int
	RosterSize   int
	CastFraction float64
	YeaFraction  float64
}

func (VoteTalliedBody) Kind() Kind { return KindVoteTallied }
func (b VoteTalliedBody) Validate() error {
	if b.RosterSize <= 0 {
		return &coreerrors.SchemaViolation{Kind: string(KindVoteTallied), Detail: "roster size must be > 0"}
	}
	return nil
}

type MotionResolvedBody struct {
	MotionID ids.ID
	Outcome  string // "adopted", "rejected", "tabled", "withdrawn"
}

func (MotionResolvedBody) Kind() Kind { return KindMotionResolved }
func (b MotionResolvedBody) Validate() error {
	switch b.Outcome {
	case "adopted", "rejected", "tabled", "withdrawn":
		return nil
	default:
		return &coreerrors.SchemaViolation{Kind: string(KindMotionResolved), Detail: "outcome must be adopted, rejected, tabled or withdrawn"}
	}
}

type DissolutionTriggeredBody struct {
	Reason string // e.g. "continuation-vote-rejected"
}

func (DissolutionTriggeredBody) Kind() Kind { return KindDissolutionTriggered }
func (b DissolutionTriggeredBody) Validate() error {
	if b.Reason == "" {
		return &coreerrors.SchemaViolation{Kind: string(KindDissolutionTriggered), Detail: "reason must be non-empty"}
	}
	return nil
}

type ReconsiderMotionBody struct {
	MotionID ids.ID
}

func (ReconsiderMotionBody) Kind() Kind          { return KindReconsiderMotion }
func (ReconsiderMotionBody) Validate() error     { return nil }

type DissolveMotionBody struct {
	MotionID ids.ID
}

func (DissolveMotionBody) Kind() Kind      { return KindDissolveMotion }
func (DissolveMotionBody) Validate() error { return nil }

type ReformMotionBody struct {
	MotionID  ids.ID
	NextCycle ids.ID // the cycle_id the reform transitions into
}

func (ReformMotionBody) Kind() Kind { return KindReformMotion }
func (b ReformMotionBody) Validate() error {
	if b.NextCycle == ids.Empty {
		return &coreerrors.SchemaViolation{Kind: string(KindReformMotion), Detail: "next_cycle must be set"}
	}
	return nil
}

type SuspensionBeganBody struct {
	Terminal bool // always true for cessation (spec §4.5); false otherwise is not currently used
}

func (SuspensionBeganBody) Kind() Kind      { return KindSuspensionBegan }
func (SuspensionBeganBody) Validate() error { return nil }

// --- Breach acknowledgment ---

type BreachDeclaredBody struct {
	BreachID ids.ID
	BreachKind string // e.g. "intake-overrun", "override-expired", "missing-cost-snapshot"
	Detail     string
}

func (BreachDeclaredBody) Kind() Kind { return KindBreachDeclared }
func (b BreachDeclaredBody) Validate() error {
	if b.BreachKind == "" {
		return &coreerrors.SchemaViolation{Kind: string(KindBreachDeclared), Detail: "breach_kind must be non-empty"}
	}
	return nil
}

type SuppressionAttemptedBody struct {
	AttemptedBy      ids.NodeID
	UnresolvedBreach ids.ID
}

func (SuppressionAttemptedBody) Kind() Kind { return KindSuppressionAttempted }
func (b SuppressionAttemptedBody) Validate() error {
	if b.UnresolvedBreach == ids.Empty {
		return &coreerrors.SchemaViolation{Kind: string(KindSuppressionAttempted), Detail: "unresolved_breach must reference a breach event"}
	}
	return nil
}

type BreachRespondedBody struct {
	BreachID ids.ID
	Response string
}

func (BreachRespondedBody) Kind() Kind { return KindBreachResponded }
func (b BreachRespondedBody) Validate() error {
	if b.BreachID == ids.Empty {
		return &coreerrors.SchemaViolation{Kind: string(KindBreachResponded), Detail: "breach_id must reference a breach event"}
	}
	return nil
}

// --- Override ritual ---

type OverrideInvokedBody struct {
	Declaration string // captured verbatim
	Scope       string
	Duration    time.Duration
}

func (OverrideInvokedBody) Kind() Kind { return KindOverrideInvoked }
func (b OverrideInvokedBody) Validate() error {
	if b.Declaration == "" || b.Scope == "" {
		return &coreerrors.SchemaViolation{Kind: string(KindOverrideInvoked), Detail: "declaration and scope must be non-empty"}
	}
	if b.Duration <= 0 {
		return &coreerrors.SchemaViolation{Kind: string(KindOverrideInvoked), Detail: "duration must be > 0"}
	}
	return nil
}

type OverrideConcludedBody struct {
	Scope    string
	Outcome  string
}

func (OverrideConcludedBody) Kind() Kind { return KindOverrideConcluded }
func (b OverrideConcludedBody) Validate() error {
	if b.Scope == "" {
		return &coreerrors.SchemaViolation{Kind: string(KindOverrideConcluded), Detail: "scope must be non-empty"}
	}
	return nil
}

// --- Precedent ---

type PrecedentCitedBody struct {
	CitedEventID ids.ID
	Grounds      string
	Binding      bool // always false, literally — enforced in Validate
	CitationKind string // e.g. "witness-anomaly" for collusion escalation
}

func (PrecedentCitedBody) Kind() Kind { return KindPrecedentCited }
func (b PrecedentCitedBody) Validate() error {
	if b.Binding {
		return &coreerrors.SchemaViolation{Kind: string(KindPrecedentCited), Detail: "binding must always be false"}
	}
	if b.CitedEventID == ids.Empty {
		return &coreerrors.SchemaViolation{Kind: string(KindPrecedentCited), Detail: "cited_event_id must be set"}
	}
	return nil
}

type PrecedentChallengedBody struct {
	CitedEventID ids.ID
	Grounds      string
}

func (PrecedentChallengedBody) Kind() Kind { return KindPrecedentChallenged }
func (b PrecedentChallengedBody) Validate() error {
	if b.CitedEventID == ids.Empty {
		return &coreerrors.SchemaViolation{Kind: string(KindPrecedentChallenged), Detail: "cited_event_id must be set"}
	}
	return nil
}

// --- Cost / halt / fork ---

type CostSnapshotAnnouncedBody struct {
	ComputeUnits     uint64
	WallClockSeconds float64
}

func (CostSnapshotAnnouncedBody) Kind() Kind      { return KindCostSnapshotAnnounced }
func (CostSnapshotAnnouncedBody) Validate() error { return nil }

type HaltDeclaredBody struct {
	Reason string
}

func (HaltDeclaredBody) Kind() Kind { return KindHaltDeclared }
func (b HaltDeclaredBody) Validate() error {
	if b.Reason == "" {
		return &coreerrors.SchemaViolation{Kind: string(KindHaltDeclared), Detail: "reason must be non-empty"}
	}
	return nil
}

type ForkDetectedBody struct {
	ConflictingEventA ids.ID
	ConflictingEventB ids.ID
	Reason            string
}

func (ForkDetectedBody) Kind() Kind { return KindForkDetected }
func (b ForkDetectedBody) Validate() error {
	if b.Reason == "" {
		return &coreerrors.SchemaViolation{Kind: string(KindForkDetected), Detail: "reason must be non-empty"}
	}
	return nil
}
