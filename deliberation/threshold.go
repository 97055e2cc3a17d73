// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package deliberation

import (
	"github.com/luxfi/conclave/config"
	"github.com/luxfi/conclave/coreerrors"
	"github.com/luxfi/conclave/event"
)

// Tally is the reproducible vote count behind a VoteTallied event (spec
// §4.4: "a tally event whose tally is reproducible from the on-chain
// votes").
type Tally struct {
	Yea, Nay, Abstain, Present int
	RosterSize                 int
}

// CastFraction is the fraction of the roster that recorded any choice —
// yea, nay, abstain or present — per the spec's quorum definition:
// "distinct active identities in the cycle" (anyone who voted at all
// counts toward quorum; only abstain is excluded from the yea-fraction
// denominator).
func (t Tally) CastFraction() float64 {
	if t.RosterSize == 0 {
		return 0
	}
	cast := t.Yea + t.Nay + t.Abstain + t.Present
	return float64(cast) / float64(t.RosterSize)
}

// YeaFraction is yea as a fraction of cast votes excluding abstain (spec
// §4.4 table header: "of cast, excluding abstain").
func (t Tally) YeaFraction() float64 {
	denom := t.Yea + t.Nay + t.Present
	if denom == 0 {
		return 0
	}
	return float64(t.Yea) / float64(denom)
}

// Outcome is the closed set of spec §4.4 motion outcomes.
type Outcome string

const (
	OutcomeAdopted   Outcome = "adopted"
	OutcomeRejected  Outcome = "rejected"
	OutcomeTabled    Outcome = "tabled"
	OutcomeWithdrawn Outcome = "withdrawn"
)

// Resolve implements spec §4.4's resolution rule and its explicit,
// tie-break-free outcome split:
//
//   - Either fraction below its threshold -> rejected, unconditionally
//     ("a motion that fails to clear its threshold is rejected").
//   - Both fractions cleared, but the cycle closed before a MotionResolved
//     was written -> tabled ("clears both fractions but ends the cycle
//     before resolution").
//   - Both fractions cleared and resolved within the cycle -> adopted.
//
// There is no chair-cast and no coin-flip for a borderline tally; the two
// fraction comparisons alone determine the split.
func Resolve(level event.ConsensusLevel, tally Tally, cycleStillOpen bool) (Outcome, error) {
	threshold, ok := config.AdoptionThresholds[string(level)]
	if !ok {
		return "", &coreerrors.SchemaViolation{Kind: "consensus-level", Detail: "unknown consensus level " + string(level)}
	}

	cleared := tally.CastFraction() >= threshold.MinCastFraction && tally.YeaFraction() >= threshold.MinYeaFraction
	if !cleared {
		return OutcomeRejected, nil
	}
	if !cycleStillOpen {
		return OutcomeTabled, nil
	}
	return OutcomeAdopted, nil
}

// QuorumMet reports whether the minimum cast-fraction for level has been
// reached — used by the pipeline to decide whether a tally may be
// attempted at all (spec §4.4: "quorum is met when the set of distinct
// active identities in the cycle exceeds a configured fraction").
func QuorumMet(level event.ConsensusLevel, tally Tally) bool {
	threshold, ok := config.AdoptionThresholds[string(level)]
	if !ok {
		return false
	}
	return tally.CastFraction() >= threshold.MinCastFraction
}
