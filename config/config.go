// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config holds the deliberation core's runtime parameters: quorum
// fractions, lease timing, witness counts and override duration. It follows
// the teacher repo's config.Parameters shape (github.com/luxfi/consensus's
// config/config.go) — a validated struct with Default*() constructors —
// generalized from Avalanche's K/Alpha/Beta consensus parameters to this
// spec's quorum/lease/witness/override parameters.
package config

import (
	"os"
	"strconv"
	"time"
)

// Parameters is the full set of tunables for the core. Every field has a
// spec-mandated default; environment overrides are applied in FromEnv.
type Parameters struct {
	// QuorumFraction is read from QUORUM_FRACTION (default 0.50) and
	// range-checked by Valid. The tally path does not consult it:
	// deliberation.QuorumMet gates a tally on the per-level MinCastFraction
	// in AdoptionThresholds instead.
	QuorumFraction float64

	// WitnessMin is the minimum number of witness co-signatures required
	// per event (spec §4.6, default 2).
	WitnessMin int

	// WitnessMinCessation and WitnessMinOverride raise the bar for the two
	// rituals the spec calls out as needing more witnesses.
	WitnessMinCessation int
	WitnessMinOverride  int

	// LeaseTTL is the duration an identity lease is valid for absent
	// heartbeat renewal (spec §4.2).
	LeaseTTL time.Duration

	// LeaseSafetyMargin is how long before expiry a heartbeat must land.
	LeaseSafetyMargin time.Duration

	// OverrideDefaultDuration is the default scope duration for an
	// OverrideInvoked ritual absent an explicit duration (spec §4.5: 72h).
	OverrideDefaultDuration time.Duration

	// IntakeQueueCapacity bounds the pending-intake queue (spec §5
	// backpressure).
	IntakeQueueCapacity int

	// TimeAuthorityURL is the external monotonic time source (spec §6).
	TimeAuthorityURL string

	// StoreDSN addresses the append-only persistence boundary (spec §6).
	StoreDSN string
}

// AdoptionThreshold is one row of the spec §4.4 adoption table.
type AdoptionThreshold struct {
	MinYeaFraction  float64 // of cast votes, excluding abstain
	MinCastFraction float64 // of roster
}

// AdoptionThresholds is the spec's fixed, monotone-in-level threshold table.
// It is not user-configurable in the sense of being loaded from the
// environment — spec §4.4 calls it "configurable but monotone in level",
// and the monotonicity is enforced by Parameters.Valid, not by the caller.
var AdoptionThresholds = map[string]AdoptionThreshold{
	"SINGLE":   {MinYeaFraction: 0.50, MinCastFraction: 0.30},
	"LOW":      {MinYeaFraction: 0.55, MinCastFraction: 0.40},
	"MEDIUM":   {MinYeaFraction: 0.60, MinCastFraction: 0.50},
	"HIGH":     {MinYeaFraction: 0.67, MinCastFraction: 0.60},
	"CRITICAL": {MinYeaFraction: 0.75, MinCastFraction: 0.67},
}

// Default returns the spec-mandated defaults.
func Default() Parameters {
	return Parameters{
		QuorumFraction:          0.50,
		WitnessMin:              2,
		WitnessMinCessation:     4,
		WitnessMinOverride:      4,
		LeaseTTL:                30 * time.Second,
		LeaseSafetyMargin:       6 * time.Second, // 20% of LeaseTTL
		OverrideDefaultDuration: 72 * time.Hour,
		IntakeQueueCapacity:     256,
	}
}

// FromEnv returns Default() overridden by the environment variables named
// in spec §6: TIME_AUTHORITY_URL, STORE_DSN, LEASE_TTL_SECONDS, WITNESS_MIN,
// QUORUM_FRACTION, OVERRIDE_DEFAULT_HOURS.
func FromEnv() (Parameters, error) {
	p := Default()

	p.TimeAuthorityURL = os.Getenv("TIME_AUTHORITY_URL")
	p.StoreDSN = os.Getenv("STORE_DSN")

	if v := os.Getenv("LEASE_TTL_SECONDS"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return Parameters{}, &InvalidEnvError{Var: "LEASE_TTL_SECONDS", Cause: err}
		}
		p.LeaseTTL = time.Duration(secs) * time.Second
		p.LeaseSafetyMargin = p.LeaseTTL / 5
	}

	if v := os.Getenv("WITNESS_MIN"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Parameters{}, &InvalidEnvError{Var: "WITNESS_MIN", Cause: err}
		}
		p.WitnessMin = n
	}

	if v := os.Getenv("QUORUM_FRACTION"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Parameters{}, &InvalidEnvError{Var: "QUORUM_FRACTION", Cause: err}
		}
		p.QuorumFraction = f
	}

	if v := os.Getenv("OVERRIDE_DEFAULT_HOURS"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil {
			return Parameters{}, &InvalidEnvError{Var: "OVERRIDE_DEFAULT_HOURS", Cause: err}
		}
		p.OverrideDefaultDuration = time.Duration(hours) * time.Hour
	}

	return p, p.Valid()
}

// Valid checks the parameters, including the monotonicity of
// AdoptionThresholds, matching the teacher's config.Parameters.Valid idiom.
func (p Parameters) Valid() error {
	if p.QuorumFraction <= 0 || p.QuorumFraction > 1 {
		return ErrInvalidQuorumFraction
	}
	if p.WitnessMin < 1 {
		return ErrInvalidWitnessMin
	}
	if p.WitnessMinCessation < p.WitnessMin || p.WitnessMinOverride < p.WitnessMin {
		return ErrInvalidWitnessMin
	}
	if p.LeaseTTL <= 0 {
		return ErrInvalidLeaseTTL
	}
	if p.LeaseSafetyMargin <= 0 || p.LeaseSafetyMargin >= p.LeaseTTL {
		return ErrInvalidLeaseSafetyMargin
	}
	if p.OverrideDefaultDuration <= 0 {
		return ErrInvalidOverrideDuration
	}
	if p.IntakeQueueCapacity < 1 {
		return ErrInvalidIntakeCapacity
	}
	return validateThresholdMonotonicity()
}

func validateThresholdMonotonicity() error {
	order := []string{"SINGLE", "LOW", "MEDIUM", "HIGH", "CRITICAL"}
	prev := AdoptionThreshold{}
	for i, level := range order {
		t, ok := AdoptionThresholds[level]
		if !ok {
			return ErrMissingThresholdLevel
		}
		if i > 0 && (t.MinYeaFraction < prev.MinYeaFraction || t.MinCastFraction < prev.MinCastFraction) {
			return ErrNonMonotoneThresholds
		}
		prev = t
	}
	return nil
}
