// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require := require.New(t)
	require.NoError(Default().Valid())
}

func TestValidRejectsBadQuorum(t *testing.T) {
	require := require.New(t)

	p := Default()
	p.QuorumFraction = 0
	require.ErrorIs(p.Valid(), ErrInvalidQuorumFraction)

	p = Default()
	p.QuorumFraction = 1.5
	require.ErrorIs(p.Valid(), ErrInvalidQuorumFraction)
}

func TestValidRejectsWitnessMinBelowOverride(t *testing.T) {
	require := require.New(t)

	p := Default()
	p.WitnessMinOverride = 1
	require.ErrorIs(p.Valid(), ErrInvalidWitnessMin)
}

func TestValidRejectsSafetyMarginPastTTL(t *testing.T) {
	require := require.New(t)

	p := Default()
	p.LeaseSafetyMargin = p.LeaseTTL
	require.ErrorIs(p.Valid(), ErrInvalidLeaseSafetyMargin)
}

func TestAdoptionThresholdsMonotone(t *testing.T) {
	require := require.New(t)
	require.NoError(validateThresholdMonotonicity())
}

func TestFromEnvOverrides(t *testing.T) {
	require := require.New(t)

	t.Setenv("QUORUM_FRACTION", "0.6")
	t.Setenv("WITNESS_MIN", "3")
	t.Setenv("LEASE_TTL_SECONDS", "60")
	t.Setenv("OVERRIDE_DEFAULT_HOURS", "24")
	t.Setenv("TIME_AUTHORITY_URL", "https://time.example/authority")
	t.Setenv("STORE_DSN", "postgres://example/db")

	p, err := FromEnv()
	require.NoError(err)
	require.Equal(0.6, p.QuorumFraction)
	require.Equal(3, p.WitnessMin)
	require.Equal(60*time.Second, p.LeaseTTL)
	require.Equal(24*time.Hour, p.OverrideDefaultDuration)
	require.Equal("https://time.example/authority", p.TimeAuthorityURL)
	require.Equal("postgres://example/db", p.StoreDSN)
}

func TestFromEnvRejectsBadInt(t *testing.T) {
	require := require.New(t)
	t.Setenv("WITNESS_MIN", "not-a-number")
	_, err := FromEnv()
	require.Error(err)
}
