// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"os"

	"github.com/luxfi/conclave/config"
	"github.com/luxfi/conclave/coreerrors"
	conclavelog "github.com/luxfi/conclave/log"
	"github.com/spf13/cobra"
)

// Exit codes, spec §6: 0 success, 2 halted, 3 stale chain, 4 identity
// conflict, 5 integrity failure. Any other error is a generic usage or
// wiring failure (1), matching the teacher's cmd/consensus convention of
// printing to stderr and returning a single non-zero code for everything
// it does not specifically classify.
const (
	exitOK               = 0
	exitGenericError     = 1
	exitHalted           = 2
	exitStaleChain       = 3
	exitIdentityConflict = 4
	exitIntegrityFailure = 5
)

var rootCmd = &cobra.Command{
	Use:   "conclave",
	Short: "Operator CLI for the witnessed deliberation core",
	Long: `conclave drives the append-only event log described in this module's
rituals: opening and closing cycles, proposing and voting on motions,
invoking and concluding overrides, declaring halts, and auditing a
chain's integrity.

Configuration is read from the environment (TIME_AUTHORITY_URL,
STORE_DSN, LEASE_TTL_SECONDS, WITNESS_MIN, QUORUM_FRACTION,
OVERRIDE_DEFAULT_HOURS); see config.FromEnv.`,
}

func main() {
	rootCmd.AddCommand(
		cycleCmd(),
		rollCallCmd(),
		motionCmd(),
		voteCmd(),
		overrideCmd(),
		haltCmd(),
		verifyCmd(),
		demoCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "conclave: %v\n", err)
		os.Exit(exitCodeFor(err))
	}
}

func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return exitOK
	case coreerrors.IsHalted(err):
		return exitHalted
	case coreerrors.IsStaleChain(err):
		return exitStaleChain
	case coreerrors.IsIdentityConflict(err):
		return exitIdentityConflict
	case coreerrors.IsIntegrityFailure(err):
		return exitIntegrityFailure
	default:
		return exitGenericError
	}
}

// newApp loads configuration from the environment and wires a fresh App,
// the way every subcommand in this file needs to. Each invocation of this
// binary is a separate process; see app.go's doc comment for what that
// means for state continuity.
func newApp() (*App, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	logger := conclavelog.New(conclavelog.Config{
		Level:       envOr("CONCLAVE_LOG_LEVEL", "info"),
		JSON:        os.Getenv("CONCLAVE_LOG_JSON") == "true",
		DisplayName: "conclave",
	})
	return NewApp(cfg, logger)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
