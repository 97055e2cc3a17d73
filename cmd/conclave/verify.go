// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"

	"github.com/luxfi/ids"
	"github.com/spf13/cobra"
)

func verifyCmd() *cobra.Command {
	var actorStr, fromStr string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Walk an actor's chain and report every integrity finding (advisory, read-only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			actorID, err := parseNodeID(actorStr)
			if err != nil {
				return err
			}

			var tip ids.ID
			if fromStr == "" {
				tip, err = app.store.Tip(actorID)
				if err != nil {
					return fmt.Errorf("resolving chain tip: %w", err)
				}
			} else {
				tip, err = parseEventID(fromStr)
				if err != nil {
					return err
				}
			}

			auditor := app.Auditor(actorID)
			findings, err := auditor.VerifyChain(tip)
			if err != nil {
				return err
			}
			if len(findings) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no findings: chain verifies cleanly")
				return nil
			}
			for _, f := range findings {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s — %s\n", f.EventID, f.Kind, f.Detail)
			}
			return fmt.Errorf("%d integrity finding(s)", len(findings))
		},
	}
	cmd.Flags().StringVar(&actorStr, "actor", "", "actor node id to verify")
	cmd.Flags().StringVar(&fromStr, "from", "", "event id to walk from (default: current tip)")
	return cmd
}
