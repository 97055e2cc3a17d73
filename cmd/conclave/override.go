// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func overrideCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "override",
		Short: "Invoke or conclude an emergency override (spec Override ritual)",
	}
	cmd.AddCommand(overrideInvokeCmd(), overrideConcludeCmd())
	return cmd
}

func overrideInvokeCmd() *cobra.Command {
	var actorStr, declaration, prevStr string
	var epoch uint32

	cmd := &cobra.Command{
		Use:   "invoke <scope> <duration>",
		Short: "Append OverrideInvoked; duration is a Go duration string (e.g. 1h, 30m), empty uses the configured default",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			session := app.CurrentSession()
			if session == nil {
				return fmt.Errorf("no cycle is open in this process; run 'conclave cycle open' first")
			}
			actorID, err := parseNodeID(actorStr)
			if err != nil {
				return err
			}
			prev, err := parseEventID(prevStr)
			if err != nil {
				return err
			}

			scope := args[0]
			var duration time.Duration
			if len(args) == 2 && args[1] != "" {
				duration, err = time.ParseDuration(args[1])
				if err != nil {
					return fmt.Errorf("parsing duration %q: %w", args[1], err)
				}
			}

			id, err := session.Override.Invoke(context.Background(), actorID, epoch, declaration, scope, duration, app.now(), prev)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "override_invoked=%s\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&actorStr, "actor", "", "invoking actor node id")
	cmd.Flags().StringVar(&declaration, "declaration", "", "override declaration text")
	cmd.Flags().StringVar(&prevStr, "prev", "", "intended prev_hash")
	cmd.Flags().Uint32Var(&epoch, "epoch", 0, "actor's current lease epoch")
	return cmd
}

func overrideConcludeCmd() *cobra.Command {
	var actorStr, outcome, prevStr string
	var epoch uint32

	cmd := &cobra.Command{
		Use:   "conclude",
		Short: "Append OverrideConcluded, ending the active override",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			session := app.CurrentSession()
			if session == nil {
				return fmt.Errorf("no cycle is open in this process; run 'conclave cycle open' first")
			}
			actorID, err := parseNodeID(actorStr)
			if err != nil {
				return err
			}
			prev, err := parseEventID(prevStr)
			if err != nil {
				return err
			}

			id, err := session.Override.Conclude(context.Background(), actorID, epoch, outcome, prev)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "override_concluded=%s\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&actorStr, "actor", "", "concluding actor node id")
	cmd.Flags().StringVar(&outcome, "outcome", "", "resolution text")
	cmd.Flags().StringVar(&prevStr, "prev", "", "intended prev_hash")
	cmd.Flags().Uint32Var(&epoch, "epoch", 0, "actor's current lease epoch")
	return cmd
}
