// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func haltCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "halt", Short: "Declare a halt (spec §4.3 Halt & Fork Detector)"}
	cmd.AddCommand(haltDeclareCmd())
	return cmd
}

func haltDeclareCmd() *cobra.Command {
	var scope, actorStr, declaredBy string

	cmd := &cobra.Command{
		Use:   "declare <reason>",
		Short: "Set the sticky halt flag for an actor's chain, or globally with --scope=global",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			reason := args[0]
			at := app.now()

			if scope == "global" {
				if !app.detector.DeclareGlobal(reason, declaredBy, at) {
					fmt.Fprintln(cmd.OutOrStdout(), "global halt was already declared")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), "global halt declared")
				return nil
			}

			actorID, err := parseNodeID(actorStr)
			if err != nil {
				return err
			}
			if !app.detector.DeclareActor(actorID, reason, declaredBy, at) {
				fmt.Fprintf(cmd.OutOrStdout(), "actor %s was already halted\n", actorID)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "actor %s halted\n", actorID)
			return nil
		},
	}
	cmd.Flags().StringVar(&scope, "scope", "actor", "actor or global")
	cmd.Flags().StringVar(&actorStr, "actor", "", "actor node id (required unless --scope=global)")
	cmd.Flags().StringVar(&declaredBy, "by", "operator", "identity of whoever is declaring this halt")
	return cmd
}
