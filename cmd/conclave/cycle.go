// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"

	"github.com/luxfi/conclave/ritual"
	"github.com/spf13/cobra"
)

func cycleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cycle",
		Short: "Open or close a deliberation cycle (spec Cycle Boundary ritual)",
	}
	cmd.AddCommand(cycleOpenCmd(), cycleCloseCmd())
	return cmd
}

func cycleOpenCmd() *cobra.Command {
	var actorStr, cycleStr, rosterStr, prevStr string
	var epoch uint32
	var units uint64
	var wallClock float64

	cmd := &cobra.Command{
		Use:   "open",
		Short: "Append CycleOpened (and an immediate CostSnapshotAnnounced)",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			actorID, err := parseNodeID(actorStr)
			if err != nil {
				return err
			}
			cycleID, err := parseEventID(cycleStr)
			if err != nil {
				return err
			}
			roster, err := parseNodeIDList(rosterStr)
			if err != nil {
				return err
			}
			prev, err := parseEventID(prevStr)
			if err != nil {
				return err
			}
			for _, id := range roster {
				if _, err := app.RegisterActor(id); err != nil {
					return fmt.Errorf("registering roster member %s: %w", id, err)
				}
			}

			session := app.OpenCycle(cycleID)
			ctx := context.Background()
			openID, err := session.Boundary.Open(ctx, actorID, epoch, roster, prev)
			if err != nil {
				return err
			}
			costID, err := session.Boundary.AnnounceCost(ctx, actorID, epoch, units, wallClock, openID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cycle_opened=%s cost_snapshot=%s\n", openID, costID)
			return nil
		},
	}
	cmd.Flags().StringVar(&actorStr, "actor", "", "chair's actor node id")
	cmd.Flags().StringVar(&cycleStr, "cycle", "", "cycle id (empty uses the zero id)")
	cmd.Flags().StringVar(&rosterStr, "roster", "", "comma-separated candidate roster node ids")
	cmd.Flags().StringVar(&prevStr, "prev", "", "intended prev_hash (empty for a fresh chain)")
	cmd.Flags().Uint32Var(&epoch, "epoch", 0, "actor's current lease epoch")
	cmd.Flags().Uint64Var(&units, "compute-units", 0, "cost snapshot: compute units consumed so far")
	cmd.Flags().Float64Var(&wallClock, "wall-clock-seconds", 0, "cost snapshot: wall-clock seconds elapsed so far")
	return cmd
}

func cycleCloseCmd() *cobra.Command {
	var actorStr, finalStageStr, prevStr string
	var epoch uint32

	cmd := &cobra.Command{
		Use:   "close",
		Short: "Append CycleClosed, reporting any missing-cost-snapshot breach",
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

			blocked, err := session.Breach.AttemptCycleClose(context.Background(), actorID, epoch, prev)
			if err != nil {
				return err
			}
			if blocked {
				fmt.Fprintf(cmd.OutOrStdout(), "close blocked: %d unresolved breach(es) remain; suppression_attempted appended\n", len(session.Breach.Unresolved()))
				return nil
			}

			closeID, costBreach, err := session.Boundary.Close(context.Background(), actorID, epoch, ritual.CycleStage(finalStageStr), prev)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cycle_closed=%s cost_snapshot_breach=%t\n", closeID, costBreach)
			return nil
		},
	}
	cmd.Flags().StringVar(&actorStr, "actor", "", "chair's actor node id")
	cmd.Flags().StringVar(&finalStageStr, "final-stage", string(ritual.CycleClosed), "CLOSED, DISSOLVED, or INDEFINITE_SUSPENSION")
	cmd.Flags().StringVar(&prevStr, "prev", "", "intended prev_hash")
	cmd.Flags().Uint32Var(&epoch, "epoch", 0, "actor's current lease epoch")
	return cmd
}

func rollCallCmd() *cobra.Command {
	var actorStr, attendingStr, prevStr string
	var epoch uint32

	cmd := &cobra.Command{
		Use:   "roll-call",
		Short: "Append RollCallCompleted, finalizing the attending roster",
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
			attending, err := parseNodeIDList(attendingStr)
			if err != nil {
				return err
			}
			prev, err := parseEventID(prevStr)
			if err != nil {
				return err
			}

			ctx := context.Background()
			boundaryID, err := session.Boundary.RollCall(ctx, actorID, epoch, attending, prev)
			if err != nil {
				return err
			}
			pipelineID, err := session.Pipeline.RollCall(ctx, actorID, epoch, attending, boundaryID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "roll_call=%s\n", pipelineID)
			return nil
		},
	}
	cmd.Flags().StringVar(&actorStr, "actor", "", "chair's actor node id")
	cmd.Flags().StringVar(&attendingStr, "attending", "", "comma-separated attending roster node ids")
	cmd.Flags().StringVar(&prevStr, "prev", "", "intended prev_hash for the Cycle Boundary chain")
	cmd.Flags().Uint32Var(&epoch, "epoch", 0, "actor's current lease epoch")
	return cmd
}
