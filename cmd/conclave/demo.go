// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/luxfi/conclave/event"
	"github.com/luxfi/ids"
	"github.com/spf13/cobra"
)

// deriveID content-addresses a scope id from arbitrary already-known
// bytes, the same way ritual.overrideExpiryBreachID mints an id for an
// event with no natural operator-supplied one.
func deriveID(parts ...[]byte) ids.ID {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	var id ids.ID
	copy(id[:], h.Sum(nil))
	return id
}

// demoCmd runs one complete cycle end to end against a single process's
// App, the way the acceptance scenarios in spec §8 describe ("clean
// cycle"): open, cost snapshot, roll call, utter, propose, vote, tally,
// invoke and conclude an override, close, then verify the chair's chain. It
// exists because this module's storage is memdb-backed and therefore
// process-local (see app.go's doc comment) — the only way to exercise
// the whole wiring end to end without a durable backend is within one
// process, the way the teacher's own cmd/consensus sim/benchmark tools
// are single-process demonstrations rather than long-running services.
func demoCmd() *cobra.Command {
	var chairStr, rosterStr string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run one full cycle end to end in this process and print its event trail",
		RunE: func(cmd *cobra.Command, args []string) error {
			chairID, err := parseNodeID(chairStr)
			if err != nil {
				return err
			}
			roster, err := parseNodeIDList(rosterStr)
			if err != nil {
				return err
			}
			if len(roster) < 3 {
				return fmt.Errorf("--roster needs at least 3 members besides the chair for a meaningful tally")
			}

			app, err := newApp()
			if err != nil {
				return err
			}
			if _, err := app.RegisterActor(chairID); err != nil {
				return err
			}
			tips := map[ids.NodeID]ids.ID{chairID: ids.Empty}
			for _, id := range roster {
				if _, err := app.RegisterActor(id); err != nil {
					return err
				}
				tips[id] = ids.Empty
			}
			attending := append([]ids.NodeID{chairID}, roster...)

			out := cmd.OutOrStdout()
			ctx := context.Background()
			const epoch = uint32(1)

			cycleID := deriveID([]byte("conclave-demo-cycle"), chairID[:])
			session := app.OpenCycle(cycleID)
			openID, err := session.Boundary.Open(ctx, chairID, epoch, attending, tips[chairID])
			if err != nil {
				return err
			}
			tips[chairID] = openID
			fmt.Fprintf(out, "CycleOpened               %s\n", openID)

			costID, err := session.Boundary.AnnounceCost(ctx, chairID, epoch, 0, 0, tips[chairID])
			if err != nil {
				return err
			}
			tips[chairID] = costID
			fmt.Fprintf(out, "CostSnapshotAnnounced     %s\n", costID)

			boundaryRCID, err := session.Boundary.RollCall(ctx, chairID, epoch, attending, tips[chairID])
			if err != nil {
				return err
			}
			tips[chairID] = boundaryRCID
			pipelineRCID, err := session.Pipeline.RollCall(ctx, chairID, epoch, attending, tips[chairID])
			if err != nil {
				return err
			}
			tips[chairID] = pipelineRCID
			fmt.Fprintf(out, "RollCallCompleted         %s\n", pipelineRCID)

			utterID, err := session.Pipeline.Utter(ctx, chairID, epoch, "the floor is open", tips[chairID])
			if err != nil {
				return err
			}
			tips[chairID] = utterID
			fmt.Fprintf(out, "AgentUtterance            %s\n", utterID)

			motionID := deriveID([]byte("conclave-demo-motion"), chairID[:])
			proposeID, err := session.Pipeline.ProposeMotion(ctx, chairID, epoch, motionID, "adopt the proposed agenda", roster[:2], tips[chairID])
			if err != nil {
				return err
			}
			tips[chairID] = proposeID
			fmt.Fprintf(out, "MotionProposed            %s\n", proposeID)

			choices := []event.Choice{event.ChoiceYea, event.ChoiceYea, event.ChoiceNay}
			for i, voter := range roster {
				choice := event.ChoiceAbstain
				if i < len(choices) {
					choice = choices[i]
				}
				voteID, err := session.Pipeline.CastVote(ctx, voter, epoch, motionID, choice, "", uint64(i), tips[voter])
				if err != nil {
					return err
				}
				tips[voter] = voteID
				fmt.Fprintf(out, "VoteCast                  %s (%s: %s)\n", voteID, voter, choice)
			}

			tallyID, resolveID, outcome, err := session.Pipeline.TallyAndResolve(ctx, chairID, epoch, motionID, tips[chairID], true)
			if err != nil {
				return err
			}
			tips[chairID] = resolveID
			fmt.Fprintf(out, "VoteTallied               %s\n", tallyID)
			fmt.Fprintf(out, "MotionResolved            %s (%s)\n", resolveID, outcome)

			overrideID, err := session.Override.Invoke(ctx, chairID, epoch, "unscheduled maintenance window", "maintenance", 0, app.now(), tips[chairID])
			if err != nil {
				return err
			}
			tips[chairID] = overrideID
			fmt.Fprintf(out, "OverrideInvoked           %s\n", overrideID)

			concludeID, err := session.Override.Conclude(ctx, chairID, epoch, "maintenance completed without incident", tips[chairID])
			if err != nil {
				return err
			}
			tips[chairID] = concludeID
			fmt.Fprintf(out, "OverrideConcluded         %s\n", concludeID)

			closeID, costBreach, err := session.Boundary.Close(ctx, chairID, epoch, "CLOSED", tips[chairID])
			if err != nil {
				return err
			}
			tips[chairID] = closeID
			fmt.Fprintf(out, "CycleClosed               %s (cost_snapshot_breach=%t)\n", closeID, costBreach)

			findings, err := app.Auditor(chairID).VerifyChain(closeID)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "verify: %d integrity finding(s) over the chair's chain\n", len(findings))
			return nil
		},
	}
	cmd.Flags().StringVar(&chairStr, "chair", "", "chair's actor node id")
	cmd.Flags().StringVar(&rosterStr, "roster", "", "comma-separated non-chair roster node ids (at least 3)")
	return cmd
}
