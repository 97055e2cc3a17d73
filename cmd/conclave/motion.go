// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"

	"github.com/luxfi/conclave/event"
	"github.com/spf13/cobra"
)

func motionCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "motion", Short: "Propose a motion in the open cycle"}
	cmd.AddCommand(motionProposeCmd())
	return cmd
}

func motionProposeCmd() *cobra.Command {
	var actorStr, motionStr, text, supportersStr, prevStr string
	var epoch uint32

	cmd := &cobra.Command{
		Use:   "propose",
		Short: "Append MotionProposed",
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
			motionID, err := parseEventID(motionStr)
			if err != nil {
				return err
			}
			supporters, err := parseNodeIDList(supportersStr)
			if err != nil {
				return err
			}
			prev, err := parseEventID(prevStr)
			if err != nil {
				return err
			}

			id, err := session.Pipeline.ProposeMotion(context.Background(), actorID, epoch, motionID, text, supporters, prev)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "motion_proposed=%s\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&actorStr, "actor", "", "proposing actor node id")
	cmd.Flags().StringVar(&motionStr, "motion", "", "motion id")
	cmd.Flags().StringVar(&text, "text", "", "motion text")
	cmd.Flags().StringVar(&supportersStr, "supporters", "", "comma-separated supporter node ids")
	cmd.Flags().StringVar(&prevStr, "prev", "", "intended prev_hash")
	cmd.Flags().Uint32Var(&epoch, "epoch", 0, "actor's current lease epoch")
	return cmd
}

func voteCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "vote", Short: "Cast a vote on an open motion"}
	cmd.AddCommand(voteCastCmd())
	return cmd
}

func voteCastCmd() *cobra.Command {
	var actorStr, motionStr, choiceStr, justification, prevStr string
	var epoch uint32
	var sequence uint64

	cmd := &cobra.Command{
		Use:   "cast",
		Short: "Append VoteCast",
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
			motionID, err := parseEventID(motionStr)
			if err != nil {
				return err
			}
			prev, err := parseEventID(prevStr)
			if err != nil {
				return err
			}

			id, err := session.Pipeline.CastVote(context.Background(), actorID, epoch, motionID, event.Choice(choiceStr), justification, sequence, prev)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "vote_cast=%s\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&actorStr, "actor", "", "voting actor node id")
	cmd.Flags().StringVar(&motionStr, "motion", "", "motion id")
	cmd.Flags().StringVar(&choiceStr, "choice", "", "yea, nay, abstain, or present")
	cmd.Flags().StringVar(&justification, "justification", "", "optional vote justification")
	cmd.Flags().Uint64Var(&sequence, "chain-sequence", 0, "client-asserted sequence number")
	cmd.Flags().StringVar(&prevStr, "prev", "", "intended prev_hash")
	cmd.Flags().Uint32Var(&epoch, "epoch", 0, "actor's current lease epoch")
	return cmd
}
