// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package deliberation

import (
	"context"
	"sync"

	"github.com/luxfi/conclave/config"
	"github.com/luxfi/conclave/coreerrors"
	"github.com/luxfi/conclave/event"
	"github.com/luxfi/ids"
)

// Pipeline orchestrates one cycle's work end to end (spec §4.4). Every
// step is a call into event.Store.Append first; Pipeline's own state
// (stage, roster, open motions) is a cache rebuildable from the log, not
// an independent source of truth — matching spec §4.4's "every step is a
// recorded event; nothing happens off-log".
type Pipeline struct {
	store   *event.Store
	cycleID ids.ID

	mu           sync.Mutex
	stage        Stage
	roster       *Roster
	intake       *IntakeQueue
	motions      map[ids.ID]*Motion
	utteranceSeq uint64
}

// NewPipeline returns a Pipeline for a not-yet-opened cycle. intakeCapacity
// should come from config.Parameters.IntakeQueueCapacity.
func NewPipeline(store *event.Store, cycleID ids.ID, intakeCapacity int) *Pipeline {
	return &Pipeline{
		store:   store,
		cycleID: cycleID,
		stage:   StageOpen,
		intake:  NewIntakeQueue(intakeCapacity),
		motions: make(map[ids.ID]*Motion),
	}
}

// Stage returns the cycle's current stage.
func (p *Pipeline) Stage() Stage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stage
}

func (p *Pipeline) moveTo(to Stage) error {
	if err := advance(p.stage, to); err != nil {
		return err
	}
	p.stage = to
	return nil
}

// OpenCycle appends CycleOpened with the candidate roster. The cycle stays
// in OPEN until RollCall finalizes attendance.
func (p *Pipeline) OpenCycle(ctx context.Context, actorID ids.NodeID, epoch uint32, candidate []ids.NodeID, prevHash ids.ID) (ids.ID, error) {
	return p.store.Append(ctx, event.AppendRequest{
		ActorID: actorID, Epoch: epoch, CycleID: p.cycleID,
		Kind: event.KindCycleOpened, Body: event.CycleOpenedBody{Roster: candidate},
		IntendedPrevHash: prevHash,
	})
}

// RollCall appends RollCallCompleted, finalizes the attending roster, and
// advances OPEN -> INTAKE. No intake item may be admitted before this
// succeeds (spec §4.4).
func (p *Pipeline) RollCall(ctx context.Context, actorID ids.NodeID, epoch uint32, attending []ids.NodeID, prevHash ids.ID) (ids.ID, error) {
	roster, err := NewRoster(attending)
	if err != nil {
		return ids.Empty, err
	}

	id, err := p.store.Append(ctx, event.AppendRequest{
		ActorID: actorID, Epoch: epoch, CycleID: p.cycleID,
		Kind: event.KindRollCallCompleted, Body: event.RollCallCompletedBody{Attending: attending},
		IntendedPrevHash: prevHash,
	})
	if err != nil {
		return ids.Empty, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.moveTo(StageIntake); err != nil {
		return ids.Empty, err
	}
	p.roster = roster
	return id, nil
}

// AdmitIntake enqueues item for later deliberation. Rejects if no roster
// has been established yet (spec §4.4).
func (p *Pipeline) AdmitIntake(item Item) error {
	p.mu.Lock()
	roster := p.roster
	p.mu.Unlock()
	if roster == nil {
		return &coreerrors.SchemaViolation{Kind: "intake", Detail: "no RollCallCompleted event has established a roster for this cycle"}
	}
	return p.intake.Enqueue(item)
}

// Utter appends an AgentUtterance on actorID's behalf, enforcing the fixed
// roster turn order (spec §4.4: "it enforces sequence, identity, and
// signing", content is unconstrained). The first utterance advances
// INTAKE -> DELIBERATION.
func (p *Pipeline) Utter(ctx context.Context, actorID ids.NodeID, epoch uint32, text string, prevHash ids.ID) (ids.ID, error) {
	p.mu.Lock()
	if p.roster == nil {
		p.mu.Unlock()
		return ids.Empty, &coreerrors.SchemaViolation{Kind: "utterance", Detail: "no roster established"}
	}
	if !p.roster.Contains(actorID) {
		p.mu.Unlock()
		return ids.Empty, &coreerrors.SchemaViolation{Kind: "utterance", Detail: "actor did not attend roll call"}
	}
	expected := p.roster.NextSpeaker(p.utteranceSeq)
	if expected != actorID {
		p.mu.Unlock()
		return ids.Empty, &coreerrors.SchemaViolation{Kind: "utterance", Detail: "out of turn"}
	}
	seq := p.utteranceSeq
	p.utteranceSeq++
	if p.stage == StageIntake {
		if err := p.moveTo(StageDeliberation); err != nil {
			p.mu.Unlock()
			return ids.Empty, err
		}
	}
	p.mu.Unlock()

	return p.store.Append(ctx, event.AppendRequest{
		ActorID: actorID, Epoch: epoch, CycleID: p.cycleID,
		Kind: event.KindAgentUtterance, Body: event.AgentUtteranceBody{Sequence: seq, Text: text},
		IntendedPrevHash: prevHash,
	})
}

// ProposeMotion appends MotionProposed with a deterministically-derived
// consensus level, starts tracking the motion in memory, and advances
// DELIBERATION -> MOTION_QUEUE.
func (p *Pipeline) ProposeMotion(ctx context.Context, actorID ids.NodeID, epoch uint32, motionID ids.ID, text string, supporters []ids.NodeID, prevHash ids.ID) (ids.ID, error) {
	p.mu.Lock()
	roster := p.roster
	p.mu.Unlock()
	if roster == nil {
		return ids.Empty, &coreerrors.SchemaViolation{Kind: "motion-proposed", Detail: "no roster established"}
	}
	for _, s := range supporters {
		if !roster.Contains(s) {
			return ids.Empty, &coreerrors.SchemaViolation{Kind: "motion-proposed", Detail: "every supporter must be a roster member"}
		}
	}

	body := event.MotionProposedBody{
		MotionID:   motionID,
		Text:       text,
		Supporters: supporters,
		Level:      event.DeriveConsensusLevel(len(supporters)),
	}

	id, err := p.store.Append(ctx, event.AppendRequest{
		ActorID: actorID, Epoch: epoch, CycleID: p.cycleID,
		Kind: event.KindMotionProposed, Body: body, IntendedPrevHash: prevHash,
	})
	if err != nil {
		return ids.Empty, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.motions[motionID] = NewMotion(body)
	if p.stage == StageDeliberation {
		if err := p.moveTo(StageMotionQueue); err != nil {
			return ids.Empty, err
		}
	}
	return id, nil
}

// CastVote appends VoteCast, records it against the in-memory motion
// tracker, and advances MOTION_QUEUE -> VOTING on the first vote of the
// cycle.
func (p *Pipeline) CastVote(ctx context.Context, actorID ids.NodeID, epoch uint32, motionID ids.ID, choice event.Choice, justification string, chainSequence uint64, prevHash ids.ID) (ids.ID, error) {
	p.mu.Lock()
	if p.roster == nil || !p.roster.Contains(actorID) {
		p.mu.Unlock()
		return ids.Empty, &coreerrors.SchemaViolation{Kind: "vote-cast", Detail: "actor did not attend roll call"}
	}
	motion, ok := p.motions[motionID]
	if !ok {
		p.mu.Unlock()
		return ids.Empty, &coreerrors.SchemaViolation{Kind: "vote-cast", Detail: "no such motion in this cycle"}
	}
	if err := motion.RecordVote(actorID, choice, chainSequence); err != nil {
		p.mu.Unlock()
		return ids.Empty, err
	}
	if p.stage == StageMotionQueue {
		if err := p.moveTo(StageVoting); err != nil {
			p.mu.Unlock()
			return ids.Empty, err
		}
	}
	p.mu.Unlock()

	return p.store.Append(ctx, event.AppendRequest{
		ActorID: actorID, Epoch: epoch, CycleID: p.cycleID,
		Kind: event.KindVoteCast,
		Body: event.VoteCastBody{MotionID: motionID, Choice: choice, Justification: justification, ChainSequence: chainSequence},
		IntendedPrevHash: prevHash,
	})
}

// TallyAndResolve computes the reproducible Tally for motionID. If quorum
// was not reached the caller gets a QuorumUnmet and nothing is written;
// otherwise it appends VoteTallied and then MotionResolved in the same
// call (spec §4.4: "a tally event without a
// resolution event within the same cycle is a breach", so this pipeline
// never leaves a tally dangling on its own). Advances VOTING -> RESOLUTION.
func (p *Pipeline) TallyAndResolve(ctx context.Context, actorID ids.NodeID, epoch uint32, motionID ids.ID, tallyPrevHash ids.ID, cycleStillOpen bool) (tallyID, resolveID ids.ID, outcome Outcome, err error) {
	p.mu.Lock()
	motion, ok := p.motions[motionID]
	roster := p.roster
	p.mu.Unlock()
	if !ok || roster == nil {
		return ids.Empty, ids.Empty, "", &coreerrors.SchemaViolation{Kind: "tally", Detail: "no such motion in this cycle"}
	}

	tally := motion.Tally(roster.Size())
	if !QuorumMet(motion.Level, tally) {
		return ids.Empty, ids.Empty, "", &coreerrors.QuorumUnmet{
			MotionID:     motionID.String(),
			CastFraction: tally.CastFraction(),
			Required:     requiredCastFraction(motion.Level),
		}
	}

	tallyID, err = p.store.Append(ctx, event.AppendRequest{
		ActorID: actorID, Epoch: epoch, CycleID: p.cycleID,
		Kind: event.KindVoteTallied, Body: TalliedBody(motionID, tally), IntendedPrevHash: tallyPrevHash,
	})
	if err != nil {
		return ids.Empty, ids.Empty, "", err
	}

	outcome, err = Resolve(motion.Level, tally, cycleStillOpen)
	if err != nil {
		return tallyID, ids.Empty, "", err
	}

	resolveID, err = p.store.Append(ctx, event.AppendRequest{
		ActorID: actorID, Epoch: epoch, CycleID: p.cycleID,
		Kind: event.KindMotionResolved, Body: event.MotionResolvedBody{MotionID: motionID, Outcome: string(outcome)},
		IntendedPrevHash: tallyID,
	})
	if err != nil {
		return tallyID, ids.Empty, "", err
	}

	p.mu.Lock()
	motion.MarkResolved()
	if p.stage == StageVoting {
		_ = p.moveTo(StageResolution)
	}
	p.mu.Unlock()

	return tallyID, resolveID, outcome, nil
}

// TriggerDissolution appends DissolutionTriggered and moves MOTION_QUEUE
// or RESOLUTION into DISSOLUTION_DELIBERATION, handing off to package
// ritual's dissolution state machine.
func (p *Pipeline) TriggerDissolution(ctx context.Context, actorID ids.NodeID, epoch uint32, reason string, prevHash ids.ID) (ids.ID, error) {
	p.mu.Lock()
	if err := p.moveTo(StageDissolutionDeliberation); err != nil {
		p.mu.Unlock()
		return ids.Empty, err
	}
	p.mu.Unlock()

	return p.store.Append(ctx, event.AppendRequest{
		ActorID: actorID, Epoch: epoch, CycleID: p.cycleID,
		Kind: event.KindDissolutionTriggered, Body: event.DissolutionTriggeredBody{Reason: reason},
		IntendedPrevHash: prevHash,
	})
}

// Close appends CycleClosed with finalStage and moves the pipeline into
// CLOSING — its terminal stage.
func (p *Pipeline) Close(ctx context.Context, actorID ids.NodeID, epoch uint32, finalStage string, prevHash ids.ID) (ids.ID, error) {
	p.mu.Lock()
	if err := p.moveTo(StageClosing); err != nil {
		p.mu.Unlock()
		return ids.Empty, err
	}
	p.mu.Unlock()

	return p.store.Append(ctx, event.AppendRequest{
		ActorID: actorID, Epoch: epoch, CycleID: p.cycleID,
		Kind: event.KindCycleClosed, Body: event.CycleClosedBody{FinalStage: finalStage},
		IntendedPrevHash: prevHash,
	})
}

func requiredCastFraction(level event.ConsensusLevel) float64 {
	return config.AdoptionThresholds[string(level)].MinCastFraction
}
