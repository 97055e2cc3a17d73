// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/luxfi/ids"
)

// wireEvent is the on-disk shape of an Event: the header fields flattened,
// plus a kind tag and the body's JSON encoding. Kept separate from Event
// itself so that Header/Body stay the API types callers work with while
// storage stays a plain, versionable struct — the same split the teacher
// draws between its in-memory block types and their wire codecs.
type wireEvent struct {
	EventID   ids.ID             `json:"event_id"`
	PrevHash  ids.ID             `json:"prev_hash"`
	ChainHash ids.ID             `json:"chain_hash"`
	Signature []byte             `json:"signature"`
	Timestamp time.Time          `json:"timestamp"`
	ActorID   ids.NodeID         `json:"actor_id"`
	Epoch     uint32             `json:"epoch"`
	CycleID   ids.ID             `json:"cycle_id"`
	Kind      Kind               `json:"kind"`
	Witnesses []WitnessSignature `json:"witnesses,omitempty"`
	Body      json.RawMessage    `json:"body"`
}

func encodeEvent(evt Event) ([]byte, error) {
	bodyBytes, err := json.Marshal(evt.Body)
	if err != nil {
		return nil, err
	}
	w := wireEvent{
		EventID:   evt.Header.EventID,
		PrevHash:  evt.Header.PrevHash,
		ChainHash: evt.Header.ChainHash,
		Signature: evt.Header.Signature,
		Timestamp: evt.Header.Timestamp,
		ActorID:   evt.Header.ActorID,
		Epoch:     evt.Header.Epoch,
		CycleID:   evt.Header.CycleID,
		Kind:      evt.Header.Kind,
		Witnesses: evt.Header.Witnesses,
		Body:      bodyBytes,
	}
	return json.Marshal(w)
}

func decodeEvent(raw []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(raw, &w); err != nil {
		return Event{}, err
	}
	body, err := decodeBody(w.Kind, w.Body)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Header: Header{
			EventID:   w.EventID,
			PrevHash:  w.PrevHash,
			ChainHash: w.ChainHash,
			Signature: w.Signature,
			Timestamp: w.Timestamp,
			ActorID:   w.ActorID,
			Epoch:     w.Epoch,
			CycleID:   w.CycleID,
			Kind:      w.Kind,
			Witnesses: w.Witnesses,
		},
		Body: body,
	}, nil
}

// decodeBody dispatches on the closed Kind set (event/kind.go) rather than
// an open type registry: the union is fixed by spec §3, so a switch is the
// simplest faithful decoder and a new kind is a compile-time addition here,
// not a runtime registration.
func decodeBody(kind Kind, raw json.RawMessage) (Body, error) {
	var body Body
	switch kind {
	case KindCycleOpened:
		body = new(CycleOpenedBody)
	case KindCycleClosed:
		body = new(CycleClosedBody)
	case KindRollCallCompleted:
		body = new(RollCallCompletedBody)
	case KindAgentUtterance:
		body = new(AgentUtteranceBody)
	case KindMotionProposed:
		body = new(MotionProposedBody)
	case KindVoteCast:
		body = new(VoteCastBody)
	case KindVoteTallied:
		body = new(VoteTalliedBody)
	case KindMotionResolved:
		body = new(MotionResolvedBody)
	case KindDissolutionTriggered:
		body = new(DissolutionTriggeredBody)
	case KindReconsiderMotion:
		body = new(ReconsiderMotionBody)
	case KindDissolveMotion:
		body = new(DissolveMotionBody)
	case KindReformMotion:
		body = new(ReformMotionBody)
	case KindSuspensionBegan:
		body = new(SuspensionBeganBody)
	case KindBreachDeclared:
		body = new(BreachDeclaredBody)
	case KindSuppressionAttempted:
		body = new(SuppressionAttemptedBody)
	case KindBreachResponded:
		body = new(BreachRespondedBody)
	case KindOverrideInvoked:
		body = new(OverrideInvokedBody)
	case KindOverrideConcluded:
		body = new(OverrideConcludedBody)
	case KindPrecedentCited:
		body = new(PrecedentCitedBody)
	case KindPrecedentChallenged:
		body = new(PrecedentChallengedBody)
	case KindCostSnapshotAnnounced:
		body = new(CostSnapshotAnnouncedBody)
	case KindHaltDeclared:
		body = new(HaltDeclaredBody)
	case KindForkDetected:
		body = new(ForkDetectedBody)
	default:
		return nil, fmt.Errorf("event: unknown kind %q in stored event", kind)
	}
	if err := json.Unmarshal(raw, body); err != nil {
		return nil, err
	}
	// Each concrete Body above is registered as a pointer so json.Unmarshal
	// has an addressable target; dereference back to the value receiver
	// the rest of the package (Kind()/Validate()) expects.
	return dereferenceBody(body), nil
}

func dereferenceBody(body Body) Body {
	switch b := body.(type) {
	case *CycleOpenedBody:
		return *b
	case *CycleClosedBody:
		return *b
	case *RollCallCompletedBody:
		return *b
	case *AgentUtteranceBody:
		return *b
	case *MotionProposedBody:
		return *b
	case *VoteCastBody:
		return *b
	case *VoteTalliedBody:
		return *b
	case *MotionResolvedBody:
		return *b
	case *DissolutionTriggeredBody:
		return *b
	case *ReconsiderMotionBody:
		return *b
	case *DissolveMotionBody:
		return *b
	case *ReformMotionBody:
		return *b
	case *SuspensionBeganBody:
		return *b
	case *BreachDeclaredBody:
		return *b
	case *SuppressionAttemptedBody:
		return *b
	case *BreachRespondedBody:
		return *b
	case *OverrideInvokedBody:
		return *b
	case *OverrideConcludedBody:
		return *b
	case *PrecedentCitedBody:
		return *b
	case *PrecedentChallengedBody:
		return *b
	case *CostSnapshotAnnouncedBody:
		return *b
	case *HaltDeclaredBody:
		return *b
	case *ForkDetectedBody:
		return *b
	default:
		return body
	}
}
