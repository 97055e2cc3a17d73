// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package event implements the Canonical State & Hash Service (spec §4.1):
// the append-only event store, its content-addressed hash chain, and the
// signature trust boundary. It is the sole writer interface in the core —
// no other package computes a chain_hash or a signature.
package event

import (
	"time"

	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/ids"
)

// WitnessSignature is one (witness_id, signature) pair embedded in an event
// at append time (spec §3, §4.6).
type WitnessSignature struct {
	WitnessID ids.NodeID
	Signature []byte // compressed BLS signature over the event's chain_hash
}

// Header carries everything about an event except its kind-specific body.
// chain_hash and signature are never caller-supplied: Store.Append computes
// both inside the trust boundary (spec §4.1).
type Header struct {
	EventID   ids.ID // content-addressed; equal to ChainHash (see hash.go)
	PrevHash  ids.ID // parent in actor_id's identity chain; ids.Empty for the first event
	ChainHash ids.ID
	Signature []byte // compressed BLS signature over ChainHash, by ActorID's key
	Timestamp time.Time
	ActorID   ids.NodeID
	Epoch     uint32 // the identity epoch this event was signed under (spec §3 Agent identity)
	CycleID   ids.ID
	Kind      Kind
	Witnesses []WitnessSignature
}

// Event is the atomic, immutable unit of the log (spec §3).
type Event struct {
	Header Header
	Body   Body
}

// VerifyKindMatch checks that Header.Kind agrees with Body.Kind(), which
// Store.Append enforces before anything is written.
func (e Event) VerifyKindMatch() bool {
	return e.Body != nil && e.Header.Kind == e.Body.Kind()
}

// PublicKeyResolver resolves an actor's current BLS public key, used both
// to verify an actor's own signature and to verify witness signatures.
// Implementations typically read from the identity gate (package identity),
// which is why this interface lives in event rather than depending on it.
type PublicKeyResolver interface {
	PublicKey(actorID ids.NodeID, epoch uint32) (*bls.PublicKey, error)
}
