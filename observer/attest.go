// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package observer

import (
	"crypto/sha256"

	"github.com/luxfi/ids"
)

// Attestation is a compact, externally-verifiable summary of a chain's
// state at a point in time: an external party can compare two
// Attestations without replaying the whole chain, and can always fall
// back to VerifyChain (audit.go) if one looks suspicious.
type Attestation struct {
	ActorID    ids.NodeID
	Tip        ids.ID
	EventCount int
	Digest     ids.ID // content-addressed over every chain_hash in causal order
}

// Attest walks the chain from tip and produces an Attestation. It is
// advisory only — the Digest is a convenience for comparison, not a new
// source of truth; VerifyChain's walk over the same events remains
// authoritative.
func (a *Auditor) Attest(tip ids.ID) (Attestation, error) {
	chain, err := a.transcript.Walk(tip)
	if err != nil {
		return Attestation{}, err
	}

	h := sha256.New()
	for _, evt := range chain {
		h.Write(evt.Header.ChainHash[:])
	}
	var digest ids.ID
	copy(digest[:], h.Sum(nil))

	var actorID ids.NodeID
	if len(chain) > 0 {
		actorID = chain[0].Header.ActorID
	}
	return Attestation{
		ActorID:    actorID,
		Tip:        tip,
		EventCount: len(chain),
		Digest:     digest,
	}, nil
}
