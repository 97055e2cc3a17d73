// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package observer

import (
	"github.com/luxfi/conclave/event"
	"github.com/luxfi/ids"
)

// FindingKind classifies an integrity finding. All findings are advisory:
// an Auditor never halts a chain or rejects an append on its own — see
// the package doc comment.
type FindingKind string

const (
	FindingHashMismatch      FindingKind = "hash-mismatch"
	FindingSignatureInvalid  FindingKind = "actor-signature-invalid"
	FindingWitnessInvalid    FindingKind = "witness-signature-invalid"
	FindingPrevHashDiscontinuity FindingKind = "prev-hash-discontinuity"
)

// Finding is one integrity problem an Auditor surfaced.
type Finding struct {
	EventID ids.ID
	Kind    FindingKind
	Detail  string
}

// Auditor performs read-only integrity checks over a Transcript. It never
// writes to the event log; it can only report what it found, the way the
// teacher's own validator-set sanity checks (e.g. `validators.Connector`
// callbacks) observe without mutating.
type Auditor struct {
	transcript *Transcript
	keys       event.PublicKeyResolver
}

// NewAuditor wires a Transcript and the public-key resolver needed to
// verify actor and witness signatures (typically identity.Gate).
func NewAuditor(transcript *Transcript, keys event.PublicKeyResolver) *Auditor {
	return &Auditor{transcript: transcript, keys: keys}
}

// VerifyChain walks the chain from tip to genesis and checks, for every
// event: (1) its chain_hash recomputes correctly, (2) prev_hash links
// continuously, (3) its actor signature verifies, (4) every embedded
// witness signature verifies. It never stops at the first problem — a
// complete findings list is more useful to an external observer than an
// early return.
func (a *Auditor) VerifyChain(tip ids.ID) ([]Finding, error) {
	chain, err := a.transcript.Walk(tip)
	if err != nil {
		return nil, err
	}

	var findings []Finding
	var prev ids.ID
	for i, evt := range chain {
		if i > 0 && evt.Header.PrevHash != prev {
			findings = append(findings, Finding{
				EventID: evt.Header.EventID, Kind: FindingPrevHashDiscontinuity,
				Detail: "prev_hash does not match the preceding event in causal order",
			})
		}
		prev = evt.Header.ChainHash

		ok, err := event.VerifyChainHash(evt)
		if err != nil {
			return nil, err
		}
		if !ok {
			findings = append(findings, Finding{EventID: evt.Header.EventID, Kind: FindingHashMismatch, Detail: "recomputed chain_hash does not match stored value"})
			continue // a broken hash makes signature verification meaningless for this event
		}

		if a.keys != nil {
			pk, err := a.keys.PublicKey(evt.Header.ActorID, evt.Header.Epoch)
			if err == nil && pk != nil {
				if valid, err := event.VerifyActorSignature(pk, evt); err == nil && !valid {
					findings = append(findings, Finding{EventID: evt.Header.EventID, Kind: FindingSignatureInvalid, Detail: "actor signature does not verify against the resolved public key"})
				}
			}
			if bad, err := event.VerifyWitnessSignatures(a.keys, evt, evt.Header.Epoch); err == nil {
				for _, w := range bad {
					findings = append(findings, Finding{EventID: evt.Header.EventID, Kind: FindingWitnessInvalid, Detail: "witness " + w.String() + " signature does not verify"})
				}
			}
		}
	}
	return findings, nil
}
