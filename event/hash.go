// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package event

import (
	"crypto/sha256"
	"encoding/json"

	"github.com/luxfi/conclave/utils/wrappers"
	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/ids"
)

// canonicalBytes produces a deterministic byte encoding of header fields
// that participate in the chain hash, the body, and prev_hash — fixed field
// order, length-prefixed strings, no reflection. This is the "database-side
// computation" of spec §4.1/§6, generalized from fixed-width packing
// (utils/wrappers.Packer, as the teacher uses for its own wire encodings)
// plus a length-prefixed JSON body blob, since the body is a closed but
// variably-shaped tagged union.
func canonicalBytes(actorID ids.NodeID, epoch uint32, cycleID ids.ID, kind Kind, body Body, prevHash ids.ID, timestamp int64) ([]byte, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	p := wrappers.NewPacker(64 + len(bodyBytes))
	p.PackBytes(actorID[:])
	p.PackInt(epoch)
	p.PackBytes(cycleID[:])
	p.PackBytes([]byte(kind))
	p.PackLong(uint64(timestamp))
	p.PackBytes(prevHash[:])
	p.PackInt(uint32(len(bodyBytes)))
	p.PackBytes(bodyBytes)
	return p.Bytes, nil
}

// computeChainHash implements spec §4.1: chain_hash = hash(header || body ||
// prev_hash). event_id is defined equal to chain_hash: both are
// content-addressed over the same immutable material, and the spec assigns
// them no separate derivation.
func computeChainHash(actorID ids.NodeID, epoch uint32, cycleID ids.ID, kind Kind, body Body, prevHash ids.ID, timestamp int64) (ids.ID, error) {
	raw, err := canonicalBytes(actorID, epoch, cycleID, kind, body, prevHash, timestamp)
	if err != nil {
		return ids.Empty, err
	}
	sum := sha256.Sum256(raw)
	return ids.ID(sum), nil
}

// signChainHash signs chain_hash with the actor's current-epoch BLS key —
// "at the trust boundary", never supplied by the caller.
func signChainHash(sk *bls.SecretKey, chainHash ids.ID) []byte {
	sig := bls.Sign(sk, chainHash[:])
	return bls.SignatureToBytes(sig)
}

// verifySignature verifies a compressed BLS signature over chainHash.
func verifySignature(pk *bls.PublicKey, chainHash ids.ID, sigBytes []byte) (bool, error) {
	sig, err := bls.SignatureFromBytes(sigBytes)
	if err != nil {
		return false, err
	}
	return bls.Verify(pk, sig, chainHash[:]), nil
}

// VerifyChainHash recomputes evt's chain_hash from its header and body and
// reports whether it matches Header.ChainHash and Header.EventID. This is
// the exported half of Store.Append's own hashing — package observer uses
// it to audit events it never wrote itself.
func VerifyChainHash(evt Event) (bool, error) {
	h := evt.Header
	recomputed, err := computeChainHash(h.ActorID, h.Epoch, h.CycleID, h.Kind, evt.Body, h.PrevHash, h.Timestamp.UnixNano())
	if err != nil {
		return false, err
	}
	return recomputed == h.ChainHash && recomputed == h.EventID, nil
}

// VerifyActorSignature verifies evt.Header.Signature was produced by pk
// over evt.Header.ChainHash.
func VerifyActorSignature(pk *bls.PublicKey, evt Event) (bool, error) {
	return verifySignature(pk, evt.Header.ChainHash, evt.Header.Signature)
}

// VerifyWitnessSignatures verifies every witness co-signature embedded in
// evt against resolver, returning the subset of witness ids whose
// signature failed to verify (empty means every witness signature is
// valid).
func VerifyWitnessSignatures(resolver PublicKeyResolver, evt Event, epoch uint32) ([]ids.NodeID, error) {
	var bad []ids.NodeID
	for _, w := range evt.Header.Witnesses {
		pk, err := resolver.PublicKey(w.WitnessID, epoch)
		if err != nil {
			return nil, err
		}
		ok, err := verifySignature(pk, evt.Header.ChainHash, w.Signature)
		if err != nil {
			return nil, err
		}
		if !ok {
			bad = append(bad, w.WitnessID)
		}
	}
	return bad, nil
}
