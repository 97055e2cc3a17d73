// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package witness implements C6's Selection & Attribution: deterministic,
// reproducible witness sampling seeded from the prior event's chain_hash,
// and the collusion-detection machinery that escalates an anomalous
// witness pairing into a PrecedentCited breach.
package witness

import (
	"encoding/binary"

	"github.com/luxfi/conclave/coreerrors"
	"github.com/luxfi/conclave/utils/sampler"
	"github.com/luxfi/conclave/utils/set"
	"github.com/luxfi/ids"
)

// Selector draws witness_count distinct witnesses from a roster,
// deterministically from seed material every replaying reader can
// recompute on its own: the previous event's chain_hash. Two independent
// readers replaying the same log draw the same witnesses, every time.
type Selector struct {
	witnessCount int
}

// NewSelector returns a Selector that draws witnessCount witnesses per
// selection.
func NewSelector(witnessCount int) *Selector {
	return &Selector{witnessCount: witnessCount}
}

// Select draws witnessCount distinct members of roster, seeded from
// prevChainHash. roster order must be stable across calls (callers should
// pass the same slice order every time for the same prevChainHash to
// reproduce the same selection).
func (s *Selector) Select(roster []ids.NodeID, prevChainHash ids.ID) ([]ids.NodeID, error) {
	if s.witnessCount <= 0 {
		return nil, &coreerrors.SchemaViolation{Kind: "witness-select", Detail: "witness_count must be > 0"}
	}
	if len(roster) < s.witnessCount {
		return nil, &coreerrors.SchemaViolation{Kind: "witness-select", Detail: "roster smaller than witness_count"}
	}

	seed := seedFromHash(prevChainHash)
	u := sampler.NewDeterministicUniform(seed)
	if err := u.Initialize(len(roster)); err != nil {
		return nil, err
	}
	indices, ok := u.Sample(s.witnessCount)
	if !ok {
		return nil, &coreerrors.SchemaViolation{Kind: "witness-select", Detail: "sampling failed"}
	}

	seen := set.NewSet[ids.NodeID](s.witnessCount)
	out := make([]ids.NodeID, 0, s.witnessCount)
	for _, idx := range indices {
		member := roster[idx]
		if seen.Contains(member) {
			return nil, &coreerrors.SchemaViolation{Kind: "witness-select", Detail: "sampler returned a duplicate index"}
		}
		seen.Add(member)
		out = append(out, member)
	}
	return out, nil
}

// seedFromHash takes the first 8 bytes of a chain_hash as an int64 seed.
// This is deliberately a narrowing, not a re-hash: the spec's
// reproducibility requirement only needs a fixed function of prevChainHash,
// and narrowing is the simplest one a replaying reader can recompute
// without importing this package's internals.
func seedFromHash(h ids.ID) int64 {
	return int64(binary.BigEndian.Uint64(h[:8]))
}
