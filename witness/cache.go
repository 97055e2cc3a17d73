// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package witness

import (
	"crypto/sha256"
	"sync"

	"github.com/luxfi/conclave/utils"
	"github.com/luxfi/ids"
)

// PairFrequency tracks how often each unordered pair of witnesses has
// co-witnessed recently, reusing utils.Bag the way the teacher reuses it
// for vote/poll tallies — here the "vote" is a pairing, not a choice.
// A pair that recurs far more than chance predicts is the collusion
// signal spec §4.6 asks for.
type PairFrequency struct {
	mu  sync.Mutex
	bag *utils.Bag
}

// NewPairFrequency returns an empty tracker.
func NewPairFrequency() *PairFrequency {
	return &PairFrequency{bag: utils.NewBag()}
}

// Observe records every unordered pair present in witnesses.
func (p *PairFrequency) Observe(witnesses []ids.NodeID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := 0; i < len(witnesses); i++ {
		for j := i + 1; j < len(witnesses); j++ {
			p.bag.Add(pairKey(witnesses[i], witnesses[j]))
		}
	}
}

// Frequency returns how many times a and b have co-witnessed.
func (p *PairFrequency) Frequency(a, b ids.NodeID) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bag.Count(pairKey(a, b))
}

// pairKey derives a content-addressed, order-independent id for an
// unordered pair of node ids, the same content-addressing discipline
// event/hash.go uses for chain_hash.
func pairKey(a, b ids.NodeID) ids.ID {
	if string(a[:]) > string(b[:]) {
		a, b = b, a
	}
	buf := make([]byte, 0, len(a)+len(b))
	buf = append(buf, a[:]...)
	buf = append(buf, b[:]...)
	return ids.ID(sha256.Sum256(buf))
}
