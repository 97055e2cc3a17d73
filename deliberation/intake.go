// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package deliberation

import (
	"sync"

	"github.com/luxfi/conclave/coreerrors"
)

// Item is one admitted intake item — a petition or a prior-cycle carryover
// (spec §4.4) — after it has already passed the quarantine boundary (spec
// §6): Text is the structured, size-bounded summary an Archon is allowed to
// see, never raw external input.
type Item struct {
	Source string
	Text   string
}

// IntakeQueue is the bounded admission queue of spec §4.4/§5. Overflow is
// not dropped silently: Enqueue returns a distinguished error so the caller
// can emit a BreachDeclared("intake-overrun") event, matching §5's
// backpressure requirement that queue overrun is an observable breach, not
// a silent drop.
type IntakeQueue struct {
	mu       sync.Mutex
	capacity int
	items    []Item
}

// NewIntakeQueue returns an empty queue bounded at capacity.
func NewIntakeQueue(capacity int) *IntakeQueue {
	return &IntakeQueue{capacity: capacity}
}

// ErrIntakeOverrun is returned by Enqueue when the queue is already at
// capacity.
var ErrIntakeOverrun = &coreerrors.SchemaViolation{Kind: "intake-overrun", Detail: "intake queue is at capacity"}

// Enqueue admits item if the queue has room, or returns ErrIntakeOverrun.
func (q *IntakeQueue) Enqueue(item Item) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) >= q.capacity {
		return ErrIntakeOverrun
	}
	q.items = append(q.items, item)
	return nil
}

// Dequeue removes and returns the oldest admitted item, or false if empty.
func (q *IntakeQueue) Dequeue() (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return Item{}, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}

// Len reports the number of items currently admitted but not yet dequeued.
func (q *IntakeQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
