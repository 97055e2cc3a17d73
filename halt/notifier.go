// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package halt

import (
	"context"
	"sync"
	"time"

	"github.com/luxfi/ids"
)

// Scope distinguishes a global halt from a halt scoped to one actor_id.
type Scope string

const (
	ScopeGlobal Scope = "global"
	ScopeActor  Scope = "actor"
)

// HaltEvent is broadcast on the notification channel the instant a Flag is
// set — the second of the spec's two independent propagation channels
// (spec §4.3: "shared state and direct notification").
type HaltEvent struct {
	Scope      Scope
	ActorID    ids.NodeID
	Reason     string
	DeclaredBy string
	DeclaredAt time.Time
}

// Notifier is a single-writer, multi-subscriber broadcast of HaltEvents.
// Generalized from networking/handler/notifier.go's NotificationForwarder:
// that type forwards one upstream subscription to one downstream Notify
// call; here one upstream Broadcast fans out to any number of
// subscriber channels, since every write-path goroutine in the core needs
// its own independent view of the stream.
type Notifier struct {
	mu          sync.Mutex
	subscribers map[int]chan HaltEvent
	nextID      int
}

// NewNotifier returns an empty Notifier.
func NewNotifier() *Notifier {
	return &Notifier{subscribers: make(map[int]chan HaltEvent)}
}

// Subscribe registers a new subscriber and returns its channel plus an
// unsubscribe function. The channel is buffered so Broadcast never blocks
// on a slow subscriber; a subscriber whose buffer is full misses the new
// event rather than stalling the halt path — a missed notification
// is recoverable via the shared Flag read the subscriber also performs
// (dual-channel design), but a blocked halt broadcast is not.
func (n *Notifier) Subscribe() (<-chan HaltEvent, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	ch := make(chan HaltEvent, 8)
	n.subscribers[id] = ch

	unsubscribe := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if c, ok := n.subscribers[id]; ok {
			delete(n.subscribers, id)
			close(c)
		}
	}
	return ch, unsubscribe
}

// Broadcast fans evt out to every current subscriber, dropping the event
// for any subscriber whose buffer is full rather than blocking.
func (n *Notifier) Broadcast(evt HaltEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subscribers {
		select {
		case ch <- evt:
		default:
		}
	}
}

// MismatchHandler is invoked when the Watchdog observes the shared Flag and
// the notification stream disagree — itself a ForkDetected condition (spec
// §4.3). It lives in package halt only as a callback: emitting the actual
// ForkDetected event requires event.Store, which must not import halt (halt
// is event.Store's HaltChecker), so the caller that wires both together
// supplies this.
type MismatchHandler func(actorID ids.NodeID, detail string)

// Watchdog cross-checks the notification channel against the shared Flag
// state on every event it observes, so that a notification the Flag does
// not confirm is reported. It runs no periodic check of its own: a halt
// whose notification never arrives is not observed by the Watchdog.
type Watchdog struct {
	detector *Detector
	onMismatch MismatchHandler
}

// NewWatchdog returns a Watchdog over detector that reports disagreement to
// onMismatch.
func NewWatchdog(detector *Detector, onMismatch MismatchHandler) *Watchdog {
	return &Watchdog{detector: detector, onMismatch: onMismatch}
}

// Run subscribes to the detector's notification stream and blocks until ctx
// is cancelled, verifying on every received HaltEvent that the
// corresponding Flag agrees it is set. A HaltEvent with no matching Flag
// state can only happen if something cleared the flag between the
// broadcast and this check, which is impossible under the sole-exit-via-
// ReformMotion discipline within one process — so observing it is itself
// evidence of a fork or a compromised write path.
func (w *Watchdog) Run(ctx context.Context) {
	ch, unsubscribe := w.detector.Notifications().Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			w.verify(evt)
		}
	}
}

func (w *Watchdog) verify(evt HaltEvent) {
	var halted bool
	switch evt.Scope {
	case ScopeGlobal:
		halted = w.detector.global.Halted()
	case ScopeActor:
		halted = w.detector.flagFor(evt.ActorID).Halted()
	}
	if !halted {
		w.onMismatch(evt.ActorID, "notification channel reported halt but shared flag disagrees")
	}
}
