// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package halt

import (
	"context"
	"testing"
	"time"

	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"
)

func TestNotifierBroadcastReachesSubscriber(t *testing.T) {
	require := require.New(t)
	n := NewNotifier()
	ch, unsubscribe := n.Subscribe()
	defer unsubscribe()

	evt := HaltEvent{Scope: ScopeGlobal, Reason: "drill", DeclaredBy: "test", DeclaredAt: time.Now()}
	n.Broadcast(evt)

	select {
	case got := <-ch:
		require.Equal(evt.Reason, got.Reason)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
	}
}

func TestNotifierDropsRatherThanBlocksOnFullSubscriber(t *testing.T) {
	n := NewNotifier()
	_, unsubscribe := n.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			n.Broadcast(HaltEvent{Scope: ScopeGlobal, Reason: "flood"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a full subscriber channel")
	}
}

func TestWatchdogDetectsMismatch(t *testing.T) {
	require := require.New(t)
	d := NewDetector()
	actor := ids.GenerateTestNodeID()

	var mismatchedActor ids.NodeID
	mismatched := make(chan struct{}, 1)
	w := NewWatchdog(d, func(a ids.NodeID, detail string) {
		mismatchedActor = a
		mismatched <- struct{}{}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// Broadcast a halt notification without setting the underlying flag —
	// simulating a compromised write path that suppressed the shared-state
	// channel while the notification channel still fired.
	d.Notifications().Broadcast(HaltEvent{Scope: ScopeActor, ActorID: actor, Reason: "suppressed"})

	select {
	case <-mismatched:
		require.Equal(actor, mismatchedActor)
	case <-time.After(time.Second):
		t.Fatal("watchdog did not detect mismatch")
	}
}

func TestWatchdogNoMismatchWhenFlagAgrees(t *testing.T) {
	d := NewDetector()
	actor := ids.GenerateTestNodeID()

	mismatched := make(chan struct{}, 1)
	w := NewWatchdog(d, func(ids.NodeID, string) { mismatched <- struct{}{} })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	d.DeclareActor(actor, "real fork", "c3", time.Now())

	select {
	case <-mismatched:
		t.Fatal("watchdog falsely reported a mismatch for an agreeing flag")
	case <-time.After(200 * time.Millisecond):
	}
}
