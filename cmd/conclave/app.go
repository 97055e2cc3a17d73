// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command conclave is the operator CLI for the deliberation core: it
// wires every package in this module into a single running process and
// exposes the ritual operations as subcommands, matching the way the
// teacher's own cmd/consensus wraps its library packages behind a single
// binary rather than scattering one main() per concern.
package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/luxfi/conclave/config"
	"github.com/luxfi/conclave/deliberation"
	"github.com/luxfi/conclave/event"
	"github.com/luxfi/conclave/halt"
	"github.com/luxfi/conclave/identity"
	conclavelog "github.com/luxfi/conclave/log"
	"github.com/luxfi/conclave/metrics"
	"github.com/luxfi/conclave/observer"
	"github.com/luxfi/conclave/ritual"
	"github.com/luxfi/conclave/witness"
	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/ids"
	"github.com/prometheus/client_golang/prometheus"
)

// App holds every wired component for one process lifetime. Persistence
// is memdb-backed and therefore process-local: the retrieved corpus
// ships no concrete on-disk github.com/luxfi/database.Database
// implementation (only database/memdb and database/manager, a backend
// selector over implementations this repo never got one of), so STORE_DSN
// is read by config.FromEnv, with no validation of its value, and selects
// no durable backend. See DESIGN.md's cmd/conclave section. Everything
// above the storage line — signing, witnessing, rituals, audit — is
// fully wired and durable for the life of this process.
type App struct {
	cfg       config.Parameters
	log       conclavelog.Logger
	detector  *halt.Detector
	gate      *identity.Gate
	store     *event.Store
	metrics   *metrics.Core
	selector  *witness.Selector
	pairFreq  *witness.PairFrequency
	precedent *witness.PrecedentTracker
	now       func() time.Time

	rosterMu sync.Mutex
	roster   []ids.NodeID

	sessionMu sync.Mutex
	session   *Session
}

// Session is the live ritual wiring for one opened cycle. A new App has
// no Session until "cycle open" runs; "cycle close" (or a dissolution
// reaching DISSOLVED) ends it.
type Session struct {
	CycleID      ids.ID
	Pipeline     *deliberation.Pipeline
	Boundary     *ritual.CycleBoundary
	Continuation *ritual.ContinuationVote
	Dissolution  *ritual.DissolutionDeliberation
	Breach       *ritual.BreachLedger
	Override     *ritual.Override
	Cessation    *ritual.Cessation
}

// ledgerActor is the reserved identity the precedent-citation chain is
// appended under (see witness.PrecedentTracker's doc comment). The zero
// value is used deliberately: it is never a value ids.NodeIDFromString
// produces for an operator-supplied roster entry in practice, and unlike
// a hand-picked non-zero constant it needs no fabricated encoding to
// construct correctly.
var ledgerActor ids.NodeID

// NewApp constructs every wired component for one process. It registers
// a signing key for the internal precedent ledger identity immediately;
// callers register keys for real operator/witness identities via
// RegisterActor before issuing any ritual command that touches them.
func NewApp(cfg config.Parameters, logger conclavelog.Logger) (*App, error) {
	m, err := metrics.NewCore(prometheus.NewRegistry())
	if err != nil {
		return nil, fmt.Errorf("constructing metrics core: %w", err)
	}

	detector := halt.NewDetector()
	gate := identity.NewGate()

	ledgerKey, err := bls.NewSecretKey()
	if err != nil {
		return nil, fmt.Errorf("generating precedent-ledger signing key: %w", err)
	}
	gate.RegisterKey(ledgerActor, ledgerKey)

	app := &App{
		cfg:      cfg,
		log:      logger,
		detector: detector,
		gate:     gate,
		metrics:  m,
		now:      func() time.Time { return time.Now().UTC() },
	}

	selector := witness.NewSelector(cfg.WitnessMin)
	pairFreq := witness.NewPairFrequency()
	precedent := witness.NewPrecedentTracker(nil, pairFreq, witness.CollusionThreshold, m, ledgerActor)
	collector := witness.NewCollector(selector, app.Roster, gate, app.epochFor, detector, precedent)

	store := event.NewStore(memdb.New(), logger, detector, gate, event.SystemTimeAuthority{}, collector, m)
	precedent.SetStore(store)

	app.store = store
	app.selector = selector
	app.pairFreq = pairFreq
	app.precedent = precedent

	watchdog := halt.NewWatchdog(detector, func(actorID ids.NodeID, detail string) {
		reason := fmt.Sprintf("dual-channel halt mismatch for actor %s: %s", actorID, detail)
		if _, err := store.ReportFork(context.Background(), ids.Empty, ids.Empty, reason); err != nil {
			logger.Warn("failed to report dual-channel halt mismatch", "actor", actorID.String(), "error", err.Error())
		}
	})
	go watchdog.Run(context.Background())

	return app, nil
}

// RegisterActor adds actorID to the witness-eligible roster and registers
// a freshly generated signing key for it, then acquires its identity
// lease. Used by the demo scenario and by any subcommand that needs a
// fresh participant rather than a pre-existing one.
func (a *App) RegisterActor(actorID ids.NodeID) (identity.Lease, error) {
	sk, err := bls.NewSecretKey()
	if err != nil {
		return identity.Lease{}, err
	}
	a.gate.RegisterKey(actorID, sk)

	a.rosterMu.Lock()
	a.roster = append(a.roster, actorID)
	a.rosterMu.Unlock()

	return a.gate.Acquire(actorID, a.cfg.LeaseTTL, a.now())
}

// Roster returns the current witness-eligible pool. Passed to
// witness.NewCollector as its roster accessor.
func (a *App) Roster() []ids.NodeID {
	a.rosterMu.Lock()
	defer a.rosterMu.Unlock()
	out := make([]ids.NodeID, len(a.roster))
	copy(out, a.roster)
	return out
}

func (a *App) epochFor(actorID ids.NodeID) uint32 {
	epoch, _, err := a.gate.CurrentEpoch(actorID)
	if err != nil {
		return 0
	}
	return epoch
}

// OpenCycle starts a new Session: a Pipeline and the six ritual wrappers
// layered over it, all sharing this App's Store. Only one Session is
// live at a time — this CLI models a single conclave's sequential log,
// not a multi-tenant server.
func (a *App) OpenCycle(cycleID ids.ID) *Session {
	pipeline := deliberation.NewPipeline(a.store, cycleID, a.cfg.IntakeQueueCapacity)
	breach := ritual.NewBreachLedger(a.store, nil)
	override := ritual.NewOverride(a.store)
	s := &Session{
		CycleID:      cycleID,
		Pipeline:     pipeline,
		Boundary:     ritual.NewCycleBoundary(a.store, cycleID),
		Continuation: ritual.NewContinuationVote(pipeline),
		Dissolution:  ritual.NewDissolutionDeliberation(a.store),
		Breach:       breach,
		Override:     override,
		Cessation:    ritual.NewCessation(a.store, a.detector),
	}
	a.sessionMu.Lock()
	a.session = s
	a.sessionMu.Unlock()

	monitor := ritual.NewOverrideMonitor(override, breach, a.store, a.now, 0)
	go monitor.Run(context.Background(), a.epochFor)

	return s
}

// CurrentSession returns the live Session, or nil if no cycle is open.
func (a *App) CurrentSession() *Session {
	a.sessionMu.Lock()
	defer a.sessionMu.Unlock()
	return a.session
}

// Auditor builds a read-only observer.Auditor over actorID's chain. The
// identity gate doubles as the event.PublicKeyResolver observer.Auditor
// needs, the same way it already serves as event.SigningKeys for Store.
func (a *App) Auditor(actorID ids.NodeID) *observer.Auditor {
	transcript := observer.NewTranscript(a.store, actorID)
	return observer.NewAuditor(transcript, a.gate)
}
