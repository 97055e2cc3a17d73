// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics wires the deliberation core's Prometheus surface. It
// follows the teacher's metrics/metric.go NewAveragerWithErrs idiom:
// registration failures are collected into an Errs and degrade the metric
// to a no-op rather than panicking a constructor.
package metrics

import (
	"github.com/luxfi/conclave/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"
)

// Core aggregates every metric the seven components emit.
type Core struct {
	EventsAppended   *prometheus.CounterVec // by kind
	ChainHalts       prometheus.Counter
	ForksDetected    prometheus.Counter
	MotionsResolved  *prometheus.CounterVec // by outcome: adopted/rejected/tabled
	VotesCast        *prometheus.CounterVec // by choice
	CostComputeUnits *prometheus.GaugeVec   // by cycle
	WitnessPairFreq  prometheus.Histogram
	BreachesOpen     prometheus.Gauge
}

// NewCore registers every collector against reg and returns the aggregate.
// Any individual registration error is accumulated and returned, but every
// field is always non-nil: on error the field is backed by a fresh,
// unregistered collector so callers never need a nil check.
func NewCore(reg prometheus.Registerer) (*Core, error) {
	errs := &wrappers.Errs{}

	c := &Core{
		EventsAppended: mustVec(reg, errs, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "conclave_events_appended_total",
			Help: "Events appended to the canonical log, by kind.",
		}, []string{"kind"})),
		ChainHalts: mustCounter(reg, errs, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "conclave_chain_halts_total",
			Help: "Number of times a chain transitioned into halt.",
		})),
		ForksDetected: mustCounter(reg, errs, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "conclave_forks_detected_total",
			Help: "Number of ForkDetected events emitted.",
		})),
		MotionsResolved: mustVec(reg, errs, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "conclave_motions_resolved_total",
			Help: "Motions resolved, by outcome.",
		}, []string{"outcome"})),
		VotesCast: mustVec(reg, errs, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "conclave_votes_cast_total",
			Help: "Votes cast, by choice.",
		}, []string{"choice"})),
		CostComputeUnits: mustGaugeVec(reg, errs, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "conclave_cost_compute_units",
			Help: "Compute units announced in the most recent CostSnapshotAnnounced per cycle.",
		}, []string{"cycle_id"})),
		WitnessPairFreq: mustHistogram(reg, errs, prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "conclave_witness_pair_frequency",
			Help:    "Empirical frequency of a witness pair being selected together, for collusion detection.",
			Buckets: prometheus.LinearBuckets(0, 0.05, 20),
		})),
		BreachesOpen: mustGauge(reg, errs, prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "conclave_breaches_open",
			Help: "Count of BreachDeclared events without a matching BreachResponded, carried forward across cycles.",
		})),
	}

	if errs.Errored() {
		return c, errs.Err()
	}
	return c, nil
}

func mustCounter(reg prometheus.Registerer, errs *wrappers.Errs, c prometheus.Counter) prometheus.Counter {
	if err := reg.Register(c); err != nil {
		errs.Add(err)
	}
	return c
}

func mustGauge(reg prometheus.Registerer, errs *wrappers.Errs, g prometheus.Gauge) prometheus.Gauge {
	if err := reg.Register(g); err != nil {
		errs.Add(err)
	}
	return g
}

func mustVec(reg prometheus.Registerer, errs *wrappers.Errs, v *prometheus.CounterVec) *prometheus.CounterVec {
	if err := reg.Register(v); err != nil {
		errs.Add(err)
	}
	return v
}

func mustGaugeVec(reg prometheus.Registerer, errs *wrappers.Errs, v *prometheus.GaugeVec) *prometheus.GaugeVec {
	if err := reg.Register(v); err != nil {
		errs.Add(err)
	}
	return v
}

func mustHistogram(reg prometheus.Registerer, errs *wrappers.Errs, h prometheus.Histogram) prometheus.Histogram {
	if err := reg.Register(h); err != nil {
		errs.Add(err)
	}
	return h
}
