// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package metrics exposes Prometheus instruments for validation runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/indication"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/rules"
)

const namespace = "x509_trust_validator"

// Recorder records validation outcomes. A nil *Recorder records nothing.
//
// Thread Safety: Safe for concurrent use; the underlying collectors are.
type Recorder struct {
	// tokens counts final token verdicts.
	// Labels: context (signature, timestamp, certificate), indication, sub_indication
	tokens *prometheus.CounterVec

	// pastValidations counts past validation searches.
	// Labels: context, recovered (true, false)
	pastValidations *prometheus.CounterVec

	// pastIterations tracks how many control times a search evaluated.
	pastIterations prometheus.Histogram

	// runDuration tracks the wall time of a complete run.
	// Buckets: 1ms to ~4s
	runDuration prometheus.Histogram
}

// NewRecorder registers the validation instruments with reg.
// A nil reg registers with [prometheus.DefaultRegisterer].
func NewRecorder(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Recorder{
		tokens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tokens_total",
				Help:      "Validated tokens grouped by context and final indication",
			},
			[]string{"context", "indication", "sub_indication"},
		),
		pastValidations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "past_validations_total",
				Help:      "Past validation searches grouped by context and whether they recovered a verdict",
			},
			[]string{"context", "recovered"},
		),
		pastIterations: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "past_validation_iterations",
				Help:      "Control times evaluated per past validation search",
				Buckets:   []float64{1, 2, 3, 4, 6, 8, 12, 16},
			},
		),
		runDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of complete validation runs in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
			},
		),
	}
}

// ObserveToken counts one final token verdict.
func (r *Recorder) ObserveToken(ctx rules.Context, ind indication.Indication, sub indication.SubIndication) {
	if r == nil {
		return
	}
	r.tokens.WithLabelValues(string(ctx), string(ind), string(sub)).Inc()
}

// ObservePastValidation records one past validation search.
func (r *Recorder) ObservePastValidation(ctx rules.Context, iterations int, recovered bool) {
	if r == nil {
		return
	}
	label := "false"
	if recovered {
		label = "true"
	}
	r.pastValidations.WithLabelValues(string(ctx), label).Inc()
	r.pastIterations.Observe(float64(iterations))
}

// ObserveRun records the duration of a run.
func (r *Recorder) ObserveRun(d time.Duration) {
	if r == nil {
		return
	}
	r.runDuration.Observe(d.Seconds())
}
