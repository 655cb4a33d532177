// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides metrics and tracing for the checker service.
//
// # Description
//
// Prometheus metrics cover:
//   - Request counters (by domain, endpoint, status)
//   - Check latency histograms
//   - Check outcomes (equal, not equal, error, type mismatch)
//   - Grammar service failures and parse cache lookups
//
// Tracing is OpenTelemetry with an OTLP/gRPC or stdout exporter.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Metric Definitions
// =============================================================================

// Namespace for all metrics
const metricsNamespace = "nuchem"

// Subsystem for checker metrics
const checkerSubsystem = "checker"

// Metrics holds all Prometheus metrics for the checker service.
//
// # Fields
//
//   - RequestsTotal: Counter of HTTP requests by domain, endpoint and status
//   - CheckDurationSeconds: Histogram of augment + check time
//   - OutcomesTotal: Counter of check results by domain and outcome
//   - ParseErrorsTotal: Counter of grammar service failures by domain
//   - ParseCacheLookupsTotal: Counter of parse cache lookups by result
//   - InFlightChecks: Gauge of checks currently running
type Metrics struct {
	// RequestsTotal counts requests.
	// Labels: domain (chemistry, nuclear), endpoint (check, parse), status (success, error)
	RequestsTotal *prometheus.CounterVec

	// CheckDurationSeconds measures augment + check time, excluding parsing.
	// Labels: domain
	CheckDurationSeconds *prometheus.HistogramVec

	// OutcomesTotal counts check results.
	// Labels: domain, outcome (equal, not_equal, error, type_mismatch)
	OutcomesTotal *prometheus.CounterVec

	// ParseErrorsTotal counts failed calls to the grammar service.
	// Labels: domain
	ParseErrorsTotal *prometheus.CounterVec

	// ParseCacheLookupsTotal counts parse cache lookups.
	// Labels: domain, result (hit, miss)
	ParseCacheLookupsTotal *prometheus.CounterVec

	// InFlightChecks tracks checks currently running.
	// Labels: domain
	InFlightChecks *prometheus.GaugeVec
}

// NewMetrics creates the checker metrics and registers them with reg.
//
// # Description
//
// Pass prometheus.DefaultRegisterer in production. Tests pass a fresh
// prometheus.NewRegistry() so every test gets isolated counters.
//
// # Limitations
//
//   - Panics if called twice with the same registerer (duplicate registration).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: checkerSubsystem,
				Name:      "requests_total",
				Help:      "Total number of requests by domain, endpoint and status",
			},
			[]string{"domain", "endpoint", "status"},
		),

		CheckDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: checkerSubsystem,
				Name:      "check_duration_seconds",
				Help:      "Time spent augmenting and comparing trees in seconds",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"domain"},
		),

		OutcomesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: checkerSubsystem,
				Name:      "outcomes_total",
				Help:      "Total check results by domain and outcome",
			},
			[]string{"domain", "outcome"},
		),

		ParseErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: checkerSubsystem,
				Name:      "parse_errors_total",
				Help:      "Total failed grammar service calls by domain",
			},
			[]string{"domain"},
		),

		ParseCacheLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: checkerSubsystem,
				Name:      "parse_cache_lookups_total",
				Help:      "Total parse cache lookups by domain and result",
			},
			[]string{"domain", "result"},
		),

		InFlightChecks: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: checkerSubsystem,
				Name:      "in_flight_checks",
				Help:      "Number of checks currently running",
			},
			[]string{"domain"},
		),
	}
}

// =============================================================================
// Outcomes
// =============================================================================

// Outcome categorises a check result for metrics.
type Outcome string

const (
	OutcomeEqual        Outcome = "equal"
	OutcomeNotEqual     Outcome = "not_equal"
	OutcomeError        Outcome = "error"
	OutcomeTypeMismatch Outcome = "type_mismatch"
)

// ClassifyOutcome maps response flags to an Outcome. An error wins over a
// type mismatch, which wins over equality.
func ClassifyOutcome(containsError, typeMismatch, isEqual bool) Outcome {
	switch {
	case containsError:
		return OutcomeError
	case typeMismatch:
		return OutcomeTypeMismatch
	case isEqual:
		return OutcomeEqual
	default:
		return OutcomeNotEqual
	}
}

// =============================================================================
// Helper Methods
// =============================================================================

// RecordRequest records a completed request.
func (m *Metrics) RecordRequest(domain, endpoint string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.RequestsTotal.WithLabelValues(domain, endpoint, status).Inc()
}

// RecordCheck records one finished check.
//
// # Inputs
//
//   - domain: chemistry or nuclear.
//   - seconds: Augment + check time in seconds.
//   - outcome: The classified result.
func (m *Metrics) RecordCheck(domain string, seconds float64, outcome Outcome) {
	m.CheckDurationSeconds.WithLabelValues(domain).Observe(seconds)
	m.OutcomesTotal.WithLabelValues(domain, string(outcome)).Inc()
}

// RecordParseError records a failed grammar service call.
func (m *Metrics) RecordParseError(domain string) {
	m.ParseErrorsTotal.WithLabelValues(domain).Inc()
}

// RecordCacheLookup records a parse cache hit or miss.
func (m *Metrics) RecordCacheLookup(domain string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.ParseCacheLookupsTotal.WithLabelValues(domain, result).Inc()
}

// CheckStarted increments the in-flight gauge.
func (m *Metrics) CheckStarted(domain string) {
	m.InFlightChecks.WithLabelValues(domain).Inc()
}

// CheckEnded decrements the in-flight gauge.
func (m *Metrics) CheckEnded(domain string) {
	m.InFlightChecks.WithLabelValues(domain).Dec()
}
