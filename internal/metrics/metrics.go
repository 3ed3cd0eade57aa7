// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Calculations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_engine_calculations_total",
			Help: "Total number of calculator invocations by calculator and outcome",
		},
		[]string{"calculator", "outcome"},
	)

	WizardUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_engine_wizard_updates_total",
			Help: "Total number of wizard record updates by flow",
		},
		[]string{"flow"},
	)

	ValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_engine_validation_failures_total",
			Help: "Total number of failed step validations by flow and step",
		},
		[]string{"flow", "step"},
	)

	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_engine_submissions_total",
			Help: "Total number of submitted applications by flow and result",
		},
		[]string{"flow", "result"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "loan_engine_wizard_sessions_active",
			Help: "Number of wizard sessions currently held in memory",
		},
	)

	QuoteCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_engine_quote_cache_lookups_total",
			Help: "Total number of quote cache lookups by result",
		},
		[]string{"result"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "loan_engine_http_request_duration_seconds",
			Help: "Duration of API requests in seconds",
		},
		[]string{"route", "status"},
	)
)
