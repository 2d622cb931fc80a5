// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	CacheReloads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chainpilot",
		Name:      "cache_reloads_total",
		Help:      "Projection cache reloads by table and result.",
	}, []string{"table", "result"})

	CacheReloadDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "chainpilot",
		Name:      "cache_reload_duration_seconds",
		Help:      "Time spent reloading a projection cache.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"table"})

	OpenViews = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "chainpilot",
		Name:      "open_caches",
		Help:      "Projection caches currently holding a subscription.",
	}, []string{"table"})

	SubscriptionDrops = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chainpilot",
		Name:      "subscription_drops_total",
		Help:      "Dropped notification channels by table and outcome (reconnected|degraded).",
	}, []string{"table", "outcome"})

	SuggestionTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chainpilot",
		Name:      "suggestion_transitions_total",
		Help:      "Suggestion resolutions by decision and result.",
	}, []string{"decision", "result"})

	QuarantinedRows = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chainpilot",
		Name:      "quarantined_rows_total",
		Help:      "Rows dropped at the record store boundary because of an unknown location tag.",
	}, []string{"table"})

	AutomationTriggers = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chainpilot",
		Name:      "automation_triggers_total",
		Help:      "Outbound automation webhook calls by result.",
	}, []string{"result"})

	CircuitState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "chainpilot",
		Name:      "circuit_state",
		Help:      "Circuit breaker state: 0 closed, 1 open, 2 half-open.",
	}, []string{"breaker"})
)

// MustRegister registers every collector with reg.
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		CacheReloads,
		CacheReloadDuration,
		OpenViews,
		SubscriptionDrops,
		SuggestionTransitions,
		QuarantinedRows,
		AutomationTriggers,
		CircuitState,
	)
}
