// Package metrics 暴露评估循环的 Prometheus 指标。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EvalCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quorum_eval_cycles_total",
			Help: "Completed evaluation cycles by outcome signal",
		},
		[]string{"symbol", "signal"},
	)

	Abstentions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quorum_analyst_abstentions_total",
			Help: "Analyst abstentions by agent",
		},
		[]string{"symbol", "agent"},
	)

	CycleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quorum_eval_cycle_duration_seconds",
			Help:    "Wall time of a full evaluation cycle",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"symbol"},
	)

	LastConfidence = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "quorum_last_confidence",
			Help: "Confidence of the most recent aggregate decision (0-100)",
		},
		[]string{"symbol"},
	)

	LastConflict = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "quorum_last_conflict_score",
			Help: "Conflict score of the most recent aggregate decision (0-100)",
		},
		[]string{"symbol"},
	)

	DataFetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quorum_data_fetch_errors_total",
			Help: "Upstream market data fetch failures",
		},
		[]string{"symbol", "source"},
	)
)
