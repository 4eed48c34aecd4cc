package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EstimateRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estimate_runs_total",
			Help: "Total number of estimate pipeline runs by outcome",
		},
		[]string{"outcome"},
	)

	ExtractionStrategyUsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estimate_extraction_strategy_total",
			Help: "Successful text extractions by format and strategy",
		},
		[]string{"format", "strategy"},
	)

	CandidatesMatched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "estimate_candidates_matched_total",
			Help: "Candidates that matched a catalog entry",
		},
	)

	CandidatesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estimate_candidates_dropped_total",
			Help: "Candidates dropped by the matcher",
		},
		[]string{"reason"},
	)

	EstimateDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "estimate_duration_seconds",
			Help: "Duration of a full estimate run in seconds",
		},
	)

	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estimate_deliveries_total",
			Help: "Report deliveries by result",
		},
		[]string{"result"},
	)
)
