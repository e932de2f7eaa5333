// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SwipesTotal counts recorded swipes by direction and insert outcome.
	SwipesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "buddyup_swipes_total",
		Help: "Swipes recorded by direction and outcome (inserted, duplicate, failed)",
	}, []string{"direction", "outcome"})

	// MatchesTotal counts match reconciliations by how the row was obtained.
	MatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "buddyup_matches_total",
		Help: "Match reconciliations by result (created, reused, raced)",
	}, []string{"result"})

	DeckBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "buddyup_deck_build_duration_seconds",
		Help:    "Time to build a ranked discovery deck",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~2s
	})

	DeckSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "buddyup_deck_size",
		Help:    "Number of candidates returned per deck",
		Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
	})

	// DegradedLookups counts read-side lookups that fell back to empty data.
	DegradedLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "buddyup_degraded_lookups_total",
		Help: "Read-side lookups degraded to empty results",
	}, []string{"lookup"})

	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "buddyup_rate_limited_total",
		Help: "Admission-control rejections by action class",
	}, []string{"action"})
)
