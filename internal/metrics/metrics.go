// Package metrics provides Prometheus metrics for article fetching.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"WikiFetch/internal/broadcast"
)

// Fetch sources.
const (
	SourceNetwork = "network"
	SourceCache   = "cache"
)

var (
	// FetchTotal counts resolved fetches by outcome kind and source.
	FetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wikifetch",
			Name:      "fetch_total",
			Help:      "Total number of resolved article fetches",
		},
		[]string{"outcome", "source"},
	)

	// FetchDuration measures fetch duration until resolution.
	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wikifetch",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of article fetches in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	// BroadcastTotal counts events delivered to the metrics subscriber.
	BroadcastTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wikifetch",
			Name:      "broadcast_total",
			Help:      "Total number of completion events observed on the bus",
		},
		[]string{"site"},
	)

	// SearchTotal counts search requests by outcome.
	SearchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wikifetch",
			Name:      "search_total",
			Help:      "Total number of search requests",
		},
		[]string{"outcome"},
	)

	// StoreErrorsTotal counts failed store operations seen by the pipeline.
	StoreErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wikifetch",
			Name:      "store_errors_total",
			Help:      "Total number of failed article store operations",
		},
		[]string{"op"},
	)
)

// Store operations.
const (
	OpLookup = "lookup"
	OpWrite  = "write"
)

// RecordFetch records a resolved fetch.
func RecordFetch(outcome, source string, seconds float64) {
	FetchTotal.WithLabelValues(outcome, source).Inc()
	FetchDuration.WithLabelValues(source).Observe(seconds)
}

// RecordSearch records a finished search.
func RecordSearch(outcome string) {
	SearchTotal.WithLabelValues(outcome).Inc()
}

// RecordStoreError records a failed store operation.
func RecordStoreError(op string) {
	StoreErrorsTotal.WithLabelValues(op).Inc()
}

// Subscribe counts article.fetched events until the subscription is removed.
func Subscribe(bus *broadcast.Bus) *broadcast.Subscription {
	return bus.Subscribe(broadcast.ArticleFetchedEvent, func(_ context.Context, evt broadcast.Event) {
		BroadcastTotal.WithLabelValues(evt.Title.Site).Inc()
	})
}
