package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the search engine.
var (
	fetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookscout_engine_fetches_total",
		Help: "Total page fetches by outcome (ok, empty, failed, stale)",
	}, []string{"outcome"})

	fetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bookscout_engine_fetch_duration_seconds",
		Help:    "Time from issuing a page fetch to its response",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	pageRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookscout_engine_page_requests_total",
		Help: "Total navigation requests by result (issued, pending, ignored)",
	}, []string{"result"})

	queryChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookscout_engine_query_changes_total",
		Help: "Total applied query changes by kind (search, idle)",
	}, []string{"kind"})
)
