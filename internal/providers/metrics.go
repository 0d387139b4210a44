// Package providers – Prometheus instrumentation
//
// Counters here track outbound provider traffic with bounded cardinality:
// provider name and a coarse outcome label (ok, error, timeout). Cache hits
// are counted separately so dashboards can show the live-call savings.
package providers

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// providerReqs counts outbound provider calls by adapter and outcome.
	providerReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_requests_total",
			Help: "Total number of outbound provider search calls.",
		},
		[]string{"provider", "outcome"},
	)

	// providerCacheHits counts requests answered from the response cache.
	providerCacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_cache_hits_total",
			Help: "Provider requests served from the response cache.",
		},
		[]string{"provider"},
	)
)

func init() {
	prometheus.MustRegister(providerReqs, providerCacheHits)
}

// observeCall records one outbound call outcome for a provider.
func observeCall(provider string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded):
		outcome = "timeout"
	default:
		outcome = "error"
	}
	providerReqs.WithLabelValues(provider, outcome).Inc()
}
