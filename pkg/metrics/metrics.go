// Package metrics exposes the Prometheus collectors for the digital twin
// runtime: registry size, in-flight ask pressure, ask latency, and
// managed-subscribe topic count.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RegistryRecords tracks the number of endpoint access records currently stored.
	RegistryRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "twin_registry_records",
		Help: "Number of endpoint access records currently stored in the registry.",
	})

	// AsksInFlight tracks the number of outstanding (unanswered) asks.
	AsksInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "twin_asks_in_flight",
		Help: "Number of asks awaiting an answer or timeout.",
	})

	// AskOutcomes counts asks by terminal outcome.
	AskOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "twin_ask_outcomes_total",
		Help: "Total asks by terminal outcome (answered, timeout, transport_error, discarded_late_answer).",
	}, []string{"outcome"})

	// AskLatency tracks the time from dispatch to terminal outcome.
	AskLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "twin_ask_latency_seconds",
		Help:    "Latency from Ask dispatch to answer/timeout/transport-error.",
		Buckets: prometheus.DefBuckets,
	})

	// GraphOperations counts graph facade calls by operation and outcome.
	GraphOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "twin_graph_operations_total",
		Help: "Total graph facade calls by operation kind and outcome.",
	}, []string{"operation", "outcome"})

	// ManagedSubscribeTopics tracks live managed-subscribe topics.
	ManagedSubscribeTopics = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "twin_managed_subscribe_topics",
		Help: "Number of managed-subscribe topics currently tracked by the bridge.",
	})
)

// NewServer returns an http.Server exposing /metrics on a dedicated
// listener, separate from the main RPC transport.
func NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}
}
