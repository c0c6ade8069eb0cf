// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// TurnsTotal tracks completed chat turns by outcome.
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_turns_total",
			Help: "Total chat turns processed",
		},
		[]string{"outcome"},
	)

	// MessagesPersisted tracks messages written to the store.
	MessagesPersisted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_persisted_total",
			Help: "Total messages persisted to the store",
		},
		[]string{"role"},
	)

	// PersistenceFailures tracks swallowed store failures on the turn path.
	PersistenceFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_persistence_failures_total",
			Help: "Store failures swallowed on the turn path",
		},
		[]string{"role"},
	)

	// LLMStreamDuration tracks generation streaming duration.
	LLMStreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_stream_duration_seconds",
			Help:    "LLM streaming response duration",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 45, 60, 90, 120},
		},
		[]string{"provider", "status"},
	)

	// StreamConnectionsActive tracks in-flight streamed turn responses.
	StreamConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_stream_connections_active",
			Help: "Number of in-flight streamed turn responses",
		},
	)

	// ConversationsTotal tracks conversations created by the resolver.
	ConversationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_conversations_total",
			Help: "Total conversations created",
		},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordLLMStream records metrics for one generation stream.
func RecordLLMStream(provider, status string, duration float64) {
	LLMStreamDuration.WithLabelValues(provider, status).Observe(duration)
}

// IncrementStreamConnections increments the active stream count.
func IncrementStreamConnections() {
	StreamConnectionsActive.Inc()
}

// DecrementStreamConnections decrements the active stream count.
func DecrementStreamConnections() {
	StreamConnectionsActive.Dec()
}
