// Package metric provides Prometheus instrumentation for the result pipeline
package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all pipeline-level metrics
type Metrics struct {
	// Channel metrics
	PushesTotal    *prometheus.CounterVec
	CoercionErrors *prometheus.CounterVec

	// Dispatch metrics
	DispatchSubmitted *prometheus.CounterVec
	DispatchDelivered *prometheus.CounterVec
	DispatchFailed    *prometheus.CounterVec
	DispatchDepth     prometheus.Gauge

	// Dataset store metrics
	StoreWrites *prometheus.CounterVec
	StoreErrors *prometheus.CounterVec

	// Broadcast observer metrics
	BroadcastClients  prometheus.Gauge
	BroadcastMessages prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all pipeline metrics
func NewMetrics() *Metrics {
	return &Metrics{
		PushesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "resultflow",
				Subsystem: "channels",
				Name:      "pushes_total",
				Help:      "Total number of values pushed, per channel and type",
			},
			[]string{"channel", "type"},
		),

		CoercionErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "resultflow",
				Subsystem: "channels",
				Name:      "coercion_errors_total",
				Help:      "Total number of values rejected by type coercion",
			},
			[]string{"channel", "type"},
		),

		DispatchSubmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "resultflow",
				Subsystem: "dispatch",
				Name:      "submitted_total",
				Help:      "Total number of tasks submitted to the dispatch queue",
			},
			[]string{"channel"},
		),

		DispatchDelivered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "resultflow",
				Subsystem: "dispatch",
				Name:      "delivered_total",
				Help:      "Total number of tasks delivered to host-side sinks",
			},
			[]string{"channel"},
		),

		DispatchFailed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "resultflow",
				Subsystem: "dispatch",
				Name:      "failed_total",
				Help:      "Total number of dispatched tasks that failed host-side",
			},
			[]string{"channel"},
		),

		DispatchDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "resultflow",
				Subsystem: "dispatch",
				Name:      "queue_depth",
				Help:      "Current number of tasks waiting in the dispatch queue",
			},
		),

		StoreWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "resultflow",
				Subsystem: "dataset",
				Name:      "writes_total",
				Help:      "Total number of dataset store writes",
			},
			[]string{"mode"},
		),

		StoreErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "resultflow",
				Subsystem: "dataset",
				Name:      "errors_total",
				Help:      "Total number of dataset store failures",
			},
			[]string{"mode"},
		),

		BroadcastClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "resultflow",
				Subsystem: "broadcast",
				Name:      "clients",
				Help:      "Currently connected broadcast observer clients",
			},
		),

		BroadcastMessages: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "resultflow",
				Subsystem: "broadcast",
				Name:      "messages_total",
				Help:      "Total number of update messages fanned out to observers",
			},
		),
	}
}

// RecordPush increments the push counter for a channel
func (m *Metrics) RecordPush(channel, channelType string) {
	m.PushesTotal.WithLabelValues(channel, channelType).Inc()
}

// RecordCoercionError increments the coercion error counter for a channel
func (m *Metrics) RecordCoercionError(channel, channelType string) {
	m.CoercionErrors.WithLabelValues(channel, channelType).Inc()
}

// RecordDispatchSubmitted increments the submitted task counter
func (m *Metrics) RecordDispatchSubmitted(channel string) {
	m.DispatchSubmitted.WithLabelValues(channel).Inc()
}

// RecordDispatchDelivered increments the delivered task counter
func (m *Metrics) RecordDispatchDelivered(channel string) {
	m.DispatchDelivered.WithLabelValues(channel).Inc()
}

// RecordDispatchFailed increments the failed task counter
func (m *Metrics) RecordDispatchFailed(channel string) {
	m.DispatchFailed.WithLabelValues(channel).Inc()
}

// RecordDispatchDepth updates the queue depth gauge
func (m *Metrics) RecordDispatchDepth(depth int) {
	m.DispatchDepth.Set(float64(depth))
}

// RecordStoreWrite increments the store write counter
func (m *Metrics) RecordStoreWrite(mode string) {
	m.StoreWrites.WithLabelValues(mode).Inc()
}

// RecordStoreError increments the store error counter
func (m *Metrics) RecordStoreError(mode string) {
	m.StoreErrors.WithLabelValues(mode).Inc()
}

// RecordBroadcastClients updates the connected observer gauge
func (m *Metrics) RecordBroadcastClients(count int) {
	m.BroadcastClients.Set(float64(count))
}

// RecordBroadcastMessage increments the fanned-out message counter
func (m *Metrics) RecordBroadcastMessage() {
	m.BroadcastMessages.Inc()
}

// collectors returns every metric for registration
func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.PushesTotal,
		m.CoercionErrors,
		m.DispatchSubmitted,
		m.DispatchDelivered,
		m.DispatchFailed,
		m.DispatchDepth,
		m.StoreWrites,
		m.StoreErrors,
		m.BroadcastClients,
		m.BroadcastMessages,
	}
}
