// Package metrics holds the Prometheus collectors of a client instance.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "gridlink"

// Outcomes of a resolved invocation.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
)

type Metrics struct {
	ConnectionsActive  prometheus.Gauge
	ConnectionsOpened  prometheus.Counter
	ConnectionsClosed  *prometheus.CounterVec
	ConnectAttempts    *prometheus.CounterVec
	AuthFailures       *prometheus.CounterVec
	HeartbeatTimeouts  prometheus.Counter
	ClusterReconnects  prometheus.Counter
	InvocationsPending prometheus.Gauge
	InvocationsTotal   *prometheus.CounterVec
	InvocationRetries  prometheus.Counter
	InvocationDuration prometheus.Histogram
	EventsDispatched   prometheus.Counter
	EventsUnhandled    prometheus.Counter
}

// New creates the collectors and registers them with reg. A nil registerer
// leaves them unregistered, which is what tests and embedded clients that do
// not export metrics want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "connections",
			Name:      "active",
			Help:      "Number of authenticated member connections.",
		}),
		ConnectionsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connections",
			Name:      "opened_total",
			Help:      "Number of member connections that completed authentication.",
		}),
		ConnectionsClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connections",
			Name:      "closed_total",
			Help:      "Number of closed member connections by reason.",
		}, []string{"reason"}),
		ConnectAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connections",
			Name:      "attempts_total",
			Help:      "Number of connection attempts by result.",
		}, []string{"result"}),
		AuthFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connections",
			Name:      "auth_failures_total",
			Help:      "Number of rejected authentication attempts by status.",
		}, []string{"status"}),
		HeartbeatTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connections",
			Name:      "heartbeat_timeouts_total",
			Help:      "Number of connections closed because the member went silent.",
		}),
		ClusterReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cluster",
			Name:      "reconnects_total",
			Help:      "Number of times the client lost and re-established the cluster connection.",
		}),
		InvocationsPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "invocations",
			Name:      "pending",
			Help:      "Number of invocations waiting for a response.",
		}),
		InvocationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "invocations",
			Name:      "total",
			Help:      "Number of resolved invocations by outcome.",
		}, []string{"outcome"}),
		InvocationRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "invocations",
			Name:      "retries_total",
			Help:      "Number of times a request was resent.",
		}),
		InvocationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "invocations",
			Name:      "duration_seconds",
			Help:      "Time from the first send to the resolution of an invocation.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 16),
		}),
		EventsDispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "dispatched_total",
			Help:      "Number of events passed to subscription handlers.",
		}),
		EventsUnhandled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "unhandled_total",
			Help:      "Number of events dropped because no subscription was registered.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.collectors()...)
	}

	return m
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ConnectionsActive,
		m.ConnectionsOpened,
		m.ConnectionsClosed,
		m.ConnectAttempts,
		m.AuthFailures,
		m.HeartbeatTimeouts,
		m.ClusterReconnects,
		m.InvocationsPending,
		m.InvocationsTotal,
		m.InvocationRetries,
		m.InvocationDuration,
		m.EventsDispatched,
		m.EventsUnhandled,
	}
}
