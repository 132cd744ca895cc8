package transport

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records dispatch activity. A nil *Metrics records nothing.
type Metrics struct {
	queries  *prometheus.CounterVec
	payloads *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates unregistered metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orbital_client_queries_total",
				Help: "Queries dispatched, by verb and binding",
			},
			[]string{"verb", "binding"},
		),
		payloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orbital_client_payloads_total",
				Help: "Payloads received, by binding",
			},
			[]string{"binding"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orbital_client_failures_total",
				Help: "Queries that ended in failure, by binding and reason",
			},
			[]string{"binding", "reason"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "orbital_client_query_duration_seconds",
				Help:    "Time from dispatch to terminal state",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"verb", "binding", "state"},
		),
	}
}

// MustRegister registers all metrics on the given registry.
func (m *Metrics) MustRegister(registry prometheus.Registerer) {
	registry.MustRegister(m.queries, m.payloads, m.failures, m.duration)
}

func (m *Metrics) dispatched(verb, binding string) {
	if m == nil {
		return
	}
	m.queries.With(prometheus.Labels{"verb": verb, "binding": binding}).Inc()
}

func (m *Metrics) received(binding string) {
	if m == nil {
		return
	}
	m.payloads.With(prometheus.Labels{"binding": binding}).Inc()
}

func (m *Metrics) finished(verb, binding string, state State, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	if err != nil {
		m.failures.With(prometheus.Labels{"binding": binding, "reason": failureReason(err)}).Inc()
	}
	m.duration.With(prometheus.Labels{
		"verb":    verb,
		"binding": binding,
		"state":   state.String(),
	}).Observe(elapsed.Seconds())
}

func failureReason(err error) string {
	switch {
	case IsQueryFailed(err):
		return "query_failed"
	case IsConnectionError(err):
		return "connection"
	case errors.Is(err, ErrBufferOverflow):
		return "overflow"
	case errors.Is(err, ErrStreamClosed):
		return "closed"
	default:
		return "other"
	}
}
