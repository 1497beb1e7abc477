// Package metrics holds the Prometheus collectors exported by the chat client
// and the development backend. All recorder methods are safe on a nil receiver
// so components can run without instrumentation.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "counsel"

// Chat instruments the conversation poller and the composer.
type Chat struct {
	PollTicks     prometheus.Counter
	PollFailures  prometheus.Counter
	StaleDiscards prometheus.Counter
	Sends         *prometheus.CounterVec
}

// NewChat registers the chat collectors on reg. A nil reg leaves them unregistered.
func NewChat(reg prometheus.Registerer) *Chat {
	f := promauto.With(reg)
	return &Chat{
		PollTicks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "chat", Name: "poll_ticks_total",
			Help: "Synchronization fetches issued by the conversation poller.",
		}),
		PollFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "chat", Name: "poll_failures_total",
			Help: "Synchronization fetches that failed.",
		}),
		StaleDiscards: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "chat", Name: "stale_discards_total",
			Help: "Fetch results dropped because their conversation was no longer active.",
		}),
		Sends: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "chat", Name: "sends_total",
			Help: "Send attempts by result.",
		}, []string{"result"}),
	}
}

// PollTick records one issued fetch.
func (m *Chat) PollTick() {
	if m == nil {
		return
	}
	m.PollTicks.Inc()
}

// PollFailed records one failed fetch.
func (m *Chat) PollFailed() {
	if m == nil {
		return
	}
	m.PollFailures.Inc()
}

// StaleDiscarded records one dropped fetch result.
func (m *Chat) StaleDiscarded() {
	if m == nil {
		return
	}
	m.StaleDiscards.Inc()
}

// Sent records the outcome of a send attempt.
func (m *Chat) Sent(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.Sends.WithLabelValues(result).Inc()
}

// HTTP instruments the development backend's REST handlers.
type HTTP struct {
	Requests *prometheus.CounterVec
	Latency  *prometheus.HistogramVec
}

// NewHTTP registers the HTTP collectors on reg.
func NewHTTP(reg prometheus.Registerer) *HTTP {
	f := promauto.With(reg)
	return &HTTP{
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "Handled requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		Latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_seconds",
			Help:    "Request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// Observe records one handled request.
func (m *HTTP) Observe(route, method string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.Latency.WithLabelValues(route).Observe(d.Seconds())
}
