package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "oishine"

// Metrics holds the service's Prometheus collectors. A nil *Metrics is
// a valid no-op recorder.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	httpErrors       *prometheus.CounterVec
	authOutcomes     *prometheus.CounterVec
	realtimePublish  prometheus.Counter
	realtimeDelivery prometheus.Counter
	realtimeDropped  prometheus.Counter
	realtimeConns    prometheus.Gauge
}

// NewMetrics registers collectors on a private registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status",
		}, []string{"method", "route", "status_code"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method", "route"}),
		httpErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "errors_total",
			Help:      "HTTP errors by error code",
		}, []string{"method", "route", "code"}),
		authOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "verifications_total",
			Help:      "Credential verifications by outcome",
		}, []string{"outcome"}),
		realtimePublish: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "publishes_total",
			Help:      "Events published to the broadcaster",
		}),
		realtimeDelivery: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "deliveries_total",
			Help:      "Events written to subscriber connections",
		}),
		realtimeDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "dropped_total",
			Help:      "Events dropped because a subscriber queue was full or its write failed",
		}),
		realtimeConns: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "connections",
			Help:      "Connections currently registered with the broadcaster",
		}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest observes a finished HTTP request.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.httpErrors.WithLabelValues(method, route, code).Inc()
}

// RecordAuthOutcome counts verifier results ("ok", "error" or a failure kind).
func (m *Metrics) RecordAuthOutcome(outcome string) {
	if m == nil {
		return
	}
	m.authOutcomes.WithLabelValues(outcome).Inc()
}

// RecordPublish counts a broadcaster publish.
func (m *Metrics) RecordPublish() {
	if m == nil {
		return
	}
	m.realtimePublish.Inc()
}

// RecordDelivery counts a successful write to a subscriber.
func (m *Metrics) RecordDelivery() {
	if m == nil {
		return
	}
	m.realtimeDelivery.Inc()
}

// RecordDropped counts an event that never reached a subscriber.
func (m *Metrics) RecordDropped() {
	if m == nil {
		return
	}
	m.realtimeDropped.Inc()
}

// ConnectionOpened tracks a registered connection.
func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.realtimeConns.Inc()
}

// ConnectionClosed tracks a removed connection.
func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.realtimeConns.Dec()
}
