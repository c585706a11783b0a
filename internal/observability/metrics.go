package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics stores Prometheus collectors for the API and outreach runs.
// All methods are safe to call on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	batchesStarted      prometheus.Counter
	batchesFinished     *prometheus.CounterVec
	contactsFound       prometheus.Counter
	emailsDrafted       prometheus.Counter
	upstreamCalls       *prometheus.CounterVec
	batchDuration       prometheus.Histogram
}

// NewMetrics registers all collectors on a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pathfinder",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, route, and status.",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "pathfinder",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and route.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		batchesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pathfinder",
			Name:      "outreach_batches_started_total",
			Help:      "Outreach batches created.",
		}),
		batchesFinished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pathfinder",
				Name:      "outreach_batches_finished_total",
				Help:      "Outreach batches that reached a terminal status.",
			},
			[]string{"status"},
		),
		contactsFound: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pathfinder",
			Name:      "outreach_contacts_found_total",
			Help:      "Contacts persisted by outreach batches.",
		}),
		emailsDrafted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pathfinder",
			Name:      "outreach_emails_drafted_total",
			Help:      "Emails drafted by outreach batches.",
		}),
		upstreamCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pathfinder",
				Name:      "upstream_calls_total",
				Help:      "Calls to third-party providers by provider and outcome.",
			},
			[]string{"provider", "outcome"},
		),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pathfinder",
			Name:      "outreach_batch_duration_seconds",
			Help:      "Wall-clock duration of outreach batches.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.batchesStarted,
		m.batchesFinished,
		m.contactsFound,
		m.emailsDrafted,
		m.upstreamCalls,
		m.batchDuration,
	)

	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (m *Metrics) BatchStarted() {
	if m == nil {
		return
	}
	m.batchesStarted.Inc()
}

func (m *Metrics) BatchFinished(status string, contacts, emails int, duration time.Duration) {
	if m == nil {
		return
	}
	m.batchesFinished.WithLabelValues(status).Inc()
	m.contactsFound.Add(float64(contacts))
	m.emailsDrafted.Add(float64(emails))
	m.batchDuration.Observe(duration.Seconds())
}

// UpstreamCall records one provider call; outcome is "ok", "error" or "fallback".
func (m *Metrics) UpstreamCall(provider, outcome string) {
	if m == nil {
		return
	}
	m.upstreamCalls.WithLabelValues(provider, outcome).Inc()
}
