// Package metrics exposes Prometheus instrumentation for the poller and the
// WebSocket hub on a dedicated registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/montenegronyc/scoreboard/internal/poller"
)

const namespace = "scoreboard"

// Metrics holds every collector the service exports.
type Metrics struct {
	reg *prometheus.Registry

	fetches     *prometheus.CounterVec
	duration    prometheus.Histogram
	entries     prometheus.Gauge
	lastSuccess prometheus.Gauge
	stale       prometheus.Counter
	wsClients   prometheus.Gauge
}

// New registers the scoreboard collectors plus the Go runtime and process
// collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_total",
			Help:      "Completed fetches by result (ok or the error kind).",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Fetch latency including time spent waiting for the request slot.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15},
		}),
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "entries",
			Help:      "Entries currently on the board.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful fetch.",
		}),
		stale: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_results_total",
			Help:      "Fetch results discarded because a newer fetch or source superseded them.",
		}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_clients",
			Help:      "Connected WebSocket clients.",
		}),
	}
	m.reg.MustRegister(
		m.fetches, m.duration, m.entries, m.lastSuccess, m.stale, m.wsClients,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// ObserveFetch records an applied poll result. Use as a poller.Observer.
func (m *Metrics) ObserveFetch(r poller.Result) {
	m.duration.Observe(r.Duration.Seconds())
	m.entries.Set(float64(len(r.Board.Entries)))
	if r.Snapshot.OK() {
		m.fetches.WithLabelValues("ok").Inc()
		m.lastSuccess.Set(float64(r.Board.UpdatedAt.Unix()))
		return
	}
	m.fetches.WithLabelValues(string(r.Snapshot.ErrKind)).Inc()
}

// ObserveDiscard counts a superseded result. Use as a discard observer.
func (m *Metrics) ObserveDiscard(poller.Result) {
	m.stale.Inc()
}

// SetWSClients reports the current WebSocket client count.
func (m *Metrics) SetWSClients(n int) {
	m.wsClients.Set(float64(n))
}
