// Package metrics exposes Prometheus collectors for the HTTP surface and the
// analysis pipeline, plus the request logging middleware.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "swingdesk"

// Registry is a Prometheus registry with every swingdesk collector
// registered on it. It serves as the Gatherer for promhttp.
type Registry struct {
	*prometheus.Registry

	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	inFlight prometheus.Gauge

	signals    *prometheus.CounterVec
	routed     *prometheus.CounterVec
	upstream   *prometheus.CounterVec
	analysis   *prometheus.HistogramVec
	refreshes  prometheus.Counter
	jobs       *prometheus.GaugeVec
	watchlists *prometheus.GaugeVec
}

// NewRegistry creates a registry with Go runtime, process and swingdesk
// collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Registry{
		Registry: reg,

		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status class.",
		}, []string{"method", "path", "status"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"method", "path"}),
		inFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "HTTP requests currently being served.",
		}),

		signals: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signals_generated_total",
			Help:      "Signals classified, by action.",
		}, []string{"action"}),
		routed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signals_routed_total",
			Help:      "Signals handed to notifiers, by notifier and outcome.",
		}, []string{"notifier", "status"}),
		upstream: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_failures_total",
			Help:      "Market data requests that failed or returned no data.",
		}, []string{"operation"}),
		analysis: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Time to analyze one ticker page or a watchlist batch.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"kind"}),
		refreshes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_cycles_total",
			Help:      "Scheduled refresh cycles completed.",
		}),
		jobs: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "jobs_active",
			Help:      "Background jobs pending or running, by type.",
		}, []string{"type"}),
		watchlists: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "watchlist_symbols",
			Help:      "Tickers on each watchlist.",
		}, []string{"kind"}),
	}
}

// RecordRequest records one served request. path should be the route
// pattern, not the raw URL.
func (r *Registry) RecordRequest(method, path string, status int, seconds float64) {
	r.requests.WithLabelValues(method, path, statusClass(status)).Inc()
	r.latency.WithLabelValues(method, path).Observe(seconds)
}

func (r *Registry) InFlightInc() { r.inFlight.Inc() }

func (r *Registry) InFlightDec() { r.inFlight.Dec() }

// RecordSignal counts a classified signal.
func (r *Registry) RecordSignal(action string) {
	r.signals.WithLabelValues(action).Inc()
}

// RecordSignalRouted counts a notification attempt.
func (r *Registry) RecordSignalRouted(notifier, status string) {
	r.routed.WithLabelValues(notifier, status).Inc()
}

// RecordUpstreamFailure counts a failed market data request.
func (r *Registry) RecordUpstreamFailure(operation string) {
	r.upstream.WithLabelValues(operation).Inc()
}

// RecordAnalysis observes an analysis run.
func (r *Registry) RecordAnalysis(kind string, seconds float64) {
	r.analysis.WithLabelValues(kind).Observe(seconds)
}

func (r *Registry) RecordRefreshCycle() { r.refreshes.Inc() }

// SetJobsActive sets the number of unfinished jobs of a type.
func (r *Registry) SetJobsActive(jobType string, count int) {
	r.jobs.WithLabelValues(jobType).Set(float64(count))
}

// SetWatchlistSize sets the size of one watchlist.
func (r *Registry) SetWatchlistSize(kind string, size int) {
	r.watchlists.WithLabelValues(kind).Set(float64(size))
}

// statusClass folds a status code into 2xx, 4xx and so on.
func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}
