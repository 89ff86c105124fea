// Package metrics records Prometheus collectors for a diagnostics run and can
// export them in the node_exporter textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JakeFAU/sitemapdiag/internal/diag"
)

// StatusClass is a coarse HTTP response grouping.
type StatusClass string

// Supported HTTP status classes tracked for probe requests.
const (
	Status2xx   StatusClass = "2xx"
	Status3xx   StatusClass = "3xx"
	Status4xx   StatusClass = "4xx"
	Status5xx   StatusClass = "5xx"
	StatusError StatusClass = "error"
	StatusOther StatusClass = "other"
)

// Recorder owns a private registry so runs never leak into the default one.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	locations     prometheus.Gauge
	duplicates    prometheus.Counter
	probes        *prometheus.CounterVec
	probeDuration *prometheus.HistogramVec
	problems      *prometheus.CounterVec
	lastRun       prometheus.Gauge
}

// New registers the run collectors against a fresh registry.
func New() (*Recorder, error) {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		locations: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sitemapdiag_locations",
			Help: "Number of <loc> entries found in the sitemap.",
		}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sitemapdiag_duplicate_locations_total",
			Help: "Repeated <loc> occurrences.",
		}),
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sitemapdiag_probe_requests_total",
			Help: "Probe requests partitioned by method and status class.",
		}, []string{"method", "status_class"}),
		probeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sitemapdiag_probe_duration_seconds",
			Help:    "Probe request latency partitioned by method.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"method"}),
		problems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sitemapdiag_problems_total",
			Help: "Reported problems partitioned by kind.",
		}, []string{"kind"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sitemapdiag_last_run_timestamp_seconds",
			Help: "Unix time the last run finished.",
		}),
	}
	for _, collector := range []prometheus.Collector{
		r.locations,
		r.duplicates,
		r.probes,
		r.probeDuration,
		r.problems,
		r.lastRun,
	} {
		if err := r.registry.Register(collector); err != nil {
			return nil, fmt.Errorf("register run collector: %w", err)
		}
	}
	return r, nil
}

// ClassifyStatus groups HTTP status codes. Zero means no response arrived.
func ClassifyStatus(code int) StatusClass {
	switch {
	case code == 0:
		return StatusError
	case code >= 200 && code < 300:
		return Status2xx
	case code >= 300 && code < 400:
		return Status3xx
	case code >= 400 && code < 500:
		return Status4xx
	case code >= 500 && code < 600:
		return Status5xx
	default:
		return StatusOther
	}
}

// ObserveLocations records how many locations the sitemap listed.
func (r *Recorder) ObserveLocations(n int) {
	if r == nil {
		return
	}
	r.locations.Set(float64(n))
}

// ObserveProbe implements diag.ProbeObserver.
func (r *Recorder) ObserveProbe(method string, statusCode int, duration time.Duration) {
	if r == nil {
		return
	}
	r.probes.WithLabelValues(method, string(ClassifyStatus(statusCode))).Inc()
	if duration > 0 {
		r.probeDuration.WithLabelValues(method).Observe(duration.Seconds())
	}
}

// ObserveProblems counts problems by kind; duplicates also feed the
// duplicate counter.
func (r *Recorder) ObserveProblems(problems []diag.Problem) {
	if r == nil {
		return
	}
	for _, p := range problems {
		r.problems.WithLabelValues(string(p.Kind)).Inc()
		if p.Kind == diag.KindDuplicate {
			r.duplicates.Inc()
		}
	}
}

// MarkFinished stamps the completion time of the run.
func (r *Recorder) MarkFinished(at time.Time) {
	if r == nil {
		return
	}
	r.lastRun.Set(float64(at.Unix()))
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// WriteTextfile writes every collected metric to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
