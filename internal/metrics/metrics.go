// Package metrics exposes Prometheus counters for the resolution pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors on a private registry. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry    *prometheus.Registry
	resolutions *prometheus.CounterVec
	extractions *prometheus.CounterVec
	duration    prometheus.Histogram
	fetches     *prometheus.CounterVec
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reelhound_resolutions_total",
			Help: "Episode pages resolved, by result (playable, placeholder_only, no_sources).",
		}, []string{"result"}),
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reelhound_extractions_total",
			Help: "Extractor calls by extractor and outcome.",
		}, []string{"extractor", "outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "reelhound_resolve_duration_seconds",
			Help:    "Wall time of a full page resolution.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40},
		}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reelhound_page_fetches_total",
			Help: "Catalog and episode page fetches by result.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		m.resolutions,
		m.extractions,
		m.duration,
		m.fetches,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveResolution records one finished resolution.
func (m *Metrics) ObserveResolution(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(result).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// ObserveExtraction records one extractor call.
func (m *Metrics) ObserveExtraction(extractor, outcome string) {
	if m == nil {
		return
	}
	m.extractions.WithLabelValues(extractor, outcome).Inc()
}

// ObserveFetch records a page fetch made on behalf of an API or CLI caller.
func (m *Metrics) ObserveFetch(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.fetches.WithLabelValues(result).Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
