// Package metrics counts extraction work on a private Prometheus registry
// and exports it in the node-exporter textfile format.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "featx"

// Metrics holds the extraction collectors. All methods are safe for
// concurrent use and no-ops on a nil receiver.
type Metrics struct {
	reg *prometheus.Registry

	Contexts       *prometheus.CounterVec
	Features       prometheus.Counter
	NotFound       prometheus.Counter
	SilentClauses  prometheus.Counter
	AlphabetSize   prometheus.Gauge
	FeaturesPerCtx prometheus.Histogram
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		Contexts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contexts_total",
			Help:      "Extraction contexts evaluated, by stage",
		}, []string{"stage"}),
		Features: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "features_total",
			Help:      "Feature names emitted by templates",
		}),
		NotFound: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "features_not_found_total",
			Help:      "Feature names unknown to a frozen alphabet",
		}),
		SilentClauses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "silent_clauses_total",
			Help:      "Template clauses that did not fire",
		}),
		AlphabetSize: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "alphabet_size",
			Help:      "Entries in the feature alphabet",
		}),
		FeaturesPerCtx: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "features_per_context",
			Help:      "Feature names emitted per context",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
}

// ObserveContext records one evaluated context.
func (m *Metrics) ObserveContext(stage string, emitted, notFound, silent int) {
	if m == nil {
		return
	}
	if stage == "" {
		stage = "none"
	}
	m.Contexts.WithLabelValues(stage).Inc()
	m.Features.Add(float64(emitted))
	m.NotFound.Add(float64(notFound))
	m.SilentClauses.Add(float64(silent))
	m.FeaturesPerCtx.Observe(float64(emitted))
}

// SetAlphabetSize records the current alphabet size.
func (m *Metrics) SetAlphabetSize(n int) {
	if m == nil {
		return
	}
	m.AlphabetSize.Set(float64(n))
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// WriteFile writes every metric to path in the textfile format.
func (m *Metrics) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
