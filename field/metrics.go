package field

import "github.com/prometheus/client_golang/prometheus"

// Metrics is an optional bundle of Prometheus collectors a caller can
// register so it can observe construction cost without field.Build
// forcing a specific observability stack on every caller — a build run
// with a nil *Metrics simply skips all of the Observe/Inc calls below.
type Metrics struct {
	cellsBuilt    prometheus.Counter
	topLevelCells prometheus.Histogram
	buildDuration prometheus.Histogram
}

// NewMetrics creates the field package's collectors and registers them
// with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cellsBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "treecorr",
			Subsystem: "field",
			Name:      "cells_built_total",
			Help:      "Total number of tree cells built across all field.Build calls.",
		}),
		topLevelCells: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "treecorr",
			Subsystem: "field",
			Name:      "top_level_cells",
			Help:      "Number of top-level cells produced per field.Build call.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		buildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "treecorr",
			Subsystem: "field",
			Name:      "build_duration_seconds",
			Help:      "Wall-clock duration of a field.Build call.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.cellsBuilt, m.topLevelCells, m.buildDuration)
	return m
}
