package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initLoadMetrics() {
	r.LoadDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "topogen_load_duration_seconds",
			Help:    "Time spent parsing the AS-links dataset",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
	)

	r.SourceNodes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "topogen_source_nodes",
			Help: "Number of AS nodes in the loaded source graph",
		},
	)

	r.SourceEdges = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "topogen_source_edges",
			Help: "Number of distinct AS links in the loaded source graph",
		},
	)

	r.RecordsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "topogen_records_total",
			Help: "Input lines by outcome",
		},
		[]string{"outcome"}, // accepted, skipped, self_loop, duplicate
	)

	r.SourceLargest = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "topogen_source_largest_component_nodes",
			Help: "Size of the largest connected component of the source graph",
		},
	)
}
