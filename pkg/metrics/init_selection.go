package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initSelectionMetrics() {
	r.SelectionDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "topogen_selection_duration_seconds",
			Help:    "Time spent choosing the node subset",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"strategy"},
	)

	r.RequestedNodes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "topogen_requested_nodes",
			Help: "Target node count of the run",
		},
	)

	r.SelectedNodes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "topogen_selected_nodes",
			Help: "Number of nodes chosen by the selector",
		},
	)

	r.BridgesAdded = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "topogen_bridges_added_total",
			Help: "Nodes admitted beyond the target to join components",
		},
	)

	r.FallbackAdmitted = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "topogen_fallback_admitted_total",
			Help: "Nodes admitted from outside the tier sample",
		},
	)

	r.RepairRounds = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "topogen_repair_rounds",
			Help: "Bridge search passes used by the high-degree strategy",
		},
	)

	r.SelectionComponents = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "topogen_selection_components",
			Help: "Connected components in the chosen node set",
		},
	)
}
