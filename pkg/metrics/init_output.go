package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initOutputMetrics() {
	r.TopologyEdges = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "topogen_topology_edges",
			Help: "Edges in the synthesized topology by relationship",
		},
		[]string{"kind"},
	)

	r.RegionNodes = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "topogen_region_nodes",
			Help: "Nodes assigned to each region",
		},
		[]string{"region"},
	)

	r.UnassignedIPs = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "topogen_unassigned_ips",
			Help: "Nodes left without an address because their region pool ran out",
		},
	)

	r.Connected = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "topogen_topology_connected",
			Help: "Whether every node is reachable from node 0 (1=yes, 0=no)",
		},
	)

	r.UnreachedNodes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "topogen_unreached_nodes",
			Help: "Nodes not reachable from node 0",
		},
	)

	r.WriteDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "topogen_write_duration_seconds",
			Help:    "Time spent writing the GML file",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	r.OutputBytes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "topogen_output_bytes",
			Help: "Size of the written GML file",
		},
	)

	r.Uploads = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "topogen_uploads_total",
			Help: "Output uploads by result",
		},
		[]string{"result"}, // success, error
	)

	r.RunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "topogen_runs_total",
			Help: "Generation runs by status",
		},
		[]string{"status"}, // success, advisory, error
	)

	r.StageDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "topogen_stage_duration_seconds",
			Help:    "Duration of each pipeline stage",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)
}
