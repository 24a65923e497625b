package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RecordLoad records the outcome of parsing the dataset
func (r *Registry) RecordLoad(duration time.Duration, nodes, edges, accepted, skipped, selfLoops, duplicates int) {
	r.LoadDuration.Observe(duration.Seconds())
	r.SourceNodes.Set(float64(nodes))
	r.SourceEdges.Set(float64(edges))
	r.RecordsTotal.WithLabelValues("accepted").Add(float64(accepted))
	r.RecordsTotal.WithLabelValues("skipped").Add(float64(skipped))
	r.RecordsTotal.WithLabelValues("self_loop").Add(float64(selfLoops))
	r.RecordsTotal.WithLabelValues("duplicate").Add(float64(duplicates))
}

// RecordSourceCensus records the size of the largest source component
func (r *Registry) RecordSourceCensus(largest int) {
	r.SourceLargest.Set(float64(largest))
}

// RecordSelection records a selector result
func (r *Registry) RecordSelection(strategy string, duration time.Duration, requested, selected, bridges, fallback, rounds, components int) {
	r.SelectionDuration.WithLabelValues(strategy).Observe(duration.Seconds())
	r.RequestedNodes.Set(float64(requested))
	r.SelectedNodes.Set(float64(selected))
	r.BridgesAdded.Add(float64(bridges))
	r.FallbackAdmitted.Add(float64(fallback))
	r.RepairRounds.Set(float64(rounds))
	r.SelectionComponents.Set(float64(components))
}

// RecordSynthesis records edge counts per relationship and node counts per
// region
func (r *Registry) RecordSynthesis(edgesByKind, nodesByRegion map[string]int, unassigned int) {
	for kind, n := range edgesByKind {
		r.TopologyEdges.WithLabelValues(kind).Set(float64(n))
	}
	for region, n := range nodesByRegion {
		r.RegionNodes.WithLabelValues(region).Set(float64(n))
	}
	r.UnassignedIPs.Set(float64(unassigned))
}

// RecordOutput records a finished GML write
func (r *Registry) RecordOutput(duration time.Duration, bytes int64) {
	r.WriteDuration.Observe(duration.Seconds())
	r.OutputBytes.Set(float64(bytes))
}

// RecordUpload counts an upload attempt
func (r *Registry) RecordUpload(success bool) {
	if success {
		r.Uploads.WithLabelValues("success").Inc()
		return
	}
	r.Uploads.WithLabelValues("failure").Inc()
}

// RecordConnectivity records the validator verdict
func (r *Registry) RecordConnectivity(connected bool, unreached int) {
	if connected {
		r.Connected.Set(1)
	} else {
		r.Connected.Set(0)
	}
	r.UnreachedNodes.Set(float64(unreached))
}

// RecordStage observes the duration of a pipeline stage
func (r *Registry) RecordStage(stage string, duration time.Duration) {
	r.StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordRun counts a finished run
func (r *Registry) RecordRun(status string) {
	r.RunsTotal.WithLabelValues(status).Inc()
}

// UpdateSystemMetrics samples the Go runtime
func (r *Registry) UpdateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.MemoryAllocBytes.Set(float64(m.Alloc))
	r.MemorySysBytes.Set(float64(m.Sys))
}

// WriteTextfile writes every metric in the node-exporter textfile format.
// The file is replaced atomically.
func (r *Registry) WriteTextfile(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return prometheus.WriteToTextfile(path, r.registry)
}
