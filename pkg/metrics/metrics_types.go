// Package metrics exposes run metrics for topology generation in Prometheus
// form, for scraping or for a node-exporter textfile.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application
type Registry struct {
	// Load Metrics
	LoadDuration  prometheus.Histogram
	SourceNodes   prometheus.Gauge
	SourceEdges   prometheus.Gauge
	RecordsTotal  *prometheus.CounterVec
	SourceLargest prometheus.Gauge

	// Selection Metrics
	SelectionDuration   *prometheus.HistogramVec
	SelectedNodes       prometheus.Gauge
	RequestedNodes      prometheus.Gauge
	BridgesAdded        prometheus.Counter
	FallbackAdmitted    prometheus.Counter
	RepairRounds        prometheus.Gauge
	SelectionComponents prometheus.Gauge

	// Synthesis Metrics
	TopologyEdges *prometheus.GaugeVec
	RegionNodes   *prometheus.GaugeVec
	UnassignedIPs prometheus.Gauge

	// Connectivity Metrics
	Connected      prometheus.Gauge
	UnreachedNodes prometheus.Gauge

	// Output Metrics
	WriteDuration prometheus.Histogram
	OutputBytes   prometheus.Gauge
	Uploads       *prometheus.CounterVec

	// Run Metrics
	RunsTotal     *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec

	// System Metrics
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge
	MemorySysBytes   prometheus.Gauge

	registry *prometheus.Registry
	mu       sync.Mutex
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	r.initLoadMetrics()
	r.initSelectionMetrics()
	r.initOutputMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
