package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dd0wney/caida-topogen/pkg/aslinks"
	"github.com/dd0wney/caida-topogen/pkg/connectivity"
	"github.com/dd0wney/caida-topogen/pkg/gml"
	"github.com/dd0wney/caida-topogen/pkg/graphstats"
	"github.com/dd0wney/caida-topogen/pkg/topology"
)

// SelectionReport is the report view of a selection.Result.
type SelectionReport struct {
	Strategy         string `json:"strategy"`
	Scale            string `json:"scale"`
	Requested        int    `json:"requested"`
	Selected         int    `json:"selected"`
	SourceSize       int    `json:"source_size"`
	Clamped          bool   `json:"clamped"`
	BridgesAdded     int    `json:"bridges_added"`
	FallbackAdmitted int    `json:"fallback_admitted"`
	RepairRounds     int    `json:"repair_rounds"`
	Components       int    `json:"components"`
	Diagnostic       string `json:"diagnostic,omitempty"`
}

// OutputReport describes the written file.
type OutputReport struct {
	Path            string `json:"path"`
	Bytes           int64  `json:"bytes"`
	Digest          string `json:"digest"`
	DigestAlgorithm string `json:"digest_algorithm"`
	Uploaded        string `json:"uploaded,omitempty"`
}

// Report summarises a run. Everything except RunID, StartedAt and Timings
// is a pure function of the inputs.
type Report struct {
	RunID     string    `json:"run_id"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	Category  Category  `json:"category,omitempty"`
	StartedAt time.Time `json:"started_at"`

	Input     string             `json:"input"`
	Seed      int64              `json:"seed"`
	Directed  bool               `json:"directed"`
	SelfLoops bool               `json:"self_loops"`
	Load      aslinks.LoadStats  `json:"load"`
	Source    graphstats.Summary `json:"source"`

	Selection    SelectionReport     `json:"selection"`
	Counts       topology.Counts     `json:"counts"`
	EdgesByKind  map[string]int      `json:"edges_by_kind,omitempty"`
	Regions      map[string]int      `json:"regions,omitempty"`
	Unassigned   int                 `json:"unassigned_ips"`
	Connectivity connectivity.Report `json:"connectivity"`
	Topology     graphstats.Summary  `json:"topology"`
	Output       OutputReport        `json:"output"`

	// Timings holds wall-clock milliseconds per stage.
	Timings map[Stage]float64 `json:"timings_ms"`
	TotalMS float64           `json:"total_ms"`
}

func (r *Report) fail(err error) {
	r.Status = StatusFailure
	r.Error = err.Error()
	r.Category = CategoryOf(err)
}

func (r *Report) timing(stage Stage, d time.Duration) {
	if r.Timings == nil {
		r.Timings = make(map[Stage]float64)
	}
	r.Timings[stage] = float64(d.Microseconds()) / 1000
}

// WriteReport stores r as indented JSON at path, replacing any previous
// file.
func WriteReport(path string, r *Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %w", gml.ErrOutputUnwritable, err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("%w: %w", gml.ErrOutputUnwritable, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("%w: %w", gml.ErrOutputUnwritable, err)
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return fmt.Errorf("%w: %s: %w", gml.ErrOutputUnwritable, path, err)
	}
	return nil
}
