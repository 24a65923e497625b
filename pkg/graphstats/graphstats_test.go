package graphstats

import (
	"math"
	"testing"

	"github.com/dd0wney/caida-topogen/pkg/aslinks"
	"github.com/dd0wney/caida-topogen/pkg/topology"
)

func TestSummarize(t *testing.T) {
	if got := Summarize(nil); got != (DegreeSummary{}) {
		t.Errorf("Summarize(nil) = %+v", got)
	}

	one := Summarize([]int{4})
	if one.Min != 4 || one.Max != 4 || one.Mean != 4 || one.StdDev != 0 || one.Median != 4 {
		t.Errorf("single value summary = %+v", one)
	}

	s := Summarize([]int{3, 1, 2})
	if s.Min != 1 || s.Max != 3 || s.Mean != 2 || s.Median != 2 || s.P99 != 3 {
		t.Errorf("Summarize = %+v", s)
	}
	if math.Abs(s.StdDev-1) > 1e-9 {
		t.Errorf("StdDev = %v, want 1", s.StdDev)
	}
}

func TestSource(t *testing.T) {
	g := aslinks.FromLinks([]aslinks.Link{
		{Source: 1, Target: 2}, {Source: 2, Target: 3}, {Source: 3, Target: 1},
		{Source: 10, Target: 11},
		{Source: 20, Target: 21}, {Source: 21, Target: 22}, {Source: 22, Target: 23}, {Source: 23, Target: 24},
	})

	s := Source(g)
	if s.Nodes != 10 || s.Edges != 8 {
		t.Errorf("Nodes=%d Edges=%d, want 10 and 8", s.Nodes, s.Edges)
	}
	want := Census{Components: 3, Largest: 5}
	if s.Census != want {
		t.Errorf("Census = %+v, want %+v", s.Census, want)
	}
	if s.Degree.Min != 1 || s.Degree.Max != 2 {
		t.Errorf("Degree = %+v", s.Degree)
	}
}

func TestTopology(t *testing.T) {
	topo := &topology.Topology{
		Directed: true,
		Nodes:    []topology.Node{{ID: 0}, {ID: 1}, {ID: 2}, {ID: 3}},
		Edges: []topology.Edge{
			{Source: 0, Target: 1},
			{Source: 1, Target: 0},
			{Source: 2, Target: 2},
		},
	}

	s := Topology(topo)
	if s.Nodes != 4 || s.Edges != 1 {
		t.Errorf("Nodes=%d Edges=%d, want 4 and 1", s.Nodes, s.Edges)
	}
	want := Census{Components: 3, Largest: 2, Isolated: 2}
	if s.Census != want {
		t.Errorf("Census = %+v, want %+v", s.Census, want)
	}
	if s.Degree.Max != 1 || s.Degree.Min != 0 {
		t.Errorf("Degree = %+v", s.Degree)
	}
}
