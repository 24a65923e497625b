// Package graphstats summarises source graphs and synthesized topologies for
// the generation report: degree distribution and component census.
package graphstats

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/stat"

	"github.com/dd0wney/caida-topogen/pkg/aslinks"
	"github.com/dd0wney/caida-topogen/pkg/topology"
)

// DegreeSummary describes a degree distribution.
type DegreeSummary struct {
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Median float64 `json:"median"`
	P90    float64 `json:"p90"`
	P99    float64 `json:"p99"`
}

// Census counts connected components.
type Census struct {
	Components int `json:"components"`
	Largest    int `json:"largest"`
	Isolated   int `json:"isolated"`
}

// Summary is the report section for one graph.
type Summary struct {
	Nodes  int           `json:"nodes"`
	Edges  int           `json:"edges"`
	Degree DegreeSummary `json:"degree"`
	Census Census        `json:"components"`
}

// Summarize computes degree statistics of raw degree values.
func Summarize(degrees []int) DegreeSummary {
	if len(degrees) == 0 {
		return DegreeSummary{}
	}
	x := make([]float64, len(degrees))
	for i, d := range degrees {
		x[i] = float64(d)
	}
	sort.Float64s(x)

	mean, std := stat.MeanStdDev(x, nil)
	if len(x) == 1 {
		std = 0
	}
	return DegreeSummary{
		Min:    int(x[0]),
		Max:    int(x[len(x)-1]),
		Mean:   mean,
		StdDev: std,
		Median: stat.Quantile(0.5, stat.Empirical, x, nil),
		P90:    stat.Quantile(0.9, stat.Empirical, x, nil),
		P99:    stat.Quantile(0.99, stat.Empirical, x, nil),
	}
}

// CensusOf runs gonum's connected components over an undirected graph.
func CensusOf(g graph.Undirected) Census {
	var c Census
	for _, comp := range topo.ConnectedComponents(g) {
		c.Components++
		if len(comp) > c.Largest {
			c.Largest = len(comp)
		}
		if len(comp) == 1 {
			c.Isolated++
		}
	}
	return c
}

// FromSource converts the AS graph into a gonum graph keyed by ASN.
func FromSource(g *aslinks.Graph) *simple.UndirectedGraph {
	out := simple.NewUndirectedGraph()
	for _, asn := range g.ASNs() {
		out.AddNode(simple.Node(int64(asn)))
	}
	for i, asn := range g.ASNs() {
		for _, n := range g.NeighborsAt(i) {
			if n.ASN > asn {
				out.SetEdge(simple.Edge{F: simple.Node(int64(asn)), T: simple.Node(int64(n.ASN))})
			}
		}
	}
	return out
}

// FromTopology converts a topology into a gonum graph keyed by node id.
// Self-loops are dropped and reverse directed edges collapse into one.
func FromTopology(t *topology.Topology) *simple.UndirectedGraph {
	out := simple.NewUndirectedGraph()
	for _, n := range t.Nodes {
		out.AddNode(simple.Node(int64(n.ID)))
	}
	for _, e := range t.Edges {
		if e.IsSelfLoop() {
			continue
		}
		out.SetEdge(simple.Edge{F: simple.Node(int64(e.Source)), T: simple.Node(int64(e.Target))})
	}
	return out
}

func degreesOf(g *simple.UndirectedGraph) []int {
	nodes := g.Nodes()
	out := make([]int, 0, nodes.Len())
	for nodes.Next() {
		out = append(out, g.From(nodes.Node().ID()).Len())
	}
	return out
}

// Source summarises the loaded AS graph.
func Source(g *aslinks.Graph) Summary {
	degrees := make([]int, g.Len())
	for i := range degrees {
		degrees[i] = g.DegreeAt(i)
	}
	return Summary{
		Nodes:  g.Len(),
		Edges:  g.EdgeCount(),
		Degree: Summarize(degrees),
		Census: CensusOf(FromSource(g)),
	}
}

// Topology summarises a synthesized topology, ignoring self-loops.
func Topology(t *topology.Topology) Summary {
	ug := FromTopology(t)
	return Summary{
		Nodes:  len(t.Nodes),
		Edges:  ug.Edges().Len(),
		Degree: Summarize(degreesOf(ug)),
		Census: CensusOf(ug),
	}
}
