// Package synth turns a selected AS subset into a renumbered topology with
// per-link latency and bandwidth, regions and addresses.
package synth

import (
	"errors"
	"fmt"

	"github.com/dd0wney/caida-topogen/pkg/aslinks"
	"github.com/dd0wney/caida-topogen/pkg/geo"
	"github.com/dd0wney/caida-topogen/pkg/logging"
	"github.com/dd0wney/caida-topogen/pkg/topology"
)

// DefaultNodeBandwidth is the interface rate written on every node.
const DefaultNodeBandwidth = topology.Gbit

// ErrUnknownASN is returned when the selection names an AS missing from the
// source graph.
var ErrUnknownASN = errors.New("selected AS not in source graph")

// Options controls synthesis.
type Options struct {
	SelfLoops bool
	Directed  bool
	// PacketLoss is a percentage applied to every inter-AS link.
	PacketLoss    float64
	NodeBandwidth topology.Bandwidth
	Plan          geo.Plan
	Workers       int
	Logger        logging.Logger
}

// DefaultOptions enables self-loops and uses the built-in region plan.
func DefaultOptions() Options {
	return Options{
		SelfLoops:     true,
		NodeBandwidth: DefaultNodeBandwidth,
		Plan:          geo.DefaultPlan(),
	}
}

// Result is a synthesized topology plus the bookkeeping that produced it.
type Result struct {
	Topology *topology.Topology
	Mapping  Mapping
	Geo      *geo.Assignment
}

// Synthesizer builds topologies from selections.
type Synthesizer struct {
	opts Options
}

// New returns a Synthesizer. A zero NodeBandwidth falls back to
// DefaultNodeBandwidth and an empty plan to geo.DefaultPlan.
func New(opts Options) *Synthesizer {
	if opts.NodeBandwidth == 0 {
		opts.NodeBandwidth = DefaultNodeBandwidth
	}
	if len(opts.Plan.Regions) == 0 {
		opts.Plan = geo.DefaultPlan()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	return &Synthesizer{opts: opts}
}

// Build renumbers nodes, assigns geography and derives edges from g.
func (s *Synthesizer) Build(g *aslinks.Graph, nodes []aslinks.ASN) (*Result, error) {
	m := Renumber(nodes)

	cands := make([]geo.Candidate, m.Len())
	for id, asn := range m.ASNs() {
		if !g.Contains(asn) {
			return nil, fmt.Errorf("%w: AS %d", ErrUnknownASN, asn)
		}
		cands[id] = geo.Candidate{ASN: asn, Degree: g.Degree(asn)}
	}

	assignment, err := geo.Assign(s.opts.Plan, cands, s.opts.Workers)
	if err != nil {
		return nil, err
	}

	topo := &topology.Topology{
		Directed: s.opts.Directed,
		Nodes:    make([]topology.Node, m.Len()),
	}
	for id, asn := range m.ASNs() {
		topo.Nodes[id] = topology.Node{
			ID:        id,
			ASN:       asn,
			Region:    assignment.Regions[id],
			IP:        assignment.IPs[id],
			Bandwidth: s.opts.NodeBandwidth,
		}
	}

	topo.Edges = s.edges(g, m)

	s.opts.Logger.Debug("topology synthesized",
		logging.Int("nodes", len(topo.Nodes)),
		logging.Int("edges", len(topo.Edges)),
		logging.Int("unassigned_ips", assignment.Unassigned),
	)
	return &Result{Topology: topo, Mapping: m, Geo: assignment}, nil
}

// edges walks ids ascending; neighbour lists are sorted by ASN and ids follow
// ASN order, so the output order is fixed.
func (s *Synthesizer) edges(g *aslinks.Graph, m Mapping) []topology.Edge {
	var out []topology.Edge
	for id, asn := range m.ASNs() {
		for _, n := range g.Neighbors(asn) {
			other, ok := m.ID(n.ASN)
			if !ok || other <= id {
				continue
			}
			attrs := AttributesFor(n.Rel)
			e := topology.Edge{
				Source:     id,
				Target:     other,
				Kind:       n.Rel,
				Latency:    attrs.Latency,
				Bandwidth:  attrs.Bandwidth,
				PacketLoss: s.opts.PacketLoss,
			}
			out = append(out, e)
			if s.opts.Directed {
				e.Source, e.Target = e.Target, e.Source
				out = append(out, e)
			}
		}
	}

	if s.opts.SelfLoops {
		local := AttributesFor(aslinks.LocalLoop)
		for id := range m.ASNs() {
			out = append(out, topology.Edge{
				Source:    id,
				Target:    id,
				Kind:      aslinks.LocalLoop,
				Latency:   local.Latency,
				Bandwidth: local.Bandwidth,
			})
		}
	}
	return out
}
