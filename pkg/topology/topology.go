// Package topology holds the renumbered, attribute-annotated graph handed
// from synthesis to the validator and the GML writer.
package topology

import (
	"net/netip"
	"time"

	"github.com/dd0wney/caida-topogen/pkg/aslinks"
)

// Node is a renumbered AS. IP is the zero Addr when the region pool was
// exhausted.
type Node struct {
	ID        int
	ASN       aslinks.ASN
	Region    string
	IP        netip.Addr
	Bandwidth Bandwidth
}

// HasIP reports whether an address was assigned.
func (n Node) HasIP() bool { return n.IP.IsValid() }

// Edge connects two renumbered nodes. PacketLoss is a percentage.
type Edge struct {
	Source     int
	Target     int
	Kind       aslinks.Relationship
	Latency    time.Duration
	Bandwidth  Bandwidth
	PacketLoss float64
}

// IsSelfLoop reports whether the edge starts and ends at the same node.
func (e Edge) IsSelfLoop() bool { return e.Source == e.Target }

// Topology is the synthesized graph. Nodes are indexed by ID.
type Topology struct {
	Directed bool
	Nodes    []Node
	Edges    []Edge
}

// Counts summarises a topology.
type Counts struct {
	Nodes     int `json:"nodes"`
	Edges     int `json:"edges"`
	SelfLoops int `json:"self_loops"`
	// InterAS counts edges between distinct nodes, both directions included
	// for directed output.
	InterAS int `json:"inter_as"`
	NoIP    int `json:"nodes_without_ip"`
}

// Counts walks the topology once.
func (t *Topology) Counts() Counts {
	c := Counts{Nodes: len(t.Nodes), Edges: len(t.Edges)}
	for _, e := range t.Edges {
		if e.IsSelfLoop() {
			c.SelfLoops++
		} else {
			c.InterAS++
		}
	}
	for _, n := range t.Nodes {
		if !n.HasIP() {
			c.NoIP++
		}
	}
	return c
}

// ByKind counts edges per relationship.
func (t *Topology) ByKind() map[aslinks.Relationship]int {
	out := make(map[aslinks.Relationship]int)
	for _, e := range t.Edges {
		out[e.Kind]++
	}
	return out
}
