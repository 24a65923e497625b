// Package connectivity checks a synthesized topology independently of the
// selector that produced it.
package connectivity

import (
	"errors"
	"fmt"

	"github.com/dd0wney/caida-topogen/pkg/topology"
)

var (
	// ErrEmptyTopology is returned when there is no node to start from.
	ErrEmptyTopology = errors.New("topology has no nodes")
	// ErrDanglingEdge is returned for an edge naming a node id out of range.
	ErrDanglingEdge = errors.New("edge references unknown node")
)

// Report is the outcome of a reachability pass from node 0.
type Report struct {
	Nodes     int  `json:"nodes"`
	Reached   int  `json:"reached"`
	Unreached int  `json:"unreached"`
	Connected bool `json:"connected"`
}

// Validate runs BFS from node 0 over all non-self-loop edges, ignoring
// direction. A disconnected result is not an error.
func Validate(t *topology.Topology) (Report, error) {
	if t == nil || len(t.Nodes) == 0 {
		return Report{}, ErrEmptyTopology
	}

	n := len(t.Nodes)
	adj := make([][]int, n)
	for i, e := range t.Edges {
		if e.Source < 0 || e.Source >= n || e.Target < 0 || e.Target >= n {
			return Report{}, fmt.Errorf("%w: edge %d (%d -> %d) with %d nodes",
				ErrDanglingEdge, i, e.Source, e.Target, n)
		}
		if e.IsSelfLoop() {
			continue
		}
		adj[e.Source] = append(adj[e.Source], e.Target)
		adj[e.Target] = append(adj[e.Target], e.Source)
	}

	visited := make([]bool, n)
	visited[0] = true
	queue := make([]int, 1, n)
	for head := 0; head < len(queue); head++ {
		for _, next := range adj[queue[head]] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}

	return Report{
		Nodes:     n,
		Reached:   len(queue),
		Unreached: n - len(queue),
		Connected: len(queue) == n,
	}, nil
}
