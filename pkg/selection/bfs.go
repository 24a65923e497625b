package selection

import (
	"fmt"
	"sort"

	"github.com/dd0wney/caida-topogen/pkg/aslinks"
	"github.com/dd0wney/caida-topogen/pkg/logging"
)

// bfsSelector grows the selection breadth-first from the highest-degree AS.
// Each admitted node is a neighbour of an admitted node, so the result is
// connected by construction.
type bfsSelector struct {
	opts Options
}

func (s *bfsSelector) Strategy() Strategy { return BFS }

func (s *bfsSelector) Select(g *aslinks.Graph, target int) (*Result, error) {
	if err := checkSource(g, target); err != nil {
		return nil, err
	}

	res := newResult(BFS, g, target)
	want := min(target, g.Len())

	start := highestDegree(g)
	member := make([]bool, g.Len())
	member[start] = true
	res.Nodes = append(res.Nodes, g.ASNAt(start))

	queue := []int{start}
	var candidates []int
	for head := 0; head < len(queue) && len(res.Nodes) < want; head++ {
		cur := queue[head]

		candidates = candidates[:0]
		for _, n := range g.NeighborsAt(cur) {
			if j := indexOf(g, n.ASN); !member[j] {
				candidates = append(candidates, j)
			}
		}
		// neighbours arrive in ASN order; the stable sort keeps it for ties
		sort.SliceStable(candidates, func(a, b int) bool {
			return g.DegreeAt(candidates[a]) > g.DegreeAt(candidates[b])
		})

		for _, j := range candidates {
			if len(res.Nodes) >= want {
				break
			}
			member[j] = true
			res.Nodes = append(res.Nodes, g.ASNAt(j))
			queue = append(queue, j)
		}
	}

	res.Components = 1
	if len(res.Nodes) < want {
		res.Diagnostic = fmt.Sprintf("component of AS %d holds only %d nodes; target %d not reachable by expansion",
			g.ASNAt(start), len(res.Nodes), want)
	}

	s.opts.logger().Debug("bfs expansion finished",
		logging.Strategy(string(BFS)),
		logging.ASN(uint32(g.ASNAt(start))),
		logging.Count(len(res.Nodes)),
	)
	return res, nil
}
