package selection

import (
	"fmt"

	"github.com/dd0wney/caida-topogen/pkg/aslinks"
	"github.com/dd0wney/caida-topogen/pkg/logging"
)

// highDegreeSelector takes the top-N ASes by degree and then admits bridge
// nodes until the selection forms a single component. The result can be
// larger than the target.
type highDegreeSelector struct {
	opts Options
}

func (s *highDegreeSelector) Strategy() Strategy { return HighDegree }

func (s *highDegreeSelector) Select(g *aslinks.Graph, target int) (*Result, error) {
	if err := checkSource(g, target); err != nil {
		return nil, err
	}

	res := newResult(HighDegree, g, target)
	want := min(target, g.Len())
	order := byDegreeDesc(g)

	// local[i] is the union-find index of dense node i, or -1 if unselected
	local := make([]int, g.Len())
	for i := range local {
		local[i] = -1
	}
	uf := newUnionFind(want)
	for _, idx := range order[:want] {
		local[idx] = uf.add()
		res.Nodes = append(res.Nodes, g.ASNAt(idx))
	}
	for _, idx := range order[:want] {
		for _, n := range g.NeighborsAt(idx) {
			if j := local[indexOf(g, n.ASN)]; j >= 0 {
				uf.union(local[idx], j)
			}
		}
	}

	log := s.opts.logger().With(logging.Strategy(string(HighDegree)))
	maxRounds := s.opts.repairRounds()
	stalled := false
	for uf.Count() > 1 && res.RepairRounds < maxRounds {
		res.RepairRounds++
		admitted := 0

		for _, idx := range order[want:] {
			if local[idx] >= 0 {
				continue
			}
			if !bridgesComponents(g, uf, local, idx) {
				continue
			}

			l := uf.add()
			local[idx] = l
			res.Nodes = append(res.Nodes, g.ASNAt(idx))
			for _, n := range g.NeighborsAt(idx) {
				if j := local[indexOf(g, n.ASN)]; j >= 0 && j != l {
					uf.union(l, j)
				}
			}
			admitted++
			if uf.Count() == 1 {
				break
			}
		}

		res.BridgesAdded += admitted
		log.Debug("repair round finished",
			logging.Int("round", res.RepairRounds),
			logging.Int("bridges", admitted),
			logging.Int("components", uf.Count()),
		)
		if admitted == 0 {
			stalled = true
			break
		}
	}

	res.Components = uf.Count()
	if res.Components > 1 {
		reason := "no bridge candidates remain"
		if !stalled {
			reason = fmt.Sprintf("repair cap of %d rounds reached", maxRounds)
		}
		res.Diagnostic = fmt.Sprintf("selection left with %d components after %d bridge admissions: %s",
			res.Components, res.BridgesAdded, reason)
	}
	return res, nil
}

// bridgesComponents reports whether node idx has selected neighbours in at
// least two different components.
func bridgesComponents(g *aslinks.Graph, uf *unionFind, local []int, idx int) bool {
	first := -1
	for _, n := range g.NeighborsAt(idx) {
		j := local[indexOf(g, n.ASN)]
		if j < 0 {
			continue
		}
		root := uf.find(j)
		if first < 0 {
			first = root
		} else if root != first {
			return true
		}
	}
	return false
}
