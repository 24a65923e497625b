package selection

import (
	"fmt"
	"math/rand/v2"

	"github.com/dd0wney/caida-topogen/pkg/aslinks"
	"github.com/dd0wney/caida-topogen/pkg/logging"
)

// Tier boundaries over the degree-ordered universe, in percent.
const (
	tier1Percent = 1
	tier2Percent = 10
)

// Share of the target drawn from each tier, in percent. Tier-3 takes the rest.
const (
	tier1Quota = 20
	tier2Quota = 40
)

// pcgStream is the fixed second word of the PCG state; only the seed varies.
const pcgStream = 0x9e3779b97f4a7c15

// Tiers partitions dense node indices by degree rank.
type Tiers struct {
	Tier1 []int
	Tier2 []int
	Tier3 []int
}

// ClassifyTiers splits the universe into Tier-1 (top 1%, at least one node),
// Tier-2 (next 10%) and Tier-3 (remainder), each ordered by degree desc.
func ClassifyTiers(g *aslinks.Graph) Tiers {
	order := byDegreeDesc(g)
	total := len(order)

	t1 := max(1, total*tier1Percent/100)
	t1 = min(t1, total)
	t2 := min(total*tier2Percent/100, total-t1)

	return Tiers{
		Tier1: order[:t1],
		Tier2: order[t1 : t1+t2],
		Tier3: order[t1+t2:],
	}
}

// NewRand returns the generator used for tier sampling. Every sampling
// decision reads from the value returned here, never from global state.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), pcgStream))
}

// hierarchicalSelector samples across degree tiers and joins the sample with
// a multi-source BFS seeded from the chosen Tier-1 nodes.
type hierarchicalSelector struct {
	opts Options
}

func (s *hierarchicalSelector) Strategy() Strategy { return Hierarchical }

func (s *hierarchicalSelector) Select(g *aslinks.Graph, target int) (*Result, error) {
	if err := checkSource(g, target); err != nil {
		return nil, err
	}

	res := newResult(Hierarchical, g, target)
	want := min(target, g.Len())
	tiers := ClassifyTiers(g)

	q1 := max(1, want*tier1Quota/100)
	q2 := want * tier2Quota / 100
	q3 := want - q1 - q2

	rng := NewRand(s.opts.Seed)
	seeds := tiers.Tier1[:min(q1, len(tiers.Tier1))]

	sampled := make([]bool, g.Len())
	for _, idx := range seeds {
		sampled[idx] = true
	}
	for _, idx := range sample(rng, tiers.Tier2, q2) {
		sampled[idx] = true
	}
	for _, idx := range sample(rng, tiers.Tier3, q3) {
		sampled[idx] = true
	}

	member := make([]bool, g.Len())
	queue := make([]int, 0, want)
	for _, idx := range seeds {
		member[idx] = true
		queue = append(queue, idx)
		res.Nodes = append(res.Nodes, g.ASNAt(idx))
	}

	// phase 1: expand through sampled nodes only
	expand(g, queue, member, want, res, func(j int) bool { return sampled[j] })
	inSample := len(res.Nodes)

	// phase 2: the sample is exhausted, admit any neighbour of the selection
	if len(res.Nodes) < want {
		queue = queue[:0]
		for _, asn := range res.Nodes {
			queue = append(queue, indexOf(g, asn))
		}
		expand(g, queue, member, want, res, func(int) bool { return true })
	}
	res.FallbackAdmitted = len(res.Nodes) - inSample

	res.Components = countComponents(g, res.Nodes)
	switch {
	case res.Components > 1:
		res.Diagnostic = fmt.Sprintf("%d Tier-1 seeds expanded into %d components", len(seeds), res.Components)
	case len(res.Nodes) < want:
		res.Diagnostic = fmt.Sprintf("expansion from Tier-1 reached only %d of %d nodes", len(res.Nodes), want)
	}

	s.opts.logger().Debug("tier sampling finished",
		logging.Strategy(string(Hierarchical)),
		logging.Int("tier1", len(tiers.Tier1)),
		logging.Int("tier2", len(tiers.Tier2)),
		logging.Int("tier3", len(tiers.Tier3)),
		logging.Int("seeds", len(seeds)),
		logging.Int("fallback", res.FallbackAdmitted),
	)
	return res, nil
}

// expand runs BFS from queue, admitting unvisited neighbours accepted by
// admit until want nodes are selected.
func expand(g *aslinks.Graph, queue []int, member []bool, want int, res *Result, admit func(int) bool) {
	for head := 0; head < len(queue) && len(res.Nodes) < want; head++ {
		for _, n := range g.NeighborsAt(queue[head]) {
			if len(res.Nodes) >= want {
				return
			}
			j := indexOf(g, n.ASN)
			if member[j] || !admit(j) {
				continue
			}
			member[j] = true
			queue = append(queue, j)
			res.Nodes = append(res.Nodes, n.ASN)
		}
	}
}

// sample draws k items from pool uniformly without replacement using a
// partial Fisher-Yates shuffle on a copy.
func sample(rng *rand.Rand, pool []int, k int) []int {
	if k <= 0 || len(pool) == 0 {
		return nil
	}
	k = min(k, len(pool))
	buf := make([]int, len(pool))
	copy(buf, pool)
	for i := 0; i < k; i++ {
		j := i + rng.IntN(len(buf)-i)
		buf[i], buf[j] = buf[j], buf[i]
	}
	return buf[:k]
}
