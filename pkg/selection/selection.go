// Package selection picks a connected subset of a target size from a loaded
// AS graph. Three interchangeable strategies share the Selector contract:
//
//   - bfs: breadth-first expansion from the highest-degree AS
//   - high-degree: top-N by degree, repaired with bridge nodes
//   - hierarchical: degree tiers sampled 20/40/40, joined by multi-source BFS
//
// All strategies are sequential and deterministic for a given graph, target
// and seed.
package selection

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dd0wney/caida-topogen/pkg/aslinks"
	"github.com/dd0wney/caida-topogen/pkg/logging"
	"github.com/dd0wney/caida-topogen/pkg/validation"
)

// Strategy names a selection algorithm.
type Strategy string

const (
	Auto         Strategy = "auto"
	BFS          Strategy = "bfs"
	HighDegree   Strategy = "high-degree"
	Hierarchical Strategy = "hierarchical"
)

// Scale thresholds used to label runs; see Resolve.
const (
	SmallScaleMax  = 500
	MediumScaleMax = 2000
)

// DefaultMaxRepairRounds bounds the bridge search of the high-degree strategy.
const DefaultMaxRepairRounds = 3

// ParseStrategy converts a configured name into a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return Auto, nil
	case "bfs":
		return BFS, nil
	case "high-degree", "high_degree", "highdegree":
		return HighDegree, nil
	case "hierarchical", "tiered":
		return Hierarchical, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// Resolve maps Auto to a concrete strategy. BFS expansion is the only
// strategy whose connectivity holds by construction, so it is used at every
// scale; explicit strategies pass through unchanged.
func Resolve(s Strategy) Strategy {
	if s == Auto || s == "" {
		return BFS
	}
	return s
}

// ScaleClass labels a target size as small, medium or large.
func ScaleClass(target int) string {
	switch {
	case target <= SmallScaleMax:
		return "small"
	case target <= MediumScaleMax:
		return "medium"
	default:
		return "large"
	}
}

// Options tunes selector behaviour.
type Options struct {
	// Seed drives the tier sampling of the hierarchical strategy.
	Seed int64
	// MaxRepairRounds caps the passes of the high-degree bridge search.
	MaxRepairRounds int
	Logger          logging.Logger
}

func (o Options) logger() logging.Logger {
	if o.Logger == nil {
		return logging.NewNopLogger()
	}
	return o.Logger
}

func (o Options) repairRounds() int {
	return validation.DefaultOrInt(o.MaxRepairRounds, DefaultMaxRepairRounds)
}

// Selector chooses a connected node subset of a graph.
type Selector interface {
	Strategy() Strategy
	Select(g *aslinks.Graph, target int) (*Result, error)
}

// New builds the selector for strategy. Auto must be resolved first.
func New(strategy Strategy, opts Options) (Selector, error) {
	switch strategy {
	case BFS:
		return &bfsSelector{opts: opts}, nil
	case HighDegree:
		return &highDegreeSelector{opts: opts}, nil
	case Hierarchical:
		return &hierarchicalSelector{opts: opts}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}

// Result is a chosen subgraph.
type Result struct {
	Strategy   Strategy
	Requested  int
	SourceSize int
	// Nodes holds the chosen ASes in admission order.
	Nodes []aslinks.ASN
	// BridgesAdded counts nodes admitted beyond the target to join components.
	BridgesAdded int
	// FallbackAdmitted counts nodes pulled in from outside the tier sample.
	FallbackAdmitted int
	RepairRounds     int
	// Components is the selector's own count of connected components in
	// the chosen set.
	Components int
	Diagnostic string
}

// Len returns the number of chosen nodes.
func (r *Result) Len() int { return len(r.Nodes) }

// Clamped reports whether the request exceeded the source graph.
func (r *Result) Clamped() bool { return r.Requested > r.SourceSize }

// Sorted returns the chosen ASes in ascending order.
func (r *Result) Sorted() []aslinks.ASN {
	out := make([]aslinks.ASN, len(r.Nodes))
	copy(out, r.Nodes)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func checkSource(g *aslinks.Graph, target int) error {
	if g == nil || g.Len() < MinSourceNodes {
		n := 0
		if g != nil {
			n = g.Len()
		}
		return &SourceTooSmallError{Observed: n, Minimum: MinSourceNodes}
	}
	if target < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidTarget, target)
	}
	return nil
}

func newResult(s Strategy, g *aslinks.Graph, target int) *Result {
	return &Result{
		Strategy:   s,
		Requested:  target,
		SourceSize: g.Len(),
		Nodes:      make([]aslinks.ASN, 0, min(target, g.Len())),
	}
}

// byDegreeDesc returns dense indices ordered by degree descending. Dense
// indices follow ascending ASN, so the stable sort breaks ties by lowest ASN.
func byDegreeDesc(g *aslinks.Graph) []int {
	order := make([]int, g.Len())
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return g.DegreeAt(order[a]) > g.DegreeAt(order[b])
	})
	return order
}

// highestDegree returns the dense index of the highest-degree AS, lowest ASN
// on ties.
func highestDegree(g *aslinks.Graph) int {
	best := 0
	for i := 1; i < g.Len(); i++ {
		if g.DegreeAt(i) > g.DegreeAt(best) {
			best = i
		}
	}
	return best
}

// indexOf resolves a neighbour to its dense index. The loader guarantees every
// neighbour is itself a node.
func indexOf(g *aslinks.Graph, asn aslinks.ASN) int {
	i, _ := g.Index(asn)
	return i
}

// countComponents counts connected components of g restricted to nodes.
func countComponents(g *aslinks.Graph, nodes []aslinks.ASN) int {
	local := make(map[aslinks.ASN]int, len(nodes))
	uf := newUnionFind(len(nodes))
	for _, asn := range nodes {
		local[asn] = uf.add()
	}
	for _, asn := range nodes {
		for _, n := range g.Neighbors(asn) {
			if j, ok := local[n.ASN]; ok {
				uf.union(local[asn], j)
			}
		}
	}
	return uf.Count()
}
