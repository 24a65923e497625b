package aslinks

import (
	"sort"

	"github.com/dd0wney/caida-topogen/pkg/parallel"
)

// ASN is an Autonomous System number as it appears in the source dataset.
type ASN uint32

// Neighbor is one entry of a node's adjacency list.
type Neighbor struct {
	ASN ASN
	Rel Relationship
}

// Graph is the undirected AS graph built by the loader. Every AS has a dense
// index in ascending ASN order, and every adjacency list is sorted by ASN.
// Consumers must treat all returned slices as read-only.
type Graph struct {
	asns  []ASN
	index map[ASN]int
	adj   [][]Neighbor
	edges int
	stats LoadStats
}

// LoadStats describes how the input was consumed.
type LoadStats struct {
	Lines      int `json:"lines"`
	Records    int `json:"records"`
	Skipped    int `json:"skipped"`
	SelfLoops  int `json:"self_loops"`
	Duplicates int `json:"duplicates"`
}

// Len returns the number of ASes in the graph.
func (g *Graph) Len() int { return len(g.asns) }

// EdgeCount returns the number of distinct undirected links.
func (g *Graph) EdgeCount() int { return g.edges }

// ASNs returns every AS in ascending order.
func (g *Graph) ASNs() []ASN { return g.asns }

// Stats returns the parse statistics of the input that produced g.
func (g *Graph) Stats() LoadStats { return g.stats }

// Contains reports whether asn is part of the graph.
func (g *Graph) Contains(asn ASN) bool {
	_, ok := g.index[asn]
	return ok
}

// Index returns the dense index of asn.
func (g *Graph) Index(asn ASN) (int, bool) {
	i, ok := g.index[asn]
	return i, ok
}

// ASNAt returns the AS with dense index i.
func (g *Graph) ASNAt(i int) ASN { return g.asns[i] }

// Degree returns the neighbour count of asn, or 0 if it is unknown.
func (g *Graph) Degree(asn ASN) int {
	i, ok := g.index[asn]
	if !ok {
		return 0
	}
	return len(g.adj[i])
}

// DegreeAt returns the neighbour count of the AS with dense index i.
func (g *Graph) DegreeAt(i int) int { return len(g.adj[i]) }

// Neighbors returns the adjacency list of asn sorted by ASN.
func (g *Graph) Neighbors(asn ASN) []Neighbor {
	i, ok := g.index[asn]
	if !ok {
		return nil
	}
	return g.adj[i]
}

// NeighborsAt returns the adjacency list of the AS with dense index i.
func (g *Graph) NeighborsAt(i int) []Neighbor { return g.adj[i] }

// Relationship returns the kind of the link between a and b.
func (g *Graph) Relationship(a, b ASN) (Relationship, bool) {
	nbrs := g.Neighbors(a)
	j := sort.Search(len(nbrs), func(k int) bool { return nbrs[k].ASN >= b })
	if j < len(nbrs) && nbrs[j].ASN == b {
		return nbrs[j].Rel, true
	}
	return Unknown, false
}

// builder accumulates links during parsing. Links are keyed by the ordered
// pair so a repeated record overwrites the earlier relationship. ASes named
// only by self-referencing records are kept in loners.
type builder struct {
	links  map[uint64]Relationship
	loners map[ASN]struct{}
	stats  LoadStats
}

func newBuilder() *builder {
	return &builder{
		links:  make(map[uint64]Relationship),
		loners: make(map[ASN]struct{}),
	}
}

func pairKey(a, b ASN) uint64 {
	if a > b {
		a, b = b, a
	}
	return uint64(a)<<32 | uint64(b)
}

func (b *builder) add(src, dst ASN, rel Relationship) {
	if src == dst {
		b.stats.SelfLoops++
		b.loners[src] = struct{}{}
		return
	}
	key := pairKey(src, dst)
	if _, dup := b.links[key]; dup {
		b.stats.Duplicates++
	}
	b.links[key] = rel
	b.stats.Records++
}

// freeze converts the accumulated links into a Graph. Adjacency lists are
// sorted on the worker pool; each worker owns a disjoint index range.
func (b *builder) freeze(workers int) (*Graph, error) {
	degree := make(map[ASN]int)
	for key := range b.links {
		degree[ASN(key>>32)]++
		degree[ASN(key&0xffffffff)]++
	}
	for asn := range b.loners {
		if _, ok := degree[asn]; !ok {
			degree[asn] = 0
		}
	}

	asns := make([]ASN, 0, len(degree))
	for asn := range degree {
		asns = append(asns, asn)
	}
	sort.Slice(asns, func(i, j int) bool { return asns[i] < asns[j] })

	index := make(map[ASN]int, len(asns))
	adj := make([][]Neighbor, len(asns))
	for i, asn := range asns {
		index[asn] = i
		adj[i] = make([]Neighbor, 0, degree[asn])
	}

	for key, rel := range b.links {
		lo, hi := ASN(key>>32), ASN(key&0xffffffff)
		adj[index[lo]] = append(adj[index[lo]], Neighbor{ASN: hi, Rel: rel})
		adj[index[hi]] = append(adj[index[hi]], Neighbor{ASN: lo, Rel: rel})
	}

	err := parallel.ForEachRange(len(adj), workers, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			nbrs := adj[i]
			sort.Slice(nbrs, func(x, y int) bool { return nbrs[x].ASN < nbrs[y].ASN })
		}
	})
	if err != nil {
		return nil, err
	}

	return &Graph{
		asns:  asns,
		index: index,
		adj:   adj,
		edges: len(b.links),
		stats: b.stats,
	}, nil
}

// FromLinks builds a Graph from in-memory links, mostly for tests and for
// callers that already hold parsed data.
func FromLinks(links []Link) *Graph {
	b := newBuilder()
	for _, l := range links {
		b.add(l.Source, l.Target, l.Rel)
	}
	b.stats.Lines = len(links)
	g, err := b.freeze(1)
	if err != nil {
		// a single-worker freeze only fails if sorting panics
		panic(err)
	}
	return g
}

// Link is one parsed AS-links record.
type Link struct {
	Source ASN
	Target ASN
	Rel    Relationship
}
