package selection

// unionFind is an arena-indexed disjoint-set forest over dense local indices
// with path compression and union by rank. Indices are handed out by add so
// the structure can grow as bridge nodes are admitted.
type unionFind struct {
	parent []int32
	rank   []uint8
	count  int
}

func newUnionFind(capacity int) *unionFind {
	return &unionFind{
		parent: make([]int32, 0, capacity),
		rank:   make([]uint8, 0, capacity),
	}
}

// add creates a new singleton set and returns its index.
func (u *unionFind) add() int {
	i := len(u.parent)
	u.parent = append(u.parent, int32(i))
	u.rank = append(u.rank, 0)
	u.count++
	return i
}

// find returns the root of x, compressing the path iteratively.
func (u *unionFind) find(x int) int {
	root := x
	for int(u.parent[root]) != root {
		root = int(u.parent[root])
	}
	for int(u.parent[x]) != root {
		next := int(u.parent[x])
		u.parent[x] = int32(root)
		x = next
	}
	return root
}

// union merges the sets of a and b and reports whether they were distinct.
func (u *unionFind) union(a, b int) bool {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return false
	}
	switch {
	case u.rank[ra] < u.rank[rb]:
		u.parent[ra] = int32(rb)
	case u.rank[ra] > u.rank[rb]:
		u.parent[rb] = int32(ra)
	default:
		u.parent[rb] = int32(ra)
		u.rank[ra]++
	}
	u.count--
	return true
}

// Count returns the number of disjoint sets.
func (u *unionFind) Count() int { return u.count }

// Len returns the number of elements.
func (u *unionFind) Len() int { return len(u.parent) }
