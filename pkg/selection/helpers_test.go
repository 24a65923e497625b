package selection

import (
	"math/rand/v2"

	"github.com/dd0wney/caida-topogen/pkg/aslinks"
)

func pathGraph(n int, rel aslinks.Relationship) *aslinks.Graph {
	links := make([]aslinks.Link, 0, n-1)
	for i := 1; i < n; i++ {
		links = append(links, aslinks.Link{Source: aslinks.ASN(i), Target: aslinks.ASN(i + 1), Rel: rel})
	}
	return aslinks.FromLinks(links)
}

func twoTriangles() *aslinks.Graph {
	return aslinks.FromLinks([]aslinks.Link{
		{Source: 1, Target: 2}, {Source: 2, Target: 3}, {Source: 3, Target: 1},
		{Source: 11, Target: 12}, {Source: 12, Target: 13}, {Source: 13, Target: 11},
	})
}

// twoHubs joins hubs 100 and 200 (five leaves each) through AS 300.
func twoHubs() *aslinks.Graph {
	var links []aslinks.Link
	for i := 1; i <= 5; i++ {
		links = append(links, aslinks.Link{Source: 100, Target: aslinks.ASN(i), Rel: aslinks.CustomerProvider})
		links = append(links, aslinks.Link{Source: 200, Target: aslinks.ASN(i + 5), Rel: aslinks.CustomerProvider})
	}
	links = append(links,
		aslinks.Link{Source: 300, Target: 100, Rel: aslinks.PeerPeer},
		aslinks.Link{Source: 300, Target: 200, Rel: aslinks.PeerPeer},
	)
	return aslinks.FromLinks(links)
}

// star joins hub to leaves ASes numbered 1..leaves.
func star(hub aslinks.ASN, leaves int) *aslinks.Graph {
	links := make([]aslinks.Link, 0, leaves)
	for i := 1; i <= leaves; i++ {
		links = append(links, aslinks.Link{Source: aslinks.ASN(i), Target: hub, Rel: aslinks.CustomerProvider})
	}
	return aslinks.FromLinks(links)
}

// grid builds a w x h lattice; AS numbers start at 1, row-major.
func grid(w, h int) *aslinks.Graph {
	id := func(r, c int) aslinks.ASN { return aslinks.ASN(r*w + c + 1) }
	var links []aslinks.Link
	for r := 0; r < h; r++ {
		for c := 0; c < w; c++ {
			if c+1 < w {
				links = append(links, aslinks.Link{Source: id(r, c), Target: id(r, c+1), Rel: aslinks.PeerPeer})
			}
			if r+1 < h {
				links = append(links, aslinks.Link{Source: id(r, c), Target: id(r+1, c), Rel: aslinks.CustomerProvider})
			}
		}
	}
	return aslinks.FromLinks(links)
}

// randomConnected builds a random spanning tree over n ASes plus extra edges.
func randomConnected(seed uint64, n, extra int) *aslinks.Graph {
	rng := rand.New(rand.NewPCG(seed, 1))
	links := make([]aslinks.Link, 0, n+extra)
	for i := 2; i <= n; i++ {
		parent := rng.IntN(i-1) + 1
		links = append(links, aslinks.Link{Source: aslinks.ASN(i * 7), Target: aslinks.ASN(parent * 7), Rel: aslinks.Relationship(rng.IntN(4))})
	}
	for k := 0; k < extra; k++ {
		a, b := rng.IntN(n)+1, rng.IntN(n)+1
		links = append(links, aslinks.Link{Source: aslinks.ASN(a * 7), Target: aslinks.ASN(b * 7), Rel: aslinks.PeerPeer})
	}
	return aslinks.FromLinks(links)
}

func asSet(nodes []aslinks.ASN) map[aslinks.ASN]bool {
	m := make(map[aslinks.ASN]bool, len(nodes))
	for _, n := range nodes {
		m[n] = true
	}
	return m
}
