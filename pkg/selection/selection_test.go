package selection

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/dd0wney/caida-topogen/pkg/aslinks"
)

func mustSelect(t *testing.T, s Strategy, opts Options, g *aslinks.Graph, target int) *Result {
	t.Helper()
	sel, err := New(s, opts)
	if err != nil {
		t.Fatalf("New(%s): %v", s, err)
	}
	res, err := sel.Select(g, target)
	if err != nil {
		t.Fatalf("Select(%s, %d): %v", s, target, err)
	}
	return res
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"", Auto, false},
		{"auto", Auto, false},
		{"BFS", BFS, false},
		{"high-degree", HighDegree, false},
		{"high_degree", HighDegree, false},
		{"hierarchical", Hierarchical, false},
		{" tiered ", Hierarchical, false},
		{"random", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStrategy(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownStrategy) {
					t.Fatalf("err = %v, want ErrUnknownStrategy", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseStrategy(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestResolveAndScale(t *testing.T) {
	if got := Resolve(Auto); got != BFS {
		t.Errorf("Resolve(Auto) = %q, want bfs", got)
	}
	if got := Resolve(Hierarchical); got != Hierarchical {
		t.Errorf("Resolve(Hierarchical) = %q", got)
	}

	scales := map[int]string{1: "small", 500: "small", 501: "medium", 2000: "medium", 2001: "large"}
	for target, want := range scales {
		if got := ScaleClass(target); got != want {
			t.Errorf("ScaleClass(%d) = %q, want %q", target, got, want)
		}
	}
}

func TestNew_RejectsAuto(t *testing.T) {
	if _, err := New(Auto, Options{}); !errors.Is(err, ErrUnknownStrategy) {
		t.Errorf("New(Auto) err = %v, want ErrUnknownStrategy", err)
	}
}

func TestSelect_Errors(t *testing.T) {
	for _, s := range []Strategy{BFS, HighDegree, Hierarchical} {
		t.Run(string(s), func(t *testing.T) {
			sel, _ := New(s, Options{})

			_, err := sel.Select(aslinks.FromLinks(nil), 5)
			if !errors.Is(err, ErrSourceTooSmall) {
				t.Fatalf("empty source err = %v, want ErrSourceTooSmall", err)
			}
			var tooSmall *SourceTooSmallError
			if !errors.As(err, &tooSmall) || tooSmall.Observed != 0 || tooSmall.Minimum != MinSourceNodes {
				t.Errorf("SourceTooSmallError = %+v", tooSmall)
			}

			if _, err := sel.Select(pathGraph(4, aslinks.PeerPeer), 0); !errors.Is(err, ErrInvalidTarget) {
				t.Errorf("target 0 err = %v, want ErrInvalidTarget", err)
			}
		})
	}
}

func TestBFS_PathGraph(t *testing.T) {
	res := mustSelect(t, BFS, Options{}, pathGraph(10, aslinks.PeerPeer), 5)

	want := []aslinks.ASN{2, 3, 1, 4, 5}
	if !reflect.DeepEqual(res.Nodes, want) {
		t.Errorf("Nodes = %v, want %v", res.Nodes, want)
	}
	if !reflect.DeepEqual(res.Sorted(), []aslinks.ASN{1, 2, 3, 4, 5}) {
		t.Errorf("Sorted() = %v", res.Sorted())
	}
	if res.Components != 1 || res.Diagnostic != "" {
		t.Errorf("Components = %d, Diagnostic = %q", res.Components, res.Diagnostic)
	}
}

func TestBFS_ClampsToSource(t *testing.T) {
	res := mustSelect(t, BFS, Options{}, pathGraph(10, aslinks.PeerPeer), 50)
	if res.Len() != 10 {
		t.Errorf("Len() = %d, want 10", res.Len())
	}
	if !res.Clamped() {
		t.Error("Clamped() = false, want true")
	}
	if res.Diagnostic != "" {
		t.Errorf("unexpected diagnostic %q", res.Diagnostic)
	}
}

func TestBFS_DisconnectedSourceStopsAtComponent(t *testing.T) {
	res := mustSelect(t, BFS, Options{}, twoTriangles(), 5)
	if res.Len() != 3 {
		t.Errorf("Len() = %d, want 3", res.Len())
	}
	if res.Diagnostic == "" {
		t.Error("expected a diagnostic for an unreachable target")
	}
	if countComponents(twoTriangles(), res.Nodes) != 1 {
		t.Error("BFS result must stay connected")
	}
}

func TestHighDegree(t *testing.T) {
	t.Run("already connected", func(t *testing.T) {
		res := mustSelect(t, HighDegree, Options{}, pathGraph(10, aslinks.PeerPeer), 3)
		if !reflect.DeepEqual(res.Nodes, []aslinks.ASN{2, 3, 4}) {
			t.Errorf("Nodes = %v, want [2 3 4]", res.Nodes)
		}
		if res.RepairRounds != 0 || res.BridgesAdded != 0 || res.Components != 1 {
			t.Errorf("unexpected repair: %+v", res)
		}
	})

	t.Run("single bridge", func(t *testing.T) {
		res := mustSelect(t, HighDegree, Options{}, twoHubs(), 2)
		if !reflect.DeepEqual(res.Nodes, []aslinks.ASN{100, 200, 300}) {
			t.Errorf("Nodes = %v, want [100 200 300]", res.Nodes)
		}
		if res.BridgesAdded != 1 || res.RepairRounds != 1 || res.Components != 1 {
			t.Errorf("BridgesAdded=%d RepairRounds=%d Components=%d", res.BridgesAdded, res.RepairRounds, res.Components)
		}
	})

	t.Run("no bridge candidates", func(t *testing.T) {
		g := twoTriangles()
		res := mustSelect(t, HighDegree, Options{}, g, 6)
		if res.Len() != 6 {
			t.Errorf("Len() = %d, want 6", res.Len())
		}
		if res.Components != 2 {
			t.Errorf("Components = %d, want 2", res.Components)
		}
		if !strings.Contains(res.Diagnostic, "no bridge candidates remain") {
			t.Errorf("Diagnostic = %q", res.Diagnostic)
		}
	})

	t.Run("two-hop gap is not bridged", func(t *testing.T) {
		var links []aslinks.Link
		for i := 1; i <= 5; i++ {
			links = append(links,
				aslinks.Link{Source: 100, Target: aslinks.ASN(i)},
				aslinks.Link{Source: 200, Target: aslinks.ASN(i + 5)})
		}
		links = append(links,
			aslinks.Link{Source: 100, Target: 301},
			aslinks.Link{Source: 301, Target: 302},
			aslinks.Link{Source: 302, Target: 200})
		res := mustSelect(t, HighDegree, Options{}, aslinks.FromLinks(links), 2)
		if res.Len() != 2 || res.Components != 2 || res.RepairRounds != 1 {
			t.Errorf("Len=%d Components=%d RepairRounds=%d", res.Len(), res.Components, res.RepairRounds)
		}
	})
}

// cascade needs two repair rounds: AS 400 only bridges once AS 500 is in.
func cascade() *aslinks.Graph {
	var links []aslinks.Link
	for i := 1; i <= 5; i++ {
		links = append(links,
			aslinks.Link{Source: 100, Target: aslinks.ASN(i)},
			aslinks.Link{Source: 200, Target: aslinks.ASN(i + 5)},
			aslinks.Link{Source: 300, Target: aslinks.ASN(i + 10)})
	}
	links = append(links,
		aslinks.Link{Source: 500, Target: 100},
		aslinks.Link{Source: 500, Target: 200},
		aslinks.Link{Source: 400, Target: 300},
		aslinks.Link{Source: 400, Target: 500},
		aslinks.Link{Source: 400, Target: 16})
	return aslinks.FromLinks(links)
}

func TestHighDegree_RepairCap(t *testing.T) {
	res := mustSelect(t, HighDegree, Options{MaxRepairRounds: 1}, cascade(), 3)
	if res.Components != 2 || res.RepairRounds != 1 {
		t.Errorf("Components=%d RepairRounds=%d, want 2 and 1", res.Components, res.RepairRounds)
	}
	if !strings.Contains(res.Diagnostic, "repair cap of 1 rounds reached") {
		t.Errorf("Diagnostic = %q", res.Diagnostic)
	}

	res = mustSelect(t, HighDegree, Options{}, cascade(), 3)
	if !reflect.DeepEqual(res.Nodes, []aslinks.ASN{100, 200, 300, 500, 400}) {
		t.Errorf("Nodes = %v", res.Nodes)
	}
	if res.Components != 1 || res.RepairRounds != 2 || res.BridgesAdded != 2 {
		t.Errorf("Components=%d RepairRounds=%d BridgesAdded=%d", res.Components, res.RepairRounds, res.BridgesAdded)
	}
	if res.Diagnostic != "" {
		t.Errorf("unexpected diagnostic %q", res.Diagnostic)
	}
}

func TestClassifyTiers(t *testing.T) {
	tiers := ClassifyTiers(grid(20, 20))
	if len(tiers.Tier1) != 4 || len(tiers.Tier2) != 40 || len(tiers.Tier3) != 356 {
		t.Errorf("tier sizes = %d/%d/%d, want 4/40/356", len(tiers.Tier1), len(tiers.Tier2), len(tiers.Tier3))
	}

	small := ClassifyTiers(pathGraph(2, aslinks.PeerPeer))
	if len(small.Tier1) != 1 || len(small.Tier2) != 0 || len(small.Tier3) != 1 {
		t.Errorf("two-node tiers = %d/%d/%d, want 1/0/1", len(small.Tier1), len(small.Tier2), len(small.Tier3))
	}
}

func TestHierarchical_GridExactAndDeterministic(t *testing.T) {
	g := grid(20, 20)
	a := mustSelect(t, Hierarchical, Options{Seed: 7}, g, 50)
	b := mustSelect(t, Hierarchical, Options{Seed: 7}, g, 50)

	if a.Len() != 50 {
		t.Errorf("Len() = %d, want 50", a.Len())
	}
	if a.Components != 1 {
		t.Errorf("Components = %d, want 1 (%s)", a.Components, a.Diagnostic)
	}
	if !reflect.DeepEqual(a.Nodes, b.Nodes) {
		t.Error("same seed produced different selections")
	}
	if len(asSet(a.Nodes)) != a.Len() {
		t.Error("selection contains duplicates")
	}
}

func TestHierarchical_Clamped(t *testing.T) {
	res := mustSelect(t, Hierarchical, Options{Seed: 1}, grid(5, 4), 100)
	if res.Len() != 20 || res.Components != 1 {
		t.Errorf("Len=%d Components=%d, want 20 and 1", res.Len(), res.Components)
	}
}

// tierSample replays the hierarchical sampler's draws for seed.
func tierSample(g *aslinks.Graph, want int, seed int64) map[aslinks.ASN]bool {
	tiers := ClassifyTiers(g)
	q1 := max(1, want*tier1Quota/100)
	q2 := want * tier2Quota / 100
	q3 := want - q1 - q2

	rng := NewRand(seed)
	var picked []int
	picked = append(picked, tiers.Tier1[:min(q1, len(tiers.Tier1))]...)
	picked = append(picked, sample(rng, tiers.Tier2, q2)...)
	picked = append(picked, sample(rng, tiers.Tier3, q3)...)

	out := make(map[aslinks.ASN]bool, len(picked))
	for _, idx := range picked {
		out[g.ASNAt(idx)] = true
	}
	return out
}

func TestHierarchical_SampleBeforeFallback(t *testing.T) {
	g := star(1000, 199)
	const want = 20

	for _, seed := range []int64{3, 11} {
		res := mustSelect(t, Hierarchical, Options{Seed: seed}, g, want)
		sampled := tierSample(g, want, seed)

		// 2 Tier-1 seeds plus 8 Tier-2 and 8 Tier-3 draws
		if len(sampled) != 18 {
			t.Fatalf("seed %d: sample size = %d, want 18", seed, len(sampled))
		}
		if res.Len() != want || res.Components != 1 {
			t.Fatalf("seed %d: Len=%d Components=%d, want %d and 1", seed, res.Len(), res.Components, want)
		}
		if res.FallbackAdmitted != want-len(sampled) {
			t.Errorf("seed %d: FallbackAdmitted = %d, want %d", seed, res.FallbackAdmitted, want-len(sampled))
		}

		inSample := res.Len() - res.FallbackAdmitted
		for i, asn := range res.Nodes {
			if got := sampled[asn]; got != (i < inSample) {
				t.Errorf("seed %d: AS%d at position %d has sampled=%v, sample occupies [0,%d)",
					seed, asn, i, got, inSample)
			}
		}
	}

	a := asSet(mustSelect(t, Hierarchical, Options{Seed: 3}, g, want).Nodes)
	b := asSet(mustSelect(t, Hierarchical, Options{Seed: 11}, g, want).Nodes)
	if reflect.DeepEqual(a, b) {
		t.Error("different seeds selected the same node set")
	}
}

func TestSample(t *testing.T) {
	pool := []int{10, 11, 12, 13, 14, 15, 16, 17}

	got := sample(NewRand(3), pool, 5)
	if len(got) != 5 {
		t.Fatalf("len = %d, want 5", len(got))
	}
	seen := make(map[int]bool)
	for _, v := range got {
		if v < 10 || v > 17 || seen[v] {
			t.Fatalf("bad sample %v", got)
		}
		seen[v] = true
	}
	if !reflect.DeepEqual(got, sample(NewRand(3), pool, 5)) {
		t.Error("sample is not deterministic for a fixed seed")
	}
	if !reflect.DeepEqual(pool, []int{10, 11, 12, 13, 14, 15, 16, 17}) {
		t.Error("sample mutated its input")
	}

	if n := len(sample(NewRand(3), pool, 20)); n != len(pool) {
		t.Errorf("oversized sample len = %d, want %d", n, len(pool))
	}
	if sample(NewRand(3), pool, 0) != nil {
		t.Error("zero-size sample should be nil")
	}
}
