package geo

import (
	"fmt"
	"math"
	"sort"

	"github.com/dd0wney/caida-topogen/pkg/aslinks"
	"github.com/dd0wney/caida-topogen/pkg/parallel"
)

// Classifier names.
const (
	ASNRange     = "asn-range"
	Proportional = "proportional"
)

// Classifiers lists the accepted classifier names.
func Classifiers() []string { return []string{ASNRange, Proportional} }

// Candidate is a node awaiting a region.
type Candidate struct {
	ASN    aslinks.ASN
	Degree int
}

// asnRange is the upper bound (exclusive) of each AS-number band.
var asnRange = []struct {
	below  aslinks.ASN
	region string
}{
	{1000, Europe},
	{4000, Oceania},
	{10000, Asia},
	{20000, NorthAmerica},
	{30000, SouthAmerica},
	{40000, Africa},
}

// RegionForASN applies the fixed AS-number band table.
func RegionForASN(asn aslinks.ASN) string {
	for _, band := range asnRange {
		if asn < band.below {
			return band.region
		}
	}
	return Asia
}

func rangeRegionNames() []string {
	seen := make(map[string]bool)
	var out []string
	for _, band := range asnRange {
		if !seen[band.region] {
			seen[band.region] = true
			out = append(out, band.region)
		}
	}
	return out
}

// Classify returns the plan region index of every candidate, in input order.
func Classify(p Plan, cands []Candidate, workers int) ([]int, error) {
	switch p.Classifier {
	case ASNRange, "":
		return classifyByRange(p, cands, workers)
	case Proportional:
		return classifyProportional(p, cands), nil
	default:
		return nil, fmt.Errorf("%w: unknown classifier %q", ErrInvalidPlan, p.Classifier)
	}
}

// classifyByRange looks candidates up independently on the worker pool; each
// worker writes a disjoint range of out.
func classifyByRange(p Plan, cands []Candidate, workers int) ([]int, error) {
	lookup := make(map[string]int, len(p.Regions))
	for i, r := range p.Regions {
		lookup[r.Name] = i
	}
	for _, name := range rangeRegionNames() {
		if _, ok := lookup[name]; !ok {
			return nil, fmt.Errorf("%w: asn-range classifier needs region %q", ErrInvalidPlan, name)
		}
	}

	out := make([]int, len(cands))
	err := parallel.ForEachRange(len(cands), workers, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			out[i] = lookup[RegionForASN(cands[i].ASN)]
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// classifyProportional sizes each region by largest remainder and fills the
// regions in plan order with candidates ranked by degree desc, ASN asc.
func classifyProportional(p Plan, cands []Candidate) []int {
	quotas := Quotas(p.Regions, len(cands))

	rank := make([]int, len(cands))
	for i := range rank {
		rank[i] = i
	}
	sort.SliceStable(rank, func(a, b int) bool {
		ca, cb := cands[rank[a]], cands[rank[b]]
		if ca.Degree != cb.Degree {
			return ca.Degree > cb.Degree
		}
		return ca.ASN < cb.ASN
	})

	out := make([]int, len(cands))
	region := 0
	for _, idx := range rank {
		for quotas[region] == 0 {
			region++
		}
		out[idx] = region
		quotas[region]--
	}
	return out
}

// Quotas splits n nodes over regions by the largest remainder method. Ties on
// remainder go to the earlier region.
func Quotas(regions []Region, n int) []int {
	quotas := make([]int, len(regions))
	if len(regions) == 0 || n == 0 {
		return quotas
	}

	var total float64
	for _, r := range regions {
		total += r.Proportion
	}

	type rem struct {
		idx  int
		frac float64
	}
	rems := make([]rem, len(regions))
	assigned := 0
	for i, r := range regions {
		exact := float64(n) * r.Proportion / total
		whole := math.Floor(exact)
		quotas[i] = int(whole)
		assigned += quotas[i]
		rems[i] = rem{idx: i, frac: exact - whole}
	}
	sort.SliceStable(rems, func(a, b int) bool { return rems[a].frac > rems[b].frac })
	for k := 0; assigned < n; k++ {
		quotas[rems[k%len(rems)].idx]++
		assigned++
	}
	return quotas
}
