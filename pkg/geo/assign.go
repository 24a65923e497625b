package geo

import (
	"net/netip"
)

// Assignment is the region and address chosen for each candidate, in input
// order. IPs[i] is the zero Addr when the region pool ran dry.
type Assignment struct {
	Regions    []string
	IPs        []netip.Addr
	Unassigned int
	PerRegion  map[string]int
}

// Assign classifies cands and draws addresses from each region's pool in
// candidate order.
func Assign(p Plan, cands []Candidate, workers int) (*Assignment, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	idx, err := Classify(p, cands, workers)
	if err != nil {
		return nil, err
	}

	pools := make([]*Pool, len(p.Regions))
	for i, r := range p.Regions {
		prefix, err := r.Prefix()
		if err != nil {
			return nil, err
		}
		if pools[i], err = NewPool(prefix); err != nil {
			return nil, err
		}
	}

	a := &Assignment{
		Regions:   make([]string, len(cands)),
		IPs:       make([]netip.Addr, len(cands)),
		PerRegion: make(map[string]int, len(p.Regions)),
	}
	for i, r := range idx {
		name := p.Regions[r].Name
		a.Regions[i] = name
		a.PerRegion[name]++
		if addr, ok := pools[r].Next(); ok {
			a.IPs[i] = addr
		} else {
			a.Unassigned++
		}
	}
	return a, nil
}
