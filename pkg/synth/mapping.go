package synth

import (
	"sort"

	"github.com/dd0wney/caida-topogen/pkg/aslinks"
)

// Mapping is the bijection between selected ASNs and dense ids [0, N).
// Ids follow ascending ASN.
type Mapping struct {
	asns []aslinks.ASN
	ids  map[aslinks.ASN]int
}

// Renumber sorts the selection and assigns ids 0..N-1. Repeated ASNs are
// collapsed.
func Renumber(asns []aslinks.ASN) Mapping {
	sorted := make([]aslinks.ASN, len(asns))
	copy(sorted, asns)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	m := Mapping{
		asns: sorted[:0],
		ids:  make(map[aslinks.ASN]int, len(sorted)),
	}
	for _, asn := range sorted {
		if _, dup := m.ids[asn]; dup {
			continue
		}
		m.ids[asn] = len(m.asns)
		m.asns = append(m.asns, asn)
	}
	return m
}

// Len returns N.
func (m Mapping) Len() int { return len(m.asns) }

// ID returns the dense id of asn.
func (m Mapping) ID(asn aslinks.ASN) (int, bool) {
	id, ok := m.ids[asn]
	return id, ok
}

// ASN returns the original AS number of id. It panics if id is out of range.
func (m Mapping) ASN(id int) aslinks.ASN { return m.asns[id] }

// ASNs returns the selection in id order.
func (m Mapping) ASNs() []aslinks.ASN { return m.asns }
