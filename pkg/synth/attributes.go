package synth

import (
	"time"

	"github.com/dd0wney/caida-topogen/pkg/aslinks"
	"github.com/dd0wney/caida-topogen/pkg/topology"
)

// Attributes are the link properties derived from a relationship.
type Attributes struct {
	Latency   time.Duration
	Bandwidth topology.Bandwidth
}

var attributeTable = map[aslinks.Relationship]Attributes{
	aslinks.CustomerProvider: {50 * time.Millisecond, 100 * topology.Mbit},
	aslinks.PeerPeer:         {10 * time.Millisecond, topology.Gbit},
	aslinks.Sibling:          {5 * time.Millisecond, 10 * topology.Gbit},
	aslinks.LocalLoop:        {time.Millisecond, 10 * topology.Gbit},
}

// defaultAttributes covers Unknown and anything outside the table.
var defaultAttributes = Attributes{20 * time.Millisecond, 500 * topology.Mbit}

// AttributesFor returns the latency and bandwidth of a relationship.
func AttributesFor(rel aslinks.Relationship) Attributes {
	if a, ok := attributeTable[rel]; ok {
		return a
	}
	return defaultAttributes
}
