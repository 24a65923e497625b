package aslinks

// Relationship classifies an AS-to-AS link. The set is closed: codes the
// parser does not recognise become Unknown, never a guessed kind.
type Relationship uint8

const (
	Unknown Relationship = iota
	CustomerProvider
	PeerPeer
	Sibling
	// LocalLoop is never parsed from input; it tags synthetic self-loops.
	LocalLoop
)

// ParseRelationship maps a raw CAIDA relationship code to a Relationship.
//
// Two conventions are in circulation: the as-rel style (-1 provider/customer,
// 0 peer, -2 sibling) and the serial-2 style (1/2 provider/customer, 3 peer,
// 4 sibling). They do not overlap, so both are accepted.
func ParseRelationship(code string) Relationship {
	switch code {
	case "-1", "1", "2":
		return CustomerProvider
	case "0", "3":
		return PeerPeer
	case "-2", "4":
		return Sibling
	default:
		return Unknown
	}
}

func (r Relationship) String() string {
	switch r {
	case CustomerProvider:
		return "customer-provider"
	case PeerPeer:
		return "peer-peer"
	case Sibling:
		return "sibling"
	case LocalLoop:
		return "local"
	default:
		return "unknown"
	}
}
