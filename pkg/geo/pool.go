package geo

import (
	"errors"
	"fmt"
	"net/netip"
)

// ErrNotIPv4 is returned for a pool over a non-IPv4 prefix.
var ErrNotIPv4 = errors.New("region prefix must be IPv4")

// Pool hands out host addresses of a prefix in ascending order. Addresses are
// never reissued.
type Pool struct {
	prefix netip.Prefix
	next   netip.Addr
	last   netip.Addr
	done   bool
	issued int
}

// NewPool builds a pool over p. For prefixes shorter than /31 the network
// and broadcast addresses are excluded.
func NewPool(p netip.Prefix) (*Pool, error) {
	if !p.IsValid() || !p.Addr().Is4() {
		return nil, fmt.Errorf("%w: %s", ErrNotIPv4, p)
	}
	p = p.Masked()
	first, last := p.Addr(), broadcast(p)
	if p.Bits() < 31 {
		first, last = first.Next(), last.Prev()
	}
	return &Pool{prefix: p, next: first, last: last}, nil
}

func broadcast(p netip.Prefix) netip.Addr {
	a := p.Addr().As4()
	host := uint32(1)<<(32-p.Bits()) - 1
	v := uint32(a[0])<<24 | uint32(a[1])<<16 | uint32(a[2])<<8 | uint32(a[3])
	v |= host
	return netip.AddrFrom4([4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}

// Prefix returns the pool's prefix.
func (p *Pool) Prefix() netip.Prefix { return p.prefix }

// Issued returns how many addresses were handed out.
func (p *Pool) Issued() int { return p.issued }

// Next returns the next free address, or false once the pool is exhausted.
func (p *Pool) Next() (netip.Addr, bool) {
	if p.done {
		return netip.Addr{}, false
	}
	addr := p.next
	if addr == p.last {
		p.done = true
	} else {
		p.next = addr.Next()
	}
	p.issued++
	return addr, true
}
