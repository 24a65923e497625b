package gml

import (
	"errors"
	"fmt"
	"io"
	"net/netip"
	"os"
	"strconv"
	"time"

	"github.com/dd0wney/caida-topogen/pkg/aslinks"
	"github.com/dd0wney/caida-topogen/pkg/topology"
)

// Value is a GML value: a scalar literal or a nested list.
type Value struct {
	// Text is the literal, without quotes for strings.
	Text   string
	Quoted bool
	// List is non-nil for a bracketed value.
	List []Pair
}

// IsList reports whether the value is a nested list.
func (v Value) IsList() bool { return v.List != nil }

// Int parses an unquoted integer.
func (v Value) Int() (int64, error) {
	if v.Quoted || v.IsList() {
		return 0, fmt.Errorf("value %q is not an integer", v.Text)
	}
	return strconv.ParseInt(v.Text, 10, 64)
}

// Float parses an unquoted number.
func (v Value) Float() (float64, error) {
	if v.Quoted || v.IsList() {
		return 0, fmt.Errorf("value %q is not a number", v.Text)
	}
	return strconv.ParseFloat(v.Text, 64)
}

// Pair is one key/value entry of a list.
type Pair struct {
	Key   string
	Value Value
}

// Node is a parsed node block. Attrs holds every key except id.
type Node struct {
	ID    int
	Attrs map[string]Value
}

func (n Node) attr(key string) (string, bool) {
	v, ok := n.Attrs[key]
	if !ok || v.IsList() {
		return "", false
	}
	return v.Text, true
}

// ASN returns the AS attribute.
func (n Node) ASN() (aslinks.ASN, bool) {
	s, ok := n.attr("AS")
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return aslinks.ASN(v), true
}

// Region returns the region attribute.
func (n Node) Region() (string, bool) { return n.attr("region") }

// IP returns the ip attribute if it holds a valid address.
func (n Node) IP() (netip.Addr, bool) {
	s, ok := n.attr("ip")
	if !ok {
		return netip.Addr{}, false
	}
	addr, err := netip.ParseAddr(s)
	return addr, err == nil
}

// Edge is a parsed edge block. Attrs holds every key except source and
// target.
type Edge struct {
	Source int
	Target int
	Attrs  map[string]Value
}

// Latency parses the latency attribute.
func (e Edge) Latency() (time.Duration, bool) {
	v, ok := e.Attrs["latency"]
	if !ok {
		return 0, false
	}
	d, err := topology.ParseLatency(v.Text)
	return d, err == nil
}

// PacketLoss returns the packet_loss attribute as a percentage; "0.5%" and
// 0.5 both read as 0.5.
func (e Edge) PacketLoss() (float64, bool) {
	v, ok := e.Attrs["packet_loss"]
	if !ok {
		return 0, false
	}
	pct, err := topology.ParseLoss(v.Text)
	return pct, err == nil
}

// Graph is a parsed GML document.
type Graph struct {
	Directed bool
	Attrs    map[string]Value
	Nodes    []Node
	Edges    []Edge
}

// ErrStructure is returned for well-formed GML that is not a usable graph.
var ErrStructure = errors.New("invalid gml graph")

// ParseFile reads and parses a GML file.
func ParseFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a document whose top level holds a single graph list.
func Parse(r io.Reader) (*Graph, error) {
	p := &parser{lex: newLexer(r)}
	if err := p.advance(); err != nil {
		return nil, err
	}

	top, err := p.list(false)
	if err != nil {
		return nil, err
	}
	for _, kv := range top {
		if kv.Key == "graph" && kv.Value.IsList() {
			return buildGraph(kv.Value.List)
		}
	}
	return nil, fmt.Errorf("%w: no graph block", ErrStructure)
}

type parser struct {
	lex *lexer
	tok token
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

// list parses key/value pairs until ']' (nested) or end of input (top level).
func (p *parser) list(nested bool) ([]Pair, error) {
	out := []Pair{}
	for {
		switch p.tok.kind {
		case tokClose:
			if !nested {
				return nil, &SyntaxError{Line: p.tok.line, Msg: "unbalanced ']'"}
			}
			return out, p.advance()
		case tokEOF:
			if nested {
				return nil, &SyntaxError{Line: p.tok.line, Msg: "missing ']'"}
			}
			return out, nil
		case tokIdent:
		default:
			return nil, &SyntaxError{Line: p.tok.line, Msg: fmt.Sprintf("expected key, found %v", p.tok.kind)}
		}

		key := p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		v, err := p.value(key)
		if err != nil {
			return nil, err
		}
		out = append(out, Pair{Key: key, Value: v})
	}
}

func (p *parser) value(key string) (Value, error) {
	t := p.tok
	switch t.kind {
	case tokOpen:
		if err := p.advance(); err != nil {
			return Value{}, err
		}
		items, err := p.list(true)
		return Value{List: items}, err
	case tokString:
		return Value{Text: t.text, Quoted: true}, p.advance()
	case tokNumber, tokIdent:
		return Value{Text: t.text}, p.advance()
	default:
		return Value{}, &SyntaxError{Line: t.line, Msg: fmt.Sprintf("missing value for %q", key)}
	}
}

func buildGraph(items []Pair) (*Graph, error) {
	g := &Graph{Attrs: make(map[string]Value)}
	for _, kv := range items {
		switch kv.Key {
		case "node":
			n, err := buildNode(kv.Value)
			if err != nil {
				return nil, err
			}
			g.Nodes = append(g.Nodes, n)
		case "edge":
			e, err := buildEdge(kv.Value)
			if err != nil {
				return nil, err
			}
			g.Edges = append(g.Edges, e)
		case "directed":
			d, err := kv.Value.Int()
			if err != nil {
				return nil, fmt.Errorf("%w: directed: %w", ErrStructure, err)
			}
			g.Directed = d != 0
		default:
			g.Attrs[kv.Key] = kv.Value
		}
	}
	return g, nil
}

func intField(v Value, block, key string) (int, error) {
	n, err := v.Int()
	if err != nil {
		return 0, fmt.Errorf("%w: %s %s: %w", ErrStructure, block, key, err)
	}
	return int(n), nil
}

func buildNode(v Value) (Node, error) {
	if !v.IsList() {
		return Node{}, fmt.Errorf("%w: node is not a list", ErrStructure)
	}
	n := Node{ID: -1, Attrs: make(map[string]Value)}
	for _, kv := range v.List {
		if kv.Key != "id" {
			n.Attrs[kv.Key] = kv.Value
			continue
		}
		id, err := intField(kv.Value, "node", "id")
		if err != nil {
			return Node{}, err
		}
		n.ID = id
	}
	if n.ID < 0 {
		return Node{}, fmt.Errorf("%w: node without id", ErrStructure)
	}
	return n, nil
}

func buildEdge(v Value) (Edge, error) {
	if !v.IsList() {
		return Edge{}, fmt.Errorf("%w: edge is not a list", ErrStructure)
	}
	e := Edge{Source: -1, Target: -1, Attrs: make(map[string]Value)}
	for _, kv := range v.List {
		var err error
		switch kv.Key {
		case "source":
			e.Source, err = intField(kv.Value, "edge", "source")
		case "target":
			e.Target, err = intField(kv.Value, "edge", "target")
		default:
			e.Attrs[kv.Key] = kv.Value
		}
		if err != nil {
			return Edge{}, err
		}
	}
	if e.Source < 0 || e.Target < 0 {
		return Edge{}, fmt.Errorf("%w: edge without source or target", ErrStructure)
	}
	return e, nil
}

// Validate rejects duplicate node ids and edges naming unknown nodes.
func (g *Graph) Validate() error {
	ids := make(map[int]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if ids[n.ID] {
			return fmt.Errorf("%w: duplicate node id %d", ErrStructure, n.ID)
		}
		ids[n.ID] = true
	}
	for _, e := range g.Edges {
		if !ids[e.Source] {
			return fmt.Errorf("%w: edge references unknown source %d", ErrStructure, e.Source)
		}
		if !ids[e.Target] {
			return fmt.Errorf("%w: edge references unknown target %d", ErrStructure, e.Target)
		}
	}
	return nil
}

// Topology converts the document into a topology. Node ids are remapped to
// positions in file order; self-loops become LocalLoop edges and every other
// edge has an Unknown kind since GML carries no relationship.
func (g *Graph) Topology() (*topology.Topology, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	t := &topology.Topology{
		Directed: g.Directed,
		Nodes:    make([]topology.Node, len(g.Nodes)),
		Edges:    make([]topology.Edge, len(g.Edges)),
	}
	pos := make(map[int]int, len(g.Nodes))
	for i, n := range g.Nodes {
		pos[n.ID] = i
		asn, _ := n.ASN()
		region, _ := n.Region()
		ip, _ := n.IP()
		bw, _ := bandwidthAttr(n.Attrs)
		t.Nodes[i] = topology.Node{ID: i, ASN: asn, Region: region, IP: ip, Bandwidth: bw}
	}
	for i, e := range g.Edges {
		kind := aslinks.Unknown
		if e.Source == e.Target {
			kind = aslinks.LocalLoop
		}
		latency, _ := e.Latency()
		loss, _ := e.PacketLoss()
		bw, _ := bandwidthAttr(e.Attrs)
		t.Edges[i] = topology.Edge{
			Source:     pos[e.Source],
			Target:     pos[e.Target],
			Kind:       kind,
			Latency:    latency,
			Bandwidth:  bw,
			PacketLoss: loss,
		}
	}
	return t, nil
}

func bandwidthAttr(attrs map[string]Value) (topology.Bandwidth, bool) {
	v, ok := attrs["bandwidth"]
	if !ok {
		return 0, false
	}
	bw, err := topology.ParseBandwidth(v.Text)
	return bw, err == nil
}
