// Package gml writes topologies in the Graph Modelling Language and reads
// them back.
package gml

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dd0wney/caida-topogen/pkg/logging"
	"github.com/dd0wney/caida-topogen/pkg/topology"
	"github.com/dd0wney/caida-topogen/pkg/validation"
)

// ErrOutputUnwritable wraps every failure to produce the output file.
var ErrOutputUnwritable = errors.New("output unwritable")

const (
	DefaultBufferSize = 1 << 20
	DefaultFlushEvery = 1000

	nodeProgressEvery = 100
	edgeProgressEvery = 1000
)

// Options tunes the writer.
type Options struct {
	// BufferSize is the size of the bufio.Writer in bytes.
	BufferSize int
	// FlushEvery forces a flush after this many node or edge blocks.
	FlushEvery int
	Logger     logging.Logger
}

func (o Options) withDefaults() Options {
	o.BufferSize = validation.DefaultOrInt(o.BufferSize, DefaultBufferSize)
	o.FlushEvery = validation.DefaultOrInt(o.FlushEvery, DefaultFlushEvery)
	if o.Logger == nil {
		o.Logger = logging.NewNopLogger()
	}
	return o
}

// Writer streams GML blocks through a fixed-size buffer. The first write
// error is sticky and returned by every later call.
type Writer struct {
	bw      *bufio.Writer
	opts    Options
	scratch []byte
	blocks  int
	nodes   int
	edges   int
	err     error
}

// NewWriter wraps w.
func NewWriter(w io.Writer, opts Options) *Writer {
	opts = opts.withDefaults()
	return &Writer{
		bw:      bufio.NewWriterSize(w, opts.BufferSize),
		opts:    opts,
		scratch: make([]byte, 0, 256),
	}
}

// Encode writes a whole topology: header, nodes, edges, footer.
func (w *Writer) Encode(t *topology.Topology) error {
	w.Header(t.Directed)
	for _, n := range t.Nodes {
		w.Node(n)
	}
	w.opts.Logger.Debug("nodes written", logging.Count(w.nodes))
	for _, e := range t.Edges {
		w.Edge(e)
	}
	w.opts.Logger.Debug("edges written", logging.Count(w.edges))
	return w.Close()
}

// Header opens the graph block.
func (w *Writer) Header(directed bool) {
	d := "0"
	if directed {
		d = "1"
	}
	w.writeString("graph [\n  directed " + d + "\n\n")
}

// Node writes one node block.
func (w *Writer) Node(n topology.Node) {
	b := w.scratch[:0]
	b = append(b, "  node [\n    id "...)
	b = strconv.AppendInt(b, int64(n.ID), 10)
	b = append(b, "\n    AS "...)
	b = appendQuoted(b, strconv.FormatUint(uint64(n.ASN), 10))
	b = append(b, "\n    region "...)
	b = appendQuoted(b, n.Region)
	if n.HasIP() {
		b = append(b, "\n    ip "...)
		b = appendQuoted(b, n.IP.String())
	}
	b = append(b, "\n    bandwidth "...)
	b = appendQuoted(b, n.Bandwidth.String())
	b = append(b, "\n  ]\n"...)
	w.write(b)
	w.scratch = b

	w.nodes++
	if w.nodes%nodeProgressEvery == 0 {
		w.opts.Logger.Debug("writing nodes", logging.Count(w.nodes))
	}
	w.block()
}

// Edge writes one edge block.
func (w *Writer) Edge(e topology.Edge) {
	b := w.scratch[:0]
	b = append(b, "  edge [\n    source "...)
	b = strconv.AppendInt(b, int64(e.Source), 10)
	b = append(b, "\n    target "...)
	b = strconv.AppendInt(b, int64(e.Target), 10)
	b = append(b, "\n    latency "...)
	b = appendQuoted(b, topology.FormatLatency(e.Latency))
	b = append(b, "\n    bandwidth "...)
	b = appendQuoted(b, e.Bandwidth.String())
	if e.PacketLoss > 0 {
		b = append(b, "\n    packet_loss "...)
		b = appendQuoted(b, topology.FormatLoss(e.PacketLoss))
	}
	b = append(b, "\n  ]\n"...)
	w.write(b)
	w.scratch = b

	w.edges++
	if w.edges%edgeProgressEvery == 0 {
		w.opts.Logger.Debug("writing edges", logging.Count(w.edges))
	}
	w.block()
}

// Close writes the closing bracket and flushes.
func (w *Writer) Close() error {
	w.writeString("]\n")
	if w.err == nil {
		w.err = w.bw.Flush()
	}
	return w.err
}

// Err returns the first write error.
func (w *Writer) Err() error { return w.err }

func (w *Writer) block() {
	w.blocks++
	if w.blocks%w.opts.FlushEvery == 0 && w.err == nil {
		w.err = w.bw.Flush()
	}
}

func (w *Writer) write(b []byte) {
	if w.err == nil {
		_, w.err = w.bw.Write(b)
	}
}

func (w *Writer) writeString(s string) {
	if w.err == nil {
		_, w.err = w.bw.WriteString(s)
	}
}

// appendQuoted writes s as a GML string literal, escaping quotes and
// backslashes.
func appendQuoted(b []byte, s string) []byte {
	b = append(b, '"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\\':
			b = append(b, '\\', c)
		case '\n':
			b = append(b, '\\', 'n')
		default:
			b = append(b, c)
		}
	}
	return append(b, '"')
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// WriteFile writes t to path atomically: a temp file in the same directory
// is written, synced and renamed over path. It returns the file size. On
// failure the temp file is removed and the error wraps ErrOutputUnwritable.
func WriteFile(path string, t *topology.Topology, opts Options) (size int64, err error) {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrOutputUnwritable, err)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(tmp)
			err = fmt.Errorf("%w: %s: %w", ErrOutputUnwritable, path, err)
		}
	}()

	cw := &countingWriter{w: f}
	if err = NewWriter(cw, opts).Encode(t); err != nil {
		return 0, err
	}
	if err = f.Sync(); err != nil {
		return 0, err
	}
	if err = f.Chmod(0o644); err != nil {
		return 0, err
	}
	if err = f.Close(); err != nil {
		return 0, err
	}
	if err = os.Rename(tmp, path); err != nil {
		return 0, err
	}
	return cw.n, nil
}
