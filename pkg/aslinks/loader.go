package aslinks

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang/snappy"
	"golang.org/x/exp/mmap"

	"github.com/dd0wney/caida-topogen/pkg/logging"
)

// maxLineBytes bounds a single input record, excluding the line terminator.
// CAIDA lines are short; longer lines are drained and skipped like any other
// malformed record.
const maxLineBytes = 1 << 20

const readBufferSize = 64 * 1024

// Loader reads CAIDA AS-links data into a Graph.
type Loader struct {
	// Workers sizes the pool used to sort adjacency lists (0 = GOMAXPROCS).
	Workers int
	Logger  logging.Logger
}

// Load reads the AS-links file at path with a default Loader.
func Load(path string) (*Graph, error) {
	return (&Loader{}).Load(path)
}

// Parse reads AS-links records from r with a default Loader.
func Parse(r io.Reader) (*Graph, error) {
	return (&Loader{}).Parse(r)
}

// Load opens path and parses it. Compressed inputs are recognised by
// extension (.gz, .bz2, .sz); plain files are memory-mapped and scanned once.
func (l *Loader) Load(path string) (*Graph, error) {
	src, closer, err := openSource(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInputUnavailable, path, err)
	}
	defer closer.Close()

	g, err := l.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	l.logger().Info("AS-links loaded",
		logging.Path(path),
		logging.Int("ases", g.Len()),
		logging.Int("links", g.EdgeCount()),
		logging.Int("skipped", g.stats.Skipped),
	)
	return g, nil
}

// Parse consumes r line by line. Records whose type token is not a link
// token, that have fewer than four fields, whose AS numbers do not parse or
// that exceed maxLineBytes are counted and skipped.
func (l *Loader) Parse(r io.Reader) (*Graph, error) {
	b := newBuilder()

	br := bufio.NewReaderSize(r, readBufferSize)
	var buf []byte
	for {
		line, oversized, err := readLine(br, buf)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInputUnavailable, b.stats.Lines+1, err)
		}
		buf = line
		b.stats.Lines++

		if oversized {
			b.stats.Skipped++
			l.logger().Warn("skipping oversized record",
				logging.Int("line", b.stats.Lines),
				logging.Int("limit", maxLineBytes),
			)
			continue
		}
		link, ok := parseRecord(line)
		if !ok {
			b.stats.Skipped++
			continue
		}
		b.add(link.Source, link.Target, link.Rel)
	}

	return b.freeze(l.Workers)
}

// readLine returns the next line of br, reusing buf. A line longer than
// maxLineBytes is consumed up to its terminator and reported as oversized
// with an empty body. io.EOF is returned only when no bytes remain.
func readLine(br *bufio.Reader, buf []byte) ([]byte, bool, error) {
	buf = buf[:0]
	read := 0
	oversized := false
	for {
		chunk, err := br.ReadSlice('\n')
		read += len(chunk)
		if !oversized {
			body := len(chunk)
			if body > 0 && chunk[body-1] == '\n' {
				body--
			}
			if len(buf)+body > maxLineBytes {
				oversized = true
				buf = buf[:0]
			} else {
				buf = append(buf, chunk...)
			}
		}

		switch {
		case err == nil:
			return buf, oversized, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case err == io.EOF && read > 0:
			return buf, oversized, nil
		default:
			return nil, false, err
		}
	}
}

func (l *Loader) logger() logging.Logger {
	if l.Logger == nil {
		return logging.NewNopLogger()
	}
	return l.Logger
}

// parseRecord extracts a link from "<type> <src> <dst> <rel> ...".
func parseRecord(line []byte) (Link, bool) {
	fields := bytes.Fields(line)
	if len(fields) < 4 || !isLinkToken(fields[0]) {
		return Link{}, false
	}

	src, err := strconv.ParseUint(string(fields[1]), 10, 32)
	if err != nil {
		return Link{}, false
	}
	dst, err := strconv.ParseUint(string(fields[2]), 10, 32)
	if err != nil {
		return Link{}, false
	}

	return Link{
		Source: ASN(src),
		Target: ASN(dst),
		Rel:    ParseRelationship(string(fields[3])),
	}, true
}

// isLinkToken accepts the direct (D) and indirect (I) link record types.
func isLinkToken(tok []byte) bool {
	return len(tok) == 1 && (tok[0] == 'D' || tok[0] == 'I')
}

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var first error
	for i := len(m) - 1; i >= 0; i-- {
		if err := m[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func openSource(path string) (io.Reader, io.Closer, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, err
		}
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, nil, err
		}
		return zr, multiCloser{f, zr}, nil
	case ".bz2":
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, err
		}
		return bzip2.NewReader(f), f, nil
	case ".sz":
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, err
		}
		return snappy.NewReader(f), f, nil
	default:
		ra, err := mmap.Open(path)
		if err != nil {
			return nil, nil, err
		}
		return io.NewSectionReader(ra, 0, int64(ra.Len())), ra, nil
	}
}
