package gml

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// ErrSyntax matches every *SyntaxError.
var ErrSyntax = errors.New("gml syntax error")

// SyntaxError locates a parse failure.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%v: line %d: %s", ErrSyntax, e.Line, e.Msg)
}

// Is lets errors.Is(err, ErrSyntax) match.
func (e *SyntaxError) Is(target error) bool { return target == ErrSyntax }

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokOpen
	tokClose
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokIdent:
		return "identifier"
	case tokNumber:
		return "number"
	case tokString:
		return "string"
	case tokOpen:
		return "'['"
	case tokClose:
		return "']'"
	default:
		return "token"
	}
}

type token struct {
	kind tokenKind
	text string
	line int
}

type lexer struct {
	r    *bufio.Reader
	line int
}

func newLexer(r io.Reader) *lexer {
	return &lexer{r: bufio.NewReaderSize(r, 64*1024), line: 1}
}

func (l *lexer) errorf(format string, args ...any) error {
	return &SyntaxError{Line: l.line, Msg: fmt.Sprintf(format, args...)}
}

func (l *lexer) read() (rune, bool, error) {
	c, _, err := l.r.ReadRune()
	if err == io.EOF {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if c == '\n' {
		l.line++
	}
	return c, true, nil
}

func (l *lexer) unread(c rune) {
	_ = l.r.UnreadRune()
	if c == '\n' {
		l.line--
	}
}

func (l *lexer) next() (token, error) {
	for {
		c, ok, err := l.read()
		if err != nil {
			return token{}, err
		}
		if !ok {
			return token{kind: tokEOF, line: l.line}, nil
		}

		switch {
		case unicode.IsSpace(c):
			continue
		case c == '#':
			if err := l.skipLine(); err != nil {
				return token{}, err
			}
		case c == '[':
			return token{kind: tokOpen, line: l.line}, nil
		case c == ']':
			return token{kind: tokClose, line: l.line}, nil
		case c == '"':
			return l.quoted()
		case unicode.IsLetter(c) || c == '_':
			text, err := l.word(c)
			return token{kind: tokIdent, text: text, line: l.line}, err
		case unicode.IsDigit(c) || c == '-' || c == '+' || c == '.':
			text, err := l.word(c)
			return token{kind: tokNumber, text: text, line: l.line}, err
		default:
			return token{}, l.errorf("unexpected character %q", c)
		}
	}
}

func (l *lexer) skipLine() error {
	for {
		c, ok, err := l.read()
		if err != nil || !ok || c == '\n' {
			return err
		}
	}
}

func (l *lexer) word(first rune) (string, error) {
	var sb strings.Builder
	sb.WriteRune(first)
	for {
		c, ok, err := l.read()
		if err != nil {
			return "", err
		}
		if !ok {
			return sb.String(), nil
		}
		if unicode.IsLetter(c) || unicode.IsDigit(c) || strings.ContainsRune("_.-+", c) {
			sb.WriteRune(c)
			continue
		}
		l.unread(c)
		return sb.String(), nil
	}
}

func (l *lexer) quoted() (token, error) {
	start := l.line
	var sb strings.Builder
	for {
		c, ok, err := l.read()
		if err != nil {
			return token{}, err
		}
		if !ok {
			return token{}, &SyntaxError{Line: start, Msg: "unterminated string"}
		}
		switch c {
		case '"':
			return token{kind: tokString, text: sb.String(), line: start}, nil
		case '\\':
			esc, ok, err := l.read()
			if err != nil {
				return token{}, err
			}
			if !ok {
				return token{}, &SyntaxError{Line: start, Msg: "unterminated string"}
			}
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '\\', '"':
				sb.WriteRune(esc)
			default:
				sb.WriteByte('\\')
				sb.WriteRune(esc)
			}
		default:
			sb.WriteRune(c)
		}
	}
}
