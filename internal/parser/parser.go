// Released under an MIT license. See LICENSE.

// Package parser converts catis source text into the literal value tree
// the evaluator consumes.
//
// The grammar: integers (-?[0-9]+), booleans (#t/#f), double-quoted
// strings with \n \r \t \" escapes, bracket-delimited lists, parenthesis-
// delimited tuples whose elements must be single-character symbols, an
// optional leading ' quoting a list, tuple or symbol, symbols over letters
// and a fixed punctuation set, and // comments to end of line. Every value
// is stamped with its source line.
package parser

import (
	"fmt"
	"strconv"

	"github.com/catis-lang/catis/internal/value"
)

// Error is a structured parse failure.
type Error struct {
	Message string
	Snippet string // Offending input, elided past snippetMax bytes.
	Line    int
}

const snippetMax = 30

func (e *Error) Error() string {
	return fmt.Sprintf("%s: '%s' at line %d", e.Message, e.Snippet, e.Line)
}

// Parse converts source into a list of every top-level value in it.
// The returned list is suitable for interp.Eval directly.
func Parse(source string) (*value.T, error) {
	s := &scanner{src: source, line: 1}

	list := value.NewList()
	list.SetLine(1)

	for {
		s.strip()
		if s.done() {
			return list, nil
		}

		v, err := s.value()
		if err != nil {
			list.Release()

			return nil, err
		}

		list.Append(v)
	}
}

// ParseLiteral converts source into exactly one value. Trailing input
// other than space and comments is an error. The command-line driver uses
// this to turn each trailing argument into one stack entry.
func ParseLiteral(source string) (*value.T, error) {
	s := &scanner{src: source, line: 1}

	s.strip()
	if s.done() {
		return nil, s.fail("Expected one value")
	}

	v, err := s.value()
	if err != nil {
		return nil, err
	}

	s.strip()
	if !s.done() {
		v.Release()

		return nil, s.fail("Expected one value")
	}

	return v, nil
}

type scanner struct {
	src  string
	pos  int
	line int
}

func (s *scanner) done() bool {
	return s.pos >= len(s.src)
}

func (s *scanner) peek(n int) byte {
	if s.pos+n >= len(s.src) {
		return 0
	}

	return s.src[s.pos+n]
}

// strip consumes whitespace and // comments, counting lines.
func (s *scanner) strip() {
	for !s.done() {
		c := s.src[s.pos]

		switch {
		case c == '\n':
			s.line++
			s.pos++
		case c == ' ' || c == '\t' || c == '\r' || c == '\v' || c == '\f':
			s.pos++
		case c == '/' && s.peek(1) == '/':
			for !s.done() && s.src[s.pos] != '\n' {
				s.pos++
			}
		default:
			return
		}
	}
}

func (s *scanner) fail(message string) *Error {
	snippet := s.src[s.pos:]
	if len(snippet) > snippetMax {
		snippet = snippet[:snippetMax] + "..."
	}

	return &Error{Message: message, Snippet: snippet, Line: s.line}
}

// value parses one value. The caller must have stripped space already.
func (s *scanner) value() (*value.T, error) {
	line := s.line
	c := s.peek(0)

	var v *value.T

	var err error

	switch {
	case isDigit(c) || (c == '-' && isDigit(s.peek(1))):
		v, err = s.integer()
	case c == '[' || c == '(' || (c == '\'' && (s.peek(1) == '[' || s.peek(1) == '(')):
		v, err = s.container()
	case c == '#' && (s.peek(1) == 't' || s.peek(1) == 'f'):
		v, err = s.boolean()
	case c == '"':
		v, err = s.text()
	case isSymbol(c):
		v, err = s.symbol()
	default:
		return nil, s.fail("No value starts like this")
	}

	if err != nil {
		return nil, err
	}

	v.SetLine(line)

	return v, nil
}

func (s *scanner) integer() (*value.T, error) {
	start := s.pos

	if s.peek(0) == '-' {
		s.pos++
	}

	for isDigit(s.peek(0)) {
		s.pos++
	}

	n, err := strconv.Atoi(s.src[start:s.pos])
	if err != nil {
		s.pos = start

		return nil, s.fail("Integer out of range")
	}

	return value.NewInt(n), nil
}

func (s *scanner) boolean() (*value.T, error) {
	c := s.peek(1)
	if c != 't' && c != 'f' {
		return nil, s.fail("Booleans are either #t or #f")
	}

	s.pos += 2

	return value.NewBool(c == 't'), nil
}

func (s *scanner) container() (*value.T, error) {
	quoted := false
	if s.peek(0) == '\'' {
		quoted = true
		s.pos++
	}

	open := s.peek(0)
	closed := byte(']')

	tuple := open == '('
	if tuple {
		closed = ')'
	}

	s.pos++

	var v *value.T
	if tuple {
		v = value.NewTuple(quoted)
	} else {
		v = value.NewList()
		v.SetQuoted(quoted)
	}

	for {
		s.strip()

		if s.done() {
			v.Release()

			return nil, s.fail("Container never closed")
		}

		if s.peek(0) == closed {
			s.pos++

			return v, nil
		}

		start := s.pos

		e, err := s.value()
		if err != nil {
			v.Release()

			return nil, err
		}

		if tuple && (e.Kind() != value.Symbol || e.Len() != 1) {
			e.Release()
			v.Release()
			s.pos = start

			return nil, s.fail("Tuples can only contain single character symbols")
		}

		v.Append(e)
	}
}

func (s *scanner) symbol() (*value.T, error) {
	quoted := false
	if s.peek(0) == '\'' {
		quoted = true
		s.pos++
	}

	start := s.pos
	for isSymbol(s.peek(0)) {
		s.pos++
	}

	if s.pos == start {
		s.pos--

		return nil, s.fail("No value starts like this")
	}

	return value.NewSymbol(s.src[start:s.pos], quoted), nil
}

func (s *scanner) text() (*value.T, error) {
	start := s.pos
	s.pos++ // Opening quotation mark.

	var b []byte

	for !s.done() && s.src[s.pos] != '"' {
		c := s.src[s.pos]

		if c == '\\' && s.pos+1 < len(s.src) {
			s.pos++
			c = s.src[s.pos]

			switch c {
			case 'n':
				c = '\n'
			case 'r':
				c = '\r'
			case 't':
				c = '\t'
			}
		} else if c == '\n' {
			s.line++
		}

		b = append(b, c)
		s.pos++
	}

	if s.done() {
		s.pos = start

		return nil, s.fail("Quotation marks never closed in string")
	}

	s.pos++ // Closing quotation mark.

	return value.NewString(b), nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isSymbol(c byte) bool {
	if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' {
		return true
	}

	switch c {
	case '@', '$', '+', '-', '*', '/', '=', '?', '%', '>', '<', '_',
		'\'', '#', '^', '.', '!':
		return true
	}

	return false
}
