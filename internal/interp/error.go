// Released under an MIT license. See LICENSE.

package interp

import (
	"strconv"
	"strings"
)

// Kind classifies a runtime failure.
type Kind int

const (
	// StackUnderflow: an operation needed more data-stack values than
	// were present, including local capture by a tuple.
	StackUnderflow Kind = iota

	// TypeMismatch: an operand did not satisfy an operation's required
	// type set.
	TypeMismatch

	// UnboundLocal: a read of a local slot that was never bound.
	UnboundLocal

	// ProcedureNotFound: a call to a name with no definition.
	ProcedureNotFound

	// DivisionByZero: integer division by zero.
	DivisionByZero

	// StackOverflow: the call-frame chain grew past its limit.
	StackOverflow
)

// String returns a label for the kind k.
func (k Kind) String() string {
	switch k {
	case StackUnderflow:
		return "stack underflow"
	case TypeMismatch:
		return "type mismatch"
	case UnboundLocal:
		return "unbound local"
	case ProcedureNotFound:
		return "procedure not found"
	case DivisionByZero:
		return "division by zero"
	case StackOverflow:
		return "stack overflow"
	}

	return "error"
}

const (
	errorMax   = 256
	snippetMax = 30
)

// Error is a runtime failure. It aborts the in-flight evaluation and
// propagates, untouched, through every enclosing call to the driver.
type Error struct {
	Kind    Kind
	Message string
	Snippet string   // Offending token or name, elided past snippetMax.
	Trace   []string // procedure:line pairs, innermost frame first.
}

// Error renders the failure as a single bounded-length diagnostic: the
// message, the offending snippet, and the frame chain walked outward.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(e.Message)
	b.WriteString(": '")
	b.WriteString(e.Snippet)
	b.WriteString("'")

	for _, t := range e.Trace {
		b.WriteString(" in ")
		b.WriteString(t)
	}

	s := b.String()
	if len(s) > errorMax {
		s = s[:errorMax]
	}

	return s
}

// fail builds an Error of the given kind, eliding the snippet and
// capturing the frame chain as it stands right now.
func (c *T) fail(kind Kind, snippet, message string) *Error {
	if snippet == "" {
		snippet = "top level"
		if c.frame.proc != nil {
			snippet = c.frame.proc.name
		}
	}

	if len(snippet) > snippetMax {
		snippet = snippet[:snippetMax] + "..."
	}

	e := &Error{Kind: kind, Message: message, Snippet: snippet}

	for f := c.frame; f != nil; f = f.previous {
		name := "top level"
		if f.proc != nil {
			name = f.proc.name
		}

		e.Trace = append(e.Trace, name+":"+strconv.Itoa(f.line))
	}

	return e
}
