// Released under an MIT license. See LICENSE.

// Package value provides catis's tagged, reference-counted runtime object.
//
// Every heap-shaped value (string, symbol, list, tuple) carries an explicit
// reference count. The count does not free memory — Go's collector does —
// but it drives the copy-on-write rule that makes in-place mutation safe:
// a mutator must hold the sole reference, and Exclusive is the one way to
// obtain it.
package value

import (
	"bytes"
	"strconv"
	"strings"
)

// Kind identifies the shape of a value. Kinds are bits so that operations
// can state their operand requirements as a mask (for example String|Symbol).
type Kind int

const (
	Bool Kind = 1 << iota
	Int
	String
	Symbol
	List
	Tuple

	// Any matches every kind in an operand mask.
	Any Kind = -1
)

// Name returns a human-readable name for the kind k.
func (k Kind) Name() string {
	switch k {
	case Bool:
		return "boolean"
	case Int:
		return "integer"
	case String:
		return "string"
	case Symbol:
		return "symbol"
	case List:
		return "list"
	case Tuple:
		return "tuple"
	}

	return "value"
}

// T is a catis runtime value.
type T struct {
	kind   Kind
	refs   int
	line   int
	quoted bool

	boolean bool
	integer int
	bytes   []byte // String, Symbol.
	items   []*T   // List, Tuple.
}

type value = T

// NewBool creates a boolean value.
func NewBool(v bool) *value {
	return &value{kind: Bool, refs: 1, boolean: v}
}

// NewInt creates an integer value.
func NewInt(v int) *value {
	return &value{kind: Int, refs: 1, integer: v}
}

// NewString creates a string value owning a copy of b.
func NewString(b []byte) *value {
	return &value{kind: String, refs: 1, bytes: append([]byte(nil), b...)}
}

// NewSymbol creates a symbol value with the name s.
func NewSymbol(s string, quoted bool) *value {
	return &value{kind: Symbol, refs: 1, bytes: []byte(s), quoted: quoted}
}

// NewList creates a list value taking ownership of the elements in items.
func NewList(items ...*value) *value {
	return &value{kind: List, refs: 1, items: items}
}

// NewTuple creates a tuple value taking ownership of the elements in items.
// The parser guarantees every element is a single-character symbol.
func NewTuple(quoted bool, items ...*value) *value {
	return &value{kind: Tuple, refs: 1, items: items, quoted: quoted}
}

// Kind returns the kind of the value v.
func (v *value) Kind() Kind {
	return v.kind
}

// Is returns true if the kind of v is in the mask m.
func (v *value) Is(m Kind) bool {
	return v.kind&m != 0
}

// Line returns the source line recorded on v, or 0.
func (v *value) Line() int {
	return v.line
}

// SetLine records the source line n on v.
func (v *value) SetLine(n int) {
	v.line = n
}

// Quoted returns true if v is a quoted symbol or tuple.
func (v *value) Quoted() bool {
	return v.quoted
}

// SetQuoted sets the quoted flag on v.
func (v *value) SetQuoted(quoted bool) {
	v.quoted = quoted
}

// Bool returns the boolean payload of v.
func (v *value) Bool() bool {
	return v.boolean
}

// Int returns the integer payload of v.
func (v *value) Int() int {
	return v.integer
}

// Bytes returns the byte payload of a string or symbol.
func (v *value) Bytes() []byte {
	return v.bytes
}

// Text returns the byte payload of a string or symbol as a Go string.
func (v *value) Text() string {
	return string(v.bytes)
}

// Items returns the elements of a list or tuple. The returned slice is the
// backing store: callers mutating it must hold the value exclusively.
func (v *value) Items() []*value {
	return v.items
}

// Len returns the element count of a container or the byte length of a
// string or symbol.
func (v *value) Len() int {
	if v.Is(String | Symbol) {
		return len(v.bytes)
	}

	return len(v.items)
}

// Refs returns the current reference count of v.
func (v *value) Refs() int {
	return v.refs
}

// Retain increments the reference count of v and returns v.
func (v *value) Retain() *value {
	if v.refs <= 0 {
		panic("retain of a released value")
	}

	v.refs++

	return v
}

// Release decrements the reference count of v. At zero the elements of a
// container are released in turn and v becomes invalid to touch.
func (v *value) Release() {
	if v == nil {
		return
	}

	if v.refs <= 0 {
		panic("release of a released value")
	}

	v.refs--
	if v.refs > 0 {
		return
	}

	for _, e := range v.items {
		e.Release()
	}

	v.items = nil
	v.bytes = nil
}

// DeepCopy produces a fully independent copy of v. Every value in the
// copied graph has a reference count of 1.
func (v *value) DeepCopy() *value {
	if v == nil {
		return nil
	}

	c := &value{
		kind:    v.kind,
		refs:    1,
		line:    v.line,
		quoted:  v.quoted,
		boolean: v.boolean,
		integer: v.integer,
	}

	if v.bytes != nil {
		c.bytes = append([]byte(nil), v.bytes...)
	}

	if v.items != nil {
		c.items = make([]*value, len(v.items))
		for i, e := range v.items {
			c.items[i] = e.DeepCopy()
		}
	}

	return c
}

// Exclusive returns a value the caller may mutate in place. When v is
// shared it releases the caller's handle and returns an independent copy;
// otherwise it returns v itself. Every mutating operation must pass
// through here first.
func (v *value) Exclusive() *value {
	if v.refs > 1 {
		v.Release()

		return v.DeepCopy()
	}

	return v
}

// Append adds the element e to the list v, taking ownership of e.
// The caller must hold v exclusively.
func (v *value) Append(e *value) {
	v.items = append(v.items, e)
}

// Concat appends the payload of o to v. Both must be list-shaped or both
// string-shaped. The caller must hold v exclusively; o is not consumed.
func (v *value) Concat(o *value) {
	if v.Is(String | Symbol) {
		v.bytes = append(v.bytes, o.bytes...)

		return
	}

	for _, e := range o.items {
		v.items = append(v.items, e.Retain())
	}
}

// ToTuple retags the list v as an unquoted tuple.
// The caller must hold v exclusively.
func (v *value) ToTuple() {
	v.kind = Tuple
	v.quoted = false
}

// Compare is a three-way order over values: numeric for integers, false
// before true for booleans, lexicographic bytes for strings and symbols
// (the two compare with each other freely), and length only for lists and
// tuples — element contents are deliberately ignored, which is the weak
// ordering the library's sort is specified against. Comparing across
// these categories returns ok == false.
func Compare(a, b *value) (n int, ok bool) {
	switch {
	case a.kind == Int && b.kind == Int:
		return order(a.integer, b.integer), true
	case a.kind == Bool && b.kind == Bool:
		return order(btoi(a.boolean), btoi(b.boolean)), true
	case a.Is(String|Symbol) && b.Is(String|Symbol):
		return bytes.Compare(a.bytes, b.bytes), true
	case a.Is(List|Tuple) && b.Is(List|Tuple):
		return order(len(a.items), len(b.items)), true
	}

	return 0, false
}

// Print flags.
const (
	Raw   = 0
	Color = 1 << iota // ANSI-color the output by kind.
	Repr              // Literal form: delimiters and string escapes.
)

// ANSI escapes per kind, as the interactive stack display uses them.
func escape(k Kind) string {
	switch k {
	case List:
		return "\033[33;1m" // yellow
	case Tuple:
		return "\033[34;1m" // blue
	case Symbol:
		return "\033[36;1m" // cyan
	case String:
		return "\033[32;1m" // green
	case Int:
		return "\033[37;1m" // white
	}

	return "\033[35;1m" // magenta (booleans)
}

// Sprint renders v according to the print flags.
func Sprint(v *value, flags int) string {
	var b strings.Builder

	sprint(&b, v, flags)

	return b.String()
}

// String returns the raw form of v: strings print their bytes undecorated.
func (v *value) String() string {
	return Sprint(v, Raw)
}

// Literal returns the representational form of v. Reparsing the literal
// form of a parseable value yields a value that compares equal.
func (v *value) Literal() string {
	return Sprint(v, Repr)
}

func sprint(b *strings.Builder, v *value, flags int) {
	color := flags&Color != 0
	repr := flags&Repr != 0

	if color {
		b.WriteString(escape(v.kind))
	}

	switch v.kind {
	case Bool:
		if v.boolean {
			b.WriteString("#t")
		} else {
			b.WriteString("#f")
		}
	case Int:
		b.WriteString(strconv.Itoa(v.integer))
	case Symbol:
		b.Write(v.bytes)
	case String:
		if repr {
			sprintQuoted(b, v.bytes)
		} else {
			b.Write(v.bytes)
		}
	case List, Tuple:
		open, closed := "[", "]"
		if v.kind == Tuple {
			open, closed = "(", ")"
		}

		if repr {
			b.WriteString(open)
		}

		for i, e := range v.items {
			if i > 0 {
				b.WriteString(" ")
			}

			sprint(b, e, flags)
		}

		if color {
			b.WriteString(escape(v.kind))
		}

		if repr {
			b.WriteString(closed)
		}
	}

	if color {
		b.WriteString("\033[0m")
	}
}

func sprintQuoted(b *strings.Builder, s []byte) {
	b.WriteString(`"`)

	for _, c := range s {
		switch c {
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '"':
			b.WriteString(`\"`)
		default:
			b.WriteByte(c)
		}
	}

	b.WriteString(`"`)
}

func btoi(v bool) int {
	if v {
		return 1
	}

	return 0
}

func order(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}

	return 0
}
