// Released under an MIT license. See LICENSE.

// Package interp provides the catis evaluator: a shared data stack, a
// chain of call frames holding byte-keyed local bindings, and a flat
// process-wide procedure registry. All state hangs off an explicit
// interpreter value so independent interpreters can coexist.
package interp

import (
	"fmt"
	"io"
	"os"

	"github.com/catis-lang/catis/internal/value"
)

// localSlots is the per-frame local namespace: one slot per byte value.
const localSlots = 256

// maxDepth bounds the call-frame chain. Recursion past this fails with
// a recoverable StackOverflow instead of exhausting the process stack.
const maxDepth = 10000

// showMax caps the number of stack entries the stack display renders.
const showMax = 16

// Procedure is a registry entry: a native operation or a user-defined
// body. Redefinition mutates the entry in place, so every caller holding
// a reference observes the latest definition.
type Procedure struct {
	name string
	op   Op       // Native operation; opNone for user procedures.
	body *value.T // User-defined body list; nil for natives.
}

// Name returns the name the procedure is registered under.
func (p *Procedure) Name() string {
	return p.name
}

// Frame is one level of the call chain.
type Frame struct {
	locals   [localSlots]*value.T
	proc     *Procedure
	line     int
	previous *Frame
}

func (f *Frame) release() {
	for i, v := range f.locals {
		if v != nil {
			v.Release()
			f.locals[i] = nil
		}
	}
}

// T is an interpreter instance: the data stack, the procedure registry,
// and the current frame chain.
type T struct {
	stack []*value.T
	procs map[string]*Procedure
	frame *Frame
	depth int
	out   io.Writer
}

type interp = T

// New creates an interpreter with the builtin library loaded: the native
// operations plus the compound procedures of the bootstrap script.
func New() *interp {
	c := &interp{
		procs: map[string]*Procedure{},
		frame: &Frame{},
		out:   os.Stdout,
	}

	c.loadLibrary()

	return c
}

// SetOutput redirects prin, print, . and the stack display to w.
func (c *interp) SetOutput(w io.Writer) {
	c.out = w
}

// Run evaluates every element of the program list in order.
func (c *interp) Run(program *value.T) error {
	if err := c.eval(program); err != nil {
		return err
	}

	return nil
}

// Push places v on the data stack, taking ownership of it. The driver
// uses this to seed the stack with command-line arguments.
func (c *interp) Push(v *value.T) {
	c.push(v)
}

// Depth returns the number of values on the data stack.
func (c *interp) Depth() int {
	return len(c.stack)
}

// define registers, or redefines in place, a user procedure. It takes
// ownership of body.
func (c *interp) define(name string, body *value.T) {
	if p, ok := c.procs[name]; ok {
		if p.body != nil {
			p.body.Release()
		}

		p.op = opNone
		p.body = body

		return
	}

	c.procs[name] = &Procedure{name: name, body: body}
}

// defineNative registers, or redefines in place, a native operation.
func (c *interp) defineNative(name string, op Op) {
	if p, ok := c.procs[name]; ok {
		if p.body != nil {
			p.body.Release()
		}

		p.op = op
		p.body = nil

		return
	}

	c.procs[name] = &Procedure{name: name, op: op}
}

// lookup finds the live definition for name, if any.
func (c *interp) lookup(name string) *Procedure {
	return c.procs[name]
}

func (c *interp) push(v *value.T) {
	c.stack = append(c.stack, v)
}

// pop removes and returns the top of the data stack, or nil when empty.
// Ownership transfers to the caller.
func (c *interp) pop() *value.T {
	if len(c.stack) == 0 {
		return nil
	}

	v := c.stack[len(c.stack)-1]
	c.stack[len(c.stack)-1] = nil
	c.stack = c.stack[:len(c.stack)-1]

	return v
}

// peek returns the value offset entries below the top without popping.
func (c *interp) peek(offset int) *value.T {
	if len(c.stack) <= offset {
		return nil
	}

	return c.stack[len(c.stack)-1-offset]
}

// operands checks that the stack holds at least len(masks) values and
// that each, deepest first, matches its mask. Nothing is popped.
func (c *interp) operands(masks ...value.Kind) *Error {
	if len(c.stack) < len(masks) {
		return c.fail(StackUnderflow, "", "Out of stack")
	}

	for i, m := range masks {
		if !c.stack[len(c.stack)-len(masks)+i].Is(m) {
			return c.fail(TypeMismatch, "", "Type mismatch")
		}
	}

	return nil
}

// ShowStack renders the data stack, oldest first, capped to the last
// showMax entries with an elision marker when more are present.
func (c *interp) ShowStack(color bool) {
	flags := value.Repr
	if color {
		flags |= value.Color
	}

	first := 0
	if len(c.stack) > showMax {
		first = len(c.stack) - showMax
	}

	for _, v := range c.stack[first:] {
		fmt.Fprintf(c.out, "%s ", value.Sprint(v, flags))
	}

	if first > 0 {
		fmt.Fprintf(c.out, "[... %d more values ...]", first)
	}

	if len(c.stack) > 0 {
		fmt.Fprintln(c.out)
	}
}
