// Released under an MIT license. See LICENSE.

package interp

import (
	"github.com/catis-lang/catis/internal/value"
)

// eval executes the elements of list, in order, against the data stack
// and the current frame. Lists are data: encountering one pushes it;
// only the eval-class operations execute a pushed list. The first
// failure aborts the remaining elements and propagates to the caller.
func (c *interp) eval(list *value.T) *Error {
	for _, o := range list.Items() {
		c.frame.line = o.Line()

		switch o.Kind() {
		case value.Tuple:
			if o.Quoted() {
				t := o.DeepCopy()
				t.SetQuoted(false)
				c.push(t)

				continue
			}

			if err := c.capture(o); err != nil {
				return err
			}
		case value.Symbol:
			if o.Quoted() {
				s := o.DeepCopy()
				s.SetQuoted(false)
				c.push(s)

				continue
			}

			if o.Bytes()[0] == '$' {
				if err := c.local(o); err != nil {
					return err
				}

				continue
			}

			if err := c.call(o); err != nil {
				return err
			}
		default:
			c.push(o.Retain())
		}
	}

	return nil
}

// capture pops one value for each element of the tuple t and binds them
// to the current frame's locals: element i receives the i-th pop, so the
// leftmost name takes the value nearest the top of the stack. A previous
// binding in a slot is released first.
func (c *interp) capture(t *value.T) *Error {
	names := t.Items()

	// The parser only builds tuples of single-character symbols, but
	// to-tuple can retag any list. Reject bad slots before touching
	// the stack.
	for _, name := range names {
		if name.Kind() != value.Symbol || name.Len() != 1 {
			return c.fail(TypeMismatch, name.Literal(),
				"Tuple slots must be single character symbols")
		}
	}

	if len(c.stack) < len(names) {
		return c.fail(StackUnderflow,
			names[len(c.stack)].Text(),
			"Out of stack while capturing local")
	}

	for _, name := range names {
		key := name.Bytes()[0]

		if old := c.frame.locals[key]; old != nil {
			old.Release()
		}

		c.frame.locals[key] = c.pop()
	}

	return nil
}

// local pushes a retained reference to the binding a $-symbol names.
// Reads do not consume the binding.
func (c *interp) local(s *value.T) *Error {
	b := s.Bytes()

	var v *value.T
	if len(b) > 1 {
		v = c.frame.locals[b[1]]
	}

	if v == nil {
		return c.fail(UnboundLocal, s.Text(), "Unbound local variable")
	}

	c.push(v.Retain())

	return nil
}

// call looks the symbol up in the registry and invokes it: natives run
// in the current frame, user procedures in a fresh child frame that is
// popped and released whether or not the body failed.
func (c *interp) call(s *value.T) *Error {
	p := c.lookup(s.Text())
	if p == nil {
		return c.fail(ProcedureNotFound, s.Text(), "Symbol not bound to procedure")
	}

	if p.body == nil {
		prev := c.frame.proc
		c.frame.proc = p

		err := c.apply(p.op)

		c.frame.proc = prev

		return err
	}

	if c.depth >= maxDepth {
		return c.fail(StackOverflow, p.name, "Too many nested calls")
	}

	c.depth++

	// Hold the body: a redefinition mid-call, including by the body
	// itself, must not pull it out from under this evaluation.
	body := p.body.Retain()

	f := &Frame{proc: p, previous: c.frame}
	c.frame = f

	err := c.eval(body)

	c.frame = f.previous
	c.depth--

	f.release()
	body.Release()

	return err
}

// evalIn evaluates a popped list against the frame f. up-eval passes the
// parent frame here; no new frame is created either way. The nesting
// counts against the call depth: a list that evaluates itself recurses
// without ever invoking a user procedure.
func (c *interp) evalIn(list *value.T, f *Frame) *Error {
	if c.depth >= maxDepth {
		return c.fail(StackOverflow, "", "Too many nested calls")
	}

	c.depth++

	prev := c.frame
	c.frame = f

	err := c.eval(list)

	c.frame = prev
	c.depth--

	return err
}
