// Released under an MIT license. See LICENSE.

package interp

import (
	"fmt"
	"sort"

	"github.com/catis-lang/catis/internal/parser"
	"github.com/catis-lang/catis/internal/value"
)

// Op enumerates the native operations. Every native is registered with
// its kind and dispatched on it; shared handlers (arithmetic, relational,
// control flow) take the kind as a parameter.
type Op int

const (
	opNone Op = iota

	opAdd
	opSub
	opMul
	opDiv

	opEq
	opNe
	opGe
	opLe
	opGt
	opLt

	opIf
	opIfElse
	opWhile

	opEval
	opUpEval

	opSort
	opDefine
	opPrin
	opPrint
	opShow
	opLen
	opAppend
	opIndex
	opConcat
	opToTuple
)

// loadLibrary registers the native operations and evaluates the
// bootstrap script. A failure in the bootstrap is a defect in the
// interpreter itself, not user error.
func (c *interp) loadLibrary() {
	for name, op := range map[string]Op{
		"+": opAdd, "-": opSub, "*": opMul, "/": opDiv,
		"==": opEq, "!=": opNe, ">=": opGe, "<=": opLe, ">": opGt, "<": opLt,
		"if": opIf, "if-else": opIfElse, "while": opWhile,
		"eval": opEval, "up-eval": opUpEval,
		"sort": opSort, "define": opDefine,
		"prin": opPrin, "print": opPrint, ".": opShow,
		"#": opLen, "<-": opAppend, "@": opIndex, "^": opConcat,
		"to-tuple": opToTuple,
	} {
		c.defineNative(name, op)
	}

	boot, err := parser.Parse(bootstrap)
	if err != nil {
		panic("bootstrap does not parse: " + err.Error())
	}

	if err := c.eval(boot); err != nil {
		panic("bootstrap does not evaluate: " + err.Error())
	}

	boot.Release()
}

// The compound procedures, defined in catis itself. Nothing here is
// privileged: everything derives from the native primitives. map and
// each run the supplied program with up-eval so it can reach the
// locals of the procedure that called the combinator.
const bootstrap = `
[(x) $x $x] 'dup define
[(x y) $x $y] 'swap define
[(x)] 'drop define
[0 @] 'head define
[(l) 1 [] (r i)
 [$i $l # <] [$r $l $i @ <- (r) $i 1 + (i)] while
 $r] 'tail define
[(f l) 0 [] (r i)
 [$i $l # <] [$l $i @ $f up-eval $r swap <- (r) $i 1 + (i)] while
 $r] 'map define
[(f l) 0 (i)
 [$i $l # <] [$l $i @ $f up-eval $i 1 + (i)] while] 'each define
`

// apply dispatches a native operation by its registered kind.
func (c *interp) apply(op Op) *Error {
	switch op {
	case opAdd, opSub, opMul, opDiv:
		return c.arithmetic(op)
	case opEq, opNe, opGe, opLe, opGt, opLt:
		return c.relational(op)
	case opIf, opIfElse, opWhile:
		return c.controlFlow(op)
	case opEval:
		return c.evalList(false)
	case opUpEval:
		return c.evalList(true)
	case opSort:
		return c.sortList()
	case opDefine:
		return c.defineProcedure()
	case opPrin:
		return c.write(false)
	case opPrint:
		return c.write(true)
	case opShow:
		return c.show()
	case opLen:
		return c.length()
	case opAppend:
		return c.appendElement()
	case opIndex:
		return c.index()
	case opConcat:
		return c.concat()
	case opToTuple:
		return c.toTuple()
	}

	panic("native operation with no implementation")
}

func (c *interp) arithmetic(op Op) *Error {
	if err := c.operands(value.Int, value.Int); err != nil {
		return err
	}

	b := c.pop()
	a := c.pop()
	x, y := a.Int(), b.Int()
	a.Release()
	b.Release()

	var n int

	switch op {
	case opAdd:
		n = x + y
	case opSub:
		n = x - y
	case opMul:
		n = x * y
	case opDiv:
		if y == 0 {
			return c.fail(DivisionByZero, "", "Division by zero")
		}

		n = x / y
	}

	c.push(value.NewInt(n))

	return nil
}

// relational pops both operands and compares them. On a cross-category
// mismatch both operands are restored to the stack, for inspection,
// before the error returns.
func (c *interp) relational(op Op) *Error {
	if err := c.operands(value.Any, value.Any); err != nil {
		return err
	}

	b := c.pop()
	a := c.pop()

	n, ok := value.Compare(a, b)
	if !ok {
		c.push(a)
		c.push(b)

		return c.fail(TypeMismatch, "", "Type mismatch in comparison")
	}

	a.Release()
	b.Release()

	var r bool

	switch op {
	case opEq:
		r = n == 0
	case opNe:
		r = n != 0
	case opGe:
		r = n >= 0
	case opLe:
		r = n <= 0
	case opGt:
		r = n > 0
	case opLt:
		r = n < 0
	}

	c.push(value.NewBool(r))

	return nil
}

// controlFlow implements if, if-else and while. Each evaluates the
// condition list, requires exactly a boolean on top, then evaluates the
// branch when true or the optional else branch when false. while loops
// back to the condition after a true iteration; the frame chain does
// not grow.
func (c *interp) controlFlow(op Op) *Error {
	masks := []value.Kind{value.List, value.List}
	if op == opIfElse {
		masks = append(masks, value.List)
	}

	if err := c.operands(masks...); err != nil {
		return err
	}

	var otherwise *value.T
	if op == opIfElse {
		otherwise = c.pop()
		defer otherwise.Release()
	}

	branch := c.pop()
	defer branch.Release()

	cond := c.pop()
	defer cond.Release()

	for {
		if err := c.eval(cond); err != nil {
			return err
		}

		v := c.pop()
		if v == nil {
			return c.fail(StackUnderflow, "", "Condition produced no value")
		}

		if v.Kind() != value.Bool {
			v.Release()

			return c.fail(TypeMismatch, "", "Condition must produce a boolean")
		}

		taken := v.Bool()
		v.Release()

		if taken {
			if err := c.eval(branch); err != nil {
				return err
			}

			if op == opWhile {
				continue
			}
		} else if otherwise != nil {
			if err := c.eval(otherwise); err != nil {
				return err
			}
		}

		return nil
	}
}

// evalList executes a popped list in the current frame or, for up-eval,
// in the parent frame when one exists. No new frame is created, so the
// body's local reads and captures land in the chosen frame.
func (c *interp) evalList(up bool) *Error {
	if err := c.operands(value.List); err != nil {
		return err
	}

	l := c.pop()

	f := c.frame
	if up && f.previous != nil {
		f = f.previous
	}

	err := c.evalIn(l, f)

	l.Release()

	return err
}

func (c *interp) sortList() *Error {
	if err := c.operands(value.List); err != nil {
		return err
	}

	l := c.pop().Exclusive()

	items := l.Items()
	sort.SliceStable(items, func(i, j int) bool {
		n, ok := value.Compare(items[i], items[j])

		return ok && n < 0
	})

	c.push(l)

	return nil
}

func (c *interp) defineProcedure() *Error {
	if err := c.operands(value.List, value.Symbol); err != nil {
		return err
	}

	name := c.pop()
	body := c.pop()

	c.define(name.Text(), body)
	name.Release()

	return nil
}

func (c *interp) write(newline bool) *Error {
	if err := c.operands(value.Any); err != nil {
		return err
	}

	v := c.pop()

	fmt.Fprint(c.out, v.String())

	if newline {
		fmt.Fprintln(c.out)
	}

	v.Release()

	return nil
}

// show peeks at the top of the stack and prints its literal form. It is
// a diagnostic and leaves the stack untouched.
func (c *interp) show() *Error {
	if err := c.operands(value.Any); err != nil {
		return err
	}

	fmt.Fprintln(c.out, c.peek(0).Literal())

	return nil
}

func (c *interp) length() *Error {
	if err := c.operands(value.String | value.Symbol | value.List | value.Tuple); err != nil {
		return err
	}

	v := c.pop()
	n := v.Len()
	v.Release()

	c.push(value.NewInt(n))

	return nil
}

func (c *interp) appendElement() *Error {
	if err := c.operands(value.List, value.Any); err != nil {
		return err
	}

	e := c.pop()
	l := c.pop().Exclusive()

	l.Append(e)
	c.push(l)

	return nil
}

// index pushes the selected element of a list, tuple or string. Negative
// indices count from the end. Out of range is not an error: a boolean
// false sentinel is pushed instead.
func (c *interp) index() *Error {
	if err := c.operands(value.List|value.Tuple|value.String, value.Int); err != nil {
		return err
	}

	at := c.pop()
	v := c.pop()

	i := at.Int()
	at.Release()

	if i < 0 {
		i += v.Len()
	}

	if i < 0 || i >= v.Len() {
		v.Release()
		c.push(value.NewBool(false))

		return nil
	}

	if v.Kind() == value.String {
		c.push(value.NewString(v.Bytes()[i : i+1]))
		v.Release()

		return nil
	}

	e := v.Items()[i].Retain()
	v.Release()
	c.push(e)

	return nil
}

// concat joins two list-category or two string-category values. The
// category check happens before anything is popped, so a mismatch
// leaves the stack as it was.
func (c *interp) concat() *Error {
	if err := c.operands(value.Any, value.Any); err != nil {
		return err
	}

	lists := value.List | value.Tuple
	texts := value.String | value.Symbol

	a, b := c.peek(1), c.peek(0)
	if !(a.Is(lists) && b.Is(lists)) && !(a.Is(texts) && b.Is(texts)) {
		return c.fail(TypeMismatch, "", "Concatenation needs values of one category")
	}

	b = c.pop()
	a = c.pop().Exclusive()

	a.Concat(b)
	b.Release()
	c.push(a)

	return nil
}

func (c *interp) toTuple() *Error {
	if err := c.operands(value.List); err != nil {
		return err
	}

	l := c.pop().Exclusive()
	l.ToTuple()
	c.push(l)

	return nil
}
