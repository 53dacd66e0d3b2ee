// Released under an MIT license. See LICENSE.

package interp

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/catis-lang/catis/internal/parser"
	"github.com/catis-lang/catis/internal/value"
)

// run evaluates src in a fresh interpreter and returns the interpreter
// and everything it wrote.
func run(t *testing.T, src string) (*T, *bytes.Buffer) {
	t.Helper()

	c := New()

	b := &bytes.Buffer{}
	c.SetOutput(b)

	program, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}

	rerr := c.Run(program)

	program.Release()

	if rerr != nil {
		t.Fatalf("run %q: %v", src, rerr)
	}

	return c, b
}

// runError evaluates src expecting a runtime failure of the given kind.
func runError(t *testing.T, src string, kind Kind) (*T, *Error) {
	t.Helper()

	c := New()
	c.SetOutput(&bytes.Buffer{})

	program, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}

	rerr := c.Run(program)

	program.Release()

	if rerr == nil {
		t.Fatalf("run %q: expected an error", src)
	}

	var e *Error
	if !errors.As(rerr, &e) {
		t.Fatalf("run %q: error is not an interp.Error: %v", src, rerr)
	}

	if e.Kind != kind {
		t.Fatalf("run %q: got %v, want %v: %v", src, e.Kind, kind, e)
	}

	return c, e
}

// ints reads the whole data stack, oldest first, as integers.
func ints(t *testing.T, c *T) []int {
	t.Helper()

	out := make([]int, 0, len(c.stack))

	for _, v := range c.stack {
		if v.Kind() != value.Int {
			t.Fatalf("stack value %s is not an integer", v.Literal())
		}

		out = append(out, v.Int())
	}

	return out
}

func TestLiteralsPush(t *testing.T) {
	c, _ := run(t, `1 #t "s" [1 2] '(a b) 'name`)

	if len(c.stack) != 6 {
		t.Fatalf("stack depth %d, want 6", len(c.stack))
	}

	kinds := []value.Kind{
		value.Int, value.Bool, value.String,
		value.List, value.Tuple, value.Symbol,
	}

	for i, k := range kinds {
		if c.stack[i].Kind() != k {
			t.Errorf("stack[%d]: kind %v, want %v", i, c.stack[i].Kind(), k)
		}
	}

	// Quoting was consumed by evaluation.
	for _, i := range []int{4, 5} {
		if c.stack[i].Quoted() {
			t.Errorf("stack[%d] still quoted", i)
		}
	}
}

func TestCaptureOrder(t *testing.T) {
	// The leftmost tuple element receives the value popped first.
	c, _ := run(t, "5 4 (a b) $a $b")

	if got := ints(t, c); got[0] != 4 || got[1] != 5 {
		t.Fatalf("capture order: stack %v, want [4 5]", got)
	}
}

func TestCaptureSum(t *testing.T) {
	c, _ := run(t, "5 4 (a b) $a $b +")

	if got := ints(t, c); len(got) != 1 || got[0] != 9 {
		t.Fatalf("sum: stack %v, want [9]", got)
	}
}

func TestCaptureIsDestructive(t *testing.T) {
	c, _ := run(t, "1 2 (a)")

	if got := ints(t, c); len(got) != 1 || got[0] != 1 {
		t.Fatalf("capture left stack %v, want [1]", got)
	}
}

func TestCaptureReplacesBinding(t *testing.T) {
	c, _ := run(t, "1 (a) 2 (a) $a")

	if got := ints(t, c); len(got) != 1 || got[0] != 2 {
		t.Fatalf("rebinding: stack %v, want [2]", got)
	}
}

func TestCaptureUnderflowNamesSlot(t *testing.T) {
	_, e := runError(t, "1 (a b)", StackUnderflow)

	if e.Snippet != "b" {
		t.Errorf("offending slot: got %q, want %q", e.Snippet, "b")
	}
}

func TestCaptureRejectsRetaggedTuple(t *testing.T) {
	// to-tuple can build a tuple whose slots are not single-character
	// symbols; evaluating one is a type error, not a crash.
	runError(t, "5 6 [] [1 2] to-tuple <- eval", TypeMismatch)
	runError(t, "5 [] [ab] to-tuple <- eval", TypeMismatch)
}

func TestLocalReadDoesNotConsume(t *testing.T) {
	c, _ := run(t, "7 (a) $a $a")

	if got := ints(t, c); len(got) != 2 || got[0] != 7 || got[1] != 7 {
		t.Fatalf("local reads: stack %v, want [7 7]", got)
	}
}

func TestUnboundLocal(t *testing.T) {
	_, e := runError(t, "$z", UnboundLocal)

	if e.Snippet != "$z" {
		t.Errorf("snippet: got %q, want %q", e.Snippet, "$z")
	}
}

func TestProcedureNotFound(t *testing.T) {
	runError(t, "no-such-thing", ProcedureNotFound)
}

func TestDefineAndCall(t *testing.T) {
	c, _ := run(t, "[(x) $x $x +] 'double define 21 double")

	if got := ints(t, c); len(got) != 1 || got[0] != 42 {
		t.Fatalf("double: stack %v, want [42]", got)
	}
}

func TestLocalsAreFramePrivate(t *testing.T) {
	// A called procedure neither sees nor clobbers its caller's locals.
	c, _ := run(t, "1 (a) [9 (a)] 'clobber define clobber $a")

	if got := ints(t, c); len(got) != 1 || got[0] != 1 {
		t.Fatalf("frame isolation: stack %v, want [1]", got)
	}
}

func TestRedefinitionReplaces(t *testing.T) {
	c, _ := run(t, "[1] 'f define f [2] 'f define f")

	if got := ints(t, c); len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("redefinition: stack %v, want [1 2]", got)
	}
}

func TestRedefinitionOfNative(t *testing.T) {
	c, _ := run(t, "[99] '+ define 1 2 +")

	if got := ints(t, c); len(got) != 3 || got[2] != 99 {
		t.Fatalf("native redefinition: stack %v, want [1 2 99]", got)
	}
}

func TestSelfRedefinition(t *testing.T) {
	// The first call replaces the definition; the second call runs the
	// replacement. The in-flight body keeps running to completion.
	c, _ := run(t, "[[2] 'f define] 'f define f f")

	if got := ints(t, c); len(got) != 1 || got[0] != 2 {
		t.Fatalf("self redefinition: stack %v, want [2]", got)
	}
}

func TestEvalRunsList(t *testing.T) {
	c, _ := run(t, "[1 2 +] eval")

	if got := ints(t, c); len(got) != 1 || got[0] != 3 {
		t.Fatalf("eval: stack %v, want [3]", got)
	}
}

func TestUpEvalReachesCallerLocals(t *testing.T) {
	c, _ := run(t, "[(f) $f up-eval] 'with-caller define "+
		"10 (k) [$k 1 +] with-caller")

	if got := ints(t, c); len(got) != 1 || got[0] != 11 {
		t.Fatalf("up-eval: stack %v, want [11]", got)
	}
}

func TestEvalDoesNotReachCallerLocals(t *testing.T) {
	// Same shape as above with plain eval: the called procedure's frame
	// has no binding for k.
	runError(t, "[(f) $f eval] 'with-own define "+
		"10 (k) [$k 1 +] with-own", UnboundLocal)
}

func TestUpEvalAtTopLevel(t *testing.T) {
	// No parent frame exists at the top level; the current frame is used.
	c, _ := run(t, "3 (a) [$a] up-eval")

	if got := ints(t, c); len(got) != 1 || got[0] != 3 {
		t.Fatalf("top-level up-eval: stack %v, want [3]", got)
	}
}

func TestStackOverflowIsRecoverable(t *testing.T) {
	c, _ := runError(t, "[loop] 'loop define loop", StackOverflow)

	// The interpreter survives: the frame chain unwound to the top.
	if c.frame.previous != nil {
		t.Fatal("frame chain not unwound after overflow")
	}

	program, err := parser.Parse("1 1 +")
	if err != nil {
		t.Fatal(err)
	}

	defer program.Release()

	if err := c.Run(program); err != nil {
		t.Fatalf("interpreter unusable after overflow: %v", err)
	}
}

func TestEvalSelfApplicationOverflows(t *testing.T) {
	// A list that duplicates and evaluates itself recurses without
	// ever calling a user procedure; the depth cap must still catch
	// it rather than let the runtime stack exhaust.
	c, _ := runError(t, "[dup eval] dup eval", StackOverflow)

	if c.depth != 0 {
		t.Fatal("depth not unwound after overflow")
	}
}

func TestErrorTraceWalksFrames(t *testing.T) {
	_, e := runError(t, "[$z] 'inner define [inner] 'outer define outer", UnboundLocal)

	msg := e.Error()

	for _, want := range []string{"Unbound local", "'$z'", " in inner:", " in outer:", " in top level:"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q missing %q", msg, want)
		}
	}
}

func TestErrorSnippetElided(t *testing.T) {
	name := strings.Repeat("x", 50)

	_, e := runError(t, name, ProcedureNotFound)

	if len(e.Snippet) != snippetMax+len("...") {
		t.Errorf("snippet not elided: %q", e.Snippet)
	}
}

func TestErrorStringBounded(t *testing.T) {
	// Deep recursion makes for a long frame walk; the rendered string
	// stays bounded regardless.
	_, e := runError(t, "[r] 'r define r", StackOverflow)

	if len(e.Error()) > errorMax {
		t.Errorf("error string length %d exceeds %d", len(e.Error()), errorMax)
	}
}

func TestFailureAbortsRemainingElements(t *testing.T) {
	c, _ := runError(t, "1 $z 2 3", UnboundLocal)

	if got := ints(t, c); len(got) != 1 || got[0] != 1 {
		t.Fatalf("stack after abort: %v, want [1]", got)
	}
}

func TestProgramSharedWithStack(t *testing.T) {
	// A list literal on the stack shares structure with the program
	// until someone needs exclusive access.
	c := New()
	c.SetOutput(&bytes.Buffer{})

	program, err := parser.Parse("[1 2 3]")
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Run(program); err != nil {
		t.Fatal(err)
	}

	lit := program.Items()[0]
	if lit.Refs() != 2 {
		t.Fatalf("literal reference count %d, want 2", lit.Refs())
	}

	program.Release()

	v := c.pop()
	if v.Refs() != 1 {
		t.Fatalf("popped reference count %d, want 1", v.Refs())
	}

	v.Release()
}

func TestShowStackCapsAndElides(t *testing.T) {
	c := New()

	b := &bytes.Buffer{}
	c.SetOutput(b)

	for i := 1; i <= 20; i++ {
		c.Push(value.NewInt(i))
	}

	c.ShowStack(false)

	out := b.String()

	if !strings.HasPrefix(out, "5 6 ") {
		t.Errorf("display starts %q, want the 16 newest entries", out)
	}

	if !strings.Contains(out, "[... 4 more values ...]") {
		t.Errorf("display %q missing elision marker", out)
	}
}

func TestShowStackColor(t *testing.T) {
	c := New()

	b := &bytes.Buffer{}
	c.SetOutput(b)
	c.Push(value.NewInt(1))

	c.ShowStack(true)

	if !strings.Contains(b.String(), "\033[") {
		t.Error("color display carries no escapes")
	}
}

func TestIndependentInterpreters(t *testing.T) {
	a := New()
	b := New()

	program, err := parser.Parse("[7] 'seven define")
	if err != nil {
		t.Fatal(err)
	}

	defer program.Release()

	if err := a.Run(program); err != nil {
		t.Fatal(err)
	}

	if b.lookup("seven") != nil {
		t.Fatal("definition leaked between interpreter instances")
	}
}
