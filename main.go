/*
Catis is an interpreter for a small concatenative, stack-based language.
Programs are lists of literal values evaluated left to right against a
shared data stack:

    catis> 2 3 + print
    5
    catis> [1 2 3] [dup *] map print
    1 4 9

Run with no operands for an interactive prompt, or with a program file
and optional literal arguments to push before evaluation:

    catis fib.catis 10

Catis is released under an MIT-style license.
*/
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/catis-lang/catis/internal/interp"
	"github.com/catis-lang/catis/internal/parser"
	"github.com/catis-lang/catis/internal/system/options"
	"github.com/catis-lang/catis/internal/ui"
)

const version = "catis 0.1.0"

// repl evaluates one line against a persistent interpreter and prints
// the resulting data stack, or the error. Errors do not end the session.
type repl struct {
	interp *interp.T
	color  bool
	out    io.Writer
}

func (r *repl) Evaluate(line string) {
	program, err := parser.Parse(line)
	if err != nil {
		fmt.Fprintln(r.out, err)

		return
	}

	rerr := r.interp.Run(program)

	program.Release()

	if rerr != nil {
		fmt.Fprintln(r.out, rerr)

		return
	}

	r.interp.ShowStack(r.color)
}

func main() {
	options.Parse(version)

	c := interp.New()

	if options.Interactive() {
		ui.Run(&repl{interp: c, color: options.Color(), out: os.Stdout})

		return
	}

	source, err := read()
	if err != nil {
		die(err)
	}

	program, perr := parser.Parse(source)
	if perr != nil {
		die(perr)
	}

	for _, arg := range options.Args() {
		v, aerr := parser.ParseLiteral(arg)
		if aerr != nil {
			die(aerr)
		}

		c.Push(v)
	}

	rerr := c.Run(program)

	program.Release()

	if rerr != nil {
		die(rerr)
	}
}

func read() (string, error) {
	if options.Script() == "" {
		b, err := io.ReadAll(os.Stdin)

		return string(b), err
	}

	b, err := os.ReadFile(options.Script())

	return string(b), err
}

func die(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
