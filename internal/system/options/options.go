// Released under an MIT license. See LICENSE.

// Package options parses the command line.
package options

import (
	"os"

	"github.com/docopt/docopt-go"
	"github.com/mattn/go-isatty"
)

//nolint:gochecknoglobals
var (
	args        []string
	color       bool
	interactive bool
	script      string
	usage       = `catis

Usage:
  catis [SCRIPT [ARGUMENTS...]]
  catis -h
  catis -v

Arguments:
  SCRIPT     Path to a catis program, run as one list.
  ARGUMENTS  Literal values pushed onto the data stack, in order,
             before SCRIPT is evaluated.

Options:
  -h, --help     Display this help.
  -v, --version  Print catis version.

With no operands and a TTY on stdin, catis reads a line at a time,
evaluates it, and prints the data stack. Otherwise stdin is read to the
end and run as one program.
`
)

// Args returns the trailing command-line arguments.
func Args() []string {
	return args
}

// Color returns true if output may use ANSI color.
func Color() bool {
	return color
}

// Interactive returns true if catis should present a prompt.
func Interactive() bool {
	return interactive
}

// Script returns the path of the program to run, or "".
func Script() string {
	return script
}

func Parse(version string) {
	opts, err := docopt.ParseArgs(usage, nil, version)
	if err != nil {
		// Error in the usage doc. This should never happen.
		panic(err.Error())
	}

	script, _ = opts.String("SCRIPT")
	args, _ = opts["ARGUMENTS"].([]string)

	if script == "" && isatty.IsTerminal(os.Stdin.Fd()) {
		interactive = true
	}

	color = isatty.IsTerminal(os.Stdout.Fd())
}
