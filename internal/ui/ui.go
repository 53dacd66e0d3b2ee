// Released under an MIT license. See LICENSE.

// Package ui provides the line-at-a-time interface for catis.
package ui

import (
	"strings"

	"github.com/peterh/liner"

	"github.com/catis-lang/catis/internal/system/history"
)

// Evaluator is the interface for things that want to process lines.
type Evaluator interface {
	Evaluate(line string)
}

// Run launches the prompt loop, sending each line to the Evaluator.
// Ctrl-C abandons the current line; end of input exits the loop.
func Run(e Evaluator) {
	cli := liner.NewLiner()
	defer cli.Close()

	cli.SetCtrlCAborts(true)

	// Best effort: a missing history file is not an error.
	_ = history.Load(cli.ReadHistory)

	for {
		line, err := cli.Prompt("catis> ")

		switch err {
		case nil:
		case liner.ErrPromptAborted:
			continue
		default:
			_ = history.Save(cli.WriteHistory)

			return
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		cli.AppendHistory(line)

		e.Evaluate(line)
	}
}
