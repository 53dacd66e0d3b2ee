// Released under an MIT license. See LICENSE.

// Package history loads and saves the interactive history file.
package history

import (
	"io"
	"os"
	"path/filepath"
)

const name = ".catis_history"

// Load reads saved history with read, typically liner's ReadHistory.
func Load(read func(r io.Reader) (int, error)) error {
	f, err := file(os.Open)
	if err != nil {
		return err
	}

	_, err = read(f)
	if err != nil {
		return err
	}

	return f.Close()
}

// Save writes history with write, typically liner's WriteHistory.
func Save(write func(w io.Writer) (int, error)) error {
	f, err := file(os.Create)
	if err != nil {
		return err
	}

	_, err = write(f)
	if err != nil {
		return err
	}

	return f.Close()
}

func file(open func(string) (*os.File, error)) (*os.File, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	return open(filepath.Join(home, name))
}
