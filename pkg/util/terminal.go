package util

import (
	"os"

	"golang.org/x/term"
)

// IsTerminal reports whether f is attached to an interactive terminal
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// StdinIsTerminal reports whether stdin is interactive
func StdinIsTerminal() bool {
	return IsTerminal(os.Stdin)
}

// StderrIsTerminal reports whether stderr is interactive, which decides
// whether progress bars are drawn by default
func StderrIsTerminal() bool {
	return IsTerminal(os.Stderr)
}
