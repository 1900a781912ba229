// Package controller provides the interactive and plain front ends that
// drive a search-replace session through its phases:
// Configure → Scanning → Reviewing → Applying → Report.
package controller

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/marsh-hen/refix/internal/domain"
	m "github.com/marsh-hen/refix/internal/model"
)

// Defaults seeds the front end with values from the command line. In the TUI
// they pre-fill the form; the plain front end uses them as-is.
type Defaults struct {
	Spec    m.SearchSpec
	Replace m.ReplaceSpec
}

// UI drives one or more search-replace cycles over a session.
// Implementations: TUI (Bubble Tea) and SimpleUI (plain text, applies every
// match without review).
type UI interface {
	Run(ctx context.Context, session *domain.Session, defaults Defaults) error
}

// NewUI selects the front end: the TUI when the terminal is interactive, the
// plain one otherwise. This is a factory function following the factory
// pattern.
func NewUI(cmd *cobra.Command, useTTY bool) UI {
	if useTTY {
		return NewTUI(cmd.OutOrStdout())
	}

	return NewSimpleUI(cmd)
}

// IsTTY checks if the given writer is a terminal (TTY).
// Returns true if the output is an interactive terminal.
// Returns false if the output is redirected to a file or pipe.
func IsTTY(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}

	fileInfo, err := file.Stat()
	if err != nil {
		return false
	}

	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
