package cmd

import (
	"os"

	"github.com/fatih/color"
	isatty "github.com/mattn/go-isatty"
)

func init() {
	// Disable colorized diagnostics when standard error isn't a terminal,
	// e.g. when output is piped or redirected to a log file.
	if !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		color.NoColor = true
	}
}
