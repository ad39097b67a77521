package viewcheck

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/bizmap/pkg/logger"
)

// SetupLogging initializes the logger writing to w. Verbose enables debug output.
func SetupLogging(w io.Writer, verbose bool) error {
	if w == nil {
		w = os.Stdout
	}
	if err := logger.Init(logger.WithFormat("text"), logger.WithWriter(w)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		return logger.SetLevelString("debug")
	}
	return nil
}

// ShowHelp prints usage information for the view check tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`bizmap View Check
=================

Drives a running bizmap service with random filter selections and checks
that every view keeps its guarantees: only rows with coordinates, ZIPs
without separators, rows that satisfy every selected column, option lists
in display order and identical output for identical input.

Usage:
  go run ./cmd/view-check [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -runs int
        Number of random selections to check (default 200)
  -seed int
        Seed for the selection generator (default 1)
  -workers int
        Number of concurrent checks (default 4)
  -timeout duration
        HTTP request timeout (default 30s)
  -verbose
        Log every selection
  -help
        Show this help message

Examples:
  # Check a local instance
  go run ./cmd/view-check

  # Reproduce a failing run
  go run ./cmd/view-check -seed 42 -runs 1000 -verbose
`)
}
