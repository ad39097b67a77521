package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/bizmap/internal/viewcheck"
)

// Default configuration constants.
const (
	defaultRuns        = 200
	defaultSeed        = 1
	defaultWorkers     = 4
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:9080", "Base URL of the service")
		runs    = flag.Int("runs", defaultRuns, "Number of random selections to check")
		seed    = flag.Int64("seed", defaultSeed, "Seed for the selection generator")
		workers = flag.Int("workers", defaultWorkers, "Number of concurrent checks")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		verbose = flag.Bool("verbose", false, "Log every selection")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		viewcheck.ShowHelp()
		return
	}

	if err := viewcheck.SetupLogging(os.Stdout, *verbose); err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	config := &viewcheck.Config{
		BaseURL: *baseURL,
		Runs:    *runs,
		Seed:    *seed,
		Workers: *workers,
		Timeout: *timeout,
		Verbose: *verbose,
	}

	if _, _, err := viewcheck.Run(ctx, config); err != nil {
		_, _ = os.Stderr.WriteString("View check failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1) //nolint:gocritic // cancel already called
	}
}
