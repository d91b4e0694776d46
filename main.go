// Package main is the entry point for the lith CLI.
// lith is the command-line interface for norgolith, a static site
// generator for the Norg markup language.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/norgolith/norgolith/cmd"
	"github.com/norgolith/norgolith/internal/errs"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, date, builtBy)

	if err := cmd.Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Println("✓ interrupted, shut down cleanly")
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error to the process exit code named in spec.md's CLI
// surface section: 0 success, 1 user/config error, 2 build/watcher
// failure, 130 interrupted.
func exitCode(err error) int {
	if err == nil {
		return 0
	}

	if errors.Is(err, context.Canceled) {
		return 130
	}

	var configErr *errs.ConfigError
	if errors.As(err, &configErr) {
		return 1
	}
	return 2
}
