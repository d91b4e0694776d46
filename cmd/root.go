// Package cmd implements the lith CLI commands using Cobra. It is the
// out-of-scope "CLI parser and subcommand dispatch" collaborator named in
// SPEC_FULL.md §1/§6: every subcommand here is a thin adapter that parses
// flags and calls into internal/pipeline, internal/config, or
// internal/site for the actual work.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Build-time version information, set via SetVersionInfo from main.go.
var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
	appBuiltBy = "unknown"
)

// Persistent flag values accessible to all subcommands.
var (
	ProjectRoot string
	Verbose     bool
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "lith",
	Short: "A static site generator for Norg",
	Long: `lith is the CLI for Norgolith, a static site generator for the
Norg markup language. It converts a tree of .norg documents to HTML via a
template engine, and can serve the site with live reload while developing.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&ProjectRoot, "project", "p", ".", "project root directory")
	rootCmd.PersistentFlags().BoolVarP(&Verbose, "verbose", "v", false, "enable debug logging (overrides LITH_LOG)")

	rootCmd.AddGroup(
		&cobra.Group{ID: "scaffolding", Title: "Scaffolding"},
		&cobra.Group{ID: "building", Title: "Building & serving"},
	)
}

// Execute runs the root command. This is the main entry point called from main.go.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets build-time version information from ldflags.
// Call this from main.go before Execute().
func SetVersionInfo(version, commit, date, builtBy string) {
	appVersion = version
	appCommit = commit
	appDate = date
	appBuiltBy = builtBy

	rootCmd.Version = version
	rootCmd.SetVersionTemplate(
		fmt.Sprintf("lith %s (commit: %s, built: %s by %s)\n", version, commit, date, builtBy),
	)
}

// logLevelOverride returns the --verbose override for LITH_LOG, or "" to
// leave the environment variable in charge.
func logLevelOverride() string {
	if Verbose {
		return "debug"
	}
	return ""
}
