package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/norgolith/norgolith/internal/log"
	"github.com/norgolith/norgolith/internal/pipeline"
)

// BuildCommand runs a single production build of the site.
type BuildCommand struct {
	projectRoot string
	outputDir   string
	minify      bool
	keepGoing   bool
}

// NewBuildCommand creates a new build command.
func NewBuildCommand(projectRoot string) *BuildCommand {
	return &BuildCommand{
		projectRoot: projectRoot,
		outputDir:   "dist",
	}
}

// WithOutputDir sets the build output directory.
func (c *BuildCommand) WithOutputDir(dir string) *BuildCommand {
	c.outputDir = dir
	return c
}

// WithMinify enables the (external, out-of-scope) minification pass.
func (c *BuildCommand) WithMinify(minify bool) *BuildCommand {
	c.minify = minify
	return c
}

// WithKeepGoing makes Execute return nil even if per-file errors occurred
// during the build, per the `--keep-going` exit-code rule in SPEC_FULL.md §7.
func (c *BuildCommand) WithKeepGoing(keepGoing bool) *BuildCommand {
	c.keepGoing = keepGoing
	return c
}

// Execute runs the build command to completion.
func (c *BuildCommand) Execute(ctx context.Context) error {
	logger := log.New(log.EncodingJSON, logLevelOverride())

	start := time.Now()
	err := pipeline.Build(ctx, pipeline.BuildOptions{
		Root:      c.projectRoot,
		OutputDir: c.outputDir,
		Minify:    c.minify,
		Logger:    logger,
	})
	if err != nil {
		if c.keepGoing {
			logger.Warn("build finished with errors", "error", err)
			return nil
		}
		return fmt.Errorf("build failed: %w", err)
	}

	fmt.Printf("build completed in %v -> %s\n", time.Since(start).Round(time.Millisecond), c.outputDir)
	return nil
}
