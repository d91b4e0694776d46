package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// ThemeCommand scaffolds theme/ and records the pull source. Pulling a
// theme from a remote is SPEC_FULL.md §6's "minimal scaffolding stub":
// directory/file creation only — no version-control client is vendored
// (§1's non-goals name theme pulling as an out-of-scope collaborator).
type ThemeCommand struct {
	projectRoot string
	source      string
}

// NewThemeCommand creates a new theme-pull command.
func NewThemeCommand(projectRoot, source string) *ThemeCommand {
	return &ThemeCommand{projectRoot: projectRoot, source: source}
}

// Execute creates theme/templates and theme/assets and records the
// source a real VCS-backed `lith theme pull` would have cloned from.
func (tc *ThemeCommand) Execute(ctx context.Context) error {
	if tc.source == "" {
		return fmt.Errorf("theme source is required")
	}

	themeDir := filepath.Join(tc.projectRoot, "theme")
	dirs := []string{
		filepath.Join(themeDir, "templates"),
		filepath.Join(themeDir, "assets"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	sourcePath := filepath.Join(themeDir, "SOURCE")
	contents := fmt.Sprintf("%s\n", tc.source)
	if err := os.WriteFile(sourcePath, []byte(contents), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", sourcePath, err)
	}

	return nil
}
