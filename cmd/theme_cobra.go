package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var themeCmd = &cobra.Command{
	Use:     "theme",
	Short:   "Manage the project's theme",
	GroupID: "scaffolding",
}

var themePullCmd = &cobra.Command{
	Use:   "pull <source>",
	Short: "Pull a theme into theme/",
	Args:  cobra.ExactArgs(1),
	Example: `  lith theme pull https://github.com/example/norgolith-theme-basic`,
	RunE: runThemePull,
}

func init() {
	rootCmd.AddCommand(themeCmd)
	themeCmd.AddCommand(themePullCmd)
}

func runThemePull(cmd *cobra.Command, args []string) error {
	themeCommand := NewThemeCommand(ProjectRoot, args[0])
	if err := themeCommand.Execute(cmd.Context()); err != nil {
		return err
	}
	fmt.Println("theme/ scaffolded")
	return nil
}
