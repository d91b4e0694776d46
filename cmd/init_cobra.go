package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:     "init <project-name>",
	Short:   "Initialize a new norgolith project",
	Long:    "Create a new norgolith project with norgolith.toml and the content/templates/theme/assets directory layout.",
	GroupID: "scaffolding",
	Args:    cobra.ExactArgs(1),
	Example: `  lith init myblog
  lith init myblog --title "My Blog" --author "Jane Doe"`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().String("title", "", "site title (defaults to the project name)")
	initCmd.Flags().String("author", "", "site author")
	initCmd.Flags().String("path", "", "project path (defaults to project name)")
}

func runInit(cmd *cobra.Command, args []string) error {
	projectName := args[0]

	initCommand := NewInitCommand(projectName)

	if title, _ := cmd.Flags().GetString("title"); title != "" {
		initCommand.WithTitle(title)
	}
	if author, _ := cmd.Flags().GetString("author"); author != "" {
		initCommand.WithAuthor(author)
	}
	if path, _ := cmd.Flags().GetString("path"); path != "" {
		initCommand.WithPath(path)
	}

	if err := initCommand.Execute(cmd.Context()); err != nil {
		return err
	}

	fmt.Printf("project %q initialized\n", projectName)
	return nil
}
