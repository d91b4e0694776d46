package cmd

import (
	"github.com/spf13/cobra"
)

var newCmd = &cobra.Command{
	Use:     "new <name>",
	Aliases: []string{"n"},
	Short:   "Create a new content document",
	Long:    "Create a new .norg document under content/ (-k content) or content/posts/ (-k post).",
	GroupID: "scaffolding",
	Args:    cobra.ExactArgs(1),
	Example: `  lith new -k post hello-world
  lith new -k content about`,
	RunE: runNew,
}

func init() {
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().StringP("kind", "k", "content", "document kind: content or post")
	newCmd.Flags().StringP("title", "t", "", "document title (defaults to a titlecased name)")
}

func runNew(cmd *cobra.Command, args []string) error {
	kind, _ := cmd.Flags().GetString("kind")
	title, _ := cmd.Flags().GetString("title")

	newCommand := NewNewCommand(kind, args[0])
	newCommand.WithProjectRoot(ProjectRoot)
	newCommand.WithTitle(title)

	return newCommand.Execute(cmd.Context())
}
