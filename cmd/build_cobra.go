package cmd

import (
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:     "build",
	Aliases: []string{"b"},
	Short:   "Build the site for production",
	Long:    "Render every route to static HTML, copy assets, and write rss.xml.",
	GroupID: "building",
	Example: `  lith build
  lith build --minify
  lith build --output ./dist --keep-going`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().StringP("output", "o", "dist", "output directory")
	buildCmd.Flags().Bool("minify", false, "minify JS/CSS/HTML output")
	buildCmd.Flags().Bool("keep-going", false, "exit 0 even if per-file errors occurred")
}

func runBuild(cmd *cobra.Command, args []string) error {
	buildCommand := NewBuildCommand(ProjectRoot)

	if output, _ := cmd.Flags().GetString("output"); output != "" {
		buildCommand.WithOutputDir(output)
	}
	if minify, _ := cmd.Flags().GetBool("minify"); minify {
		buildCommand.WithMinify(true)
	}
	if keepGoing, _ := cmd.Flags().GetBool("keep-going"); keepGoing {
		buildCommand.WithKeepGoing(true)
	}

	return buildCommand.Execute(cmd.Context())
}
