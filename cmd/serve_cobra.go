package cmd

import (
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Serve the site with live reload",
	Long:    "Watch the project tree, rebuild on change, and serve the site with browser live reload.",
	GroupID: "building",
	Example: `  lith serve
  lith serve --port 3000
  lith serve --host 0.0.0.0 --drafts`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "localhost", "server bind host")
	serveCmd.Flags().StringP("port", "P", "8080", "server bind port")
	serveCmd.Flags().Bool("drafts", false, "show draft documents in dev")
}

func runServe(cmd *cobra.Command, args []string) error {
	serveCommand := NewServeCommand(ProjectRoot)

	if host, _ := cmd.Flags().GetString("host"); host != "" {
		serveCommand.WithHost(host)
	}
	if port, _ := cmd.Flags().GetString("port"); port != "" {
		serveCommand.WithPort(port)
	}
	if drafts, _ := cmd.Flags().GetBool("drafts"); drafts {
		serveCommand.WithDrafts(true)
	}

	return serveCommand.Execute(cmd.Context())
}
