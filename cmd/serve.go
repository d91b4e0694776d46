package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/norgolith/norgolith/internal/log"
	"github.com/norgolith/norgolith/internal/pipeline"
)

// ServeCommand runs the development server: watch, build, and serve with
// live reload until interrupted.
type ServeCommand struct {
	projectRoot string
	host        string
	port        string
	drafts      bool
}

// NewServeCommand creates a new serve command.
func NewServeCommand(projectRoot string) *ServeCommand {
	return &ServeCommand{
		projectRoot: projectRoot,
		host:        "localhost",
		port:        "8080",
	}
}

// WithHost sets the server bind host.
func (c *ServeCommand) WithHost(host string) *ServeCommand {
	c.host = host
	return c
}

// WithPort sets the server bind port.
func (c *ServeCommand) WithPort(port string) *ServeCommand {
	c.port = port
	return c
}

// WithDrafts makes draft documents visible in posts/categories indices.
func (c *ServeCommand) WithDrafts(drafts bool) *ServeCommand {
	c.drafts = drafts
	return c
}

// Execute runs the dev server until ctx is canceled or a SIGINT/SIGTERM
// is received.
func (c *ServeCommand) Execute(ctx context.Context) error {
	logger := log.New(log.EncodingConsole, logLevelOverride())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return pipeline.Serve(ctx, pipeline.ServeOptions{
		Root:   c.projectRoot,
		Host:   c.host,
		Port:   c.port,
		Drafts: c.drafts,
		Logger: logger,
	})
}
