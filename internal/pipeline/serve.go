package pipeline

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/norgolith/norgolith/internal/errs"
	"github.com/norgolith/norgolith/internal/log"
	"github.com/norgolith/norgolith/internal/server"
	"github.com/norgolith/norgolith/internal/site"
	"github.com/norgolith/norgolith/internal/watcher"
)

// ServeOptions configures the dev server.
type ServeOptions struct {
	Root   string
	Host   string
	Port   string
	Drafts bool
	Logger log.Logger
}

// Serve runs the watch task, build task, and HTTP+WebSocket server task
// described in SPEC_FULL.md §5 until ctx is canceled. It performs an
// initial full scan/build before accepting connections, then applies one
// batch per debounce window, publishing a new snapshot by atomic pointer
// swap after each. Three watcher errors within 60 s, or the loss of the
// project root, are treated as fatal (§7); the
// HTTP server is given a 5 s shutdown deadline and WebSocket clients are
// closed with code 1001.
func Serve(ctx context.Context, opts ServeOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = log.Nop()
	}

	s, err := newStack(opts.Root)
	if err != nil {
		return err
	}

	var snapshot atomic.Pointer[site.Snapshot]
	var srv *server.Server
	rebuild := func(batch watcher.Batch) {
		result := s.apply(batch, logger)
		for _, e := range result.errs {
			logger.Error("build error", e)
		}
		if result.reconfig {
			s.reloadConfig(logger)
		}
		if result.retemplate {
			s.reloadTemplates()
			if srv != nil {
				srv.UpdateEngine(s.engine)
			}
			if err := writeHighlightCSS(opts.Root, s.cfg, logger); err != nil {
				logger.Error("highlight CSS generation failed", err)
			}
		}
		snapshot.Store(s.model.Snapshot())
	}

	initial, err := scanTree(opts.Root)
	if err != nil {
		return err
	}
	rebuild(initial)
	if err := writeHighlightCSS(opts.Root, s.cfg, logger); err != nil {
		logger.Error("highlight CSS generation failed", err)
	}
	snapshot.Store(s.model.Snapshot())

	srv = server.New(server.Options{
		Snapshot: &snapshot,
		Engine:   s.engine,
		Logger:   logger,
		AssetRoots: []string{
			filepath.Join(opts.Root, "content"),
			filepath.Join(opts.Root, "assets"),
			filepath.Join(opts.Root, "theme", "assets"),
		},
		Dev:    true,
		Drafts: opts.Drafts,
	})

	w, err := watcher.New(opts.Root, watcher.WithLogger(logger))
	if err != nil {
		return err
	}

	batches, fatal := w.Run(ctx)

	addr := net.JoinHostPort(opts.Host, opts.Port)
	httpServer := &http.Server{Addr: addr, Handler: srv}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("serving", "addr", "http://"+addr)
		serveErr <- httpServer.ListenAndServe()
	}()

	for {
		select {
		case batch, ok := <-batches:
			if !ok {
				if err := shutdown(httpServer, srv); err != nil {
					return err
				}
				return ctx.Err()
			}
			rebuild(batch)
			srv.Broadcaster.BroadcastReload(ctx)

		case err := <-fatal:
			srv.Broadcaster.BroadcastError(ctx, err.Error())
			_ = shutdown(httpServer, srv)
			return &errs.WatcherError{Err: err}

		case err := <-serveErr:
			if err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("server error: %w", err)
			}
			return nil

		case <-ctx.Done():
			if err := shutdown(httpServer, srv); err != nil {
				return err
			}
			return ctx.Err()
		}
	}
}

func shutdown(httpServer *http.Server, srv *server.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(ctx)
	return httpServer.Shutdown(ctx)
}
