// Package server is the HTTP + WebSocket front end of SPEC_FULL.md §4.6,
// grounded on dalemusser-waffle/router.New (a chi.Router pre-wired with
// RequestID/RealIP/Recoverer/request-logging middleware) and on the
// teacher's own cmd/serve.go static file server, generalized to add
// caching headers and a live-reload channel.
package server

import (
	"context"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/norgolith/norgolith/internal/log"
	"github.com/norgolith/norgolith/internal/render"
	"github.com/norgolith/norgolith/internal/site"
)

// Server answers requests from the current site.Snapshot, published by
// the pipeline's build task via an atomic pointer swap.
type Server struct {
	snapshot *atomic.Pointer[site.Snapshot]
	engine   atomic.Pointer[render.Engine]
	logger   log.Logger

	assetRoots []string // tried in order: content/, assets/, theme/assets/
	dev        bool     // serve mode: no-cache headers
	drafts     bool     // include draft documents in posts/categories; draft pages render by route either way

	Broadcaster *Broadcaster

	router chi.Router
}

// Options configures a new Server.
type Options struct {
	Snapshot   *atomic.Pointer[site.Snapshot]
	Engine     *render.Engine
	Logger     log.Logger
	AssetRoots []string
	Dev        bool
	Drafts     bool
}

// New builds a Server with its chi router mounted.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Nop()
	}

	s := &Server{
		snapshot:    opts.Snapshot,
		logger:      logger,
		assetRoots:  opts.AssetRoots,
		dev:         opts.Dev,
		drafts:      opts.Drafts,
		Broadcaster: NewBroadcaster(logger),
	}
	s.engine.Store(opts.Engine)
	s.router = s.newRouter()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// UpdateEngine swaps the template engine every subsequent request renders
// against. The caller publishes a new *render.Engine here whenever a
// template file changes, since the engine isn't part of site.Snapshot and
// so doesn't otherwise follow the atomic snapshot swap.
func (s *Server) UpdateEngine(e *render.Engine) {
	s.engine.Store(e)
}

func (s *Server) newRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(s.accessLog)

	if s.dev {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET"},
		}))
	}

	r.Get("/rss.xml", s.handleRSS)
	r.Get("/__livereload", s.Broadcaster.Handler)
	r.Get("/*", s.handleRoute)

	return r
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start).String())
	})
}

// handleRoute answers GET / and GET /<route>[/] by rendering a document,
// falling back to asset serving for any path that isn't a known route.
func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot.Load()
	if snap == nil {
		http.Error(w, "site not built yet", http.StatusServiceUnavailable)
		return
	}

	route := normalizeRoute(r.URL.Path)

	doc, err := snap.Document(route)
	if err != nil {
		if s.serveAsset(w, r, snap) {
			return
		}
		s.render404(w, snap)
		return
	}

	html, renderErr := renderDocument(s.engine.Load(), snap, doc, s.drafts)
	if renderErr != nil {
		s.logger.Error("render failed", renderErr, "route", route)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("<h1>500 Internal Server Error</h1><pre>" + renderErr.Error() + "</pre>"))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}

func (s *Server) render404(w http.ResponseWriter, snap *site.Snapshot) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)

	if doc, err := snap.Document("/404/"); err == nil {
		if html, rerr := renderDocument(s.engine.Load(), snap, doc, s.drafts); rerr == nil {
			_, _ = w.Write([]byte(html))
			return
		}
	}
	_, _ = w.Write([]byte("<h1>404 Not Found</h1>"))
}

// serveAsset tries each asset root in order (content/, assets/,
// theme/assets/) for a file matching the requested path.
func (s *Server) serveAsset(w http.ResponseWriter, r *http.Request, snap *site.Snapshot) bool {
	rel := strings.TrimPrefix(r.URL.Path, "/")
	for _, root := range s.assetRoots {
		full := filepath.Join(root, filepath.FromSlash(rel))
		data, err := os.ReadFile(full)
		if err != nil {
			continue
		}

		if s.dev {
			w.Header().Set("Cache-Control", "no-cache")
		} else {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		}
		if ct := mime.TypeByExtension(filepath.Ext(full)); ct != "" {
			w.Header().Set("Content-Type", ct)
		}
		_, _ = w.Write(data)
		return true
	}
	return false
}

func normalizeRoute(p string) string {
	if p == "" {
		p = "/"
	}
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}

// Shutdown closes every live-reload connection with code 1001; the
// caller additionally invokes http.Server.Shutdown with its own deadline
// (§5).
func (s *Server) Shutdown(_ context.Context) {
	s.Broadcaster.Shutdown()
}
