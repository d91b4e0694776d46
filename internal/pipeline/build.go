package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/norgolith/norgolith/internal/errs"
	"github.com/norgolith/norgolith/internal/log"
	"github.com/norgolith/norgolith/internal/render"
	"github.com/norgolith/norgolith/internal/server"
	"github.com/norgolith/norgolith/internal/site"
)

// BuildOptions configures a one-shot production build.
type BuildOptions struct {
	Root      string
	OutputDir string
	// Minify is accepted and threaded through but left a no-op: real
	// JS/CSS/HTML minification is an out-of-scope external collaborator
	// (SPEC_FULL.md §6); this is the call site a real minifier would
	// hang off.
	Minify bool
	Logger log.Logger
}

// Build performs a single full build: load config, convert every content
// document, render every route to its output file, copy theme/site
// assets, and write rss.xml. A malformed config, an unreadable content
// tree, or a failure to write outputDir is fatal and returned
// immediately; a per-document TemplateError or IOError is logged and
// collected instead, and Build returns their errors.Join once every route
// has been attempted. A Norg parse failure is not among them: the
// document renders as a diagnostic placeholder and is not reported. The
// caller decides what to do with a non-nil return ("non-zero exit unless --keep-going", §7) — Build
// itself always finishes the build and reports what it could.
func Build(ctx context.Context, opts BuildOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = log.Nop()
	}

	s, err := newStack(opts.Root)
	if err != nil {
		return err
	}

	batch, err := scanTree(opts.Root)
	if err != nil {
		return err
	}

	result := s.apply(batch, logger)
	var perFileErrs []error
	for _, e := range result.errs {
		logger.Error("build error", e)
		perFileErrs = append(perFileErrs, e)
	}
	if result.retemplate {
		s.reloadTemplates()
	}

	if err := writeHighlightCSS(opts.Root, s.cfg, logger); err != nil {
		logger.Error("highlight CSS generation failed", err)
	}

	snap := s.model.Snapshot()

	renderErrs, err := renderRoutes(opts.OutputDir, s.engine, snap, logger)
	if err != nil {
		return err
	}
	perFileErrs = append(perFileErrs, renderErrs...)

	if err := copyAssets(opts.Root, opts.OutputDir); err != nil {
		return err
	}

	rssPath := filepath.Join(opts.OutputDir, "rss.xml")
	if err := os.WriteFile(rssPath, server.RenderFeed(snap), 0o644); err != nil {
		return &errs.IOError{Path: rssPath, Err: err}
	}

	logger.Info("build complete", "routes", len(snap.Routes()), "output", opts.OutputDir)

	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.Join(perFileErrs...)
}

// renderRoutes writes every document's rendered HTML to
// <outputDir><route>index.html. Draft documents are skipped entirely:
// spec.md's "drafts appear only in development mode" rule applies to a
// document's own page here, not just to the posts/categories indices,
// and `lith build` has no `--drafts` override. A per-route TemplateError
// or IOError is non-fatal: it is collected and returned alongside the
// routes that did render, per §7's "one bad document doesn't block the
// rest of the build" rule. Only a failure to create outputDir itself is
// fatal.
func renderRoutes(outputDir string, engine *render.Engine, snap *site.Snapshot, logger log.Logger) ([]error, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, &errs.IOError{Path: outputDir, Err: err}
	}

	var errsOut []error
	for _, route := range snap.Routes() {
		doc, err := snap.Document(route)
		if err != nil {
			continue
		}
		if doc.Meta.Draft {
			continue
		}

		html, err := renderForBuild(engine, snap, doc)
		if err != nil {
			logger.Error("render failed", err, "route", route)
			errsOut = append(errsOut, err)
			continue
		}

		path := filepath.Join(outputDir, filepath.FromSlash(route), "index.html")
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			errsOut = append(errsOut, &errs.IOError{Path: path, Err: err})
			continue
		}
		if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
			errsOut = append(errsOut, &errs.IOError{Path: path, Err: err})
			continue
		}
	}
	return errsOut, nil
}

// renderForBuild builds the template context named in §4.4 and expands
// doc's layout. now is the build time here, since there is no live
// request to time-stamp.
func renderForBuild(engine *render.Engine, snap *site.Snapshot, doc *site.Document) (string, error) {
	cfg := snap.Config()

	ctx := render.Context{
		"config":     cfg,
		"metadata":   doc.Meta,
		"content":    doc.HTML,
		"posts":      snap.Posts(false),
		"categories": snap.Categories(false),
		"now":        time.Now(),
		"route":      doc.Route,
	}

	layout := doc.Meta.Layout
	if layout == "" {
		layout = "default"
	}
	return engine.Render(layout+".html", ctx)
}

// copyAssets materializes theme/assets/ and assets/ (site assets win on
// conflict) into outputDir, preserving their relative layout.
func copyAssets(root, outputDir string) error {
	roots := []string{
		filepath.Join(root, "theme", "assets"),
		filepath.Join(root, "assets"),
	}
	for _, base := range roots {
		if _, err := os.Stat(base); err != nil {
			continue
		}
		err := filepath.Walk(base, func(path string, info os.FileInfo, err error) error {
			if err != nil || info.IsDir() {
				return err
			}
			rel, rerr := filepath.Rel(base, path)
			if rerr != nil {
				return rerr
			}
			return copyFile(filepath.Join(outputDir, rel), path)
		})
		if err != nil {
			return &errs.IOError{Path: base, Err: err}
		}
	}
	return nil
}
