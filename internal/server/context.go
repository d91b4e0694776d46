package server

import (
	"time"

	"github.com/norgolith/norgolith/internal/render"
	"github.com/norgolith/norgolith/internal/site"
)

// renderDocument builds the per-request template context named in §4.4
// (config, metadata, content, posts, categories, now) and expands doc's
// layout template against it. now is the render time, not build time, so
// the dev server's served pages show live timestamps. includeDrafts
// mirrors the `lith serve --drafts` flag: draft documents still render
// directly by route either way, but only appear in posts/categories when
// includeDrafts is set.
func renderDocument(engine *render.Engine, snap *site.Snapshot, doc *site.Document, includeDrafts bool) (string, error) {
	cfg := snap.Config()

	ctx := render.Context{
		"config":     cfg,
		"metadata":   doc.Meta,
		"content":    doc.HTML,
		"posts":      snap.Posts(includeDrafts),
		"categories": snap.Categories(includeDrafts),
		"now":        time.Now(),
		"route":      doc.Route,
	}

	layout := doc.Meta.Layout
	if layout == "" {
		layout = "default"
	}
	return engine.Render(layout+".html", ctx)
}
