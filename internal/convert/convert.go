// Package convert lowers a parsed Norg AST (internal/norg) to an HTML
// content fragment plus extracted metadata, per SPEC_FULL.md §4.3. It is
// the 35%-budget core, grounded on the teacher's own hand-rolled
// markdown-to-HTML pass (internal/adapters/html.MarkdownRenderer): a
// tagged-variant traversal with its own escaping helpers, generalized
// from Markdown nodes to Norg nodes and from a single fixed page shape to
// a metadata map + content fragment returned to the site model.
package convert

import (
	"fmt"
	"strings"
	"time"

	"github.com/norgolith/norgolith/internal/errs"
	"github.com/norgolith/norgolith/internal/norg"
)

// Metadata is the decoded, defaulted key/value map from a document's
// leading @document.meta block.
type Metadata struct {
	Title       string
	Description string
	Layout      string
	Authors     []string
	Categories  []string
	Created     time.Time
	Updated     time.Time
	Draft       bool
	Extra       map[string]any
}

// Result is the converter's output for one document.
type Result struct {
	Meta        Metadata
	HTML        string
	Assets      []string
	Diagnostics []*errs.LinkDiagnostic
}

// RouteExists reports whether a route currently resolves to a document in
// the site model; used to flag broken cross-document links. A nil
// RouteExists disables the check (every link is assumed valid).
type RouteExists func(route string) bool

// Options configures a single Convert call.
type Options struct {
	// Route is the current document's own route, used to resolve
	// document-relative link targets.
	Route string
	// Stem is the file stem (no extension), used as the title default.
	Stem string
	// RouteExists backs link-target validation; see RouteExists.
	RouteExists RouteExists
}

// Convert lowers Norg source bytes to an HTML fragment and metadata. A
// parser failure never propagates: it yields a diagnostic-placeholder
// result instead, so the site model can retain the route (§4.3).
func Convert(src []byte, opts Options) Result {
	doc, err := norg.Parse(src)
	if err != nil {
		return Result{
			Meta: Metadata{Title: titlecase(opts.Stem), Layout: "default"},
			HTML: fmt.Sprintf(`<div class="norgolith-diagnostic">%s</div>`, escapeHTML(err.Error())),
		}
	}

	meta := decodeMetadata(doc.Meta, opts.Stem)

	c := &converter{
		route:       opts.Route,
		routeExists: opts.RouteExists,
		slugs:       map[string]int{},
	}
	var sb strings.Builder
	c.lowerBlocks(&sb, doc.Body)

	return Result{
		Meta:        meta,
		HTML:        sb.String(),
		Assets:      c.assets,
		Diagnostics: c.diagnostics,
	}
}

func decodeMetadata(raw map[string]any, stem string) Metadata {
	m := Metadata{
		Title:  titlecase(stem),
		Layout: "default",
		Extra:  map[string]any{},
	}

	for k, v := range raw {
		switch k {
		case "title":
			if s, ok := v.(string); ok {
				m.Title = s
			}
		case "description":
			if s, ok := v.(string); ok {
				m.Description = s
			}
		case "layout":
			if s, ok := v.(string); ok {
				m.Layout = s
			}
		case "authors":
			m.Authors = toStringSlice(v)
		case "categories":
			m.Categories = toStringSlice(v)
		case "created":
			if t, ok := v.(time.Time); ok {
				m.Created = t
			}
		case "updated":
			if t, ok := v.(time.Time); ok {
				m.Updated = t
			}
		case "draft":
			if b, ok := v.(bool); ok {
				m.Draft = b
			}
		default:
			m.Extra[k] = v
		}
	}
	return m
}

func toStringSlice(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case string:
		return []string{t}
	default:
		return nil
	}
}

func titlecase(stem string) string {
	stem = strings.ReplaceAll(stem, "-", " ")
	stem = strings.ReplaceAll(stem, "_", " ")
	words := strings.Fields(stem)
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
