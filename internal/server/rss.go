package server

import (
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/norgolith/norgolith/internal/config"
	"github.com/norgolith/norgolith/internal/site"
)

// handleRSS renders standard RSS 2.0 with an atom:link self reference,
// per SPEC_FULL.md §6. Drafts are always excluded, regardless of dev mode.
func (s *Server) handleRSS(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot.Load()
	if snap == nil {
		http.Error(w, "site not built yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	_, _ = w.Write(RenderFeed(snap))
}

// RenderFeed formats the RSS 2.0 document for snap. Exported so a
// one-shot production build can write rss.xml to disk without spinning up
// an HTTP handler.
func RenderFeed(snap *site.Snapshot) []byte {
	cfg := snap.Config()
	posts := snap.Posts(false)

	selfURL := strings.TrimSuffix(cfg.RootURL, "/") + "/rss.xml"

	var items strings.Builder
	for _, p := range posts {
		items.WriteString(renderRSSItem(cfg, p))
	}

	feed := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">
<channel>
<title>%s</title>
<link>%s</link>
<atom:link rel="self" href="%s" type="application/rss+xml" />
<description>%s</description>
<language>%s</language>
<lastBuildDate>%s</lastBuildDate>
<ttl>%d</ttl>
%s</channel>
</rss>
`,
		html.EscapeString(cfg.Title),
		html.EscapeString(cfg.RootURL),
		html.EscapeString(selfURL),
		html.EscapeString(cfg.RSS.Description),
		html.EscapeString(cfg.Language),
		snap.PublishedAt().UTC().Format(time.RFC1123Z),
		cfg.RSS.TTL,
		items.String(),
	)

	return []byte(feed)
}

// renderRSSItem formats one <item>: link derived from the document's
// route, pubDate in RFC-822 from its created metadata, authors joined by
// ", ", and categories emitted as repeated <category> elements (§6).
func renderRSSItem(cfg *config.Config, p *site.Document) string {
	link := strings.TrimSuffix(cfg.RootURL, "/") + p.Route

	var categories strings.Builder
	for _, cat := range p.Meta.Categories {
		categories.WriteString(fmt.Sprintf("<category>%s</category>\n", html.EscapeString(cat)))
	}

	return fmt.Sprintf(`<item>
<title>%s</title>
<link>%s</link>
<guid>%s</guid>
<description>%s</description>
<author>%s</author>
<pubDate>%s</pubDate>
%s</item>
`,
		html.EscapeString(p.Meta.Title),
		html.EscapeString(link),
		html.EscapeString(link),
		html.EscapeString(p.Meta.Description),
		html.EscapeString(strings.Join(p.Meta.Authors, ", ")),
		p.Meta.Created.UTC().Format(time.RFC1123Z),
		categories.String(),
	)
}
