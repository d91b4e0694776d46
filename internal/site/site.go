// Package site implements the authoritative in-memory site model of
// SPEC_FULL.md §4.4: documents, global indices, and immutable snapshots.
// It is grounded on the teacher's general entity/validation shape
// (entities.ValidationError / NotFoundError as small typed errors) and on
// its aggregate's "single authoritative struct, indices rebuilt on
// mutation" pattern, generalized from C4 systems/containers/components to
// routes/documents/posts/categories.
package site

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/norgolith/norgolith/internal/config"
	"github.com/norgolith/norgolith/internal/convert"
)

var (
	// ErrRouteNotFound is returned by lookups for a route with no document.
	ErrRouteNotFound = errors.New("site: route not found")
)

// NotFoundError scopes ErrRouteNotFound to a specific route.
type NotFoundError struct {
	Route string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("site: route %s not found", e.Route)
}

func (e *NotFoundError) Unwrap() error { return ErrRouteNotFound }

// Document is one content document's current, fully-converted state.
type Document struct {
	Route      string
	SourcePath string
	Hash       string
	Meta       convert.Metadata
	HTML       string
	Assets     []string
	Layout     string
}

// Model is the single authoritative, mutable store. All mutating methods
// must be called from a single goroutine (the build task, per §5); reads
// go through Snapshot, which is safe for concurrent use.
type Model struct {
	mu sync.Mutex

	cfg       *config.Config
	documents map[string]*Document

	current *snapshotData
}

// New creates an empty Model with an initial config.
func New(cfg *config.Config) *Model {
	m := &Model{
		cfg:       cfg,
		documents: map[string]*Document{},
	}
	m.rebuildLocked()
	return m
}

// UpsertDocument replaces (or creates) the document at route. Global
// indices are rebuilt whenever the route lies under /posts/ or the
// document's categories changed, but rebuilding unconditionally is cheap
// and kept simple here, matching §4.4's "coarse but correct" stance on
// template/config reloads.
func (m *Model) UpsertDocument(doc *Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[doc.Route] = doc
	m.rebuildLocked()
}

// RemoveDocument deletes the document at route, if present.
func (m *Model) RemoveDocument(route string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.documents, route)
	m.rebuildLocked()
}

// ReloadConfig swaps the active config and forces a full index rebuild,
// per §4.4 ("same as template reload plus a full index rebuild").
func (m *Model) ReloadConfig(cfg *config.Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = cfg
	m.rebuildLocked()
}

// rebuildLocked recomputes posts/categories/route-map from the current
// document set. Caller must hold mu.
func (m *Model) rebuildLocked() {
	docs := make([]*Document, 0, len(m.documents))
	for _, d := range m.documents {
		docs = append(docs, d)
	}

	// The stored indices always include drafts; Snapshot.Posts/Categories
	// filter them out at read time for a production build, so a single
	// rebuild serves both dev and build callers.
	posts := filterAndSortPosts(docs, true)
	categories := buildCategories(docs, true)

	routeMap := make(map[string]*Document, len(m.documents))
	for route, d := range m.documents {
		routeMap[route] = d
	}

	m.current = &snapshotData{
		cfg:         m.cfg,
		documents:   routeMap,
		posts:       posts,
		categories:  categories,
		publishedAt: time.Now(),
	}
}

// Snapshot returns the current immutable view. Safe for concurrent use
// while the build task continues mutating the Model.
func (m *Model) Snapshot() *Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &Snapshot{data: m.current}
}

// snapshotData is the immutable payload shared by all Snapshots taken at
// one publish point. Snapshot is a thin wrapper so fields can be added
// here without changing callers.
type snapshotData struct {
	cfg         *config.Config
	documents   map[string]*Document
	posts       []*Document
	categories  map[string][]*Document
	publishedAt time.Time
}

// Snapshot is an immutable, concurrency-safe view of the site model at
// one publish point.
type Snapshot struct {
	data *snapshotData
}

// Config returns the config active at publish time.
func (s *Snapshot) Config() *config.Config { return s.data.cfg }

// PublishedAt returns when this snapshot's indices were last rebuilt,
// used as the RSS feed's <lastBuildDate> (§6).
func (s *Snapshot) PublishedAt() time.Time { return s.data.publishedAt }

// Document looks up a document by route.
func (s *Snapshot) Document(route string) (*Document, error) {
	d, ok := s.data.documents[route]
	if !ok {
		return nil, &NotFoundError{Route: route}
	}
	return d, nil
}

// Posts returns the posts index (created desc, route asc), optionally
// filtering out drafts for a production build per §4.4's draft rule.
func (s *Snapshot) Posts(includeDrafts bool) []*Document {
	if includeDrafts {
		return s.data.posts
	}
	out := make([]*Document, 0, len(s.data.posts))
	for _, d := range s.data.posts {
		if !d.Meta.Draft {
			out = append(out, d)
		}
	}
	return out
}

// Categories returns the categories index, optionally filtering drafts.
func (s *Snapshot) Categories(includeDrafts bool) map[string][]*Document {
	if includeDrafts {
		return s.data.categories
	}
	out := make(map[string][]*Document, len(s.data.categories))
	for cat, docs := range s.data.categories {
		filtered := make([]*Document, 0, len(docs))
		for _, d := range docs {
			if !d.Meta.Draft {
				filtered = append(filtered, d)
			}
		}
		if len(filtered) > 0 {
			out[cat] = filtered
		}
	}
	return out
}

// RouteExists reports whether route resolves to a document in this
// snapshot; used by internal/convert to flag broken links.
func (s *Snapshot) RouteExists(route string) bool {
	_, ok := s.data.documents[route]
	return ok
}

// Routes returns every known route in this snapshot, regardless of
// /posts/ prefix. Used by a full production build to enumerate every
// page that needs rendering to disk.
func (s *Snapshot) Routes() []string {
	routes := make([]string, 0, len(s.data.documents))
	for route := range s.data.documents {
		routes = append(routes, route)
	}
	sort.Strings(routes)
	return routes
}

func filterAndSortPosts(docs []*Document, includeDrafts bool) []*Document {
	var posts []*Document
	for _, d := range docs {
		if !strings.HasPrefix(d.Route, "/posts/") {
			continue
		}
		if d.Meta.Draft && !includeDrafts {
			continue
		}
		posts = append(posts, d)
	}
	sortDocs(posts)
	return posts
}

func buildCategories(docs []*Document, includeDrafts bool) map[string][]*Document {
	categories := map[string][]*Document{}
	for _, d := range docs {
		if d.Meta.Draft && !includeDrafts {
			continue
		}
		for _, cat := range d.Meta.Categories {
			categories[cat] = append(categories[cat], d)
		}
	}
	for cat := range categories {
		sortDocs(categories[cat])
	}
	return categories
}

// sortDocs orders by created desc, then route asc (§4.4 tie-break rule).
func sortDocs(docs []*Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		ci, cj := docs[i].Meta.Created, docs[j].Meta.Created
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return docs[i].Route < docs[j].Route
	})
}

// RouteFromPath derives a route from a content-relative source path,
// stripping the .norg extension and honoring index.norg -> parent route.
func RouteFromPath(rel string) string {
	rel = strings.TrimPrefix(rel, "content/")
	rel = strings.TrimSuffix(rel, ".norg")

	if rel == "index" {
		return "/"
	}
	if strings.HasSuffix(rel, "/index") {
		rel = strings.TrimSuffix(rel, "/index")
	}

	return "/" + path.Clean(rel) + "/"
}
