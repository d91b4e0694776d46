package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/norgolith/norgolith/internal/config"
	"github.com/norgolith/norgolith/internal/convert"
	"github.com/norgolith/norgolith/internal/render"
	"github.com/norgolith/norgolith/internal/site"
)

func newTestServer(t *testing.T, dev bool) (*Server, *site.Model, *atomic.Pointer[site.Snapshot]) {
	t.Helper()
	dir := t.TempDir()
	templatesDir := filepath.Join(dir, "templates")
	themeDir := filepath.Join(dir, "theme", "templates")
	assetsDir := filepath.Join(dir, "assets")
	require.NoError(t, os.MkdirAll(templatesDir, 0o755))
	require.NoError(t, os.MkdirAll(themeDir, 0o755))
	require.NoError(t, os.MkdirAll(assetsDir, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(templatesDir, "default.html"), []byte("<title>{{ metadata.Title }} - {{ config.Title }}</title>{{ content|safe }}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(assetsDir, "site.css"), []byte("body{}"), 0o644))

	engine := render.NewEngine(templatesDir, themeDir)
	model := site.New(&config.Config{Title: "My Site", RootURL: "https://example.com"})

	var ptr atomic.Pointer[site.Snapshot]
	ptr.Store(model.Snapshot())

	srv := New(Options{
		Snapshot:   &ptr,
		Engine:     engine,
		AssetRoots: []string{filepath.Join(dir, "content"), assetsDir, themeDir},
		Dev:        dev,
	})

	return srv, model, &ptr
}

func publish(ptr *atomic.Pointer[site.Snapshot], model *site.Model) {
	ptr.Store(model.Snapshot())
}

func TestServeRootDocument(t *testing.T) {
	srv, model, ptr := newTestServer(t, true)
	model.UpsertDocument(&site.Document{
		Route: "/",
		Meta:  convert.Metadata{Title: "Home", Layout: "default"},
		HTML:  "<h1>Welcome</h1>",
	})
	publish(ptr, model)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1>Welcome</h1>")
	assert.Contains(t, rec.Body.String(), "Home - My Site")
}

func TestUpdateEngineTakesEffectOnNextRequest(t *testing.T) {
	srv, model, ptr := newTestServer(t, true)
	model.UpsertDocument(&site.Document{
		Route: "/",
		Meta:  convert.Metadata{Title: "Home", Layout: "default"},
		HTML:  "<h1>Welcome</h1>",
	})
	publish(ptr, model)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Contains(t, rec.Body.String(), "Home - My Site")

	dir := t.TempDir()
	templatesDir := filepath.Join(dir, "templates")
	themeDir := filepath.Join(dir, "theme", "templates")
	require.NoError(t, os.MkdirAll(templatesDir, 0o755))
	require.NoError(t, os.MkdirAll(themeDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(templatesDir, "default.html"), []byte(
		"<title>edited</title>{{ content|safe }}"), 0o644))
	srv.UpdateEngine(render.NewEngine(templatesDir, themeDir))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Contains(t, rec.Body.String(), "<title>edited</title>")
	assert.NotContains(t, rec.Body.String(), "Home - My Site")
}

func TestServeMissingRouteReturns404(t *testing.T) {
	srv, _, _ := newTestServer(t, true)

	req := httptest.NewRequest(http.MethodGet, "/nope/", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeAssetFromAssetsDir(t *testing.T) {
	srv, _, _ := newTestServer(t, true)

	req := httptest.NewRequest(http.MethodGet, "/site.css", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "body{}", rec.Body.String())
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
}

func TestServeAssetProductionCacheHeaders(t *testing.T) {
	srv, _, _ := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodGet, "/site.css", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, "public, max-age=31536000, immutable", rec.Header().Get("Cache-Control"))
}

func TestRSSFeedContainsPostItem(t *testing.T) {
	srv, model, ptr := newTestServer(t, true)
	created := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	model.UpsertDocument(&site.Document{
		Route: "/posts/hello/",
		Meta:  convert.Metadata{Title: "Hello", Created: created, Authors: []string{"Jane"}},
	})
	publish(ptr, model)

	req := httptest.NewRequest(http.MethodGet, "/rss.xml", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	body := rec.Body.String()
	assert.Contains(t, body, "<link>https://example.com/posts/hello/</link>")
	assert.Contains(t, body, "<pubDate>Tue, 02 Jan 2024 10:00:00 +0000</pubDate>")
	assert.Contains(t, body, `rel="self"`)
}

func TestServeHidesDraftsFromIndicesUnlessRequested(t *testing.T) {
	dir := t.TempDir()
	templatesDir := filepath.Join(dir, "templates")
	themeDir := filepath.Join(dir, "theme", "templates")
	require.NoError(t, os.MkdirAll(templatesDir, 0o755))
	require.NoError(t, os.MkdirAll(themeDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(templatesDir, "default.html"), []byte(
		"{% for p in posts %}{{ p.Meta.Title }}{% endfor %}"), 0o644))

	engine := render.NewEngine(templatesDir, themeDir)
	model := site.New(&config.Config{Title: "My Site"})
	model.UpsertDocument(&site.Document{
		Route: "/",
		Meta:  convert.Metadata{Title: "Home", Layout: "default"},
	})
	model.UpsertDocument(&site.Document{
		Route: "/posts/secret/",
		Meta:  convert.Metadata{Title: "Secret", Layout: "post", Created: time.Now(), Draft: true},
	})

	var ptr atomic.Pointer[site.Snapshot]
	ptr.Store(model.Snapshot())

	hidden := New(Options{Snapshot: &ptr, Engine: engine, Dev: true, Drafts: false})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	hidden.ServeHTTP(rec, req)
	assert.NotContains(t, rec.Body.String(), "Secret")

	shown := New(Options{Snapshot: &ptr, Engine: engine, Dev: true, Drafts: true})
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	shown.ServeHTTP(rec, req)
	assert.Contains(t, rec.Body.String(), "Secret")
}

func TestRSSExcludesDrafts(t *testing.T) {
	srv, model, ptr := newTestServer(t, true)
	model.UpsertDocument(&site.Document{
		Route: "/posts/draft/",
		Meta:  convert.Metadata{Title: "Draft", Created: time.Now(), Draft: true},
	})
	publish(ptr, model)

	req := httptest.NewRequest(http.MethodGet, "/rss.xml", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.NotContains(t, rec.Body.String(), "/posts/draft/")
}
