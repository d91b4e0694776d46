package site

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/norgolith/norgolith/internal/config"
	"github.com/norgolith/norgolith/internal/convert"
)

func doc(route string, created time.Time, draft bool, categories ...string) *Document {
	return &Document{
		Route: route,
		Meta: convert.Metadata{
			Created:    created,
			Draft:      draft,
			Categories: categories,
		},
	}
}

func TestUpsertAndSnapshotDocument(t *testing.T) {
	m := New(&config.Config{Title: "Test"})
	m.UpsertDocument(doc("/posts/hello/", time.Now(), false))

	snap := m.Snapshot()
	d, err := snap.Document("/posts/hello/")
	require.NoError(t, err)
	assert.Equal(t, "/posts/hello/", d.Route)
}

func TestDocumentNotFound(t *testing.T) {
	m := New(&config.Config{})
	snap := m.Snapshot()
	_, err := snap.Document("/nope/")
	require.Error(t, err)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestRemoveDocumentDropsFromIndices(t *testing.T) {
	m := New(&config.Config{})
	m.UpsertDocument(doc("/posts/a/", time.Now(), false))
	m.RemoveDocument("/posts/a/")

	snap := m.Snapshot()
	_, err := snap.Document("/posts/a/")
	assert.Error(t, err)
	assert.Empty(t, snap.Posts(true))
}

func TestPostsSortedCreatedDescRouteAsc(t *testing.T) {
	m := New(&config.Config{})
	t1 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	m.UpsertDocument(doc("/posts/old/", t1, false))
	m.UpsertDocument(doc("/posts/new/", t2, false))
	m.UpsertDocument(doc("/posts/b/", t1, false))
	m.UpsertDocument(doc("/posts/a/", t1, false))

	posts := m.Snapshot().Posts(true)
	require.Len(t, posts, 4)
	assert.Equal(t, "/posts/new/", posts[0].Route)
	assert.Equal(t, "/posts/a/", posts[1].Route)
	assert.Equal(t, "/posts/b/", posts[2].Route)
	assert.Equal(t, "/posts/old/", posts[3].Route)
}

func TestPostsExcludesOutsidePostsPrefix(t *testing.T) {
	m := New(&config.Config{})
	m.UpsertDocument(doc("/about/", time.Now(), false))
	assert.Empty(t, m.Snapshot().Posts(true))
}

func TestDraftsFilteredOnlyWhenRequested(t *testing.T) {
	m := New(&config.Config{})
	m.UpsertDocument(doc("/posts/draft/", time.Now(), true))

	snap := m.Snapshot()
	assert.Len(t, snap.Posts(true), 1)
	assert.Empty(t, snap.Posts(false))
}

func TestCategoriesIndex(t *testing.T) {
	m := New(&config.Config{})
	m.UpsertDocument(doc("/posts/a/", time.Now(), false, "tech"))
	m.UpsertDocument(doc("/posts/b/", time.Now(), false, "tech", "life"))

	cats := m.Snapshot().Categories(true)
	assert.Len(t, cats["tech"], 2)
	assert.Len(t, cats["life"], 1)
}

func TestRouteExists(t *testing.T) {
	m := New(&config.Config{})
	m.UpsertDocument(doc("/about/", time.Now(), false))
	snap := m.Snapshot()
	assert.True(t, snap.RouteExists("/about/"))
	assert.False(t, snap.RouteExists("/missing/"))
}

func TestRouteFromPath(t *testing.T) {
	assert.Equal(t, "/", RouteFromPath("content/index.norg"))
	assert.Equal(t, "/posts/hello/", RouteFromPath("content/posts/hello.norg"))
	assert.Equal(t, "/posts/", RouteFromPath("content/posts/index.norg"))
}

func TestSnapshotIsolationAcrossMutation(t *testing.T) {
	m := New(&config.Config{})
	m.UpsertDocument(doc("/a/", time.Now(), false))
	old := m.Snapshot()

	m.UpsertDocument(doc("/b/", time.Now(), false))

	_, err := old.Document("/b/")
	assert.Error(t, err, "older snapshot must not observe a later mutation")
}
