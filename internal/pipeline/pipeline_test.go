package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/norgolith/norgolith/internal/watcher"
)

func unordered() watcher.Batch {
	return watcher.Batch{Events: []watcher.Event{
		{Path: "b.norg", Kind: watcher.KindCreate},
		{Path: "a.norg", Kind: watcher.KindModify},
		{Path: "a.norg", Kind: watcher.KindCreate},
		{Path: "a.norg", Kind: watcher.KindDelete},
	}}
}

func writeProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(root, "norgolith.toml"), []byte(`
rootUrl = "https://example.com"
title = "My Site"
author = "Jane"
`), 0o644))

	mustMkdir := func(rel string) string {
		dir := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		return dir
	}

	contentDir := mustMkdir("content")
	postsDir := mustMkdir("content/posts")
	templatesDir := mustMkdir("templates")
	themeTemplatesDir := mustMkdir("theme/templates")
	assetsDir := mustMkdir("assets")

	require.NoError(t, os.WriteFile(filepath.Join(contentDir, "index.norg"), []byte(`@document.meta
title: Home
@end

* Welcome
`), 0o644))

	require.NoError(t, os.WriteFile(filepath.Join(postsDir, "hello.norg"), []byte(`@document.meta
title: Hello
created: 2024-01-02T10:00:00Z
layout: post
@end

Hi there.
`), 0o644))

	require.NoError(t, os.WriteFile(filepath.Join(templatesDir, "default.html"), []byte(
		"<title>{{ metadata.Title }}</title>{{ content|safe }}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(themeTemplatesDir, "post.html"), []byte(
		"<title>{{ metadata.Title }}</title>{{ content|safe }}"), 0o644))

	require.NoError(t, os.WriteFile(filepath.Join(assetsDir, "site.css"), []byte("body{}"), 0o644))

	return root
}

func TestScanTreeCollectsAllFiles(t *testing.T) {
	root := writeProject(t)

	batch, err := scanTree(root)
	require.NoError(t, err)

	var paths []string
	for _, e := range batch.Events {
		paths = append(paths, e.Path)
	}
	assert.Contains(t, paths, "norgolith.toml")
	assert.Contains(t, paths, "content/index.norg")
	assert.Contains(t, paths, "content/posts/hello.norg")
	assert.Contains(t, paths, "templates/default.html")
	assert.Contains(t, paths, "assets/site.css")
}

func TestOrderBatchDeletesBeforeCreatesLexicographic(t *testing.T) {
	batch := orderBatch(unordered())
	kinds := make([]string, len(batch.Events))
	for i, e := range batch.Events {
		kinds[i] = e.Kind.String() + ":" + e.Path
	}
	assert.Equal(t, []string{"delete:a.norg", "create:a.norg", "create:b.norg", "modify:a.norg"}, kinds)
}

func TestBuildRendersEveryRouteAndFeed(t *testing.T) {
	root := writeProject(t)
	out := t.TempDir()

	err := Build(context.Background(), BuildOptions{Root: root, OutputDir: out})
	require.NoError(t, err)

	home, err := os.ReadFile(filepath.Join(out, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(home), "Welcome")

	post, err := os.ReadFile(filepath.Join(out, "posts", "hello", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(post), "Hi there.")

	feed, err := os.ReadFile(filepath.Join(out, "rss.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(feed), "/posts/hello/")

	asset, err := os.ReadFile(filepath.Join(out, "site.css"))
	require.NoError(t, err)
	assert.Equal(t, "body{}", string(asset))
}

func TestBuildSkipsDraftDocuments(t *testing.T) {
	root := writeProject(t)
	out := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(root, "content", "posts", "secret.norg"), []byte(`@document.meta
title: Secret
layout: post
created: 2024-01-03T10:00:00Z
draft: true
@end

Not ready yet.
`), 0o644))

	require.NoError(t, Build(context.Background(), BuildOptions{Root: root, OutputDir: out}))

	_, err := os.Stat(filepath.Join(out, "posts", "secret", "index.html"))
	assert.Error(t, err)
	assert.True(t, os.IsNotExist(err))

	home, err := os.ReadFile(filepath.Join(out, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(home), "Welcome")
}

func TestBuildReturnsAggregateErrorButFinishesOtherRoutes(t *testing.T) {
	root := writeProject(t)
	out := t.TempDir()

	// A document naming a layout nobody ships: its render fails, but the
	// rest of the build must still complete (§7).
	require.NoError(t, os.WriteFile(filepath.Join(root, "content", "broken.norg"), []byte(`@document.meta
title: Broken
layout: nonexistent
@end

Oops.
`), 0o644))

	err := Build(context.Background(), BuildOptions{Root: root, OutputDir: out})
	require.Error(t, err)

	home, err := os.ReadFile(filepath.Join(out, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(home), "Welcome")

	_, statErr := os.Stat(filepath.Join(out, "broken", "index.html"))
	assert.Error(t, statErr)
}

func TestBuildIsIdempotent(t *testing.T) {
	root := writeProject(t)
	out1, out2 := t.TempDir(), t.TempDir()

	require.NoError(t, Build(context.Background(), BuildOptions{Root: root, OutputDir: out1}))
	require.NoError(t, Build(context.Background(), BuildOptions{Root: root, OutputDir: out2}))

	a, err := os.ReadFile(filepath.Join(out1, "posts", "hello", "index.html"))
	require.NoError(t, err)
	b, err := os.ReadFile(filepath.Join(out2, "posts", "hello", "index.html"))
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}
