package render

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/flosch/pongo2/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterEscapeXML(t *testing.T) {
	out, err := filterEscapeXML(pongo2.AsValue(`<a href="x">&y'</a>`), nil)
	require.Nil(t, err)
	assert.Equal(t, "&lt;a href=&quot;x&quot;&gt;&amp;y&apos;&lt;/a&gt;", out.String())
}

func TestFilterDate(t *testing.T) {
	tm := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	out, err := filterDate(pongo2.AsValue(tm), pongo2.AsValue("rss"))
	require.Nil(t, err)
	assert.Equal(t, "Tue, 02 Jan 2024 10:00:00 +0000", out.String())
}

func TestFilterJoin(t *testing.T) {
	out, err := filterJoin(pongo2.AsValue([]string{"a", "b", "c"}), pongo2.AsValue(", "))
	require.Nil(t, err)
	assert.Equal(t, "a, b, c", out.String())
}

func TestFilterDefault(t *testing.T) {
	out, err := filterDefault(pongo2.AsValue(""), pongo2.AsValue("fallback"))
	require.Nil(t, err)
	assert.Equal(t, "fallback", out.String())

	out, err = filterDefault(pongo2.AsValue("value"), pongo2.AsValue("fallback"))
	require.Nil(t, err)
	assert.Equal(t, "value", out.String())
}

func TestFilterTitle(t *testing.T) {
	out, err := filterTitle(pongo2.AsValue("hello world"), nil)
	require.Nil(t, err)
	assert.Equal(t, "Hello World", out.String())
}

func TestFilterFilterByAttribute(t *testing.T) {
	type item struct{ Category string }
	items := []item{{Category: "tech"}, {Category: "life"}, {Category: "tech"}}

	out, err := filterFilter(pongo2.AsValue(items), pongo2.AsValue("Category,tech"))
	require.Nil(t, err)
	assert.Equal(t, 2, out.Len())
}

func TestFilterTruncate(t *testing.T) {
	out, err := filterTruncate(pongo2.AsValue("hello world"), pongo2.AsValue(5))
	require.Nil(t, err)
	assert.Equal(t, "hello…", out.String())
}

func TestFilterSlugify(t *testing.T) {
	out, err := filterSlugify(pongo2.AsValue("Hello, World!"), nil)
	require.Nil(t, err)
	assert.Equal(t, "hello-world", out.String())
}

func TestFilterStriptags(t *testing.T) {
	out, err := filterStriptags(pongo2.AsValue("<p>Hi <b>there</b></p>"), nil)
	require.Nil(t, err)
	assert.Equal(t, "Hi there", out.String())
}

func TestEngineSiteTemplateShadowsTheme(t *testing.T) {
	dir := t.TempDir()
	templatesDir := filepath.Join(dir, "templates")
	themeDir := filepath.Join(dir, "theme", "templates")
	require.NoError(t, os.MkdirAll(templatesDir, 0o755))
	require.NoError(t, os.MkdirAll(themeDir, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(themeDir, "base.html"), []byte("theme base: {% block body %}{% endblock %}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(templatesDir, "base.html"), []byte("site base: {% block body %}{% endblock %}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(templatesDir, "page.html"), []byte(`{% extends "base.html" %}{% block body %}hi{% endblock %}`), 0o644))

	engine := NewEngine(templatesDir, themeDir)
	out, err := engine.Render("page.html", Context{})
	require.NoError(t, err)
	assert.Contains(t, out, "site base:")
	assert.Contains(t, out, "hi")
}

func TestEngineMissingTemplateIsTemplateError(t *testing.T) {
	dir := t.TempDir()
	engine := NewEngine(filepath.Join(dir, "templates"), filepath.Join(dir, "theme", "templates"))
	_, err := engine.Render("missing.html", Context{})
	require.Error(t, err)
}
