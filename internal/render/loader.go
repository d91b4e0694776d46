package render

import (
	"io"
	"os"
	"path"
	"path/filepath"
)

// shadowLoader implements pongo2.TemplateLoader over two root directories:
// site templates (root) shadow theme templates (themeRoot) of the same
// logical name, per SPEC_FULL.md §4.5 and the site's Open Question
// resolution (site-wins) recorded in DESIGN.md.
type shadowLoader struct {
	root      string // "templates"
	themeRoot string // "theme/templates"
}

func newShadowLoader(root, themeRoot string) *shadowLoader {
	return &shadowLoader{root: root, themeRoot: themeRoot}
}

// Abs normalizes a referenced template name (from extends/include); base,
// the referencing template, is not consulted. Names are treated as a flat,
// slash-separated logical namespace rather than filesystem-relative
// paths, so Abs is the identity function aside from cleaning.
func (l *shadowLoader) Abs(base, name string) string {
	return path.Clean(name)
}

// Get opens name, trying the site's templates/ directory first and
// falling back to theme/templates/.
func (l *shadowLoader) Get(name string) (io.Reader, error) {
	if f, err := os.Open(filepath.Join(l.root, filepath.FromSlash(name))); err == nil {
		return f, nil
	}
	return os.Open(filepath.Join(l.themeRoot, filepath.FromSlash(name)))
}
