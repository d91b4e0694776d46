// Package render is a thin adapter over github.com/flosch/pongo2/v6, a
// Jinja2/Django-style template engine with native extends/block/include
// and a filter-registration API. It is grounded on the wider retrieval
// pack's own documented pongo2 wrapper design (a markdown generator's
// templates package), enriching the teacher, whose own
// internal/adapters/html.Builder only used bare text/template without
// inheritance.
package render

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/flosch/pongo2/v6"

	"github.com/norgolith/norgolith/internal/errs"
)

func init() {
	registerFilter("escape_xml", filterEscapeXML)
	registerFilter("date", filterDate)
	registerFilter("join", filterJoin)
	registerFilter("default", filterDefault)
	registerFilter("title", filterTitle)
	registerFilter("filter", filterFilter)
	registerFilter("truncate", filterTruncate)
	registerFilter("slugify", filterSlugify)
	registerFilter("striptags", filterStriptags)
}

// registerFilter installs fn under name. Names that pongo2 already ships as
// built-in filters are replaced, so templates always get the
// implementations in this file.
func registerFilter(name string, fn pongo2.FilterFunction) {
	if pongo2.FilterExists(name) {
		_ = pongo2.ReplaceFilter(name, fn)
		return
	}
	_ = pongo2.RegisterFilter(name, fn)
}

// Engine compiles and executes templates from a site-shadows-theme
// namespace.
type Engine struct {
	set *pongo2.TemplateSet
}

// NewEngine creates an Engine rooted at templatesDir (site templates) and
// themeDir (theme templates).
func NewEngine(templatesDir, themeDir string) *Engine {
	loader := newShadowLoader(templatesDir, themeDir)
	return &Engine{set: pongo2.NewSet("norgolith", loader)}
}

// Context is the per-request data passed to a template: config, metadata,
// content, posts, categories, now (per §4.4).
type Context map[string]any

// Render expands templateName against ctx. Compile and execution errors
// are both wrapped as *errs.TemplateError carrying pongo2's own
// file+line-annotated message (§4.5's "surface template errors with
// file + line attribution").
func (e *Engine) Render(templateName string, ctx Context) (string, error) {
	tpl, err := e.set.FromCache(templateName)
	if err != nil {
		return "", &errs.TemplateError{Template: templateName, Err: err}
	}

	out, err := tpl.Execute(pongo2.Context(ctx))
	if err != nil {
		return "", &errs.TemplateError{Template: templateName, Err: err}
	}
	return out, nil
}

func filterEscapeXML(in, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	s := in.String()
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return pongo2.AsValue(replacer.Replace(s)), nil
}

func filterDate(in, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	t, ok := in.Interface().(time.Time)
	if !ok {
		return pongo2.AsValue(""), nil
	}
	layout := param.String()
	if layout == "" {
		layout = time.RFC3339
	}
	return pongo2.AsValue(t.Format(goLayout(layout))), nil
}

// goLayout maps a few named formats ("rfc822"/"rss", "iso8601"/"atom")
// onto Go's reference layouts, falling back to treating the input as a
// literal Go layout string (pongo2 templates are free to pass
// "2006-01-02" directly).
func goLayout(layout string) string {
	switch layout {
	case "rfc822", "rss":
		return time.RFC1123Z
	case "iso8601", "atom":
		return time.RFC3339
	default:
		return layout
	}
}

func filterJoin(in, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	sep := param.String()
	var parts []string
	for i := 0; i < in.Len(); i++ {
		parts = append(parts, in.Index(i).String())
	}
	return pongo2.AsValue(strings.Join(parts, sep)), nil
}

func filterDefault(in, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in.IsNil() || (in.IsString() && in.Len() == 0) {
		return param, nil
	}
	return in, nil
}

func filterTitle(in, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	words := strings.Fields(strings.ToLower(in.String()))
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return pongo2.AsValue(strings.Join(words, " ")), nil
}

// filterFilter implements `list|filter(attribute,value)`: keeps only
// list elements whose map/struct field `attribute` equals value.
func filterFilter(in, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	parts := strings.SplitN(param.String(), ",", 2)
	if len(parts) != 2 {
		return in, nil
	}
	attr, want := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])

	var out []any
	for i := 0; i < in.Len(); i++ {
		item := in.Index(i).Interface()
		if fmt.Sprintf("%v", lookupAttr(item, attr)) == want {
			out = append(out, item)
		}
	}
	return pongo2.AsValue(out), nil
}

// lookupAttr reads a map key or exported struct field by name, mirroring
// the dot-notation resolution pongo2 itself uses when rendering
// `{{ item.attr }}`, so `filter(attribute,value)` stays consistent with
// plain attribute access in templates.
func lookupAttr(item any, attr string) any {
	v := reflect.ValueOf(item)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Map:
		val := v.MapIndex(reflect.ValueOf(attr))
		if !val.IsValid() {
			return nil
		}
		return val.Interface()
	case reflect.Struct:
		field := v.FieldByName(attr)
		if !field.IsValid() {
			return nil
		}
		return field.Interface()
	default:
		return nil
	}
}

func filterTruncate(in, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	n := param.Integer()
	s := in.String()
	if len([]rune(s)) <= n {
		return pongo2.AsValue(s), nil
	}
	runes := []rune(s)
	return pongo2.AsValue(string(runes[:n]) + "…"), nil
}

func filterSlugify(in, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	s := strings.ToLower(in.String())
	var sb strings.Builder
	lastDash := false
	for _, r := range s {
		switch {
		case r == ' ' || r == '-' || r == '_':
			if !lastDash && sb.Len() > 0 {
				sb.WriteRune('-')
				lastDash = true
			}
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			sb.WriteRune(r)
			lastDash = false
		}
	}
	return pongo2.AsValue(strings.Trim(sb.String(), "-")), nil
}

func filterStriptags(in, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	s := in.String()
	var sb strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			sb.WriteRune(r)
		}
	}
	return pongo2.AsValue(sb.String()), nil
}
