package convert

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/norgolith/norgolith/internal/errs"
	"github.com/norgolith/norgolith/internal/norg"
)

// converter holds per-document state threaded through the block traversal:
// the heading-slug collision table, the asset/diagnostic accumulators, and
// the one-slot carryover-tag buffer (SPEC_FULL.md §9).
type converter struct {
	route       string
	routeExists RouteExists

	slugs       map[string]int
	assets      []string
	diagnostics []*errs.LinkDiagnostic

	pendingClass string // weak +html.class buffered for the next block
	rawNext      bool   // strong .html.raw scoped to the next block only
}

func (c *converter) lowerBlocks(sb *strings.Builder, nodes []*norg.Node) {
	first := true
	for _, n := range nodes {
		if n.Kind == norg.KindCarryover {
			if n.Weak && n.Tag == "html.class" {
				c.pendingClass = n.Arg
			} else if !n.Weak && n.Tag == "html.raw" {
				c.rawNext = true
			}
			continue
		}

		if !first {
			sb.WriteString("\n")
		}
		first = false
		c.lowerBlock(sb, n)
	}
}

func (c *converter) lowerBlock(sb *strings.Builder, n *norg.Node) {
	class := c.pendingClass
	c.pendingClass = ""
	raw := c.rawNext
	c.rawNext = false

	if raw {
		sb.WriteString(rawText(n))
		return
	}

	switch n.Kind {
	case norg.KindHeading:
		slug := c.uniqueSlug(plainText(n))
		sb.WriteString(fmt.Sprintf(`<h%d id="%s"%s>`, n.Level, slug, classAttr(class)))
		c.lowerInline(sb, n.Children)
		sb.WriteString(fmt.Sprintf(`</h%d>`, n.Level))

	case norg.KindParagraph:
		sb.WriteString(fmt.Sprintf(`<p%s>`, classAttr(class)))
		c.lowerInline(sb, n.Children)
		sb.WriteString(`</p>`)

	case norg.KindList:
		tag := "ul"
		if n.Ordered {
			tag = "ol"
		}
		sb.WriteString(fmt.Sprintf(`<%s%s>`, tag, classAttr(class)))
		for _, item := range n.Children {
			sb.WriteString(`<li>`)
			c.lowerListItem(sb, item)
			sb.WriteString(`</li>`)
		}
		sb.WriteString(fmt.Sprintf(`</%s>`, tag))

	case norg.KindQuote:
		sb.WriteString(fmt.Sprintf(`<blockquote%s>`, classAttr(class)))
		c.lowerInline(sb, n.Children)
		sb.WriteString(`</blockquote>`)

	case norg.KindCodeBlock:
		langClass := ""
		if n.Language != "" {
			langClass = " class=\"language-" + html.EscapeString(n.Language) + "\""
		}
		sb.WriteString(fmt.Sprintf(`<pre%s><code%s>%s</code></pre>`, classAttr(class), langClass, escapeHTML(n.Text)))

	case norg.KindHorizontalRule:
		sb.WriteString(`<hr>`)

	case norg.KindDefinitionList:
		sb.WriteString(fmt.Sprintf(`<dl%s>`, classAttr(class)))
		for _, item := range n.Children {
			tag := "dd"
			if item.Kind == norg.KindDefinitionTerm {
				tag = "dt"
			}
			sb.WriteString("<" + tag + ">")
			c.lowerInline(sb, item.Children)
			sb.WriteString("</" + tag + ">")
		}
		sb.WriteString(`</dl>`)

	case norg.KindTable:
		sb.WriteString(fmt.Sprintf(`<table%s>`, classAttr(class)))
		headOpen, bodyOpen := false, false
		for _, row := range n.Children {
			if row.Header && !headOpen {
				sb.WriteString(`<thead>`)
				headOpen = true
			} else if !row.Header && !bodyOpen {
				if headOpen {
					sb.WriteString(`</thead>`)
				}
				sb.WriteString(`<tbody>`)
				bodyOpen = true
			}
			sb.WriteString(`<tr>`)
			cellTag := "td"
			if row.Header {
				cellTag = "th"
			}
			for _, cell := range row.Children {
				sb.WriteString("<" + cellTag + ">")
				c.lowerInline(sb, cell.Children)
				sb.WriteString("</" + cellTag + ">")
			}
			sb.WriteString(`</tr>`)
		}
		if headOpen && !bodyOpen {
			sb.WriteString(`</thead>`)
		}
		if bodyOpen {
			sb.WriteString(`</tbody>`)
		}
		sb.WriteString(`</table>`)

	case norg.KindFootnoteDef:
		sb.WriteString(fmt.Sprintf(`<section id="fn-%s"%s>`, html.EscapeString(n.Name), classAttr(class)))
		c.lowerInline(sb, n.Children)
		sb.WriteString(`</section>`)

	default:
		sb.WriteString(fmt.Sprintf("<!-- unknown node kind %d -->", n.Kind))
	}
}

func (c *converter) lowerListItem(sb *strings.Builder, item *norg.Node) {
	for _, child := range item.Children {
		if child.Kind == norg.KindList {
			c.lowerBlock(sb, child)
			continue
		}
		c.lowerInline(sb, []*norg.Node{child})
	}
}

func (c *converter) lowerInline(sb *strings.Builder, nodes []*norg.Node) {
	for _, n := range nodes {
		switch n.Kind {
		case norg.KindText:
			c.lowerText(sb, n)
		case norg.KindLink:
			c.lowerLink(sb, n)
		case norg.KindImage:
			c.lowerImage(sb, n)
		case norg.KindFootnoteRef:
			sb.WriteString(fmt.Sprintf(`<sup><a href="#fn-%s">%s</a></sup>`, html.EscapeString(n.Target), html.EscapeString(n.Target)))
		default:
			sb.WriteString(fmt.Sprintf("<!-- unknown inline kind %d -->", n.Kind))
		}
	}
}

func (c *converter) lowerText(sb *strings.Builder, n *norg.Node) {
	switch n.Style {
	case norg.StyleBold:
		sb.WriteString("<strong>" + escapeHTML(n.Text) + "</strong>")
	case norg.StyleItalic:
		sb.WriteString("<em>" + escapeHTML(n.Text) + "</em>")
	case norg.StyleUnderline:
		sb.WriteString("<u>" + escapeHTML(n.Text) + "</u>")
	case norg.StyleStrike:
		sb.WriteString("<s>" + escapeHTML(n.Text) + "</s>")
	case norg.StyleVerbatim:
		sb.WriteString("<code>" + escapeHTML(n.Text) + "</code>")
	default:
		sb.WriteString(escapeHTML(n.Text))
	}
}

func (c *converter) lowerLink(sb *strings.Builder, n *norg.Node) {
	resolved := c.resolveTarget(n.Target)
	sb.WriteString(fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(resolved), escapeHTML(n.Text)))
}

func (c *converter) lowerImage(sb *strings.Builder, n *norg.Node) {
	resolved := c.resolveTarget(n.Target)
	c.assets = append(c.assets, resolved)
	sb.WriteString(fmt.Sprintf(`<img src="%s" alt="%s">`, html.EscapeString(resolved), html.EscapeString(n.Text)))
}

// resolveTarget implements the link-target resolution rules of §4.3 and
// records a LinkDiagnostic when the resolved route is known not to exist.
func (c *converter) resolveTarget(target string) string {
	switch {
	case strings.Contains(target, "://"):
		return target
	case strings.HasPrefix(target, "/"):
		c.checkExists(target)
		return target
	case strings.HasPrefix(target, "#"):
		return target
	default:
		resolved := resolveRelative(c.route, target)
		c.checkExists(resolved)
		return resolved
	}
}

func (c *converter) checkExists(route string) {
	if c.routeExists == nil || strings.HasPrefix(route, "#") || strings.Contains(route, "://") {
		return
	}
	if !c.routeExists(route) {
		c.diagnostics = append(c.diagnostics, &errs.LinkDiagnostic{Route: c.route, Target: route})
	}
}

// resolveRelative resolves a document-relative target against the
// current document's route, stripping .norg and appending a trailing
// slash for non-index documents.
func resolveRelative(currentRoute, target string) string {
	target = strings.TrimPrefix(target, "./")
	target = strings.TrimSuffix(target, ".norg")

	base := "/"
	if idx := strings.LastIndex(strings.TrimSuffix(currentRoute, "/"), "/"); idx >= 0 {
		base = strings.TrimSuffix(currentRoute, "/")[:idx+1]
	}

	resolved := base + target
	if strings.HasSuffix(resolved, "/index") {
		resolved = strings.TrimSuffix(resolved, "index")
	}
	if !strings.HasSuffix(resolved, "/") {
		resolved += "/"
	}
	return resolved
}

func classAttr(class string) string {
	if class == "" {
		return ""
	}
	return fmt.Sprintf(` class="%s"`, html.EscapeString(class))
}

func escapeHTML(s string) string {
	return html.EscapeString(s)
}

func plainText(n *norg.Node) string {
	var sb strings.Builder
	for _, c := range n.Children {
		sb.WriteString(c.Text)
	}
	return sb.String()
}

func rawText(n *norg.Node) string {
	var sb strings.Builder
	for _, c := range n.Children {
		sb.WriteString(c.Text)
	}
	if sb.Len() == 0 {
		return n.Text
	}
	return sb.String()
}

// uniqueSlug lowercases, replaces spaces with '-', strips non-word runes,
// and appends a numeric suffix on collision.
func (c *converter) uniqueSlug(text string) string {
	base := slugify(text)
	if base == "" {
		base = "section"
	}
	count := c.slugs[base]
	c.slugs[base] = count + 1
	if count == 0 {
		return base
	}
	return base + "-" + strconv.Itoa(count)
}

func slugify(s string) string {
	s = strings.ToLower(s)
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
		default:
			// strip non-word runes
		}
	}
	return strings.Trim(sb.String(), "-")
}
