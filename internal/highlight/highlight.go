// Package highlight wires the site's configured syntax-highlighting
// engine. Per SPEC_FULL.md §4.3 the converter only ever emits
// `language-*` classes — highlighting itself happens client-side — so
// the one thing this package does server-side is resolve a chroma style
// name and render its CSS as a generated asset, grounded on the
// chromahtml.WithClasses(true) class-based-CSS approach used across the
// wider retrieval pack (e.g. infogulch-xtemplate's goldmark-highlighting
// wiring) via github.com/alecthomas/chroma/v2.
package highlight

import (
	"strings"

	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/norgolith/norgolith/internal/log"
)

// AssetPath is the generated stylesheet's path under assets/.
const AssetPath = "chroma.css"

// Result is the outcome of resolving a site's highlighter configuration.
type Result struct {
	// CSS is the generated stylesheet, or empty if Engine isn't "chroma".
	CSS string
	// Unknown is true if Engine was non-empty but not recognized as
	// chroma's shorthand ("chroma") or any other known engine; the class
	// is still emitted by the converter regardless (§4.3).
	Unknown bool
}

// Resolve validates engine against the known engine set and, for
// engine=="chroma", renders styleName's CSS (falling back to chroma's
// styles.Fallback style if styleName is empty or unrecognized).
func Resolve(engine, styleName string, logger log.Logger) Result {
	if logger == nil {
		logger = log.Nop()
	}

	switch strings.ToLower(engine) {
	case "chroma":
		return Result{CSS: renderCSS(styleName, logger)}
	case "", "prism", "highlightjs":
		return Result{}
	default:
		logger.Warn("unknown syntax-highlighting engine; class names still emitted", "engine", engine)
		return Result{Unknown: true}
	}
}

func renderCSS(styleName string, logger log.Logger) string {
	style := styles.Get(styleName)
	if style == nil {
		logger.Warn("unknown chroma style, falling back to default", "style", styleName)
		style = styles.Fallback
	}

	formatter := html.New(html.WithClasses(true))

	var sb strings.Builder
	if err := formatter.WriteCSS(&sb, style); err != nil {
		logger.Warn("failed to render chroma CSS", "error", err.Error())
		return ""
	}
	return sb.String()
}
