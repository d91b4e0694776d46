// Package norg implements the Norg markup collaborator that §1 of
// SPEC_FULL.md names as external: no published Go Norg-parsing library
// exists in the retrieval pack or the wider ecosystem, so this module owns
// tokenizing and the typed node tree, in the same spirit as the teacher's
// own hand-rolled, line-oriented internal/adapters/html.MarkdownRenderer.
// internal/convert then lowers this tree to HTML.
package norg

// NodeKind tags the variant of a Node, used for tagged-variant traversal
// in internal/convert rather than dynamic dispatch (per SPEC_FULL.md §9).
type NodeKind int

const (
	KindDocument NodeKind = iota
	KindMeta
	KindHeading
	KindParagraph
	KindList
	KindListItem
	KindQuote
	KindCodeBlock
	KindText       // inline run of plain or styled text
	KindLink
	KindImage
	KindFootnoteRef
	KindFootnoteDef
	KindDefinitionList
	KindDefinitionTerm
	KindDefinitionDesc
	KindTable
	KindTableRow
	KindTableCell
	KindHorizontalRule
	KindCarryover
	KindRawHTML
	KindUnknown
)

// InlineStyle marks the styling applied to a Text node's span.
type InlineStyle int

const (
	StylePlain InlineStyle = iota
	StyleBold
	StyleItalic
	StyleUnderline
	StyleStrike
	StyleVerbatim
)

// Node is one element of the parsed Norg tree. Only the fields relevant to
// a given Kind are populated; see the comment beside each field.
type Node struct {
	Kind NodeKind

	// Text-bearing nodes (KindText, KindCodeBlock, KindRawHTML).
	Text string

	// KindText
	Style InlineStyle

	// KindHeading: 1..6.
	Level int

	// KindList: true for ordered (numbered) lists, false for unordered.
	Ordered bool

	// KindCodeBlock: fenced language, e.g. "go"; empty if unspecified.
	Language string

	// KindLink / KindImage / KindFootnoteRef: link target or footnote name.
	Target string

	// KindFootnoteDef: the footnote's display name/number.
	Name string

	// KindQuote: not set by Parse; internal/convert applies a preceding
	// +html.class tag from its own one-slot carryover buffer instead.
	Class string

	// KindCarryover: true for weak (+tag), false for strong (.tag).
	Weak bool
	// KindCarryover: the tag name, e.g. "html.class".
	Tag string
	// KindCarryover: the tag's argument text, e.g. a class name.
	Arg string

	// KindTableRow: true if this row is the header row.
	Header bool

	Children []*Node
}

// Document is the root of a parsed Norg source file.
type Document struct {
	// Meta holds the raw key/value pairs (unordered) decoded from the
	// leading @document.meta block, if present. Values are one of
	// string, []string, bool, or time.Time; internal/convert applies
	// the well-known-key defaults (title, layout, ...).
	Meta map[string]any

	// Body is the sequence of top-level block nodes following the
	// metadata region.
	Body []*Node
}

func newNode(kind NodeKind) *Node {
	return &Node{Kind: kind}
}
