package norg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMetaBlock(t *testing.T) {
	src := `@document.meta
title: Home
authors: [Jane, John]
draft: false
created: 2024-01-02T10:00:00Z
@end

* Welcome
`
	doc, err := Parse([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, "Home", doc.Meta["title"])
	assert.Equal(t, []string{"Jane", "John"}, doc.Meta["authors"])
	assert.Equal(t, false, doc.Meta["draft"])

	created, ok := doc.Meta["created"].(time.Time)
	require.True(t, ok)
	assert.Equal(t, 2024, created.Year())

	require.Len(t, doc.Body, 1)
	assert.Equal(t, KindHeading, doc.Body[0].Kind)
	assert.Equal(t, 1, doc.Body[0].Level)
}

func TestParseHeadingLevels(t *testing.T) {
	doc, err := Parse([]byte("* One\n** Two\n"))
	require.NoError(t, err)
	require.Len(t, doc.Body, 2)
	assert.Equal(t, 1, doc.Body[0].Level)
	assert.Equal(t, 2, doc.Body[1].Level)
}

func TestParseParagraphInline(t *testing.T) {
	doc, err := Parse([]byte("Hello *bold* and /italic/ text."))
	require.NoError(t, err)
	require.Len(t, doc.Body, 1)
	para := doc.Body[0]
	assert.Equal(t, KindParagraph, para.Kind)

	var sawBold, sawItalic bool
	for _, c := range para.Children {
		if c.Style == StyleBold && c.Text == "bold" {
			sawBold = true
		}
		if c.Style == StyleItalic && c.Text == "italic" {
			sawItalic = true
		}
	}
	assert.True(t, sawBold)
	assert.True(t, sawItalic)
}

func TestParseLink(t *testing.T) {
	doc, err := Parse([]byte("{./missing}[x]"))
	require.NoError(t, err)
	require.Len(t, doc.Body, 1)
	link := doc.Body[0].Children[0]
	assert.Equal(t, KindLink, link.Kind)
	assert.Equal(t, "./missing", link.Target)
	assert.Equal(t, "x", link.Text)
}

func TestParseNestedList(t *testing.T) {
	doc, err := Parse([]byte("- one\n-- nested\n- two\n"))
	require.NoError(t, err)
	require.Len(t, doc.Body, 1)
	list := doc.Body[0]
	assert.Equal(t, KindList, list.Kind)
	require.Len(t, list.Children, 2)

	first := list.Children[0]
	require.Len(t, first.Children, 1)
	assert.Equal(t, KindList, first.Children[0].Kind)
}

func TestParseQuoteWithPrecedingWeakCarryover(t *testing.T) {
	doc, err := Parse([]byte("+html.class callout\n> quoted text\n"))
	require.NoError(t, err)
	require.Len(t, doc.Body, 2)
	assert.Equal(t, KindCarryover, doc.Body[0].Kind)
	assert.True(t, doc.Body[0].Weak)
	assert.Equal(t, "html.class", doc.Body[0].Tag)
	assert.Equal(t, "callout", doc.Body[0].Arg)
	assert.Equal(t, KindQuote, doc.Body[1].Kind)
}

func TestParseCodeBlock(t *testing.T) {
	src := "@code go\nfunc main() {}\n@end\n"
	doc, err := Parse([]byte(src))
	require.NoError(t, err)
	require.Len(t, doc.Body, 1)
	assert.Equal(t, KindCodeBlock, doc.Body[0].Kind)
	assert.Equal(t, "go", doc.Body[0].Language)
	assert.Equal(t, "func main() {}", doc.Body[0].Text)
}

func TestParseTableWithSeparator(t *testing.T) {
	src := "| a | b |\n|---|---|\n| 1 | 2 |\n"
	doc, err := Parse([]byte(src))
	require.NoError(t, err)
	require.Len(t, doc.Body, 1)
	table := doc.Body[0]
	require.Len(t, table.Children, 2)
	assert.True(t, table.Children[0].Header)
	assert.False(t, table.Children[1].Header)
}

func TestParseUnterminatedCodeBlockErrors(t *testing.T) {
	_, err := Parse([]byte("@code go\nfunc main() {}\n"))
	require.Error(t, err)
	var pe *ParseError
	assert.ErrorAs(t, err, &pe)
}

func TestParseHorizontalRule(t *testing.T) {
	doc, err := Parse([]byte("___\n"))
	require.NoError(t, err)
	require.Len(t, doc.Body, 1)
	assert.Equal(t, KindHorizontalRule, doc.Body[0].Kind)
}
