package norg

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ParseError reports a recoverable parsing failure. internal/convert turns
// this into a diagnostic-placeholder document rather than propagating a
// panic or dropping the route (SPEC_FULL.md §4.3 failure semantics).
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("norg: line %d: %s", e.Line, e.Msg)
}

var (
	headingRe  = regexp.MustCompile(`^(\*{1,6})\s+(.*)$`)
	unorderedRe = regexp.MustCompile(`^(-{1,6})\s+(.*)$`)
	orderedRe   = regexp.MustCompile(`^(~{1,6})\s+(.*)$`)
	quoteRe     = regexp.MustCompile(`^(>{1,6})\s+(.*)$`)
	hrRe        = regexp.MustCompile(`^_{3,}\s*$`)
	codeOpenRe  = regexp.MustCompile(`^@code\s*(\S*)\s*$`)
	metaOpenRe  = regexp.MustCompile(`^@document\.meta\s*$`)
	blockEndRe  = regexp.MustCompile(`^@end\s*$`)
	weakTagRe   = regexp.MustCompile(`^\+([\w.]+)\s*(.*)$`)
	strongTagRe = regexp.MustCompile(`^\.([\w.]+)\s*(.*)$`)
	defTermRe   = regexp.MustCompile(`^\$\s+(.*)$`)
	defDescRe   = regexp.MustCompile(`^:\s+(.*)$`)
	footnoteDefRe = regexp.MustCompile(`^\^(\S+)\s*:\s*(.*)$`)
	tableRowRe  = regexp.MustCompile(`^\|(.*)\|\s*$`)
	tableSepRe  = regexp.MustCompile(`^\|[\s:|-]+\|\s*$`)
)

// Parse lexes and parses a Norg source buffer into a Document tree.
func Parse(src []byte) (*Document, error) {
	lines := strings.Split(string(src), "\n")
	p := &parser{lines: lines}

	doc := &Document{Meta: map[string]any{}}

	if p.peekMatches(metaOpenRe) {
		meta, err := p.parseMeta()
		if err != nil {
			return nil, err
		}
		doc.Meta = meta
	}

	body, err := p.parseBlocks()
	if err != nil {
		return nil, err
	}
	doc.Body = body

	return doc, nil
}

type parser struct {
	lines []string
	pos   int
}

func (p *parser) peek() (string, bool) {
	if p.pos >= len(p.lines) {
		return "", false
	}
	return p.lines[p.pos], true
}

func (p *parser) peekMatches(re *regexp.Regexp) bool {
	line, ok := p.peek()
	return ok && re.MatchString(line)
}

func (p *parser) next() (string, bool) {
	line, ok := p.peek()
	if ok {
		p.pos++
	}
	return line, ok
}

// parseMeta consumes an @document.meta ... @end block into a key/value map.
// Values of the form [a, b, c] become []string; true/false become bool;
// an ISO-8601-looking scalar becomes time.Time (UTC if no zone given).
func (p *parser) parseMeta() (map[string]any, error) {
	p.next() // consume @document.meta
	meta := map[string]any{}

	for {
		line, ok := p.next()
		if !ok {
			return nil, &ParseError{Line: p.pos, Msg: "unterminated @document.meta block"}
		}
		if blockEndRe.MatchString(line) {
			return meta, nil
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		key, val, found := strings.Cut(trimmed, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		meta[key] = decodeMetaValue(strings.TrimSpace(val))
	}
}

func decodeMetaValue(raw string) any {
	if raw == "true" || raw == "false" {
		b, _ := strconv.ParseBool(raw)
		return b
	}
	if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
		inner := strings.TrimSuffix(strings.TrimPrefix(raw, "["), "]")
		if strings.TrimSpace(inner) == "" {
			return []string{}
		}
		parts := strings.Split(inner, ",")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			out = append(out, strings.TrimSpace(part))
		}
		return out
	}
	if t, ok := parseDate(raw); ok {
		return t
	}
	return raw
}

// parseDate accepts ISO-8601 with an optional timezone offset; a missing
// zone is treated as UTC, per SPEC_FULL.md §3/§9.
func parseDate(raw string) (time.Time, bool) {
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			if t.Location() == time.UTC && !strings.Contains(raw, "Z") && !strings.ContainsAny(raw, "+-") {
				return t.UTC(), true
			}
			if layout != time.RFC3339 {
				return t.UTC(), true
			}
			return t, true
		}
	}
	return time.Time{}, false
}

func (p *parser) parseBlocks() ([]*Node, error) {
	var blocks []*Node

	for {
		line, ok := p.peek()
		if !ok {
			return blocks, nil
		}

		trimmed := strings.TrimRight(line, " \t")
		switch {
		case trimmed == "":
			p.next()

		case codeOpenRe.MatchString(trimmed):
			node, err := p.parseCodeBlock()
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, node)

		case headingRe.MatchString(trimmed):
			blocks = append(blocks, p.parseHeading(trimmed))
			p.next()

		case hrRe.MatchString(trimmed):
			p.next()
			blocks = append(blocks, newNode(KindHorizontalRule))

		case unorderedRe.MatchString(trimmed) || orderedRe.MatchString(trimmed):
			blocks = append(blocks, p.parseList())

		case quoteRe.MatchString(trimmed):
			blocks = append(blocks, p.parseQuote())

		case tableRowRe.MatchString(trimmed):
			blocks = append(blocks, p.parseTable())

		case weakTagRe.MatchString(trimmed):
			blocks = append(blocks, p.parseCarryover(trimmed, true))
			p.next()

		case strongTagRe.MatchString(trimmed):
			blocks = append(blocks, p.parseCarryover(trimmed, false))
			p.next()

		case defTermRe.MatchString(trimmed):
			blocks = append(blocks, p.parseDefinitionList())

		case footnoteDefRe.MatchString(trimmed):
			blocks = append(blocks, p.parseFootnoteDef(trimmed))
			p.next()

		default:
			blocks = append(blocks, p.parseParagraph())
		}
	}
}

func (p *parser) parseCodeBlock() (*Node, error) {
	open, _ := p.next()
	m := codeOpenRe.FindStringSubmatch(open)
	lang := ""
	if len(m) == 2 {
		lang = m[1]
	}

	var sb strings.Builder
	for {
		line, ok := p.next()
		if !ok {
			return nil, &ParseError{Line: p.pos, Msg: "unterminated @code block"}
		}
		if blockEndRe.MatchString(line) {
			break
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	node := newNode(KindCodeBlock)
	node.Language = lang
	node.Text = strings.TrimSuffix(sb.String(), "\n")
	return node, nil
}

func (p *parser) parseHeading(line string) *Node {
	m := headingRe.FindStringSubmatch(line)
	node := newNode(KindHeading)
	node.Level = len(m[1])
	node.Children = parseInline(m[2])
	return node
}

// parseList consumes a run of consecutive bullet lines at any nesting
// depth (depth = repeated bullet-char count) into a single nested list.
func (p *parser) parseList() *Node {
	type item struct {
		depth    int
		ordered  bool
		children []*Node
	}
	var flat []item

	for {
		line, ok := p.peek()
		if !ok {
			break
		}
		trimmed := strings.TrimRight(line, " \t")
		if um := unorderedRe.FindStringSubmatch(trimmed); um != nil {
			flat = append(flat, item{depth: len(um[1]), ordered: false, children: parseInline(um[2])})
			p.next()
			continue
		}
		if om := orderedRe.FindStringSubmatch(trimmed); om != nil {
			flat = append(flat, item{depth: len(om[1]), ordered: true, children: parseInline(om[2])})
			p.next()
			continue
		}
		break
	}
	if len(flat) == 0 {
		return newNode(KindList)
	}

	root := newNode(KindList)
	root.Ordered = flat[0].ordered
	stack := []*Node{root}
	depths := []int{flat[0].depth}

	for _, it := range flat {
		li := newNode(KindListItem)
		li.Children = it.children

		for len(depths) > 1 && it.depth < depths[len(depths)-1] {
			stack = stack[:len(stack)-1]
			depths = depths[:len(depths)-1]
		}
		if it.depth > depths[len(depths)-1] {
			sub := newNode(KindList)
			sub.Ordered = it.ordered
			last := stack[len(stack)-1]
			if len(last.Children) > 0 {
				parent := last.Children[len(last.Children)-1]
				parent.Children = append(parent.Children, sub)
			} else {
				last.Children = append(last.Children, sub)
			}
			stack = append(stack, sub)
			depths = append(depths, it.depth)
		}

		cur := stack[len(stack)-1]
		cur.Children = append(cur.Children, li)
	}

	return root
}

func (p *parser) parseQuote() *Node {
	node := newNode(KindQuote)
	var inline []*Node
	for {
		line, ok := p.peek()
		if !ok {
			break
		}
		trimmed := strings.TrimRight(line, " \t")
		m := quoteRe.FindStringSubmatch(trimmed)
		if m == nil {
			break
		}
		inline = append(inline, parseInline(m[2])...)
		p.next()
	}
	node.Children = inline
	return node
}

func (p *parser) parseTable() *Node {
	node := newNode(KindTable)
	firstRow := true
	headerSeen := false

	for {
		line, ok := p.peek()
		if !ok {
			break
		}
		trimmed := strings.TrimRight(line, " \t")
		if tableSepRe.MatchString(trimmed) {
			headerSeen = true
			p.next()
			continue
		}
		m := tableRowRe.FindStringSubmatch(trimmed)
		if m == nil {
			break
		}
		p.next()

		cells := strings.Split(m[1], "|")
		row := newNode(KindTableRow)
		row.Header = firstRow && !headerSeen
		for _, c := range cells {
			cell := newNode(KindTableCell)
			cell.Children = parseInline(strings.TrimSpace(c))
			row.Children = append(row.Children, cell)
		}
		node.Children = append(node.Children, row)
		firstRow = false
	}
	return node
}

func (p *parser) parseCarryover(line string, weak bool) *Node {
	node := newNode(KindCarryover)
	node.Weak = weak
	var m []string
	if weak {
		m = weakTagRe.FindStringSubmatch(line)
	} else {
		m = strongTagRe.FindStringSubmatch(line)
	}
	node.Tag = m[1]
	node.Arg = strings.TrimSpace(m[2])
	return node
}

func (p *parser) parseDefinitionList() *Node {
	node := newNode(KindDefinitionList)
	for {
		line, ok := p.peek()
		if !ok {
			break
		}
		trimmed := strings.TrimRight(line, " \t")
		if tm := defTermRe.FindStringSubmatch(trimmed); tm != nil {
			p.next()
			term := newNode(KindDefinitionTerm)
			term.Children = parseInline(tm[1])
			node.Children = append(node.Children, term)
			continue
		}
		if dm := defDescRe.FindStringSubmatch(trimmed); dm != nil {
			p.next()
			desc := newNode(KindDefinitionDesc)
			desc.Children = parseInline(dm[1])
			node.Children = append(node.Children, desc)
			continue
		}
		break
	}
	return node
}

func (p *parser) parseFootnoteDef(line string) *Node {
	m := footnoteDefRe.FindStringSubmatch(line)
	node := newNode(KindFootnoteDef)
	node.Name = m[1]
	node.Children = parseInline(m[2])
	return node
}

func (p *parser) parseParagraph() *Node {
	var sb strings.Builder
	for {
		line, ok := p.peek()
		if !ok {
			break
		}
		trimmed := strings.TrimRight(line, " \t")
		if trimmed == "" || isBlockStart(trimmed) {
			break
		}
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(strings.TrimSpace(trimmed))
		p.next()
	}
	node := newNode(KindParagraph)
	node.Children = parseInline(sb.String())
	return node
}

func isBlockStart(line string) bool {
	switch {
	case headingRe.MatchString(line), hrRe.MatchString(line),
		unorderedRe.MatchString(line), orderedRe.MatchString(line),
		quoteRe.MatchString(line), codeOpenRe.MatchString(line),
		weakTagRe.MatchString(line), strongTagRe.MatchString(line),
		defTermRe.MatchString(line), tableRowRe.MatchString(line),
		footnoteDefRe.MatchString(line):
		return true
	default:
		return false
	}
}
