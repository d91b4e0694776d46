package norg

import "strings"

// parseInline scans a line of already-joined text for inline markup
// (bold/italic/underline/strike/verbatim, links, images, footnote refs)
// and returns the resulting run of Text/Link/Image/FootnoteRef nodes.
func parseInline(s string) []*Node {
	var nodes []*Node
	var plain strings.Builder

	flush := func() {
		if plain.Len() == 0 {
			return
		}
		n := newNode(KindText)
		n.Style = StylePlain
		n.Text = plain.String()
		nodes = append(nodes, n)
		plain.Reset()
	}

	runes := []rune(s)
	i := 0
	for i < len(runes) {
		c := runes[i]

		switch {
		case c == '!' && i+1 < len(runes) && runes[i+1] == '{':
			if target, text, end, ok := scanLinkLike(runes, i+1); ok {
				flush()
				img := newNode(KindImage)
				img.Target = target
				img.Text = text
				nodes = append(nodes, img)
				i = end
				continue
			}
			plain.WriteRune(c)
			i++

		case c == '{':
			if target, text, end, ok := scanLinkLike(runes, i); ok {
				flush()
				link := newNode(KindLink)
				link.Target = target
				link.Text = text
				nodes = append(nodes, link)
				i = end
				continue
			}
			plain.WriteRune(c)
			i++

		case c == '^' && i+1 < len(runes) && runes[i+1] == '[':
			if name, end, ok := scanBracket(runes, i+1); ok {
				flush()
				ref := newNode(KindFootnoteRef)
				ref.Target = name
				nodes = append(nodes, ref)
				i = end
				continue
			}
			plain.WriteRune(c)
			i++

		case c == '`':
			if text, end, ok := scanDelim(runes, i, '`'); ok {
				flush()
				n := newNode(KindText)
				n.Style = StyleVerbatim
				n.Text = text
				nodes = append(nodes, n)
				i = end
				continue
			}
			plain.WriteRune(c)
			i++

		case c == '*':
			if text, end, ok := scanDelim(runes, i, '*'); ok {
				flush()
				n := newNode(KindText)
				n.Style = StyleBold
				n.Text = text
				nodes = append(nodes, n)
				i = end
				continue
			}
			plain.WriteRune(c)
			i++

		case c == '/':
			if text, end, ok := scanDelim(runes, i, '/'); ok {
				flush()
				n := newNode(KindText)
				n.Style = StyleItalic
				n.Text = text
				nodes = append(nodes, n)
				i = end
				continue
			}
			plain.WriteRune(c)
			i++

		case c == '_':
			if text, end, ok := scanDelim(runes, i, '_'); ok {
				flush()
				n := newNode(KindText)
				n.Style = StyleUnderline
				n.Text = text
				nodes = append(nodes, n)
				i = end
				continue
			}
			plain.WriteRune(c)
			i++

		case c == '-' && i+1 < len(runes) && runes[i+1] != ' ':
			if text, end, ok := scanDelim(runes, i, '-'); ok {
				flush()
				n := newNode(KindText)
				n.Style = StyleStrike
				n.Text = text
				nodes = append(nodes, n)
				i = end
				continue
			}
			plain.WriteRune(c)
			i++

		default:
			plain.WriteRune(c)
			i++
		}
	}
	flush()
	return nodes
}

// scanDelim finds a closing delim starting after position start (which
// holds the opening delim) on the same line, disallowing an empty span or
// a span that begins with whitespace (to avoid misreading stray
// punctuation as markup).
func scanDelim(runes []rune, start int, delim rune) (string, int, bool) {
	if start+1 >= len(runes) || runes[start+1] == ' ' || runes[start+1] == delim {
		return "", 0, false
	}
	for j := start + 1; j < len(runes); j++ {
		if runes[j] == delim {
			return string(runes[start+1 : j]), j + 1, true
		}
	}
	return "", 0, false
}

// scanLinkLike parses {target}[text] (or {target} alone) starting at the
// '{' position.
func scanLinkLike(runes []rune, start int) (target, text string, end int, ok bool) {
	if start >= len(runes) || runes[start] != '{' {
		return "", "", 0, false
	}
	close := -1
	for j := start + 1; j < len(runes); j++ {
		if runes[j] == '}' {
			close = j
			break
		}
	}
	if close == -1 {
		return "", "", 0, false
	}
	target = string(runes[start+1 : close])
	end = close + 1

	if end < len(runes) && runes[end] == '[' {
		textEnd := -1
		for j := end + 1; j < len(runes); j++ {
			if runes[j] == ']' {
				textEnd = j
				break
			}
		}
		if textEnd != -1 {
			text = string(runes[end+1 : textEnd])
			end = textEnd + 1
		}
	}
	if text == "" {
		text = target
	}
	return target, text, end, true
}

func scanBracket(runes []rune, start int) (name string, end int, ok bool) {
	if start >= len(runes) || runes[start] != '[' {
		return "", 0, false
	}
	for j := start + 1; j < len(runes); j++ {
		if runes[j] == ']' {
			return string(runes[start+1 : j]), j + 1, true
		}
	}
	return "", 0, false
}
