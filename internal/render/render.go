// Package render converts a markup element tree into normalized,
// line-oriented plain text. The tree is an abstract shape so the renderer
// stays independent of any concrete HTML API: parsers populate Node values
// and Render walks them.
package render

import "strings"

// Kind categorizes a node for layout purposes.
type Kind int

const (
	// KindText is a leaf carrying raw character data.
	KindText Kind = iota
	// KindBlock starts a new output line (p, div, headings, li, br...).
	KindBlock
	// KindInline contributes its text without breaking the line (a, span, strong...).
	KindInline
	// KindContainer groups children without layout of its own (ul, section, body...).
	KindContainer
)

// Node is one element of the abstract markup tree.
type Node struct {
	Kind     Kind
	Tag      string // lower-case element name, empty for text nodes
	Text     string // character data, text nodes only
	Children []*Node
}

// Render walks the tree and produces normalized text: every block element on
// its own line, headings upper-cased and padded with blank lines, list items
// prefixed with a bullet, inline runs joined in place. A subtree containing
// no text renders to the empty string. The output is deterministic for a
// given tree.
func Render(n *Node) string {
	if n == nil {
		return ""
	}
	var lines []string
	var cur strings.Builder
	walk(n, &lines, &cur)
	flushLine(&lines, &cur)
	return strings.TrimSpace(strings.Join(collapseBlank(lines), "\n"))
}

// collapseBlank squeezes runs of empty lines down to a single blank line.
func collapseBlank(lines []string) []string {
	out := lines[:0]
	blank := false
	for _, l := range lines {
		if l == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, l)
	}
	return out
}

func walk(n *Node, lines *[]string, cur *strings.Builder) {
	switch n.Kind {
	case KindText:
		appendText(cur, n.Text)
	case KindInline:
		for _, c := range n.Children {
			walk(c, lines, cur)
		}
	case KindBlock:
		flushLine(lines, cur)
		var inner strings.Builder
		for _, c := range n.Children {
			walk(c, lines, &inner)
		}
		line := strings.TrimSpace(collapseSpace(inner.String()))
		switch {
		case line == "":
			// no text anywhere under this block: contributes nothing
		case isHeading(n.Tag):
			*lines = append(*lines, "", strings.ToUpper(line), "")
		case n.Tag == "li":
			*lines = append(*lines, "- "+line)
		default:
			*lines = append(*lines, line)
		}
	case KindContainer:
		flushLine(lines, cur)
		for _, c := range n.Children {
			walk(c, lines, cur)
		}
		flushLine(lines, cur)
	}
}

func flushLine(lines *[]string, cur *strings.Builder) {
	line := strings.TrimSpace(collapseSpace(cur.String()))
	cur.Reset()
	if line != "" {
		*lines = append(*lines, line)
	}
}

func appendText(cur *strings.Builder, text string) {
	cur.WriteString(text)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func isHeading(tag string) bool {
	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return true
	}
	return false
}
