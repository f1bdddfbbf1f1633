package render

import (
	"strings"

	"golang.org/x/net/html"
)

// FromHTML builds the abstract tree for an HTML fragment. Script, style and
// comment subtrees are dropped.
func FromHTML(fragment string) (*Node, error) {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return nil, err
	}
	return FromHTMLNode(doc), nil
}

// FromHTMLNode maps an x/net/html node onto the render tree. It is the
// bridge used for goquery selections as well, via Selection.Nodes.
func FromHTMLNode(n *html.Node) *Node {
	if n == nil {
		return nil
	}
	switch n.Type {
	case html.TextNode:
		return &Node{Kind: KindText, Text: n.Data}
	case html.DocumentNode:
		return &Node{Kind: KindContainer, Children: childTrees(n)}
	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		switch tag {
		case "script", "style", "noscript", "template":
			return nil
		case "br":
			return &Node{Kind: KindBlock, Tag: "br"}
		}
		return &Node{Kind: kindForTag(tag), Tag: tag, Children: childTrees(n)}
	default:
		return nil
	}
}

func childTrees(n *html.Node) []*Node {
	var out []*Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := FromHTMLNode(c); t != nil {
			out = append(out, t)
		}
	}
	return out
}

func kindForTag(tag string) Kind {
	switch tag {
	case "p", "div", "li", "h1", "h2", "h3", "h4", "h5", "h6", "dt", "dd", "tr", "blockquote", "pre":
		return KindBlock
	case "ul", "ol", "dl", "table", "section", "article", "header", "footer", "main", "body", "html", "head":
		return KindContainer
	default:
		return KindInline
	}
}
