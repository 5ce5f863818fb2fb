package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Node is the slice of DOM access the extractors need. The goquery adapter
// backs it in production; tests may supply their own.
type Node interface {
	// Find returns descendants matching a CSS selector, in document order.
	Find(selector string) []Node
	// Text returns the concatenated text content.
	Text() string
	// Attr returns an attribute value.
	Attr(name string) (string, bool)
}

// has reports whether n has a descendant matching selector.
func has(n Node, selector string) bool {
	return len(n.Find(selector)) > 0
}

func first(n Node, selector string) (Node, bool) {
	found := n.Find(selector)
	if len(found) == 0 {
		return nil, false
	}
	return found[0], true
}

type gqNode struct {
	sel *goquery.Selection
}

// ParseHTML parses an HTML snapshot. Script-like elements are dropped up
// front since they never carry visible text.
func ParseHTML(html string) (Node, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	doc.Find("script, style, noscript, template").Remove()
	return gqNode{sel: doc.Selection}, nil
}

func (n gqNode) Find(selector string) []Node {
	var out []Node
	n.sel.Find(selector).Each(func(_ int, s *goquery.Selection) {
		out = append(out, gqNode{sel: s})
	})
	return out
}

func (n gqNode) Text() string {
	return n.sel.Text()
}

func (n gqNode) Attr(name string) (string, bool) {
	return n.sel.Attr(name)
}
