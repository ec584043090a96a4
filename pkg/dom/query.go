package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Matcher selects elements.
type Matcher func(n *html.Node) bool

// HasAttr matches elements carrying the attribute key.
func HasAttr(key string) Matcher {
	return func(n *html.Node) bool {
		_, ok := Attr(n, key)
		return ok
	}
}

// AttrEquals matches elements whose attribute key equals value.
func AttrEquals(key, value string) Matcher {
	return func(n *html.Node) bool {
		v, ok := Attr(n, key)
		return ok && v == value
	}
}

// Tag matches elements by tag name.
func Tag(name string) Matcher {
	a := atom.Lookup([]byte(name))
	return func(n *html.Node) bool {
		if a != 0 {
			return n.DataAtom == a
		}
		return n.Data == name
	}
}

// And matches elements matched by every m.
func And(ms ...Matcher) Matcher {
	return func(n *html.Node) bool {
		for _, m := range ms {
			if !m(n) {
				return false
			}
		}
		return true
	}
}

// Attr returns the value of an attribute of an element.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil || n.Type != html.ElementNode {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// IsTemplate reports whether n is a <template> element.
func IsTemplate(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode && n.DataAtom == atom.Template
}

// Children returns the child nodes of n.
func Children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// Clone returns a deep copy of n without a parent.
func Clone(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		c.Attr = make([]html.Attribute, len(n.Attr))
		copy(c.Attr, n.Attr)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(Clone(child))
	}
	return c
}

// OuterHTML serializes n.
func OuterHTML(n *html.Node) string {
	var b strings.Builder
	_ = html.Render(&b, n)
	return b.String()
}

// InnerHTML serializes the children of n.
func InnerHTML(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&b, c)
	}
	return b.String()
}

// TextContent returns the concatenated text under n.
func TextContent(n *html.Node) string {
	var b strings.Builder
	walk(n, true, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		return true
	})
	return b.String()
}

// walk visits n and its descendants depth first until fn returns false.
// Template content is skipped unless intoTemplates is set.
func walk(n *html.Node, intoTemplates bool, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	if IsTemplate(n) && !intoTemplates {
		return true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, intoTemplates, fn) {
			return false
		}
	}
	return true
}

func first(root *html.Node, match func(*html.Node) bool, intoTemplates bool) *html.Node {
	var found *html.Node
	walk(root, intoTemplates, func(n *html.Node) bool {
		if match(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

// Or matches elements matched by any m.
func Or(ms ...Matcher) Matcher {
	return func(n *html.Node) bool {
		for _, m := range ms {
			if m(n) {
				return true
			}
		}
		return false
	}
}
