package reconcile

import (
	"github.com/vango-dev/spanrender/pkg/dom"
	"golang.org/x/net/html"
)

// LazyScriptsName is the name of the LazyScripts behavior.
const LazyScriptsName = "lazy-scripts"

// LazyScripts returns the behavior that activates deferred markup:
// a <div data-loading="lazy"> whose first element child is a <template>
// is replaced by that template's content.
func LazyScripts() dom.Behavior {
	return dom.Behavior{
		Name:  LazyScriptsName,
		Match: dom.And(dom.Tag("div"), dom.AttrEquals("data-loading", "lazy")),
		Activate: func(m *dom.Mutator, n *html.Node) error {
			tpl := firstElement(n)
			if !dom.IsTemplate(tpl) {
				return nil
			}
			parent := n.Parent
			if parent == nil {
				return nil
			}
			for _, c := range dom.Children(tpl) {
				m.InsertBefore(parent, c, n)
			}
			return m.Remove(n)
		},
	}
}

func firstElement(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}
