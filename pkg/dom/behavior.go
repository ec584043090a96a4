package dom

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/net/html"
)

// Behavior binds an activation function to elements matching a selector.
// It is the portable form of a custom element: whenever Scan finds a
// matching element that has not been activated yet, Activate runs once
// for it.
type Behavior struct {
	Name     string
	Match    Matcher
	Activate func(m *Mutator, n *html.Node) error
}

// Registry holds behaviors and remembers which elements they have
// activated. Elements no longer attached to the document are forgotten at
// the next Scan.
type Registry struct {
	mu        sync.Mutex
	behaviors []Behavior
	active    map[*html.Node]map[string]bool
}

// NewRegistry returns a registry holding the given behaviors.
func NewRegistry(behaviors ...Behavior) *Registry {
	r := &Registry{active: make(map[*html.Node]map[string]bool)}
	for _, b := range behaviors {
		r.Define(b.Name, b.Match, b.Activate)
	}
	return r
}

// Define adds a behavior. Defining a name twice replaces the earlier
// behavior.
func (r *Registry) Define(name string, match Matcher, activate func(m *Mutator, n *html.Node) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := Behavior{Name: name, Match: match, Activate: activate}
	for i := range r.behaviors {
		if r.behaviors[i].Name == name {
			r.behaviors[i] = b
			return
		}
	}
	r.behaviors = append(r.behaviors, b)
}

// Scan activates every behavior on the matching elements under root,
// including root itself, that it has not activated before. Matches are
// collected before any activation runs, so an activation may change the
// tree freely.
func (r *Registry) Scan(m *Mutator, root *html.Node) error {
	type pending struct {
		b Behavior
		n *html.Node
	}

	r.mu.Lock()
	for n := range r.active {
		if !attached(m.Root(), n) {
			delete(r.active, n)
		}
	}
	var todo []pending
	for _, b := range r.behaviors {
		for _, n := range m.QueryAll(root, b.Match) {
			seen := r.active[n]
			if seen[b.Name] {
				continue
			}
			if seen == nil {
				seen = make(map[string]bool)
				r.active[n] = seen
			}
			seen[b.Name] = true
			todo = append(todo, pending{b, n})
		}
	}
	r.mu.Unlock()

	var errs []error
	for _, p := range todo {
		if err := p.b.Activate(m, p.n); err != nil {
			errs = append(errs, fmt.Errorf("dom: behavior %s: %w", p.b.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Activated reports whether the named behavior has run for n.
func (r *Registry) Activated(n *html.Node, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active[n][name]
}

func attached(root, n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n == root {
			return true
		}
	}
	return false
}
