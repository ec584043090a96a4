package dom

import (
	"errors"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MutationType identifies the kind of change a MutationRecord describes.
type MutationType uint8

const (
	MutationChildList     MutationType = iota + 1 // Nodes added or removed
	MutationAttributes                            // Attribute set or removed
	MutationCharacterData                         // Text or comment data changed
)

// String returns the string representation of the MutationType.
func (t MutationType) String() string {
	switch t {
	case MutationChildList:
		return "ChildList"
	case MutationAttributes:
		return "Attributes"
	case MutationCharacterData:
		return "CharacterData"
	default:
		return "Unknown"
	}
}

// MutationRecord describes one change to the document.
type MutationRecord struct {
	Type     MutationType
	Target   *html.Node
	Added    []*html.Node
	Removed  []*html.Node
	AttrName string
}

// ErrDetached is returned when an operation needs a node that is not
// attached to a parent.
var ErrDetached = errors.New("dom: node has no parent")

// Document is a parsed HTML document safe for concurrent use.
type Document struct {
	mu         sync.Mutex
	root       *html.Node
	subs       map[int]func([]MutationRecord)
	nextSub    int
	queue      [][]MutationRecord
	delivering bool
}

// Parse parses a complete HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return &Document{root: root, subs: make(map[int]func([]MutationRecord))}, nil
}

// ParseString parses a complete HTML document from s.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// View calls fn with read access to the document.
func (d *Document) View(fn func(t Tree)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(Tree{root: d.root})
}

// Mutate calls fn with write access to the document, then delivers the
// resulting mutation records to subscribers. There is no rollback: when fn
// returns an error, the changes it made before failing stay applied and
// their records are still delivered, so subscribers always see the tree as
// it is. Records of nested or
// concurrent Mutate calls made during delivery are delivered afterwards by
// the goroutine already delivering, so subscribers never run concurrently.
func (d *Document) Mutate(fn func(m *Mutator) error) error {
	d.mu.Lock()
	m := &Mutator{Tree: Tree{root: d.root}}
	err := fn(m)
	if len(m.records) > 0 {
		d.queue = append(d.queue, m.records)
	}
	if d.delivering {
		d.mu.Unlock()
		return err
	}

	d.delivering = true
	for len(d.queue) > 0 {
		batch := d.queue[0]
		d.queue = d.queue[1:]
		subs := make([]func([]MutationRecord), 0, len(d.subs))
		for i := 0; i < d.nextSub; i++ {
			if fn, ok := d.subs[i]; ok {
				subs = append(subs, fn)
			}
		}
		d.mu.Unlock()
		for _, fn := range subs {
			fn(batch)
		}
		d.mu.Lock()
	}
	d.delivering = false
	d.mu.Unlock()
	return err
}

// Subscribe registers fn to receive mutation records. The returned function
// removes the subscription.
func (d *Document) Subscribe(fn func(records []MutationRecord)) (cancel func()) {
	d.mu.Lock()
	id := d.nextSub
	d.nextSub++
	d.subs[id] = fn
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			delete(d.subs, id)
			d.mu.Unlock()
		})
	}
}

// String serializes the document.
func (d *Document) String() string {
	var s string
	d.View(func(t Tree) { s = OuterHTML(t.root) })
	return s
}

// GetElementByID returns the element with the given id outside template
// content, or nil.
func (d *Document) GetElementByID(id string) *html.Node {
	var n *html.Node
	d.View(func(t Tree) { n = t.GetElementByID(id) })
	return n
}

// Tree gives read access to a document while its lock is held.
type Tree struct {
	root *html.Node
}

// Root returns the document node.
func (t Tree) Root() *html.Node { return t.root }

// Body returns the body element, or nil.
func (t Tree) Body() *html.Node {
	return first(t.root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == atom.Body
	}, false)
}

// GetElementByID returns the element with the given id outside template
// content, or nil.
func (t Tree) GetElementByID(id string) *html.Node {
	return first(t.root, func(n *html.Node) bool {
		v, ok := Attr(n, "id")
		return ok && v == id
	}, false)
}

// QueryAll returns the elements under root matching m in document order,
// skipping template content.
func (t Tree) QueryAll(root *html.Node, m Matcher) []*html.Node {
	var out []*html.Node
	walk(root, false, func(n *html.Node) bool {
		if n.Type == html.ElementNode && m(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Mutator gives write access to a document inside Mutate. Every change
// made through it is recorded for subscribers.
type Mutator struct {
	Tree
	records []MutationRecord
}

// ParseFragment parses markup in the context of parent without inserting
// it.
func (m *Mutator) ParseFragment(parent *html.Node, markup string) ([]*html.Node, error) {
	return html.ParseFragment(strings.NewReader(markup), parent)
}

// AppendHTML parses markup in the context of parent and appends the
// resulting nodes.
func (m *Mutator) AppendHTML(parent *html.Node, markup string) ([]*html.Node, error) {
	nodes, err := m.ParseFragment(parent, markup)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		parent.AppendChild(n)
	}
	if len(nodes) > 0 {
		m.record(MutationRecord{Type: MutationChildList, Target: parent, Added: nodes})
	}
	return nodes, nil
}

// Append moves child to the end of parent's children.
func (m *Mutator) Append(parent, child *html.Node) {
	m.detach(child)
	parent.AppendChild(child)
	m.record(MutationRecord{Type: MutationChildList, Target: parent, Added: []*html.Node{child}})
}

// InsertBefore moves child into parent before ref. A nil ref appends.
func (m *Mutator) InsertBefore(parent, child, ref *html.Node) {
	m.detach(child)
	parent.InsertBefore(child, ref)
	m.record(MutationRecord{Type: MutationChildList, Target: parent, Added: []*html.Node{child}})
}

// Remove detaches n from its parent.
func (m *Mutator) Remove(n *html.Node) error {
	if n.Parent == nil {
		return ErrDetached
	}
	m.detach(n)
	return nil
}

// Replace puts repl where old is and detaches old.
func (m *Mutator) Replace(old, repl *html.Node) error {
	parent := old.Parent
	if parent == nil {
		return ErrDetached
	}
	m.detach(repl)
	parent.InsertBefore(repl, old)
	parent.RemoveChild(old)
	m.record(MutationRecord{
		Type:    MutationChildList,
		Target:  parent,
		Added:   []*html.Node{repl},
		Removed: []*html.Node{old},
	})
	return nil
}

// Unwrap replaces n with its children.
func (m *Mutator) Unwrap(n *html.Node) ([]*html.Node, error) {
	parent := n.Parent
	if parent == nil {
		return nil, ErrDetached
	}
	var moved []*html.Node
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		parent.InsertBefore(c, n)
		moved = append(moved, c)
		c = next
	}
	parent.RemoveChild(n)
	m.record(MutationRecord{Type: MutationChildList, Target: parent, Added: moved, Removed: []*html.Node{n}})
	return moved, nil
}

// SetAttr sets an attribute on an element.
func (m *Mutator) SetAttr(n *html.Node, key, value string) {
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == key {
			if n.Attr[i].Val == value {
				return
			}
			n.Attr[i].Val = value
			m.record(MutationRecord{Type: MutationAttributes, Target: n, AttrName: key})
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: value})
	m.record(MutationRecord{Type: MutationAttributes, Target: n, AttrName: key})
}

// RemoveAttr removes an attribute from an element.
func (m *Mutator) RemoveAttr(n *html.Node, key string) {
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			m.record(MutationRecord{Type: MutationAttributes, Target: n, AttrName: key})
			return
		}
	}
}

// SetData changes the data of a text or comment node.
func (m *Mutator) SetData(n *html.Node, data string) {
	if n.Data == data {
		return
	}
	n.Data = data
	m.record(MutationRecord{Type: MutationCharacterData, Target: n})
}

func (m *Mutator) detach(n *html.Node) {
	if p := n.Parent; p != nil {
		p.RemoveChild(n)
		m.record(MutationRecord{Type: MutationChildList, Target: p, Removed: []*html.Node{n}})
	}
}

func (m *Mutator) record(r MutationRecord) {
	m.records = append(m.records, r)
}
