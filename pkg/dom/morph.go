package dom

import (
	"golang.org/x/net/html"
)

// PatchOp is the type of patch operation.
type PatchOp uint8

const (
	PatchSetText     PatchOp = 0x01 // Update text or comment data
	PatchSetAttr     PatchOp = 0x02 // Set/update attribute
	PatchRemoveAttr  PatchOp = 0x03 // Remove attribute
	PatchInsertNode  PatchOp = 0x04 // Insert new node
	PatchRemoveNode  PatchOp = 0x05 // Remove node
	PatchReplaceNode PatchOp = 0x07 // Replace node entirely
)

// String returns the string representation of the PatchOp.
func (op PatchOp) String() string {
	switch op {
	case PatchSetText:
		return "SetText"
	case PatchSetAttr:
		return "SetAttr"
	case PatchRemoveAttr:
		return "RemoveAttr"
	case PatchInsertNode:
		return "InsertNode"
	case PatchRemoveNode:
		return "RemoveNode"
	case PatchReplaceNode:
		return "ReplaceNode"
	default:
		return "Unknown"
	}
}

// Patch records one change made by a morph.
type Patch struct {
	Op     PatchOp    // Operation type
	Target *html.Node // Node changed, or the parent for InsertNode
	Key    string     // Attribute key (for SetAttr/RemoveAttr)
	Value  string     // New value
	Node   *html.Node // Node inserted or replacing Target
}

// Morph makes target look like source while keeping target's nodes
// wherever they can be matched, so state attached to them survives. Nodes
// are matched by id first and otherwise by position, node type and tag.
// Unmatched source nodes are moved into the document, so source should be
// a detached copy. If target itself cannot be matched with source it is
// replaced.
func Morph(m *Mutator, target, source *html.Node) []Patch {
	var patches []Patch
	if !compatible(target, source) {
		if err := m.Replace(target, source); err == nil {
			patches = append(patches, Patch{Op: PatchReplaceNode, Target: target, Node: source})
		}
		return patches
	}
	morphNode(m, target, source, &patches)
	return patches
}

// MorphChildren morphs the children of target into the children of source.
// target itself and its attributes are left alone.
func MorphChildren(m *Mutator, target, source *html.Node) []Patch {
	var patches []Patch
	morphChildren(m, target, source, &patches)
	return patches
}

func morphNode(m *Mutator, target, source *html.Node, patches *[]Patch) {
	switch target.Type {
	case html.TextNode, html.CommentNode:
		if target.Data != source.Data {
			m.SetData(target, source.Data)
			*patches = append(*patches, Patch{Op: PatchSetText, Target: target, Value: source.Data})
		}
	case html.ElementNode:
		morphAttrs(m, target, source, patches)
		morphChildren(m, target, source, patches)
	}
}

func morphAttrs(m *Mutator, target, source *html.Node, patches *[]Patch) {
	for _, a := range source.Attr {
		if a.Namespace != "" {
			continue
		}
		if v, ok := Attr(target, a.Key); !ok || v != a.Val {
			m.SetAttr(target, a.Key, a.Val)
			*patches = append(*patches, Patch{Op: PatchSetAttr, Target: target, Key: a.Key, Value: a.Val})
		}
	}

	var removed []string
	for _, a := range target.Attr {
		if a.Namespace != "" {
			continue
		}
		if _, ok := Attr(source, a.Key); !ok {
			removed = append(removed, a.Key)
		}
	}
	for _, key := range removed {
		m.RemoveAttr(target, key)
		*patches = append(*patches, Patch{Op: PatchRemoveAttr, Target: target, Key: key})
	}
}

func morphChildren(m *Mutator, target, source *html.Node, patches *[]Patch) {
	cursor := target.FirstChild
	for s := source.FirstChild; s != nil; {
		next := s.NextSibling

		if match := findMatch(cursor, s); match != nil {
			for cursor != match {
				stale := cursor
				cursor = cursor.NextSibling
				removeNode(m, stale, patches)
			}
			morphNode(m, match, s, patches)
			cursor = match.NextSibling
		} else {
			m.InsertBefore(target, s, cursor)
			*patches = append(*patches, Patch{Op: PatchInsertNode, Target: target, Node: s})
		}

		s = next
	}

	for cursor != nil {
		stale := cursor
		cursor = cursor.NextSibling
		removeNode(m, stale, patches)
	}
}

// findMatch looks for the node in cursor and its following siblings that
// source should morph into. An element with an id matches the sibling
// with the same id; anything else only matches the node at the cursor.
func findMatch(cursor, source *html.Node) *html.Node {
	if cursor == nil {
		return nil
	}
	if id, ok := Attr(source, "id"); ok && id != "" {
		for n := cursor; n != nil; n = n.NextSibling {
			if v, ok := Attr(n, "id"); ok && v == id && compatible(n, source) {
				return n
			}
		}
		return nil
	}
	if compatible(cursor, source) {
		if id, ok := Attr(cursor, "id"); ok && id != "" {
			return nil
		}
		return cursor
	}
	return nil
}

func compatible(a, b *html.Node) bool {
	if a.Type != b.Type {
		return false
	}
	if a.Type != html.ElementNode {
		return true
	}
	return a.DataAtom == b.DataAtom && a.Data == b.Data && a.Namespace == b.Namespace
}

func removeNode(m *Mutator, n *html.Node, patches *[]Patch) {
	if err := m.Remove(n); err == nil {
		*patches = append(*patches, Patch{Op: PatchRemoveNode, Target: n})
	}
}
