package dom

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func fragment(t *testing.T, markup string) *html.Node {
	t.Helper()
	nodes, err := html.ParseFragment(strings.NewReader(markup), &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
	if err != nil {
		t.Fatalf("ParseFragment() error = %v", err)
	}
	wrap := &html.Node{Type: html.ElementNode, Data: "div"}
	for _, n := range nodes {
		wrap.AppendChild(n)
	}
	return wrap
}

func TestMorphChildren(t *testing.T) {
	tests := []struct {
		name   string
		target string
		source string
	}{
		{"insert into empty", ``, `<p>a</p><p>b</p>`},
		{"remove all", `<p>a</p>`, ``},
		{"update text", `<p>a</p>`, `<p>b</p>`},
		{"replace tag", `<p>a</p>`, `<span>a</span>`},
		{"sync attributes", `<p class="x" title="t">a</p>`, `<p class="y" lang="en">a</p>`},
		{"reorder by id", `<li id="1">1</li><li id="2">2</li>`, `<li id="2">2</li><li id="1">1</li>`},
		{"nested", `<div><ul><li>a</li></ul></div>`, `<div><ul><li>a</li><li>b</li></ul><p>c</p></div>`},
		{"text and comments", `x<!--c-->`, `y<!--d-->z`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := mustParse(t, `<body><div id="root">`+tt.target+`</div></body>`)
			src := fragment(t, tt.source)
			want := InnerHTML(src)

			_ = d.Mutate(func(m *Mutator) error {
				MorphChildren(m, m.GetElementByID("root"), src)
				return nil
			})

			if got := InnerHTML(d.GetElementByID("root")); got != want {
				t.Errorf("InnerHTML = %s, want %s", got, want)
			}
		})
	}
}

func TestMorphPreservesIdentity(t *testing.T) {
	d := mustParse(t, `<body><div id="root"><input id="name" value="a"><p>old</p></div></body>`)
	input := d.GetElementByID("name")
	var para *html.Node
	d.View(func(tr Tree) { para = tr.QueryAll(tr.Root(), Tag("p"))[0] })

	src := fragment(t, `<label>Name</label><input id="name" value="b"><p>new</p>`)

	var patches []Patch
	_ = d.Mutate(func(m *Mutator) error {
		patches = MorphChildren(m, m.GetElementByID("root"), src)
		return nil
	})

	if d.GetElementByID("name") != input {
		t.Error("input with a matching id was recreated")
	}
	if v, _ := Attr(input, "value"); v != "b" {
		t.Errorf("input value = %q, want b", v)
	}
	if para.Parent == nil || TextContent(para) != "new" {
		t.Error("paragraph was not morphed in place")
	}

	ops := map[PatchOp]int{}
	for _, p := range patches {
		ops[p.Op]++
	}
	if ops[PatchInsertNode] != 1 {
		t.Errorf("InsertNode patches = %d, want 1", ops[PatchInsertNode])
	}
	if ops[PatchSetAttr] != 1 {
		t.Errorf("SetAttr patches = %d, want 1", ops[PatchSetAttr])
	}
	if ops[PatchSetText] != 1 {
		t.Errorf("SetText patches = %d, want 1", ops[PatchSetText])
	}
	if ops[PatchRemoveNode] != 0 {
		t.Errorf("RemoveNode patches = %d, want 0", ops[PatchRemoveNode])
	}
}

func TestMorphReplacesIncompatibleRoot(t *testing.T) {
	d := mustParse(t, `<body><p id="x">a</p></body>`)
	src := fragment(t, `<section>b</section>`).FirstChild

	var patches []Patch
	_ = d.Mutate(func(m *Mutator) error {
		patches = Morph(m, m.GetElementByID("x"), src)
		return nil
	})

	if len(patches) != 1 || patches[0].Op != PatchReplaceNode {
		t.Fatalf("patches = %v, want one ReplaceNode", patches)
	}
	if !strings.Contains(d.String(), "<body><section>b</section></body>") {
		t.Errorf("document = %s", d.String())
	}
}

func TestMorphIdenticalIsNoop(t *testing.T) {
	d := mustParse(t, `<body><div id="root"><p class="a">x</p></div></body>`)
	src := fragment(t, `<p class="a">x</p>`)

	var calls int
	d.Subscribe(func([]MutationRecord) { calls++ })

	var patches []Patch
	_ = d.Mutate(func(m *Mutator) error {
		patches = MorphChildren(m, m.GetElementByID("root"), src)
		return nil
	})
	if len(patches) != 0 {
		t.Errorf("patches = %v, want none", patches)
	}
	if calls != 0 {
		t.Errorf("subscriber called %d times for a no-op morph", calls)
	}
}

func TestPatchOpString(t *testing.T) {
	if PatchReplaceNode.String() != "ReplaceNode" {
		t.Errorf("String() = %q", PatchReplaceNode.String())
	}
	if PatchOp(0xFF).String() != "Unknown" {
		t.Errorf("String() = %q", PatchOp(0xFF).String())
	}
}
