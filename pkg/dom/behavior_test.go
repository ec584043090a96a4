package dom

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func TestRegistryActivatesOnce(t *testing.T) {
	d := mustParse(t, `<body><div data-w="1"></div><template><div data-w="2"></div></template></body>`)

	var activated []string
	r := NewRegistry(Behavior{
		Name:  "widget",
		Match: HasAttr("data-w"),
		Activate: func(m *Mutator, n *html.Node) error {
			v, _ := Attr(n, "data-w")
			activated = append(activated, v)
			return nil
		},
	})

	scan := func() {
		t.Helper()
		err := d.Mutate(func(m *Mutator) error { return r.Scan(m, m.Root()) })
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
	}

	scan()
	scan()
	if strings.Join(activated, ",") != "1" {
		t.Fatalf("activated = %v, want [1]", activated)
	}

	_ = d.Mutate(func(m *Mutator) error {
		_, err := m.AppendHTML(m.Body(), `<div data-w="3"></div>`)
		return err
	})
	scan()
	if strings.Join(activated, ",") != "1,3" {
		t.Errorf("activated = %v, want [1 3]", activated)
	}

	var first *html.Node
	d.View(func(tr Tree) { first = tr.QueryAll(tr.Root(), HasAttr("data-w"))[0] })
	if !r.Activated(first, "widget") {
		t.Error("Activated() = false for a scanned element")
	}
}

func TestRegistryActivationMayMutate(t *testing.T) {
	d := mustParse(t, `<body><x-greet></x-greet></body>`)

	r := NewRegistry()
	r.Define("greet", Tag("x-greet"), func(m *Mutator, n *html.Node) error {
		_, err := m.AppendHTML(n, "<b>hi</b>")
		return err
	})

	_ = d.Mutate(func(m *Mutator) error { return r.Scan(m, m.Root()) })
	if !strings.Contains(d.String(), "<x-greet><b>hi</b></x-greet>") {
		t.Errorf("document = %s", d.String())
	}
}

func TestRegistryDefineReplaces(t *testing.T) {
	d := mustParse(t, `<body><p></p></body>`)

	var which string
	r := NewRegistry()
	r.Define("p", Tag("p"), func(*Mutator, *html.Node) error { which = "first"; return nil })
	r.Define("p", Tag("p"), func(*Mutator, *html.Node) error { which = "second"; return nil })

	_ = d.Mutate(func(m *Mutator) error { return r.Scan(m, m.Root()) })
	if which != "second" {
		t.Errorf("ran %q behavior, want second", which)
	}
}

func TestRegistryJoinsErrors(t *testing.T) {
	d := mustParse(t, `<body><p></p><p></p></body>`)
	boom := errors.New("boom")

	r := NewRegistry(Behavior{
		Name:     "fail",
		Match:    Tag("p"),
		Activate: func(*Mutator, *html.Node) error { return boom },
	})

	err := d.Mutate(func(m *Mutator) error { return r.Scan(m, m.Root()) })
	if !errors.Is(err, boom) {
		t.Fatalf("Scan() error = %v, want boom", err)
	}
	if !strings.Contains(err.Error(), "behavior fail") {
		t.Errorf("error %q does not name the behavior", err)
	}
}

func TestRegistryForgetsDetachedElements(t *testing.T) {
	d := mustParse(t, `<body><div data-w="1"></div><div data-w="2"></div></body>`)
	r := NewRegistry(Behavior{
		Name:     "widget",
		Match:    HasAttr("data-w"),
		Activate: func(*Mutator, *html.Node) error { return nil },
	})
	scan := func() {
		t.Helper()
		if err := d.Mutate(func(m *Mutator) error { return r.Scan(m, m.Root()) }); err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
	}

	scan()
	if len(r.active) != 2 {
		t.Fatalf("tracking %d elements, want 2", len(r.active))
	}

	for i := 0; i < 10; i++ {
		err := d.Mutate(func(m *Mutator) error {
			for _, n := range m.QueryAll(m.Body(), HasAttr("data-w")) {
				if v, _ := Attr(n, "data-w"); v != "1" {
					if err := m.Remove(n); err != nil {
						return err
					}
				}
			}
			_, err := m.AppendHTML(m.Body(), `<div data-w="new"></div>`)
			return err
		})
		if err != nil {
			t.Fatalf("Mutate() error = %v", err)
		}
		scan()
	}

	if len(r.active) != 2 {
		t.Errorf("tracking %d elements after churn, want 2", len(r.active))
	}
	var kept *html.Node
	d.View(func(tr Tree) { kept = tr.QueryAll(tr.Root(), HasAttr("data-w"))[0] })
	if !r.Activated(kept, "widget") {
		t.Error("attached element lost its activation")
	}
}
