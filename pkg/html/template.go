package html

import (
	"fmt"
	"strings"
)

// RawHTML is markup trusted by the caller. It is emitted without escaping.
type RawHTML string

// Raw marks s as trusted markup.
//
// Only use Raw for markup produced by the application itself; user input
// passed through Raw is an XSS hole.
func Raw(s string) RawHTML {
	return RawHTML(s)
}

// Trust is the dynamic form of Raw. It accepts strings, RawHTML and byte
// slices and rejects any other value with a *CompositionError, so that
// numbers or structs are never trusted by accident.
func Trust(v any) (RawHTML, error) {
	switch x := v.(type) {
	case string:
		return RawHTML(x), nil
	case RawHTML:
		return x, nil
	case []byte:
		return RawHTML(x), nil
	default:
		return "", locate(compositionError("E102", "raw markup must be a string", v), 0)
	}
}

// Template is an immutable sequence of literal markup and interpolated
// values. len(literals) is always len(values)+1.
type Template struct {
	literals []string
	values   []any
}

// New builds a template from literal fragments and the values between
// them. It fails with a *CompositionError when the fragment count is not
// one more than the value count, or when a value cannot be rendered.
func New(literals []string, values ...any) (*Template, error) {
	t, err := build(literals, values)
	return t, locate(err, 0)
}

// Parse builds a template from a format string in which each %v marks one
// interpolated value and %% stands for a literal percent sign.
func Parse(format string, values ...any) (*Template, error) {
	t, err := build(splitFormat(format), values)
	return t, locate(err, 0)
}

// HTML is like Parse but panics with the *CompositionError if the
// template is malformed. It is meant for templates written in source
// code, where a mismatch is a programming error.
func HTML(format string, values ...any) *Template {
	t, err := build(splitFormat(format), values)
	if err != nil {
		panic(locate(err, 0))
	}
	return t
}

// Join renders items one after another with sep between them.
// sep is interpolated like any other value.
func Join(items []any, sep any) *Template {
	literals := make([]string, 0, 2*len(items)+1)
	values := make([]any, 0, 2*len(items))
	literals = append(literals, "")
	for i, item := range items {
		if i > 0 {
			values = append(values, sep)
			literals = append(literals, "")
		}
		values = append(values, item)
		literals = append(literals, "")
	}
	t, err := build(literals, values)
	if err != nil {
		panic(locate(err, 0))
	}
	return t
}

func build(literals []string, values []any) (*Template, error) {
	if len(literals) != len(values)+1 {
		return nil, compositionError("E101",
			fmt.Sprintf("%d literal fragments for %d values", len(literals), len(values)), nil)
	}

	t := &Template{
		literals: make([]string, len(literals)),
		values:   make([]any, len(values)),
	}
	copy(t.literals, literals)
	for i, v := range values {
		nv, err := normalize(v)
		if err != nil {
			return nil, err
		}
		t.values[i] = nv
	}
	return t, nil
}

// splitFormat cuts a format string at every %v. %% becomes %, and any
// other % is kept as written so CSS like width:100% needs no escaping.
func splitFormat(format string) []string {
	var (
		literals []string
		b        strings.Builder
	)
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c == '%' && i+1 < len(format) {
			switch format[i+1] {
			case 'v':
				literals = append(literals, b.String())
				b.Reset()
				i++
				continue
			case '%':
				b.WriteByte('%')
				i++
				continue
			}
		}
		b.WriteByte(c)
	}
	return append(literals, b.String())
}

// IsTemplate reports whether v is a non-nil *Template. The HTTP layer
// uses it to tell templates apart from plain strings and responses.
func IsTemplate(v any) bool {
	t, ok := v.(*Template)
	return ok && t != nil
}

// HasAsync reports whether the template contains at least one async
// value anywhere in its tree. Content inside async values that have not
// settled yet is not inspected.
func (t *Template) HasAsync() bool {
	if t == nil {
		return false
	}
	for _, v := range t.values {
		if hasAsync(v) {
			return true
		}
	}
	return false
}

func hasAsync(v any) bool {
	switch x := v.(type) {
	case *Async:
		return true
	case *Template:
		return x.HasAsync()
	case []any:
		for _, item := range x {
			if hasAsync(item) {
				return true
			}
		}
	}
	return false
}

// Walk visits the template in document order. See Visitor.
func (t *Template) Walk(v Visitor) error {
	if t == nil {
		return nil
	}
	for i, lit := range t.literals {
		if lit != "" {
			if err := v.Markup(lit); err != nil {
				return err
			}
		}
		if i < len(t.values) {
			if err := walk(t.values[i], v); err != nil {
				return err
			}
		}
	}
	return nil
}

// String renders a template that has no async values. Templates with
// pending async values render their placeholders as empty strings; use
// package render for anything else.
func (t *Template) String() string {
	var b strings.Builder
	_ = t.Walk(stringVisitor{&b})
	return b.String()
}

type stringVisitor struct{ b *strings.Builder }

func (s stringVisitor) Markup(m string) error {
	s.b.WriteString(m)
	return nil
}

func (s stringVisitor) Async(a *Async) error {
	if !a.Done() {
		return nil
	}
	if v, err := a.Result(); err == nil {
		return walk(v, s)
	}
	return nil
}
