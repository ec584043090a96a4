package html

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tmpl1 = HTML("<div>Template 1</div>")
	tmpl2 = HTML("<div>Template 2</div>")
	tmpl3 = HTML("<div>Template 3</div>")
)

func TestNestedTemplates(t *testing.T) {
	out := HTML("<div>%v %v</div>", tmpl1, tmpl2).String()

	assert.Contains(t, out, "Template 1")
	assert.Contains(t, out, "Template 2")
	assert.NotContains(t, out, "&lt;")
}

func TestEscapesInterpolatedStrings(t *testing.T) {
	out := HTML("<div>%v %v</div>", tmpl3, "<span>HTML content</span>").String()

	assert.Contains(t, out, "&lt;")
	assert.Contains(t, out, "&gt;")
	assert.NotContains(t, out, "<span>")
}

func TestRawIsNotEscaped(t *testing.T) {
	out := HTML("<div>%v %v</div>", tmpl3, Raw("<span>HTML content</span>")).String()

	assert.NotContains(t, out, "&lt;")
	assert.Contains(t, out, "<span>")
}

func TestEscapingRules(t *testing.T) {
	assert.Equal(t, "&lt;b&gt;", HTML("%v", "<b>").String())
	assert.Equal(t, "<b>", HTML("%v", Raw("<b>")).String())
	assert.Equal(t, "<p><i>ok</i> &lt;script&gt;</p>",
		HTML("<p>%v %v</p>", Raw("<i>ok</i>"), "<script>").String())
}

func TestSequenceFlattening(t *testing.T) {
	var items []*Template
	for _, x := range []string{"a", "b"} {
		items = append(items, HTML("<li>%v</li>", x))
	}

	assert.Equal(t, "<ul><li>a</li><li>b</li></ul>", HTML("<ul>%v</ul>", items).String())

	nested := []any{"x", []any{Raw("<br>"), []string{"<", ">"}}, nil, 3}
	assert.Equal(t, "x<br>&lt;&gt;3", HTML("%v", nested).String())
}

func TestPrimitives(t *testing.T) {
	var nilPtr *string
	s := "ptr"
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"nil", nil, ""},
		{"nil pointer", nilPtr, ""},
		{"pointer", &s, "ptr"},
		{"int", 42, "42"},
		{"negative int64", int64(-7), "-7"},
		{"uint8", uint8(200), "200"},
		{"float", 1.5, "1.5"},
		{"large float", 1e6, "1000000"},
		{"bool", true, "true"},
		{"bytes", []byte("a&b"), "a&amp;b"},
		{"error", errors.New("<oops>"), "&lt;oops&gt;"},
		{"named string", namedString("it's"), "it&#39;s"},
		{"nil template", (*Template)(nil), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, "["+tt.want+"]", HTML("[%v]", tt.value).String())
		})
	}
}

type namedString string

func TestFormatPercent(t *testing.T) {
	out := HTML(`<div style="width:100%">%%v %v</div>`, "x").String()
	assert.Equal(t, `<div style="width:100%">%v x</div>`, out)
}

func TestNewArity(t *testing.T) {
	tpl, err := New([]string{"<p>", "</p>"}, "hi")
	require.NoError(t, err)
	assert.Equal(t, "<p>hi</p>", tpl.String())

	_, err = New([]string{"<p>"}, "hi")
	var ce *CompositionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "E101", ce.Code())

	file, line := ce.Location()
	assert.True(t, strings.HasSuffix(file, "template_test.go"), file)
	assert.Positive(t, line)
}

func TestParseRejectsUnsupportedValues(t *testing.T) {
	for _, v := range []any{map[string]int{}, struct{}{}, func() {}, make(chan int), []any{1, map[int]int{}}} {
		_, err := Parse("%v", v)
		var ce *CompositionError
		require.ErrorAs(t, err, &ce, "%T", v)
		assert.Equal(t, "E103", ce.Code())
	}
}

func TestHTMLPanicsOnArity(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
		ce, ok := r.(*CompositionError)
		require.True(t, ok, "panic value %T", r)
		assert.Equal(t, "E101", ce.Code())
	}()
	HTML("%v %v", "only one")
}

func TestTrust(t *testing.T) {
	r, err := Trust("<b>")
	require.NoError(t, err)
	assert.Equal(t, RawHTML("<b>"), r)

	_, err = Trust(12)
	var ce *CompositionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "E102", ce.Code())
}

func TestTemplateIsImmutable(t *testing.T) {
	items := []string{"a", "b"}
	literals := []string{"<p>", "</p>"}
	tpl, err := New(literals, items)
	require.NoError(t, err)

	items[0] = "changed"
	literals[0] = "<div>"

	assert.Equal(t, "<p>ab</p>", tpl.String())
}

func TestIsTemplate(t *testing.T) {
	assert.True(t, IsTemplate(tmpl1))
	assert.False(t, IsTemplate((*Template)(nil)))
	assert.False(t, IsTemplate("<div>"))
	assert.False(t, IsTemplate(Raw("<div>")))
}

func TestHasAsync(t *testing.T) {
	a := Resolve("x")
	assert.False(t, tmpl1.HasAsync())
	assert.True(t, HTML("%v", a).HasAsync())
	assert.True(t, HTML("%v", []any{"x", HTML("%v", a)}).HasAsync())
	assert.False(t, (*Template)(nil).HasAsync())
}

func TestJoin(t *testing.T) {
	out := Join([]any{"a", HTML("<b>b</b>"), "<c>"}, Raw("<hr>")).String()
	assert.Equal(t, "a<hr><b>b</b><hr>&lt;c&gt;", out)
	assert.Equal(t, "", Join(nil, ",").String())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		value any
		want  Kind
	}{
		{nil, KindEmpty},
		{"s", KindText},
		{7, KindText},
		{Raw("<b>"), KindRaw},
		{tmpl1, KindTemplate},
		{[]string{"a"}, KindSequence},
		{Resolve(1), KindAsync},
		{map[string]string{}, KindInvalid},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.value), "%T", tt.value)
	}
}

type recordingVisitor struct {
	parts []string
}

func (r *recordingVisitor) Markup(s string) error {
	r.parts = append(r.parts, s)
	return nil
}

func (r *recordingVisitor) Async(a *Async) error {
	r.parts = append(r.parts, "<async>")
	return nil
}

func TestWalkOrder(t *testing.T) {
	tpl := HTML("A%vB%vC", Defer(func(context.Context) (any, error) { return nil, nil }), []any{"<", Raw("r")})

	var v recordingVisitor
	require.NoError(t, tpl.Walk(&v))
	assert.Equal(t, []string{"A", "<async>", "B", "&lt;", "r", "C"}, v.parts)
}

func TestWalkStopsOnVisitorError(t *testing.T) {
	boom := errors.New("boom")
	err := HTML("a%vb", "x").Walk(failingVisitor{boom})
	assert.ErrorIs(t, err, boom)
}

type failingVisitor struct{ err error }

func (f failingVisitor) Markup(string) error { return f.err }
func (f failingVisitor) Async(*Async) error { return f.err }

func TestStringRendersSettledAsync(t *testing.T) {
	assert.Equal(t, "<p>done</p>", HTML("<p>%v</p>", Resolve("done")).String())
	assert.Equal(t, "<p></p>", HTML("<p>%v</p>", Reject(errors.New("x"))).String())
}

type failure struct{ msg string }

func (f *failure) Error() string { return f.msg }

func TestTypedNilPointersRenderEmpty(t *testing.T) {
	var (
		u   *url.URL
		ts  *time.Time
		err *failure
		s   *string
	)
	tpl, perr := Parse("<p>%v|%v|%v|%v</p>", u, ts, err, s)
	require.NoError(t, perr)
	assert.Equal(t, "<p>|||</p>", tpl.String())

	tpl, perr = Parse("<ul>%v</ul>", []*url.URL{nil, {Path: "/a"}})
	require.NoError(t, perr)
	assert.Equal(t, "<ul>/a</ul>", tpl.String())
}
