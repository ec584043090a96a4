package render

import (
	"strings"

	"github.com/vango-dev/spanrender/pkg/html"
)

// PageData contains all data needed to render a complete HTML page.
type PageData struct {
	// Body is the page content. It may contain async values, so pages
	// stream like any other template.
	Body any

	// Head is extra content appended to the head element.
	Head any

	// Title is the page title
	Title string

	// Meta contains meta tags for the page
	Meta []MetaTag

	// Links contains link tags (stylesheets, favicon, etc.)
	Links []LinkTag

	// Scripts contains script tags to include. Deferred and async scripts
	// go in the head, the rest at the end of the body.
	Scripts []ScriptTag

	// Styles contains inline CSS styles
	Styles []string

	// StyleSheets contains paths to external stylesheets
	StyleSheets []string

	// Lang is the language attribute for the html element
	// Defaults to "en" if not specified
	Lang string
}

// MetaTag represents a meta element in the document head.
type MetaTag struct {
	Name      string // name attribute
	Content   string // content attribute
	Property  string // property attribute (for OpenGraph)
	HTTPEquiv string // http-equiv attribute
	Charset   string // charset attribute
}

// LinkTag represents a link element in the document head.
type LinkTag struct {
	Rel         string // rel attribute
	Href        string // href attribute
	Type        string // type attribute
	Sizes       string // sizes attribute
	CrossOrigin string // crossorigin attribute
	Media       string // media attribute
}

// ScriptTag represents a script element.
type ScriptTag struct {
	Src    string // src attribute
	Type   string // type attribute
	Defer  bool   // defer attribute
	Async  bool   // async attribute
	Module bool   // type="module"
	Inline string // inline script content
}

// Page returns the complete HTML document for page as a template. It
// fails if Head or Body cannot be interpolated.
func Page(page PageData) (*html.Template, error) {
	lang := page.Lang
	if lang == "" {
		lang = "en"
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n")
	b.WriteString(`<html lang="` + html.EscapeString(lang) + `">` + "\n")
	writeHead(&b, page)
	head := b.String()

	b.Reset()
	b.WriteString("</head>\n<body>\n")
	mid := b.String()

	b.Reset()
	b.WriteString("\n")
	for _, script := range page.Scripts {
		if !script.Defer && !script.Async {
			writeScriptTag(&b, script)
		}
	}
	b.WriteString("</body>\n</html>\n")

	return html.New([]string{head, mid, b.String()}, page.Head, page.Body)
}

func writeHead(b *strings.Builder, page PageData) {
	b.WriteString("<head>\n")
	b.WriteString(`  <meta charset="utf-8">` + "\n")
	b.WriteString(`  <meta name="viewport" content="width=device-width, initial-scale=1">` + "\n")

	if page.Title != "" {
		b.WriteString("  <title>" + html.EscapeString(page.Title) + "</title>\n")
	}

	for _, meta := range page.Meta {
		b.WriteString("  <meta")
		writeAttr(b, "charset", meta.Charset)
		writeAttr(b, "name", meta.Name)
		writeAttr(b, "property", meta.Property)
		writeAttr(b, "http-equiv", meta.HTTPEquiv)
		writeAttr(b, "content", meta.Content)
		b.WriteString(">\n")
	}

	for _, link := range page.Links {
		b.WriteString("  <link")
		writeAttr(b, "rel", link.Rel)
		writeAttr(b, "href", link.Href)
		writeAttr(b, "type", link.Type)
		writeAttr(b, "sizes", link.Sizes)
		writeAttr(b, "crossorigin", link.CrossOrigin)
		writeAttr(b, "media", link.Media)
		b.WriteString(">\n")
	}

	for _, href := range page.StyleSheets {
		b.WriteString(`  <link rel="stylesheet" href="` + html.EscapeString(href) + `">` + "\n")
	}

	for _, style := range page.Styles {
		b.WriteString("  <style>" + style + "</style>\n")
	}

	for _, script := range page.Scripts {
		if script.Defer || script.Async {
			writeScriptTag(b, script)
		}
	}
}

func writeScriptTag(b *strings.Builder, script ScriptTag) {
	b.WriteString("  <script")
	writeAttr(b, "src", script.Src)
	if script.Module {
		b.WriteString(` type="module"`)
	} else {
		writeAttr(b, "type", script.Type)
	}
	if script.Defer {
		b.WriteString(" defer")
	}
	if script.Async {
		b.WriteString(" async")
	}
	b.WriteString(">")
	b.WriteString(script.Inline)
	b.WriteString("</script>\n")
}

func writeAttr(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	b.WriteString(" " + name + `="` + html.EscapeString(value) + `"`)
}
