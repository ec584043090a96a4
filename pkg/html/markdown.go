package html

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// markdown is shared by all requests; goldmark converters are safe for
// concurrent use.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// Markdown converts CommonMark (with GitHub extensions) to trusted markup.
// Raw HTML embedded in src is omitted, so the result is safe to
// interpolate even when src came from a user.
func Markdown(src string) (RawHTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return RawHTML(buf.String()), nil
}
