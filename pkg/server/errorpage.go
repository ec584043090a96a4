package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/vango-dev/spanrender/internal/errors"
	"github.com/vango-dev/spanrender/pkg/html"
)

// RequestTypeHeader marks requests for a fragment rather than a page.
// Partial requests get a bare error section instead of a full page.
const RequestTypeHeader = "X-Request-Type"

func isPartial(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get(RequestTypeHeader), "partial")
}

// writeError answers err with the error page. Client errors are logged at
// Info, everything else at Error.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, head bool) {
	status := StatusOf(err)
	if status >= 500 {
		s.logger.Error("request failed", "path", r.URL.Path, "status", status, "error", err)
	} else {
		s.logger.Info("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}

	body := ErrorPage(status, err, isPartial(r), s.config.DebugMode)
	h := w.Header()
	h.Set("Content-Type", contentTypeHTML)
	h.Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	if !head {
		_, _ = io.WriteString(w, body)
	}
}

// ErrorPage renders the error page for status. A partial page is the bare
// section; otherwise it is a complete document titled "Application
// Error". Details of err are only included when debug is set.
func ErrorPage(status int, err error, partial, debug bool) string {
	var b strings.Builder
	if !partial {
		b.WriteString(`<!DOCTYPE html><html><head><meta charset="utf-8"><title>Application Error</title></head><body>`)
	}

	b.WriteString(`<section data-hs-error-page="`)
	b.WriteString(strconv.Itoa(status))
	b.WriteString(`"><h1>Error</h1><p>`)
	b.WriteString(html.EscapeString(messageOf(err, status)))
	b.WriteString(`</p>`)
	if debug && err != nil {
		b.WriteString(`<pre>`)
		b.WriteString(html.EscapeString(describe(err)))
		b.WriteString(`</pre>`)
	}
	b.WriteString(`</section>`)

	if !partial {
		b.WriteString(`</body></html>`)
	}
	return b.String()
}

// describe formats err for debug output. Panics include their stack.
func describe(err error) string {
	if err == nil {
		return ""
	}
	out := apperrors.Describe(err).FormatCompact()
	var pe *PanicError
	if errors.As(err, &pe) && len(pe.Stack) > 0 {
		out += "\n\n" + string(pe.Stack)
	}
	return out
}

// debugErrorFragment is the failed slot markup in debug mode.
func debugErrorFragment(slot string, err error) string {
	return `<div data-hs-error="` + html.EscapeString(slot) + `" role="alert">Failed to load content.<pre>` +
		html.EscapeString(describe(err)) + `</pre></div>`
}
