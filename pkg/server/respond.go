package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/sourcegraph/conc/panics"
	"github.com/vango-dev/spanrender/pkg/html"
	"github.com/vango-dev/spanrender/pkg/render"
)

const contentTypeHTML = "text/html; charset=UTF-8"

// call runs h, turning a panic into a *PanicError.
func (s *Server) call(h Handler, r *http.Request) (result any, err error) {
	var pc panics.Catcher
	pc.Try(func() { result, err = h(r) })
	if rec := pc.Recovered(); rec != nil {
		s.logger.Error("handler panicked",
			"path", r.URL.Path,
			"panic", rec.Value,
			"stack", string(rec.Stack))
		return nil, &PanicError{Value: rec.Value, Stack: rec.Stack}
	}
	return result, err
}

// respond writes the result of a handler.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, result any, err error, head bool) {
	if err != nil {
		s.writeError(w, r, err, head)
		return
	}

	switch v := result.(type) {
	case nil:
		w.WriteHeader(http.StatusNoContent)
	case *html.Template:
		s.writeTemplate(w, r, v, head)
	case html.RawHTML:
		s.writeHTML(w, string(v), head)
	case string:
		s.writeHTML(w, v, head)
	case http.Handler:
		v.ServeHTTP(w, r)
	default:
		s.writeError(w, r, fmt.Errorf("%w: %T", ErrUnsupportedResult, result), head)
	}
}

// writeTemplate renders t as a stream when Streams allows it and buffered
// otherwise. HEAD requests are always rendered buffered so the status and
// length are right.
func (s *Server) writeTemplate(w http.ResponseWriter, r *http.Request, t *html.Template, head bool) {
	if !head && s.Streams(r, t) {
		s.writeStream(w, r, t)
		return
	}

	out, err := render.RenderAsync(r.Context(), t, s.renderOptions()...)
	if err != nil {
		s.writeError(w, r, err, head)
		return
	}
	s.writeHTML(w, out, head)
}

func (s *Server) writeHTML(w http.ResponseWriter, body string, head bool) {
	h := w.Header()
	h.Set("Content-Type", contentTypeHTML)
	h.Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if !head {
		_, _ = io.WriteString(w, body)
	}
}

// writeStream sends t chunk by chunk. The status is committed before the
// first chunk, so failed slots become inline error fragments and a failed
// write only ends the response.
func (s *Server) writeStream(w http.ResponseWriter, r *http.Request, t *html.Template) {
	h := w.Header()
	h.Set("Content-Type", contentTypeHTML)
	h.Set("Transfer-Encoding", "chunked")
	h.Set("Content-Encoding", "Identity")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	stream := render.RenderStream(r.Context(), t, s.renderOptions()...)
	err := render.WriteStream(r.Context(), w, stream)

	var we *render.WriteError
	switch {
	case err == nil:
	case errors.As(err, &we), errors.Is(err, context.Canceled):
		s.logger.Info("stream ended early", "path", r.URL.Path, "error", err)
	default:
		s.logger.Error("stream failed", "path", r.URL.Path, "error", err)
	}
}

// renderOptions returns the render options shared by every response.
func (s *Server) renderOptions() []render.Option {
	opts := []render.Option{
		render.WithMaxConcurrency(s.config.MaxConcurrency),
		render.WithSlotPrefix(s.config.SlotPrefix),
		render.WithClientScript(s.clientScript),
		render.WithLogger(s.base.With("component", "render")),
		render.WithMetrics(s.renderMetrics),
	}
	if s.config.DebugMode {
		opts = append(opts, render.WithErrorFragment(debugErrorFragment))
	}
	return opts
}
