package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vango-dev/spanrender/internal/pagepath"
)

type captureKey struct{}

// capture receives a handler result instead of the response. Routes see
// it in the request context when the chunk transport resolves a page.
type capture struct {
	result  any
	err     error
	matched bool
}

func (c *capture) set(result any, err error) {
	c.result, c.err, c.matched = result, err, true
}

func captureFrom(ctx context.Context) *capture {
	c, _ := ctx.Value(captureKey{}).(*capture)
	return c
}

// discardWriter swallows whatever a route writes while capturing, such as
// raw http.Handlers registered with Handle.
type discardWriter struct{ header http.Header }

func (d *discardWriter) Header() http.Header {
	if d.header == nil {
		d.header = http.Header{}
	}
	return d.header
}
func (*discardWriter) Write(p []byte) (int, error) { return len(p), nil }
func (*discardWriter) WriteHeader(int)             {}

// resolve runs the GET handler of the page at target and returns its
// result without writing a response. target is a path with an optional
// query, relative to the site root.
func (s *Server) resolve(ctx context.Context, r *http.Request, target string) (any, error) {
	t, err := pagepath.Parse(target)
	if err != nil {
		return nil, &HTTPError{Status: http.StatusBadRequest, Message: "Invalid page path", Err: err}
	}
	u := t.URL()

	c := &capture{}
	// A nil route context makes the page router match from scratch
	// instead of continuing the transport route's match.
	ctx = context.WithValue(ctx, chi.RouteCtxKey, nil)
	ctx = context.WithValue(ctx, captureKey{}, c)

	req := r.Clone(ctx)
	req.Method = http.MethodGet
	req.URL = u
	req.RequestURI = u.RequestURI()
	req.Header.Del("Upgrade")
	req.Header.Del("Connection")

	s.pages.ServeHTTP(&discardWriter{}, req)
	if !c.matched {
		return nil, ErrNotFound
	}
	return c.result, c.err
}
