package server

import (
	"net/http"
	"slices"
	"strings"
)

// Handler produces the response for a request. It returns one of:
//
//   - *html.Template: rendered buffered or streamed, see Server.Streams
//   - html.RawHTML or string: written as is
//   - http.Handler: served directly
//   - nil: 204 No Content
//
// A returned error is answered with the error page. Use *HTTPError to
// choose its status.
type Handler func(r *http.Request) (any, error)

// Route holds the handlers of one path pattern, keyed by method.
//
// A HEAD request without its own handler is served by the GET handler
// without a body. An OPTIONS request without its own handler is answered
// as a CORS preflight. Any other method without a handler gets 405.
type Route struct {
	srv      *Server
	pattern  string
	handlers map[string]Handler
}

// Get sets the GET handler.
func (rt *Route) Get(h Handler) *Route { return rt.Method(http.MethodGet, h) }

// Post sets the POST handler.
func (rt *Route) Post(h Handler) *Route { return rt.Method(http.MethodPost, h) }

// Put sets the PUT handler.
func (rt *Route) Put(h Handler) *Route { return rt.Method(http.MethodPut, h) }

// Patch sets the PATCH handler.
func (rt *Route) Patch(h Handler) *Route { return rt.Method(http.MethodPatch, h) }

// Delete sets the DELETE handler.
func (rt *Route) Delete(h Handler) *Route { return rt.Method(http.MethodDelete, h) }

// Method sets the handler for an arbitrary method.
func (rt *Route) Method(method string, h Handler) *Route {
	rt.handlers[strings.ToUpper(method)] = h
	return rt
}

// Pattern returns the route's path pattern.
func (rt *Route) Pattern() string {
	return rt.pattern
}

// lookup returns the handler for method and whether the body must be
// suppressed.
func (rt *Route) lookup(method string) (Handler, bool) {
	if h, ok := rt.handlers[method]; ok {
		return h, false
	}
	if method == http.MethodHead {
		if h, ok := rt.handlers[http.MethodGet]; ok {
			return h, true
		}
	}
	return nil, false
}

// allowed lists the methods the route answers, for Allow headers.
func (rt *Route) allowed() string {
	methods := []string{http.MethodHead, http.MethodOptions}
	for m := range rt.handlers {
		if !slices.Contains(methods, m) {
			methods = append(methods, m)
		}
	}
	slices.Sort(methods)
	return strings.Join(methods, ", ")
}

// ServeHTTP implements http.Handler.
func (rt *Route) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h, head := rt.lookup(r.Method)
	if h == nil {
		if c := captureFrom(r.Context()); c != nil {
			c.set(nil, &HTTPError{Status: http.StatusMethodNotAllowed})
			return
		}
		if r.Method == http.MethodOptions {
			rt.preflight(w)
			return
		}
		w.Header().Set("Allow", rt.allowed())
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result, err := rt.srv.call(h, r)
	if c := captureFrom(r.Context()); c != nil {
		c.set(result, err)
		return
	}
	rt.srv.respond(w, r, result, err, head)
}

func (rt *Route) preflight(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", rt.allowed())
	h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.WriteHeader(http.StatusOK)
}
