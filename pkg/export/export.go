package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
	"github.com/vango-dev/spanrender/internal/pagepath"
)

// DefaultConcurrency is how many pages are rendered at once.
const DefaultConcurrency = 4

// UserAgent identifies export requests. Pages are always requested
// buffered, so the reconciler is never needed in exported files.
const UserAgent = "spanrender-export/1"

// Error reports a page that could not be exported.
type Error struct {
	Path   string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("export: %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("export: %s: status %d", e.Path, e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

// Code returns the error registry code.
func (e *Error) Code() string { return "E180" }

// Page is one exported page.
type Page struct {
	Path     string
	Key      string
	Bytes    int
	Duration time.Duration
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithConcurrency sets how many pages are rendered at once.
func WithConcurrency(n int) Option {
	return func(e *Exporter) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Exporter) {
		e.logger = logger
	}
}

// Exporter renders pages of an http.Handler and publishes them as static
// files.
type Exporter struct {
	handler     http.Handler
	publisher   Publisher
	concurrency int
	logger      *slog.Logger
}

// New creates an Exporter rendering pages with h.
func New(h http.Handler, p Publisher, opts ...Option) *Exporter {
	e := &Exporter{
		handler:     h,
		publisher:   p,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default().With("component", "export")
	}
	return e
}

// Export renders and publishes every path. It stops at the first failure
// and returns it as an *Error; pages already published are kept. The
// returned pages are sorted by path.
func (e *Exporter) Export(ctx context.Context, paths []string) ([]Page, error) {
	var (
		mu    sync.Mutex
		pages []Page
	)

	p := pool.New().
		WithMaxGoroutines(e.concurrency).
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError()

	for _, pth := range paths {
		p.Go(func(ctx context.Context) error {
			page, err := e.exportOne(ctx, pth)
			if err != nil {
				return err
			}
			mu.Lock()
			pages = append(pages, page)
			mu.Unlock()
			return nil
		})
	}
	err := p.Wait()

	sort.Slice(pages, func(i, j int) bool { return pages[i].Path < pages[j].Path })
	return pages, err
}

func (e *Exporter) exportOne(ctx context.Context, pth string) (Page, error) {
	start := time.Now()
	key, err := Key(pth)
	if err != nil {
		return Page{}, &Error{Path: pth, Err: err}
	}

	body, status, err := e.render(ctx, pth)
	if err != nil {
		return Page{}, &Error{Path: pth, Err: err}
	}
	if status != http.StatusOK {
		return Page{}, &Error{Path: pth, Status: status}
	}
	if err := e.publisher.Publish(ctx, key, body); err != nil {
		return Page{}, &Error{Path: pth, Err: err}
	}

	page := Page{Path: pth, Key: key, Bytes: len(body), Duration: time.Since(start)}
	e.logger.Info("page exported", "path", pth, "key", key, "bytes", page.Bytes, "duration", page.Duration)
	return page, nil
}

// render requests pth from the handler, forcing a buffered response.
func (e *Exporter) render(ctx context.Context, pth string) ([]byte, int, error) {
	t, err := pagepath.Parse(pth)
	if err != nil {
		return nil, 0, err
	}
	u := t.URL()
	q := u.Query()
	q.Set("__nostream", "1")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, 0, err
	}
	req.RequestURI = u.RequestURI()
	req.Header.Set("User-Agent", UserAgent)

	w := &bufferWriter{header: http.Header{}}
	e.handler.ServeHTTP(w, req)
	return w.body.Bytes(), w.Status(), nil
}

// Key maps a page path to the file it is published as: directories get an
// index.html, paths with an extension keep it.
//
//	/           -> index.html
//	/blog/hello -> blog/hello/index.html
//	/feed.xml   -> feed.xml
func Key(pth string) (string, error) {
	t, err := pagepath.Parse(pth)
	if err != nil {
		return "", fmt.Errorf("path %q: %w", pth, err)
	}
	segs := t.Segments()
	if len(segs) == 0 {
		return "index.html", nil
	}
	key := path.Join(segs...)
	if path.Ext(key) != "" {
		return key, nil
	}
	return key + "/index.html", nil
}

// bufferWriter collects a response in memory.
type bufferWriter struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func (w *bufferWriter) Header() http.Header { return w.header }

func (w *bufferWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
}

func (w *bufferWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.body.Write(p)
}

func (w *bufferWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}
