package demo

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vango-dev/spanrender/pkg/dom"
	"github.com/vango-dev/spanrender/pkg/html"
	"github.com/vango-dev/spanrender/pkg/reconcile"
	"github.com/vango-dev/spanrender/pkg/render"
	"github.com/vango-dev/spanrender/pkg/server"
	xhtml "golang.org/x/net/html"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newServer(delay time.Duration) *server.Server {
	cfg := server.DefaultServerConfig()
	cfg.Logger = quiet
	s := server.New(cfg)
	New(delay).Register(s)
	return s
}

func get(s *server.Server, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func bodyHTML(d *dom.Document) string {
	var b strings.Builder
	d.View(func(t dom.Tree) {
		_ = xhtml.Render(&b, t.Body())
	})
	return b.String()
}

func TestDashboardStreamsOutOfOrder(t *testing.T) {
	s := newServer(20 * time.Millisecond)
	rec := get(s, "/dashboard")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "chunked", rec.Header().Get("Transfer-Encoding"))

	body := rec.Body.String()
	orders := strings.Index(body, "1,284")
	revenue := strings.Index(body, "$48,200")
	visitors := strings.Index(body, "31,902")
	require.True(t, orders > 0 && revenue > 0 && visitors > 0, body)
	assert.Less(t, revenue, visitors)
	assert.Less(t, visitors, orders)

	// Placeholders keep the declared order.
	assert.Less(t, strings.Index(body, "<h2>Orders</h2><p>Loading…"), strings.Index(body, "<h2>Revenue</h2><p>Loading…"))
}

func TestDashboardBuffered(t *testing.T) {
	s := newServer(0)
	rec := get(s, "/dashboard?__nostream")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.NotContains(t, body, "data-hs-slot")
	assert.NotContains(t, body, "Loading…")
	assert.Less(t, strings.Index(body, "1,284"), strings.Index(body, "$48,200"))
}

func TestFailingSlotIsContained(t *testing.T) {
	s := newServer(0)

	rec := get(s, "/failing")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), render.DefaultErrorFragment("async1", nil))
	assert.Contains(t, rec.Body.String(), "4.8 / 5")

	rec = get(s, "/failing?__nostream")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestNestedReconcilesToBufferedPage(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	app := New(5 * time.Millisecond)

	template := func() *html.Template {
		v, err := app.nested(nil)
		require.NoError(t, err)
		return v.(*html.Template)
	}

	buffered, err := render.RenderAsync(ctx, template())
	require.NoError(t, err)
	want, err := dom.ParseString(buffered)
	require.NoError(t, err)

	l := reconcile.NewLoader(reconcile.WithLogger(quiet))
	defer l.Close()
	require.NoError(t, l.ReadFrom(ctx, render.RenderStream(ctx, template())))

	assert.Equal(t, bodyHTML(want), bodyHTML(l.Document()))
	assert.Contains(t, bodyHTML(l.Document()), "Starred spanrender")
}

func TestPosts(t *testing.T) {
	s := newServer(0)

	rec := get(s, "/posts/streaming")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<strong>immediately</strong>")
	assert.Contains(t, rec.Body.String(), "<title>How streaming works · spanrender</title>")

	rec = get(s, "/posts/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "No such post")
}

func TestIndexAndPaths(t *testing.T) {
	s := newServer(0)
	app := New(0)

	for _, p := range app.Paths() {
		rec := get(s, p+"?__nostream")
		assert.Equal(t, http.StatusOK, rec.Code, p)
	}
	rec := get(s, "/")
	assert.Contains(t, rec.Body.String(), `<a href="/posts/streaming">How streaming works</a>`)
}

func TestWaitHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, New(time.Hour).wait(ctx, 1), context.Canceled)
	assert.NoError(t, New(0).wait(ctx, 1))
}
