package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vango-dev/spanrender/pkg/dom"
	"github.com/vango-dev/spanrender/pkg/html"
	"github.com/vango-dev/spanrender/pkg/protocol"
	"github.com/vango-dev/spanrender/pkg/render"
)

// streamPage builds a page whose first slot settles only after the second,
// once release is closed. signal makes the second slot close it.
func streamPage(t *testing.T, release chan struct{}, signal bool) *html.Template {
	t.Helper()
	slow := html.Defer(func(ctx context.Context) (any, error) {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		inner := html.Defer(func(context.Context) (any, error) {
			return html.HTML("<em>%v</em>", "nested & deep"), nil
		})
		return html.HTML("<article>slow %v</article>", inner), nil
	})
	fast := html.Defer(func(context.Context) (any, error) {
		if signal {
			close(release)
		}
		return html.HTML("<aside>%v</aside>", "fast"), nil
	}).WithLoading(html.HTML("<span>loading</span>"))

	page, err := render.Page(render.PageData{
		Title: "Stream",
		Body:  html.HTML("<main><h1>%v</h1>%v<hr>%v</main>", "<Title>", slow, fast),
	})
	require.NoError(t, err)
	return page
}

func TestLoaderMatchesBufferedRender(t *testing.T) {
	ctx := waitCtx(t)

	released := make(chan struct{})
	close(released)
	buffered, err := render.RenderAsync(ctx, streamPage(t, released, false))
	require.NoError(t, err)
	want, err := dom.ParseString(buffered)
	require.NoError(t, err)

	l := NewLoader(WithLogger(quiet))
	defer l.Close()
	s := render.RenderStream(ctx, streamPage(t, make(chan struct{}), true))
	require.NoError(t, l.ReadFrom(ctx, s))

	assert.Equal(t, bodyHTML(want), bodyHTML(l.Document()))
	assert.Empty(t, l.Reconciler().Pending())
}

func TestLoaderStaticPage(t *testing.T) {
	ctx := waitCtx(t)
	l := NewLoader(WithLogger(quiet))
	defer l.Close()

	require.NoError(t, l.ReadFrom(ctx, render.RenderStream(ctx, html.HTML("<p>%v</p>", "static"))))
	assert.Equal(t, "<p>static</p>", bodyHTML(l.Document()))
}

func TestLoaderRenderedErrorFragment(t *testing.T) {
	ctx := waitCtx(t)
	failing := html.Reject(errors.New("database down"))

	l := NewLoader(WithLogger(quiet))
	defer l.Close()

	s := render.RenderStream(ctx, html.HTML("<div>%v</div>", failing), render.WithLogger(quiet))
	require.NoError(t, l.ReadFrom(ctx, s))

	assert.Equal(t, "<div>"+render.DefaultErrorFragment("async1", nil)+"</div>", bodyHTML(l.Document()))
}

func TestLoaderFeed(t *testing.T) {
	l := NewLoader(WithLogger(quiet))
	defer l.Close()

	require.NoError(t, l.Feed(protocol.Sync("<ul><li>a</li>")))
	require.NoError(t, l.Feed(protocol.Placeholder("async1", "")))
	assert.Nil(t, l.Document(), "document is parsed at the first content chunk")

	require.NoError(t, l.Feed(protocol.Sync("</ul>")))
	require.NoError(t, l.Feed(protocol.Content("async1", "<li>b</li>")))
	require.NotNil(t, l.Document())

	require.NoError(t, l.Wait(waitCtx(t)))
	assert.Equal(t, "<ul><li>a</li><li>b</li></ul>", bodyHTML(l.Document()))
}
