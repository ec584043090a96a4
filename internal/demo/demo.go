// Package demo is a small site showing what the renderer does: plain
// pages, out-of-order slots, nested slots, a failing slot and markdown.
// The spanrender command serves it when no other application is wired in.
package demo

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vango-dev/spanrender/pkg/html"
	"github.com/vango-dev/spanrender/pkg/render"
	"github.com/vango-dev/spanrender/pkg/server"
)

// DefaultDelay is the base latency of the simulated backends.
const DefaultDelay = 300 * time.Millisecond

// ErrInventory is the failure of the simulated inventory service.
var ErrInventory = errors.New("demo: inventory service unavailable")

type post struct {
	Title string
	Body  string
}

var posts = map[string]post{
	"streaming": {
		Title: "How streaming works",
		Body: "The page shell is sent **immediately**. Every slow value gets a " +
			"placeholder, and its content follows in the same response once it " +
			"resolves, in whatever order the values finish.\n\n" +
			"- no client round trips\n- no JavaScript framework\n- works without streaming, too: add `?__nostream`\n",
	},
	"errors": {
		Title: "When a slot fails",
		Body: "Once the first byte is out the status cannot change, so a failed " +
			"slot is replaced by a small error fragment. The rest of the page is " +
			"unaffected.\n",
	},
}

// App holds the demo routes.
type App struct {
	delay time.Duration
}

// New returns the demo with simulated backends taking multiples of delay.
func New(delay time.Duration) *App {
	return &App{delay: delay}
}

// Paths lists the demo pages, for static export.
func (a *App) Paths() []string {
	paths := []string{"/", "/dashboard", "/nested"}
	for slug := range posts {
		paths = append(paths, "/posts/"+slug)
	}
	return paths
}

// Register mounts the demo routes on s.
func (a *App) Register(s *server.Server) {
	s.Get("/", a.index)
	s.Get("/dashboard", a.dashboard)
	s.Get("/nested", a.nested)
	s.Get("/failing", a.failing)
	s.Get("/posts/{slug}", a.post)
}

func page(title string, body any) (any, error) {
	return render.Page(render.PageData{
		Title:  title + " · spanrender",
		Styles: []string{style},
		Body:   html.HTML(`<main><h1>%v</h1>%v</main>`, title, body),
	})
}

func (a *App) index(*http.Request) (any, error) {
	links := make([]any, 0, len(posts))
	for _, slug := range []string{"streaming", "errors"} {
		links = append(links, html.HTML(`<li><a href="/posts/%v">%v</a></li>`, slug, posts[slug].Title))
	}
	return page("spanrender demo", html.HTML(`
<ul>
  <li><a href="/dashboard">Dashboard</a>: three slots finishing out of order</li>
  <li><a href="/nested">Nested</a>: a slot whose content has slots of its own</li>
  <li><a href="/failing">Failing</a>: one slot fails, the others still load</li>
</ul>
<h2>Posts</h2>
<ul>%v</ul>`, html.Join(links, "")))
}

// dashboard renders three panels whose data arrives in the order
// revenue, visitors, orders although they appear in a different order.
func (a *App) dashboard(*http.Request) (any, error) {
	return page("Dashboard", html.HTML(`<section class="grid">%v%v%v</section>`,
		a.panel("Orders", 3, "1,284"),
		a.panel("Revenue", 1, "$48,200"),
		a.panel("Visitors", 2, "31,902"),
	))
}

func (a *App) panel(name string, cost int, value string) *html.Async {
	return html.Defer(func(ctx context.Context) (any, error) {
		if err := a.wait(ctx, cost); err != nil {
			return nil, err
		}
		return html.HTML(`<article><h2>%v</h2><p class="value">%v</p></article>`, name, value), nil
	}).WithLoading(html.HTML(`<article class="loading"><h2>%v</h2><p>Loading…</p></article>`, name))
}

// nested renders a user card whose content contains the user's recent
// activity, itself loaded later.
func (a *App) nested(*http.Request) (any, error) {
	profile := html.Defer(func(ctx context.Context) (any, error) {
		if err := a.wait(ctx, 1); err != nil {
			return nil, err
		}
		activity := html.Defer(func(ctx context.Context) (any, error) {
			if err := a.wait(ctx, 2); err != nil {
				return nil, err
			}
			items := []any{
				html.HTML("<li>%v</li>", "Commented on “How streaming works”"),
				html.HTML("<li>%v</li>", "Starred spanrender"),
			}
			return html.HTML("<ul>%v</ul>", items), nil
		}).WithLoading(html.Raw("<p>Loading activity…</p>"))

		return html.HTML(`<article><h2>%v</h2><p>%v</p>%v</article>`,
			"Ada", "Joined 2021", activity), nil
	}).WithLoading(html.Raw(`<article class="loading">Loading profile…</article>`))

	return page("Nested", profile)
}

func (a *App) failing(*http.Request) (any, error) {
	stock := html.Defer(func(ctx context.Context) (any, error) {
		if err := a.wait(ctx, 1); err != nil {
			return nil, err
		}
		return nil, ErrInventory
	}).WithLoading(html.Raw("<p>Checking stock…</p>"))

	return page("Failing", html.HTML(`<p>Price: %v</p>%v%v`,
		"$19",
		stock,
		a.panel("Reviews", 2, "4.8 / 5"),
	))
}

func (a *App) post(r *http.Request) (any, error) {
	p, ok := posts[chi.URLParam(r, "slug")]
	if !ok {
		return nil, server.NewHTTPError(http.StatusNotFound, "No such post")
	}
	body, err := html.Markdown(p.Body)
	if err != nil {
		return nil, err
	}
	return page(p.Title, html.HTML(`<article>%v</article>`, body))
}

// wait simulates a backend call costing n units of the demo delay.
func (a *App) wait(ctx context.Context, n int) error {
	if a.delay <= 0 {
		return nil
	}
	t := time.NewTimer(time.Duration(n) * a.delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

const style = `body{font-family:system-ui,sans-serif;max-width:48rem;margin:2rem auto;padding:0 1rem}
.grid{display:grid;grid-template-columns:repeat(3,1fr);gap:1rem}
.loading{opacity:.5}
[data-hs-error]{color:#b00020}`
