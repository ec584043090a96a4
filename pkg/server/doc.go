// Package server serves html templates over HTTP.
//
// Routes return a template instead of writing a response. The server
// decides per request how to send it: templates with async values are
// streamed, with the synchronous markup first and every slot's content
// following as it resolves, while everything else, crawler requests and
// requests with the __nostream query parameter get one buffered response.
//
//	srv := server.New(nil)
//	srv.Get("/", func(r *http.Request) (any, error) {
//	    return render.Page(render.PageData{
//	        Title: "Home",
//	        Body:  html.HTML("<main>%v</main>", html.Defer(loadFeed)),
//	    })
//	})
//	log.Fatal(srv.Run())
//
// The server also mounts the browser reconciler at /_hs/js/streaming.js,
// Prometheus metrics at /metrics and a WebSocket chunk transport at
// /_hs/stream/{path}, which sends a page as binary protocol frames for
// client-side navigation.
package server
