// Package render turns html templates into markup, either buffered or as
// a stream of protocol chunks.
//
// # Buffered Rendering
//
// Render requires every async value to be settled already. RenderAsync
// awaits async values in place, one after another, so the output is in
// document order but the page waits for its slowest value:
//
//	out, err := render.RenderAsync(ctx, page)
//
// Any rejection aborts the whole render with a *BufferedRenderError and no
// output, so the caller can still answer with an error page.
//
// # Streaming
//
// RenderStream emits synchronous markup as soon as it is reached and a
// placeholder for every async value. Once the synchronous walk is done the
// stream emits a content chunk for each async value in the order they
// resolve:
//
//	s := render.RenderStream(ctx, page, render.WithMaxConcurrency(8))
//	defer s.Close()
//	for chunk, err := range s.All(ctx) {
//	    ...
//	}
//
// A rejected async value only affects its own slot: it is logged, counted,
// and rendered as an inline error fragment. The HTTP status has usually
// been sent by then, so a degraded page is the best possible outcome.
//
// The producer starts on the first call to Next and never runs ahead of
// the consumer. Slot ids are allocated from a per-stream Slots value and
// are unique within one response only.
//
// WriteStream copies a stream to an io.Writer and flushes after every
// chunk when the writer is an http.Flusher.
package render
