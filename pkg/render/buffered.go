package render

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/vango-dev/spanrender/pkg/html"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Render renders t to a string. Every async value in t must already be
// settled; otherwise Render returns ErrUnresolved. A settled rejection is
// returned as a *BufferedRenderError.
func Render(t *html.Template) (string, error) {
	var b strings.Builder
	if err := t.Walk(&bufferVisitor{b: &b}); err != nil {
		return "", err
	}
	return b.String(), nil
}

// RenderAsync renders t to a string, awaiting each async value in place
// before continuing. Async values are awaited one at a time in document
// order. Any rejection aborts the render with a *BufferedRenderError.
func RenderAsync(ctx context.Context, t *html.Template, opts ...Option) (string, error) {
	cfg := newConfig(opts)
	ctx, span := cfg.tracer.Start(ctx, "spanrender.render")
	defer span.End()

	start := time.Now()
	var b strings.Builder
	v := &bufferVisitor{ctx: ctx, b: &b, await: true}
	err := t.Walk(v)
	cfg.metrics.render("buffered", err, time.Since(start))

	span.SetAttributes(attribute.Int("spanrender.async_values", v.awaited))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		cfg.logger.Debug("buffered render failed", "error", err)
		return "", err
	}
	return b.String(), nil
}

// RenderTo renders t like RenderAsync and writes the result to w. Nothing
// is written if the render fails.
func RenderTo(ctx context.Context, w io.Writer, t *html.Template, opts ...Option) error {
	out, err := RenderAsync(ctx, t, opts...)
	if err != nil {
		return err
	}
	n, err := io.WriteString(w, out)
	if err != nil {
		return &WriteError{Err: err, Written: int64(n)}
	}
	return nil
}

type bufferVisitor struct {
	ctx     context.Context
	b       *strings.Builder
	await   bool
	awaited int
}

func (v *bufferVisitor) Markup(s string) error {
	v.b.WriteString(s)
	return nil
}

func (v *bufferVisitor) Async(a *html.Async) error {
	var (
		value any
		err   error
	)
	if v.await {
		v.awaited++
		value, err = a.Await(v.ctx)
	} else {
		if !a.Done() {
			return ErrUnresolved
		}
		value, err = a.Result()
	}
	if err != nil {
		return &BufferedRenderError{Err: err}
	}
	return html.Walk(value, v)
}
