package render

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vango-dev/spanrender/pkg/html"
)

func TestWriteStreamFlushesEveryChunk(t *testing.T) {
	var buf bytes.Buffer
	fw := &flushableWriter{Writer: &buf}

	tpl := html.HTML("<p>A</p>%v<p>B</p>", html.Resolve("x"))
	if err := WriteStream(context.Background(), fw, RenderStream(context.Background(), tpl)); err != nil {
		t.Fatalf("WriteStream() error = %v", err)
	}

	if fw.flushes != 4 {
		t.Errorf("flushes = %d, want 4", fw.flushes)
	}
	out := buf.String()
	if !strings.HasPrefix(out, `<p>A</p><div id="async1" data-hs-slot>`) {
		t.Errorf("unexpected prefix: %q", out)
	}
	if !strings.HasSuffix(out, `<template id="async1_content" data-hs-content>x<!--end--></template>`) {
		t.Errorf("unexpected suffix: %q", out)
	}
}

func TestWriteStreamToResponseRecorder(t *testing.T) {
	w := httptest.NewRecorder()

	err := WriteStream(context.Background(), w, RenderStream(context.Background(), html.HTML("<h1>%v</h1>", "Streamed")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !w.Flushed {
		t.Error("recorder was not flushed")
	}
	if w.Body.String() != "<h1>Streamed</h1>" {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestWriteStreamWriteErrorClosesStream(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg))

	a := html.Defer(func(ctx context.Context) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	s := RenderStream(context.Background(), html.HTML("A%v", a), WithMetrics(m), WithLogger(quietLogger))
	err := WriteStream(context.Background(), failingWriter{}, s)

	var we *WriteError
	if !errors.As(err, &we) {
		t.Fatalf("WriteStream() error = %v, want *WriteError", err)
	}
	if we.Code() != "E160" {
		t.Errorf("Code() = %q, want E160", we.Code())
	}
	if _, err := s.Next(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Next() after failed write = %v, want ErrClosed", err)
	}
	if got := metricCounterValue(t, m.writeErrors); got != 1 {
		t.Errorf("write_errors_total = %v, want 1", got)
	}
}

func TestWriteStreamCountsBytes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg))

	var buf bytes.Buffer
	s := RenderStream(context.Background(), html.HTML("hello"), WithMetrics(m))
	if err := WriteStream(context.Background(), &buf, s); err != nil {
		t.Fatal(err)
	}
	if got := metricCounterValue(t, m.bytesWritten); got != 5 {
		t.Errorf("bytes_written_total = %v, want 5", got)
	}
}

func TestWriteStreamPropagatesStreamError(t *testing.T) {
	s := RenderStream(context.Background(), html.HTML("%v", html.Resolve(1)), WithSlotPrefix("-"))
	err := WriteStream(context.Background(), &bytes.Buffer{}, s)
	if err == nil || !strings.Contains(err.Error(), "invalid slot prefix") {
		t.Errorf("WriteStream() error = %v", err)
	}
}
