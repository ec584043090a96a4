package render

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/vango-dev/spanrender/pkg/protocol"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	return m.GetCounter().GetValue()
}

func metricGaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	return m.GetGauge().GetValue()
}

func metricHistogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

// collect drains s, failing the test on any error other than io.EOF.
func collect(t *testing.T, s *Stream) []protocol.Chunk {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var chunks []protocol.Chunk
	for {
		c, err := s.Next(ctx)
		if errors.Is(err, io.EOF) {
			return chunks
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		chunks = append(chunks, c)
	}
}

// inner returns the markup carried by a content chunk.
func inner(t *testing.T, c protocol.Chunk) string {
	t.Helper()
	if c.Kind != protocol.ChunkContent {
		t.Fatalf("chunk kind = %v, want Content", c.Kind)
	}
	prefix := `<template id="` + protocol.ContentID(c.SlotID) + `" data-hs-content>`
	suffix := "<!--end--></template>"
	if !strings.HasPrefix(c.HTML, prefix) || !strings.HasSuffix(c.HTML, suffix) {
		t.Fatalf("malformed content chunk %q", c.HTML)
	}
	return strings.TrimSuffix(strings.TrimPrefix(c.HTML, prefix), suffix)
}

func kinds(chunks []protocol.Chunk) []protocol.ChunkKind {
	out := make([]protocol.ChunkKind, len(chunks))
	for i, c := range chunks {
		out[i] = c.Kind
	}
	return out
}

// flushableWriter counts flushes so tests can check WriteStream flushes per
// chunk without an http.ResponseWriter.
type flushableWriter struct {
	io.Writer
	flushes int
}

func (w *flushableWriter) Flush() {
	w.flushes++
}
