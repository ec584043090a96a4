package render

import (
	"context"
	"errors"
	"io"
	"iter"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vango-dev/spanrender/pkg/html"
	"github.com/vango-dev/spanrender/pkg/protocol"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Stream is a lazy, single-pass sequence of chunks produced by
// RenderStream. It must be consumed by one goroutine.
type Stream struct {
	tpl    *html.Template
	cfg    *config
	ctx    context.Context
	cancel context.CancelFunc

	startOnce sync.Once
	closeOnce sync.Once
	closed    atomic.Bool
	ch        chan protocol.Chunk
	done      chan struct{}
	err       error // set by the producer before ch is closed
	finished  bool
}

// RenderStream returns a stream rendering t. Nothing runs until the first
// call to Next. Cancelling ctx or calling Close abandons outstanding work.
func RenderStream(ctx context.Context, t *html.Template, opts ...Option) *Stream {
	ctx, cancel := context.WithCancel(ctx)
	return &Stream{
		tpl:    t,
		cfg:    newConfig(opts),
		ctx:    ctx,
		cancel: cancel,
		ch:     make(chan protocol.Chunk),
		done:   make(chan struct{}),
	}
}

// Next returns the next chunk. It returns io.EOF once every slot has been
// emitted, ErrClosed after Close, and ctx.Err() if ctx ends first. A
// non-EOF error from the producer ends the stream.
func (s *Stream) Next(ctx context.Context) (protocol.Chunk, error) {
	if s.closed.Load() {
		return protocol.Chunk{}, ErrClosed
	}
	if s.finished {
		return protocol.Chunk{}, io.EOF
	}
	s.startOnce.Do(func() { go s.produce() })

	select {
	case c, ok := <-s.ch:
		if ok {
			return c, nil
		}
		s.finished = true
		if s.err != nil {
			err := s.err
			s.err = nil
			return protocol.Chunk{}, err
		}
		return protocol.Chunk{}, io.EOF
	case <-ctx.Done():
		return protocol.Chunk{}, ctx.Err()
	}
}

// All returns an iterator over the remaining chunks. Iteration stops after
// the first error, which is yielded. Breaking out of the loop closes the
// stream.
func (s *Stream) All(ctx context.Context) iter.Seq2[protocol.Chunk, error] {
	return func(yield func(protocol.Chunk, error) bool) {
		for {
			c, err := s.Next(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(c, err) {
				s.Close()
				return
			}
			if err != nil {
				return
			}
		}
	}
}

// Close abandons the stream. Async values still running see their context
// cancelled. Close waits for the producer goroutine to exit and is safe to
// call more than once.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.cancel()
		s.startOnce.Do(func() {
			s.err = ErrClosed
			close(s.ch)
			close(s.done)
		})
		<-s.done
	})
	return nil
}

// settled is the outcome of one slot's async value.
type settled struct {
	slot  string
	value any
	err   error
}

type producer struct {
	s         *Stream
	cfg       *config
	ctx       context.Context
	slots     *Slots
	results   chan settled
	sem       chan struct{}
	inflight  int
	abandoned map[string]bool
	buf       strings.Builder
	scripted  bool
}

func (s *Stream) produce() {
	defer close(s.done)
	defer close(s.ch)
	defer s.cancel()

	ctx, span := s.cfg.tracer.Start(s.ctx, "spanrender.stream")
	defer span.End()
	start := time.Now()

	p := &producer{
		s:         s,
		cfg:       s.cfg,
		ctx:       ctx,
		results:   make(chan settled),
		abandoned: make(map[string]bool),
	}
	if n := s.cfg.maxConcurrency; n > 0 {
		p.sem = make(chan struct{}, n)
	}

	err := p.run()
	s.cfg.metrics.render("stream", err, time.Since(start))
	if p.slots != nil {
		span.SetAttributes(attribute.Int("spanrender.slots", p.slots.Len()))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if s.closed.Load() {
			err = ErrClosed
		}
		s.err = err
		s.cfg.logger.Debug("stream ended early", "error", err)
		return
	}
	s.cfg.logger.Debug("stream complete", "slots", p.slots.Len(), "duration", time.Since(start))
}

func (p *producer) run() error {
	slots, err := NewSlots(p.cfg.slotPrefix)
	if err != nil {
		return err
	}
	p.slots = slots

	// Synchronous walk: markup flows out as it is reached and every async
	// value leaves a placeholder behind.
	if err := p.s.tpl.Walk(syncVisitor{p}); err != nil {
		return err
	}
	if err := p.flush(); err != nil {
		return err
	}

	for p.inflight > 0 {
		var r settled
		select {
		case r = <-p.results:
		case <-p.ctx.Done():
			return p.ctx.Err()
		}
		p.inflight--
		p.slots.Settle(r.slot)
		if p.abandoned[r.slot] {
			delete(p.abandoned, r.slot)
			continue
		}
		if err := p.emit(p.content(r)); err != nil {
			return err
		}
	}
	return nil
}

// register allocates a slot for a, starts awaiting it and returns the
// placeholder markup.
func (p *producer) register(a *html.Async) (string, string, error) {
	loading, err := renderMarkup(a.Loading())
	if err != nil {
		return "", "", err
	}
	slot := p.slots.Register(a)
	p.inflight++
	p.cfg.metrics.slotRegistered()
	go p.await(slot, a)
	return slot, protocol.PlaceholderMarkup(slot, loading), nil
}

func (p *producer) await(slot string, a *html.Async) {
	ctx, span := p.cfg.tracer.Start(p.ctx, "spanrender.slot",
		trace.WithAttributes(attribute.String("spanrender.slot", slot)))
	defer span.End()

	if p.sem != nil {
		select {
		case p.sem <- struct{}{}:
		case <-ctx.Done():
			return
		}
	}
	start := time.Now()
	p.cfg.metrics.slotAcquired()
	value, err := a.Await(ctx)
	p.cfg.metrics.slotReleased(time.Since(start))
	if p.sem != nil {
		<-p.sem
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	select {
	case p.results <- settled{slot: slot, value: value, err: err}:
	case <-ctx.Done():
	}
}

// content renders the chunk for a settled slot. Nested async values get
// their placeholders inline and are registered on the same Slots.
func (p *producer) content(r settled) protocol.Chunk {
	if r.err == nil {
		v := &nestedVisitor{p: p}
		err := html.Walk(r.value, v)
		if err == nil {
			return protocol.Content(r.slot, v.b.String())
		}
		r.err = err
		for _, id := range v.registered {
			p.abandoned[id] = true
		}
	}

	cerr := &StreamChunkError{SlotID: r.slot, Err: r.err}
	p.cfg.metrics.slotFailed()
	p.cfg.logger.Warn("async slot failed", "slot", r.slot, "error", r.err)
	return protocol.Content(r.slot, p.cfg.errorFragment(r.slot, cerr))
}

func (p *producer) emit(c protocol.Chunk) error {
	select {
	case p.s.ch <- c:
		p.cfg.metrics.chunk(c)
		return nil
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

// flush emits buffered synchronous markup.
func (p *producer) flush() error {
	if p.buf.Len() == 0 {
		return nil
	}
	c := protocol.Sync(p.buf.String())
	p.buf.Reset()
	return p.emit(c)
}

type syncVisitor struct{ p *producer }

func (v syncVisitor) Markup(s string) error {
	v.p.buf.WriteString(s)
	if t := v.p.cfg.flushThreshold; t > 0 && v.p.buf.Len() >= t {
		return v.p.flush()
	}
	return nil
}

func (v syncVisitor) Async(a *html.Async) error {
	p := v.p
	if err := p.flush(); err != nil {
		return err
	}
	if !p.scripted && p.cfg.clientScript != "" {
		p.scripted = true
		if err := p.emit(protocol.Sync(p.cfg.clientScript)); err != nil {
			return err
		}
	}
	slot, markup, err := p.register(a)
	if err != nil {
		return err
	}
	return p.emit(protocol.Chunk{Kind: protocol.ChunkPlaceholder, SlotID: slot, HTML: markup})
}

type nestedVisitor struct {
	p          *producer
	b          strings.Builder
	registered []string
}

func (v *nestedVisitor) Markup(s string) error {
	v.b.WriteString(s)
	return nil
}

func (v *nestedVisitor) Async(a *html.Async) error {
	slot, markup, err := v.p.register(a)
	if err != nil {
		return err
	}
	v.registered = append(v.registered, slot)
	v.b.WriteString(markup)
	return nil
}

// renderMarkup renders a value that contains no async values.
func renderMarkup(v any) (string, error) {
	var b strings.Builder
	err := html.Walk(v, markupVisitor{&b})
	return b.String(), err
}

type markupVisitor struct{ b *strings.Builder }

func (v markupVisitor) Markup(s string) error {
	v.b.WriteString(s)
	return nil
}

func (markupVisitor) Async(*html.Async) error {
	return errors.New("render: unexpected async value in loading content")
}
