package reconcile

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/vango-dev/spanrender/pkg/dom"
	"github.com/vango-dev/spanrender/pkg/protocol"
)

// ErrNoBody is returned when streamed content arrives for a document
// without a body element.
var ErrNoBody = errors.New("reconcile: document has no body")

// ChunkSource yields chunks until io.EOF. *render.Stream implements it.
type ChunkSource interface {
	Next(ctx context.Context) (protocol.Chunk, error)
}

// Loader builds a Document from streamed chunks the way a browser does:
// markup before the first content chunk is parsed as the document, and
// every later chunk is appended to its body, where the Loader's Reconciler
// picks it up.
type Loader struct {
	opts []Option

	mu     sync.Mutex
	prefix strings.Builder
	doc    *dom.Document
	rec    *Reconciler
	stop   func()
}

// NewLoader returns a loader whose reconciler is configured with opts.
func NewLoader(opts ...Option) *Loader {
	return &Loader{opts: opts}
}

// Feed adds one chunk.
func (l *Loader) Feed(c protocol.Chunk) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.doc == nil {
		if c.Kind != protocol.ChunkContent {
			l.prefix.WriteString(c.HTML)
			return nil
		}
		if err := l.open(); err != nil {
			return err
		}
	}

	return l.doc.Mutate(func(m *dom.Mutator) error {
		body := m.Body()
		if body == nil {
			return ErrNoBody
		}
		_, err := m.AppendHTML(body, c.HTML)
		return err
	})
}

// ReadFrom feeds every chunk of src, then finishes the document and waits
// for all slots to be reconciled. It returns the reconciliation errors.
func (l *Loader) ReadFrom(ctx context.Context, src ChunkSource) error {
	for {
		c, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if err := l.Feed(c); err != nil {
			return err
		}
	}
	if err := l.Finish(); err != nil {
		return err
	}
	return l.Wait(ctx)
}

// Finish parses buffered markup when no content chunk arrived.
func (l *Loader) Finish() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.doc != nil {
		return nil
	}
	return l.open()
}

// Wait waits for the reconciler to settle every slot seen so far.
func (l *Loader) Wait(ctx context.Context) error {
	l.mu.Lock()
	rec := l.rec
	l.mu.Unlock()
	if rec == nil {
		return nil
	}
	return rec.Wait(ctx)
}

// Document returns the document, or nil before it has been parsed.
func (l *Loader) Document() *dom.Document {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.doc
}

// Reconciler returns the reconciler, or nil before the document has been
// parsed.
func (l *Loader) Reconciler() *Reconciler {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rec
}

// Close stops the reconciler.
func (l *Loader) Close() error {
	l.mu.Lock()
	stop := l.stop
	l.stop = nil
	l.mu.Unlock()
	if stop != nil {
		stop()
	}
	return nil
}

func (l *Loader) open() error {
	doc, err := dom.ParseString(l.prefix.String())
	if err != nil {
		return err
	}
	l.prefix.Reset()
	l.doc = doc
	l.rec = New(doc, l.opts...)
	l.stop = l.rec.Start()
	return nil
}
