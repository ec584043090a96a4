package render

import (
	"log/slog"

	"github.com/vango-dev/spanrender/pkg/html"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Defaults for stream options.
const (
	DefaultMaxConcurrency = 16
	DefaultSlotPrefix     = "async"
	DefaultFlushThreshold = 16 * 1024

	tracerName = "github.com/vango-dev/spanrender/pkg/render"
)

// Option configures a render.
type Option func(*config)

type config struct {
	maxConcurrency int
	slotPrefix     string
	clientScript   string
	errorFragment  func(slot string, err error) string
	logger         *slog.Logger
	metrics        *Metrics
	tracer         trace.Tracer
	flushThreshold int
}

func newConfig(opts []Option) *config {
	c := &config{
		maxConcurrency: DefaultMaxConcurrency,
		slotPrefix:     DefaultSlotPrefix,
		errorFragment:  DefaultErrorFragment,
		flushThreshold: DefaultFlushThreshold,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default().With("component", "render")
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(tracerName)
	}
	return c
}

// WithMaxConcurrency bounds how many async values of one stream are awaited
// at the same time. Zero means unbounded.
func WithMaxConcurrency(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.maxConcurrency = n
		}
	}
}

// WithSlotPrefix sets the prefix of generated slot ids. Ids are the prefix
// followed by a counter, so the prefix must start with a letter and contain
// only letters, digits, '-' and '_'.
func WithSlotPrefix(prefix string) Option {
	return func(c *config) {
		c.slotPrefix = prefix
	}
}

// WithClientScript sets markup emitted once, just before the first
// placeholder. Fully synchronous pages never include it.
func WithClientScript(markup string) Option {
	return func(c *config) {
		c.clientScript = markup
	}
}

// WithErrorFragment sets the markup a failed slot is replaced with.
func WithErrorFragment(fn func(slot string, err error) string) Option {
	return func(c *config) {
		if fn != nil {
			c.errorFragment = fn
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithMetrics records render metrics into m.
func WithMetrics(m *Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// WithTracer sets the tracer used for render and slot spans. Defaults to
// the global tracer provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *config) {
		c.tracer = tracer
	}
}

// WithFlushThreshold makes the stream emit buffered synchronous markup as
// soon as it reaches n bytes. Zero only emits at placeholders and at the
// end of the synchronous walk.
func WithFlushThreshold(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.flushThreshold = n
		}
	}
}

// DefaultErrorFragment is the markup for a failed slot. The error itself
// is not shown to the client.
func DefaultErrorFragment(slot string, err error) string {
	return `<div data-hs-error="` + html.EscapeString(slot) + `" role="alert">Failed to load content.</div>`
}
