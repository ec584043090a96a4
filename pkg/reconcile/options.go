package reconcile

import (
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/vango-dev/spanrender/pkg/dom"
)

// Defaults for waiting on streamed content.
const (
	DefaultTimeout  = 10 * time.Second
	DefaultInterval = 20 * time.Millisecond
)

// Option configures a Reconciler.
type Option func(*config)

type config struct {
	clock     clockwork.Clock
	timeout   time.Duration
	interval  time.Duration
	behaviors []dom.Behavior
	logger    *slog.Logger
	onError   func(slot string, err error)
}

func newConfig(opts []Option) *config {
	cfg := &config{
		clock:     clockwork.NewRealClock(),
		timeout:   DefaultTimeout,
		interval:  DefaultInterval,
		behaviors: []dom.Behavior{LazyScripts()},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default().With("component", "reconcile")
	}
	return cfg
}

// WithClock sets the clock used for polling and timeouts.
func WithClock(c clockwork.Clock) Option {
	return func(cfg *config) {
		if c != nil {
			cfg.clock = c
		}
	}
}

// WithTimeout sets how long to wait for a placeholder or for a content
// chunk's sentinel before giving up on a slot.
func WithTimeout(d time.Duration) Option {
	return func(cfg *config) {
		if d > 0 {
			cfg.timeout = d
		}
	}
}

// WithInterval sets the polling interval. Document mutations also wake
// waiting slots, so polling only matters for changes made outside Mutate.
func WithInterval(d time.Duration) Option {
	return func(cfg *config) {
		if d > 0 {
			cfg.interval = d
		}
	}
}

// WithBehaviors adds behaviors activated on reconciled content, after the
// built-in LazyScripts behavior. A behavior named LazyScriptsName replaces
// the built-in one.
func WithBehaviors(behaviors ...dom.Behavior) Option {
	return func(cfg *config) {
		cfg.behaviors = append(cfg.behaviors, behaviors...)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = l
	}
}

// OnError registers a callback for slots that fail to reconcile.
func OnError(fn func(slot string, err error)) Option {
	return func(cfg *config) {
		cfg.onError = fn
	}
}
