package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/vango-dev/spanrender/pkg/protocol"
	"github.com/vango-dev/spanrender/pkg/render"
)

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	// Address is the address to listen on (e.g., ":8080").
	Address string

	// ReadHeaderTimeout is the maximum duration for reading request headers.
	// Default: 5 seconds.
	ReadHeaderTimeout time.Duration

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30 seconds.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. Streamed responses stay open until their slowest slot
	// settles, so the default is 0 (no timeout).
	WriteTimeout time.Duration

	// IdleTimeout is the maximum time to wait for the next request on a
	// keep-alive connection.
	// Default: 120 seconds.
	IdleTimeout time.Duration

	// ShutdownTimeout is how long Shutdown waits for in-flight streams.
	// Default: 30 seconds.
	ShutdownTimeout time.Duration

	// ReadBufferSize is the WebSocket read buffer size in bytes.
	// Default: 4096.
	ReadBufferSize int

	// WriteBufferSize is the WebSocket write buffer size in bytes.
	// Default: 4096.
	WriteBufferSize int

	// CheckOrigin validates the Origin header of chunk transport
	// WebSocket upgrades.
	// Default: SameOriginCheck.
	CheckOrigin func(r *http.Request) bool

	// Streaming enables streamed responses for templates with async
	// values. When false every page is rendered buffered.
	// Default: true.
	Streaming bool

	// DebugMode shows error details on error pages and in failed slot
	// fragments. Never enable it in production.
	DebugMode bool

	// MaxConcurrency bounds the async values awaited at once per response.
	// Zero means unbounded.
	// Default: render.DefaultMaxConcurrency.
	MaxConcurrency int

	// SlotPrefix is the prefix of generated slot ids.
	// Default: render.DefaultSlotPrefix.
	SlotPrefix string

	// MetricsPath is where Prometheus metrics are served. Empty disables
	// the endpoint; metrics are still collected in Registry().
	// Default: "/metrics".
	MetricsPath string

	// Logger is the server logger.
	// Default: slog.Default() with component=server.
	Logger *slog.Logger
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Address:           ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
		ShutdownTimeout:   30 * time.Second,
		ReadBufferSize:    4096,
		WriteBufferSize:   4096,
		CheckOrigin:       SameOriginCheck,
		Streaming:         true,
		MaxConcurrency:    render.DefaultMaxConcurrency,
		SlotPrefix:        render.DefaultSlotPrefix,
		MetricsPath:       "/metrics",
	}
}

// ValidateConfig reports the first invalid field.
func (c *ServerConfig) ValidateConfig() error {
	if c.Address == "" {
		return fmt.Errorf("%w: address is empty", ErrInvalidConfig)
	}
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("%w: max concurrency %d is negative", ErrInvalidConfig, c.MaxConcurrency)
	}
	if !protocol.ValidSlotID(c.SlotPrefix) {
		return fmt.Errorf("%w: slot prefix %q must start with a letter and contain only letters, digits, '-' and '_'", ErrInvalidConfig, c.SlotPrefix)
	}
	if c.ReadBufferSize < 0 || c.WriteBufferSize < 0 {
		return fmt.Errorf("%w: buffer sizes must not be negative", ErrInvalidConfig)
	}
	return nil
}

// SameOriginCheck accepts WebSocket upgrades without an Origin header or
// whose Origin host matches the request host.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}

// Clone returns a shallow copy of the config.
func (c *ServerConfig) Clone() *ServerConfig {
	clone := *c
	return &clone
}

// WithAddress returns a copy of the config with the given address.
func (c *ServerConfig) WithAddress(addr string) *ServerConfig {
	clone := c.Clone()
	clone.Address = addr
	return clone
}
