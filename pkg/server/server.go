package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	clientdist "github.com/vango-dev/spanrender/client/dist"
	"github.com/vango-dev/spanrender/pkg/middleware"
	"github.com/vango-dev/spanrender/pkg/render"
)

// Server serves template routes over HTTP, streaming pages with async
// content and buffering the rest.
type Server struct {
	config *ServerConfig

	// router is the root router; pages holds the application routes and
	// is mounted on it.
	router *chi.Mux
	pages  *chi.Mux
	routes map[string]*Route

	registry      *prometheus.Registry
	renderMetrics *render.Metrics
	upgrader      websocket.Upgrader
	clientScript  string

	base   *slog.Logger
	logger *slog.Logger

	mu         sync.Mutex
	httpServer *http.Server
}

// New creates a server. A nil config uses DefaultServerConfig.
func New(config *ServerConfig) *Server {
	if config == nil {
		config = DefaultServerConfig()
	}
	if config.CheckOrigin == nil {
		config.CheckOrigin = SameOriginCheck
	}
	base := config.Logger
	if base == nil {
		base = slog.Default()
	}

	s := &Server{
		config:       config,
		router:       chi.NewRouter(),
		pages:        chi.NewRouter(),
		routes:       make(map[string]*Route),
		registry:     prometheus.NewRegistry(),
		clientScript: clientdist.ScriptTag(),
		base:         base,
		logger:       base.With("component", "server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
	}

	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	s.renderMetrics = render.NewMetrics(render.WithRegistry(s.registry))
	httpMetrics := middleware.NewHTTPMetrics(middleware.WithRegistry(s.registry))

	s.router.Use(
		middleware.OpenTelemetry(middleware.WithRequestFilter(s.traced)),
		httpMetrics.Handler,
	)
	s.router.Get(clientdist.ScriptPath, serveClient)
	if config.MetricsPath != "" {
		s.router.Handle(config.MetricsPath, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	s.router.Get(StreamPathPrefix+"/*", s.handleStream)
	s.router.Mount("/", s.pages)

	s.pages.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if c := captureFrom(r.Context()); c != nil {
			return
		}
		s.writeError(w, r, ErrNotFound, r.Method == http.MethodHead)
	})

	return s
}

// traced excludes the metrics endpoint from tracing.
func (s *Server) traced(r *http.Request) bool {
	return s.config.MetricsPath == "" || r.URL.Path != s.config.MetricsPath
}

func serveClient(w http.ResponseWriter, r *http.Request) {
	h := w.Header()
	h.Set("Content-Type", "text/javascript; charset=UTF-8")
	h.Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(clientdist.StreamingJS)
}

// Route returns the route for pattern, creating it on first use. Patterns
// use chi syntax, e.g. "/blog/{slug}".
func (s *Server) Route(pattern string) *Route {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rt, ok := s.routes[pattern]; ok {
		return rt
	}
	rt := &Route{srv: s, pattern: pattern, handlers: make(map[string]Handler)}
	s.routes[pattern] = rt
	s.pages.Handle(pattern, rt)
	return rt
}

// Get registers a GET handler for pattern.
func (s *Server) Get(pattern string, h Handler) *Route {
	return s.Route(pattern).Get(h)
}

// Handle registers a plain http.Handler for pattern. Such routes are not
// available through the chunk transport.
func (s *Server) Handle(pattern string, h http.Handler) {
	s.pages.Handle(pattern, h)
}

// Use adds middleware to the application routes. Like chi, it panics if
// called after a route was registered.
func (s *Server) Use(middlewares ...func(http.Handler) http.Handler) {
	s.pages.Use(middlewares...)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the server and blocks until it stops. SIGINT and SIGTERM
// trigger a graceful shutdown.
func (s *Server) Run() error {
	if err := s.config.ValidateConfig(); err != nil {
		return err
	}
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-shutdown:
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Serve accepts connections on ln until Shutdown is called.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	s.httpServer = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		ReadTimeout:       s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       s.config.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Info("server starting", "address", ln.Addr().String())
	if err := srv.Serve(ln); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight responses,
// at most ShutdownTimeout.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// Config returns the server configuration.
func (s *Server) Config() *ServerConfig {
	return s.config
}

// Registry returns the Prometheus registry holding the server's metrics.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// RenderOptions returns the render options the server uses, for rendering
// the same templates outside a request.
func (s *Server) RenderOptions() []render.Option {
	return s.renderOptions()
}

// Logger returns the server logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}

// SetLogger sets the server logger.
func (s *Server) SetLogger(logger *slog.Logger) {
	s.base = logger
	s.logger = logger.With("component", "server")
}
