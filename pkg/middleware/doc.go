// Package middleware provides net/http middleware for spanrender servers.
//
// This package includes:
//   - OpenTelemetry request tracing
//   - Prometheus request metrics
//
// Both work with any http.Handler and pick up chi route patterns when
// mounted with chi's Use, so labels and span attributes stay low
// cardinality. Both keep http.Flusher working: a streamed response still
// reaches the client chunk by chunk through them.
//
// # OpenTelemetry Middleware
//
//	r := chi.NewRouter()
//	r.Use(middleware.OpenTelemetry(
//	    middleware.WithTracerName("my-app"),
//	    middleware.WithRequestFilter(func(r *http.Request) bool {
//	        return r.URL.Path != "/healthz"
//	    }),
//	))
//
// The request context carries the span, so the render and slot spans
// started by package render nest under it.
//
// # Prometheus Metrics
//
//	r.Use(middleware.Prometheus(middleware.WithRegistry(reg)))
//	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
//
// A response counts as "streamed" when the handler flushed before it
// finished.
package middleware
