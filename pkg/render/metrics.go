package render

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vango-dev/spanrender/pkg/protocol"
)

// MetricsConfig configures render metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "spanrender").
	Namespace string

	// Subsystem is the metrics subsystem (default: "render").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures render metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "spanrender",
		Subsystem: "render",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus collectors for rendering. A nil *Metrics
// records nothing.
type Metrics struct {
	rendersTotal   *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	slotsTotal     prometheus.Counter
	slotErrors     prometheus.Counter
	slotDuration   prometheus.Histogram
	slotsInflight  prometheus.Gauge
	chunksTotal    *prometheus.CounterVec
	bytesWritten   prometheus.Counter
	writeErrors    prometheus.Counter
}

// NewMetrics registers render metrics:
//   - spanrender_render_renders_total: renders by mode and status
//   - spanrender_render_duration_seconds: render duration by mode
//   - spanrender_render_slots_total: async slots registered while streaming
//   - spanrender_render_slot_errors_total: slots rendered as error fragments
//   - spanrender_render_slot_duration_seconds: time to settle a slot
//   - spanrender_render_slots_inflight: async values currently awaited
//   - spanrender_render_chunks_total: chunks emitted by kind
//   - spanrender_render_bytes_written_total: streamed bytes written
//   - spanrender_render_write_errors_total: failed stream writes
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		rendersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "renders_total",
			Help:        "Total number of renders by mode and status",
			ConstLabels: config.ConstLabels,
		}, []string{"mode", "status"}),

		renderDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "duration_seconds",
			Help:        "Render duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"mode"}),

		slotsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "slots_total",
			Help:        "Total number of async slots registered while streaming",
			ConstLabels: config.ConstLabels,
		}),

		slotErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "slot_errors_total",
			Help:        "Total number of slots rendered as an error fragment",
			ConstLabels: config.ConstLabels,
		}),

		slotDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "slot_duration_seconds",
			Help:        "Time for an async slot to settle in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		slotsInflight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "slots_inflight",
			Help:        "Number of async values currently being awaited",
			ConstLabels: config.ConstLabels,
		}),

		chunksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "chunks_total",
			Help:        "Total number of stream chunks emitted by kind",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		bytesWritten: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "bytes_written_total",
			Help:        "Total bytes of streamed markup written",
			ConstLabels: config.ConstLabels,
		}),

		writeErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "write_errors_total",
			Help:        "Total number of failed stream writes",
			ConstLabels: config.ConstLabels,
		}),
	}
}

func (m *Metrics) render(mode string, err error, d time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.rendersTotal.WithLabelValues(mode, status).Inc()
	m.renderDuration.WithLabelValues(mode).Observe(d.Seconds())
}

func (m *Metrics) slotRegistered() {
	if m != nil {
		m.slotsTotal.Inc()
	}
}

func (m *Metrics) slotAcquired() {
	if m != nil {
		m.slotsInflight.Inc()
	}
}

func (m *Metrics) slotReleased(d time.Duration) {
	if m != nil {
		m.slotsInflight.Dec()
		m.slotDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) slotFailed() {
	if m != nil {
		m.slotErrors.Inc()
	}
}

func (m *Metrics) chunk(c protocol.Chunk) {
	if m != nil {
		m.chunksTotal.WithLabelValues(c.Kind.String()).Inc()
	}
}

func (m *Metrics) wrote(n int, err error) {
	if m == nil {
		return
	}
	m.bytesWritten.Add(float64(n))
	if err != nil {
		m.writeErrors.Inc()
	}
}
