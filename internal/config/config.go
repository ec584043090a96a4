package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/vango-dev/spanrender/internal/errors"
	"github.com/vango-dev/spanrender/internal/logging"
	"github.com/vango-dev/spanrender/pkg/protocol"
	"github.com/vango-dev/spanrender/pkg/render"
	"github.com/vango-dev/spanrender/pkg/server"
)

const (
	// ConfigName is the base name of the configuration file. Any
	// extension viper understands works: spanrender.yaml, .json, .toml.
	ConfigName = "spanrender"

	// EnvPrefix prefixes environment overrides: server.port is read from
	// SPANRENDER_SERVER_PORT.
	EnvPrefix = "SPANRENDER"

	// DefaultPort is the default server port.
	DefaultPort = 8080

	// DefaultOutput is the default export directory.
	DefaultOutput = "dist"
)

// Config is the complete spanrender configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Render RenderConfig `mapstructure:"render"`
	Log    LogConfig    `mapstructure:"log"`
	Export ExportConfig `mapstructure:"export"`

	// path is the file the config was read from, empty for defaults.
	path string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to. Empty binds all interfaces.
	Host string `mapstructure:"host"`

	// Port is the port to listen on.
	Port int `mapstructure:"port"`

	// Streaming enables streamed responses.
	Streaming bool `mapstructure:"streaming"`

	// Debug shows error details in responses.
	Debug bool `mapstructure:"debug"`

	// MetricsPath is where Prometheus metrics are served; empty disables.
	MetricsPath string `mapstructure:"metrics_path"`

	// WriteTimeout limits a whole response, streams included. Zero
	// disables it.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// RenderConfig contains renderer settings.
type RenderConfig struct {
	// MaxConcurrency bounds async values awaited at once per response.
	MaxConcurrency int `mapstructure:"max_concurrency"`

	// SlotPrefix is the prefix of generated slot ids.
	SlotPrefix string `mapstructure:"slot_prefix"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level"`

	// Format is text or json.
	Format string `mapstructure:"format"`
}

// Logging returns the logging config.
func (l LogConfig) Logging() logging.Config {
	return logging.Config{Level: l.Level, Format: l.Format}
}

// ExportConfig contains static export settings.
type ExportConfig struct {
	// Output is the directory pages are written to.
	Output string `mapstructure:"output"`

	// Paths lists the pages to export.
	Paths []string `mapstructure:"paths"`

	// Concurrency is how many pages are rendered at once.
	Concurrency int `mapstructure:"concurrency"`

	// Bucket switches the export to S3 when set.
	Bucket string `mapstructure:"bucket"`

	// Prefix is prepended to S3 object keys.
	Prefix string `mapstructure:"prefix"`

	// Region is the S3 region.
	Region string `mapstructure:"region"`

	// Endpoint overrides the S3 endpoint, for S3 compatible stores.
	Endpoint string `mapstructure:"endpoint"`
}

// New returns a Config with default values.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            DefaultPort,
			Streaming:       true,
			MetricsPath:     "/metrics",
			ShutdownTimeout: 30 * time.Second,
		},
		Render: RenderConfig{
			MaxConcurrency: render.DefaultMaxConcurrency,
			SlotPrefix:     render.DefaultSlotPrefix,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Export: ExportConfig{
			Output:      DefaultOutput,
			Paths:       []string{"/"},
			Concurrency: 4,
			Region:      "us-east-1",
		},
	}
}

// NewViper returns a viper instance holding the defaults of New, reading
// SPANRENDER_* environment overrides. Commands bind their flags to it
// before calling Load.
func NewViper() *viper.Viper {
	v := viper.New()
	d := New()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.streaming", d.Server.Streaming)
	v.SetDefault("server.debug", d.Server.Debug)
	v.SetDefault("server.metrics_path", d.Server.MetricsPath)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("render.max_concurrency", d.Render.MaxConcurrency)
	v.SetDefault("render.slot_prefix", d.Render.SlotPrefix)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("export.output", d.Export.Output)
	v.SetDefault("export.paths", d.Export.Paths)
	v.SetDefault("export.concurrency", d.Export.Concurrency)
	v.SetDefault("export.bucket", d.Export.Bucket)
	v.SetDefault("export.prefix", d.Export.Prefix)
	v.SetDefault("export.region", d.Export.Region)
	v.SetDefault("export.endpoint", d.Export.Endpoint)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration into v and validates it. With an empty
// file it looks for spanrender.* in dir and falls back to defaults when
// there is none; a file that was named explicitly must exist.
func Load(v *viper.Viper, dir, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(ConfigName)
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case file == "" && stderrors.As(err, &notFound):
		case file != "" && stderrors.Is(err, fs.ErrNotExist):
			return nil, errors.New("E170").WithDetail(fmt.Sprintf("%s does not exist", file)).Wrap(err)
		default:
			return nil, errors.New("E171").WithDetail("the config file could not be parsed").Wrap(err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New("E171").Wrap(err)
	}
	cfg.path = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Path returns the file the config was read from, empty for defaults.
func (c *Config) Path() string {
	return c.path
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	invalid := func(detail string) error {
		return errors.New("E171").WithDetail(detail)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return invalid(fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}
	if c.Render.MaxConcurrency < 0 {
		return invalid("render.max_concurrency must not be negative")
	}
	if !protocol.ValidSlotID(c.Render.SlotPrefix) {
		return invalid(fmt.Sprintf("render.slot_prefix %q must start with a letter and contain only letters, digits, '-' and '_'", c.Render.SlotPrefix))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return invalid(err.Error())
	}
	if c.Log.Format != logging.FormatText && c.Log.Format != logging.FormatJSON {
		return invalid(fmt.Sprintf("log.format %q must be text or json", c.Log.Format))
	}
	if c.Export.Concurrency < 1 {
		return invalid("export.concurrency must be at least 1")
	}
	return nil
}

// Address returns the listen address.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// ServerConfig converts the configuration into a server config.
func (c *Config) ServerConfig(logger *slog.Logger) *server.ServerConfig {
	sc := server.DefaultServerConfig()
	sc.Address = c.Address()
	sc.Streaming = c.Server.Streaming
	sc.DebugMode = c.Server.Debug
	sc.MetricsPath = c.Server.MetricsPath
	sc.WriteTimeout = c.Server.WriteTimeout
	sc.ShutdownTimeout = c.Server.ShutdownTimeout
	sc.MaxConcurrency = c.Render.MaxConcurrency
	sc.SlotPrefix = c.Render.SlotPrefix
	sc.Logger = logger
	return sc
}
