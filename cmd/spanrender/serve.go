package main

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/vango-dev/spanrender/internal/config"
	"github.com/vango-dev/spanrender/internal/demo"
	"github.com/vango-dev/spanrender/pkg/server"
)

func serveCmd(c *cli) *cobra.Command {
	var (
		noStream bool
		delay    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the demo site",
		Long: `Serve the demo site with streamed rendering.

Pages are streamed to browsers and rendered buffered for crawlers or
when the URL carries ?__nostream. Every page can also be streamed over
a WebSocket at /_hs/stream/<path>.

Examples:
  spanrender serve
  spanrender serve --port 3000 --debug
  spanrender serve --no-stream --delay 1s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, c, noStream, delay)
		},
	}

	d := config.New()
	f := cmd.Flags()
	f.String("host", d.Server.Host, "interface to bind (default all)")
	f.IntP("port", "p", d.Server.Port, "port to listen on")
	f.Bool("debug", d.Server.Debug, "show error details in responses")
	f.String("metrics-path", d.Server.MetricsPath, "path of the Prometheus endpoint, empty disables it")
	f.BoolVar(&noStream, "no-stream", false, "always render buffered")
	f.DurationVar(&delay, "delay", demo.DefaultDelay, "latency of the simulated backends")
	c.bind("server.host", f.Lookup("host"))
	c.bind("server.port", f.Lookup("port"))
	c.bind("server.debug", f.Lookup("debug"))
	c.bind("server.metrics_path", f.Lookup("metrics-path"))

	return cmd
}

func runServe(cmd *cobra.Command, c *cli, noStream bool, delay time.Duration) error {
	cfg, logger, err := c.load()
	if err != nil {
		return err
	}
	if noStream {
		cfg.Server.Streaming = false
	}

	srv := server.New(cfg.ServerConfig(logger))
	demo.New(delay).Register(srv)

	out := cmd.OutOrStdout()
	printBanner(out)
	host := cfg.Server.Host
	if host == "" {
		host = "localhost"
	}
	success(out, "Serving on http://%s:%d", host, cfg.Server.Port)
	if cfg.Path() != "" {
		info(out, "Config:    %s", cfg.Path())
	}
	if cfg.Server.MetricsPath != "" {
		info(out, "Metrics:   http://%s:%d%s", host, cfg.Server.Port, cfg.Server.MetricsPath)
	}
	if !cfg.Server.Streaming {
		warn(out, "Streaming is disabled, every page renders buffered")
	}
	if cfg.Server.Debug {
		warn(out, "Debug mode shows error details to clients")
	}

	return srv.Run()
}
