package main

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/vango-dev/spanrender/internal/demo"
	"github.com/vango-dev/spanrender/internal/pagepath"
	"github.com/vango-dev/spanrender/pkg/server"
)

// cliUserAgent identifies requests made by the render command. It is not
// a crawler, so pages stream unless --no-stream is given.
const cliUserAgent = "spanrender-cli"

func renderCmd(c *cli) *cobra.Command {
	var (
		noStream bool
		delay    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "render [path]",
		Short: "Render a demo page to stdout",
		Long: `Render a demo page and write the response body to stdout.

The body is written as the server produces it: the shell first, then
every content chunk as its value resolves. With --no-stream the page is
rendered buffered, exactly as a crawler would see it.

Examples:
  spanrender render /dashboard
  spanrender render /posts/streaming --no-stream`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "/"
			if len(args) == 1 {
				target = args[0]
			}
			return runRender(cmd, c, target, noStream, delay)
		},
	}

	cmd.Flags().BoolVar(&noStream, "no-stream", false, "render buffered")
	cmd.Flags().DurationVar(&delay, "delay", demo.DefaultDelay, "latency of the simulated backends")

	return cmd
}

func runRender(cmd *cobra.Command, c *cli, target string, noStream bool, delay time.Duration) error {
	cfg, logger, err := c.load()
	if err != nil {
		return err
	}

	t, err := pagepath.Parse(target)
	if err != nil {
		return fmt.Errorf("%s: %w", target, err)
	}
	u := t.URL()
	if noStream {
		q := u.Query()
		q.Set(server.NoStreamParam, "1")
		u.RawQuery = q.Encode()
	}

	srv := server.New(cfg.ServerConfig(logger))
	demo.New(delay).Register(srv)

	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.RequestURI = u.RequestURI()
	req.Header.Set("User-Agent", cliUserAgent)

	w := &outputWriter{out: cmd.OutOrStdout(), header: http.Header{}}
	srv.ServeHTTP(w, req)
	if w.status >= http.StatusBadRequest {
		return fmt.Errorf("%s: %d %s", target, w.status, http.StatusText(w.status))
	}
	return nil
}

// outputWriter is a ResponseWriter copying the body to out as it is
// written.
type outputWriter struct {
	out    io.Writer
	header http.Header
	status int
}

func (w *outputWriter) Header() http.Header { return w.header }

func (w *outputWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
}

func (w *outputWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.out.Write(p)
}

func (w *outputWriter) Flush() {
	if f, ok := w.out.(interface{ Sync() error }); ok {
		_ = f.Sync()
	}
}
