package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/vango-dev/spanrender/internal/config"
	apperrors "github.com/vango-dev/spanrender/internal/errors"
	"github.com/vango-dev/spanrender/internal/logging"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌─┐┌─┐┌─┐┌┐┌┬─┐┌─┐┌┐┌┌┬┐┌─┐┬─┐
  └─┐├─┘├─┤│││├┬┘├┤ │││ ││├┤ ├┬┘
  └─┘┴  ┴ ┴┘└┘┴└─└─┘┘└┘─┴┘└─┘┴└─
`

// configEnv names the config file when --config is not given.
const configEnv = "SPANRENDER_CONFIG"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		apperrors.PrintError(err)
		os.Exit(1)
	}
}

// cli carries the state shared by all commands.
type cli struct {
	v          *viper.Viper
	configFile string
}

func newRootCmd() *cobra.Command {
	c := &cli{v: config.NewViper()}

	rootCmd := &cobra.Command{
		Use:   "spanrender",
		Short: "Streaming HTML rendering for Go",
		Long: `spanrender renders HTML templates with asynchronous values.

The page shell is sent as soon as it is known. Every value that is not
ready yet gets a placeholder, and its content follows in the same
response as it resolves:

  • out-of-order streaming over HTTP or WebSocket
  • buffered rendering for crawlers and ?__nostream
  • static export to a directory or an S3 bucket`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&c.configFile, "config", "c", "", "config file (default ./spanrender.yaml if present)")
	pf.String("log-level", "", "log level: debug, info, warn or error")
	pf.String("log-format", "", "log format: text or json")
	c.bind("log.level", pf.Lookup("log-level"))
	c.bind("log.format", pf.Lookup("log-format"))

	rootCmd.AddCommand(
		serveCmd(c),
		renderCmd(c),
		exportCmd(c),
		versionCmd(),
	)
	return rootCmd
}

// bind makes a flag override the config key when it is set.
func (c *cli) bind(key string, f *pflag.Flag) {
	if err := c.v.BindPFlag(key, f); err != nil {
		panic(err)
	}
}

// load reads the configuration and installs the configured logger as the
// default one.
func (c *cli) load() (*config.Config, *slog.Logger, error) {
	file := c.configFile
	if file == "" {
		file = os.Getenv(configEnv)
	}
	cfg, err := config.Load(c.v, ".", file)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.Setup(cfg.Log.Logging())
	if cfg.Path() != "" {
		logger.Debug("config loaded", "path", cfg.Path())
	}
	return cfg, logger, nil
}

// printBanner prints the spanrender banner.
func printBanner(w io.Writer) {
	fmt.Fprint(w, banner)
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
