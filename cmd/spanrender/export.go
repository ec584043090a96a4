package main

import (
	"context"
	"os"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"
	"github.com/vango-dev/spanrender/internal/config"
	"github.com/vango-dev/spanrender/internal/demo"
	apperrors "github.com/vango-dev/spanrender/internal/errors"
	"github.com/vango-dev/spanrender/pkg/export"
	"github.com/vango-dev/spanrender/pkg/server"
)

func exportCmd(c *cli) *cobra.Command {
	var (
		all   bool
		delay time.Duration
	)

	cmd := &cobra.Command{
		Use:   "export [paths...]",
		Short: "Render pages to static files",
		Long: `Render pages buffered and publish them as static files.

Pages are written to the output directory, or uploaded to an S3 bucket
when --bucket is set. S3 credentials are read from AWS_ACCESS_KEY_ID,
AWS_SECRET_ACCESS_KEY and AWS_SESSION_TOKEN.

Paths come from the arguments, else from export.paths in the config.
--all exports every demo page.

Examples:
  spanrender export --all
  spanrender export / /dashboard -o public
  spanrender export --all --bucket my-site --prefix preview/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, c, args, all, delay)
		},
	}

	d := config.New()
	f := cmd.Flags()
	f.BoolVar(&all, "all", false, "export every demo page")
	f.DurationVar(&delay, "delay", 0, "latency of the simulated backends")
	f.StringP("output", "o", d.Export.Output, "output directory")
	f.IntP("concurrency", "j", d.Export.Concurrency, "pages rendered at once")
	f.String("bucket", "", "S3 bucket to upload to instead of the output directory")
	f.String("prefix", "", "prefix of the S3 object keys")
	f.String("region", d.Export.Region, "S3 region")
	f.String("endpoint", "", "S3 endpoint, for S3 compatible stores")
	c.bind("export.output", f.Lookup("output"))
	c.bind("export.concurrency", f.Lookup("concurrency"))
	c.bind("export.bucket", f.Lookup("bucket"))
	c.bind("export.prefix", f.Lookup("prefix"))
	c.bind("export.region", f.Lookup("region"))
	c.bind("export.endpoint", f.Lookup("endpoint"))

	return cmd
}

func runExport(cmd *cobra.Command, c *cli, args []string, all bool, delay time.Duration) error {
	cfg, logger, err := c.load()
	if err != nil {
		return err
	}

	srv := server.New(cfg.ServerConfig(logger))
	app := demo.New(delay)
	app.Register(srv)

	paths := cfg.Export.Paths
	switch {
	case len(args) > 0:
		paths = args
	case all:
		paths = app.Paths()
	}

	pub, dest, err := publisher(cfg.Export)
	if err != nil {
		return err
	}

	exp := export.New(srv, pub,
		export.WithConcurrency(cfg.Export.Concurrency),
		export.WithLogger(logger.With("component", "export")),
	)
	pages, err := exp.Export(cmd.Context(), paths)

	out := cmd.OutOrStdout()
	for _, p := range pages {
		info(out, "%-24s %s (%d bytes, %s)", p.Path, p.Key, p.Bytes, p.Duration.Round(time.Millisecond))
	}
	if err != nil {
		return err
	}
	success(out, "Exported %d pages to %s", len(pages), dest)
	return nil
}

// publisher returns where pages go and a description of it.
func publisher(cfg config.ExportConfig) (export.Publisher, string, error) {
	if cfg.Bucket == "" {
		return &export.DirPublisher{Root: cfg.Output}, cfg.Output, nil
	}
	client, err := newS3Client(cfg)
	if err != nil {
		return nil, "", err
	}
	return export.NewS3Publisher(client, cfg.Bucket, cfg.Prefix), "s3://" + path.Join(cfg.Bucket, cfg.Prefix), nil
}

// newS3Client builds a client from the export settings and the standard
// AWS environment variables.
func newS3Client(cfg config.ExportConfig) (*s3.Client, error) {
	id, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY")
	if id == "" || secret == "" {
		return nil, apperrors.New("E180").
			WithDetail("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set to export to S3")
	}
	creds := aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		return aws.Credentials{
			AccessKeyID:     id,
			SecretAccessKey: secret,
			SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
			Source:          "environment",
		}, nil
	})

	opts := s3.Options{
		Region:      cfg.Region,
		Credentials: aws.NewCredentialsCache(creds),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts), nil
}
