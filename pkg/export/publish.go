package export

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Publisher stores one exported file. key is a slash-separated relative
// path such as "blog/hello/index.html".
type Publisher interface {
	Publish(ctx context.Context, key string, body []byte) error
}

// DirPublisher writes exported files below Root.
type DirPublisher struct {
	Root string

	// Perm is the mode of created files. Default: 0o644.
	Perm os.FileMode
}

// Publish implements Publisher.
func (p *DirPublisher) Publish(ctx context.Context, key string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !filepath.IsLocal(filepath.FromSlash(key)) {
		return fmt.Errorf("export: key %q escapes the output directory", key)
	}
	perm := p.Perm
	if perm == 0 {
		perm = 0o644
	}

	dst := filepath.Join(p.Root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, body, perm)
}

// S3API is the part of *s3.Client that S3Publisher uses.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Publisher uploads exported files to an S3 bucket.
//
// Example usage:
//
//	client := s3.New(s3.Options{Region: "eu-west-1", Credentials: creds})
//	pub := export.NewS3Publisher(client, "my-site", "preview/")
type S3Publisher struct {
	client       S3API
	bucket       string
	prefix       string
	cacheControl string
}

// NewS3Publisher creates a publisher writing keys below prefix in bucket.
func NewS3Publisher(client S3API, bucket, prefix string) *S3Publisher {
	return &S3Publisher{
		client:       client,
		bucket:       bucket,
		prefix:       prefix,
		cacheControl: "public, max-age=300",
	}
}

// WithCacheControl sets the Cache-Control of uploaded objects.
func (p *S3Publisher) WithCacheControl(v string) *S3Publisher {
	p.cacheControl = v
	return p
}

// Publish implements Publisher.
func (p *S3Publisher) Publish(ctx context.Context, key string, body []byte) error {
	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(p.bucket),
		Key:          aws.String(strings.TrimPrefix(p.prefix+key, "/")),
		Body:         bytes.NewReader(body),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String(p.cacheControl),
	})
	if err != nil {
		return fmt.Errorf("export: s3 upload of %s failed: %w", key, err)
	}
	return nil
}
