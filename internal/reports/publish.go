package reports

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// PublishOptions configure the S3 destination.
type PublishOptions struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string // S3-compatible endpoint, empty for AWS
	AccessKey string // Static credentials; empty uses the default chain
	SecretKey string
}

// Uploader is the subset of the S3 upload manager the publisher needs.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Publisher copies generated reports to an S3 bucket.
type Publisher struct {
	uploader Uploader
	bucket   string
	prefix   string
	log      zerolog.Logger
}

// NewPublisher creates a publisher around an existing uploader.
func NewPublisher(uploader Uploader, bucket, prefix string, log zerolog.Logger) *Publisher {
	return &Publisher{
		uploader: uploader,
		bucket:   bucket,
		prefix:   prefix,
		log:      log.With().Str("service", "publish").Logger(),
	}
}

// NewS3Publisher resolves AWS configuration and builds an upload manager.
func NewS3Publisher(ctx context.Context, opts PublishOptions, log zerolog.Logger) (*Publisher, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(opts.Region)}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewPublisher(manager.NewUploader(client), opts.Bucket, opts.Prefix, log), nil
}

// PublishFiles uploads files under <prefix>/<runID>/, keyed by their path
// relative to root. It returns the uploaded object keys.
func (p *Publisher) PublishFiles(ctx context.Context, runID, root string, files []string) ([]string, error) {
	startTime := time.Now()
	p.log.Info().Str("bucket", p.bucket).Int("files", len(files)).Msg("Starting report upload")

	keys := make([]string, 0, len(files))
	for _, file := range files {
		rel, err := filepath.Rel(root, file)
		if err != nil {
			return keys, fmt.Errorf("failed to resolve %s: %w", file, err)
		}
		key := path.Join(p.prefix, runID, filepath.ToSlash(rel))
		if err := p.upload(ctx, file, key); err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}

	p.log.Info().
		Dur("duration", time.Since(startTime)).
		Int("objects", len(keys)).
		Msg("Report upload completed successfully")
	return keys, nil
}

// PublishDir uploads every regular file below dir.
func (p *Publisher) PublishDir(ctx context.Context, runID, root, dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	sort.Strings(files)
	return p.PublishFiles(ctx, runID, root, files)
}

func (p *Publisher) upload(ctx context.Context, file, key string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", file, err)
	}
	defer f.Close()

	out, err := p.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType(file)),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	p.log.Debug().Str("key", key).Str("location", out.Location).Msg("Uploaded report")
	return nil
}

func contentType(file string) string {
	switch filepath.Ext(file) {
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	case ".png":
		return "image/png"
	case ".yaml":
		return "application/yaml"
	}
	return "application/octet-stream"
}
