package artifact

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dd0wney/caida-topogen/pkg/logging"
)

var (
	// ErrBadURI is returned for an upload target that is not s3://bucket/key.
	ErrBadURI = errors.New("upload target must be s3://bucket/key")
	// ErrPublish wraps upload failures.
	ErrPublish = errors.New("publish failed")
)

// ContentType is sent with every uploaded GML object.
const ContentType = "text/plain; charset=utf-8"

// ParseS3URI splits s3://bucket/key.
func ParseS3URI(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("%w: %q", ErrBadURI, uri)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if key == "" || strings.HasSuffix(key, "/") {
		return "", "", fmt.Errorf("%w: %q has no object key", ErrBadURI, uri)
	}
	return u.Host, key, nil
}

// PutObjectAPI is the slice of the S3 client the publisher needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Options configures the client built by NewS3Publisher. Empty fields
// fall back to the SDK's default chain (environment, shared config, IMDS).
type S3Options struct {
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UsePathStyle    bool   `yaml:"use_path_style"`
}

// S3Publisher uploads files with their digest as object metadata.
type S3Publisher struct {
	client PutObjectAPI
	logger logging.Logger
}

// NewS3Publisher loads AWS configuration and builds an S3 client.
func NewS3Publisher(ctx context.Context, opts S3Options, logger logging.Logger) (*S3Publisher, error) {
	var loaders []func(*config.LoadOptions) error
	if opts.Region != "" {
		loaders = append(loaders, config.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loaders = append(loaders, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, fmt.Errorf("%w: load aws config: %w", ErrPublish, err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})
	return NewS3PublisherWithClient(client, logger), nil
}

// NewS3PublisherWithClient wraps an existing client.
func NewS3PublisherWithClient(client PutObjectAPI, logger logging.Logger) *S3Publisher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &S3Publisher{client: client, logger: logger}
}

// Publish uploads the file at path to uri, tagging it with digest.
func (p *S3Publisher) Publish(ctx context.Context, path, uri, digest string) error {
	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}

	timer := logging.StartTimer(p.logger, "uploading topology", logging.String("bucket", bucket), logging.String("key", key))
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String(ContentType),
		Metadata:      map[string]string{DigestAlgorithm: digest},
	})
	if err != nil {
		timer.EndError(err)
		return fmt.Errorf("%w: s3://%s/%s: %w", ErrPublish, bucket, key, err)
	}
	timer.End(logging.Int64("bytes", info.Size()))
	return nil
}
