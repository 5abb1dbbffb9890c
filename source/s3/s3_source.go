package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/hupe1980/recgo/source"
)

const (
	// DefaultPartSize is the size of each ranged GET in a parallel download.
	DefaultPartSize = manager.DefaultDownloadPartSize
	// DefaultConcurrency is the number of parallel ranged GETs.
	DefaultConcurrency = manager.DefaultDownloadConcurrency
	// DefaultDownloadThreshold is the object size above which downloads
	// are split into parts.
	DefaultDownloadThreshold = 16 << 20
)

// Client is the subset of the S3 API used by Source.
// *s3.Client satisfies it.
type Client interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

var _ manager.DownloadAPIClient = (Client)(nil)

// Source implements source.Source for S3.
type Source struct {
	client      Client
	bucket      string
	prefix      string
	partSize    int64
	concurrency int
	threshold   int64
}

type options struct {
	prefix      string
	region      string
	endpoint    string
	partSize    int64
	concurrency int
	threshold   int64
	loadOptions []func(*config.LoadOptions) error
}

// Option configures a Source.
type Option func(*options)

// WithPrefix sets the key prefix prepended to every dataset name.
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithRegion sets the AWS region. Only used by New.
func WithRegion(region string) Option {
	return func(o *options) { o.region = region }
}

// WithEndpoint sets a custom endpoint, e.g. for LocalStack. Only used by New.
func WithEndpoint(endpoint string) Option {
	return func(o *options) { o.endpoint = endpoint }
}

// WithPartSize sets the size of each ranged GET.
func WithPartSize(n int64) Option {
	return func(o *options) { o.partSize = n }
}

// WithConcurrency sets the number of parallel ranged GETs.
func WithConcurrency(n int) Option {
	return func(o *options) { o.concurrency = n }
}

// WithDownloadThreshold sets the object size above which parallel ranged
// downloads are used. Zero always downloads in parts.
func WithDownloadThreshold(n int64) Option {
	return func(o *options) { o.threshold = n }
}

// WithLoadOptions passes options to config.LoadDefaultConfig. Only used by New.
func WithLoadOptions(optFns ...func(*config.LoadOptions) error) Option {
	return func(o *options) { o.loadOptions = append(o.loadOptions, optFns...) }
}

func applyOptions(optFns []Option) options {
	o := options{
		partSize:    DefaultPartSize,
		concurrency: DefaultConcurrency,
		threshold:   DefaultDownloadThreshold,
	}
	for _, fn := range optFns {
		fn(&o)
	}
	if o.partSize <= 0 {
		o.partSize = DefaultPartSize
	}
	if o.concurrency <= 0 {
		o.concurrency = DefaultConcurrency
	}
	return o
}

// New creates a Source using the default AWS credential chain.
func New(ctx context.Context, bucket string, optFns ...Option) (*Source, error) {
	o := applyOptions(optFns)

	loadOpts := o.loadOptions
	if o.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(o.region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(so *s3.Options) {
		if o.endpoint != "" {
			so.BaseEndpoint = aws.String(o.endpoint)
			so.UsePathStyle = true
		}
	})

	return newSource(client, bucket, o), nil
}

// NewSource creates a Source from an existing client.
func NewSource(client Client, bucket string, optFns ...Option) *Source {
	return newSource(client, bucket, applyOptions(optFns))
}

func newSource(client Client, bucket string, o options) *Source {
	return &Source{
		client:      client,
		bucket:      bucket,
		prefix:      o.prefix,
		partSize:    o.partSize,
		concurrency: o.concurrency,
		threshold:   o.threshold,
	}
}

func (s *Source) key(name string) string {
	return path.Join(s.prefix, name)
}

// Open downloads a dataset. Objects larger than the download threshold are
// fetched with parallel ranged GETs into memory; smaller ones are streamed.
func (s *Source) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	key := s.key(name)

	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, source.ErrNotFound
		}
		return nil, err
	}

	size := aws.ToInt64(head.ContentLength)
	if size <= s.threshold {
		resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			if isNotFound(err) {
				return nil, source.ErrNotFound
			}
			return nil, err
		}
		return resp.Body, nil
	}

	downloader := manager.NewDownloader(s.client, func(d *manager.Downloader) {
		d.PartSize = s.partSize
		d.Concurrency = s.concurrency
	})

	buf := manager.NewWriteAtBuffer(make([]byte, 0, size))
	n, err := downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, source.ErrNotFound
		}
		return nil, err
	}

	return io.NopCloser(bytes.NewReader(buf.Bytes()[:n])), nil
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var ae smithy.APIError
	if errors.As(err, &ae) {
		switch ae.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}
