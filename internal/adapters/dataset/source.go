// Package dataset loads the business CSV from HTTP, S3 or the local disk
// and keeps the decoded result for the life of the process.
package dataset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Source opens the raw CSV bytes. Callers close the returned reader.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	String() string
}

// SourceOption configures NewSource.
type SourceOption func(*sourceConfig)

type sourceConfig struct {
	httpClient  *http.Client
	s3Region    string
	s3Endpoint  string
	s3AccessKey string
	s3SecretKey string
}

// WithHTTPClient overrides the client used for http(s) sources.
func WithHTTPClient(c *http.Client) SourceOption {
	return func(sc *sourceConfig) {
		if c != nil {
			sc.httpClient = c
		}
	}
}

// WithS3Region sets the region for s3 sources.
func WithS3Region(region string) SourceOption {
	return func(sc *sourceConfig) {
		if region != "" {
			sc.s3Region = region
		}
	}
}

// WithS3Endpoint points s3 sources at a custom endpoint (MinIO and friends).
// Path-style addressing is used whenever an endpoint is set.
func WithS3Endpoint(endpoint string) SourceOption {
	return func(sc *sourceConfig) {
		sc.s3Endpoint = endpoint
	}
}

// WithS3StaticCredentials uses fixed keys instead of the default AWS chain.
func WithS3StaticCredentials(accessKey, secretKey string) SourceOption {
	return func(sc *sourceConfig) {
		sc.s3AccessKey = accessKey
		sc.s3SecretKey = secretKey
	}
}

// httpClient is a shared HTTP client with reasonable timeouts.
var httpClient = &http.Client{
	Timeout: 30 * time.Second,
}

// NewSource picks a Source implementation from the URL scheme:
// http and https, s3://bucket/key, file:// or a bare path.
func NewSource(ctx context.Context, rawURL string, opts ...SourceOption) (Source, error) {
	sc := &sourceConfig{
		httpClient: httpClient,
		s3Region:   "us-east-1",
	}
	for _, opt := range opts {
		opt(sc)
	}

	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, fmt.Errorf("%w: empty url", ErrUnsupportedSource)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedSource, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return &HTTPSource{URL: rawURL, Client: sc.httpClient}, nil
	case "s3":
		return newS3Source(ctx, u, sc)
	case "file":
		p := u.Path
		if p == "" {
			p = u.Opaque
		}
		return &FileSource{Path: p}, nil
	case "":
		return &FileSource{Path: rawURL}, nil
	default:
		return nil, fmt.Errorf("%w: scheme %q", ErrUnsupportedSource, u.Scheme)
	}
}

// HTTPSource downloads the CSV with a GET request.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

// Open implements Source.
func (s *HTTPSource) Open(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: HTTP GET %s: %v", ErrFetch, s.URL, err)
	}
	client := s.Client
	if client == nil {
		client = httpClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: HTTP GET %s: %v", ErrFetch, s.URL, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: HTTP GET %s: status %d", ErrFetch, s.URL, resp.StatusCode)
	}
	return resp.Body, nil
}

func (s *HTTPSource) String() string { return s.URL }

// S3Source reads the CSV object from a bucket.
type S3Source struct {
	Bucket string
	Key    string
	client *s3.Client
}

func newS3Source(ctx context.Context, u *url.URL, sc *sourceConfig) (*S3Source, error) {
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("%w: s3 url needs bucket and key: %s", ErrUnsupportedSource, u.String())
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(sc.s3Region),
	}
	if sc.s3AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(sc.s3AccessKey, sc.s3SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if sc.s3Endpoint != "" {
			o.BaseEndpoint = aws.String(sc.s3Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Source{Bucket: bucket, Key: key, client: client}, nil
}

// Open implements Source.
func (s *S3Source) Open(ctx context.Context) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: s3 get %s: %v", ErrFetch, s.String(), err)
	}
	return out.Body, nil
}

func (s *S3Source) String() string { return "s3://" + s.Bucket + "/" + s.Key }

// FileSource reads the CSV from the local filesystem.
type FileSource struct {
	Path string
}

// Open implements Source.
func (s *FileSource) Open(_ context.Context) (io.ReadCloser, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	return f, nil
}

func (s *FileSource) String() string { return "file://" + s.Path }
