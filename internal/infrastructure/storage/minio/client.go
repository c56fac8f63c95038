// Package minio provides object storage for the platform: the mirrored GEO
// MINiML records the extraction pipeline reads, and the raw reference corpora
// the rebuild job parses.
package minio

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/turtacn/geometax/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/geometax/pkg/errors"
)

// BucketConfig names the buckets the platform uses.
type BucketConfig struct {
	// Records holds mirrored GSM/GSE MINiML XML documents.
	Records string `mapstructure:"records"`
	// Reference holds raw reference corpus releases.
	Reference string `mapstructure:"reference"`
}

// Config carries MinIO connection settings.
type Config struct {
	Endpoint        string       `mapstructure:"endpoint"`
	AccessKeyID     string       `mapstructure:"access_key_id"`
	SecretAccessKey string       `mapstructure:"secret_access_key"`
	UseSSL          bool         `mapstructure:"use_ssl"`
	Region          string       `mapstructure:"region"`
	Buckets         BucketConfig `mapstructure:"buckets"`
}

func applyDefaults(cfg *Config) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.Buckets.Records == "" {
		cfg.Buckets.Records = "geometax-records"
	}
	if cfg.Buckets.Reference == "" {
		cfg.Buckets.Reference = "geometax-reference"
	}
}

// ObjectClient is the narrow object-storage surface the stores consume.
type ObjectClient interface {
	Download(ctx context.Context, bucket, key string) ([]byte, error)
	DownloadStream(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	Upload(ctx context.Context, bucket, key string, r io.Reader, size int64) error
	Exists(ctx context.Context, bucket, key string) (bool, error)
	Remove(ctx context.Context, bucket, key string) error
}

// Client wraps the MinIO SDK behind ObjectClient.
type Client struct {
	api    *minio.Client
	config *Config
	logger logging.Logger
	mu     sync.RWMutex
	closed bool
}

// NewClient connects to MinIO, verifies reachability, and ensures the
// configured buckets exist.
func NewClient(cfg *Config, log logging.Logger) (*Client, error) {
	applyDefaults(cfg)
	if log == nil {
		log = logging.NewNopLogger()
	}

	api, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create minio client")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := api.ListBuckets(ctx); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeServiceUnavailable, "failed to connect to minio")
	}

	c := &Client{api: api, config: cfg, logger: log}
	for _, bucket := range []string{cfg.Buckets.Records, cfg.Buckets.Reference} {
		if err := c.ensureBucket(ctx, bucket); err != nil {
			return nil, err
		}
	}

	log.Info("minio client connected",
		logging.String("endpoint", cfg.Endpoint),
		logging.Bool("ssl", cfg.UseSSL))
	return c, nil
}

func (c *Client) ensureBucket(ctx context.Context, bucket string) error {
	exists, err := c.api.BucketExists(ctx, bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to check bucket existence").
			WithDetail(bucket)
	}
	if !exists {
		if err := c.api.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: c.config.Region}); err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to create bucket").
				WithDetail(bucket)
		}
		c.logger.Info("created bucket", logging.String("bucket", bucket))
	}
	return nil
}

// Buckets returns the configured bucket names.
func (c *Client) Buckets() BucketConfig { return c.config.Buckets }

var errClientClosed = errors.New(errors.ErrCodeInternal, "minio client is closed")

func (c *Client) guard() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errClientClosed
	}
	return nil
}

// Download reads a whole object into memory.
func (c *Client) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	rc, err := c.DownloadStream(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, wrapObjectError(err, bucket, key)
	}
	return data, nil
}

// DownloadStream opens an object for reading.  Absence surfaces on the first
// read, so a stat precedes the open to fail fast with not-found.
func (c *Client) DownloadStream(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	if err := c.guard(); err != nil {
		return nil, err
	}
	if _, err := c.api.StatObject(ctx, bucket, key, minio.StatObjectOptions{}); err != nil {
		return nil, wrapObjectError(err, bucket, key)
	}
	obj, err := c.api.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, wrapObjectError(err, bucket, key)
	}
	return obj, nil
}

// Upload writes an object.  Size may be -1 for streams of unknown length.
func (c *Client) Upload(ctx context.Context, bucket, key string, r io.Reader, size int64) error {
	if err := c.guard(); err != nil {
		return err
	}
	if _, err := c.api.PutObject(ctx, bucket, key, r, size, minio.PutObjectOptions{}); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to upload object").
			WithDetail(bucket + "/" + key)
	}
	return nil
}

// Exists reports whether an object is present.
func (c *Client) Exists(ctx context.Context, bucket, key string) (bool, error) {
	if err := c.guard(); err != nil {
		return false, err
	}
	_, err := c.api.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if isNoSuchKey(err) {
		return false, nil
	}
	return false, wrapObjectError(err, bucket, key)
}

// Remove deletes an object.
func (c *Client) Remove(ctx context.Context, bucket, key string) error {
	if err := c.guard(); err != nil {
		return err
	}
	if err := c.api.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return wrapObjectError(err, bucket, key)
	}
	return nil
}

// HealthCheck verifies the endpoint responds.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.guard(); err != nil {
		return err
	}
	if _, err := c.api.ListBuckets(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "minio health check failed")
	}
	return nil
}

// Close marks the client closed; subsequent operations fail.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket"
}

func wrapObjectError(err error, bucket, key string) error {
	if isNoSuchKey(err) {
		return errors.Wrap(err, errors.ErrCodeNotFound, "object not found").
			WithDetail(bucket + "/" + key)
	}
	return errors.Wrap(err, errors.ErrCodeInternal, "object storage request failed").
		WithDetail(bucket + "/" + key)
}

var _ ObjectClient = (*Client)(nil)
