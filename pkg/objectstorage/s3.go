package objectstorage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config holds the credentials and endpoint of one S3 storage node.
type S3Config struct {
	EndpointURL     string `yaml:"s3_endpoint_url"`
	AccessKeyID     string `yaml:"s3_access_key_id"`
	SecretAccessKey string `yaml:"s3_secret_access_key"`
	SessionToken    string `yaml:"s3_session_token"`
	Region          string `yaml:"region"`
	// PathStyle forces path-style bucket addressing, needed for most
	// self-hosted S3 gateways.
	PathStyle bool `yaml:"path_style"`
}

// S3Storage implements ObjectStorage against a single S3 endpoint.
type S3Storage struct {
	client *minio.Client
}

// NewS3Storage connects a storage client to the configured endpoint. The
// endpoint URL scheme decides whether TLS is used.
func NewS3Storage(cfg S3Config) (*S3Storage, error) {
	if cfg.EndpointURL == "" {
		return nil, errors.New("s3 endpoint URL must be configured")
	}
	endpoint, err := url.Parse(cfg.EndpointURL)
	if err != nil {
		return nil, fmt.Errorf("parsing s3 endpoint URL: %w", err)
	}
	if endpoint.Host == "" {
		return nil, fmt.Errorf("s3 endpoint URL %q has no host", cfg.EndpointURL)
	}
	lookup := minio.BucketLookupAuto
	if cfg.PathStyle {
		lookup = minio.BucketLookupPath
	}
	client, err := minio.New(endpoint.Host, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		Secure:       endpoint.Scheme == "https",
		Region:       cfg.Region,
		BucketLookup: lookup,
	})
	if err != nil {
		return nil, fmt.Errorf("creating s3 client: %w", err)
	}
	return &S3Storage{client: client}, nil
}

func (s *S3Storage) DoesBucketExist(ctx context.Context, bucket string) (bool, error) {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return false, fmt.Errorf("checking bucket %q: %w", bucket, err)
	}
	return exists, nil
}

func (s *S3Storage) DoesObjectExist(ctx context.Context, bucket, object string) (bool, error) {
	_, err := s.client.StatObject(ctx, bucket, object, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
			return false, nil
		}
		return false, fmt.Errorf("checking object %q in bucket %q: %w", object, bucket, err)
	}
	return true, nil
}

func (s *S3Storage) GetObjectSize(ctx context.Context, bucket, object string) (int64, error) {
	info, err := s.client.StatObject(ctx, bucket, object, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return 0, fmt.Errorf("%w: %s/%s", ErrObjectNotFound, bucket, object)
		}
		return 0, fmt.Errorf("getting size of object %q in bucket %q: %w", object, bucket, err)
	}
	return info.Size, nil
}

func (s *S3Storage) GetObjectUploadURL(ctx context.Context, bucket, object string, expires time.Duration) (string, error) {
	u, err := s.client.PresignedPutObject(ctx, bucket, object, expires)
	if err != nil {
		return "", fmt.Errorf("presigning upload URL for %q in bucket %q: %w", object, bucket, err)
	}
	return u.String(), nil
}

func (s *S3Storage) GetObjectDownloadURL(ctx context.Context, bucket, object string, expires time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, bucket, object, expires, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presigning download URL for %q in bucket %q: %w", object, bucket, err)
	}
	return u.String(), nil
}

func (s *S3Storage) CopyObject(ctx context.Context, srcBucket, srcObject, destBucket, destObject string) error {
	_, err := s.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: destBucket, Object: destObject},
		minio.CopySrcOptions{Bucket: srcBucket, Object: srcObject},
	)
	if err != nil {
		return fmt.Errorf("copying object %s/%s to %s/%s: %w", srcBucket, srcObject, destBucket, destObject, err)
	}
	return nil
}

func (s *S3Storage) DeleteObject(ctx context.Context, bucket, object string) error {
	if err := s.client.RemoveObject(ctx, bucket, object, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("deleting object %q from bucket %q: %w", object, bucket, err)
	}
	return nil
}
