// Package objectstorage provides S3 object storage access across multiple
// storage nodes addressed by alias.
package objectstorage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnknownAlias is returned when no storage node is configured for
	// the requested alias.
	ErrUnknownAlias = errors.New("unknown object storage alias")
	// ErrObjectNotFound is returned when an object does not exist.
	ErrObjectNotFound = errors.New("object not found")
)

// ObjectStorage is the object storage operations surface used by services.
// All presigned URLs are valid for the given expiry only.
type ObjectStorage interface {
	DoesBucketExist(ctx context.Context, bucket string) (bool, error)
	DoesObjectExist(ctx context.Context, bucket, object string) (bool, error)
	GetObjectSize(ctx context.Context, bucket, object string) (int64, error)
	GetObjectUploadURL(ctx context.Context, bucket, object string, expires time.Duration) (string, error)
	GetObjectDownloadURL(ctx context.Context, bucket, object string, expires time.Duration) (string, error)
	CopyObject(ctx context.Context, srcBucket, srcObject, destBucket, destObject string) error
	DeleteObject(ctx context.Context, bucket, object string) error
}
