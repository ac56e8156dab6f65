package photo

import (
	"context"
	"fmt"
	"strings"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	"gocloud.dev/gcerrors"
)

// BlobStorage stores photos in any gocloud.dev bucket. Objects are served
// from PublicBaseURL, typically a CDN in front of the bucket.
type BlobStorage struct {
	Bucket        *blob.Bucket
	PublicBaseURL string

	// Prefix is prepended to every object key, e.g. "pets/".
	Prefix string
}

var _ Storage = (*BlobStorage)(nil)

// OpenBlobStorage opens the bucket at bucketURL ("file:///var/photos",
// "mem://", ...).
func OpenBlobStorage(ctx context.Context, bucketURL, publicBaseURL string) (*BlobStorage, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("open bucket %q: %w", bucketURL, err)
	}
	return &BlobStorage{
		Bucket:        bucket,
		PublicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
	}, nil
}

func (s *BlobStorage) Upload(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	key := s.Prefix + name
	err := s.Bucket.WriteAll(ctx, key, data, &blob.WriterOptions{ContentType: contentType})
	if err != nil {
		if gcerrors.Code(err) == gcerrors.PermissionDenied {
			return "", &PolicyError{Err: err}
		}
		return "", fmt.Errorf("write %q: %w", key, err)
	}
	return key, nil
}

// PublicURL returns "" when no public base URL is configured.
func (s *BlobStorage) PublicURL(_ context.Context, path string) (string, error) {
	if s.PublicBaseURL == "" || path == "" {
		return "", nil
	}
	return s.PublicBaseURL + "/" + path, nil
}

func (s *BlobStorage) Close() error {
	return s.Bucket.Close()
}
