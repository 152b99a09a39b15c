package gcsuploader

import (
	"context"
	"io"
)

// ObjectStorage provides an interface for cloud storage operations.
// This interface enables mocking and testing of storage functionality.
type ObjectStorage interface {
	// Upload writes r to bucket/object with the given content type.
	Upload(ctx context.Context, bucket, object string, r io.Reader, contentType string) error

	// Fetch downloads the bytes of a gs:// URI.
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

var _ ObjectStorage = (*Client)(nil)
