package storage

import (
	"context"
	"io"
)

// ObjectStorage defines the interface for card image storage operations
type ObjectStorage interface {
	// Upload uploads an object to storage
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// GetURL returns the public URL for accessing an object
	GetURL(key string) string

	// KeyFromURL maps a public URL back to its object key, returning
	// false when the URL does not belong to this storage
	KeyFromURL(url string) (string, bool)

	// Delete deletes an object from storage
	Delete(ctx context.Context, key string) error

	// Exists checks if an object exists
	Exists(ctx context.Context, key string) (bool, error)
}
