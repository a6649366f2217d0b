package backend

import (
	"context"
	"io"
	"net/url"
	"time"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Backend is the interface for object storage.
type Backend interface {
	io.Closer

	// URL returns the storage location. The scheme and host identify the
	// bucket; query parameters carry non-credential details.
	URL() *url.URL

	// Write an object, replacing any object with the same key
	Write(ctx context.Context, key, contentType string, r io.Reader) (*Object, error)

	// Stat returns the attributes of an object
	Stat(ctx context.Context, key string) (*Object, error)

	// Read object content. Caller must close the returned reader.
	Read(ctx context.Context, key string) (io.ReadCloser, *Object, error)

	// Delete an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error

	// SignedPutURL returns a URL which permits one write of the object with
	// the given content type until the expiry elapses.
	SignedPutURL(ctx context.Context, key, contentType string, expiry time.Duration) (string, error)

	// KeyFromURL verifies a URL returned by SignedPutURL and returns the
	// object key. Only backends which serve their own signed URLs
	// implement this.
	KeyFromURL(ctx context.Context, u *url.URL) (string, error)
}

// Object holds the attributes of a stored object.
type Object struct {
	Key         string    `json:"key"`
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType,omitempty"`
	ModTime     time.Time `json:"modTime,omitzero"`
	ETag        string    `json:"etag,omitempty"`
}
