package backend

import (
	"context"
	"io"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Stat returns object attributes
func (b *blobbackend) Stat(ctx context.Context, key string) (*Object, error) {
	sk, err := b.storageKey(key)
	if err != nil {
		return nil, err
	}
	attrs, err := b.bucket.Attributes(ctx, sk)
	if err != nil {
		return nil, blobErr(err, key)
	}
	return attrsToObject(b.objectKey(sk), attrs), nil
}

// Read reads object content
func (b *blobbackend) Read(ctx context.Context, key string) (io.ReadCloser, *Object, error) {
	obj, err := b.Stat(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	sk, _ := b.storageKey(key)
	r, err := b.bucket.NewReader(ctx, sk, nil)
	if err != nil {
		return nil, nil, blobErr(err, key)
	}
	return r, obj, nil
}
