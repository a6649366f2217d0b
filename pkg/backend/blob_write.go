package backend

import (
	"context"
	"errors"
	"io"

	// Packages
	blob "gocloud.dev/blob"
	gcerrors "gocloud.dev/gcerrors"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Write an object to the backend. A partial object is removed when the
// write fails.
func (b *blobbackend) Write(ctx context.Context, key, contentType string, r io.Reader) (*Object, error) {
	sk, err := b.storageKey(key)
	if err != nil {
		return nil, err
	}

	// Write the object
	if w, err := b.bucket.NewWriter(ctx, sk, &blob.WriterOptions{
		ContentType: contentType,
	}); err != nil {
		return nil, blobErr(err, key)
	} else if _, err := io.Copy(w, r); err != nil {
		err = errors.Join(err, w.Close())
		b.bucket.Delete(context.WithoutCancel(ctx), sk)
		return nil, blobErr(err, key)
	} else if err := w.Close(); err != nil {
		b.bucket.Delete(context.WithoutCancel(ctx), sk)
		return nil, blobErr(err, key)
	}

	// Get attributes to return
	attrs, err := b.bucket.Attributes(ctx, sk)
	if err != nil {
		// The write succeeded but we couldn't fetch the final metadata.
		return &Object{Key: key, ContentType: contentType}, nil
	}

	// Return success
	return attrsToObject(b.objectKey(sk), attrs), nil
}

// Delete an object
func (b *blobbackend) Delete(ctx context.Context, key string) error {
	sk, err := b.storageKey(key)
	if err != nil {
		return err
	}
	if err := b.bucket.Delete(ctx, sk); err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		return blobErr(err, key)
	}
	return nil
}
