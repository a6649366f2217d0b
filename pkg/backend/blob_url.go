package backend

import (
	"context"
	"net/http"
	"net/url"
	"time"

	// Packages
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	blob "gocloud.dev/blob"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// SignedPutURL returns a URL which permits a PUT of the object with the
// given content type until expiry elapses. The mem:// backend, and a file://
// backend without a signer, do not support signed URLs.
func (b *blobbackend) SignedPutURL(ctx context.Context, key, contentType string, expiry time.Duration) (string, error) {
	sk, err := b.storageKey(key)
	if err != nil {
		return "", err
	}
	if expiry <= 0 {
		return "", httpresponse.ErrBadRequest.Withf("invalid expiry %v", expiry)
	}
	u, err := b.bucket.SignedURL(ctx, sk, &blob.SignedURLOptions{
		Method:      http.MethodPut,
		ContentType: contentType,
		Expiry:      expiry,
	})
	if err != nil {
		return "", blobErr(err, key)
	}
	return u, nil
}

// KeyFromURL verifies a signed URL for a file:// backend and returns the
// object key.
func (b *blobbackend) KeyFromURL(ctx context.Context, u *url.URL) (string, error) {
	if b.signer == nil {
		return "", httpresponse.ErrNotImplemented.With("backend does not serve signed URLs")
	}
	sk, err := b.signer.KeyFromURL(ctx, u)
	if err != nil {
		return "", httpresponse.ErrForbidden.With(err.Error())
	}
	return b.objectKey(sk), nil
}
