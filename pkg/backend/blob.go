package backend

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"syscall"

	// Packages
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	blob "gocloud.dev/blob"
	fileblob "gocloud.dev/blob/fileblob"
	s3blob "gocloud.dev/blob/s3blob"
	gcerrors "gocloud.dev/gcerrors"

	// Drivers
	_ "gocloud.dev/blob/memblob" // mem:// URLs
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type blobbackend struct {
	*opt
	bucket       *blob.Bucket
	bucketPrefix string // key prefix for bucket operations (empty for file://)
	signer       *fileblob.URLSignerHMAC
}

var _ Backend = (*blobbackend)(nil)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewBlobBackend creates a new blob backend using Go CDK.
// Supported URL schemes: s3://, file://, mem://
// Examples:
//   - "s3://my-bucket?region=us-east-1"
//   - "s3://my-bucket/prefix"
//   - "file:///path/to/directory"
//   - "mem://"
//
// For S3 URLs, you can optionally provide an aws.Config via WithAWSConfig()
// for full control over AWS SDK configuration. For file:// URLs, WithSigner
// enables signed write URLs.
func NewBlobBackend(ctx context.Context, u string, opts ...Opt) (*blobbackend, error) {
	self := new(blobbackend)

	// Set the options
	if url, err := url.Parse(u); err != nil {
		return nil, err
	} else if opt, err := apply(url, opts...); err != nil {
		return nil, err
	} else {
		self.opt = opt
	}

	// For s3/mem the path is a key prefix within the bucket.
	// For file:// the path is the bucket root directory.
	if self.url.Scheme != "file" {
		self.bucketPrefix = strings.Trim(self.url.Path, "/")
	}
	if self.signBase != nil && self.url.Scheme != "file" {
		return nil, httpresponse.ErrBadRequest.Withf("signed local writes require a file:// backend, got %q", self.url.Scheme)
	}

	// Open the bucket
	var bucket *blob.Bucket
	var err error

	switch {
	case self.url.Scheme == "s3" && self.s3Client != nil:
		bucket, err = s3blob.OpenBucket(ctx, self.s3Client, self.url.Host, nil)
	case self.url.Scheme == "s3" && self.awsConfig != nil:
		// Use the provided AWS config to open S3 bucket directly
		client := s3blob.Dial(*self.awsConfig)
		bucket, err = s3blob.OpenBucket(ctx, client, self.url.Host, nil)
	case self.url.Scheme == "file":
		// For file:// the path is the bucket root dir
		if !path.IsAbs(self.url.Path) {
			return nil, httpresponse.ErrBadRequest.Withf("backend dir %q must be an absolute path", self.url.Path)
		}
		fileOpts := &fileblob.Options{CreateDir: self.createDir}
		if self.signBase != nil {
			self.signer = fileblob.NewURLSignerHMAC(self.signBase, self.signKey)
			fileOpts.URLSigner = self.signer
		}
		bucket, err = fileblob.OpenBucket(path.Clean(self.url.Path), fileOpts)
	default:
		// For s3, mem, etc.: open at root (strip path) to avoid PrefixedBucket
		openURL := *self.url
		openURL.Path = ""
		openURL.RawPath = ""
		bucket, err = blob.OpenBucket(ctx, openURL.String())
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open bucket: %w", err)
	}
	self.bucket = bucket

	return self, nil
}

// NewFileBackend creates a file-based backend rooted at dir, which must be
// an absolute path.
func NewFileBackend(ctx context.Context, dir string, opts ...Opt) (*blobbackend, error) {
	if !path.IsAbs(dir) {
		return nil, fmt.Errorf("backend dir %q must be an absolute path", dir)
	}
	return NewBlobBackend(ctx, (&url.URL{Scheme: "file", Path: path.Clean(dir)}).String(), opts...)
}

// Close the backend
func (b *blobbackend) Close() error {
	var result error
	if b.bucket != nil {
		result = errors.Join(result, b.bucket.Close())
		b.bucket = nil
	}

	// Return any errors
	return result
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// URL returns the backend URL
func (b *blobbackend) URL() *url.URL {
	u := *b.url
	return &u
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// storageKey returns the blob storage key for an object key, which must be
// a relative slash-separated path without parent references.
func (b *blobbackend) storageKey(key string) (string, error) {
	clean := strings.TrimPrefix(path.Clean("/"+key), "/")
	if clean == "" || clean != strings.TrimPrefix(key, "/") {
		return "", httpresponse.ErrBadRequest.Withf("invalid object key %q", key)
	}
	if b.bucketPrefix != "" {
		return b.bucketPrefix + "/" + clean, nil
	}
	return clean, nil
}

// objectKey converts a blob storage key back to an object key by
// stripping the bucket prefix.
func (b *blobbackend) objectKey(sk string) string {
	if b.bucketPrefix != "" {
		return strings.TrimPrefix(sk, b.bucketPrefix+"/")
	}
	return sk
}

func attrsToObject(key string, attrs *blob.Attributes) *Object {
	return &Object{
		Key:         key,
		Size:        attrs.Size,
		ModTime:     attrs.ModTime,
		ContentType: attrs.ContentType,
		ETag:        attrs.ETag,
	}
}

// blobErr wraps a go-cloud blob error with the appropriate httpresponse error
func blobErr(err error, key string) error {
	if err == nil {
		return nil
	}
	// Check for OS-level errors before go-cloud classification, since the
	// gcerrors default path wraps with %v and breaks the chain.
	if errors.Is(err, syscall.EISDIR) || errors.Is(err, syscall.EEXIST) {
		return httpresponse.ErrBadRequest.Withf("cannot overwrite directory with file: %q", key)
	}
	switch gcerrors.Code(err) {
	case gcerrors.NotFound:
		return httpresponse.ErrNotFound.Withf("object %q not found", key)
	case gcerrors.PermissionDenied:
		return httpresponse.ErrForbidden.Withf("permission denied for %q", key)
	case gcerrors.InvalidArgument:
		return httpresponse.ErrBadRequest.Withf("invalid argument for %q: %v", key, err)
	case gcerrors.FailedPrecondition:
		return httpresponse.ErrConflict.Withf("precondition failed for %q: %v", key, err)
	case gcerrors.Unimplemented:
		return httpresponse.ErrNotImplemented.Withf("not supported for %q: %v", key, err)
	default:
		return httpresponse.ErrInternalError.Withf("blob operation failed: %v", err)
	}
}
