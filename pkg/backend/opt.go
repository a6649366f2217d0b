package backend

import (
	"fmt"
	"net/url"

	// Packages
	"github.com/aws/aws-sdk-go-v2/aws"
	s3 "github.com/aws/aws-sdk-go-v2/service/s3"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type opt struct {
	url       *url.URL
	awsConfig *aws.Config
	s3Client  *s3.Client
	createDir bool
	signBase  *url.URL // base URL of signed local writes
	signKey   []byte   // HMAC key of signed local writes
}

type Opt func(*opt) error

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func apply(url *url.URL, opts ...Opt) (*opt, error) {
	// Apply options
	o := opt{url: url}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}
	// Return success
	return &o, nil
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// WithEndpoint sets the S3 endpoint for S3-compatible services.
// For http:// endpoints, HTTPS is automatically disabled.
func WithEndpoint(endpoint string) Opt {
	return func(o *opt) error {
		// Set endpoint parameter
		if endpoint, err := url.Parse(endpoint); err != nil {
			return err
		} else if endpoint.Scheme != "http" && endpoint.Scheme != "https" {
			return fmt.Errorf("endpoint must be http:// or https://, got %s://", endpoint.Scheme)
		} else {
			o.set("endpoint", endpoint.String())
			o.set("use_path_style", "true")
			if endpoint.Scheme == "http" {
				o.set("disable_https", "true")
			}
		}
		return nil
	}
}

// WithAnonymous forces use of anonymous credentials.
// Use this for S3-compatible services that don't require authentication.
func WithAnonymous() Opt {
	return func(o *opt) error {
		o.set("anonymous", "true")
		return nil
	}
}

// WithCreateDir creates the directory of a file:// backend if it doesn't exist
func WithCreateDir() Opt {
	return func(o *opt) error {
		o.createDir = true
		return nil
	}
}

// WithAWSConfig provides an AWS SDK v2 Config directly.
// When provided for s3:// URLs, this config is used instead of the URL-based configuration.
func WithAWSConfig(cfg aws.Config) Opt {
	return func(o *opt) error {
		o.awsConfig = &cfg
		return nil
	}
}

// WithS3Client provides an S3 client directly, which takes precedence over
// WithAWSConfig for s3:// URLs.
func WithS3Client(client *s3.Client) Opt {
	return func(o *opt) error {
		if client == nil {
			return fmt.Errorf("S3 client is nil")
		}
		o.s3Client = client
		return nil
	}
}

// WithSigner enables signed write URLs for a file:// backend. Signed URLs
// point at base, carry the object key and expiry as query parameters and
// are authenticated with an HMAC of secret.
func WithSigner(base string, secret []byte) Opt {
	return func(o *opt) error {
		if u, err := url.Parse(base); err != nil {
			return err
		} else if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("signer base URL must be http:// or https://, got %q", base)
		} else if len(secret) == 0 {
			return fmt.Errorf("signer secret is empty")
		} else {
			o.signBase = u
			o.signKey = secret
		}
		return nil
	}
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (o *opt) set(key, value string) {
	if o.url == nil {
		return
	}
	q := o.url.Query()
	if value == "" {
		q.Del(key)
	} else {
		q.Set(key, value)
	}
	o.url.RawQuery = q.Encode()
}
