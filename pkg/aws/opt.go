package aws

import (
	"fmt"
	"net/url"

	// Packages
	schema "github.com/mutablelogic/go-gallery/pkg/schema"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type opt struct {
	region       string
	endpoint     string
	accessKey    string
	secretKey    string
	sessionToken string
	traced       bool
}

// Opt represents a function that modifies the options
type Opt func(*opt) error

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func applyOpts(opts ...Opt) (*opt, error) {
	var o opt

	// Apply the options
	for _, fn := range opts {
		if err := fn(&o); err != nil {
			return nil, err
		}
	}

	// Return success
	return &o, nil
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// WithRegion sets the region.
func WithRegion(region string) Opt {
	return func(o *opt) error {
		o.region = region
		return nil
	}
}

// WithEndpoint sets the endpoint of an S3-compatible service, which is then
// addressed path-style.
func WithEndpoint(endpoint string) Opt {
	return func(o *opt) error {
		if u, err := url.Parse(endpoint); err != nil {
			return err
		} else if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("%w: endpoint must be http:// or https://, got %q", schema.ErrBadParameter, endpoint)
		}
		o.endpoint = endpoint
		return nil
	}
}

// WithCredentials sets static credentials in place of the default
// credential chain.
func WithCredentials(accessKey, secretKey, sessionToken string) Opt {
	return func(o *opt) error {
		if accessKey == "" || secretKey == "" {
			return fmt.Errorf("%w: missing access key or secret", schema.ErrBadParameter)
		}
		o.accessKey = accessKey
		o.secretKey = secretKey
		o.sessionToken = sessionToken
		return nil
	}
}

// WithTracing adds OpenTelemetry middleware, so each SDK call produces a
// span with the global tracer provider.
func WithTracing() Opt {
	return func(o *opt) error {
		o.traced = true
		return nil
	}
}
