package manager

import (
	"context"
	"fmt"
	"net/url"
	"time"

	// Packages
	backend "github.com/mutablelogic/go-gallery/pkg/backend"
	zerolog "github.com/rs/zerolog"
	trace "go.opentelemetry.io/otel/trace"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Opt is a functional option for manager configuration.
type Opt func(*opts) error

type opts struct {
	tracer    trace.Tracer
	log       zerolog.Logger
	backend   backend.Backend
	publicURL *url.URL
	grantTTL  time.Duration
	clock     func() time.Time
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	// DefaultGrantTTL is the lifetime of a write authorization grant.
	DefaultGrantTTL = 15 * time.Minute
)

////////////////////////////////////////////////////////////////////////////////
// OPTIONS

// WithTracer sets the tracer used for tracing operations.
func WithTracer(tracer trace.Tracer) Opt {
	return func(o *opts) error {
		o.tracer = tracer
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Opt {
	return func(o *opts) error {
		o.log = log
		return nil
	}
}

// WithBackend opens a blob backend (mem://, file://, s3://) for media
// storage. Only one backend can be set.
func WithBackend(ctx context.Context, url string, backendOpts ...backend.Opt) Opt {
	return func(o *opts) error {
		if o.backend != nil {
			return fmt.Errorf("backend %q already set", o.backend.URL())
		}
		b, err := backend.NewBlobBackend(ctx, url, backendOpts...)
		if err != nil {
			return err
		}
		o.backend = b
		return nil
	}
}

// WithPublicURL sets the base URL under which stored media is served.
// The object key is appended to it.
func WithPublicURL(base string) Opt {
	return func(o *opts) error {
		if u, err := url.Parse(base); err != nil {
			return err
		} else if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("public URL must be http:// or https://, got %q", base)
		} else {
			o.publicURL = u
		}
		return nil
	}
}

// WithGrantTTL sets the lifetime of write authorization grants.
func WithGrantTTL(ttl time.Duration) Opt {
	return func(o *opts) error {
		if ttl < time.Second {
			return fmt.Errorf("grant TTL must be at least one second, got %v", ttl)
		}
		o.grantTTL = ttl
		return nil
	}
}

// WithClock sets the time source used for grant expiry.
func WithClock(fn func() time.Time) Opt {
	return func(o *opts) error {
		if fn == nil {
			return fmt.Errorf("clock is nil")
		}
		o.clock = fn
		return nil
	}
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func applyOpts(opt []Opt) (opts, error) {
	// Set defaults
	o := opts{
		log:      zerolog.Nop(),
		grantTTL: DefaultGrantTTL,
		clock:    time.Now,
	}

	// Apply options
	for _, fn := range opt {
		if err := fn(&o); err != nil {
			if o.backend != nil {
				o.backend.Close()
			}
			return opts{}, err
		}
	}

	// Return success
	return o, nil
}
