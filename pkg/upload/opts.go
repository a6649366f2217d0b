package upload

import (
	"fmt"
	"time"

	// Packages
	schema "github.com/mutablelogic/go-gallery/pkg/schema"
	zerolog "github.com/rs/zerolog"
	metric "go.opentelemetry.io/otel/metric"
	trace "go.opentelemetry.io/otel/trace"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Opt is a functional option for an upload session.
type Opt func(*opt) error

type opt struct {
	transport  BatchTransport
	direct     DirectClient
	progressFn func(schema.UploadProgress)
	completeFn func(schema.UploadOutcome)
	log        zerolog.Logger
	tracer     trace.Tracer
	meter      metric.Meter
	clock      func() time.Time
}

////////////////////////////////////////////////////////////////////////////////
// OPTIONS

// WithTransport uploads the files in batches with the given transport.
func WithTransport(transport BatchTransport) Opt {
	return func(o *opt) error {
		if transport == nil {
			return fmt.Errorf("%w: nil transport", schema.ErrBadParameter)
		}
		o.transport = transport
		return nil
	}
}

// WithDirect uploads each file directly to object storage, with grants
// from the given client. Batches are not used and there is no limit on
// the size of a file.
func WithDirect(client DirectClient) Opt {
	return func(o *opt) error {
		if client == nil {
			return fmt.Errorf("%w: nil direct client", schema.ErrBadParameter)
		}
		o.direct = client
		return nil
	}
}

// WithProgress sets a function which receives a snapshot of progress
// whenever it changes. Calls are serialized but may come from the
// goroutine sending the request body.
func WithProgress(fn func(schema.UploadProgress)) Opt {
	return func(o *opt) error {
		o.progressFn = fn
		return nil
	}
}

// WithComplete sets a function which receives the outcome when the
// session is finalized, before Run returns.
func WithComplete(fn func(schema.UploadOutcome)) Opt {
	return func(o *opt) error {
		o.completeFn = fn
		return nil
	}
}

// WithLogger sets the logger. The default discards all output.
func WithLogger(log zerolog.Logger) Opt {
	return func(o *opt) error {
		o.log = log
		return nil
	}
}

// WithTracer sets the tracer used for a span per unit.
func WithTracer(tracer trace.Tracer) Opt {
	return func(o *opt) error {
		o.tracer = tracer
		return nil
	}
}

// WithMeter sets the meter used to count uploaded files and bytes.
func WithMeter(meter metric.Meter) Opt {
	return func(o *opt) error {
		o.meter = meter
		return nil
	}
}

// WithClock sets the clock used to check grant expiry.
func WithClock(fn func() time.Time) Opt {
	return func(o *opt) error {
		if fn == nil {
			return fmt.Errorf("%w: nil clock", schema.ErrBadParameter)
		}
		o.clock = fn
		return nil
	}
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func applyOpts(opts []Opt) (opt, error) {
	// Set defaults
	o := opt{
		log:   zerolog.Nop(),
		clock: time.Now,
	}

	// Apply options
	for _, fn := range opts {
		if err := fn(&o); err != nil {
			return opt{}, err
		}
	}

	// Return success
	return o, nil
}
