package upload

import (
	"context"

	// Packages
	schema "github.com/mutablelogic/go-gallery/pkg/schema"
	attribute "go.opentelemetry.io/otel/attribute"
	metric "go.opentelemetry.io/otel/metric"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type metrics struct {
	files metric.Int64Counter
	bytes metric.Int64Counter
}

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// newMetrics returns counters from the meter, or nil when there is no meter.
func newMetrics(meter metric.Meter) (*metrics, error) {
	if meter == nil {
		return nil, nil
	}
	files, err := meter.Int64Counter("gallery.upload.files",
		metric.WithDescription("Files uploaded"),
		metric.WithUnit("{file}"),
	)
	if err != nil {
		return nil, err
	}
	bytes, err := meter.Int64Counter("gallery.upload.bytes",
		metric.WithDescription("Bytes uploaded"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}
	return &metrics{files: files, bytes: bytes}, nil
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// record counts a finished unit by mode and result. Failures also carry
// the error kind. It is a no-op on a nil receiver.
func (m *metrics) record(ctx context.Context, mode string, err error, files int, bytes int64) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("mode", mode),
		attribute.String("result", "success"),
	}
	if err != nil {
		kind := schema.KindOf(err)
		if kind == "" {
			kind = schema.KindTransport
		}
		attrs[1] = attribute.String("result", "failure")
		attrs = append(attrs, attribute.String("kind", string(kind)))
	}
	m.files.Add(ctx, int64(files), metric.WithAttributes(attrs...))
	m.bytes.Add(ctx, bytes, metric.WithAttributes(attrs...))
}
