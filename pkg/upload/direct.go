package upload

import (
	"context"
	"time"

	// Packages
	otel "github.com/mutablelogic/go-client/pkg/otel"
	httpclient "github.com/mutablelogic/go-gallery/pkg/httpclient"
	schema "github.com/mutablelogic/go-gallery/pkg/schema"
	types "github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// transferFile writes one file directly to object storage in three steps:
// authorize, transfer and register. Each step fails with its own kind. A
// registration failure leaves the object in storage but not in the index.
func (s *Session) transferFile(ctx context.Context, i int, file schema.FileDescriptor, fn httpclient.ProgressFunc) (err error) {
	ctx, endFunc := otel.StartSpan(s.tracer, ctx, "upload.direct")
	defer func() { endFunc(err) }()

	contentType := file.ContentType
	if contentType == "" {
		contentType = types.ContentTypeBinary
	}
	log := s.log.With().Str("collection", s.collection).Str("file", file.Name).Int("unit", i).Logger()
	defer func() {
		if err != nil {
			log.Warn().Err(err).Str("kind", string(schema.KindOf(err))).Msg("direct upload failed")
		}
		s.metrics.record(ctx, "direct", err, 1, file.Size)
	}()

	// Authorize
	log.Debug().Int64("bytes", file.Size).Msg("authorizing")
	grant, err := s.direct.Authorize(ctx, schema.SignedURLRequest{
		Filename:    file.Name,
		ContentType: contentType,
		Folder:      s.collection,
	})
	if err != nil {
		return withKind(schema.KindAuthorization, file.Name, err)
	} else if grant == nil || grant.WriteURL == "" {
		return schema.NewError(schema.KindAuthorization, file.Name, nil, "no write location granted")
	} else if now := s.clock(); grant.Expired(now) {
		return schema.NewError(schema.KindAuthorization, file.Name, nil, "grant expired at %s", grant.ExpiresAt.Format(time.RFC3339))
	}

	// The write must declare the content type which was authorized
	if grant.ContentType == "" {
		grant.ContentType = contentType
	}

	// Transfer
	log.Debug().Msg("transferring")
	if err := s.direct.Transfer(ctx, *grant, file, fn); err != nil {
		return withKind(schema.KindTransfer, file.Name, err)
	}

	// Register
	log.Debug().Str("url", grant.PublicURL).Msg("registering")
	if _, err := s.direct.Register(ctx, schema.RegisterUploadRequest{
		Filename:    file.Name,
		ContentType: grant.ContentType,
		Folder:      s.collection,
		PublicURL:   grant.PublicURL,
	}); err != nil {
		return withKind(schema.KindRegistration, file.Name, err)
	}

	// Return success
	return nil
}
