package httphandler

import (
	"errors"

	// Packages
	manager "github.com/mutablelogic/go-gallery/pkg/manager"
	schema "github.com/mutablelogic/go-gallery/pkg/schema"
	httprequest "github.com/mutablelogic/go-server/pkg/httprequest"
	jsonschema "github.com/mutablelogic/go-server/pkg/jsonschema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Router is the interface required to register HTTP handlers. Relative
// paths are registered under the router prefix.
type Router interface {
	RegisterPath(path string, params *jsonschema.Schema, item httprequest.PathItem) error
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const tag = "gallery"

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// RegisterHandlers registers all gallery HTTP handlers on the provided router.
// Bulk uploads larger than maxRequestBytes are rejected; zero or less uses
// schema.DefaultMaxRequestBytes.
func RegisterHandlers(mgr *manager.Manager, router Router, maxRequestBytes int64) error {
	if maxRequestBytes <= 0 {
		maxRequestBytes = schema.DefaultMaxRequestBytes
	}
	var result error
	register := func(path string, item httprequest.PathItem) {
		result = errors.Join(result, router.RegisterPath(path, nil, item))
	}
	register(UploadHandler(mgr, maxRequestBytes))
	register(SignedURLHandler(mgr))
	register(RegisterUploadHandler(mgr))
	register(FolderListHandler(mgr))
	register(BlobHandler(mgr))
	register(MediaHandler(mgr))
	return result
}
