package httphandler

import (
	"errors"
	"net/http"
	"strings"

	// Packages
	manager "github.com/mutablelogic/go-gallery/pkg/manager"
	schema "github.com/mutablelogic/go-gallery/pkg/schema"
	httprequest "github.com/mutablelogic/go-server/pkg/httprequest"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	openapi "github.com/mutablelogic/go-server/pkg/openapi"
	types "github.com/mutablelogic/go-server/pkg/types"
)

///////////////////////////////////////////////////////////////////////////////
// HANDLER FUNCTIONS

// Path: /upload
// POST stores images in a folder using multipart/form-data (field "folder",
// then "images", repeatable). Either all images are stored or none are.
func UploadHandler(mgr *manager.Manager, maxRequestBytes int64) (string, httprequest.PathItem) {
	return schema.UploadPath, httprequest.NewPathItem("Upload", "Store images in a folder", tag).
		Post(func(w http.ResponseWriter, r *http.Request) {
			_ = upload(w, r, mgr, maxRequestBytes)
		}, "Upload images", openapi.WithDescription("multipart/form-data with a \"folder\" field and repeatable \"images\" parts"))
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func upload(w http.ResponseWriter, r *http.Request, mgr *manager.Manager, maxRequestBytes int64) error {
	// Reject oversized requests before reading the body when the size is declared
	if r.ContentLength > maxRequestBytes {
		return httpresponse.Error(w, errTooLarge(maxRequestBytes))
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	// Read multipart form data into a struct with a []types.File field
	var form struct {
		Folder string       `json:"folder"`
		Images []types.File `json:"images"`
	}
	if err := httprequest.Read(r, &form); err != nil {
		if isTooLarge(err) {
			return httpresponse.Error(w, errTooLarge(maxRequestBytes))
		}
		return httpresponse.Error(w, httpresponse.ErrBadRequest.With(err.Error()))
	}
	for _, f := range form.Images {
		defer f.Body.Close() //nolint:gocritic // deferred close is intentional per-upload
	}
	if len(form.Images) == 0 {
		return httpresponse.Error(w, httpresponse.ErrBadRequest.Withf("missing or unreadable %q form field", schema.ImagesField))
	}

	// Ingest the images
	uploads := make([]manager.Upload, 0, len(form.Images))
	for _, f := range form.Images {
		uploads = append(uploads, manager.Upload{
			Name:        f.Path,
			ContentType: f.ContentType,
			Body:        f.Body,
		})
	}
	response, err := mgr.Ingest(r.Context(), form.Folder, uploads...)
	if err != nil {
		if isTooLarge(err) {
			return httpresponse.Error(w, errTooLarge(maxRequestBytes))
		}
		return httpresponse.Error(w, err)
	}

	return httpresponse.JSON(w, http.StatusCreated, httprequest.Indent(r), response)
}

func errTooLarge(limit int64) error {
	return httpresponse.Err(http.StatusRequestEntityTooLarge).Withf("request exceeds %d bytes", limit)
}

// isTooLarge reports whether err was caused by the request body limit
func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}
