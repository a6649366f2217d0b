package httphandler

import (
	"net/http"

	// Packages
	manager "github.com/mutablelogic/go-gallery/pkg/manager"
	schema "github.com/mutablelogic/go-gallery/pkg/schema"
	httprequest "github.com/mutablelogic/go-server/pkg/httprequest"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
)

///////////////////////////////////////////////////////////////////////////////
// HANDLER FUNCTIONS

// Path: /signed-url
// POST returns a grant to write one image directly to storage.
func SignedURLHandler(mgr *manager.Manager) (string, httprequest.PathItem) {
	return schema.SignedURLPath, httprequest.NewPathItem("Signed URL", "Grants for direct writes", tag).
		Post(func(w http.ResponseWriter, r *http.Request) {
			_ = signedURL(w, r, mgr)
		}, "Authorize a direct write of one image")
}

// Path: /register-upload
// POST indexes an image which was written directly to storage.
func RegisterUploadHandler(mgr *manager.Manager) (string, httprequest.PathItem) {
	return schema.RegisterUploadPath, httprequest.NewPathItem("Register upload", "Index directly written images", tag).
		Post(func(w http.ResponseWriter, r *http.Request) {
			_ = registerUpload(w, r, mgr)
		}, "Register a directly written image in a folder")
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func signedURL(w http.ResponseWriter, r *http.Request, mgr *manager.Manager) error {
	var req schema.SignedURLRequest
	if err := httprequest.Read(r, &req); err != nil {
		return httpresponse.Error(w, httpresponse.ErrBadRequest.With(err.Error()))
	}
	response, err := mgr.Authorize(r.Context(), req)
	if err != nil {
		return httpresponse.Error(w, err)
	}
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), response)
}

func registerUpload(w http.ResponseWriter, r *http.Request, mgr *manager.Manager) error {
	var req schema.RegisterUploadRequest
	if err := httprequest.Read(r, &req); err != nil {
		return httpresponse.Error(w, httpresponse.ErrBadRequest.With(err.Error()))
	}
	response, err := mgr.Register(r.Context(), req)
	if err != nil {
		return httpresponse.Error(w, err)
	}
	return httpresponse.JSON(w, http.StatusCreated, httprequest.Indent(r), response)
}
