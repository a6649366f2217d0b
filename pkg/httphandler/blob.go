package httphandler

import (
	"net/http"

	// Packages
	manager "github.com/mutablelogic/go-gallery/pkg/manager"
	schema "github.com/mutablelogic/go-gallery/pkg/schema"
	httprequest "github.com/mutablelogic/go-server/pkg/httprequest"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	types "github.com/mutablelogic/go-server/pkg/types"
)

///////////////////////////////////////////////////////////////////////////////
// HANDLER FUNCTIONS

// Path: /blob
// PUT writes the body to the object named by a signed URL. The Content-Type
// header must match the type the URL was signed for.
func BlobHandler(mgr *manager.Manager) (string, httprequest.PathItem) {
	return schema.BlobPath, httprequest.NewPathItem("Blob", "Signed object writes", tag).
		Put(func(w http.ResponseWriter, r *http.Request) {
			_ = blobPut(w, r, mgr)
		}, "Write an object using a signed URL")
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func blobPut(w http.ResponseWriter, r *http.Request, mgr *manager.Manager) error {
	obj, err := mgr.Write(r.Context(), r.URL, r.Header.Get(types.ContentTypeHeader), r.Body)
	if err != nil {
		return httpresponse.Error(w, err)
	}
	return httpresponse.JSON(w, http.StatusCreated, httprequest.Indent(r), obj)
}
