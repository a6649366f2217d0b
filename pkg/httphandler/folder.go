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

// Path: /folders
// GET lists folders with their images.
func FolderListHandler(mgr *manager.Manager) (string, httprequest.PathItem) {
	return schema.FoldersPath, httprequest.NewPathItem("Folders", "Folders and their images", tag).
		Get(func(w http.ResponseWriter, r *http.Request) {
			_ = folderList(w, r, mgr)
		}, "List folders and their images")
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func folderList(w http.ResponseWriter, r *http.Request, mgr *manager.Manager) error {
	response, err := mgr.Folders(r.Context())
	if err != nil {
		return httpresponse.Error(w, err)
	}
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), response)
}
