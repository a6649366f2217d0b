package schema

import (
	// Packages
	types "github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// UploadResponse is returned by the bulk ingestion endpoint on success.
type UploadResponse struct {
	Status    string   `json:"status"`
	Folder    string   `json:"folder"`
	Filenames []string `json:"filenames"`
}

// ErrorResponse is returned by collaborator endpoints on failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Image is one indexed object within a folder.
type Image struct {
	Filename    string `json:"filename"`
	URL         string `json:"url"`
	ContentType string `json:"contentType,omitempty"`
	Size        int64  `json:"size,omitempty"`
}

// Folder is a named collection of images.
type Folder struct {
	Name   string  `json:"name"`
	Images []Image `json:"images"`
}

// FolderList is returned by the folder listing endpoint.
type FolderList struct {
	Folders []Folder `json:"folders"`
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (r UploadResponse) String() string {
	return types.Stringify(r)
}

func (f Folder) String() string {
	return types.Stringify(f)
}

func (l FolderList) String() string {
	return types.Stringify(l)
}
