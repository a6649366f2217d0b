package schema

import (
	"io"

	// Packages
	types "github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// FileDescriptor describes one file selected for upload. Open returns a
// fresh reader over the file contents and is called once per transfer.
type FileDescriptor struct {
	Name        string                        `json:"name"`
	Size        int64                         `json:"size"`
	ContentType string                        `json:"contentType,omitempty"`
	Open        func() (io.ReadCloser, error) `json:"-"`
}

// Batch is a size-bounded group of files uploaded in one multipart request.
type Batch struct {
	Files      []FileDescriptor `json:"files"`
	TotalBytes int64            `json:"totalBytes"`
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Names returns the file names of the batch in order.
func (b Batch) Names() []string {
	result := make([]string, 0, len(b.Files))
	for _, f := range b.Files {
		result = append(result, f.Name)
	}
	return result
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (f FileDescriptor) String() string {
	return types.Stringify(f)
}

func (b Batch) String() string {
	return types.Stringify(b)
}
