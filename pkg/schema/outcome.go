package schema

import (
	// Packages
	types "github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// UploadOutcome is the terminal record of an upload session.
type UploadOutcome struct {
	Collection string       `json:"collection"`
	Succeeded  int          `json:"succeeded"`
	Failed     []FailedFile `json:"failed,omitempty"`
}

// FailedFile names a file which did not upload, and why.
type FailedFile struct {
	Name   string    `json:"name"`
	Kind   ErrorKind `json:"kind"`
	Detail string    `json:"detail,omitempty"`
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// OK returns true when no file failed.
func (o UploadOutcome) OK() bool {
	return len(o.Failed) == 0
}

// FailedNames returns the names of the failed files, in the order they
// were reported.
func (o UploadOutcome) FailedNames() []string {
	result := make([]string, 0, len(o.Failed))
	for _, f := range o.Failed {
		result = append(result, f.Name)
	}
	return result
}

func (o UploadOutcome) String() string {
	return types.Stringify(o)
}
