package schema

import (
	// Packages
	types "github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// CONSTANTS

// Failed is the per-file progress sentinel for a file which will not
// complete in this session.
const Failed = -1

////////////////////////////////////////////////////////////////////////////////
// TYPES

// UploadProgress is a snapshot of session progress. Files maps each file
// name to a percentage in [0,100] or Failed.
type UploadProgress struct {
	Files   map[string]int `json:"files"`
	Overall int            `json:"overall"`
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Clone returns a deep copy of the snapshot.
func (p UploadProgress) Clone() UploadProgress {
	files := make(map[string]int, len(p.Files))
	for k, v := range p.Files {
		files[k] = v
	}
	return UploadProgress{Files: files, Overall: p.Overall}
}

func (p UploadProgress) String() string {
	return types.Stringify(p)
}
