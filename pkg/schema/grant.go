package schema

import (
	"time"

	// Packages
	types "github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// SignedURLRequest asks the collaborator for a write authorization grant.
type SignedURLRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Folder      string `json:"folder"`
}

// SignedURLResponse is the wire form of an authorization grant.
type SignedURLResponse struct {
	URL       string    `json:"url"`
	PublicURL string    `json:"publicUrl"`
	ExpiresAt time.Time `json:"expiresAt,omitzero"`
}

// AuthorizationGrant permits exactly one direct write of a file. It is
// consumed by the transfer and never reused.
type AuthorizationGrant struct {
	WriteURL    string
	PublicURL   string
	ContentType string    // the content type declared when authorizing
	ExpiresAt   time.Time // zero when the collaborator does not say
}

// RegisterUploadRequest records a directly-written object in the metadata
// index.
type RegisterUploadRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Folder      string `json:"folder"`
	PublicURL   string `json:"publicUrl"`
}

// RegisterUploadResponse acknowledges a registration.
type RegisterUploadResponse struct {
	Status   string `json:"status"`
	Folder   string `json:"folder"`
	Filename string `json:"filename"`
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Expired returns true if the grant carries an expiry which is not after now.
func (g AuthorizationGrant) Expired(now time.Time) bool {
	return !g.ExpiresAt.IsZero() && !now.Before(g.ExpiresAt)
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (r SignedURLRequest) String() string {
	return types.Stringify(r)
}

func (r SignedURLResponse) String() string {
	return types.Stringify(r)
}

func (r RegisterUploadRequest) String() string {
	return types.Stringify(r)
}

func (r RegisterUploadResponse) String() string {
	return types.Stringify(r)
}
