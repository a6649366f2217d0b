package schema

////////////////////////////////////////////////////////////////////////////////
// CONSTANTS

const (
	SchemaName = "gallery"

	// Multipart form fields for the bulk ingestion endpoint
	FolderField = "folder"
	ImagesField = "images"

	// Collaborator endpoint paths, relative to the API endpoint
	UploadPath         = "upload"
	SignedURLPath      = "signed-url"
	RegisterUploadPath = "register-upload"
	FoldersPath        = "folders"

	// Reference server paths for signed local writes and stored media
	BlobPath  = "blob"
	MediaPath = "media"

	// StatusSuccess is the status value returned on a successful ingest or
	// registration.
	StatusSuccess = "success"
)

const (
	// DefaultMaxRequestBytes is the backend request-size ceiling for the bulk
	// ingestion endpoint.
	DefaultMaxRequestBytes int64 = 32 << 20

	// DefaultMaxBatchBytes leaves headroom below DefaultMaxRequestBytes for
	// the multipart encoding overhead.
	DefaultMaxBatchBytes int64 = 30 << 20
)
