package localfile

import (
	"mime"
	"strings"
)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

// wellKnownMIME maps media extensions that Go's mime package may not know
// about (especially on macOS) to their canonical MIME type.
var wellKnownMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".avif": "image/avif",
	".heic": "image/heic",
	".heif": "image/heif",
	".svg":  "image/svg+xml",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// MIMEByExt returns the MIME type for a file extension, consulting
// wellKnownMIME first and then the system MIME database. The extension
// is matched without regard to case.
func MIMEByExt(ext string) string {
	ext = strings.ToLower(ext)
	if ct, ok := wellKnownMIME[ext]; ok {
		return ct
	}
	return mime.TypeByExtension(ext)
}
