package httphandler

import (
	"bufio"
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	// Packages
	backend "github.com/mutablelogic/go-gallery/pkg/backend"
	manager "github.com/mutablelogic/go-gallery/pkg/manager"
	schema "github.com/mutablelogic/go-gallery/pkg/schema"
	httprequest "github.com/mutablelogic/go-server/pkg/httprequest"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	types "github.com/mutablelogic/go-server/pkg/types"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// entityTag is a parsed ETag value
type entityTag struct {
	weak   bool
	opaque string
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const sniffBytes = 512

///////////////////////////////////////////////////////////////////////////////
// HANDLER FUNCTIONS

// Path: /media/{path...}
// GET downloads a stored image, HEAD returns its headers. Both honour
// If-Match, If-None-Match, If-Modified-Since and If-Unmodified-Since.
func MediaHandler(mgr *manager.Manager) (string, httprequest.PathItem) {
	fn := func(w http.ResponseWriter, r *http.Request) {
		_ = mediaGet(w, r, mgr)
	}
	return schema.MediaPath + "/{path...}", httprequest.NewPathItem("Media", "Stored images", tag).
		Get(fn, "Download a stored image").
		Head(fn, "Get stored image headers")
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func mediaGet(w http.ResponseWriter, r *http.Request, mgr *manager.Manager) error {
	reader, obj, err := mgr.Read(r.Context(), r.PathValue("path"))
	if err != nil {
		return httpresponse.Error(w, err)
	}
	defer reader.Close()

	// Answer conditional requests without reading the body
	if status := precondition(r, obj); status != 0 {
		if status == http.StatusNotModified {
			setValidators(w, obj)
		}
		w.WriteHeader(status)
		return nil
	}

	// Sniff the start of the body when the stored type says nothing
	body := bufio.NewReaderSize(reader, sniffBytes)
	head, err := body.Peek(sniffBytes)
	if err != nil && !errors.Is(err, io.EOF) {
		return httpresponse.Error(w, err)
	}

	setValidators(w, obj)
	w.Header().Set(types.ContentTypeHeader, mediaType(obj, head))
	if cd := mime.FormatMediaType("inline", map[string]string{"filename": path.Base(obj.Key)}); cd != "" {
		w.Header().Set(types.ContentDispositonHeader, cd)
	}
	if obj.Size >= 0 {
		w.Header().Set(types.ContentLengthHeader, strconv.FormatInt(obj.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return nil
	}
	_, err = io.Copy(w, body)
	return err
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS - CONDITIONAL REQUESTS

// precondition evaluates the conditional headers of a GET or HEAD request
// in RFC 9110 order and returns 412 or 304, or zero when the object should
// be served.
func precondition(r *http.Request, obj *backend.Object) int {
	current, tagged := parseETag(obj.ETag)
	modified := obj.ModTime.Truncate(time.Second)

	// If-Match takes precedence over If-Unmodified-Since
	if header := r.Header.Get("If-Match"); header != "" {
		if !anyETag(header, current, tagged, entityTag.strongEqual) {
			return http.StatusPreconditionFailed
		}
	} else if since, ok := headerTime(r, "If-Unmodified-Since"); ok && !obj.ModTime.IsZero() && modified.After(since) {
		return http.StatusPreconditionFailed
	}

	// If-None-Match takes precedence over If-Modified-Since
	if header := r.Header.Get("If-None-Match"); header != "" {
		if anyETag(header, current, tagged, entityTag.weakEqual) {
			return http.StatusNotModified
		}
	} else if since, ok := headerTime(r, "If-Modified-Since"); ok && !obj.ModTime.IsZero() && !modified.After(since) {
		return http.StatusNotModified
	}

	return 0
}

// anyETag reports whether a header value of "*" or a list of entity tags
// matches the current tag. The object exists, so "*" always matches.
func anyETag(header string, current entityTag, tagged bool, equal func(entityTag, entityTag) bool) bool {
	if strings.TrimSpace(header) == "*" {
		return true
	}
	if !tagged {
		return false
	}
	for _, value := range strings.Split(header, ",") {
		if other, ok := parseETag(value); ok && equal(current, other) {
			return true
		}
	}
	return false
}

// parseETag parses a quoted, optionally weak, entity tag. Stored tags
// without quotes are taken as strong opaque values.
func parseETag(value string) (entityTag, bool) {
	value = strings.TrimSpace(value)
	var etag entityTag
	if rest, found := strings.CutPrefix(value, "W/"); found {
		etag.weak = true
		value = rest
	}
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		etag.opaque = value[1 : len(value)-1]
	} else if etag.weak || value == "" || strings.ContainsAny(value, `"`) {
		return entityTag{}, false
	} else {
		etag.opaque = value
	}
	return etag, true
}

// strongEqual is true when neither tag is weak and the values are equal
func (a entityTag) strongEqual(b entityTag) bool {
	return !a.weak && !b.weak && a.opaque == b.opaque
}

func (a entityTag) weakEqual(b entityTag) bool {
	return a.opaque == b.opaque
}

func headerTime(r *http.Request, name string) (time.Time, bool) {
	value := r.Header.Get(name)
	if value == "" {
		return time.Time{}, false
	}
	t, err := http.ParseTime(value)
	return t, err == nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS - HEADERS

func setValidators(w http.ResponseWriter, obj *backend.Object) {
	if obj.ETag != "" {
		w.Header().Set("ETag", obj.ETag)
	}
	if !obj.ModTime.IsZero() {
		w.Header().Set("Last-Modified", obj.ModTime.UTC().Format(http.TimeFormat))
	}
}

// mediaType returns the stored content type of an image, falling back to
// the key extension and then to the sniffed body.
func mediaType(obj *backend.Object, head []byte) string {
	if obj.ContentType != "" && obj.ContentType != types.ContentTypeBinary {
		return obj.ContentType
	}
	if byExt := mime.TypeByExtension(path.Ext(obj.Key)); byExt != "" {
		return byExt
	}
	if len(head) > 0 {
		return http.DetectContentType(head)
	}
	return types.ContentTypeBinary
}
