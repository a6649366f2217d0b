package manager

import (
	"context"
	"errors"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	// Packages
	uuid "github.com/google/uuid"
	otel "github.com/mutablelogic/go-client/pkg/otel"
	backend "github.com/mutablelogic/go-gallery/pkg/backend"
	schema "github.com/mutablelogic/go-gallery/pkg/schema"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	types "github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Manager stores media in a backend and keeps the folder index which
// the gallery lists.
type Manager struct {
	opts
	index
}

// Upload is one file received by the bulk ingestion endpoint.
type Upload struct {
	Name        string
	ContentType string
	Body        io.Reader
}

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New creates a new manager. A backend and a public URL are required.
func New(ctx context.Context, opts ...Opt) (*Manager, error) {
	self := new(Manager)

	// Apply options
	if opt, err := applyOpts(opts); err != nil {
		return nil, err
	} else {
		self.opts = opt
	}
	if self.backend == nil {
		return nil, httpresponse.ErrBadRequest.With("missing backend")
	} else if self.publicURL == nil {
		return nil, errors.Join(httpresponse.ErrBadRequest.With("missing public URL"), self.backend.Close())
	}

	// Return success
	return self, nil
}

// Close the backend
func (manager *Manager) Close() error {
	return manager.backend.Close()
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Backend returns the storage location
func (manager *Manager) Backend() *url.URL {
	return manager.backend.URL()
}

// Ingest stores the files in the folder and indexes them. Either every
// file is stored and indexed, or none is.
func (manager *Manager) Ingest(ctx context.Context, folder string, files ...Upload) (_ *schema.UploadResponse, result error) {
	child, endFunc := otel.StartSpan(manager.tracer, ctx, spanManagerName("Ingest"))
	defer func() { endFunc(result) }()

	folder, err := folderName(folder)
	if err != nil {
		return nil, err
	} else if len(files) == 0 {
		return nil, httpresponse.ErrBadRequest.With("no files uploaded")
	}

	// Store each file, removing what was stored on failure
	images := make([]schema.Image, 0, len(files))
	for _, file := range files {
		image, err := manager.ingest(child, folder, file)
		if err != nil {
			for _, image := range images {
				manager.backend.Delete(context.WithoutCancel(child), manager.keyForURL(image.URL))
			}
			return nil, err
		}
		images = append(images, *image)
	}

	// Index the images
	response := &schema.UploadResponse{
		Status: schema.StatusSuccess,
		Folder: folder,
	}
	for _, image := range images {
		manager.put(folder, image)
		response.Filenames = append(response.Filenames, image.Filename)
	}
	manager.log.Debug().Str("folder", folder).Strs("filenames", response.Filenames).Msg("ingested")

	// Return success
	return response, nil
}

// Authorize returns a grant to write one object directly to storage. The
// grant names the URL the object will be served from once registered.
func (manager *Manager) Authorize(ctx context.Context, req schema.SignedURLRequest) (_ *schema.SignedURLResponse, result error) {
	child, endFunc := otel.StartSpan(manager.tracer, ctx, spanManagerName("Authorize"))
	defer func() { endFunc(result) }()

	folder, err := folderName(req.Folder)
	if err != nil {
		return nil, err
	}
	filename, err := fileName(req.Filename)
	if err != nil {
		return nil, err
	}
	contentType := strings.TrimSpace(req.ContentType)
	if contentType == "" {
		return nil, httpresponse.ErrBadRequest.With("missing content type")
	}

	// Expiry has a granularity of one second in signed URLs
	key := objectKey(folder, filename)
	expires := manager.clock().Add(manager.grantTTL).Truncate(time.Second)
	writeURL, err := manager.backend.SignedPutURL(child, key, contentType, manager.grantTTL)
	if err != nil {
		return nil, err
	}

	// Return success
	return &schema.SignedURLResponse{
		URL:       writeURL,
		PublicURL: manager.urlForKey(key),
		ExpiresAt: expires,
	}, nil
}

// Register indexes an object which was written directly to storage. The
// object must exist; a later registration of the same filename in the same
// folder replaces an earlier one.
func (manager *Manager) Register(ctx context.Context, req schema.RegisterUploadRequest) (_ *schema.RegisterUploadResponse, result error) {
	child, endFunc := otel.StartSpan(manager.tracer, ctx, spanManagerName("Register"))
	defer func() { endFunc(result) }()

	folder, err := folderName(req.Folder)
	if err != nil {
		return nil, err
	}
	filename, err := fileName(req.Filename)
	if err != nil {
		return nil, err
	}
	key := manager.keyForURL(req.PublicURL)
	if key == "" || !strings.HasPrefix(key, folder+"/") {
		return nil, httpresponse.ErrBadRequest.Withf("public URL %q is not in folder %q", req.PublicURL, folder)
	}

	// The object must have been written
	object, err := manager.backend.Stat(child, key)
	if err != nil {
		return nil, err
	}
	contentType := object.ContentType
	if contentType == "" {
		contentType = req.ContentType
	}
	manager.put(folder, schema.Image{
		Filename:    filename,
		URL:         manager.urlForKey(key),
		ContentType: contentType,
		Size:        object.Size,
	})
	manager.log.Debug().Str("folder", folder).Str("filename", filename).Str("key", key).Msg("registered")

	// Return success
	return &schema.RegisterUploadResponse{
		Status:   schema.StatusSuccess,
		Folder:   folder,
		Filename: filename,
	}, nil
}

// Folders returns every folder with its images, ordered by name.
func (manager *Manager) Folders(ctx context.Context) (*schema.FolderList, error) {
	_, endFunc := otel.StartSpan(manager.tracer, ctx, spanManagerName("Folders"))
	defer func() { endFunc(nil) }()
	return manager.list(), nil
}

// Write stores the body of a signed direct write. The URL must verify and
// the content type must match the one the grant was issued for.
func (manager *Manager) Write(ctx context.Context, u *url.URL, contentType string, body io.Reader) (_ *backend.Object, result error) {
	child, endFunc := otel.StartSpan(manager.tracer, ctx, spanManagerName("Write"))
	defer func() { endFunc(result) }()

	key, err := manager.backend.KeyFromURL(child, u)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	if method := q.Get("method"); method != "" && method != "PUT" {
		return nil, httpresponse.ErrForbidden.With("URL is not signed for PUT")
	}
	if want := q.Get("contentType"); want != "" && want != contentType {
		return nil, httpresponse.ErrForbidden.Withf("content type %q does not match %q", contentType, want)
	}

	// Write the object
	return manager.backend.Write(child, key, contentType, body)
}

// Read returns the content of a stored object. Caller must close the
// returned reader.
func (manager *Manager) Read(ctx context.Context, key string) (_ io.ReadCloser, _ *backend.Object, result error) {
	child, endFunc := otel.StartSpan(manager.tracer, ctx, spanManagerName("Read"))
	defer func() { endFunc(result) }()
	return manager.backend.Read(child, key)
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (manager *Manager) ingest(ctx context.Context, folder string, file Upload) (*schema.Image, error) {
	filename, err := fileName(file.Name)
	if err != nil {
		return nil, err
	}
	contentType := file.ContentType
	if contentType == "" {
		contentType = types.ContentTypeBinary
	}
	key := objectKey(folder, filename)
	object, err := manager.backend.Write(ctx, key, contentType, file.Body)
	if err != nil {
		return nil, err
	}
	return &schema.Image{
		Filename:    filename,
		URL:         manager.urlForKey(key),
		ContentType: object.ContentType,
		Size:        object.Size,
	}, nil
}

// urlForKey returns the public URL of an object
func (manager *Manager) urlForKey(key string) string {
	return manager.publicURL.JoinPath(strings.Split(key, "/")...).String()
}

// keyForURL returns the object key of a public URL, or empty string if the
// URL is not under the public URL
func (manager *Manager) keyForURL(publicURL string) string {
	u, err := url.Parse(publicURL)
	if err != nil || u.Scheme != manager.publicURL.Scheme || u.Host != manager.publicURL.Host {
		return ""
	}
	prefix := strings.TrimSuffix(manager.publicURL.Path, "/") + "/"
	key, ok := strings.CutPrefix(u.Path, prefix)
	if !ok || key == "" || path.Clean("/"+key) != "/"+key {
		return ""
	}
	return key
}

// objectKey returns a new storage key for a file in a folder, keeping the
// file extension
func objectKey(folder, filename string) string {
	return folder + "/" + uuid.NewString() + strings.ToLower(path.Ext(filename))
}

// folderName validates a folder name, which is a single path segment
func folderName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", httpresponse.ErrBadRequest.With("missing folder")
	} else if name == "." || name == ".." || strings.ContainsAny(name, "/\\") {
		return "", httpresponse.ErrBadRequest.Withf("invalid folder %q", name)
	}
	return name, nil
}

// fileName returns the base name of an uploaded file
func fileName(name string) (string, error) {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "" || name == "." || name == "/" || name == ".." {
		return "", httpresponse.ErrBadRequest.With("missing filename")
	}
	return name, nil
}

func spanManagerName(op string) string {
	return schema.SchemaName + ".manager." + op
}
