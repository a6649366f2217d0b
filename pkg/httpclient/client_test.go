package httpclient_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	// Packages
	httpclient "github.com/mutablelogic/go-gallery/pkg/httpclient"
	schema "github.com/mutablelogic/go-gallery/pkg/schema"
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
)

///////////////////////////////////////////////////////////////////////////////
// HELPERS

func newTestClient(t *testing.T, mux *http.ServeMux) (*httpclient.Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	c, err := httpclient.New(srv.URL + "/api")
	require.NoError(t, err)
	return c, srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func file(name, contentType, data string) schema.FileDescriptor {
	return schema.FileDescriptor{
		Name:        name,
		Size:        int64(len(data)),
		ContentType: contentType,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(data)), nil
		},
	}
}

type progressLog struct {
	sync.Mutex
	written []int64
	total   int64
}

func (p *progressLog) fn(written, total int64) {
	p.Lock()
	defer p.Unlock()
	p.written = append(p.written, written)
	p.total = total
}

///////////////////////////////////////////////////////////////////////////////
// BATCH UPLOAD

func Test_UploadBatch_001(t *testing.T) {
	assert := assert.New(t)
	received := map[string]string{}
	var folder string

	mux := http.NewServeMux()
	mux.HandleFunc("/api/upload", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, schema.ErrorResponse{Error: "method not allowed"})
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			writeJSON(w, http.StatusBadRequest, schema.ErrorResponse{Error: err.Error()})
			return
		}
		folder = r.FormValue(schema.FolderField)
		var names []string
		for _, fh := range r.MultipartForm.File[schema.ImagesField] {
			f, err := fh.Open()
			if err != nil {
				writeJSON(w, http.StatusBadRequest, schema.ErrorResponse{Error: err.Error()})
				return
			}
			data, _ := io.ReadAll(f)
			f.Close()
			received[fh.Filename] = fh.Header.Get("Content-Type") + ":" + string(data)
			names = append(names, fh.Filename)
		}
		writeJSON(w, http.StatusOK, schema.UploadResponse{Status: schema.StatusSuccess, Folder: folder, Filenames: names})
	})
	c, _ := newTestClient(t, mux)

	batch := schema.Batch{Files: []schema.FileDescriptor{
		file("a.jpg", "image/jpeg", "aaaa"),
		file("b.png", "image/png", "bbbbbb"),
	}, TotalBytes: 10}
	var progress progressLog
	response, err := c.UploadBatch(context.Background(), "Trip", batch, progress.fn)
	if !assert.NoError(err) {
		return
	}
	assert.Equal(schema.StatusSuccess, response.Status)
	assert.Equal("Trip", folder)
	assert.Equal([]string{"a.jpg", "b.png"}, response.Filenames)
	assert.Equal("image/jpeg:aaaa", received["a.jpg"])
	assert.Equal("image/png:bbbbbb", received["b.png"])

	// Progress ends at the batch total and never goes backwards
	require.NotEmpty(t, progress.written)
	assert.Equal(int64(10), progress.total)
	assert.Equal(int64(10), progress.written[len(progress.written)-1])
	for i := 1; i < len(progress.written); i++ {
		assert.GreaterOrEqual(progress.written[i], progress.written[i-1])
	}
}

func Test_UploadBatch_002(t *testing.T) {
	// A rejected batch is a transport error
	mux := http.NewServeMux()
	mux.HandleFunc("/api/upload", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		writeJSON(w, http.StatusInternalServerError, schema.ErrorResponse{Error: "disk full"})
	})
	c, _ := newTestClient(t, mux)

	batch := schema.Batch{Files: []schema.FileDescriptor{file("a.jpg", "image/jpeg", "aaaa")}, TotalBytes: 4}
	_, err := c.UploadBatch(context.Background(), "Trip", batch, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, schema.ErrTransport)
	assert.Equal(t, schema.KindTransport, schema.KindOf(err))

	var uploadErr *schema.Error
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, "disk full", uploadErr.Detail)
}

func Test_UploadBatch_005(t *testing.T) {
	// A proxy error page is reduced to a generic detail
	mux := http.NewServeMux()
	mux.HandleFunc("/api/upload", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html><body>"+strings.Repeat("x", 5000)+"</body></html>")
	})
	c, _ := newTestClient(t, mux)

	batch := schema.Batch{Files: []schema.FileDescriptor{file("a.jpg", "image/jpeg", "aaaa")}, TotalBytes: 4}
	_, err := c.UploadBatch(context.Background(), "Trip", batch, nil)
	require.Error(t, err)
	assert.Equal(t, schema.KindTransport, schema.KindOf(err))

	var uploadErr *schema.Error
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, "upload failed: 502 Bad Gateway", uploadErr.Detail)
	assert.Less(t, len(err.Error()), 200)
}

func Test_UploadBatch_003(t *testing.T) {
	// No request is made without a folder
	var calls int
	mux := http.NewServeMux()
	mux.HandleFunc("/api/upload", func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeJSON(w, http.StatusOK, schema.UploadResponse{Status: schema.StatusSuccess})
	})
	c, _ := newTestClient(t, mux)

	batch := schema.Batch{Files: []schema.FileDescriptor{file("a.jpg", "image/jpeg", "aaaa")}, TotalBytes: 4}
	_, err := c.UploadBatch(context.Background(), " ", batch, nil)
	assert.ErrorIs(t, err, schema.ErrBadParameter)
	assert.Zero(t, calls)
}

func Test_UploadBatch_004(t *testing.T) {
	// A file which cannot be opened fails the batch
	mux := http.NewServeMux()
	mux.HandleFunc("/api/upload", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			writeJSON(w, http.StatusBadRequest, schema.ErrorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, schema.UploadResponse{Status: schema.StatusSuccess})
	})
	c, _ := newTestClient(t, mux)

	bad := schema.FileDescriptor{Name: "gone.jpg", Size: 4, ContentType: "image/jpeg", Open: func() (io.ReadCloser, error) {
		return nil, io.ErrUnexpectedEOF
	}}
	batch := schema.Batch{Files: []schema.FileDescriptor{file("a.jpg", "image/jpeg", "aaaa"), bad}, TotalBytes: 8}
	_, err := c.UploadBatch(context.Background(), "Trip", batch, nil)
	require.Error(t, err)
	assert.Equal(t, schema.KindTransport, schema.KindOf(err))
}

///////////////////////////////////////////////////////////////////////////////
// AUTHORIZE AND REGISTER

func Test_Authorize_001(t *testing.T) {
	assert := assert.New(t)
	var request schema.SignedURLRequest
	mux := http.NewServeMux()
	mux.HandleFunc("/api/signed-url", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			writeJSON(w, http.StatusBadRequest, schema.ErrorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, schema.SignedURLResponse{
			URL:       "https://storage.example.com/put?sig=1",
			PublicURL: "https://cdn.example.com/Trip/1.jpg",
		})
	})
	c, _ := newTestClient(t, mux)

	grant, err := c.Authorize(context.Background(), schema.SignedURLRequest{Filename: "a.jpg", ContentType: "image/jpeg", Folder: "Trip"})
	if !assert.NoError(err) {
		return
	}
	assert.Equal("a.jpg", request.Filename)
	assert.Equal("image/jpeg", request.ContentType)
	assert.Equal("Trip", request.Folder)
	assert.Equal("https://storage.example.com/put?sig=1", grant.WriteURL)
	assert.Equal("https://cdn.example.com/Trip/1.jpg", grant.PublicURL)
	assert.Equal("image/jpeg", grant.ContentType)
	assert.True(grant.ExpiresAt.IsZero())
}

func Test_Authorize_002(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/signed-url", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, schema.ErrorResponse{Error: "not signed in"})
	})
	c, _ := newTestClient(t, mux)

	_, err := c.Authorize(context.Background(), schema.SignedURLRequest{Filename: "a.jpg", ContentType: "image/jpeg", Folder: "Trip"})
	require.Error(t, err)
	assert.ErrorIs(t, err, schema.ErrAuthorization)
}

func Test_Authorize_003(t *testing.T) {
	// A grant without a write location is refused
	mux := http.NewServeMux()
	mux.HandleFunc("/api/signed-url", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, schema.SignedURLResponse{PublicURL: "https://cdn.example.com/x"})
	})
	c, _ := newTestClient(t, mux)

	_, err := c.Authorize(context.Background(), schema.SignedURLRequest{Filename: "a.jpg", ContentType: "image/jpeg", Folder: "Trip"})
	assert.ErrorIs(t, err, schema.ErrAuthorization)
}

func Test_Register_001(t *testing.T) {
	assert := assert.New(t)
	var request schema.RegisterUploadRequest
	mux := http.NewServeMux()
	mux.HandleFunc("/api/register-upload", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&request)
		writeJSON(w, http.StatusOK, schema.RegisterUploadResponse{Status: schema.StatusSuccess, Folder: request.Folder, Filename: request.Filename})
	})
	c, _ := newTestClient(t, mux)

	response, err := c.Register(context.Background(), schema.RegisterUploadRequest{
		Filename: "a.jpg", ContentType: "image/jpeg", Folder: "Trip", PublicURL: "https://cdn.example.com/Trip/1.jpg",
	})
	if !assert.NoError(err) {
		return
	}
	assert.Equal(schema.StatusSuccess, response.Status)
	assert.Equal("https://cdn.example.com/Trip/1.jpg", request.PublicURL)
}

func Test_Register_002(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/register-upload", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, schema.ErrorResponse{Error: "index unavailable"})
	})
	c, _ := newTestClient(t, mux)

	_, err := c.Register(context.Background(), schema.RegisterUploadRequest{Filename: "a.jpg", Folder: "Trip"})
	require.Error(t, err)
	assert.ErrorIs(t, err, schema.ErrRegistration)
}

///////////////////////////////////////////////////////////////////////////////
// DIRECT TRANSFER

func Test_Transfer_001(t *testing.T) {
	assert := assert.New(t)
	var body []byte
	var contentType string
	var contentLength int64
	mux := http.NewServeMux()
	mux.HandleFunc("/bucket/object", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		contentType = r.Header.Get("Content-Type")
		contentLength = r.ContentLength
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	})
	c, srv := newTestClient(t, mux)

	grant := schema.AuthorizationGrant{WriteURL: srv.URL + "/bucket/object", ContentType: "image/jpeg"}
	var progress progressLog
	err := c.Transfer(context.Background(), grant, file("a.jpg", "image/jpeg", "hello world"), progress.fn)
	if !assert.NoError(err) {
		return
	}
	assert.Equal("image/jpeg", contentType)
	assert.Equal(int64(11), contentLength)
	assert.True(bytes.Equal([]byte("hello world"), body))
	require.NotEmpty(t, progress.written)
	assert.Equal(int64(11), progress.written[len(progress.written)-1])
	assert.Equal(int64(11), progress.total)
}

func Test_Transfer_002(t *testing.T) {
	// Object storage errors carry the XML message
	mux := http.NewServeMux()
	mux.HandleFunc("/bucket/object", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>`+"\n"+`<Error><Code>AccessDenied</Code><Message>Request has expired</Message></Error>`)
	})
	c, srv := newTestClient(t, mux)

	grant := schema.AuthorizationGrant{WriteURL: srv.URL + "/bucket/object", ContentType: "image/jpeg"}
	err := c.Transfer(context.Background(), grant, file("a.jpg", "image/jpeg", "data"), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, schema.ErrTransfer)
	failed := schema.Failure("a.jpg", schema.KindTransfer, err)
	assert.Equal(t, "Request has expired", failed.Detail)
}

func Test_Transfer_003(t *testing.T) {
	// A failure without a readable body gets a generic message
	mux := http.NewServeMux()
	mux.HandleFunc("/bucket/object", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusBadGateway)
	})
	c, srv := newTestClient(t, mux)

	grant := schema.AuthorizationGrant{WriteURL: srv.URL + "/bucket/object", ContentType: "image/jpeg"}
	err := c.Transfer(context.Background(), grant, file("a.jpg", "image/jpeg", "data"), nil)
	require.Error(t, err)
	failed := schema.Failure("a.jpg", schema.KindTransfer, err)
	assert.Equal(t, schema.KindTransfer, failed.Kind)
	assert.Equal(t, "upload failed: 502 Bad Gateway", failed.Detail)
}

func Test_Transfer_004(t *testing.T) {
	c, err := httpclient.New("http://localhost/api")
	require.NoError(t, err)
	err = c.Transfer(context.Background(), schema.AuthorizationGrant{}, file("a.jpg", "image/jpeg", "data"), nil)
	assert.ErrorIs(t, err, schema.ErrTransfer)
	assert.ErrorIs(t, err, schema.ErrBadParameter)
}

///////////////////////////////////////////////////////////////////////////////
// FOLDERS

func Test_ListFolders_001(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/folders", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, schema.FolderList{Folders: []schema.Folder{
			{Name: "Trip", Images: []schema.Image{{Filename: "a.jpg", URL: "https://cdn.example.com/Trip/a.jpg"}}},
		}})
	})
	c, _ := newTestClient(t, mux)

	list, err := c.ListFolders(context.Background())
	require.NoError(t, err)
	require.Len(t, list.Folders, 1)
	assert.Equal(t, "Trip", list.Folders[0].Name)
	assert.Equal(t, "a.jpg", list.Folders[0].Images[0].Filename)
}
