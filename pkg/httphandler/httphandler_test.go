package httphandler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	// Packages
	backend "github.com/mutablelogic/go-gallery/pkg/backend"
	httphandler "github.com/mutablelogic/go-gallery/pkg/httphandler"
	manager "github.com/mutablelogic/go-gallery/pkg/manager"
	httprouter "github.com/mutablelogic/go-server/pkg/httprouter"
)

const (
	testPublicURL = "http://example.com/media"
	testBlobURL   = "http://example.com/blob"
)

// serveMux returns a router with all httphandler routes registered.
func serveMux(t *testing.T, mgr *manager.Manager, maxRequestBytes int64) http.Handler {
	t.Helper()
	router, err := httprouter.NewRouter(context.Background(), http.NewServeMux(), "/", "", "gallery", "test")
	if err != nil {
		t.Fatalf("failed to create router: %v", err)
	}
	if err := httphandler.RegisterHandlers(mgr, router, maxRequestBytes); err != nil {
		t.Fatalf("failed to register handlers: %v", err)
	}
	return router
}

// newTestManager creates a manager with the given backend URL.
func newTestManager(t *testing.T, url string, opts ...backend.Opt) *manager.Manager {
	t.Helper()
	mgr, err := manager.New(context.Background(),
		manager.WithBackend(context.Background(), url, opts...),
		manager.WithPublicURL(testPublicURL),
	)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	t.Cleanup(func() { mgr.Close() })
	return mgr
}

// newSignedManager creates a manager with a file backend which signs writes.
func newSignedManager(t *testing.T) *manager.Manager {
	t.Helper()
	return newTestManager(t, "file://"+t.TempDir(), backend.WithSigner(testBlobURL, []byte("secret")))
}

type partSpec struct {
	filename    string // Content-Disposition filename
	contentType string // part Content-Type
	content     string // part body
}

// newUploadRequest builds a POST /upload request with a folder field and one
// "images" part for each entry in specs.
func newUploadRequest(t *testing.T, folder string, specs []partSpec) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if folder != "" {
		if err := mw.WriteField("folder", folder); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	for _, s := range specs {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename=%q`, s.filename))
		h.Set("Content-Type", s.contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("CreatePart: %v", err)
		}
		if _, err := part.Write([]byte(s.content)); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// newJSONRequest builds a request with a JSON body.
func newJSONRequest(t *testing.T, method, url string, v any) *http.Request {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(method, url, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// serve runs a request and returns the recorded response.
func serve(mux http.Handler, req *http.Request) *http.Response {
	rw := httptest.NewRecorder()
	mux.ServeHTTP(rw, req)
	return rw.Result()
}

// decode decodes a JSON response body or fails the test.
func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}
