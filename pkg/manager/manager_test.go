package manager

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	// Packages
	backend "github.com/mutablelogic/go-gallery/pkg/backend"
	schema "github.com/mutablelogic/go-gallery/pkg/schema"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	assert "github.com/stretchr/testify/assert"
)

const (
	testPublicURL = "http://localhost:8080/api/media"
	testBlobURL   = "http://localhost:8080/api/blob"
)

func newMemManager(t *testing.T, opts ...Opt) *Manager {
	t.Helper()
	mgr, err := New(context.TODO(), append([]Opt{
		WithBackend(context.TODO(), "mem://"),
		WithPublicURL(testPublicURL),
	}, opts...)...)
	if !assert.NoError(t, err) {
		t.FailNow()
	}
	t.Cleanup(func() { mgr.Close() })
	return mgr
}

func newFileManager(t *testing.T, opts ...Opt) *Manager {
	t.Helper()
	mgr, err := New(context.TODO(), append([]Opt{
		WithBackend(context.TODO(), "file://"+t.TempDir(), backend.WithSigner(testBlobURL, []byte("secret"))),
		WithPublicURL(testPublicURL),
	}, opts...)...)
	if !assert.NoError(t, err) {
		t.FailNow()
	}
	t.Cleanup(func() { mgr.Close() })
	return mgr
}

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE TESTS

func Test_Manager_New(t *testing.T) {
	assert := assert.New(t)

	t.Run("MissingBackend", func(t *testing.T) {
		_, err := New(context.TODO(), WithPublicURL(testPublicURL))
		assert.Error(err)
	})

	t.Run("MissingPublicURL", func(t *testing.T) {
		_, err := New(context.TODO(), WithBackend(context.TODO(), "mem://"))
		assert.Error(err)
	})

	t.Run("InvalidPublicURL", func(t *testing.T) {
		_, err := New(context.TODO(), WithBackend(context.TODO(), "mem://"), WithPublicURL("ftp://localhost/media"))
		assert.Error(err)
	})

	t.Run("DuplicateBackend", func(t *testing.T) {
		_, err := New(context.TODO(), WithBackend(context.TODO(), "mem://"), WithBackend(context.TODO(), "mem://"))
		assert.Error(err)
	})

	t.Run("InvalidGrantTTL", func(t *testing.T) {
		_, err := New(context.TODO(), WithBackend(context.TODO(), "mem://"), WithPublicURL(testPublicURL), WithGrantTTL(0))
		assert.Error(err)
	})

	t.Run("NewManager", func(t *testing.T) {
		mgr := newMemManager(t)
		assert.Equal("mem", mgr.Backend().Scheme)
	})
}

////////////////////////////////////////////////////////////////////////////////
// INGEST TESTS

func Test_Manager_Ingest(t *testing.T) {
	assert := assert.New(t)
	mgr := newMemManager(t)

	response, err := mgr.Ingest(context.TODO(), "Trip",
		Upload{Name: "a.JPG", ContentType: "image/jpeg", Body: strings.NewReader("jpeg")},
		Upload{Name: "b.png", ContentType: "image/png", Body: strings.NewReader("png data")},
	)
	if !assert.NoError(err) {
		t.FailNow()
	}
	assert.Equal(schema.StatusSuccess, response.Status)
	assert.Equal("Trip", response.Folder)
	assert.Equal([]string{"a.JPG", "b.png"}, response.Filenames)

	// The folder is listed with both images
	list, err := mgr.Folders(context.TODO())
	if !assert.NoError(err) {
		t.FailNow()
	}
	if !assert.Len(list.Folders, 1) {
		t.FailNow()
	}
	folder := list.Folders[0]
	assert.Equal("Trip", folder.Name)
	if !assert.Len(folder.Images, 2) {
		t.FailNow()
	}
	assert.Equal("a.JPG", folder.Images[0].Filename)
	assert.True(strings.HasPrefix(folder.Images[0].URL, testPublicURL+"/Trip/"))
	assert.True(strings.HasSuffix(folder.Images[0].URL, ".jpg"))
	assert.Equal(int64(4), folder.Images[0].Size)
	assert.Equal("image/png", folder.Images[1].ContentType)

	// The content can be read back by key
	key := mgr.keyForURL(folder.Images[1].URL)
	r, object, err := mgr.Read(context.TODO(), key)
	if !assert.NoError(err) {
		t.FailNow()
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	assert.NoError(err)
	assert.Equal("png data", string(data))
	assert.Equal(int64(8), object.Size)
}

func Test_Manager_IngestErrors(t *testing.T) {
	assert := assert.New(t)
	mgr := newMemManager(t)

	t.Run("MissingFolder", func(t *testing.T) {
		_, err := mgr.Ingest(context.TODO(), " ", Upload{Name: "a.jpg", Body: strings.NewReader("x")})
		assert.ErrorIs(err, httpresponse.ErrBadRequest)
	})

	t.Run("InvalidFolder", func(t *testing.T) {
		_, err := mgr.Ingest(context.TODO(), "a/b", Upload{Name: "a.jpg", Body: strings.NewReader("x")})
		assert.ErrorIs(err, httpresponse.ErrBadRequest)
	})

	t.Run("NoFiles", func(t *testing.T) {
		_, err := mgr.Ingest(context.TODO(), "Trip")
		assert.ErrorIs(err, httpresponse.ErrBadRequest)
	})

	t.Run("Rollback", func(t *testing.T) {
		_, err := mgr.Ingest(context.TODO(), "Trip",
			Upload{Name: "a.jpg", Body: strings.NewReader("x")},
			Upload{Name: "", Body: strings.NewReader("y")},
		)
		assert.Error(err)

		list, err := mgr.Folders(context.TODO())
		assert.NoError(err)
		assert.Empty(list.Folders)
	})
}

////////////////////////////////////////////////////////////////////////////////
// DIRECT WRITE TESTS

func Test_Manager_Direct(t *testing.T) {
	assert := assert.New(t)
	now := time.Now()
	mgr := newFileManager(t, WithClock(func() time.Time { return now }), WithGrantTTL(time.Minute))

	// Authorize
	grant, err := mgr.Authorize(context.TODO(), schema.SignedURLRequest{
		Filename:    "a.jpg",
		ContentType: "image/jpeg",
		Folder:      "Trip",
	})
	if !assert.NoError(err) {
		t.FailNow()
	}
	assert.True(strings.HasPrefix(grant.URL, testBlobURL+"?"))
	assert.True(strings.HasPrefix(grant.PublicURL, testPublicURL+"/Trip/"))
	assert.Equal(now.Add(time.Minute).Truncate(time.Second), grant.ExpiresAt)

	// Registering before the write fails
	_, err = mgr.Register(context.TODO(), schema.RegisterUploadRequest{
		Filename:    "a.jpg",
		ContentType: "image/jpeg",
		Folder:      "Trip",
		PublicURL:   grant.PublicURL,
	})
	assert.ErrorIs(err, httpresponse.ErrNotFound)

	// Write with the wrong content type
	u, err := url.Parse(grant.URL)
	if !assert.NoError(err) {
		t.FailNow()
	}
	_, err = mgr.Write(context.TODO(), u, "image/png", bytes.NewReader([]byte("jpeg data")))
	assert.ErrorIs(err, httpresponse.ErrForbidden)

	// Write
	object, err := mgr.Write(context.TODO(), u, "image/jpeg", bytes.NewReader([]byte("jpeg data")))
	if !assert.NoError(err) {
		t.FailNow()
	}
	assert.Equal(int64(9), object.Size)

	// Register
	response, err := mgr.Register(context.TODO(), schema.RegisterUploadRequest{
		Filename:    "a.jpg",
		ContentType: "image/jpeg",
		Folder:      "Trip",
		PublicURL:   grant.PublicURL,
	})
	if !assert.NoError(err) {
		t.FailNow()
	}
	assert.Equal(schema.StatusSuccess, response.Status)
	assert.Equal("a.jpg", response.Filename)

	// Registering again replaces the image
	_, err = mgr.Register(context.TODO(), schema.RegisterUploadRequest{
		Filename:    "a.jpg",
		ContentType: "image/jpeg",
		Folder:      "Trip",
		PublicURL:   grant.PublicURL,
	})
	assert.NoError(err)

	list, err := mgr.Folders(context.TODO())
	if !assert.NoError(err) {
		t.FailNow()
	}
	if assert.Len(list.Folders, 1) && assert.Len(list.Folders[0].Images, 1) {
		image := list.Folders[0].Images[0]
		assert.Equal(grant.PublicURL, image.URL)
		assert.Equal(int64(9), image.Size)
		assert.Equal("image/jpeg", image.ContentType)
	}
}

func Test_Manager_RegisterErrors(t *testing.T) {
	assert := assert.New(t)
	mgr := newFileManager(t)

	tests := []struct {
		name string
		req  schema.RegisterUploadRequest
	}{
		{"MissingFolder", schema.RegisterUploadRequest{Filename: "a.jpg", PublicURL: testPublicURL + "/Trip/x.jpg"}},
		{"MissingFilename", schema.RegisterUploadRequest{Folder: "Trip", PublicURL: testPublicURL + "/Trip/x.jpg"}},
		{"OtherFolder", schema.RegisterUploadRequest{Filename: "a.jpg", Folder: "Trip", PublicURL: testPublicURL + "/Other/x.jpg"}},
		{"OtherHost", schema.RegisterUploadRequest{Filename: "a.jpg", Folder: "Trip", PublicURL: "http://example.com/api/media/Trip/x.jpg"}},
		{"Traversal", schema.RegisterUploadRequest{Filename: "a.jpg", Folder: "Trip", PublicURL: testPublicURL + "/Trip/../x.jpg"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := mgr.Register(context.TODO(), tt.req)
			assert.ErrorIs(err, httpresponse.ErrBadRequest)
		})
	}
}

func Test_Manager_Tampered(t *testing.T) {
	assert := assert.New(t)
	mgr := newFileManager(t)

	grant, err := mgr.Authorize(context.TODO(), schema.SignedURLRequest{
		Filename:    "a.jpg",
		ContentType: "image/jpeg",
		Folder:      "Trip",
	})
	if !assert.NoError(err) {
		t.FailNow()
	}
	u, err := url.Parse(grant.URL)
	if !assert.NoError(err) {
		t.FailNow()
	}
	q := u.Query()
	q.Set("obj", "Other/a.jpg")
	u.RawQuery = q.Encode()
	_, err = mgr.Write(context.TODO(), u, "image/jpeg", strings.NewReader("x"))
	assert.ErrorIs(err, httpresponse.ErrForbidden)
}

func Test_Manager_AuthorizeErrors(t *testing.T) {
	assert := assert.New(t)
	mgr := newFileManager(t)

	for _, req := range []schema.SignedURLRequest{
		{Filename: "a.jpg", ContentType: "image/jpeg"},
		{Folder: "Trip", ContentType: "image/jpeg"},
		{Folder: "Trip", Filename: "a.jpg"},
	} {
		_, err := mgr.Authorize(context.TODO(), req)
		assert.ErrorIs(err, httpresponse.ErrBadRequest, req.String())
	}
}

////////////////////////////////////////////////////////////////////////////////
// NAME TESTS

func Test_Manager_Names(t *testing.T) {
	assert := assert.New(t)

	name, err := fileName(`C:\photos\a.jpg`)
	assert.NoError(err)
	assert.Equal("a.jpg", name)

	name, err = fileName("/tmp/b.png")
	assert.NoError(err)
	assert.Equal("b.png", name)

	_, err = fileName("..")
	assert.Error(err)

	name, err = folderName(" Trip 2024 ")
	assert.NoError(err)
	assert.Equal("Trip 2024", name)

	key := objectKey("Trip", "a.JPEG")
	assert.True(strings.HasPrefix(key, "Trip/"))
	assert.True(strings.HasSuffix(key, ".jpeg"))
}
