// Package localfile turns paths on a local filesystem into file
// descriptors for an upload session.
package localfile

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"

	// Packages
	schema "github.com/mutablelogic/go-gallery/pkg/schema"
	types "github.com/mutablelogic/go-server/pkg/types"
	errgroup "golang.org/x/sync/errgroup"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Opt is a functional option for Scan.
type Opt func(*opt) error

type opt struct {
	hidden      bool
	concurrency int
	filter      func(contentType string) bool
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	defaultConcurrency = 8
	sniffLen           = 512
)

///////////////////////////////////////////////////////////////////////////////
// OPTIONS

// WithHidden includes files and directories whose names start with a dot.
func WithHidden() Opt {
	return func(o *opt) error {
		o.hidden = true
		return nil
	}
}

// WithConcurrency sets the number of files inspected at once.
func WithConcurrency(n int) Opt {
	return func(o *opt) error {
		if n < 1 {
			return fmt.Errorf("%w: concurrency must be at least 1", schema.ErrBadParameter)
		}
		o.concurrency = n
		return nil
	}
}

// WithFilter includes only files for which fn returns true, given the
// content type of the file.
func WithFilter(fn func(contentType string) bool) Opt {
	return func(o *opt) error {
		o.filter = fn
		return nil
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Scan returns a descriptor for every regular file at or below the given
// paths of fsys, in walk order. The descriptor name is the base name of
// the file. Content types come from the extension, or from the first bytes
// of the file when the extension is not known. Files are inspected
// concurrently.
func Scan(ctx context.Context, fsys fs.FS, paths []string, opts ...Opt) ([]schema.FileDescriptor, error) {
	o := opt{concurrency: defaultConcurrency}
	for _, fn := range opts {
		if err := fn(&o); err != nil {
			return nil, err
		}
	}

	// Walk the paths
	var entries []string
	for _, p := range paths {
		found, err := walk(fsys, path.Clean(p), o.hidden)
		if err != nil {
			return nil, err
		}
		entries = append(entries, found...)
	}

	// Inspect the files, keeping walk order in the result
	result := make([]schema.FileDescriptor, len(entries))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i, p := range entries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			file, err := describe(fsys, p)
			if err != nil {
				return err
			}
			result[i] = file
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Filter
	if o.filter != nil {
		filtered := result[:0]
		for _, file := range result {
			if o.filter(file.ContentType) {
				filtered = append(filtered, file)
			}
		}
		result = filtered
	}

	// Return success
	return result, nil
}

// IsMedia returns true for image and video content types.
func IsMedia(contentType string) bool {
	return strings.HasPrefix(contentType, "image/") || strings.HasPrefix(contentType, "video/")
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// walk returns the regular files at or below root.
func walk(fsys fs.FS, root string, hidden bool) ([]string, error) {
	var result []string
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !hidden && p != root && isHidden(d.Name()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			result = append(result, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// describe stats the file and determines its content type.
func describe(fsys fs.FS, p string) (schema.FileDescriptor, error) {
	f, err := fsys.Open(p)
	if err != nil {
		return schema.FileDescriptor{}, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return schema.FileDescriptor{}, err
	}

	// Prefer the extension, then sniff the first bytes
	contentType := MIMEByExt(path.Ext(p))
	if contentType == "" || contentType == types.ContentTypeBinary {
		var buf [sniffLen]byte
		n, err := io.ReadFull(f, buf[:])
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return schema.FileDescriptor{}, err
		}
		contentType = http.DetectContentType(buf[:n])
	}

	return schema.FileDescriptor{
		Name:        path.Base(p),
		Size:        info.Size(),
		ContentType: contentType,
		Open: func() (io.ReadCloser, error) {
			return fsys.Open(p)
		},
	}, nil
}
