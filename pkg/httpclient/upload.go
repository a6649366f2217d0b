package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/textproto"
	"strconv"
	"strings"

	// Packages
	client "github.com/mutablelogic/go-client"
	schema "github.com/mutablelogic/go-gallery/pkg/schema"
	types "github.com/mutablelogic/go-server/pkg/types"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// batchForm is the multipart form for the bulk ingestion endpoint.
type batchForm struct {
	Folder string       `json:"folder"`
	Images []types.File `json:"images"`
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// UploadBatch sends every file in the batch to the bulk ingestion endpoint
// as a single multipart request, with the folder name as a form field. fn
// may be nil; otherwise it is called with the number of file bytes sent so
// far and the batch total. Errors are of kind schema.KindTransport and
// the batch is never retried.
func (c *Client) UploadBatch(ctx context.Context, folder string, batch schema.Batch, fn ProgressFunc) (*schema.UploadResponse, error) {
	if strings.TrimSpace(folder) == "" {
		return nil, schema.NewError(schema.KindTransport, "", schema.ErrBadParameter, "missing folder name")
	} else if len(batch.Files) == 0 {
		return nil, schema.NewError(schema.KindTransport, "", schema.ErrBadParameter, "empty batch")
	}

	// Open every file. The encoder reads bodies lazily as the request is
	// sent, so they stay open until DoWithContext returns.
	parts := make([]types.File, 0, len(batch.Files))
	defer func() {
		for _, p := range parts {
			p.Body.Close()
		}
	}()
	var offset int64
	for _, file := range batch.Files {
		part, err := openPart(file, offset, batch.TotalBytes, fn)
		if err != nil {
			return nil, schema.NewError(schema.KindTransport, file.Name, err, "")
		}
		parts = append(parts, part)
		offset += file.Size
	}

	// Stream the request
	payload, err := client.NewStreamingMultipartRequest(&batchForm{
		Folder: folder,
		Images: parts,
	}, types.ContentTypeJSON)
	if err != nil {
		return nil, schema.NewError(schema.KindTransport, "", err, "")
	}
	var response schema.UploadResponse
	if err := c.DoWithContext(ctx, payload, &response,
		client.OptPath(schema.UploadPath),
		client.OptReqHeader("X-Upload-Count", strconv.Itoa(len(parts))),
		client.OptNoTimeout(),
	); err != nil {
		return nil, responseError(schema.KindTransport, "", err)
	}

	// Report the batch as fully sent
	if fn != nil {
		fn(batch.TotalBytes, batch.TotalBytes)
	}

	// Return success
	return &response, nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// openPart opens a file as a multipart part. offset is the position of the
// file within the batch, so progress is reported against the batch total.
func openPart(file schema.FileDescriptor, offset, total int64, fn ProgressFunc) (types.File, error) {
	if file.Open == nil {
		return types.File{}, fmt.Errorf("%w: no content", schema.ErrBadParameter)
	}
	body, err := file.Open()
	if err != nil {
		return types.File{}, err
	}

	contentType := file.ContentType
	if contentType == "" {
		contentType = types.ContentTypeBinary
	}
	h := textproto.MIMEHeader{}
	h.Set(types.ContentLengthHeader, strconv.FormatInt(file.Size, 10))

	return types.File{
		Path: file.Name,
		Body: struct {
			io.Reader
			io.Closer
		}{newProgressReader(body, offset, total, fn), body},
		ContentType: contentType,
		Header:      h,
	}, nil
}
