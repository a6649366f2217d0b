package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"

	// Packages
	schema "github.com/mutablelogic/go-gallery/pkg/schema"
	types "github.com/mutablelogic/go-server/pkg/types"
)

///////////////////////////////////////////////////////////////////////////////
// CONSTANTS

// maxErrorBody is the most of an error response body read for a message.
const maxErrorBody = 64 * 1024

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Transfer writes the file directly to the location granted by grant, with
// the content type declared when the grant was issued. The request carries
// an exact Content-Length, which presigned object-storage URLs require, so
// it is sent with the underlying HTTP client rather than as a streaming
// payload. The client timeout does not apply; ctx bounds the transfer.
// Errors are of kind schema.KindTransfer.
func (c *Client) Transfer(ctx context.Context, grant schema.AuthorizationGrant, file schema.FileDescriptor, fn ProgressFunc) error {
	if grant.WriteURL == "" {
		return schema.NewError(schema.KindTransfer, file.Name, schema.ErrBadParameter, "missing write location")
	} else if file.Open == nil {
		return schema.NewError(schema.KindTransfer, file.Name, schema.ErrBadParameter, "no content")
	}

	body, err := file.Open()
	if err != nil {
		return schema.NewError(schema.KindTransfer, file.Name, err, "")
	}
	defer body.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, grant.WriteURL, newProgressReader(body, 0, file.Size, fn))
	if err != nil {
		return schema.NewError(schema.KindTransfer, file.Name, err, "")
	}
	req.ContentLength = file.Size
	if file.Size == 0 {
		req.Body = http.NoBody
	}
	contentType := grant.ContentType
	if contentType == "" {
		contentType = types.ContentTypeBinary
	}
	req.Header.Set(types.ContentTypeHeader, contentType)

	// Use a copy of the client without the overall timeout
	hc := http.DefaultClient
	if c.Client != nil && c.Client.Client != nil {
		cc := *c.Client.Client
		cc.Timeout = 0
		hc = &cc
	}
	response, err := hc.Do(req)
	if err != nil {
		return schema.NewError(schema.KindTransfer, file.Name, err, "")
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(response.Body, maxErrorBody))
		return schema.NewError(schema.KindTransfer, file.Name, fmt.Errorf("%s", response.Status), "%s", bodyDetail(response.Status, data))
	}

	// Drain the body so the connection can be reused
	_, _ = io.Copy(io.Discard, io.LimitReader(response.Body, maxErrorBody))

	// Return success
	return nil
}
