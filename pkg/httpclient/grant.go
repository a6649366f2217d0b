package httpclient

import (
	"context"
	"strings"

	// Packages
	client "github.com/mutablelogic/go-client"
	schema "github.com/mutablelogic/go-gallery/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Authorize requests a grant to write one file directly to object storage.
// Errors are of kind schema.KindAuthorization.
func (c *Client) Authorize(ctx context.Context, req schema.SignedURLRequest) (*schema.AuthorizationGrant, error) {
	payload, err := client.NewJSONRequest(req)
	if err != nil {
		return nil, schema.NewError(schema.KindAuthorization, req.Filename, err, "")
	}

	var response schema.SignedURLResponse
	if err := c.DoWithContext(ctx, payload, &response, client.OptPath(schema.SignedURLPath)); err != nil {
		return nil, responseError(schema.KindAuthorization, req.Filename, err)
	}
	if strings.TrimSpace(response.URL) == "" {
		return nil, schema.NewError(schema.KindAuthorization, req.Filename, nil, "response is missing the write location")
	}

	// Return the grant
	return &schema.AuthorizationGrant{
		WriteURL:    response.URL,
		PublicURL:   response.PublicURL,
		ContentType: req.ContentType,
		ExpiresAt:   response.ExpiresAt,
	}, nil
}

// Register records a directly-written object in the metadata index.
// Errors are of kind schema.KindRegistration.
func (c *Client) Register(ctx context.Context, req schema.RegisterUploadRequest) (*schema.RegisterUploadResponse, error) {
	payload, err := client.NewJSONRequest(req)
	if err != nil {
		return nil, schema.NewError(schema.KindRegistration, req.Filename, err, "")
	}

	var response schema.RegisterUploadResponse
	if err := c.DoWithContext(ctx, payload, &response, client.OptPath(schema.RegisterUploadPath)); err != nil {
		return nil, responseError(schema.KindRegistration, req.Filename, err)
	}

	// Return success
	return &response, nil
}
