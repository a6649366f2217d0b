package httpclient

import (
	"context"

	// Packages
	client "github.com/mutablelogic/go-client"
	schema "github.com/mutablelogic/go-gallery/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// ListFolders returns the folders in the metadata index with their images.
func (c *Client) ListFolders(ctx context.Context) (*schema.FolderList, error) {
	var response schema.FolderList
	if err := c.DoWithContext(ctx, client.NewRequest(), &response, client.OptPath(schema.FoldersPath)); err != nil {
		return nil, err
	}
	return &response, nil
}
