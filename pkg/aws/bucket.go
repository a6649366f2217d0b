package aws

import (
	"context"

	// Packages
	s3 "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	types "github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// EnsureBucket creates the named bucket when it does not exist.
func (c *Client) EnsureBucket(ctx context.Context, name string) error {
	if c.s3 == nil {
		return httpresponse.ErrInternalError.Withf("S3 client is nil")
	}

	// The name must be an identifier
	if !types.IsIdentifier(name) {
		return httpresponse.ErrBadRequest.Withf("Invalid bucket name: %q", name)
	}

	// Check for the bucket
	if _, err := c.s3.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: types.StringPtr(name),
	}); err == nil {
		return nil
	} else if !isNotFound(err) {
		return Err(err)
	}

	// Create the bucket
	input := &s3.CreateBucketInput{
		Bucket: types.StringPtr(name),
	}
	if c.region != "" && c.region != "us-east-1" {
		input.CreateBucketConfiguration = &s3types.CreateBucketConfiguration{
			LocationConstraint: s3types.BucketLocationConstraint(c.region),
		}
	}
	_, err := c.s3.CreateBucket(ctx, input)

	// Return any errors
	return Err(err)
}
