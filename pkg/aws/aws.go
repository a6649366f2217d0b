// Package aws loads AWS SDK configuration for the S3 storage backend.
package aws

import (
	"context"

	// Packages
	aws "github.com/aws/aws-sdk-go-v2/aws"
	config "github.com/aws/aws-sdk-go-v2/config"
	credentials "github.com/aws/aws-sdk-go-v2/credentials"
	s3 "github.com/aws/aws-sdk-go-v2/service/s3"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	otelaws "go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type Client struct {
	region string
	config aws.Config
	s3     *s3.Client
}

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New loads the default AWS configuration (environment, shared config and
// credentials files) and applies the options on top of it.
func New(ctx context.Context, opt ...Opt) (*Client, error) {
	self := new(Client)
	opts, err := applyOpts(opt...)
	if err != nil {
		return nil, err
	}

	// Load the default configuration
	var loadOpts []func(*config.LoadOptions) error
	if opts.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.region))
	}
	if opts.accessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.accessKey, opts.secretKey, opts.sessionToken),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	// Trace SDK calls
	if opts.traced {
		otelaws.AppendMiddlewares(&cfg.APIOptions)
	}

	// Create the S3 client
	if s3 := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true

		// If there is no region set, we need to set the credentials to nil
		if o.Region == "" {
			o.Credentials = nil
			o.Region = "none"
		} else {
			self.region = o.Region
		}

		// We set the endpoint if it is not empty
		if opts.endpoint != "" {
			o.BaseEndpoint = aws.String(opts.endpoint)
		}
	}); s3 == nil {
		return nil, httpresponse.ErrInternalError.Withf("Invalid S3 client")
	} else {
		self.s3 = s3
	}
	self.config = cfg

	// Return success
	return self, nil
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// S3 returns the S3 client.
func (c *Client) S3() *s3.Client {
	return c.s3
}

// Config returns the loaded configuration.
func (c *Client) Config() aws.Config {
	return c.config
}

// Region returns the region, or an empty string when none is configured.
func (c *Client) Region() string {
	return c.region
}
