package main

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	// Packages
	uuid "github.com/google/uuid"
	aws "github.com/mutablelogic/go-gallery/pkg/aws"
	backend "github.com/mutablelogic/go-gallery/pkg/backend"
	httphandler "github.com/mutablelogic/go-gallery/pkg/httphandler"
	manager "github.com/mutablelogic/go-gallery/pkg/manager"
	schema "github.com/mutablelogic/go-gallery/pkg/schema"
	version "github.com/mutablelogic/go-gallery/pkg/version"
	httprouter "github.com/mutablelogic/go-server/pkg/httprouter"
	httpserver "github.com/mutablelogic/go-server/pkg/httpserver"
	serverotel "github.com/mutablelogic/go-server/pkg/otel"
	zerolog "github.com/rs/zerolog"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type ServerCommands struct {
	Server RunServerCommand `cmd:"" name:"server" help:"Run the reference HTTP server." group:"SERVER"`
}

type RunServerCommand struct {
	Listen     string        `name:"listen" default:":8080" help:"Listen address"`
	Storage    string        `name:"storage" env:"GALLERY_STORAGE" default:"mem://" help:"Storage URL (mem://, file:///path, s3://bucket)"`
	PublicURL  string        `name:"public-url" env:"GALLERY_PUBLIC_URL" default:"http://localhost:8080/api" help:"API URL as seen by clients"`
	MaxRequest int64         `name:"max-request" default:"${MAXREQUEST}" help:"Maximum bytes in one upload request"`
	GrantTTL   time.Duration `name:"grant-ttl" default:"15m" help:"Lifetime of direct write grants"`
	Secret     string        `name:"secret" env:"GALLERY_SECRET" help:"Secret which signs direct writes to file:// storage"`
	Origin     string        `name:"origin" env:"GALLERY_ORIGIN" help:"Trusted cross-origin (empty for same-origin only, * for any)"`
	S3         struct {
		Endpoint string `name:"endpoint" env:"GALLERY_S3_ENDPOINT" help:"S3-compatible endpoint"`
		Region   string `name:"region" env:"AWS_REGION" help:"S3 region"`
	} `embed:"" prefix:"s3."`
}

var _ httphandler.Router = (*httprouter.Router)(nil)

///////////////////////////////////////////////////////////////////////////////
// COMMANDS

func (cmd *RunServerCommand) Run(app *Globals) error {
	public, err := url.Parse(cmd.PublicURL)
	if err != nil {
		return err
	}

	// Open the storage
	opts, err := cmd.backendOpts(app, public)
	if err != nil {
		return err
	}
	mgr, err := manager.New(app.Context(),
		manager.WithBackend(app.Context(), cmd.Storage, opts...),
		manager.WithPublicURL(public.JoinPath(schema.MediaPath).String()),
		manager.WithGrantTTL(cmd.GrantTTL),
		manager.WithLogger(app.Logger()),
	)
	if err != nil {
		return fmt.Errorf("failed to create manager: %w", err)
	}
	defer mgr.Close()

	return cmd.serve(app, mgr, public.Path)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// backendOpts returns the storage options for the storage URL scheme
func (cmd *RunServerCommand) backendOpts(app *Globals, public *url.URL) ([]backend.Opt, error) {
	storage, err := url.Parse(cmd.Storage)
	if err != nil {
		return nil, err
	}
	switch storage.Scheme {
	case "file":
		secret := cmd.Secret
		if secret == "" {
			secret = uuid.NewString()
			app.Logger().Warn().Msg("no secret set, direct write grants will not survive a restart")
		}
		return []backend.Opt{
			backend.WithCreateDir(),
			backend.WithSigner(public.JoinPath(schema.BlobPath).String(), []byte(secret)),
		}, nil
	case "s3":
		opts := []aws.Opt{aws.WithTracing()}
		if cmd.S3.Region != "" {
			opts = append(opts, aws.WithRegion(cmd.S3.Region))
		}
		if cmd.S3.Endpoint != "" {
			opts = append(opts, aws.WithEndpoint(cmd.S3.Endpoint))
		}
		client, err := aws.New(app.Context(), opts...)
		if err != nil {
			return nil, err
		}
		if err := client.EnsureBucket(app.Context(), storage.Host); err != nil {
			return nil, err
		}
		return []backend.Opt{backend.WithS3Client(client.S3())}, nil
	default:
		return nil, nil
	}
}

// serve registers HTTP handlers and runs the server until context is done
func (cmd *RunServerCommand) serve(app *Globals, mgr *manager.Manager, prefix string) error {
	srv, err := httpserver.New(cmd.Listen, nil)
	if err != nil {
		return fmt.Errorf("httpserver: %w", err)
	}

	// Create the router, logging every request
	router, err := httprouter.NewRouter(app.Context(), srv.Router(), prefix, cmd.Origin, execName(), version.Version(), logRequests(app.Logger()))
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}
	srv.SetHandler(router)

	// Register the gallery handlers, and a JSON 404 for anything else
	if err := httphandler.RegisterHandlers(mgr, router, cmd.MaxRequest); err != nil {
		return fmt.Errorf("failed to register handlers: %w", err)
	}
	if err := router.RegisterCatchAll(prefix, true); err != nil {
		return fmt.Errorf("catchall: %w", err)
	}

	// Bind before reporting the address, then run until cancelled
	if err := srv.Listen(); err != nil {
		return err
	}
	app.Logger().Info().
		Str("version", version.Version()).
		Str("addr", srv.Addr()).
		Str("prefix", router.Prefix()).
		Str("storage", mgr.Backend().Redacted()).
		Msg("gallery started")
	if err := srv.Run(app.Context()); err != nil {
		return err
	}
	app.Logger().Info().Msg("gallery stopped")
	return nil
}

// logRequests returns middleware which logs each request with its status
func logRequests(log zerolog.Logger) httprouter.HTTPMiddlewareFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := serverotel.NewResponseWriter(w)
			next(rw, r)
			event := log.Debug()
			if rw.Status() >= http.StatusBadRequest {
				event = log.Warn()
			}
			event.Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rw.Status()).
				Int("size", rw.Size()).
				Dur("duration", time.Since(start)).
				Msg("request")
		}
	}
}
