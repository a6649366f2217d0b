package main

import (
	"context"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Packages
	kong "github.com/alecthomas/kong"
	client "github.com/mutablelogic/go-client"
	httpclient "github.com/mutablelogic/go-gallery/pkg/httpclient"
	zerolog "github.com/rs/zerolog"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type Globals struct {
	Endpoint string        `env:"GALLERY_ENDPOINT" default:"http://localhost:8080/api" help:"Service endpoint"`
	Timeout  time.Duration `env:"GALLERY_TIMEOUT" default:"30s" help:"Client request timeout"`
	Debug    bool          `help:"Enable debug output"`
	Trace    bool          `help:"Enable trace output"`

	vars   kong.Vars `kong:"-"` // Variables for kong
	ctx    context.Context
	cancel context.CancelFunc
	log    zerolog.Logger
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func NewApp(app Globals, vars kong.Vars) *Globals {
	// Set the vars
	app.vars = vars

	// Create the logger
	level := zerolog.InfoLevel
	if app.GetDebug() {
		level = zerolog.DebugLevel
	}
	app.log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()

	// Create the context
	// This context is cancelled when the process receives a SIGINT or SIGTERM
	app.ctx, app.cancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	// Return the app
	return &app
}

func (app *Globals) Close() error {
	app.cancel()
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// METHODS

func (app *Globals) Context() context.Context {
	return app.ctx
}

func (app *Globals) Logger() zerolog.Logger {
	return app.log
}

func (app *Globals) GetEndpoint() *url.URL {
	if url, err := url.Parse(app.Endpoint); err == nil {
		return url
	}
	return nil
}

func (app *Globals) GetDebug() bool {
	return app.Debug || app.Trace
}

// Client builds a gallery HTTP client from the global flags.
func (app *Globals) Client() (*httpclient.Client, error) {
	opts := []client.ClientOpt{}
	if app.Trace {
		opts = append(opts, client.OptTrace(os.Stderr, false))
	}
	if app.Timeout > 0 {
		opts = append(opts, client.OptTimeout(app.Timeout))
	}
	return httpclient.New(app.Endpoint, opts...)
}
