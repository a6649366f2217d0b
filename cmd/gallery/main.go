package main

import (
	"os"
	"path/filepath"
	"strconv"

	// Packages
	kong "github.com/alecthomas/kong"
	schema "github.com/mutablelogic/go-gallery/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type CLI struct {
	Globals
	UploadCommands
	ServerCommands
	VersionCommands
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func main() {
	// Parse command-line flags
	var cli CLI
	kong := kong.Parse(&cli,
		kong.Name(execName()),
		kong.Description("media gallery upload tool"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Vars{
			"MAXBATCH":   strconv.FormatInt(schema.DefaultMaxBatchBytes, 10),
			"MAXREQUEST": strconv.FormatInt(schema.DefaultMaxRequestBytes, 10),
		},
	)

	// Create the app
	app := NewApp(cli.Globals, kong.Model.Vars())
	defer app.Close()

	// Run
	kong.Bind(app)
	kong.FatalIfErrorf(kong.Run())
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func execName() string {
	// The name of the executable
	name, err := os.Executable()
	if err != nil {
		panic(err)
	}
	return filepath.Base(name)
}
