package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	// Packages
	httpclient "github.com/mutablelogic/go-gallery/pkg/httpclient"
	localfile "github.com/mutablelogic/go-gallery/pkg/localfile"
	schema "github.com/mutablelogic/go-gallery/pkg/schema"
	upload "github.com/mutablelogic/go-gallery/pkg/upload"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type UploadCommands struct {
	Upload  UploadCommand  `cmd:"" group:"GALLERY" help:"Upload media files to a folder"`
	Folders FoldersCommand `cmd:"" group:"GALLERY" help:"List folders"`
}

type UploadCommand struct {
	Folder   string   `arg:"" help:"Destination folder"`
	Path     []string `arg:"" help:"Files or directories to upload"`
	MaxBatch int64    `name:"max-batch" default:"${MAXBATCH}" help:"Maximum bytes of file content in one request"`
	Direct   bool     `name:"direct" help:"Write each file directly to storage with a signed URL"`
	Hidden   bool     `name:"hidden" help:"Include hidden files and directories"`
}

type FoldersCommand struct{}

///////////////////////////////////////////////////////////////////////////////
// COMMANDS

func (cmd *UploadCommand) Run(app *Globals) error {
	return run(app, func(ctx context.Context, gallery *httpclient.Client) error {
		files, err := cmd.scan(ctx)
		if err != nil {
			return err
		} else if len(files) == 0 {
			return errors.New("no media files found")
		}

		// Create the session
		opts := []upload.Opt{
			upload.WithLogger(app.Logger()),
			upload.WithProgress(progress()),
		}
		if cmd.Direct {
			opts = append(opts, upload.WithDirect(gallery))
		} else {
			opts = append(opts, upload.WithTransport(gallery))
		}
		session, err := upload.New(cmd.Folder, files, cmd.MaxBatch, opts...)
		if err != nil {
			return err
		}

		// Run the session
		outcome, err := session.Run(ctx)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return err
		}
		fmt.Printf("Uploaded %d of %d files to %q\n", outcome.Succeeded, len(files), outcome.Collection)
		for _, failed := range outcome.Failed {
			fmt.Printf("  %s: %s: %s\n", failed.Name, failed.Kind, failed.Detail)
		}

		// Refresh the folder
		if folders, err := gallery.ListFolders(ctx); err != nil {
			app.Logger().Warn().Err(err).Msg("folder refresh failed")
		} else {
			for _, folder := range folders.Folders {
				if folder.Name == outcome.Collection {
					fmt.Printf("Folder %q has %d images\n", folder.Name, len(folder.Images))
				}
			}
		}

		if !outcome.OK() {
			return fmt.Errorf("%d of %d files failed", len(outcome.Failed), len(files))
		}
		return nil
	})
}

func (cmd *FoldersCommand) Run(app *Globals) error {
	return run(app, func(ctx context.Context, gallery *httpclient.Client) error {
		folders, err := gallery.ListFolders(ctx)
		if err != nil {
			return err
		}
		fmt.Println(folders)
		return nil
	})
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func run(app *Globals, fn func(context.Context, *httpclient.Client) error) error {
	// Create a client
	gallery, err := app.Client()
	if err != nil {
		return err
	}
	// Run the function
	return fn(app.Context(), gallery)
}

// scan describes the media files under the command paths, which are
// resolved relative to the filesystem root
func (cmd *UploadCommand) scan(ctx context.Context) ([]schema.FileDescriptor, error) {
	paths := make([]string, 0, len(cmd.Path))
	for _, p := range cmd.Path {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		paths = append(paths, strings.TrimPrefix(filepath.ToSlash(abs), "/"))
	}
	opts := []localfile.Opt{localfile.WithFilter(localfile.IsMedia)}
	if cmd.Hidden {
		opts = append(opts, localfile.WithHidden())
	}
	return localfile.Scan(ctx, os.DirFS("/"), paths, opts...)
}

// progress returns a callback which prints overall progress at most
// ten times a second
func progress() func(schema.UploadProgress) {
	var last time.Time
	return func(p schema.UploadProgress) {
		if p.Overall < 100 && time.Since(last) < 100*time.Millisecond {
			return
		}
		last = time.Now()
		fmt.Fprintf(os.Stderr, "Uploading %3d%%\r", p.Overall)
	}
}
