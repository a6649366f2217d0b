// Package planner partitions a list of files into size-bounded batches for
// the bulk ingestion endpoint.
package planner

import (
	// Packages
	schema "github.com/mutablelogic/go-gallery/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Plan partitions files into batches of at most maxBatchBytes, walking the
// files in the order given. A file is never split and the order of files is
// preserved within and across batches. Planning fails without producing any
// batches when a single file is larger than maxBatchBytes, when a file has a
// negative size, or when two files share the same name. An empty list of
// files returns no batches and no error.
func Plan(files []schema.FileDescriptor, maxBatchBytes int64) ([]schema.Batch, error) {
	if maxBatchBytes <= 0 {
		return nil, schema.NewError(schema.KindPlanning, "", schema.ErrBadParameter, "invalid maximum batch size %d", maxBatchBytes)
	}

	if err := check(files, maxBatchBytes); err != nil {
		return nil, err
	}

	// Greedy accumulation
	var result []schema.Batch
	var current schema.Batch
	for _, file := range files {
		if len(current.Files) > 0 && current.TotalBytes+file.Size > maxBatchBytes {
			result = append(result, current)
			current = schema.Batch{}
		}
		current.Files = append(current.Files, file)
		current.TotalBytes += file.Size
	}
	if len(current.Files) > 0 {
		result = append(result, current)
	}

	// Return success
	return result, nil
}

// Each returns one batch per file for the direct transfer path, which has
// no request-size ceiling. Files are checked as for Plan, except for size.
func Each(files []schema.FileDescriptor) ([]schema.Batch, error) {
	if err := check(files, 0); err != nil {
		return nil, err
	}
	result := make([]schema.Batch, 0, len(files))
	for _, file := range files {
		result = append(result, schema.Batch{Files: []schema.FileDescriptor{file}, TotalBytes: file.Size})
	}
	return result, nil
}

// Count returns the total number of files across batches.
func Count(batches []schema.Batch) int {
	var n int
	for _, batch := range batches {
		n += len(batch.Files)
	}
	return n
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// check validates every file before any batch is created. A limit of zero
// does not bound the size of a file.
func check(files []schema.FileDescriptor, limit int64) error {
	seen := make(map[string]struct{}, len(files))
	for _, file := range files {
		if file.Size < 0 {
			return schema.NewError(schema.KindPlanning, file.Name, schema.ErrBadParameter, "negative size %d", file.Size)
		}
		if limit > 0 && file.Size > limit {
			return schema.NewError(schema.KindPlanning, file.Name, schema.ErrFileTooLarge, "%d bytes exceeds the maximum batch size of %d bytes", file.Size, limit)
		}
		if _, exists := seen[file.Name]; exists {
			return schema.NewError(schema.KindPlanning, file.Name, schema.ErrDuplicateFile, "file name appears more than once")
		}
		seen[file.Name] = struct{}{}
	}
	return nil
}
