// Package store provides the flat-file project store.
//
// A project lives in a single directory: project.json holds the WBS
// tree, and tasks/<task-id>/ holds the lifecycle documents for each
// task. The store exposes the narrow file contracts the workflow core
// consumes (ListFiles, ReadFile, StatFile) plus project load/save.
package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a file, directory entry, or task does
// not exist. Callers distinguish it from genuine I/O failures, which
// are surfaced as read errors.
var ErrNotFound = errors.New("not found")

// FileInfo carries the size and modification time of a stored file.
// ModTime uses ISO 8601 so it serializes cleanly into API responses.
type FileInfo struct {
	Size    int64  `json:"size"`
	ModTime string `json:"mtime"`
}

// FS is the file access contract the workflow core depends on.
//
// ListFiles returns an empty slice, not an error, when the directory
// is absent: a brand-new task legitimately has zero files.
type FS interface {
	ListFiles(dir string) ([]string, error)
	ReadFile(path string) ([]byte, error)
	StatFile(path string) (FileInfo, error)
}

func isoTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
