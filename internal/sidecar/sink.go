// Package sidecar writes XMP sidecar files for library versions into a
// Sink: memory, a local directory or an S3 bucket.
package sidecar

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Get for a name that was never stored.
var ErrNotFound = errors.New("sidecar not found")

// Sink stores named sidecar files.
type Sink interface {
	// Name identifies the sink in logs.
	Name() string
	// Put stores size bytes read from r under name, replacing any
	// previous content.
	Put(ctx context.Context, name string, r io.Reader, size int64) error
	// Get writes the content stored under name to w.
	Get(ctx context.Context, name string, w io.Writer) error
	// ValidateSetup checks that the sink is reachable and writable.
	ValidateSetup(ctx context.Context) error
}
