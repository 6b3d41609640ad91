// Package blob abstracts the storage targets a data package can be
// published to. Keys are slash-separated paths of the form
// <dataset id>/<version>/<file>; puts are create-only so a published
// package version is never silently overwritten.
package blob

import (
	"context"
	"errors"
	"io"
	"time"
)

// Driver identifies a concrete blob storage backend implementation.
type Driver string

const (
	DriverFilesystem Driver = "fs"     // local directory (default)
	DriverS3         Driver = "s3"     // S3 / MinIO compatible
	DriverMemory     Driver = "memory" // in-memory (tests)
)

// ErrExists is returned by Put when the key is already present.
var ErrExists = errors.New("blob already exists")

// PutOptions specifies optional parameters for Put.
type PutOptions struct {
	ContentType string
}

// Info describes a stored blob.
type Info struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size_bytes"`
	ContentType  string    `json:"content_type,omitempty"`
	Digest       string    `json:"digest,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Store is the minimal surface package publication needs. Implementations
// must make Put fail with ErrExists for keys that are already stored.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Head(ctx context.Context, key string) (Info, error)
	// List returns blobs whose key has the given prefix, ordered by key.
	List(ctx context.Context, prefix string) ([]Info, error)
	// Delete removes a blob. Returns (false, nil) when the key is absent.
	Delete(ctx context.Context, key string) (bool, error)
	Driver() Driver
}
