// Package storage defines the Blobs interface and common types for evidence
// file backends.
//
// New backends are added by implementing the Blobs interface and registering
// with the factory via an init() function in the backend's own package:
//
//	func init() {
//	    storage.Register("mybackend", func(cfg *config.Config) (Blobs, error) {
//	        return NewMyBackend(cfg)
//	    })
//	}
//
// The main package imports each backend with a blank import to trigger init().
// Evidence files are never served by direct URL; downloads always stream
// through the authenticated API so tenancy checks apply on every read.
package storage

import (
	"context"
	"io"
	"time"
)

// Blobs is the evidence file store. Paths are slash-separated keys of the
// form <org_id>/<assessment_id>/<evidence_id>, assigned by the evidence
// handlers and opaque to the backend.
type Blobs interface {
	// Upload stores a file and returns its size and SHA256 checksum.
	Upload(ctx context.Context, path string, reader io.Reader, size int64) (*UploadResult, error)

	// Download returns a reader over the stored file. The caller closes it.
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes a file. Deleting an absent file is not an error.
	Delete(ctx context.Context, path string) error

	// Exists checks if a file exists at the specified path.
	Exists(ctx context.Context, path string) (bool, error)

	// GetMetadata retrieves file metadata without downloading the entire file.
	GetMetadata(ctx context.Context, path string) (*FileMetadata, error)
}

// UploadResult contains information about an uploaded evidence file
type UploadResult struct {
	// Path is the storage key where the file was stored
	Path string

	// Size is the file size in bytes
	Size int64

	// Checksum is the SHA256 hash of the file contents, hex encoded. It is
	// persisted on the evidence row so later downloads can be verified.
	Checksum string
}

// FileMetadata contains metadata about a stored evidence file
type FileMetadata struct {
	Path         string
	Size         int64
	Checksum     string
	LastModified time.Time
}
