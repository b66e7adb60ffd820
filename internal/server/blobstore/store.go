// Package blobstore keeps the bytes of uploaded attachments, either in a
// local directory or in an S3-compatible bucket. Blobs are addressed by their
// physical name, a single path segment chosen by the attachment service.
package blobstore

import (
	"context"
	"io"
	"path/filepath"
	"strings"
)

// Store saves and serves attachment bytes.
type Store interface {
	// Save writes r under name and returns the location recorded as
	// caminhoNoDisco. size is the byte count of r, or -1 if unknown.
	Save(ctx context.Context, name string, r io.Reader, size int64) (string, error)
	// Open returns the blob's content. A missing blob or a name that is not a
	// single path segment yields common.ErrorNotFound.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// EnsureReady prepares the backing storage (directory or bucket).
	EnsureReady(ctx context.Context) error
}

// validName reports whether name can address a blob: one path segment, no
// traversal.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}
