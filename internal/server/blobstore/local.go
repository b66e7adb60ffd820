package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/flowrev/internal/common"
	"github.com/dmitrijs2005/flowrev/internal/filex"
)

// LocalStore keeps blobs as files in one directory.
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{dir: dir}
}

// EnsureReady creates the upload directory if needed.
func (s *LocalStore) EnsureReady(_ context.Context) error {
	return filex.EnsureDir(s.dir)
}

// Save writes the blob to <dir>/<name> and returns that path. The directory
// is created on demand so that removing it while running is harmless.
func (s *LocalStore) Save(_ context.Context, name string, r io.Reader, _ int64) (string, error) {
	if !validName(name) {
		return "", fmt.Errorf("invalid blob name %q", name)
	}
	if err := filex.EnsureDir(s.dir); err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, name)
	if _, err := filex.CopyToFile(path, r); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write blob: %w", err)
	}
	return path, nil
}

func (s *LocalStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	if !validName(name) {
		return nil, common.ErrorNotFound
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("open blob: %w", err)
	}
	return f, nil
}
