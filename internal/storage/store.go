// Package storage abstracts the object store for uploaded images: accept a
// file, hand back a reference string kept on the account.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

type ObjectStore interface {
	Save(ctx context.Context, ext string, r io.Reader) (string, error)
}

// DiskStore writes uploads under a local directory. The reference is the
// generated filename.
type DiskStore struct {
	dir string
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

func (s *DiskStore) Save(_ context.Context, ext string, r io.Reader) (string, error) {
	name := uuid.New().String() + ext
	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	return name, nil
}

func (s *DiskStore) Dir() string {
	return s.dir
}
