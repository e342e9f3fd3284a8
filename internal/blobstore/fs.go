package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FSStore keeps each blob as a manifest file in a directory shared by all
// workers, e.g. a network mount. Creation stages the manifest in a temporary
// file and hard-links it into place; the link fails if the blob exists.
type FSStore struct {
	root  string
	owner string
}

// NewFSStore creates a store rooted at dir
func NewFSStore(dir, owner string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create blob directory: %w", err)
	}
	return &FSStore{root: dir, owner: owner}, nil
}

func (s *FSStore) path(name string) string {
	return filepath.Join(s.root, name+".json")
}

// Create publishes the files under name unless a blob with that name exists
func (s *FSStore) Create(ctx context.Context, name string, files []File) (Status, error) {
	m, err := newManifest(name, s.owner, files)
	if err != nil {
		return StatusOK, err
	}
	data, err := m.encode()
	if err != nil {
		return StatusOK, err
	}

	tmp, err := os.CreateTemp(s.root, ".staging-*")
	if err != nil {
		return StatusOK, fmt.Errorf("stage blob: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return StatusOK, fmt.Errorf("stage blob: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return StatusOK, fmt.Errorf("stage blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return StatusOK, fmt.Errorf("stage blob: %w", err)
	}

	if err := os.Link(tmp.Name(), s.path(name)); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return StatusConflict, nil
		}
		return StatusOK, fmt.Errorf("publish blob %s: %w", name, err)
	}
	return StatusOK, nil
}

// Fetch returns the handle of the blob published under name
func (s *FSStore) Fetch(ctx context.Context, name string) (Handle, Status, error) {
	if err := ValidateName(name); err != nil {
		return Handle{}, StatusOK, err
	}
	m, err := s.read(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return Handle{}, StatusNotFound, nil
	}
	if err != nil {
		return Handle{}, StatusOK, err
	}
	return m.handle(s.path(name)), StatusOK, nil
}

// Download writes the files of the blob into dir
func (s *FSStore) Download(ctx context.Context, h Handle, dir string) error {
	m, err := s.read(h.ID)
	if err != nil {
		return err
	}
	return m.extract(dir)
}

func (s *FSStore) read(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}
	return decodeManifest(data)
}

// Close implements Store
func (s *FSStore) Close() error {
	return nil
}
