package coordination

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"partest/internal/blobstore"
)

// memStore is an in-memory store with atomic create-if-absent semantics
type memStore struct {
	mu      sync.Mutex
	blobs   map[string][]blobstore.File
	owners  map[string]string
	creates int
	fetches int
}

func newMemStore() *memStore {
	return &memStore{blobs: map[string][]blobstore.File{}, owners: map[string]string{}}
}

func (s *memStore) Create(ctx context.Context, name string, files []blobstore.File) (blobstore.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	if _, ok := s.blobs[name]; ok {
		return blobstore.StatusConflict, nil
	}
	s.blobs[name] = files
	return blobstore.StatusOK, nil
}

func (s *memStore) Fetch(ctx context.Context, name string) (blobstore.Handle, blobstore.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	files, ok := s.blobs[name]
	if !ok {
		return blobstore.Handle{}, blobstore.StatusNotFound, nil
	}
	return blobstore.Handle{Name: name, ID: name, Files: len(files)}, blobstore.StatusOK, nil
}

func (s *memStore) Download(ctx context.Context, h blobstore.Handle, dir string) error {
	s.mu.Lock()
	files := s.blobs[h.ID]
	s.mu.Unlock()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f.Name), f.Content, 0644); err != nil {
			return err
		}
	}
	return nil
}

func (s *memStore) Close() error { return nil }

// put publishes a blob directly, as another worker would
func (s *memStore) put(name string, files []blobstore.File) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[name] = files
}

func (s *memStore) counts() (creates, fetches int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creates, s.fetches
}

// laggingStore reports a blob as missing for the first hidden fetches after
// the probe, and rejects every create as if another worker won the race
type laggingStore struct {
	*memStore
	mu     sync.Mutex
	probed bool
	hidden int
}

func (s *laggingStore) Fetch(ctx context.Context, name string) (blobstore.Handle, blobstore.Status, error) {
	s.mu.Lock()
	if !s.probed {
		s.probed = true
		s.mu.Unlock()
		return blobstore.Handle{}, blobstore.StatusNotFound, nil
	}
	if s.hidden > 0 {
		s.hidden--
		s.mu.Unlock()
		return blobstore.Handle{}, blobstore.StatusNotFound, nil
	}
	s.mu.Unlock()
	return s.memStore.Fetch(ctx, name)
}

func (s *laggingStore) Create(ctx context.Context, name string, files []blobstore.File) (blobstore.Status, error) {
	s.memStore.mu.Lock()
	s.memStore.creates++
	s.memStore.mu.Unlock()
	return blobstore.StatusConflict, nil
}

var errTransport = errors.New("connection reset by peer")

// failingStore fails fetches after failAfter successful not-found probes
type failingStore struct {
	*memStore
	createErr error
	fetchErr  error
	failAfter int
	mu        sync.Mutex
}

func (s *failingStore) Fetch(ctx context.Context, name string) (blobstore.Handle, blobstore.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memStore.mu.Lock()
	s.memStore.fetches++
	s.memStore.mu.Unlock()
	if s.failAfter > 0 {
		s.failAfter--
		return blobstore.Handle{}, blobstore.StatusNotFound, nil
	}
	if s.fetchErr != nil {
		return blobstore.Handle{}, blobstore.StatusOK, s.fetchErr
	}
	return blobstore.Handle{}, blobstore.StatusNotFound, nil
}

func (s *failingStore) Create(ctx context.Context, name string, files []blobstore.File) (blobstore.Status, error) {
	s.memStore.mu.Lock()
	s.memStore.creates++
	s.memStore.mu.Unlock()
	if s.createErr != nil {
		return blobstore.StatusOK, s.createErr
	}
	return blobstore.StatusConflict, nil
}
