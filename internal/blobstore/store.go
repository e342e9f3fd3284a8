// Package blobstore provides shared blob stores with a create-if-absent write.
//
// Store methods return a Status for the outcomes the caller is expected to
// branch on (conflict, not found). The error return is reserved for
// transport or unknown failures.
package blobstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Status is the outcome of a store operation that did not fail
type Status int

const (
	StatusOK       Status = iota
	StatusConflict        // Create: a blob with the same name already exists
	StatusNotFound        // Fetch: no blob with that name is visible yet
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusConflict:
		return "conflict"
	case StatusNotFound:
		return "not found"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// File is a named file inside a blob
type File struct {
	Name    string `json:"name"`
	Content []byte `json:"content"`
}

// Handle identifies a published blob
type Handle struct {
	Name      string
	ID        string // Backend specific location (path, key, row name)
	Owner     string // Id of the process that published the blob
	CreatedAt time.Time
	Files     int
}

// Store is a shared blob store. Create must be atomic across processes:
// at most one Create for a given name ever returns StatusOK.
type Store interface {
	Create(ctx context.Context, name string, files []File) (Status, error)
	Fetch(ctx context.Context, name string) (Handle, Status, error)
	Download(ctx context.Context, h Handle, dir string) error
	Close() error
}

// Manifest is the encoded form of a blob
type Manifest struct {
	Name      string    `json:"name"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
	Files     []File    `json:"files"`
}

func newManifest(name, owner string, files []File) (*Manifest, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	for _, f := range files {
		if err := validateFileName(f.Name); err != nil {
			return nil, err
		}
	}
	return &Manifest{Name: name, Owner: owner, CreatedAt: time.Now().UTC(), Files: files}, nil
}

func (m *Manifest) encode() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal blob manifest: %w", err)
	}
	return data, nil
}

func decodeManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse blob manifest: %w", err)
	}
	return &m, nil
}

func (m *Manifest) handle(id string) Handle {
	return Handle{Name: m.Name, ID: id, Owner: m.Owner, CreatedAt: m.CreatedAt, Files: len(m.Files)}
}

// ValidateName rejects blob names that cannot be used as a key or file name
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("blob name cannot be empty")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid blob name: %q", name)
	}
	return nil
}

func validateFileName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid blob file name: %q", name)
	}
	return nil
}

// extract writes the files of a manifest into dir
func (m *Manifest) extract(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create download directory: %w", err)
	}
	for _, f := range m.Files {
		if err := validateFileName(f.Name); err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, f.Name), f.Content, 0644); err != nil {
			return fmt.Errorf("write %s: %w", f.Name, err)
		}
	}
	return nil
}
