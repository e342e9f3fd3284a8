package shard

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"partest/internal/domain"
)

// FileName returns the name of the file holding the shard with the given id
func FileName(id int) string {
	return strconv.Itoa(id)
}

// Encode renders a shard as newline separated paths, without trailing metadata
func Encode(s *domain.Shard) []byte {
	return []byte(strings.Join(s.Paths(), "\n"))
}

// maxLineSize bounds a single path in a shard file
const maxLineSize = 1024 * 1024

// Decode parses the content of a shard file. Blank lines are ignored.
func Decode(data []byte) ([]string, error) {
	var paths []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			paths = append(paths, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("decode shard file after %d paths: %w", len(paths), err)
	}
	return paths, nil
}

// WriteFiles writes one file per shard into dir and returns their paths in shard order
func WriteFiles(dir string, shards []*domain.Shard) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create shards directory: %w", err)
	}
	paths := make([]string, 0, len(shards))
	for _, s := range shards {
		p := FilePath(dir, s.ID)
		if err := os.WriteFile(p, Encode(s), 0644); err != nil {
			return nil, fmt.Errorf("write shard %d: %w", s.ID, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// ReadFile returns the test file paths listed in a shard file
func ReadFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read shard file: %w", err)
	}
	paths, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return paths, nil
}

// ListFiles returns the shard files in dir ordered by shard id.
// Files whose name is not a shard id are ignored.
func ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read shards directory: %w", err)
	}
	type entry struct {
		id   int
		path string
	}
	var found []entry
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		id, err := strconv.Atoi(e.Name())
		if err != nil || id < 1 {
			continue
		}
		found = append(found, entry{id: id, path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].id < found[j].id })

	paths := make([]string, len(found))
	for i, e := range found {
		paths[i] = e.path
	}
	return paths, nil
}

// FilePath returns the path of shard id inside dir
func FilePath(dir string, id int) string {
	return filepath.Join(dir, FileName(id))
}
