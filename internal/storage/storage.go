package storage

import (
	"partest/internal/domain"
)

// Storage persists and loads shard run results (e.g. for run --failed)
type Storage interface {
	Save(report *domain.RunReport) error
	Load(shardID int) (*domain.RunReport, error)
}

// PathFunc returns the results file of a shard
type PathFunc func(shardID int) string

// JSONStorage stores each shard's results in its own JSON file
type JSONStorage struct {
	path PathFunc
}

// NewJSONStorage returns a Storage that reads and writes the files named by path
func NewJSONStorage(path PathFunc) *JSONStorage {
	return &JSONStorage{path: path}
}
