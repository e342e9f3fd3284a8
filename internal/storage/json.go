package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"partest/internal/domain"
)

// maxOutput bounds the stored output of a failed test file
const maxOutput = 64 * 1024

// NewRunReport builds the report of a shard run
func NewRunReport(shardID int, files []domain.FileResult, skipped int, duration time.Duration, workers int) *domain.RunReport {
	passed, failed := 0, 0
	for i := range files {
		if files[i].Success {
			passed++
			files[i].Output = ""
			continue
		}
		failed++
		if len(files[i].Output) > maxOutput {
			files[i].Output = files[i].Output[len(files[i].Output)-maxOutput:]
		}
	}
	return &domain.RunReport{
		Meta: domain.RunMeta{
			Shard:            shardID,
			TotalTestFiles:   len(files) + skipped,
			PassedTestFiles:  passed,
			FailedTestFiles:  failed,
			SkippedTestFiles: skipped,
			Duration:         duration.String(),
			DurationSeconds:  duration.Seconds(),
			Workers:          workers,
			Timestamp:        time.Now().Format(time.RFC3339),
		},
		Files: files,
	}
}

// Save writes the report of a shard run
func (s *JSONStorage) Save(report *domain.RunReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	path := s.path(report.Meta.Shard)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create results dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}

// Load reads the last results of a shard
func (s *JSONStorage) Load(shardID int) (*domain.RunReport, error) {
	data, err := os.ReadFile(s.path(shardID))
	if err != nil {
		return nil, fmt.Errorf("read results file: %w", err)
	}
	var report domain.RunReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parse results: %w", err)
	}
	return &report, nil
}
