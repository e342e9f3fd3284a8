// Package shard distributes test files into shards balanced by their
// historical execution time, and reads and verifies the shard files.
package shard

import (
	"math"

	"partest/internal/discovery"
	"partest/internal/domain"
)

// Estimate builds one working test file per local path.
//
// Files found in the history keep their recorded time and test case count.
// Other files are assumed to cost the average of the history, so a new
// test file is neither ignored nor treated as the slowest one.
func Estimate(localPaths []string, history []domain.HistoricalTestFile) []*domain.WorkingTestFile {
	meanTime, meanTestCases := mean(history)

	byPath := make(map[string]domain.HistoricalTestFile, len(history))
	for _, h := range history {
		byPath[discovery.NormalizePath(h.Path)] = h
	}

	seen := make(map[string]bool, len(localPaths))
	files := make([]*domain.WorkingTestFile, 0, len(localPaths))
	for _, p := range discovery.NormalizePaths(localPaths) {
		if seen[p] {
			continue
		}
		seen[p] = true

		h, ok := byPath[p]
		if !ok {
			files = append(files, &domain.WorkingTestFile{
				Path:               p,
				EstimatedTime:      meanTime,
				EstimatedTestCases: meanTestCases,
			})
			continue
		}
		files = append(files, &domain.WorkingTestFile{
			Path:               p,
			HasHistory:         true,
			EstimatedTime:      h.TotalTime,
			EstimatedTestCases: ceilCount(h.TotalTestCases),
		})
	}
	return files
}

func mean(history []domain.HistoricalTestFile) (float64, int) {
	if len(history) == 0 {
		return 0, 0
	}
	var totalTime, totalTestCases float64
	for _, h := range history {
		totalTime += h.TotalTime
		totalTestCases += h.TotalTestCases
	}
	n := float64(len(history))
	return totalTime / n, ceilCount(totalTestCases / n)
}

// ceilCount rounds a test case count up, ignoring float noise such as 2.0000000000000004
func ceilCount(v float64) int {
	if v <= 0 {
		return 0
	}
	return int(math.Ceil(v - 1e-9))
}
