package domain

// FileResult is the outcome of running one test file of a shard
type FileResult struct {
	Path            string  `json:"path"`
	Success         bool    `json:"success"`
	WorkerID        int     `json:"worker_id"`
	DurationSeconds float64 `json:"duration_seconds"`
	Output          string  `json:"output,omitempty"`
}

// RunMeta summarizes a shard run
type RunMeta struct {
	Shard            int     `json:"shard"`
	TotalTestFiles   int     `json:"total_test_files"`
	PassedTestFiles  int     `json:"passed_test_files"`
	FailedTestFiles  int     `json:"failed_test_files"`
	SkippedTestFiles int     `json:"skipped_test_files"`
	Duration         string  `json:"duration"`
	DurationSeconds  float64 `json:"duration_seconds"`
	Workers          int     `json:"workers"`
	Timestamp        string  `json:"timestamp"`
}

// RunReport is the stored result of a shard run
type RunReport struct {
	Meta  RunMeta      `json:"meta"`
	Files []FileResult `json:"files"`
}

// FailedPaths returns the paths of the files that failed, in run order
func (r *RunReport) FailedPaths() []string {
	var paths []string
	for _, f := range r.Files {
		if !f.Success {
			paths = append(paths, f.Path)
		}
	}
	return paths
}
