package execution

import (
	"context"
	"time"
)

// Result is the outcome of running one test file
type Result struct {
	Path     string
	WorkerID int
	Success  bool
	Output   string
	Err      error
	Duration time.Duration
}

// TestRunner runs a single test file
type TestRunner interface {
	Run(ctx context.Context, path string, workerID int) Result
}

// Executor executes test files and returns their results
type Executor interface {
	Execute(ctx context.Context, tests []string) ([]Result, time.Duration, error)
}
