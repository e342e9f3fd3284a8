package execution

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"partest/internal/ui"
)

// WorkerPool runs test files in parallel
type WorkerPool struct {
	runner   TestRunner
	workers  int
	progress *ui.ProgressBar
	logger   *zap.Logger
}

// NewWorkerPool creates a new WorkerPool
func NewWorkerPool(runner TestRunner, workers int, logger *zap.Logger) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkerPool{runner: runner, workers: workers, logger: logger}
}

// SetProgress sets the progress bar for the worker pool
func (wp *WorkerPool) SetProgress(progress *ui.ProgressBar) {
	wp.progress = progress
}

// Workers returns the number of workers
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

// Execute runs every test file (no fail-fast)
func (wp *WorkerPool) Execute(ctx context.Context, tests []string) ([]Result, time.Duration, error) {
	return wp.ExecuteWithOptions(ctx, tests, false)
}

// ExecuteWithOptions runs test files, stopping after the first failure when
// failFast is set. Results are in completion order; files never started are
// left out.
func (wp *WorkerPool) ExecuteWithOptions(ctx context.Context, tests []string, failFast bool) ([]Result, time.Duration, error) {
	if len(tests) == 0 {
		return nil, 0, nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	queue := make(chan string)
	go func() {
		defer close(queue)
		for _, test := range tests {
			select {
			case <-runCtx.Done():
				return
			case queue <- test:
			}
		}
	}()

	var (
		mu      sync.Mutex
		results = make([]Result, 0, len(tests))
		wg      sync.WaitGroup
	)
	start := time.Now()

	for i := 1; i <= wp.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for path := range queue {
				result := wp.runner.Run(runCtx, path, workerID)

				mu.Lock()
				stopped := runCtx.Err() != nil
				if !stopped {
					results = append(results, result)
					if wp.progress != nil {
						wp.progress.Record(result.Success)
					}
					if !result.Success && failFast {
						cancel()
					}
				}
				mu.Unlock()

				wp.logger.Debug("test file finished",
					zap.String("path", path),
					zap.Int("worker", workerID),
					zap.Bool("success", result.Success),
					zap.Bool("discarded", stopped),
					zap.Duration("duration", result.Duration))
			}
		}(i)
	}
	wg.Wait()

	if wp.progress != nil {
		wp.progress.Finish()
	}
	if err := ctx.Err(); err != nil {
		return results, time.Since(start), err
	}
	return results, time.Since(start), nil
}
