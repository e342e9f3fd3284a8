package report

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"partest/internal/discovery"
	"partest/internal/domain"
)

// History is the timing history collected from a report directory
type History struct {
	Files       []domain.HistoricalTestFile
	ReportFiles []string
	Runs        int
}

// Loader reads test reports downloaded from previous runs.
//
// The report directory holds one subdirectory per run, each containing
// JUnit XML files at any depth (<dir>/<run>/<artifact>/*.xml). XML files
// placed directly in the directory are treated as one more run.
type Loader struct {
	scanner     *discovery.Scanner
	pattern     string
	concurrency int
	logger      *zap.Logger
}

// NewLoader creates a Loader matching report files against pattern
// (relative to each run directory)
func NewLoader(scanner *discovery.Scanner, pattern string, concurrency int, logger *zap.Logger) *Loader {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	return &Loader{
		scanner:     scanner,
		pattern:     pattern,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Load parses every report of every run and returns the averaged history.
// A missing directory means there is no history, which is not an error.
func (l *Loader) Load(ctx context.Context, dir string) (*History, error) {
	runs, err := l.findRuns(dir)
	if err != nil {
		return nil, err
	}
	history := &History{}
	if len(runs) == 0 {
		l.logger.Info("No test reports found", zap.String("dir", dir))
		return history, nil
	}

	var perRun [][]domain.HistoricalTestFile
	for _, run := range runs {
		if len(run) == 0 {
			continue
		}
		cases, err := l.parseAll(ctx, run)
		if err != nil {
			return nil, err
		}
		perRun = append(perRun, GroupByFile(cases))
		history.ReportFiles = append(history.ReportFiles, run...)
	}
	history.Runs = len(perRun)
	history.Files = AverageRuns(perRun)

	l.logger.Info("Loaded test reports",
		zap.Int("runs", history.Runs),
		zap.Int("reports", len(history.ReportFiles)),
		zap.Int("files", len(history.Files)))
	return history, nil
}

// findRuns groups report files by run directory, sorted by run name
func (l *Loader) findRuns(dir string) ([][]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read report directory: %w", err)
	}

	var runs [][]string
	var topLevel []string
	for _, e := range entries {
		if e.IsDir() {
			runDir := filepath.Join(dir, e.Name())
			files, err := l.scanner.Glob(runDir, l.pattern)
			if err != nil {
				return nil, err
			}
			for i := range files {
				files[i] = filepath.Join(runDir, filepath.FromSlash(files[i]))
			}
			runs = append(runs, files)
			continue
		}
		if filepath.Ext(e.Name()) == ".xml" {
			topLevel = append(topLevel, filepath.Join(dir, e.Name()))
		}
	}
	if len(topLevel) > 0 {
		sort.Strings(topLevel)
		runs = append(runs, topLevel)
	}
	return runs, nil
}

// parseAll parses the files of one run in parallel, keeping file order
func (l *Loader) parseAll(ctx context.Context, files []string) ([]TestCase, error) {
	results := make([][]TestCase, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			cases, err := ParseFile(file)
			if err != nil {
				return err
			}
			l.logger.Debug("Parsed test report", zap.String("file", file), zap.Int("cases", len(cases)))
			results[i] = cases
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []TestCase
	for _, cases := range results {
		all = append(all, cases...)
	}
	return all, nil
}

// ParseFile parses a JUnit XML report file
func ParseFile(path string) ([]TestCase, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open test report: %w", err)
	}
	defer f.Close()

	cases, err := ParseJUnit(f)
	if err != nil {
		return nil, fmt.Errorf("parse test report %s: %w", path, err)
	}
	return cases, nil
}
