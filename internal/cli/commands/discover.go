package commands

import (
	"context"

	"go.uber.org/zap"

	"partest/internal/cli"
	"partest/internal/discovery"
	"partest/internal/report"
)

// discoverTests returns the test files selected by the configured globs and
// the name filter, relative to the working directory
func discoverTests(env *Env) ([]string, error) {
	cfg := env.Config
	if len(cfg.TestFiles) == 0 {
		return nil, cli.Configf("no test file patterns configured (set test_files or --test-files)")
	}
	tests, err := env.Scanner().Glob(cfg.WorkingDirectory, cfg.TestFiles...)
	if err != nil {
		return nil, err
	}
	tests = discovery.NewFilter().FilterByName(tests, cfg.Flags.NameFilter)
	env.Logger.Debug("discovered test files", zap.Int("count", len(tests)))
	return tests, nil
}

// loadHistory reads earlier reports; without a report directory the history is empty
func loadHistory(ctx context.Context, env *Env) (*report.History, error) {
	dir := env.Config.GetReportDirectory()
	if dir == "" {
		env.Logger.Debug("no report directory configured, estimating without history")
		return &report.History{}, nil
	}
	return env.Loader().Load(ctx, dir)
}
