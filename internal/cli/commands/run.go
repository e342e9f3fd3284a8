package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"partest/internal/cli"
	"partest/internal/discovery"
	"partest/internal/domain"
	"partest/internal/execution"
	"partest/internal/shard"
	"partest/internal/storage"
	"partest/internal/ui"
)

// RunCommand handles the run command
type RunCommand struct {
	env *Env
}

// NewRunCommand creates a new RunCommand
func NewRunCommand(env *Env) *RunCommand {
	return &RunCommand{env: env}
}

// Execute runs the command
func (rc *RunCommand) Execute(cmd *cobra.Command, args []string) error {
	cfg := rc.env.Config
	id := cfg.Flags.Shard
	if id < 1 {
		return cli.Configf("--shard must be >= 1, got %d", id)
	}
	command := cfg.TestCommand
	if len(args) > 0 {
		command = args
	}
	runner, err := execution.NewRunner(command, cfg.WorkingDirectory, id)
	if err != nil {
		return cli.Configf("%v (pass it after -- or set test_command)", err)
	}

	if cfg.ShardsDirectory == "" {
		return cli.Configf("--shards-directory is required, pass the directory reported by plan")
	}
	tests, err := shard.ReadFile(shard.FilePath(cfg.GetShardsDirectory(), id))
	if err != nil {
		return err
	}
	tests = discovery.NewFilter().FilterByName(tests, cfg.Flags.NameFilter)

	st := storage.NewJSONStorage(cfg.GetResultsPath)
	if cfg.Flags.OnlyFailed {
		if tests, err = rc.onlyFailed(st, id, tests); err != nil {
			return err
		}
	}

	if len(tests) == 0 {
		color.New(color.FgYellow).Fprintln(rc.env.Out, "No tests to execute")
		return nil
	}

	pool := execution.NewWorkerPool(runner, cfg.Processors, rc.env.Logger)
	pool.SetProgress(ui.NewProgressBar(os.Stderr, len(tests), fmt.Sprintf("Shard #%d", id)))

	results, duration, err := pool.ExecuteWithOptions(cmd.Context(), tests, cfg.Flags.FailFast)
	if err != nil {
		return err
	}

	files := make([]domain.FileResult, len(results))
	stats := ui.RunStats{Shard: id, Files: len(tests), Duration: duration, Workers: pool.Workers()}
	for i, r := range results {
		files[i] = domain.FileResult{
			Path:            r.Path,
			Success:         r.Success,
			WorkerID:        r.WorkerID,
			DurationSeconds: r.Duration.Seconds(),
			Output:          r.Output,
		}
		if r.Success {
			stats.Passed++
		} else {
			stats.Failed = append(stats.Failed, r.Path)
		}
	}
	stats.Skipped = len(tests) - len(results)

	if err := st.Save(storage.NewRunReport(id, files, stats.Skipped, duration, pool.Workers())); err != nil {
		return fmt.Errorf("failed to save test results: %w", err)
	}
	rc.env.Formatter.PrintRunStats(stats)

	if len(stats.Failed) > 0 {
		return fmt.Errorf("%w: %d of %d test file(s) in shard #%d", cli.ErrTestsFailed, len(stats.Failed), len(tests), id)
	}
	return nil
}

// onlyFailed keeps the tests that failed in the last run of the shard
func (rc *RunCommand) onlyFailed(st storage.Storage, id int, tests []string) ([]string, error) {
	last, err := st.Load(id)
	if errors.Is(err, fs.ErrNotExist) {
		color.New(color.FgYellow).Fprintf(rc.env.Out, "No previous results for shard #%d, running all tests\n", id)
		return tests, nil
	}
	if err != nil {
		return nil, err
	}

	failed := make(map[string]bool)
	for _, p := range last.FailedPaths() {
		failed[discovery.NormalizePath(p)] = true
	}
	var kept []string
	for _, t := range tests {
		if failed[discovery.NormalizePath(t)] {
			kept = append(kept, t)
		}
	}
	rc.env.Logger.Info("running only previously failed tests",
		zap.Int("failed_last_run", len(failed)),
		zap.Int("selected", len(kept)))
	return kept, nil
}
