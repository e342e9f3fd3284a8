package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"partest/internal/blobstore"
	"partest/internal/coordination"
	"partest/internal/shard"
	"partest/internal/summary"
)

// PlanCommand handles the plan command
type PlanCommand struct {
	env *Env
}

// NewPlanCommand creates a new PlanCommand
func NewPlanCommand(env *Env) *PlanCommand {
	return &PlanCommand{env: env}
}

// Execute runs the command
func (pc *PlanCommand) Execute(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := pc.env.Config
	log := pc.env.Logger

	tests, err := discoverTests(pc.env)
	if err != nil {
		return err
	}
	if len(tests) == 0 {
		color.New(color.FgYellow).Fprintln(pc.env.Out, "No test files found, every shard will be empty")
	}

	history, err := loadHistory(ctx, pc.env)
	if err != nil {
		return err
	}

	if cfg.Flags.DryRun {
		set := shard.Distribute(tests, history.Files, cfg.ShardCount)
		pc.env.Formatter.PrintShards(set)
		return nil
	}

	shardsDir, err := cfg.PrepareShardsDirectory()
	if err != nil {
		return err
	}

	owner := blobstore.NewOwnerID()
	store, err := blobstore.Open(ctx, cfg, owner)
	if err != nil {
		return err
	}
	defer store.Close()

	coordinator := coordination.New(store, coordination.RetryPolicy{
		Attempts: cfg.Retry.Attempts,
		Interval: cfg.Retry.Interval,
	}, log.With(zap.String("owner", owner)))

	res, err := coordinator.ComputeAndPublish(ctx, coordination.Request{
		LocalFiles:      tests,
		History:         history.Files,
		ShardCount:      cfg.ShardCount,
		BlobName:        cfg.BlobName,
		ShardsDirectory: shardsDir,
	})
	var missing *shard.MissingFilesError
	if errors.As(err, &missing) {
		pc.env.Formatter.PrintMissingFiles(missing.Missing)
		return err
	}
	if err != nil {
		return err
	}

	pc.env.Formatter.PrintOutcome(res.Leader, res.ShardsDirectory, len(res.Outcome.ShardFilePaths))
	if res.Leader {
		pc.env.Formatter.PrintShards(res.ShardSet)
		if err := summary.Append(cfg.SummaryPath, summary.Render(res.ShardSet, history.ReportFiles)); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}

	if err := summary.WriteOutput(cfg.OutputPath, "shards-directory", res.ShardsDirectory); err != nil {
		return err
	}
	if err := summary.WriteOutput(cfg.OutputPath, "leader", strconv.FormatBool(res.Leader)); err != nil {
		return err
	}
	return nil
}
