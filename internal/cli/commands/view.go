package commands

import (
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"partest/internal/cli"
	"partest/internal/domain"
	"partest/internal/shard"
	"partest/internal/ui"
)

// ViewCommand handles the view command
type ViewCommand struct {
	env    *Env
	viewer *ui.ShardViewer
}

// NewViewCommand creates a new ViewCommand
func NewViewCommand(env *Env) *ViewCommand {
	return &ViewCommand{env: env, viewer: ui.NewShardViewer()}
}

// Execute runs the command
func (vc *ViewCommand) Execute(cmd *cobra.Command, args []string) error {
	dir := vc.env.Config.GetShardsDirectory()
	if len(args) > 0 {
		dir = args[0]
	}
	if dir == "" {
		return cli.Configf("no shards directory, pass it as an argument or set PARTEST_SHARDS_DIRECTORY")
	}
	shards, err := vc.loadShards(cmd, dir)
	if err != nil {
		return err
	}
	return vc.viewer.View(shards)
}

// loadShards reads the shard files in dir, with estimates from the report
// history when one is configured
func (vc *ViewCommand) loadShards(cmd *cobra.Command, dir string) ([]*domain.Shard, error) {
	paths, err := shard.ListFiles(dir)
	if err != nil {
		return nil, err
	}
	history, err := loadHistory(cmd.Context(), vc.env)
	if err != nil {
		return nil, err
	}

	shards := make([]*domain.Shard, 0, len(paths))
	for _, p := range paths {
		id, err := strconv.Atoi(filepath.Base(p))
		if err != nil {
			continue
		}
		tests, err := shard.ReadFile(p)
		if err != nil {
			return nil, err
		}
		s := &domain.Shard{ID: id}
		for _, f := range shard.Estimate(tests, history.Files) {
			s.Add(f)
		}
		shards = append(shards, s)
	}
	return shards, nil
}
