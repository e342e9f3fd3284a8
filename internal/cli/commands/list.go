package commands

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"partest/internal/shard"
)

// ListCommand handles the list command
type ListCommand struct {
	env *Env
}

// NewListCommand creates a new ListCommand
func NewListCommand(env *Env) *ListCommand {
	return &ListCommand{env: env}
}

// Execute runs the command
func (lc *ListCommand) Execute(cmd *cobra.Command, args []string) error {
	tests, err := discoverTests(lc.env)
	if err != nil {
		return err
	}
	if len(tests) == 0 {
		color.New(color.FgYellow).Fprintln(lc.env.Out, "No tests found")
		return nil
	}

	if !lc.env.Config.Flags.ShowEstimates {
		lc.env.Formatter.PrintTestList(shard.Estimate(tests, nil), false)
		return nil
	}
	history, err := loadHistory(cmd.Context(), lc.env)
	if err != nil {
		return err
	}
	lc.env.Formatter.PrintTestList(shard.Estimate(tests, history.Files), true)
	return nil
}
