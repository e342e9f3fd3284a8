package commands

import (
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"partest/internal/cli"
	"partest/internal/config"
	"partest/internal/discovery"
	"partest/internal/logging"
	"partest/internal/report"
	"partest/internal/ui"
)

// Env holds what every command needs once flags are parsed
type Env struct {
	Flags     *cli.Flags
	Config    *config.Config
	Logger    *zap.Logger
	Out       io.Writer
	Formatter *ui.Formatter
}

// Scanner returns a test file scanner honoring the ignored paths
func (e *Env) Scanner() *discovery.Scanner {
	return discovery.NewScanner(e.Config.PathsToIgnore)
}

// Loader returns a test report loader
func (e *Env) Loader() *report.Loader {
	return report.NewLoader(e.Scanner(), e.Config.ReportPattern, 0, e.Logger)
}

// Commands holds all CLI commands
type Commands struct {
	env  *Env
	Plan *PlanCommand
	List *ListCommand
	Run  *RunCommand
	View *ViewCommand
}

// NewCommands creates all commands sharing one environment
func NewCommands(flags *cli.Flags, out io.Writer) *Commands {
	env := &Env{Flags: flags, Out: out, Logger: zap.NewNop(), Formatter: ui.NewFormatter(out)}
	return &Commands{
		env:  env,
		Plan: NewPlanCommand(env),
		List: NewListCommand(env),
		Run:  NewRunCommand(env),
		View: NewViewCommand(env),
	}
}

// NewRootCommand builds the partest command tree
func NewRootCommand(version string, out io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "partest",
		Short: "Split test files into balanced shards for parallel CI jobs",
		Long: `partest distributes test files across parallel CI jobs using timings from
earlier JUnit reports. Every job computes the same plan; the first one to
publish it to the shared store wins and the others adopt the published plan.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &cli.ConfigError{Err: err}
	})

	var flags cli.Flags
	NewCommands(&flags, out).Register(rootCmd)
	return rootCmd
}

// setup loads the configuration and builds the logger
func (c *Commands) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(c.env.Flags.ToConfigFlags())
	if err != nil {
		return &cli.ConfigError{Err: err}
	}
	logger, err := logging.New(c.env.Flags.Verbose)
	if err != nil {
		return err
	}
	c.env.Config = cfg
	c.env.Logger = logger
	logger.Debug("configuration loaded",
		zap.String("command", cmd.Name()),
		zap.String("working_directory", cfg.WorkingDirectory),
		zap.Int("shards", cfg.ShardCount),
		zap.String("store", cfg.Store.Backend))
	return nil
}

func (c *Commands) teardown(cmd *cobra.Command, args []string) {
	if c.env.Logger != nil {
		_ = c.env.Logger.Sync()
	}
}

// Register registers all commands with cobra
func (c *Commands) Register(rootCmd *cobra.Command) {
	flags := c.env.Flags
	rootCmd.PersistentPreRunE = c.setup
	rootCmd.PersistentPostRun = c.teardown

	rootCmd.PersistentFlags().StringVar(&flags.ConfigFile, "config", "", "Path to the config file (default: partest.yml in the working directory)")
	rootCmd.PersistentFlags().StringVarP(&flags.WorkingDirectory, "working-directory", "w", "", "Project directory test paths are relative to")
	rootCmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable debug logging")

	// Plan command
	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute, publish and download the shard plan",
		Long:  "Discover test files, estimate their time from earlier reports, and agree with the other jobs on one shard plan",
		Args:  cobra.NoArgs,
		RunE:  c.Plan.Execute,
	}
	planCmd.Flags().IntVarP(&flags.ShardCount, "shards", "n", 0, "Number of shards")
	planCmd.Flags().StringVar(&flags.BlobName, "blob-name", "", "Name of the published plan, unique per CI run")
	planCmd.Flags().StringVar(&flags.ShardsDirectory, "shards-directory", "", "Directory receiving the shard files (default: a new temp directory)")
	planCmd.Flags().StringVar(&flags.Store, "store", "", "Blob store backend: fs, redis or mysql")
	planCmd.Flags().StringArrayVarP(&flags.TestFiles, "test-files", "t", nil, "Glob of test files, may be repeated; prefix with ! to exclude")
	planCmd.Flags().StringVarP(&flags.ReportDirectory, "report-directory", "r", "", "Directory holding JUnit reports of earlier runs")
	planCmd.Flags().StringVarP(&flags.NameFilter, "filter", "f", "", "Filter tests by name pattern (supports wildcards, e.g., '*login*')")
	planCmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "Print the plan without publishing it")
	rootCmd.AddCommand(planCmd)

	// List command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List discovered test files",
		Long:  "Scan and list test files without computing a plan",
		Args:  cobra.NoArgs,
		RunE:  c.List.Execute,
	}
	listCmd.Flags().StringArrayVarP(&flags.TestFiles, "test-files", "t", nil, "Glob of test files, may be repeated; prefix with ! to exclude")
	listCmd.Flags().StringVarP(&flags.ReportDirectory, "report-directory", "r", "", "Directory holding JUnit reports of earlier runs")
	listCmd.Flags().StringVarP(&flags.NameFilter, "filter", "f", "", "Filter tests by name pattern (supports wildcards, e.g., '*login*')")
	listCmd.Flags().BoolVarP(&flags.ShowEstimates, "estimates", "e", false, "Show the estimated time of each file")
	rootCmd.AddCommand(listCmd)

	// Run command
	runCmd := &cobra.Command{
		Use:   "run --shard N [-- command args...]",
		Short: "Run the test files of one shard",
		Long: `Run a command for every test file of a shard using parallel workers.
"{}" in the command is replaced by the test file path; otherwise the path is appended.`,
		RunE: c.Run.Execute,
	}
	runCmd.Flags().IntVarP(&flags.Shard, "shard", "s", 0, "Shard id to run (1-based)")
	runCmd.Flags().StringVar(&flags.ShardsDirectory, "shards-directory", "", "Directory holding the shard files")
	runCmd.Flags().IntVarP(&flags.Processors, "processors", "p", 0, "Number of parallel workers")
	runCmd.Flags().StringVarP(&flags.NameFilter, "filter", "f", "", "Filter tests by name pattern (supports wildcards, e.g., '*login*')")
	runCmd.Flags().BoolVar(&flags.FailFast, "fail-fast", false, "Stop on first test failure")
	runCmd.Flags().BoolVar(&flags.OnlyFailed, "failed", false, "Run only test files that failed in the last run of this shard")
	_ = runCmd.MarkFlagRequired("shard")
	rootCmd.AddCommand(runCmd)

	// View command
	viewCmd := &cobra.Command{
		Use:   "view [shards-directory]",
		Short: "Browse the shard plan interactively",
		Long:  "Display the shards and their test files in an interactive viewer",
		Args:  cobra.MaximumNArgs(1),
		RunE:  c.View.Execute,
	}
	viewCmd.Flags().StringVarP(&flags.ReportDirectory, "report-directory", "r", "", "Directory holding JUnit reports, used to show estimates")
	rootCmd.AddCommand(viewCmd)
}
