package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	// Project settings
	WorkingDirectory string   `yaml:"working_directory"`
	TestFiles        []string `yaml:"test_files"`
	PathsToIgnore    []string `yaml:"paths_to_ignore"`

	// Historical test reports
	ReportDirectory string `yaml:"report_directory"`
	ReportPattern   string `yaml:"report_pattern"`

	// Sharding
	ShardCount      int    `yaml:"shard_count"`
	BlobName        string `yaml:"blob_name"`
	ShardsDirectory string `yaml:"shards_directory"`

	Store StoreConfig `yaml:"store"`
	Retry RetryConfig `yaml:"retry"`

	// CI integration, GITHUB_STEP_SUMMARY and GITHUB_OUTPUT by default
	SummaryPath string `yaml:"summary_path"`
	OutputPath  string `yaml:"output_path"`

	// Execution settings for the run command
	Processors       int      `yaml:"processors"`
	TestCommand      []string `yaml:"test_command"`
	ResultsDirectory string   `yaml:"results_directory"`

	// Runner environment
	TempDirectory string `yaml:"-"`
	GitHubActions bool   `yaml:"-"`

	// Command flags
	Flags Flags `yaml:"-"`
}

// StoreConfig selects and configures the shared blob store
type StoreConfig struct {
	Backend string        `yaml:"backend"`
	Path    string        `yaml:"path"` // fs backend
	Redis   RedisConfig   `yaml:"redis"`
	MySQL   MySQLConfig   `yaml:"mysql"`
	TTL     time.Duration `yaml:"ttl"`
}

// RedisConfig configures the redis backend
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// MySQLConfig configures the mysql backend
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Table    string `yaml:"table"`
}

// RetryConfig bounds how long a worker waits for the published plan to become visible
type RetryConfig struct {
	Attempts int           `yaml:"attempts"`
	Interval time.Duration `yaml:"interval"`
}

// Flags holds command-line flags
type Flags struct {
	ConfigFile       string
	WorkingDirectory string
	TestFiles        []string
	ReportDirectory  string
	ShardCount       int
	BlobName         string
	ShardsDirectory  string
	Store            string
	Processors       int
	NameFilter       string
	Shard            int
	FailFast         bool
	OnlyFailed       bool
	DryRun           bool
	ShowEstimates    bool
	Verbose          bool
}

// New creates a new Config with defaults
func New() *Config {
	cfg := &Config{
		WorkingDirectory: DefaultWorkingDirectory,
		ReportPattern:    DefaultReportPattern,
		ShardCount:       DefaultShardCount,
		Store: StoreConfig{
			Backend: DefaultStoreBackend,
			TTL:     DefaultBlobTTL,
			Redis:   RedisConfig{Addr: "127.0.0.1:6379", KeyPrefix: DefaultKeyPrefix},
			MySQL:   MySQLConfig{Host: "127.0.0.1", Port: "3306", User: "root", Table: DefaultMySQLTable},
		},
		Retry:            RetryConfig{Attempts: DefaultRetryAttempts, Interval: DefaultRetryInterval},
		Processors:       DefaultProcessors,
		ResultsDirectory: DefaultResultsDirectory,
	}
	// Copy default paths to ignore
	cfg.PathsToIgnore = make([]string, len(DefaultPathsToIgnore))
	copy(cfg.PathsToIgnore, DefaultPathsToIgnore)
	return cfg
}

// Load builds the configuration from, in increasing precedence: defaults,
// the YAML config file, .env and the process environment, and flags.
func Load(flags Flags) (*Config, error) {
	cfg := New()

	workDir := DefaultWorkingDirectory
	if flags.WorkingDirectory != "" {
		workDir = flags.WorkingDirectory
	}

	path := flags.ConfigFile
	required := path != ""
	if !required {
		path = filepath.Join(workDir, DefaultConfigFile)
	}
	if err := cfg.loadFile(path, required); err != nil {
		return nil, err
	}

	// .env file might not exist, that's okay - use environment variables
	_ = godotenv.Load(filepath.Join(workDir, ".env"))
	cfg.applyEnv(os.LookupEnv)

	cfg.ApplyFlags(flags)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !required {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides settings from PARTEST_* variables, the DB_* variables
// shared with test databases, and the GitHub Actions runner environment
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	if v, ok := lookup("PARTEST_TEST_FILES"); ok && v != "" {
		c.TestFiles = strings.Split(v, "\n")
	}
	str("PARTEST_REPORT_DIRECTORY", &c.ReportDirectory)
	num("PARTEST_SHARD_COUNT", &c.ShardCount)
	str("PARTEST_BLOB_NAME", &c.BlobName)
	str("PARTEST_SHARDS_DIRECTORY", &c.ShardsDirectory)
	str("PARTEST_STORE", &c.Store.Backend)
	str("PARTEST_STORE_PATH", &c.Store.Path)
	str("PARTEST_REDIS_ADDR", &c.Store.Redis.Addr)
	str("PARTEST_REDIS_PASSWORD", &c.Store.Redis.Password)
	num("PARTEST_REDIS_DB", &c.Store.Redis.DB)

	str("DB_HOST", &c.Store.MySQL.Host)
	str("DB_PORT", &c.Store.MySQL.Port)
	str("DB_USERNAME", &c.Store.MySQL.User)
	str("DB_PASSWORD", &c.Store.MySQL.Password)
	str("DB_DATABASE", &c.Store.MySQL.Database)

	str("GITHUB_STEP_SUMMARY", &c.SummaryPath)
	str("GITHUB_OUTPUT", &c.OutputPath)

	if c.BlobName == "" {
		c.BlobName = DefaultBlobName
		if runID, ok := lookup("GITHUB_RUN_ID"); ok && runID != "" {
			attempt, _ := lookup("GITHUB_RUN_ATTEMPT")
			if attempt == "" {
				attempt = "1"
			}
			c.BlobName = fmt.Sprintf("%s-%s-%s", DefaultBlobName, runID, attempt)
		}
	}
	c.TempDirectory = os.TempDir()
	str("RUNNER_TEMP", &c.TempDirectory)
	if v, ok := lookup("GITHUB_ACTIONS"); ok && v == "true" {
		c.GitHubActions = true
	}
	// RUNNER_TEMP belongs to a single job, so a CI store must be configured
	if c.Store.Path == "" && !c.GitHubActions {
		c.Store.Path = filepath.Join(c.TempDirectory, "partest", "store")
	}
}

// ApplyFlags overrides settings with flags that were set
func (c *Config) ApplyFlags(flags Flags) {
	c.Flags = flags
	if flags.WorkingDirectory != "" {
		c.WorkingDirectory = flags.WorkingDirectory
	}
	if len(flags.TestFiles) > 0 {
		c.TestFiles = flags.TestFiles
	}
	if flags.ReportDirectory != "" {
		c.ReportDirectory = flags.ReportDirectory
	}
	if flags.ShardCount > 0 {
		c.ShardCount = flags.ShardCount
	}
	if flags.BlobName != "" {
		c.BlobName = flags.BlobName
	}
	if flags.ShardsDirectory != "" {
		c.ShardsDirectory = flags.ShardsDirectory
	}
	if flags.Store != "" {
		c.Store.Backend = flags.Store
	}
	if flags.Processors > 0 {
		c.Processors = flags.Processors
	}
}

// Validate performs strict validation on the configuration
func (c *Config) Validate() error {
	if c.ShardCount < 1 {
		return fmt.Errorf("shard count must be >= 1, got %d", c.ShardCount)
	}
	if c.BlobName == "" || strings.ContainsAny(c.BlobName, `/\`) {
		return fmt.Errorf("invalid blob name: %q", c.BlobName)
	}
	switch c.Store.Backend {
	case BackendFS:
		if c.Store.Path == "" && c.GitHubActions {
			return fmt.Errorf("store.path must point to storage shared by every job when running in GitHub Actions (or use the redis or mysql backend)")
		}
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the %s backend", BackendFS)
		}
	case BackendRedis:
		if c.Store.Redis.Addr == "" {
			return fmt.Errorf("store.redis.addr is required for the %s backend", BackendRedis)
		}
	case BackendMySQL:
		if c.Store.MySQL.Database == "" {
			return fmt.Errorf("store.mysql.database is required for the %s backend", BackendMySQL)
		}
	default:
		return fmt.Errorf("unknown store backend: %q (expected: fs, redis or mysql)", c.Store.Backend)
	}
	if c.Retry.Attempts < 1 {
		return fmt.Errorf("retry.attempts must be >= 1, got %d", c.Retry.Attempts)
	}
	if c.Retry.Interval < 0 {
		return fmt.Errorf("retry.interval must not be negative")
	}
	if c.Processors < 1 {
		return fmt.Errorf("processors must be >= 1, got %d", c.Processors)
	}
	return nil
}

// resolve makes p relative to the working directory unless it is absolute
func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.WorkingDirectory, p)
}

// GetReportDirectory returns the directory holding downloaded test reports
func (c *Config) GetReportDirectory() string {
	return c.resolve(c.ReportDirectory)
}

// GetShardsDirectory returns the directory receiving the shard files
func (c *Config) GetShardsDirectory() string {
	return c.resolve(c.ShardsDirectory)
}

// PrepareShardsDirectory returns the shards directory, creating a fresh one
// under the temp directory when none is configured. Each process owns its
// shards directory and clears it before writing.
func (c *Config) PrepareShardsDirectory() (string, error) {
	if c.ShardsDirectory == "" {
		tmp := c.TempDirectory
		if tmp == "" {
			tmp = os.TempDir()
		}
		dir, err := os.MkdirTemp(tmp, "partest-shards-")
		if err != nil {
			return "", fmt.Errorf("failed to create shards directory: %w", err)
		}
		c.ShardsDirectory = dir
	}
	return c.GetShardsDirectory(), nil
}

// GetStorePath returns the directory of the fs blob store
func (c *Config) GetStorePath() string {
	return c.resolve(c.Store.Path)
}

// GetResultsPath returns the JSON file holding the last run results of a shard
func (c *Config) GetResultsPath(shardID int) string {
	return filepath.Join(c.resolve(c.ResultsDirectory), fmt.Sprintf("shard-%d-results.json", shardID))
}
