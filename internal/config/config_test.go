package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envLookup(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestConfig_GetShardsDirectory(t *testing.T) {
	tests := []struct {
		name     string
		config   *Config
		expected string
	}{
		{
			name:     "relative to working directory",
			config:   &Config{WorkingDirectory: "/project", ShardsDirectory: "shards"},
			expected: "/project/shards",
		},
		{
			name:     "absolute path",
			config:   &Config{WorkingDirectory: "/project", ShardsDirectory: "/tmp/shards"},
			expected: "/tmp/shards",
		},
		{
			name:     "default working directory",
			config:   &Config{WorkingDirectory: ".", ShardsDirectory: "out"},
			expected: "out",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.config.GetShardsDirectory())
		})
	}
}

func TestConfig_PrepareShardsDirectory(t *testing.T) {
	tmp := t.TempDir()
	first := &Config{WorkingDirectory: "/project", TempDirectory: tmp}
	second := &Config{WorkingDirectory: "/project", TempDirectory: tmp}

	a, err := first.PrepareShardsDirectory()
	require.NoError(t, err)
	b, err := second.PrepareShardsDirectory()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.DirExists(t, a)
	assert.DirExists(t, b)
	assert.Equal(t, tmp, filepath.Dir(a))
	assert.True(t, strings.HasPrefix(filepath.Base(a), "partest-shards-"))

	// stable once chosen
	again, err := first.PrepareShardsDirectory()
	require.NoError(t, err)
	assert.Equal(t, a, again)

	configured := &Config{WorkingDirectory: "/project", ShardsDirectory: "shards", TempDirectory: tmp}
	dir, err := configured.PrepareShardsDirectory()
	require.NoError(t, err)
	assert.Equal(t, "/project/shards", dir)
}

func TestConfig_GetResultsPath(t *testing.T) {
	cfg := New()
	cfg.WorkingDirectory = "/project"
	assert.Equal(t, "/project/.partest/shard-2-results.json", cfg.GetResultsPath(2))
}

func TestNew_Defaults(t *testing.T) {
	cfg := New()

	assert.Equal(t, DefaultShardCount, cfg.ShardCount)
	assert.Equal(t, DefaultRetryAttempts, cfg.Retry.Attempts)
	assert.Equal(t, 3*time.Second, cfg.Retry.Interval)
	assert.Equal(t, BackendFS, cfg.Store.Backend)
	assert.Equal(t, DefaultPathsToIgnore, cfg.PathsToIgnore)

	// defaults are copied, not shared
	cfg.PathsToIgnore[0] = "changed"
	assert.NotEqual(t, "changed", DefaultPathsToIgnore[0])
}

func TestApplyEnv(t *testing.T) {
	cfg := New()
	cfg.applyEnv(envLookup(map[string]string{
		"PARTEST_SHARD_COUNT": "4",
		"PARTEST_STORE":       "redis",
		"PARTEST_REDIS_ADDR":  "redis:6379",
		"PARTEST_TEST_FILES":  "cypress/**/*.cy.ts\n!cypress/skip/**",
		"DB_DATABASE":         "ci",
		"GITHUB_STEP_SUMMARY": "/tmp/summary.md",
		"GITHUB_RUN_ID":       "42",
		"GITHUB_RUN_ATTEMPT":  "2",
		"RUNNER_TEMP":         "/runner/tmp",
	}))

	assert.Equal(t, 4, cfg.ShardCount)
	assert.Equal(t, BackendRedis, cfg.Store.Backend)
	assert.Equal(t, "redis:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, []string{"cypress/**/*.cy.ts", "!cypress/skip/**"}, cfg.TestFiles)
	assert.Equal(t, "ci", cfg.Store.MySQL.Database)
	assert.Equal(t, "/tmp/summary.md", cfg.SummaryPath)
	assert.Equal(t, "partest-shards-42-2", cfg.BlobName)
	assert.Empty(t, cfg.ShardsDirectory)
	assert.Equal(t, "/runner/tmp", cfg.TempDirectory)
	assert.Equal(t, filepath.Join("/runner/tmp", "partest", "store"), cfg.Store.Path)
	assert.False(t, cfg.GitHubActions)
}

func TestApplyEnv_GitHubActionsStore(t *testing.T) {
	cfg := New()
	cfg.BlobName = "plan"
	cfg.applyEnv(envLookup(map[string]string{
		"GITHUB_ACTIONS": "true",
		"RUNNER_TEMP":    "/runner/tmp",
	}))

	assert.True(t, cfg.GitHubActions)
	assert.Empty(t, cfg.Store.Path, "runner temp is not shared between jobs")
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shared by every job")

	cfg.Store.Path = "/mnt/shared/partest"
	assert.NoError(t, cfg.Validate())

	cfg.Store.Path = ""
	cfg.Store.Backend = BackendRedis
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnv_IgnoresMalformedNumbers(t *testing.T) {
	cfg := New()
	cfg.applyEnv(envLookup(map[string]string{"PARTEST_SHARD_COUNT": "many"}))

	assert.Equal(t, DefaultShardCount, cfg.ShardCount)
	assert.Equal(t, DefaultBlobName, cfg.BlobName)
}

func TestApplyFlags(t *testing.T) {
	cfg := New()
	cfg.ShardCount = 2
	cfg.ApplyFlags(Flags{ShardCount: 5, BlobName: "custom", Processors: 0})

	assert.Equal(t, 5, cfg.ShardCount)
	assert.Equal(t, "custom", cfg.BlobName)
	assert.Equal(t, DefaultProcessors, cfg.Processors)
	assert.Equal(t, "custom", cfg.Flags.BlobName)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := New()
		cfg.BlobName = "plan"
		cfg.Store.Path = "/tmp/store"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "zero shards", mutate: func(c *Config) { c.ShardCount = 0 }, wantErr: "shard count"},
		{name: "blob name with slash", mutate: func(c *Config) { c.BlobName = "a/b" }, wantErr: "invalid blob name"},
		{name: "unknown backend", mutate: func(c *Config) { c.Store.Backend = "s3" }, wantErr: "unknown store backend"},
		{name: "mysql without database", mutate: func(c *Config) { c.Store.Backend = BackendMySQL }, wantErr: "store.mysql.database"},
		{name: "no retry attempts", mutate: func(c *Config) { c.Retry.Attempts = 0 }, wantErr: "retry.attempts"},
		{name: "negative interval", mutate: func(c *Config) { c.Retry.Interval = -time.Second }, wantErr: "retry.interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_FileThenFlags(t *testing.T) {
	dir := t.TempDir()
	yml := `
shard_count: 3
blob_name: from-file
test_files:
  - "cypress/e2e/**/*.cy.ts"
retry:
  attempts: 5
  interval: 500ms
store:
  backend: fs
  path: store
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte(yml), 0o644))

	cfg, err := Load(Flags{WorkingDirectory: dir, ShardCount: 6})
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.ShardCount)
	assert.Equal(t, []string{"cypress/e2e/**/*.cy.ts"}, cfg.TestFiles)
	assert.Equal(t, 5, cfg.Retry.Attempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Retry.Interval)
	assert.Equal(t, filepath.Join(dir, "store"), cfg.GetStorePath())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte("blob_name: from-file\n"), 0o644))
	t.Setenv("PARTEST_BLOB_NAME", "from-env")
	t.Setenv("GITHUB_ACTIONS", "")

	cfg, err := Load(Flags{WorkingDirectory: dir})
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.BlobName)
}

func TestLoad_MissingExplicitConfig(t *testing.T) {
	_, err := Load(Flags{ConfigFile: filepath.Join(t.TempDir(), "nope.yml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte("shard_count: [\n"), 0o644))

	_, err := Load(Flags{WorkingDirectory: dir})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}
