package config

import "time"

const (
	// DefaultConfigFile is looked up in the working directory when no --config is given
	DefaultConfigFile = "partest.yml"
	// DefaultWorkingDirectory is the default project path
	DefaultWorkingDirectory = "."
	// DefaultReportPattern selects JUnit reports inside each run directory
	DefaultReportPattern = "**/*.xml"
	// DefaultShardCount is the default number of shards
	DefaultShardCount = 1
	// DefaultBlobName is the blob name used outside GitHub Actions
	DefaultBlobName = "partest-shards"
	// DefaultStoreBackend is the default blob store
	DefaultStoreBackend = BackendFS
	// DefaultKeyPrefix namespaces Redis keys
	DefaultKeyPrefix = "partest"
	// DefaultBlobTTL bounds how long Redis keeps a published plan
	DefaultBlobTTL = 24 * time.Hour
	// DefaultMySQLTable is the table holding published plans
	DefaultMySQLTable = "partest_blobs"
	// DefaultRetryAttempts is how many times a loser looks for the winner's plan
	DefaultRetryAttempts = 10
	// DefaultRetryInterval is the fixed delay between those attempts
	DefaultRetryInterval = 3 * time.Second
	// DefaultResultsDirectory keeps run results relative to the working directory
	DefaultResultsDirectory = ".partest"
	// DefaultProcessors is the default number of workers for the run command
	DefaultProcessors = 4
)

// Store backends
const (
	BackendFS    = "fs"
	BackendRedis = "redis"
	BackendMySQL = "mysql"
)

// DefaultPathsToIgnore are the default directories to ignore when scanning for tests
var DefaultPathsToIgnore = []string{
	"node_modules",
	"vendor",
	"dist",
	"build",
	"coverage",
}
