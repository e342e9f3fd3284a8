package domain

// HistoricalTestFile is the aggregated timing of a test file taken from previous test reports
type HistoricalTestFile struct {
	Path           string  `json:"path"`             // Normalized relative path
	TotalTime      float64 `json:"total_time"`       // Seconds spent in the file
	TotalTestCases float64 `json:"total_test_cases"` // Averaged across runs, so it may be fractional
}

// WorkingTestFile represents a test file discovered in the working directory
type WorkingTestFile struct {
	Path               string  `json:"path"`
	HasHistory         bool    `json:"has_history"`
	EstimatedTime      float64 `json:"estimated_time"`
	EstimatedTestCases int     `json:"estimated_test_cases"`
	AssignedShardID    int     `json:"assigned_shard_id,omitempty"` // 0 until partitioned
}
