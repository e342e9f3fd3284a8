package domain

// Shard is one partition of the test suite, executed by a single worker
type Shard struct {
	ID             int
	TotalTime      float64
	TotalTestCases int
	Files          []*WorkingTestFile
}

// Add appends a test file to the shard and assigns the shard to it
func (s *Shard) Add(f *WorkingTestFile) {
	s.TotalTime += f.EstimatedTime
	s.TotalTestCases += f.EstimatedTestCases
	s.Files = append(s.Files, f)
	f.AssignedShardID = s.ID
}

// Paths returns the paths of the files in the shard, in assignment order
func (s *Shard) Paths() []string {
	paths := make([]string, len(s.Files))
	for i, f := range s.Files {
		paths[i] = f.Path
	}
	return paths
}

// ShardSet is the result of partitioning
type ShardSet struct {
	Shards       []*Shard
	WorkingFiles []*WorkingTestFile
}

// TotalFiles returns the number of files across all shards
func (s *ShardSet) TotalFiles() int {
	n := 0
	for _, shard := range s.Shards {
		n += len(shard.Files)
	}
	return n
}

// PublishOutcome describes whether this process published the shard set every worker uses
type PublishOutcome struct {
	Acquired       bool
	ShardFilePaths []string
}
