package shard

import (
	"sort"

	"github.com/emirpasic/gods/queues/priorityqueue"

	"partest/internal/domain"
)

// Partition assigns files to shardCount shards using longest-processing-time-first
// greedy packing: files are taken from the slowest to the fastest and each one goes
// to the least loaded shard.
//
// The least loaded shard is the one with the smallest total time, then the fewest
// test cases, then the fewest files, then the lowest id. Without any history all
// estimates are equal and the file count tie-break degrades into round robin.
//
// The result is deterministic for the same input. shardCount must be positive.
func Partition(files []*domain.WorkingTestFile, shardCount int) *domain.ShardSet {
	shards := make([]*domain.Shard, shardCount)
	queue := priorityqueue.NewWith(leastLoaded)
	for i := range shards {
		shards[i] = &domain.Shard{ID: i + 1}
		queue.Enqueue(shards[i])
	}

	ordered := make([]*domain.WorkingTestFile, len(files))
	copy(ordered, files)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].EstimatedTime > ordered[j].EstimatedTime
	})

	for _, f := range ordered {
		v, _ := queue.Dequeue()
		s := v.(*domain.Shard)
		s.Add(f)
		queue.Enqueue(s)
	}

	return &domain.ShardSet{Shards: shards, WorkingFiles: files}
}

func leastLoaded(a, b interface{}) int {
	x, y := a.(*domain.Shard), b.(*domain.Shard)
	switch {
	case x.TotalTime != y.TotalTime:
		return compare(x.TotalTime < y.TotalTime)
	case x.TotalTestCases != y.TotalTestCases:
		return compare(x.TotalTestCases < y.TotalTestCases)
	case len(x.Files) != len(y.Files):
		return compare(len(x.Files) < len(y.Files))
	case x.ID != y.ID:
		return compare(x.ID < y.ID)
	default:
		return 0
	}
}

func compare(less bool) int {
	if less {
		return -1
	}
	return 1
}

// Distribute estimates the local files against the history and partitions them
func Distribute(localPaths []string, history []domain.HistoricalTestFile, shardCount int) *domain.ShardSet {
	return Partition(Estimate(localPaths, history), shardCount)
}
