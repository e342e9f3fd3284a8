// Package coordination lets parallel CI workers agree on one shard plan.
//
// Every worker computes a plan and tries to publish it under a well-known
// blob name with a create-if-absent write. The single winner is the leader;
// every other worker discards its own plan and downloads the leader's. Only
// the read of the published plan is retried, to absorb store propagation lag.
package coordination

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"partest/internal/blobstore"
	"partest/internal/domain"
	"partest/internal/shard"
)

// ErrPlanNotVisible is returned when the published plan cannot be read
// within the retry budget
var ErrPlanNotVisible = errors.New("published shard plan is not visible")

// errNotYetVisible marks a fetch that may succeed on a later attempt
var errNotYetVisible = errors.New("blob not found")

// RetryPolicy bounds the wait for a published plan to become readable
type RetryPolicy struct {
	Attempts int
	Interval time.Duration
}

// DefaultRetryPolicy allows 10 attempts 3 seconds apart
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 10, Interval: 3 * time.Second}
}

// Request is the input of ComputeAndPublish
type Request struct {
	LocalFiles      []string
	History         []domain.HistoricalTestFile
	ShardCount      int
	BlobName        string
	ShardsDirectory string
}

// Result describes the plan this worker ended up with
type Result struct {
	ShardsDirectory string
	// ShardSet is the computed plan, set only for the leader
	ShardSet *domain.ShardSet
	Leader   bool
	Outcome  domain.PublishOutcome
}

// Coordinator runs the publish protocol against a shared blob store
type Coordinator struct {
	store  blobstore.Store
	policy RetryPolicy
	logger *zap.Logger
}

// New creates a Coordinator
func New(store blobstore.Store, policy RetryPolicy, logger *zap.Logger) *Coordinator {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{store: store, policy: policy, logger: logger}
}

// ComputeAndPublish makes the authoritative plan available in
// req.ShardsDirectory and checks that it covers every local test file
func (c *Coordinator) ComputeAndPublish(ctx context.Context, req Request) (*Result, error) {
	if req.ShardCount < 1 {
		return nil, fmt.Errorf("shard count must be >= 1, got %d", req.ShardCount)
	}
	log := c.logger.With(zap.String("blob", req.BlobName))

	// Probe
	h, status, err := c.store.Fetch(ctx, req.BlobName)
	if err != nil {
		return nil, fmt.Errorf("failed to look up shard plan %s: %w", req.BlobName, err)
	}
	if status == blobstore.StatusOK {
		log.Info("shard plan already published, adopting it", zap.String("owner", h.Owner))
		return c.finish(req, nil, c.download(ctx, h, req.ShardsDirectory))
	}

	// Compute
	set := shard.Distribute(req.LocalFiles, req.History, req.ShardCount)
	if err := os.RemoveAll(req.ShardsDirectory); err != nil {
		return nil, fmt.Errorf("failed to clear shards directory: %w", err)
	}
	if _, err := shard.WriteFiles(req.ShardsDirectory, set.Shards); err != nil {
		return nil, err
	}
	log.Debug("computed shard plan",
		zap.Int("shards", len(set.Shards)),
		zap.Int("files", set.TotalFiles()))

	// Publish, attempted once
	status, err = c.store.Create(ctx, req.BlobName, blobFiles(set.Shards))
	if err != nil {
		return nil, fmt.Errorf("failed to publish shard plan %s: %w", req.BlobName, err)
	}
	if status == blobstore.StatusOK {
		log.Info("published shard plan, this worker is the leader")
		return c.finish(req, set, nil)
	}

	// Adopt
	log.Info("shard plan published by another worker, adopting it")
	h, err = c.awaitPlan(ctx, req.BlobName)
	if err != nil {
		return nil, err
	}
	return c.finish(req, nil, c.download(ctx, h, req.ShardsDirectory))
}

// awaitPlan fetches the handle of the published plan, retrying while the
// store reports it as missing
func (c *Coordinator) awaitPlan(ctx context.Context, name string) (blobstore.Handle, error) {
	var b backoff.BackOff = backoff.NewConstantBackOff(c.policy.Interval)
	b = backoff.WithMaxRetries(b, uint64(c.policy.Attempts-1))
	b = backoff.WithContext(b, ctx)

	attempt := 0
	op := func() (blobstore.Handle, error) {
		attempt++
		h, status, err := c.store.Fetch(ctx, name)
		if err != nil {
			return h, backoff.Permanent(fmt.Errorf("failed to fetch shard plan %s: %w", name, err))
		}
		if status == blobstore.StatusNotFound {
			return h, errNotYetVisible
		}
		return h, nil
	}
	notify := func(err error, next time.Duration) {
		c.logger.Debug("shard plan not visible yet",
			zap.String("blob", name),
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", next))
	}

	h, err := backoff.RetryNotifyWithData(op, b, notify)
	if errors.Is(err, errNotYetVisible) {
		return h, fmt.Errorf("%w: %s after %d attempts", ErrPlanNotVisible, name, attempt)
	}
	return h, err
}

// download replaces the local shards directory with the published plan
func (c *Coordinator) download(ctx context.Context, h blobstore.Handle, dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to clear shards directory: %w", err)
	}
	if err := c.store.Download(ctx, h, dir); err != nil {
		return fmt.Errorf("failed to download shard plan %s: %w", h.Name, err)
	}
	return nil
}

func (c *Coordinator) finish(req Request, set *domain.ShardSet, err error) (*Result, error) {
	if err != nil {
		return nil, err
	}
	paths, err := shard.ListFiles(req.ShardsDirectory)
	if err != nil {
		return nil, err
	}
	if len(paths) != req.ShardCount {
		c.logger.Warn("published plan has a different shard count",
			zap.Int("expected", req.ShardCount),
			zap.Int("published", len(paths)))
	}
	if err := shard.Verify(paths, req.LocalFiles); err != nil {
		return nil, err
	}

	leader := set != nil
	return &Result{
		ShardsDirectory: req.ShardsDirectory,
		ShardSet:        set,
		Leader:          leader,
		Outcome:         domain.PublishOutcome{Acquired: leader, ShardFilePaths: paths},
	}, nil
}

func blobFiles(shards []*domain.Shard) []blobstore.File {
	files := make([]blobstore.File, len(shards))
	for i, s := range shards {
		files[i] = blobstore.File{Name: shard.FileName(s.ID), Content: shard.Encode(s)}
	}
	return files
}
