package coordination

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"partest/internal/blobstore"
	"partest/internal/config"
)

// Workers on one host started with no store or shards settings share the
// default fs store but must each get their own shards directory.
func TestComputeAndPublish_DefaultConfigWorkers(t *testing.T) {
	tmp := t.TempDir()
	for _, key := range []string{"GITHUB_ACTIONS", "GITHUB_RUN_ID", "PARTEST_SHARDS_DIRECTORY", "PARTEST_STORE", "PARTEST_STORE_PATH", "PARTEST_BLOB_NAME"} {
		t.Setenv(key, "")
	}
	t.Setenv("RUNNER_TEMP", tmp)
	wd := t.TempDir()

	const rounds, workers = 5, 8
	for round := 0; round < rounds; round++ {
		blob := fmt.Sprintf("plan-%d", round)
		results := make([]*Result, workers)

		var g errgroup.Group
		for i := 0; i < workers; i++ {
			i := i
			g.Go(func() error {
				ctx := context.Background()
				cfg, err := config.Load(config.Flags{WorkingDirectory: wd, BlobName: blob})
				if err != nil {
					return err
				}
				dir, err := cfg.PrepareShardsDirectory()
				if err != nil {
					return err
				}
				store, err := blobstore.Open(ctx, cfg, blobstore.NewOwnerID())
				if err != nil {
					return err
				}
				defer store.Close()

				req := request(dir)
				req.BlobName = cfg.BlobName
				res, err := New(store, fastPolicy(10), zap.NewNop()).ComputeAndPublish(ctx, req)
				results[i] = res
				return err
			})
		}
		require.NoError(t, g.Wait(), "round %d", round)

		leaders := 0
		dirs := make(map[string]bool, workers)
		for _, res := range results {
			if res.Leader {
				leaders++
			}
			dirs[res.ShardsDirectory] = true
			assert.Equal(t, tmp, filepath.Dir(res.ShardsDirectory))
		}
		assert.Equal(t, 1, leaders, "round %d", round)
		assert.Len(t, dirs, workers, "every worker owns its shards directory")

		want := readDir(t, results[0].ShardsDirectory)
		assert.Len(t, want, 3)
		for _, res := range results[1:] {
			assert.Equal(t, want, readDir(t, res.ShardsDirectory))
		}
	}
	assert.DirExists(t, filepath.Join(tmp, "partest", "store"))
}
