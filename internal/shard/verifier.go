package shard

import (
	"fmt"
	"sort"
	"strings"

	"partest/internal/discovery"
)

// MissingFilesError reports local test files that no shard contains.
// Such files would never run in any worker.
type MissingFilesError struct {
	Missing []string
}

func (e *MissingFilesError) Error() string {
	return fmt.Sprintf("%d test file(s) are missing from the shards:\n  %s",
		len(e.Missing), strings.Join(e.Missing, "\n  "))
}

// Verify checks that every local path is listed in one of the shard files.
// It returns a *MissingFilesError naming every missing path.
func Verify(shardFiles []string, localPaths []string) error {
	covered := make(map[string]bool)
	for _, f := range shardFiles {
		paths, err := ReadFile(f)
		if err != nil {
			return err
		}
		for _, p := range paths {
			covered[discovery.NormalizePath(p)] = true
		}
	}

	seen := make(map[string]bool)
	var missing []string
	for _, p := range discovery.NormalizePaths(localPaths) {
		if !covered[p] && !seen[p] {
			missing = append(missing, p)
		}
		seen[p] = true
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &MissingFilesError{Missing: missing}
	}
	return nil
}
