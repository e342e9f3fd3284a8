package execution

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Placeholder is replaced by the test file path in command arguments
const Placeholder = "{}"

// Runner runs a user supplied command for a single test file
type Runner struct {
	command []string
	dir     string
	shardID int
}

// NewRunner creates a Runner. The test file path replaces every "{}" in
// command, or is appended when no argument contains it.
func NewRunner(command []string, dir string, shardID int) (*Runner, error) {
	if len(command) == 0 || command[0] == "" {
		return nil, fmt.Errorf("test command cannot be empty")
	}
	return &Runner{command: command, dir: dir, shardID: shardID}, nil
}

// Args returns the command line for a test file
func (r *Runner) Args(path string) []string {
	args := make([]string, 0, len(r.command)+1)
	replaced := false
	for _, arg := range r.command {
		if strings.Contains(arg, Placeholder) {
			arg = strings.ReplaceAll(arg, Placeholder, path)
			replaced = true
		}
		args = append(args, arg)
	}
	if !replaced {
		args = append(args, path)
	}
	return args
}

// Run executes the command for a single test file
func (r *Runner) Run(ctx context.Context, path string, workerID int) Result {
	args := r.Args(path)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)

	cmd.Env = append(os.Environ(),
		"PARTEST_SHARD="+strconv.Itoa(r.shardID),
		"PARTEST_WORKER="+strconv.Itoa(workerID),
		"PARTEST_TEST_FILE="+path,
	)
	cmd.Dir = r.dir

	start := time.Now()
	output, err := cmd.CombinedOutput()

	return Result{
		Path:     path,
		WorkerID: workerID,
		Success:  err == nil,
		Output:   string(output),
		Err:      err,
		Duration: time.Since(start),
	}
}
