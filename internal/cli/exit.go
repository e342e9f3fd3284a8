package cli

import (
	"errors"
	"fmt"

	"partest/internal/shard"
)

// Exit codes
const (
	ExitSuccess      = 0 // Success
	ExitRuntimeError = 1 // Runtime error (store failure, failed tests, etc.)
	ExitConfigError  = 2 // Configuration error (invalid config or flags)
	ExitMissingFiles = 3 // Test files missing from the shard plan
)

// ErrTestsFailed is returned by the run command when a test file failed
var ErrTestsFailed = errors.New("tests failed")

// ConfigError marks an invalid configuration or command line
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Configf creates a ConfigError with formatting
func Configf(format string, args ...interface{}) error {
	return &ConfigError{Err: fmt.Errorf(format, args...)}
}

// ExitCode returns the process exit code for err
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var missing *shard.MissingFilesError
	if errors.As(err, &missing) {
		return ExitMissingFiles
	}
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return ExitConfigError
	}
	return ExitRuntimeError
}
