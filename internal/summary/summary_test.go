package summary

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partest/internal/domain"
	"partest/internal/shard"
)

func TestFormatMinSec(t *testing.T) {
	tests := []struct {
		seconds  float64
		expected string
	}{
		{0, "0:00.0"},
		{0.1, "0:00.1"},
		{1, "0:01.0"},
		{59, "0:59.0"},
		{59.9, "0:59.9"},
		{59.96, "1:00.0"},
		{60, "1:00.0"},
		{60.1, "1:00.1"},
		{61, "1:01.0"},
		{119, "1:59.0"},
		{120, "2:00.0"},
		{121, "2:01.0"},
		{3599, "59:59.0"},
		{3600, "60:00.0"},
		{3601, "60:01.0"},
		{-5, "0:00.0"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatMinSec(tt.seconds))
		})
	}
}

func TestRender(t *testing.T) {
	history := []domain.HistoricalTestFile{
		{Path: "a.spec.ts", TotalTime: 30, TotalTestCases: 3},
		{Path: "b.spec.ts", TotalTime: 90, TotalTestCases: 1},
	}
	set := shard.Distribute([]string{"a.spec.ts", "b.spec.ts", "new.spec.ts"}, history, 2)

	out := Render(set, []string{"reports/run-1/junit.xml"})

	assert.Contains(t, out, "# Summary of partest")
	assert.Contains(t, out, "| #1 | 1 | 1 | 1:30.0 |")
	assert.Contains(t, out, "| #2 | 2 | 5 | 1:30.0 |")
	assert.Contains(t, out, "| **Total** | 3 | 6 | 3:00.0 |")
	assert.Contains(t, out, "| a.spec.ts | 3 | 0:30.0 | #2 |")
	assert.Contains(t, out, "| new.spec.ts | - | - | #2 |")
	assert.Contains(t, out, fallbackNote)
	assert.Contains(t, out, "- reports/run-1/junit.xml")
	assert.NotContains(t, out, "No test reports found")
}

func TestRender_NoReports(t *testing.T) {
	set := shard.Distribute([]string{"a|b.spec.ts"}, nil, 1)

	out := Render(set, nil)
	assert.Contains(t, out, "No test reports found")
	assert.Contains(t, out, `| a\|b.spec.ts | - | - | #1 |`)
}

func TestAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.md")

	require.NoError(t, Append(path, "first\n"))
	require.NoError(t, Append(path, "second\n"))
	require.NoError(t, Append("", "ignored"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))
}

func TestWriteOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output")

	require.NoError(t, WriteOutput(path, "shards-directory", "/tmp/shards"))
	assert.Error(t, WriteOutput(path, "bad", "a\nb"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "shards-directory=/tmp/shards\n", string(data))
}
