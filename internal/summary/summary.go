// Package summary renders the markdown run summary written by the leader.
package summary

import (
	"fmt"
	"math"
	"os"
	"strings"

	"partest/internal/domain"
)

const fallbackNote = "If a test file does not exist in the test reports, the average time of all test files is assumed."

// Render returns the markdown summary of a shard plan
func Render(set *domain.ShardSet, reportFiles []string) string {
	var b strings.Builder

	b.WriteString("# Summary of partest\n\n")
	b.WriteString("Test files are distributed to the shards based on the estimated time from the test reports.\n\n")

	b.WriteString("## Shards\n\n")
	b.WriteString("| ID | Test files | Estimated test cases | Estimated time (m:s) |\n")
	b.WriteString("|---|---|---|---|\n")
	var files, cases int
	var total float64
	for _, s := range set.Shards {
		fmt.Fprintf(&b, "| #%d | %d | %d | %s |\n", s.ID, len(s.Files), s.TotalTestCases, FormatMinSec(s.TotalTime))
		files += len(s.Files)
		cases += s.TotalTestCases
		total += s.TotalTime
	}
	fmt.Fprintf(&b, "| **Total** | %d | %d | %s |\n\n", files, cases, FormatMinSec(total))

	b.WriteString("## Test files in the working directory\n\n")
	b.WriteString("| Test file | Test cases | Total time (m:s) | Shard |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, f := range set.WorkingFiles {
		testCases, duration, assigned := "-", "-", "-"
		if f.HasHistory {
			testCases = fmt.Sprint(f.EstimatedTestCases)
			duration = FormatMinSec(f.EstimatedTime)
		}
		if f.AssignedShardID > 0 {
			assigned = fmt.Sprintf("#%d", f.AssignedShardID)
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", escapeCell(f.Path), testCases, duration, assigned)
	}
	b.WriteString("\n" + fallbackNote + "\n\n")

	b.WriteString("## Test reports\n\n")
	if len(reportFiles) == 0 {
		b.WriteString("No test reports found\n")
		return b.String()
	}
	b.WriteString("Files:\n\n")
	for _, f := range reportFiles {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	return b.String()
}

// FormatMinSec formats seconds as m:ss.s, rounded to a tenth of a second
func FormatMinSec(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	tenths := int64(math.Round(seconds * 10))
	minutes := tenths / 600
	rest := tenths % 600
	return fmt.Sprintf("%d:%02d.%d", minutes, rest/10, rest%10)
}

// Append adds content to the file at path, creating it if needed.
// An empty path is a no-op.
func Append(path, content string) error {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// WriteOutput appends a key=value line to a GitHub Actions output file
func WriteOutput(path, key, value string) error {
	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("output %s must be a single line", key)
	}
	return Append(path, fmt.Sprintf("%s=%s\n", key, value))
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
