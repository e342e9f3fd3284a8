package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"partest/internal/domain"
	"partest/internal/summary"
)

// Formatter prints plans and run results to the terminal
type Formatter struct {
	out io.Writer
}

// NewFormatter creates a new Formatter writing to out
func NewFormatter(out io.Writer) *Formatter {
	return &Formatter{out: out}
}

var (
	cyan   = color.New(color.FgCyan)
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
	gray   = color.New(color.FgHiBlack)
)

func (f *Formatter) header(title string) {
	line := strings.Repeat("═", 63)
	cyan.Fprintf(f.out, "╔%s╗\n", line)
	cyan.Fprintf(f.out, "║%s║\n", center(title, 63))
	cyan.Fprintf(f.out, "╚%s╝\n", line)
}

func center(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	left := (width - n) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-n-left)
}

// PrintShards prints one row per shard and a total row
func (f *Formatter) PrintShards(set *domain.ShardSet) {
	f.header("Shard Plan")
	fmt.Fprintln(f.out, "┌───────┬────────────┬──────────────┬──────────────────┐")
	fmt.Fprintf(f.out, "│ %-5s │ %-10s │ %-12s │ %-16s │\n", "Shard", "Test files", "Test cases", "Estimated (m:s)")
	fmt.Fprintln(f.out, "├───────┼────────────┼──────────────┼──────────────────┤")

	var files, cases int
	var total float64
	for _, s := range set.Shards {
		fmt.Fprintf(f.out, "│ ")
		yellow.Fprintf(f.out, "%-5s", fmt.Sprintf("#%d", s.ID))
		fmt.Fprintf(f.out, " │ %-10d │ %-12d │ %-16s │\n", len(s.Files), s.TotalTestCases, summary.FormatMinSec(s.TotalTime))
		files += len(s.Files)
		cases += s.TotalTestCases
		total += s.TotalTime
	}
	fmt.Fprintln(f.out, "├───────┼────────────┼──────────────┼──────────────────┤")
	fmt.Fprintf(f.out, "│ %-5s │ %-10d │ %-12d │ %-16s │\n", "Total", files, cases, summary.FormatMinSec(total))
	fmt.Fprintln(f.out, "└───────┴────────────┴──────────────┴──────────────────┘")
}

// PrintOutcome reports whether this worker published the plan or adopted it
func (f *Formatter) PrintOutcome(leader bool, dir string, shardFiles int) {
	if leader {
		green.Fprintf(f.out, "✓ Published shard plan (%d shard files in %s)\n", shardFiles, dir)
		return
	}
	cyan.Fprintf(f.out, "✓ Adopted shard plan published by another worker (%d shard files in %s)\n", shardFiles, dir)
}

// PrintTestList prints discovered test files as a tree, with their estimates
// when showEstimates is set
func (f *Formatter) PrintTestList(files []*domain.WorkingTestFile, showEstimates bool) {
	green.Fprintf(f.out, "Found %d test file(s):\n\n", len(files))
	for i, file := range files {
		connector := "├── "
		if i == len(files)-1 {
			connector = "└── "
		}
		fmt.Fprint(f.out, connector)
		cyan.Fprint(f.out, file.Path)
		if showEstimates {
			fmt.Fprint(f.out, " ")
			if file.HasHistory {
				yellow.Fprintf(f.out, "(%s, %d test cases)", summary.FormatMinSec(file.EstimatedTime), file.EstimatedTestCases)
			} else {
				gray.Fprintf(f.out, "(no history, average %s)", summary.FormatMinSec(file.EstimatedTime))
			}
		}
		fmt.Fprintln(f.out)
	}
}

// PrintMissingFiles lists local test files that no shard contains
func (f *Formatter) PrintMissingFiles(missing []string) {
	red.Fprintf(f.out, "✗ %d test file(s) are not assigned to any shard:\n", len(missing))
	for _, p := range missing {
		red.Fprintf(f.out, "  - %s\n", p)
	}
}

// RunStats summarizes a shard run
type RunStats struct {
	Shard    int
	Files    int
	Passed   int
	Failed   []string
	Skipped  int
	Duration time.Duration
	Workers  int
}

// PrintRunStats prints the result of running a shard
func (f *Formatter) PrintRunStats(stats RunStats) {
	fmt.Fprintln(f.out)
	f.header(fmt.Sprintf("Shard #%d Results", stats.Shard))
	fmt.Fprintln(f.out, "┌─────────────────────────────────┬─────────────────────────────┐")
	row := func(name string, c *color.Color, value string) {
		fmt.Fprintf(f.out, "│ %-31s │ ", name)
		c.Fprintf(f.out, "%-27s", value)
		fmt.Fprintln(f.out, " │")
	}
	white := color.New(color.FgWhite)
	row("Test Files", white, fmt.Sprint(stats.Files))
	row("Passed", green, fmt.Sprint(stats.Passed))
	row("Failed", red, fmt.Sprint(len(stats.Failed)))
	if stats.Skipped > 0 {
		row("Skipped", yellow, fmt.Sprint(stats.Skipped))
	}
	row("Duration", white, fmt.Sprintf("%.2fs", stats.Duration.Seconds()))
	row("Workers", white, fmt.Sprint(stats.Workers))
	fmt.Fprintln(f.out, "└─────────────────────────────────┴─────────────────────────────┘")

	fmt.Fprintln(f.out)
	if len(stats.Failed) == 0 && stats.Skipped == 0 {
		green.Fprintln(f.out, "✓ All tests passed!")
		return
	}
	if len(stats.Failed) > 0 {
		red.Fprintf(f.out, "✗ %d test file(s) failed:\n", len(stats.Failed))
		for _, p := range stats.Failed {
			red.Fprintf(f.out, "  - %s\n", p)
		}
	}
	if stats.Skipped > 0 {
		yellow.Fprintf(f.out, "%d test file(s) skipped after the first failure\n", stats.Skipped)
	}
}
