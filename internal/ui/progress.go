package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

// ProgressBar shows how many test files of a shard have run
type ProgressBar struct {
	mu     sync.Mutex
	bar    *progressbar.ProgressBar
	label  string
	passed int
	failed int
}

// NewProgressBar creates a progress bar for count test files, rendered to w
func NewProgressBar(w io.Writer, count int, label string) *ProgressBar {
	p := &ProgressBar{label: label}
	p.bar = progressbar.NewOptions(count,
		progressbar.OptionSetDescription(p.describe()),
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        color.CyanString("█"),
			SaucerHead:    color.CyanString("█"),
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(w),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
	return p
}

func (p *ProgressBar) describe() string {
	return color.CyanString("%s: ", p.label) +
		color.GreenString("[passed: %d", p.passed) +
		" | " +
		color.RedString("failed: %d]", p.failed)
}

// Record counts one finished test file. Safe for concurrent use.
func (p *ProgressBar) Record(ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ok {
		p.passed++
	} else {
		p.failed++
	}
	p.bar.Describe(p.describe())
	_ = p.bar.Set(p.passed + p.failed)
}

// Counts returns the number of passed and failed test files so far
func (p *ProgressBar) Counts() (passed, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.passed, p.failed
}

// Finish completes the progress bar
func (p *ProgressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.bar.Finish()
}
