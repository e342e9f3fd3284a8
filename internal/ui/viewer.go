package ui

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"partest/internal/domain"
	"partest/internal/summary"
)

// ShardViewer browses a shard plan in an interactive TUI
type ShardViewer struct{}

// NewShardViewer creates a new ShardViewer
func NewShardViewer() *ShardViewer {
	return &ShardViewer{}
}

// View shows shards on the left and the files of the selected shard on the right
func (sv *ShardViewer) View(shards []*domain.Shard) error {
	if len(shards) == 0 {
		color.Yellow("No shard files found")
		return nil
	}

	app := tview.NewApplication()

	list := tview.NewList().
		ShowSecondaryText(false).
		SetHighlightFullLine(true)
	for _, s := range shards {
		list.AddItem(shardItemText(s), "", 0, nil)
	}
	list.SetMainTextColor(tview.Styles.PrimaryTextColor).
		SetSelectedTextColor(tcell.ColorWhite).
		SetSelectedBackgroundColor(tcell.ColorDarkCyan)

	statsView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false)

	detailsView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true).
		SetWordWrap(true)

	rightSide := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(statsView, 2, 0, false).
		AddItem(detailsView, 0, 1, false)

	body := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(list, 0, 1, true).
		AddItem(rightSide, 0, 2, false)

	headerView := tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetDynamicColors(true).
		SetText(headerText(shards))

	updateDetails := func() {
		index := list.GetCurrentItem()
		if index < 0 || index >= len(shards) {
			return
		}
		statsView.SetText(shardStats(shards[index]))
		detailsView.SetText(shardDetails(shards[index])).ScrollToBeginning()
	}

	list.SetChangedFunc(func(int, string, string, rune) {
		updateDetails()
	})
	list.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEnter, tcell.KeyRight:
			app.SetFocus(detailsView)
			return nil
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		case tcell.KeyRune:
			if event.Rune() == 'q' {
				app.Stop()
				return nil
			}
		}
		return event
	})
	detailsView.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyLeft, tcell.KeyEsc:
			app.SetFocus(list)
			return nil
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		}
		return event
	})

	updateDetails()

	layout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(headerView, 1, 0, false).
		AddItem(tview.NewBox(), 1, 0, false).
		AddItem(body, 0, 1, true)

	if err := app.SetRoot(layout, true).SetFocus(list).Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func headerText(shards []*domain.Shard) string {
	files := 0
	for _, s := range shards {
		files += len(s.Files)
	}
	return fmt.Sprintf(" Shards (%d shards, %d test files) | ↑↓ to navigate, → to view files, ← to go back, q to exit ", len(shards), files)
}

func shardItemText(s *domain.Shard) string {
	if len(s.Files) == 0 {
		return fmt.Sprintf("[yellow]#%d[gray] empty[white]", s.ID)
	}
	return fmt.Sprintf("[yellow]#%d[white] %d files, %s", s.ID, len(s.Files), summary.FormatMinSec(s.TotalTime))
}

func shardStats(s *domain.Shard) string {
	return fmt.Sprintf("[cyan]shard:[white] [yellow]#%d[white]  [cyan]files:[white] %d  [cyan]test cases:[white] %d  [cyan]estimated:[white] %s\n",
		s.ID, len(s.Files), s.TotalTestCases, summary.FormatMinSec(s.TotalTime))
}

// shardDetails lists the files of a shard using tview color tags
func shardDetails(s *domain.Shard) string {
	if len(s.Files) == 0 {
		return "[gray]This shard has no test files[white]"
	}
	var builder strings.Builder
	w := tabwriter.NewWriter(&builder, 0, 0, 2, ' ', 0)
	for i, f := range s.Files {
		estimate := "[gray]no history[white]"
		if f.HasHistory {
			estimate = fmt.Sprintf("%s  %d cases", summary.FormatMinSec(f.EstimatedTime), f.EstimatedTestCases)
		}
		fmt.Fprintf(w, "[yellow]%d.[white]\t%s\t%s\n", i+1, tview.Escape(f.Path), estimate)
	}
	w.Flush()
	return builder.String()
}
