// Package ui is the terminal front end: it renders the merged event
// stream of a scan run as a live progress display.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/lumipallolabs/textscan/internal/core"
	"github.com/lumipallolabs/textscan/internal/scanner"
)

// eventMsg wraps a controller event for Bubble Tea
type eventMsg struct {
	event core.Event
}

// streamClosedMsg means the scan run is over and the channel drained.
type streamClosedMsg struct{}

// mimeSummaryLines bounds the per-type breakdown on the completion
// screen; the long tail collapses into one count.
const mimeSummaryLines = 8

// App is the Bubble Tea model for one scan run.
type App struct {
	events  <-chan core.Event
	onAbort func()

	bar       progress.Model
	width     int
	startTime time.Time

	volume    string
	current   string
	processed int64
	total     int64
	detected  int
	volsDone  int
	volsTotal int
	counting  bool

	result  *scanner.Result
	aborted bool
	done    bool
}

// NewApp creates the front end for a started scan. onAbort is invoked
// when the user quits mid-scan; the app then waits for the stream to
// close so the final checkpoint state is what it displays.
func NewApp(events <-chan core.Event, onAbort func()) App {
	return App{
		events:    events,
		onAbort:   onAbort,
		bar:       progress.New(progress.WithDefaultGradient()),
		startTime: time.Now(),
		width:     80,
	}
}

// Init starts listening for controller events.
func (a App) Init() tea.Cmd {
	return a.listen()
}

func (a App) listen() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-a.events
		if !ok {
			return streamClosedMsg{}
		}
		return eventMsg{event: ev}
	}
}

// Update handles messages
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.bar.Width = min(msg.Width-8, 60)
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			if a.done {
				return a, tea.Quit
			}
			a.aborted = true
			a.onAbort()
			return a, nil // keep draining until the stream closes
		}
		return a, nil

	case eventMsg:
		a.apply(msg.event)
		return a, a.listen()

	case streamClosedMsg:
		a.done = true
		return a, tea.Quit
	}
	return a, nil
}

func (a *App) apply(ev core.Event) {
	switch e := ev.(type) {
	case core.ScanStartedEvent:
		a.volsTotal = e.Volumes
	case core.VolumeStartedEvent:
		a.volume = e.Volume.Path
	case core.ProgressEvent:
		a.current = e.CurrentPath
		a.processed = e.FilesProcessed
		a.total = e.TotalEstimate
	case core.EstimateUpdatedEvent:
		a.counting = true
		if e.Total > a.total {
			a.total = e.Total
		}
	case core.CountCompletedEvent:
		a.counting = false
	case core.VolumeCompletedEvent:
		a.volsDone++
		a.detected += e.Files
	case core.ScanCompletedEvent:
		a.result = e.Result
	case core.ScanAbortedEvent:
		a.aborted = true
	}
}

// View renders the display
func (a App) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("textscan"))
	b.WriteString("\n\n")

	if a.result != nil {
		b.WriteString(DoneStyle.Render(fmt.Sprintf("Scan complete: %s text files found",
			humanize.Comma(int64(len(a.result.Files))))))
		b.WriteString("\n")
		b.WriteString(StatsStyle.Render(fmt.Sprintf("%s files examined across %d volume(s) in %s",
			humanize.Comma(a.processed), a.volsTotal, time.Since(a.startTime).Truncate(time.Second))))
		b.WriteString("\n")
		counts := a.result.MIMECounts()
		for i, mc := range counts {
			if i == mimeSummaryLines {
				b.WriteString(StatsStyle.Render(fmt.Sprintf("  ... and %d more types", len(counts)-i)))
				b.WriteString("\n")
				break
			}
			b.WriteString(StatsStyle.Render(fmt.Sprintf("  %-28s %s", mc.Label, humanize.Comma(int64(mc.Count)))))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(HelpStyle.Render("press q to exit"))
		b.WriteString("\n")
		return b.String()
	}

	if a.aborted {
		b.WriteString(VolumeStyle.Render("Aborting, last checkpoint stands..."))
		b.WriteString("\n")
	}

	// The completed event for the last volume can arrive before the
	// result does; keep the header at N/N during that window.
	volShown := min(a.volsDone+1, max(a.volsTotal, 1))
	b.WriteString(VolumeStyle.Render(fmt.Sprintf("Volume %d/%d: %s", volShown, max(a.volsTotal, 1), a.volume)))
	b.WriteString("\n")

	pct := 0.0
	if a.total > 0 {
		pct = float64(a.processed) / float64(a.total)
		if pct > 1 {
			pct = 1
		}
	}
	b.WriteString(a.bar.ViewAs(pct))
	b.WriteString("\n")

	counts := fmt.Sprintf("%s / %s files", humanize.Comma(a.processed), humanize.Comma(a.total))
	if a.counting {
		counts += "  (counting...)"
	}
	b.WriteString(StatsStyle.Render(counts))
	b.WriteString("\n")
	b.WriteString(PathStyle.Render(truncatePath(a.current, a.width-4)))
	b.WriteString("\n\n")
	b.WriteString(HelpStyle.Render("q: abort"))
	b.WriteString("\n")
	return b.String()
}

// truncatePath shortens long paths from the left, keeping the tail
// which is the interesting part.
func truncatePath(path string, width int) string {
	if width <= 3 || len(path) <= width {
		return path
	}
	return "..." + path[len(path)-width+3:]
}
