package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"trailrunner/internal/service"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SyncModel is the sync screen model
type SyncModel struct {
	syncService *service.SyncService
	spinner     spinner.Model
	progress    <-chan service.SyncProgress
	last        service.SyncProgress
	cancel      context.CancelFunc
	syncing     bool
	result      *service.SyncResult
	err         error
	done        bool
}

// NewSyncModel creates a new sync model
func NewSyncModel(ss *service.SyncService) SyncModel {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return SyncModel{
		syncService: ss,
		spinner:     s,
	}
}

// Init initializes the sync screen
func (m SyncModel) Init() tea.Cmd {
	return nil
}

// SyncDoneMsg is sent when sync finishes
type SyncDoneMsg struct {
	Result *service.SyncResult
	Err    error
}

type syncProgressMsg service.SyncProgress

// Update handles messages
func (m SyncModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case syncProgressMsg:
		m.last = service.SyncProgress(msg)
		return m, waitForProgress(m.progress)

	case spinner.TickMsg:
		if !m.syncing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case SyncDoneMsg:
		m.syncing = false
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		if m.cancel != nil {
			m.cancel()
			m.cancel = nil
		}
		summary := m.summaryLine()
		return m, func() tea.Msg { return SyncCompleteMsg{Summary: summary} }

	case tea.KeyMsg:
		if m.syncing {
			if msg.String() == "esc" && m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}
		switch msg.String() {
		case "enter", "s":
			return m.start()
		}
	}
	return m, nil
}

func (m SyncModel) start() (tea.Model, tea.Cmd) {
	ctx, cancel := context.WithCancel(context.Background())
	progress := make(chan service.SyncProgress, 16)

	m.syncing = true
	m.done = false
	m.err = nil
	m.result = nil
	m.last = service.SyncProgress{}
	m.cancel = cancel
	m.progress = progress

	run := func() tea.Msg {
		result, err := m.syncService.SyncAll(ctx, progress)
		return SyncDoneMsg{Result: result, Err: err}
	}
	return m, tea.Batch(run, waitForProgress(progress), m.spinner.Tick)
}

// waitForProgress reads one update. It yields nothing once the channel
// is closed, which happens when SyncAll returns.
func waitForProgress(ch <-chan service.SyncProgress) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return nil
		}
		return syncProgressMsg(p)
	}
}

// View renders the sync screen
func (m SyncModel) View() string {
	sections := []string{cardTitleStyle.Render("Strava Sync")}

	switch {
	case m.syncing:
		sections = append(sections, m.renderProgress())
	case m.err != nil:
		sections = append(sections, errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err)))
		sections = append(sections, m.renderSummary())
		sections = append(sections, "\n"+statusStyle.Render("  Press 's' or Enter to retry"))
	case m.done:
		sections = append(sections, successStyle.Render("\n  Sync complete!"))
		sections = append(sections, m.renderSummary())
		sections = append(sections, "\n"+statusStyle.Render("  Press '1' to go to dashboard"))
	default:
		sections = append(sections, m.renderStartPrompt())
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m SyncModel) renderStartPrompt() string {
	var lines []string

	lines = append(lines, "")
	lines = append(lines, "  This will sync your Strava runs:")
	lines = append(lines, "")
	lines = append(lines, "  1. Fetch activities since the last sync")
	lines = append(lines, "  2. Store runs, skipping other sports")
	lines = append(lines, fmt.Sprintf("  3. Download streams for up to %d runs", service.StreamBatchSize))
	lines = append(lines, "")

	short, daily := m.syncService.RateLimitStatus()
	lines = append(lines, statusStyle.Render(fmt.Sprintf("  API requests left: %d (15 min), %d (daily)", short, daily)))
	lines = append(lines, "")
	lines = append(lines, statusStyle.Render("  Press 's' or Enter to start sync"))

	return strings.Join(lines, "\n")
}

func (m SyncModel) renderProgress() string {
	var lines []string

	lines = append(lines, "")
	p := m.last
	switch p.Phase {
	case service.PhaseStreams:
		lines = append(lines, fmt.Sprintf("  %s Downloading streams %d/%d", m.spinner.View(), p.Completed, p.Total))
		if p.Total > 0 {
			lines = append(lines, "  "+RenderProgressBar(float64(p.Completed)/float64(p.Total), 40))
		}
	case service.PhaseActivities:
		lines = append(lines, fmt.Sprintf("  %s Fetching activities, %d received", m.spinner.View(), p.Completed))
	default:
		lines = append(lines, fmt.Sprintf("  %s Connecting to Strava...", m.spinner.View()))
	}
	if p.CurrentActivity != "" {
		lines = append(lines, mutedStyle.Render("  "+truncateName(p.CurrentActivity, 50)))
	}
	lines = append(lines, "")
	lines = append(lines, statusStyle.Render("  esc: cancel"))

	return strings.Join(lines, "\n")
}

func (m SyncModel) renderSummary() string {
	if m.result == nil {
		return ""
	}

	var lines []string
	r := m.result
	lines = append(lines, "")

	if r.ActivitiesStored > 0 {
		lines = append(lines, successStyle.Render(fmt.Sprintf("  %d runs synced", r.ActivitiesStored)))
	} else {
		lines = append(lines, statusStyle.Render("  No new runs"))
	}
	if r.Skipped > 0 {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("  %d other activities skipped", r.Skipped)))
	}
	if r.StreamsFetched > 0 {
		lines = append(lines, successStyle.Render(fmt.Sprintf("  %d streams downloaded", r.StreamsFetched)))
	}
	if r.Truncated {
		lines = append(lines, warningStyle.Render("  Page limit reached, sync again for newer activities"))
	}

	if len(r.Errors) > 0 {
		lines = append(lines, "")
		lines = append(lines, warningStyle.Render(fmt.Sprintf("  %d errors occurred", len(r.Errors))))
		for _, err := range r.Errors[:min(3, len(r.Errors))] {
			lines = append(lines, mutedStyle.Render("  - "+err.Error()))
		}
	}

	return strings.Join(lines, "\n")
}

func (m SyncModel) summaryLine() string {
	switch {
	case errors.Is(m.err, context.Canceled):
		return "Sync cancelled"
	case m.err != nil:
		return "Sync failed: " + m.err.Error()
	case m.result == nil:
		return ""
	case m.result.Err() != nil:
		return fmt.Sprintf("Synced %d runs with %d errors", m.result.ActivitiesStored, len(m.result.Errors))
	}
	line := fmt.Sprintf("Synced %d runs, %d streams", m.result.ActivitiesStored, m.result.StreamsFetched)
	if m.result.Truncated {
		line += ", more to fetch"
	}
	return line
}
