package tui

import (
	"fmt"

	"trailrunner/internal/analysis"
	"trailrunner/internal/service"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// WeeklyModel lists training volume week by week, newest first
type WeeklyModel struct {
	queryService *service.QueryService
	units        Units
	weeks        []analysis.WeeklySummary
	loading      bool
	err          error
	cursor       int
	offset       int
	pageSize     int
}

// NewWeeklyModel creates a new weekly model
func NewWeeklyModel(qs *service.QueryService, units Units) WeeklyModel {
	return WeeklyModel{
		queryService: qs,
		units:        units,
		loading:      true,
		pageSize:     15,
	}
}

// Init initializes the weekly screen
func (m WeeklyModel) Init() tea.Cmd {
	return m.loadWeeks
}

type weeksLoadedMsg struct {
	weeks []analysis.WeeklySummary
	err   error
}

func (m WeeklyModel) loadWeeks() tea.Msg {
	records, err := m.queryService.History()
	if err != nil {
		return weeksLoadedMsg{err: err}
	}
	weeks := analysis.WeeklySummaries(records, m.queryService.Settings().Model)

	newest := make([]analysis.WeeklySummary, len(weeks))
	for i, w := range weeks {
		newest[len(weeks)-1-i] = w
	}
	return weeksLoadedMsg{weeks: newest}
}

// Update handles messages
func (m WeeklyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case weeksLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.weeks = msg.weeks
		m.cursor = 0
		m.offset = 0

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			m.loading = true
			return m, m.loadWeeks
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			} else if m.offset > 0 {
				m.offset -= m.pageSize
				m.cursor = m.pageSize - 1
			}
		case "down", "j":
			if m.cursor < m.visibleCount()-1 {
				m.cursor++
			} else if m.offset+m.pageSize < len(m.weeks) {
				m.offset += m.pageSize
				m.cursor = 0
			}
		case "pgup":
			if m.offset > 0 {
				m.offset = max(0, m.offset-m.pageSize)
				m.cursor = 0
			}
		case "pgdown":
			if m.offset+m.pageSize < len(m.weeks) {
				m.offset += m.pageSize
				m.cursor = 0
			}
		}
	}
	return m, nil
}

func (m WeeklyModel) visibleCount() int {
	return min(m.pageSize, len(m.weeks)-m.offset)
}

// View renders the weekly screen
func (m WeeklyModel) View() string {
	if m.loading {
		return "\n  Loading weeks..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if len(m.weeks) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left,
			cardTitleStyle.Render("Weekly Volume"),
			"\n  No data available. Sync some activities first.")
	}

	end := m.offset + m.visibleCount()
	sections := []string{
		cardTitleStyle.Render(fmt.Sprintf("Weekly Volume - %d-%d of %d", m.offset+1, end, len(m.weeks))),
		tableHeaderStyle.Render(fmt.Sprintf("   %-10s  %4s  %9s  %6s  %6s  %5s  %5s  %-20s",
			"Week", "Runs", "Distance", "D+", "Time", "TSS", "TRIMP", "Longest")),
	}

	longest := 0.0
	for _, w := range m.weeks {
		longest = max(longest, w.DistanceKm)
	}

	for i := m.offset; i < end; i++ {
		w := m.weeks[i]

		cursor := "  "
		if i-m.offset == m.cursor {
			cursor = "> "
		}

		fraction := 0.0
		if longest > 0 {
			fraction = w.DistanceKm / longest
		}

		row := fmt.Sprintf("%s%-10s  %4d  %9s  %6.0f  %6s  %5.0f  %5.0f  ",
			cursor,
			w.WeekStart.Format("2006-01-02"),
			w.Runs,
			m.units.FormatDistance(w.DistanceKm*metersPerKm),
			w.ElevationM,
			formatHours(w.Hours),
			w.TSS,
			w.TRIMP,
		)

		if i-m.offset == m.cursor {
			sections = append(sections, tableSelectedStyle.Render(row)+RenderProgressBar(fraction, 20))
		} else {
			sections = append(sections, tableRowStyle.Render(row)+RenderProgressBar(fraction, 20))
		}
	}

	sections = append(sections, statusStyle.Render("j/k: move  pgup/pgdown: page  r: refresh"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
