package tui

import (
	"fmt"
	"strconv"

	"trailrunner/internal/activity"
	"trailrunner/internal/service"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const activitiesTableHeight = 18

// ActivitiesModel is the activities list screen model
type ActivitiesModel struct {
	queryService *service.QueryService
	units        Units
	activities   []activity.Record // newest first
	table        table.Model
	loading      bool
	err          error
}

// NewActivitiesModel creates a new activities model
func NewActivitiesModel(qs *service.QueryService, units Units) ActivitiesModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Date", Width: 10},
			{Title: "Name", Width: 28},
			{Title: "Distance", Width: 9},
			{Title: "D+", Width: 6},
			{Title: "Time", Width: 8},
			{Title: "Pace", Width: 10},
			{Title: "HR", Width: 4},
		}),
		table.WithFocused(true),
		table.WithHeight(activitiesTableHeight),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(mutedColor).
		BorderBottom(true).
		Bold(true).
		Foreground(primaryColor)
	s.Selected = s.Selected.
		Foreground(textColor).
		Background(primaryColor).
		Bold(true)
	t.SetStyles(s)

	return ActivitiesModel{
		queryService: qs,
		units:        units,
		table:        t,
		loading:      true,
	}
}

// Init initializes the activities screen
func (m ActivitiesModel) Init() tea.Cmd {
	return m.load
}

type activitiesLoadedMsg struct {
	activities []activity.Record
	err        error
}

func (m ActivitiesModel) load() tea.Msg {
	records, err := m.queryService.History()
	if err != nil {
		return activitiesLoadedMsg{err: err}
	}

	newest := make([]activity.Record, len(records))
	for i, r := range records {
		newest[len(records)-1-i] = r
	}
	return activitiesLoadedMsg{activities: newest}
}

// Update handles messages
func (m ActivitiesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case activitiesLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.activities = msg.activities
		m.table.SetRows(m.rows())
		m.table.GotoTop()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if i := m.table.Cursor(); i >= 0 && i < len(m.activities) {
				id := m.activities[i].ID
				return m, func() tea.Msg { return OpenActivityDetailMsg{ActivityID: id} }
			}
			return m, nil
		case "r":
			m.loading = true
			return m, m.load
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m ActivitiesModel) rows() []table.Row {
	rows := make([]table.Row, 0, len(m.activities))
	for _, r := range m.activities {
		hr := "-"
		if r.HasHeartrate() {
			hr = strconv.Itoa(int(r.AvgHR()))
		}
		rows = append(rows, table.Row{
			r.StartDate.Format("2006-01-02"),
			truncateName(r.Name, 28),
			m.units.FormatDistance(r.DistanceM),
			fmt.Sprintf("%.0f", r.ElevationGainM),
			formatClock(float64(r.MovingTimeS)),
			m.units.FormatPaceWithUnit(float64(r.MovingTimeS), r.DistanceM),
			hr,
		})
	}
	return rows
}

// View renders the activities list
func (m ActivitiesModel) View() string {
	if m.loading {
		return "\n  Loading activities..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if len(m.activities) == 0 {
		return "\n  No runs found. Press 's' to sync with Strava."
	}

	title := cardTitleStyle.Render(fmt.Sprintf("Runs (%d)", len(m.activities)))
	help := statusStyle.Render("j/k or arrows: move  enter: details  r: refresh")

	return lipgloss.JoinVertical(lipgloss.Left, title, m.table.View(), help)
}
