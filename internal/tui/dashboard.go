package tui

import (
	"fmt"
	"strings"

	"trailrunner/internal/service"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"
)

// DashboardModel is the dashboard screen model
type DashboardModel struct {
	queryService *service.QueryService
	units        Units
	data         *service.DashboardData
	loading      bool
	err          error
	width        int
	height       int
}

// NewDashboardModel creates a new dashboard model
func NewDashboardModel(qs *service.QueryService, units Units, width, height int) DashboardModel {
	return DashboardModel{
		queryService: qs,
		units:        units,
		loading:      true,
		width:        width,
		height:       height,
	}
}

// Init initializes the dashboard
func (m DashboardModel) Init() tea.Cmd {
	return m.loadData
}

func (m DashboardModel) loadData() tea.Msg {
	data, err := m.queryService.Dashboard()
	if err != nil {
		return dashboardDataMsg{err: err}
	}
	return dashboardDataMsg{data: data}
}

type dashboardDataMsg struct {
	data *service.DashboardData
	err  error
}

// Update handles messages
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		m.loading = false
		m.err = msg.err
		m.data = msg.data
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			m.loading = true
			return m, m.loadData
		}
	}
	return m, nil
}

// View renders the dashboard
func (m DashboardModel) View() string {
	if m.loading {
		return "\n  Loading dashboard..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if m.data == nil || m.data.StoredRuns == 0 {
		return "\n  No runs yet. Press 's' to sync with Strava."
	}
	if m.data.TotalRuns == 0 {
		return fmt.Sprintf("\n  No runs in the history window. Last stored run %s.", humanize.Time(m.data.LatestRun))
	}

	var sections []string

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, m.renderFormCard(), "  ", m.renderWeekCard())
	sections = append(sections, topRow)

	if len(m.data.ChartCTL) > 2 {
		sections = append(sections, m.renderChart())
	}

	sections = append(sections, m.renderRecentActivities())

	sync := "never"
	if !m.data.LastSyncTime.IsZero() {
		sync = humanize.Time(m.data.LastSyncTime)
	}
	help := statusStyle.Render(fmt.Sprintf("%s runs stored, last sync %s. Press 'r' to refresh, 's' to sync, '2' for activities",
		humanize.Comma(int64(m.data.StoredRuns)), sync))
	sections = append(sections, help)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m DashboardModel) renderFormCard() string {
	title := cardTitleStyle.Render("Training Load")
	cur := m.data.Load.Current

	ramp := "-"
	rampTrend := ""
	if r := m.data.LastRamp; r != nil {
		ramp = fmt.Sprintf("%+.1f/wk", r.Rate)
		rampTrend = trendArrow(r.Rate)
	}

	vdot := "-"
	if m.data.CurrentVDOT > 0 {
		vdot = fmt.Sprintf("%.1f", m.data.CurrentVDOT)
	}

	lines := []string{
		RenderMetric("Fitness (CTL)", fmt.Sprintf("%.0f", cur.CTL), ""),
		RenderMetric("Fatigue (ATL)", fmt.Sprintf("%.0f", cur.ATL), ""),
		RenderMetric("Form (TSB)", fmt.Sprintf("%+.0f", cur.TSB), ""),
		RenderMetric("CTL ramp", ramp, rampTrend),
		RenderMetric("Estimated VDOT", vdot, ""),
		"",
		mutedStyle.Render(m.data.Load.Form),
	}

	if n := len(m.data.Load.Overreaching.Critical); n > 0 {
		lines = append(lines, warningStyle.Render(fmt.Sprintf("%d days below critical form", n)))
	}
	if cov := m.data.Load.HRCoverage; cov < 100 {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("%.0f%% of runs scored from heart rate", cov)))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Width(40).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m DashboardModel) renderWeekCard() string {
	title := cardTitleStyle.Render("This Week")
	w := m.data.ThisWeek

	lines := []string{
		RenderMetric("Runs", fmt.Sprintf("%d", w.Runs), ""),
		RenderMetric("Distance", m.units.FormatDistance(w.DistanceKm*metersPerKm), ""),
		RenderMetric("Elevation", fmt.Sprintf("%s m", humanize.Comma(int64(w.ElevationM))), ""),
		RenderMetric("Time", formatHours(w.Hours), ""),
		RenderMetric("TSS", fmt.Sprintf("%.0f", w.TSS), ""),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Width(34).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m DashboardModel) renderChart() string {
	title := cardTitleStyle.Render(fmt.Sprintf("ATL / CTL / TSB - last %d days", len(m.data.ChartCTL)))

	width := 70
	if m.width > 20 && m.width-20 < width {
		width = m.width - 20
	}

	graph := asciigraph.PlotMany(
		[][]float64{m.data.ChartATL, m.data.ChartCTL, m.data.ChartTSB},
		asciigraph.Height(10),
		asciigraph.Width(width),
		asciigraph.Precision(0),
		asciigraph.SeriesColors(asciigraph.Red, asciigraph.Blue, asciigraph.Green),
		asciigraph.Caption("red ATL  blue CTL  green TSB"),
	)

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, graph))
}

func (m DashboardModel) renderRecentActivities() string {
	title := cardTitleStyle.Render("Recent Runs")

	var rows []string
	for _, r := range m.data.Recent {
		row := fmt.Sprintf("%-14s  %-26s  %9s  %6.0f m  %s",
			humanize.Time(r.StartDate),
			truncateName(r.Name, 26),
			m.units.FormatDistance(r.DistanceM),
			r.ElevationGainM,
			m.units.FormatPaceWithUnit(float64(r.MovingTimeS), r.DistanceM),
		)
		rows = append(rows, row)
	}

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(rows, "\n")))
}

func trendArrow(v float64) string {
	switch {
	case v > 0.5:
		return "↑"
	case v < -0.5:
		return "↓"
	}
	return "→"
}
