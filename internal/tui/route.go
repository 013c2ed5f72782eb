package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"trailrunner/internal/route"
	"trailrunner/internal/service"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"
)

const (
	routePath = iota
	routeVDOT
)

var slopeLabels = map[route.SlopeClass]string{
	route.VerySteepDownhill: "Very steep down  < -15%",
	route.SteepDownhill:     "Steep down  -15 to -10%",
	route.ModerateDownhill:  "Moderate down -10 to -6%",
	route.GentleDownhill:    "Gentle down  -6 to -3%",
	route.Flat:              "Flat  -3 to 3%",
	route.GentleUphill:      "Gentle up  3 to 6%",
	route.ModerateUphill:    "Moderate up  6 to 10%",
	route.SteepUphill:       "Steep up  10 to 15%",
	route.VerySteepUphill:   "Very steep up  > 15%",
}

// RouteModel analyses a GPX or FIT race route against recent training
type RouteModel struct {
	routeService *service.RouteService
	units        Units
	form         form
	spinner      spinner.Model
	analysing    bool
	report       *service.RouteReport
	err          error
}

// NewRouteModel creates a new route model
func NewRouteModel(rs *service.RouteService, units Units) RouteModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return RouteModel{
		routeService: rs,
		units:        units,
		form: newForm(
			newField("Route file", "~/races/utmb.gpx", 48),
			newField("VDOT", "blank: estimate from runs", 28),
		),
		spinner: s,
	}
}

// Init initializes the route screen
func (m RouteModel) Init() tea.Cmd {
	if m.report != nil {
		return nil
	}
	return m.form.start()
}

// Capturing reports whether keys go to the form
func (m RouteModel) Capturing() bool {
	return m.form.editing
}

type routeAnalysedMsg struct {
	report *service.RouteReport
	err    error
}

func (m RouteModel) analyse(path string, vdot float64) tea.Cmd {
	return func() tea.Msg {
		report, err := m.routeService.Analyze(path, vdot)
		return routeAnalysedMsg{report: report, err: err}
	}
}

// Update handles messages
func (m RouteModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case routeAnalysedMsg:
		m.analysing = false
		m.report = msg.report
		m.err = msg.err
		return m, nil

	case spinner.TickMsg:
		if !m.analysing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.analysing {
			return m, nil
		}
		if !m.form.editing {
			switch msg.String() {
			case "e", "i", "tab":
				return m, m.form.start()
			}
			return m, nil
		}
		if msg.String() == "enter" {
			return m.submit()
		}
	}

	return m, m.form.update(msg)
}

func (m RouteModel) submit() (tea.Model, tea.Cmd) {
	m.err = nil

	path := expandHome(m.form.value(routePath))
	if path == "" {
		m.err = fmt.Errorf("enter the path of a .gpx or .fit file")
		return m, nil
	}

	vdot := 0.0
	if v := m.form.value(routeVDOT); v != "" {
		var err error
		if vdot, err = parsePositive(v, "VDOT"); err != nil {
			m.err = err
			return m, nil
		}
	}

	m.form.stop()
	m.analysing = true
	m.report = nil
	return m, tea.Batch(m.spinner.Tick, m.analyse(path, vdot))
}

// View renders the route screen
func (m RouteModel) View() string {
	sections := []string{
		cardTitleStyle.Render("Race Route"),
		cardStyle.Render(m.form.view()),
	}

	switch {
	case m.analysing:
		sections = append(sections, fmt.Sprintf("\n  %s Analysing route...", m.spinner.View()))
	case m.err != nil:
		sections = append(sections, errorStyle.Render("\n  "+m.err.Error()))
	case m.report != nil:
		sections = append(sections, m.renderReport())
	}

	help := "enter: analyse  tab: next field  esc: stop editing"
	if !m.form.editing {
		help = "e: edit route  1-7: switch screen"
	}
	sections = append(sections, statusStyle.Render(help))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m RouteModel) renderReport() string {
	r := m.report
	p := r.Profile

	profile := []string{
		RenderMetric("Distance", m.units.FormatDistance(p.TotalDistanceM), ""),
		RenderMetric("D+ / D-", fmt.Sprintf("%s / %s m", humanize.Comma(int64(p.PositiveElevationM)), humanize.Comma(int64(p.NegativeElevationM))), ""),
		RenderMetric("Altitude", fmt.Sprintf("%.0f - %.0f m", p.AltitudeMin, p.AltitudeMax), ""),
		RenderMetric("D+ per 100 m", fmt.Sprintf("%.1f m", p.ElevationRatio()), ""),
		RenderMetric("Slope max / min", fmt.Sprintf("%.1f%% / %.1f%%", p.SlopeMax, p.SlopeMin), ""),
	}

	timing := []string{mutedStyle.Render("No VDOT: sync some runs or enter one")}
	if r.VDOT > 0 {
		a := r.Adjustment
		timing = []string{
			RenderMetric("VDOT", fmt.Sprintf("%.1f", r.VDOT), ""),
			RenderMetric("Flat time", formatClock(a.FlatTimeS), ""),
			RenderMetric("Climb penalty", formatClock(a.PenaltyS), ""),
			RenderMetric("Fatigue factor", fmt.Sprintf("x%.2f", a.FatigueFactor), ""),
			RenderMetric("Estimated finish", metricValueStyle.Render(formatClock(a.AdjustedTimeS)), ""),
		}
	}

	top := lipgloss.JoinHorizontal(lipgloss.Top,
		cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, append([]string{cardTitleStyle.Render(filepath.Base(r.Path))}, profile...)...)),
		"  ",
		cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, append([]string{cardTitleStyle.Render("Finish Time")}, timing...)...)),
	)

	sections := []string{top}
	if chart := m.renderAltitude(); chart != "" {
		sections = append(sections, chart)
	}
	sections = append(sections, m.renderSlopes(), m.renderReadiness())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m RouteModel) renderAltitude() string {
	if len(m.report.Elevation) < 3 {
		return ""
	}
	graph := asciigraph.Plot(downsample(m.report.Elevation, 70),
		asciigraph.Height(8),
		asciigraph.Precision(0),
		asciigraph.Caption("altitude (m) along the route"),
	)
	return cardStyle.Render(graph)
}

func (m RouteModel) renderSlopes() string {
	lines := []string{
		renderSection("Slope Distribution"),
		tableHeaderStyle.Render(fmt.Sprintf("  %-26s  %6s  %6s  %9s  ", "Slope", "Count", "%", "Distance")),
	}
	for _, class := range route.SlopeClasses {
		b := m.report.Profile.Bucket(class)
		lines = append(lines, fmt.Sprintf("  %-26s  %6d  %5.1f%%  %9s  %s",
			slopeLabels[class],
			b.Count,
			b.Percent,
			m.units.FormatDistance(b.ExactDistanceM),
			RenderProgressBar(b.Percent/100, 20),
		))
	}
	return strings.Join(lines, "\n")
}

func (m RouteModel) renderReadiness() string {
	rd := m.report.Readiness
	env := m.report.Envelope

	bandStyle := successStyle
	switch rd.Band {
	case route.BandImproving:
		bandStyle = warningStyle
	case route.BandNeedsWork:
		bandStyle = errorStyle
	}

	lines := []string{
		"",
		renderSection(fmt.Sprintf("Readiness - last %d weeks", env.Weeks)),
		RenderMetric("Score", fmt.Sprintf("%.0f/100 %s", rd.Score, RenderProgressBar(rd.Score/100, 20)), ""),
		RenderMetric("Status", bandStyle.Render(string(rd.Band)), ""),
		RenderMetric("Preparation", fmt.Sprintf("about %d weeks", rd.WeeksNeeded), ""),
		RenderMetric("Longest run", fmt.Sprintf("%.1f km (%.0f%%)", env.MaxDistanceKm, rd.DistanceScore), ""),
		RenderMetric("Biggest climb", fmt.Sprintf("%.0f m (%.0f%%)", env.MaxElevationM, rd.ElevationScore), ""),
		RenderMetric("Weekly volume", fmt.Sprintf("%.1f km, %.0f m D+", env.WeeklyDistanceKm(), env.WeeklyElevationM()), ""),
		RenderMetric("Grade race / runs", fmt.Sprintf("%.1f%% / %.1f%%", rd.RaceElevationPct, env.AvgElevationPct), ""),
	}

	if line := renderAdvice(rd.DistanceAdvice, "km"); line != "" {
		lines = append(lines, line)
	}
	if line := renderAdvice(rd.ElevationAdvice, "m D+"); line != "" {
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func renderAdvice(a route.Advice, unit string) string {
	if a.Message == "" {
		return ""
	}
	style := successStyle
	switch a.Level {
	case route.AdviceInfo:
		style = warningStyle
	case route.AdviceWarning:
		style = errorStyle
	}
	text := "  " + a.Message
	if a.Target > 0 {
		text += fmt.Sprintf(" (aim for %.0f %s)", a.Target, unit)
	}
	return style.Render(text)
}

// expandHome replaces a leading ~ with the home directory
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
