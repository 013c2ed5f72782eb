package tui

import (
	"fmt"
	"strconv"
	"strings"

	"trailrunner/internal/analysis"
	"trailrunner/internal/service"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	predDistance = iota
	predTime
	predTarget
	predWeeks
)

// PredictionsModel derives VDOT from a race result, predicts the classic
// distances and plans the progression towards a target time.
type PredictionsModel struct {
	queryService *service.QueryService
	form         form
	report       *service.PredictionReport
	plan         *analysis.ProgressionPlan
	planErr      error
	err          error
}

// NewPredictionsModel creates a new predictions model
func NewPredictionsModel(qs *service.QueryService) PredictionsModel {
	return PredictionsModel{
		queryService: qs,
		form: newForm(
			newField("Race distance km", "10", 12),
			newField("Race time", "45:00", 12),
			newField("Target time", "optional, 42:30", 18),
			newField("Weeks to target", "12", 12),
		),
	}
}

// Init initializes the predictions screen
func (m PredictionsModel) Init() tea.Cmd {
	return m.form.start()
}

// Capturing reports whether keys go to the form
func (m PredictionsModel) Capturing() bool {
	return m.form.editing
}

// Update handles messages
func (m PredictionsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, m.form.update(msg)
	}

	if !m.form.editing {
		switch key.String() {
		case "e", "i", "tab":
			return m, m.form.start()
		case "c":
			m.form.clear()
			m.report, m.plan, m.planErr, m.err = nil, nil, nil, nil
			return m, m.form.start()
		}
		return m, nil
	}

	if key.String() == "enter" {
		m.compute()
		return m, nil
	}
	return m, m.form.update(msg)
}

func (m *PredictionsModel) compute() {
	m.report, m.plan, m.planErr, m.err = nil, nil, nil, nil

	km, err := parsePositive(m.form.value(predDistance), "distance")
	if err != nil {
		m.err = err
		return
	}
	timeS, err := parseClock(m.form.value(predTime))
	if err != nil {
		m.err = err
		return
	}
	m.report, m.err = m.queryService.Predictions(km*metersPerKm, timeS)
	if m.err != nil || m.form.value(predTarget) == "" {
		return
	}

	targetS, err := parseClock(m.form.value(predTarget))
	if err != nil {
		m.planErr = err
		return
	}
	weeks, err := strconv.Atoi(m.form.value(predWeeks))
	if err != nil || weeks <= 0 {
		m.planErr = fmt.Errorf("weeks must be a positive whole number")
		return
	}
	plan, err := m.queryService.Progression(timeS, targetS, weeks)
	if err != nil {
		m.planErr = err
		return
	}
	m.plan = &plan
}

// View renders the predictions screen
func (m PredictionsModel) View() string {
	sections := []string{
		cardTitleStyle.Render("Race Predictions"),
		cardStyle.Render(m.form.view()),
	}

	switch {
	case m.err != nil:
		sections = append(sections, errorStyle.Render("  "+m.err.Error()))
	case m.report != nil:
		sections = append(sections, m.renderVDOT(), m.renderEquivalences())
		if m.planErr != nil {
			sections = append(sections, errorStyle.Render("  Progression: "+m.planErr.Error()))
		} else if m.plan != nil {
			sections = append(sections, m.renderProgression())
		}
	}

	help := "enter: compute  tab/arrows: next field  esc: stop editing"
	if !m.form.editing {
		help = "e: edit  c: clear  1-7: switch screen"
	}
	sections = append(sections, statusStyle.Render(help))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m PredictionsModel) renderVDOT() string {
	vdotStyle := lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	return fmt.Sprintf("\n  VDOT: %s (%s)",
		vdotStyle.Render(fmt.Sprintf("%.1f", m.report.VDOT)),
		successStyle.Render(m.report.Label),
	)
}

func (m PredictionsModel) renderEquivalences() string {
	lines := []string{
		"",
		renderSection("Equivalent Performances"),
		tableHeaderStyle.Render(fmt.Sprintf("  %-15s  %12s  %10s", "Distance", "Time", "Pace")),
	}
	for _, eq := range m.report.Equivalences {
		lines = append(lines, fmt.Sprintf("  %-15s  %12s  %10s",
			eq.Name,
			formatClock(eq.TimeS),
			formatClock(eq.PaceSecKm)+"/km",
		))
	}
	return strings.Join(lines, "\n")
}

func (m PredictionsModel) renderProgression() string {
	p := m.plan

	style := successStyle
	switch p.Feasibility {
	case analysis.Ambitious:
		style = warningStyle
	case analysis.VeryAmbitious:
		style = errorStyle
	}

	lines := []string{
		"",
		renderSection("Progression"),
		RenderMetric("Time to gain", fmt.Sprintf("%s (%.1f%%)", formatSignedClock(p.TimeDiffS), p.TimeDiffPct), ""),
		RenderMetric("Per week", fmt.Sprintf("%.0f s (%.2f%%)", p.WeeklyImproveS, p.WeeklyImprovePct), ""),
		RenderMetric("Per month", fmt.Sprintf("%.2f%%", p.MonthlyImprovePct), ""),
		RenderMetric("Feasibility", style.Render(string(p.Feasibility)), ""),
		RenderMetric("Difficulty", p.Difficulty, ""),
	}
	return strings.Join(lines, "\n")
}
