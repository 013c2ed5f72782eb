package tui

import (
	"fmt"
	"strings"
	"time"

	"trailrunner/internal/analysis"
	"trailrunner/internal/service"
	"trailrunner/internal/store"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

const (
	goalName = iota
	goalDate
	goalDistance
	goalElevation
	goalType
	goalPace
	goalPenalty
)

const dateLayout = "2006-01-02"

type goalsMode int

const (
	goalsList goalsMode = iota
	goalsEdit
	goalsConfirmDelete
)

// GoalsModel lists race goals with their season progress and edits them
type GoalsModel struct {
	goalService *service.GoalService
	season      *service.SeasonReport
	mode        goalsMode
	form        form
	editingID   string // empty when creating
	cursor      int
	loading     bool
	err         error
	notice      string
}

// NewGoalsModel creates a new goals model
func NewGoalsModel(gs *service.GoalService) GoalsModel {
	f := newForm(
		newField("Name", "UTMB", 32),
		newField("Date", dateLayout, 12),
		newField("Distance km", "171", 10),
		newField("D+ m", "10000", 10),
		newField("Race type", raceTypeHint(), 40),
		newField("Flat pace min/km", fmt.Sprintf("%.1f", analysis.DefaultGoalPace), 10),
		newField("Min per 100 m D+", fmt.Sprintf("%.0f", analysis.DefaultGoalPenalty), 10),
	)
	f.stop()

	return GoalsModel{
		goalService: gs,
		form:        f,
		loading:     true,
	}
}

// Init initializes the goals screen
func (m GoalsModel) Init() tea.Cmd {
	return m.loadSeason
}

// Capturing reports whether keys go to the goal form
func (m GoalsModel) Capturing() bool {
	return m.mode == goalsEdit
}

type seasonLoadedMsg struct {
	season *service.SeasonReport
	err    error
}

func (m GoalsModel) loadSeason() tea.Msg {
	season, err := m.goalService.Season()
	return seasonLoadedMsg{season: season, err: err}
}

func (m GoalsModel) goals() []analysis.GoalProgress {
	if m.season == nil {
		return nil
	}
	return m.season.Goals
}

// Update handles messages
func (m GoalsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case seasonLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.season = msg.season
		m.cursor = min(m.cursor, max(0, len(m.goals())-1))
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case goalsEdit:
			return m.updateForm(msg)
		case goalsConfirmDelete:
			return m.updateConfirm(msg)
		}
		return m.updateList(msg)
	}

	if m.mode == goalsEdit {
		return m, m.form.update(msg)
	}
	return m, nil
}

func (m GoalsModel) updateList(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	goals := m.goals()
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(goals)-1 {
			m.cursor++
		}
	case "n":
		m.editingID = ""
		m.form.clear()
		m.mode = goalsEdit
		m.notice, m.err = "", nil
		return m, m.form.start()
	case "e", "enter":
		if len(goals) == 0 {
			return m, nil
		}
		m.fill(goals[m.cursor].Goal)
		m.mode = goalsEdit
		m.notice, m.err = "", nil
		return m, m.form.start()
	case "d":
		if len(goals) > 0 {
			m.mode = goalsConfirmDelete
		}
	case "r":
		m.loading = true
		return m, m.loadSeason
	}
	return m, nil
}

func (m GoalsModel) updateConfirm(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = goalsList
	if key.String() != "y" {
		return m, nil
	}

	g := m.goals()[m.cursor].Goal
	if err := m.goalService.Delete(g.ID); err != nil {
		m.err = err
		return m, nil
	}
	m.notice = fmt.Sprintf("Deleted %s", g.Name)
	m.loading = true
	return m, m.loadSeason
}

func (m GoalsModel) updateForm(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "esc":
		m.form.stop()
		m.mode = goalsList
		m.err = nil
		return m, nil
	case "enter":
		in, err := m.input()
		if err != nil {
			m.err = err
			return m, nil
		}

		var saved *store.RaceGoal
		if m.editingID == "" {
			saved, err = m.goalService.Create(in)
		} else {
			saved, err = m.goalService.Update(m.editingID, in)
		}
		if err != nil {
			m.err = err
			return m, nil
		}

		m.form.stop()
		m.mode = goalsList
		m.err = nil
		m.notice = fmt.Sprintf("Saved %s, estimated %s", saved.Name, formatHours(saved.EstimatedTimeHours))
		m.loading = true
		return m, m.loadSeason
	}
	return m, m.form.update(key)
}

// fill loads g into the form for editing
func (m *GoalsModel) fill(g store.RaceGoal) {
	m.editingID = g.ID
	m.form.clear()
	m.form.set(goalName, g.Name)
	m.form.set(goalDate, g.Date.Format(dateLayout))
	m.form.set(goalDistance, fmt.Sprintf("%g", g.DistanceKm))
	m.form.set(goalElevation, fmt.Sprintf("%g", g.ElevationM))
	m.form.set(goalType, string(g.RaceType))
	m.form.set(goalPace, fmt.Sprintf("%g", g.PaceEstimation))
	m.form.set(goalPenalty, fmt.Sprintf("%g", g.ElevationPenalty))
}

// input reads the form. Blank pace and penalty keep the defaults.
func (m GoalsModel) input() (service.GoalInput, error) {
	in := service.GoalInput{Name: m.form.value(goalName)}

	date, err := time.Parse(dateLayout, m.form.value(goalDate))
	if err != nil {
		return in, fmt.Errorf("date must look like %s", dateLayout)
	}
	in.Date = date

	if in.DistanceKm, err = parsePositive(m.form.value(goalDistance), "distance"); err != nil {
		return in, err
	}
	if v := m.form.value(goalElevation); v != "" {
		if in.ElevationM, err = parseNonNegative(v, "D+"); err != nil {
			return in, err
		}
	}
	if in.RaceType, err = parseRaceType(m.form.value(goalType)); err != nil {
		return in, err
	}
	if v := m.form.value(goalPace); v != "" {
		if in.PaceEstimation, err = parsePositive(v, "pace"); err != nil {
			return in, err
		}
	}
	if v := m.form.value(goalPenalty); v != "" {
		if in.ElevationPenalty, err = parsePositive(v, "climb penalty"); err != nil {
			return in, err
		}
	}
	return in, nil
}

// parseRaceType matches a race type case-insensitively, blank is trail
func parseRaceType(s string) (store.RaceType, error) {
	if s == "" {
		return store.RaceTrail, nil
	}
	for _, t := range store.RaceTypes {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("race type must be one of %s", raceTypeHint())
}

func raceTypeHint() string {
	names := make([]string, len(store.RaceTypes))
	for i, t := range store.RaceTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

// View renders the goals screen
func (m GoalsModel) View() string {
	if m.mode == goalsEdit {
		return m.renderForm()
	}

	if m.loading {
		return "\n  Loading goals..."
	}

	sections := []string{cardTitleStyle.Render("Race Goals")}

	goals := m.goals()
	if len(goals) == 0 {
		sections = append(sections, "\n  No goals yet. Press 'n' to add your next race.")
	} else {
		sections = append(sections, m.renderSeason())
		for i, gp := range goals {
			sections = append(sections, m.renderGoal(gp, i == m.cursor))
		}
	}

	if m.mode == goalsConfirmDelete {
		sections = append(sections, warningStyle.Render(fmt.Sprintf("  Delete %s? y to confirm", goals[m.cursor].Goal.Name)))
	}
	if m.err != nil {
		sections = append(sections, errorStyle.Render("  Error: "+m.err.Error()))
	}
	if m.notice != "" {
		sections = append(sections, successStyle.Render("  "+m.notice))
	}

	sections = append(sections, statusStyle.Render("n: new  e/enter: edit  d: delete  j/k: move  r: refresh"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m GoalsModel) renderSeason() string {
	t := m.season.Totals
	return mutedStyle.Render(fmt.Sprintf("  Season since %s: %d runs, %.0f km, %s m D+, %s",
		m.season.SeasonStart.Format(dateLayout),
		t.Runs,
		t.DistanceKm,
		humanize.Comma(int64(t.ElevationM)),
		formatHours(t.Hours),
	))
}

func (m GoalsModel) renderGoal(gp analysis.GoalProgress, selected bool) string {
	g := gp.Goal

	countdown := fmt.Sprintf("%d days", gp.DaysRemaining)
	if gp.DaysRemaining < 0 {
		countdown = "done"
	}
	title := fmt.Sprintf("%s  %s  %s", g.Name, mutedStyle.Render(string(g.RaceType)), colourFor(gp.Countdown).Render(countdown))

	lines := []string{
		cardTitleStyle.Render(title),
		mutedStyle.Render(fmt.Sprintf("%s (%s)  %.0f km  %s m D+  estimated %s",
			g.Date.Format(dateLayout), humanize.Time(g.Date),
			g.DistanceKm, humanize.Comma(int64(g.ElevationM)), formatHours(g.EstimatedTimeHours))),
		progressLine("Distance", gp.DistancePct, fmt.Sprintf("%.0f / %.0f km", gp.Done.DistanceKm, gp.Targets.DistanceKm)),
		progressLine("Elevation", gp.ElevationPct, fmt.Sprintf("%.0f / %.0f m", gp.Done.ElevationM, gp.Targets.ElevationM)),
		progressLine("Time", gp.TimePct, fmt.Sprintf("%.0f / %.0f h", gp.Done.Hours, gp.Targets.Hours)),
	}
	if gp.WeeklyDistanceKm > 0 || gp.WeeklyElevationM > 0 {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("Still needed: %.1f km and %.0f m D+ per week", gp.WeeklyDistanceKm, gp.WeeklyElevationM)))
	}

	style := cardStyle
	if selected {
		style = style.BorderForeground(primaryColor)
	}
	return style.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func progressLine(label string, pct float64, detail string) string {
	return fmt.Sprintf("%s %s %3.0f%%  %s",
		metricLabelStyle.Width(12).Render(label), RenderProgressBar(pct/100, 30), pct, mutedStyle.Render(detail))
}

func (m GoalsModel) renderForm() string {
	title := "New Goal"
	if m.editingID != "" {
		title = "Edit Goal"
	}

	sections := []string{
		cardTitleStyle.Render(title),
		cardStyle.Render(m.form.view()),
	}
	if m.err != nil {
		sections = append(sections, errorStyle.Render("  "+m.err.Error()))
	}
	sections = append(sections, statusStyle.Render("enter: save  tab/arrows: next field  esc: cancel"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
