package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"trailrunner/internal/analysis"
	"trailrunner/internal/service"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"
)

// detailTimeout bounds a stream download when a run is opened
const detailTimeout = 2 * time.Minute

// ActivityDetailModel is the activity detail screen model
type ActivityDetailModel struct {
	queryService *service.QueryService
	units        Units
	activityID   int64
	detail       *service.ActivityDetail
	viewport     viewport.Model
	loading      bool
	err          error
	width        int
	height       int
	ready        bool
}

// NewActivityDetailModel creates a new activity detail model
func NewActivityDetailModel(qs *service.QueryService, units Units, activityID int64, width, height int) ActivityDetailModel {
	m := ActivityDetailModel{
		queryService: qs,
		units:        units,
		activityID:   activityID,
		loading:      true,
		width:        width,
		height:       height,
	}

	if width > 0 && height > 0 {
		m.viewport = viewport.New(width, height-6) // Reserve space for header/footer
		m.ready = true
	}

	return m
}

// Init initializes the activity detail screen
func (m ActivityDetailModel) Init() tea.Cmd {
	return m.loadDetail
}

type activityDetailLoadedMsg struct {
	detail *service.ActivityDetail
	err    error
}

func (m ActivityDetailModel) loadDetail() tea.Msg {
	// Streams may be downloaded on first view
	ctx, cancel := context.WithTimeout(context.Background(), detailTimeout)
	defer cancel()

	detail, err := m.queryService.ActivityDetail(ctx, m.activityID)
	return activityDetailLoadedMsg{detail: detail, err: err}
}

// Update handles messages
func (m ActivityDetailModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case activityDetailLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.detail = msg.detail
		if m.ready && m.detail != nil {
			m.viewport.SetContent(m.renderContent())
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-6)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 6
		}
		if m.detail != nil {
			m.viewport.SetContent(m.renderContent())
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			m.loading = true
			return m, m.loadDetail
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the activity detail screen
func (m ActivityDetailModel) View() string {
	if m.loading {
		return "\n  Loading activity details..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	footer := statusStyle.Render("  esc: back to list  j/k or arrows: scroll  r: refresh")

	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), footer)
}

func (m ActivityDetailModel) renderContent() string {
	var sections []string

	sections = append(sections, m.renderHeader(), m.renderSummary())

	if a := m.detail.Aerobic; a != nil {
		sections = append(sections, m.renderAerobic(*a))
	}

	if chart := m.renderPaceChart(); chart != "" {
		sections = append(sections, chart)
	}
	sections = append(sections, m.renderSegments(), m.renderComparison())

	return strings.Join(sections, "\n\n")
}

func (m ActivityDetailModel) renderHeader() string {
	a := m.detail.Activity
	title := cardTitleStyle.Render(a.Name)
	when := mutedStyle.Render(fmt.Sprintf("%s  (%s)", a.StartDate.Format("Monday 2 January 2006 15:04"), humanize.Time(a.StartDate)))
	return lipgloss.JoinVertical(lipgloss.Left, title, when)
}

func (m ActivityDetailModel) renderSummary() string {
	a := m.detail.Activity
	s := m.detail.Scored

	hr := "-"
	if a.HasHeartrate() {
		hr = fmt.Sprintf("%.0f bpm", a.AvgHR())
	}
	grade := "-"
	if a.DistanceM > 0 {
		grade = fmt.Sprintf("%.1f%%", a.GradePercent)
	}

	left := []string{
		RenderMetric("Distance", m.units.FormatDistance(a.DistanceM), ""),
		RenderMetric("Moving time", formatClock(float64(a.MovingTimeS)), ""),
		RenderMetric("Pace", m.units.FormatPaceWithUnit(float64(a.MovingTimeS), a.DistanceM), ""),
		RenderMetric("Elevation gain", fmt.Sprintf("%.0f m", a.ElevationGainM), ""),
		RenderMetric("Average grade", grade, ""),
	}
	right := []string{
		RenderMetric("Average HR", hr, ""),
		RenderMetric("TSS", fmt.Sprintf("%.0f", s.TSS), ""),
		RenderMetric("TRIMP", fmt.Sprintf("%.0f", s.TRIMP), ""),
		RenderMetric("Intensity", fmt.Sprintf("%.2f", s.Intensity), ""),
		RenderMetric("Effort", strings.ReplaceAll(string(s.Label), "_", " "), ""),
		RenderMetric("Scored by", s.Strategy, ""),
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, left...)),
		"  ",
		cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, right...)),
	)
}

func (m ActivityDetailModel) renderAerobic(a analysis.AerobicSummary) string {
	drift := successStyle
	switch {
	case a.DecouplingPct > 10:
		drift = errorStyle
	case a.DecouplingPct > 5:
		drift = warningStyle
	}

	lines := []string{
		renderSection("Aerobic Efficiency"),
		RenderMetric("Efficiency factor", fmt.Sprintf("%.2f", a.EF), ""),
		RenderMetric("Grade adjusted", fmt.Sprintf("%.2f", a.GradeAdjustedEF), ""),
		RenderMetric("Decoupling", drift.Render(fmt.Sprintf("%+.1f%%", a.DecouplingPct)), ""),
	}
	return strings.Join(lines, "\n")
}

func (m ActivityDetailModel) renderPaceChart() string {
	var pace []float64
	for _, seg := range m.detail.Segments {
		if seg.PaceMinKm == nil {
			return ""
		}
		pace = append(pace, *seg.PaceMinKm)
	}
	if len(pace) < 3 {
		return ""
	}

	graph := asciigraph.Plot(pace,
		asciigraph.Height(6),
		asciigraph.Width(60),
		asciigraph.Precision(1),
		asciigraph.Caption("pace per segment (min/km)"),
	)
	return cardStyle.Render(graph)
}

func (m ActivityDetailModel) renderSegments() string {
	lines := []string{renderSection("Segments")}

	if m.detail.SegmentErr != nil {
		lines = append(lines, mutedStyle.Render("  Segments unavailable: "+m.detail.SegmentErr.Error()))
		return strings.Join(lines, "\n")
	}

	lines = append(lines, mutedStyle.Render(fmt.Sprintf("  %4s  %7s  %7s  %7s  %6s  %6s  %5s  %6s",
		"#", "Start", "Dist", "Time", "Pace", "D+", "HR", "Grade")))
	for _, seg := range m.detail.Segments {
		lines = append(lines, fmt.Sprintf("  %4d  %7.1f  %7.2f  %7s  %6s  %6s  %5s  %6s",
			seg.Index+1,
			seg.StartKm,
			seg.DistanceKm,
			optional(seg.TimeS, formatClock),
			optional(seg.PaceMinKm, formatMinutes),
			optional(seg.ElevationGainM, func(v float64) string { return fmt.Sprintf("%.0f", v) }),
			optional(seg.AvgHR, func(v float64) string { return fmt.Sprintf("%.0f", v) }),
			optional(seg.GradePct, func(v float64) string { return fmt.Sprintf("%.1f%%", v) }),
		))
	}
	return strings.Join(lines, "\n")
}

func (m ActivityDetailModel) renderComparison() string {
	lines := []string{renderSection("Similar Runs")}

	if len(m.detail.Similar) == 0 {
		lines = append(lines, mutedStyle.Render("  No similar runs in history"))
		return strings.Join(lines, "\n")
	}

	for _, r := range m.detail.Similar {
		lines = append(lines, fmt.Sprintf("  %s  %-28s  %9s  %5.0f m  %s",
			r.StartDate.Format("2006-01-02"),
			truncateName(r.Name, 28),
			m.units.FormatDistance(r.DistanceM),
			r.ElevationGainM,
			m.units.FormatPaceWithUnit(float64(r.MovingTimeS), r.DistanceM),
		))
	}

	if c := m.detail.Comparison; c != nil && m.detail.BestMatch != nil {
		lines = append(lines, "", mutedStyle.Render(fmt.Sprintf("  Compared with %s on %s",
			m.detail.BestMatch.Name, m.detail.BestMatch.StartDate.Format("2006-01-02"))))
		lines = append(lines,
			renderDiff("Distance (km)", c.DistanceKm, false),
			renderDiff("Elevation (m)", c.ElevationGainM, false),
			renderDiff("Moving time (s)", c.MovingTimeS, true),
			renderDiff("Speed (km/h)", c.SpeedKmh, false),
		)
		if c.AvgHR != nil {
			lines = append(lines, renderDiff("Average HR", *c.AvgHR, true))
		}
	}
	return strings.Join(lines, "\n")
}

// renderDiff shows B against A. lowerIsBetter flips the colouring.
func renderDiff(label string, d analysis.MetricDiff, lowerIsBetter bool) string {
	style := trendFlatStyle
	if d.Diff != 0 {
		better := d.Diff > 0
		if lowerIsBetter {
			better = !better
		}
		if better {
			style = trendUpStyle
		} else {
			style = trendDownStyle
		}
	}
	return fmt.Sprintf("  %s %10.1f -> %10.1f  %s",
		metricLabelStyle.Render(label), d.A, d.B,
		style.Render(fmt.Sprintf("%+.1f (%+.1f%%)", d.Diff, d.DiffPct)))
}

func optional(v *float64, format func(float64) string) string {
	if v == nil {
		return "-"
	}
	return format(*v)
}

// formatMinutes formats decimal minutes as "M:SS"
func formatMinutes(min float64) string {
	return formatClock(min * 60)
}

// downsample averages data into at most targetLen buckets
func downsample(data []float64, targetLen int) []float64 {
	if targetLen <= 0 || len(data) <= targetLen {
		return data
	}

	result := make([]float64, targetLen)
	ratio := float64(len(data)) / float64(targetLen)

	for i := range targetLen {
		start := int(float64(i) * ratio)
		end := min(int(float64(i+1)*ratio), len(data))
		if end <= start {
			end = start + 1
		}

		sum := 0.0
		for _, v := range data[start:end] {
			sum += v
		}
		result[i] = sum / float64(end-start)
	}

	return result
}
