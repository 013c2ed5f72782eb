package tui

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"trailrunner/internal/config"
)

const (
	metersPerMile = 1609.34
	metersPerKm   = 1000.0
)

// Units provides unit conversion and formatting based on user preferences
type Units struct {
	cfg config.DisplayConfig
}

// NewUnits creates a new Units helper with the given display config
func NewUnits(cfg config.DisplayConfig) Units {
	return Units{cfg: cfg}
}

// FormatDistance formats a distance in meters to the user's preferred unit
func (u Units) FormatDistance(meters float64) string {
	if u.IsMiles() {
		return fmt.Sprintf("%.1f mi", meters/metersPerMile)
	}
	return fmt.Sprintf("%.1f km", meters/metersPerKm)
}

// FormatPace formats pace from total seconds and meters to the user's preferred unit
func (u Units) FormatPace(seconds, meters float64) string {
	if meters <= 0 || seconds <= 0 {
		return "-"
	}

	unit := metersPerKm
	if u.cfg.PaceUnit == "min/mi" {
		unit = metersPerMile
	}
	pace := int(math.Round(seconds / (meters / unit)))
	return fmt.Sprintf("%d:%02d", pace/60, pace%60)
}

// FormatPaceWithUnit formats pace with the unit label
func (u Units) FormatPaceWithUnit(seconds, meters float64) string {
	pace := u.FormatPace(seconds, meters)
	if pace == "-" {
		return pace
	}
	return pace + "/" + u.paceDistanceLabel()
}

func (u Units) paceDistanceLabel() string {
	if u.cfg.PaceUnit == "min/mi" {
		return "mi"
	}
	return "km"
}

// IsMiles returns true if distance unit is miles
func (u Units) IsMiles() bool {
	return u.cfg.DistanceUnit == "mi"
}

// formatClock formats seconds as "H:MM:SS" or "M:SS"
func formatClock(seconds float64) string {
	total := int(math.Round(seconds))
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func formatSignedClock(seconds float64) string {
	if seconds < 0 {
		return "-" + formatClock(-seconds)
	}
	return formatClock(seconds)
}

// formatHours formats a duration in hours as "5h07"
func formatHours(hours float64) string {
	total := int(math.Round(hours * 60))
	return fmt.Sprintf("%dh%02d", total/60, total%60)
}

var errBadClock = errors.New("time must look like H:MM:SS, MM:SS or minutes")

// parseClock reads "H:MM:SS", "MM:SS" or a plain number of minutes
func parseClock(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errBadClock
	}
	parts := strings.Split(s, ":")
	if len(parts) == 1 {
		min, err := strconv.ParseFloat(parts[0], 64)
		if err != nil || min <= 0 {
			return 0, errBadClock
		}
		return min * 60, nil
	}
	if len(parts) > 3 {
		return 0, errBadClock
	}

	total := 0.0
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 || (i > 0 && v >= 60) {
			return 0, errBadClock
		}
		total = total*60 + float64(v)
	}
	if total <= 0 {
		return 0, errBadClock
	}
	return total, nil
}

// parsePositive reads a strictly positive number, accepting a comma decimal
func parsePositive(s, what string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%s must be a positive number", what)
	}
	return v, nil
}

// parseNonNegative reads a number that may be zero
func parseNonNegative(s, what string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be zero or more", what)
	}
	return v, nil
}

func truncateName(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
