package analysis

import (
	"math"
	"time"

	"trailrunner/internal/activity"
	"trailrunner/internal/store"
)

// Goal time defaults: flat pace in min/km and minutes per 100 m of climbing
const (
	DefaultGoalPace    = 6.5
	DefaultGoalPenalty = 5.0
)

// seasonLead is how long before the first race a season starts
const seasonLead = 180 * 24 * time.Hour

// EstimateGoalTime returns the expected race duration in hours.
// Zero pace or penalty use the defaults.
func EstimateGoalTime(distanceKm, elevationM, paceMinKm, penaltyPer100m float64) float64 {
	if paceMinKm <= 0 {
		paceMinKm = DefaultGoalPace
	}
	if penaltyPer100m <= 0 {
		penaltyPer100m = DefaultGoalPenalty
	}
	return (distanceKm*paceMinKm + elevationM/100*penaltyPer100m) / 60
}

// TrainingTotals are summed volumes over a period
type TrainingTotals struct {
	DistanceKm float64
	ElevationM float64
	Hours      float64
	Runs       int
}

// Totals sums the volume of records
func Totals(records []activity.Record) TrainingTotals {
	var t TrainingTotals
	for _, r := range records {
		t.DistanceKm += r.DistanceKm
		t.ElevationM += r.ElevationGainM
		t.Hours += r.DurationHours
		t.Runs++
	}
	return t
}

// PreparationTargets is the season volume expected before a race:
// 3x the distance, 5x the climbing and 10x the race duration.
func PreparationTargets(g store.RaceGoal) TrainingTotals {
	return TrainingTotals{
		DistanceKm: g.DistanceKm * 3,
		ElevationM: g.ElevationM * 5,
		Hours:      g.EstimatedTimeHours * 10,
	}
}

// Countdown colours
const (
	CountdownRed    = "red"
	CountdownOrange = "orange"
	CountdownGreen  = "green"
)

// GoalProgress tracks season volume against a goal's targets
type GoalProgress struct {
	Goal          store.RaceGoal
	DaysRemaining int
	Countdown     string
	Targets       TrainingTotals
	Done          TrainingTotals
	DistancePct   float64
	ElevationPct  float64
	TimePct       float64
	// Weekly volume still needed; zero within the last week
	WeeklyDistanceKm float64
	WeeklyElevationM float64
}

// Progress computes a goal's preparation status at now.
func Progress(g store.RaceGoal, done TrainingTotals, now time.Time) GoalProgress {
	days := int(math.Ceil(g.Date.Sub(truncateDay(now)).Hours() / 24))
	targets := PreparationTargets(g)

	p := GoalProgress{
		Goal:          g,
		DaysRemaining: days,
		Countdown:     countdownColour(days),
		Targets:       targets,
		Done:          done,
		DistancePct:   pct(done.DistanceKm, targets.DistanceKm),
		ElevationPct:  pct(done.ElevationM, targets.ElevationM),
		TimePct:       pct(done.Hours, targets.Hours),
	}

	if days > 7 {
		p.WeeklyDistanceKm = math.Max(0, targets.DistanceKm-done.DistanceKm) / float64(days) * 7
		p.WeeklyElevationM = math.Max(0, targets.ElevationM-done.ElevationM) / float64(days) * 7
	}
	return p
}

func countdownColour(days int) string {
	switch {
	case days <= 7:
		return CountdownRed
	case days <= 30:
		return CountdownOrange
	default:
		return CountdownGreen
	}
}

// SeasonStart is 180 days before the earliest goal, zero without goals.
func SeasonStart(goals []store.RaceGoal) time.Time {
	var first time.Time
	for _, g := range goals {
		if first.IsZero() || g.Date.Before(first) {
			first = g.Date
		}
	}
	if first.IsZero() {
		return first
	}
	return first.Add(-seasonLead)
}

func pct(done, target float64) float64 {
	if target <= 0 {
		return 0
	}
	return math.Min(100, done/target*100)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
