package analysis

import (
	"sort"
	"time"

	"trailrunner/internal/activity"
)

// WeeklySummary aggregates one ISO week, starting Monday
type WeeklySummary struct {
	WeekStart  time.Time
	Runs       int
	DistanceKm float64
	ElevationM float64
	Hours      float64
	TSS        float64
	TRIMP      float64
	LongestKm  float64
}

// WeekStart returns the Monday of t's week at midnight
func WeekStart(t time.Time) time.Time {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// WeeklySummaries groups records by week, oldest first. Weeks without
// activities are not emitted.
func WeeklySummaries(records []activity.Record, model LoadModel) []WeeklySummary {
	byWeek := make(map[time.Time]*WeeklySummary)
	for _, r := range records {
		ws := WeekStart(r.StartDate)
		w, ok := byWeek[ws]
		if !ok {
			w = &WeeklySummary{WeekStart: ws}
			byWeek[ws] = w
		}
		w.Runs++
		w.DistanceKm += r.DistanceKm
		w.ElevationM += r.ElevationGainM
		w.Hours += r.DurationHours
		w.TSS += model.TSS(r)
		w.TRIMP += model.TRIMP(r)
		if r.DistanceKm > w.LongestKm {
			w.LongestKm = r.DistanceKm
		}
	}

	out := make([]WeeklySummary, 0, len(byWeek))
	for _, w := range byWeek {
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart.Before(out[j].WeekStart) })
	return out
}
