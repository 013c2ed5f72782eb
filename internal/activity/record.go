// Package activity turns provider payloads into canonical running records.
package activity

import (
	"math"
	"sort"
	"time"
)

// Record is the canonical, immutable view of one running activity.
// Derived fields are filled by derive and never set independently.
type Record struct {
	ID               int64
	AthleteID        int64
	Name             string
	Type             string
	StartDate        time.Time // wall clock, no zone
	DistanceM        float64
	MovingTimeS      int
	ElapsedTimeS     int
	ElevationGainM   float64
	AverageSpeedMps  float64
	MaxSpeedMps      float64
	AverageHeartrate *float64
	MaxHeartrate     *float64
	SufferScore      *int

	DistanceKm    float64
	DurationHours float64
	SpeedKmh      float64
	GradePercent  float64 // NaN when distance is zero
}

func (r *Record) derive() {
	r.DistanceKm = r.DistanceM / 1000
	r.DurationHours = float64(r.MovingTimeS) / 3600
	r.SpeedKmh = r.AverageSpeedMps * 3.6
	if r.DistanceM > 0 {
		r.GradePercent = r.ElevationGainM / r.DistanceM * 100
	} else {
		r.GradePercent = math.NaN()
	}
}

// HasHeartrate reports whether an average heart rate was recorded.
func (r Record) HasHeartrate() bool {
	return r.AverageHeartrate != nil && *r.AverageHeartrate > 0
}

// AvgHR returns the average heart rate or 0 when absent.
func (r Record) AvgHR() float64 {
	if r.AverageHeartrate == nil {
		return 0
	}
	return *r.AverageHeartrate
}

// Day returns the calendar date of the start.
func (r Record) Day() time.Time {
	y, m, d := r.StartDate.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DurationMinutes returns moving time in minutes
func (r Record) DurationMinutes() float64 {
	return float64(r.MovingTimeS) / 60
}

// SortByDate orders records chronologically, oldest first.
func SortByDate(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].StartDate.Before(records[j].StartDate)
	})
}

// Between returns records starting in [from, to). Zero bounds are open.
func Between(records []Record, from, to time.Time) []Record {
	var out []Record
	for _, r := range records {
		if !from.IsZero() && r.StartDate.Before(from) {
			continue
		}
		if !to.IsZero() && !r.StartDate.Before(to) {
			continue
		}
		out = append(out, r)
	}
	return out
}
