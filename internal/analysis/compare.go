package analysis

import (
	"sort"

	"trailrunner/internal/activity"
)

// DefaultTolerancePct is the default similarity band half-width
const DefaultTolerancePct = 20.0

// FindSimilar returns records whose distance and elevation gain both fall in
// ref*(1±tol%), newest first. With excludeSelf the reference itself is left out.
func FindSimilar(ref activity.Record, records []activity.Record, tolerancePct float64, excludeSelf bool) []activity.Record {
	tol := tolerancePct / 100
	distLo, distHi := ref.DistanceKm*(1-tol), ref.DistanceKm*(1+tol)
	elevLo, elevHi := ref.ElevationGainM*(1-tol), ref.ElevationGainM*(1+tol)

	var out []activity.Record
	for _, r := range records {
		if excludeSelf && r.ID == ref.ID {
			continue
		}
		if r.DistanceKm < distLo || r.DistanceKm > distHi {
			continue
		}
		if r.ElevationGainM < elevLo || r.ElevationGainM > elevHi {
			continue
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartDate.After(out[j].StartDate)
	})
	return out
}

// MetricDiff compares one metric of two activities (b minus a)
type MetricDiff struct {
	A, B    float64
	Diff    float64
	DiffPct float64 // 0 when A is 0
}

func diff(a, b float64) MetricDiff {
	d := MetricDiff{A: a, B: b, Diff: b - a}
	if a != 0 {
		d.DiffPct = d.Diff / a * 100
	}
	return d
}

// Comparison is the side-by-side of two activities
type Comparison struct {
	DistanceKm     MetricDiff
	ElevationGainM MetricDiff
	MovingTimeS    MetricDiff
	SpeedKmh       MetricDiff
	AvgHR          *MetricDiff // only when both have heart rate
}

// Compare computes b relative to a.
func Compare(a, b activity.Record) Comparison {
	c := Comparison{
		DistanceKm:     diff(a.DistanceKm, b.DistanceKm),
		ElevationGainM: diff(a.ElevationGainM, b.ElevationGainM),
		MovingTimeS:    diff(float64(a.MovingTimeS), float64(b.MovingTimeS)),
		SpeedKmh:       diff(a.SpeedKmh, b.SpeedKmh),
	}
	if a.HasHeartrate() && b.HasHeartrate() {
		hr := diff(a.AvgHR(), b.AvgHR())
		c.AvgHR = &hr
	}
	return c
}
