package analysis

import "math"

// Sample filters for heart rate efficiency
const (
	minAerobicSamples = 120 // about two minutes of 1 Hz data
	minMovingSpeed    = 0.5 // m/s
	minPlausibleHR    = 80
	maxPlausibleHR    = 220
)

// AerobicSummary is the heart rate efficiency of one run
type AerobicSummary struct {
	// EF is metres per minute per heartbeat. Higher is fitter.
	EF float64
	// GradeAdjustedEF credits climbing: uphill speed is scaled up by the grade.
	GradeAdjustedEF float64
	// DecouplingPct compares the EF of the two halves. Positive means the
	// second half cost more heartbeats per metre; under 5% on a long run
	// indicates a solid aerobic base.
	DecouplingPct float64
	Samples       int
}

// Aerobic computes efficiency and decoupling from speed and heart rate
// streams. ok is false without enough moving samples with heart rate.
func Aerobic(s Streams) (summary AerobicSummary, ok bool) {
	n := len(s.SpeedMps)
	if n == 0 || len(s.Heartrate) != n {
		return AerobicSummary{}, false
	}
	grades := sampleGrades(s)

	var valid []int
	for i := range n {
		if s.SpeedMps[i] > minMovingSpeed && s.Heartrate[i] > minPlausibleHR && s.Heartrate[i] < maxPlausibleHR {
			valid = append(valid, i)
		}
	}
	if len(valid) < minAerobicSamples {
		return AerobicSummary{}, false
	}

	mid := len(valid) / 2
	first := efficiency(s, valid[:mid], nil)
	second := efficiency(s, valid[mid:], nil)

	summary = AerobicSummary{
		EF:              efficiency(s, valid, nil),
		GradeAdjustedEF: efficiency(s, valid, grades),
		Samples:         len(valid),
	}
	if first > 0 && second > 0 {
		summary.DecouplingPct = (first/second - 1) * 100
	}
	return summary, true
}

// efficiency is mean speed in m/min over mean heart rate for the samples
// at idx, with speed scaled by the grade factor when grades is set.
func efficiency(s Streams, idx []int, grades []float64) float64 {
	var speed, hr float64
	for _, i := range idx {
		v := s.SpeedMps[i]
		if grades != nil {
			v *= gradeFactor(grades[i])
		}
		speed += v
		hr += s.Heartrate[i]
	}
	if hr == 0 {
		return 0
	}
	return speed * 60 / hr
}

// gradeFactor approximates the extra effort of a slope given as a fraction:
// +10% costs about 30% more. Capped for steep descents and climbs.
func gradeFactor(grade float64) float64 {
	return clamp(1+grade*3, 0.5, 3)
}

// sampleGrades derives the slope at each sample from altitude and distance.
// It is nil when either stream is missing.
func sampleGrades(s Streams) []float64 {
	n := len(s.SpeedMps)
	if len(s.AltitudeM) != n || len(s.DistanceM) != n {
		return nil
	}
	grades := make([]float64, n)
	for i := 1; i < n; i++ {
		dd := s.DistanceM[i] - s.DistanceM[i-1]
		if dd > 0 {
			grades[i] = (s.AltitudeM[i] - s.AltitudeM[i-1]) / dd
		} else {
			grades[i] = grades[i-1]
		}
		if math.IsNaN(grades[i]) {
			grades[i] = 0
		}
	}
	if n > 1 {
		grades[0] = grades[1]
	}
	return grades
}
