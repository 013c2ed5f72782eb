package analysis

import "trailrunner/internal/activity"

// IntensityStrategy yields the intensity factor used by TSS.
type IntensityStrategy interface {
	IntensityFactor(r activity.Record) float64
	Name() string
}

// MeasuredHR derives IF from average heart rate over threshold HR.
type MeasuredHR struct {
	ThresholdHR float64
}

func (m MeasuredHR) Name() string { return "measured-hr" }

// IntensityFactor is avg HR / threshold, clamped to [0, 2].
func (m MeasuredHR) IntensityFactor(r activity.Record) float64 {
	if m.ThresholdHR <= 0 {
		return 0
	}
	return clamp(r.AvgHR()/m.ThresholdHR, 0, 2)
}

// IntensityLabel is an ordinal effort level
type IntensityLabel string

const (
	Easy     IntensityLabel = "easy"
	Moderate IntensityLabel = "moderate"
	Hard     IntensityLabel = "hard"
	VeryHard IntensityLabel = "very_hard"
	Max      IntensityLabel = "max"
)

// labelFactors maps each label to its fixed intensity factor
var labelFactors = map[IntensityLabel]float64{
	Easy:     0.65,
	Moderate: 0.75,
	Hard:     0.85,
	VeryHard: 0.95,
	Max:      1.05,
}

// Factor returns the fixed intensity factor of the label, moderate if unknown.
func (l IntensityLabel) Factor() float64 {
	if f, ok := labelFactors[l]; ok {
		return f
	}
	return labelFactors[Moderate]
}

// HeuristicLabel guesses an effort label from speed, distance and grade.
// It is an estimate, not a measurement.
type HeuristicLabel struct{}

func (HeuristicLabel) Name() string { return "heuristic-label" }

// Label infers the effort of r:
//   - long and slow runs are easy
//   - steep courses are hard
//   - short and fast runs are hard
func (HeuristicLabel) Label(r activity.Record) IntensityLabel {
	switch {
	case r.DistanceKm > 20 && r.SpeedKmh < 8:
		return Easy
	case r.GradePercent > 10:
		return Hard
	case r.DistanceKm < 10 && r.SpeedKmh > 11:
		return Hard
	default:
		return Moderate
	}
}

func (h HeuristicLabel) IntensityFactor(r activity.Record) float64 {
	return h.Label(r).Factor()
}

// SelectIntensity picks MeasuredHR when r has heart rate, else HeuristicLabel.
func SelectIntensity(r activity.Record, p HRProfile) IntensityStrategy {
	if r.HasHeartrate() && p.Threshold() > 0 {
		return MeasuredHR{ThresholdHR: p.Threshold()}
	}
	return HeuristicLabel{}
}

// LabelFromHR buckets avg HR as a fraction of max HR.
func LabelFromHR(avgHR, maxHR float64) IntensityLabel {
	if maxHR <= 0 || avgHR <= 0 {
		return Moderate
	}
	switch ratio := avgHR / maxHR; {
	case ratio < 0.70:
		return Easy
	case ratio < 0.80:
		return Moderate
	case ratio < 0.90:
		return Hard
	default:
		return VeryHard
	}
}
