package route

import (
	"math"
	"time"

	"trailrunner/internal/activity"
)

// RecentWeeks is the training window readiness looks back over
const RecentWeeks = 8

// TrainingEnvelope summarises the recent block of training
type TrainingEnvelope struct {
	Weeks           int
	Activities      int
	TotalDistanceKm float64
	TotalElevationM float64
	MaxDistanceKm   float64
	MaxElevationM   float64
	AvgElevationPct float64 // mean D+ per 100 m over the activities
}

// WeeklyDistanceKm is the average weekly volume of the envelope
func (e TrainingEnvelope) WeeklyDistanceKm() float64 {
	if e.Weeks <= 0 {
		return 0
	}
	return e.TotalDistanceKm / float64(e.Weeks)
}

// WeeklyElevationM is the average weekly climbing of the envelope
func (e TrainingEnvelope) WeeklyElevationM() float64 {
	if e.Weeks <= 0 {
		return 0
	}
	return e.TotalElevationM / float64(e.Weeks)
}

// Envelope summarises the records that started in the RecentWeeks before now.
// Totals are divided by the full window even if it has empty weeks.
func Envelope(records []activity.Record, now time.Time) TrainingEnvelope {
	from := now.AddDate(0, 0, -7*RecentWeeks)
	env := TrainingEnvelope{Weeks: RecentWeeks}

	gradeSum, graded := 0.0, 0
	for _, r := range activity.Between(records, from, time.Time{}) {
		env.Activities++
		env.TotalDistanceKm += r.DistanceKm
		env.TotalElevationM += r.ElevationGainM
		env.MaxDistanceKm = math.Max(env.MaxDistanceKm, r.DistanceKm)
		env.MaxElevationM = math.Max(env.MaxElevationM, r.ElevationGainM)
		if !math.IsNaN(r.GradePercent) {
			gradeSum += r.GradePercent
			graded++
		}
	}
	if graded > 0 {
		env.AvgElevationPct = gradeSum / float64(graded)
	}
	return env
}

// RaceDemand is what the race asks for
type RaceDemand struct {
	DistanceKm float64
	ElevationM float64
}

// ReadinessBand classifies the overall score
type ReadinessBand string

const (
	BandReady     ReadinessBand = "Ready"
	BandImproving ReadinessBand = "Improving"
	BandNeedsWork ReadinessBand = "Needs work"
)

// AdviceLevel orders advice by urgency
type AdviceLevel int

const (
	AdviceOK AdviceLevel = iota
	AdviceInfo
	AdviceWarning
)

// Advice is one training recommendation. Target is 0 when nothing needs to change.
type Advice struct {
	Level   AdviceLevel
	Message string
	Target  float64
}

// ReadinessReport compares the recent envelope with the race
type ReadinessReport struct {
	DistanceScore    float64
	ElevationScore   float64
	Score            float64
	Band             ReadinessBand
	WeeksNeeded      int
	DistanceAdvice   Advice
	ElevationAdvice  Advice
	RaceElevationPct float64
}

// Readiness scores the longest recent run and the biggest recent climb
// against the race, each capped at 100 and weighted equally.
func Readiness(recent TrainingEnvelope, race RaceDemand) ReadinessReport {
	r := ReadinessReport{
		DistanceScore:  capped(recent.MaxDistanceKm, race.DistanceKm),
		ElevationScore: capped(recent.MaxElevationM, race.ElevationM),
	}
	r.Score = r.DistanceScore*0.5 + r.ElevationScore*0.5
	if race.DistanceKm > 0 {
		r.RaceElevationPct = race.ElevationM / (race.DistanceKm * 1000) * 100
	}

	switch {
	case r.Score >= 75:
		r.Band, r.WeeksNeeded = BandReady, 4
	case r.Score >= 50:
		r.Band, r.WeeksNeeded = BandImproving, 8
	default:
		r.Band, r.WeeksNeeded = BandNeedsWork, 12
	}

	switch {
	case r.DistanceScore < 60:
		r.DistanceAdvice = Advice{AdviceWarning, "Long run too short for this race", race.DistanceKm * 0.6}
	case r.DistanceScore < 80:
		r.DistanceAdvice = Advice{AdviceInfo, "Keep extending the long run", race.DistanceKm * 0.8}
	default:
		r.DistanceAdvice = Advice{AdviceOK, "Long run is sufficient", 0}
	}

	switch {
	case r.ElevationScore < 50:
		r.ElevationAdvice = Advice{AdviceWarning, "Biggest climb is far below the race, prioritise hilly runs", 0}
	case r.ElevationScore < 75:
		r.ElevationAdvice = Advice{AdviceInfo, "Keep working on climbing", race.ElevationM * 0.7}
	default:
		r.ElevationAdvice = Advice{AdviceOK, "Used to the climbing", 0}
	}
	return r
}

// A race with no demand on an axis counts as fully prepared on it.
func capped(have, need float64) float64 {
	if need <= 0 {
		return 100
	}
	return math.Min(100, have/need*100)
}
