package route

import "math"

// SlopeClass names a gradient bucket
type SlopeClass string

const (
	VerySteepDownhill SlopeClass = "very_steep_downhill"
	SteepDownhill     SlopeClass = "steep_downhill"
	ModerateDownhill  SlopeClass = "moderate_downhill"
	GentleDownhill    SlopeClass = "gentle_downhill"
	Flat              SlopeClass = "flat"
	GentleUphill      SlopeClass = "gentle_uphill"
	ModerateUphill    SlopeClass = "moderate_uphill"
	SteepUphill       SlopeClass = "steep_uphill"
	VerySteepUphill   SlopeClass = "very_steep_uphill"
)

// SlopeClasses lists the buckets from steepest descent to steepest climb
var SlopeClasses = []SlopeClass{
	VerySteepDownhill, SteepDownhill, ModerateDownhill, GentleDownhill,
	Flat,
	GentleUphill, ModerateUphill, SteepUphill, VerySteepUphill,
}

// Classify puts a slope in percent into its bucket. Flat is [-3, 3], uphill
// bounds are inclusive on the upper side and downhill bounds on the lower.
func Classify(slopePct float64) SlopeClass {
	switch {
	case slopePct > 15:
		return VerySteepUphill
	case slopePct > 10:
		return SteepUphill
	case slopePct > 6:
		return ModerateUphill
	case slopePct > 3:
		return GentleUphill
	case slopePct >= -3:
		return Flat
	case slopePct >= -6:
		return GentleDownhill
	case slopePct >= -10:
		return ModerateDownhill
	case slopePct >= -15:
		return SteepDownhill
	default:
		return VerySteepDownhill
	}
}

// SlopeBucket summarises the segments of one class. DistanceM assumes every
// segment has the mean length; ExactDistanceM sums the real lengths.
type SlopeBucket struct {
	Class          SlopeClass
	Count          int
	Percent        float64
	DistanceM      float64
	ExactDistanceM float64
}

// Profile is the elevation summary of a trace
type Profile struct {
	TotalDistanceM     float64
	PositiveElevationM float64
	NegativeElevationM float64
	AltitudeMin        float64
	AltitudeMax        float64
	AltitudeAvg        float64
	SlopeAvg           float64
	SlopeMax           float64
	SlopeMin           float64
	Segments           int
	Distribution       []SlopeBucket
}

// Bucket returns the bucket for class
func (p Profile) Bucket(class SlopeClass) SlopeBucket {
	for _, b := range p.Distribution {
		if b.Class == class {
			return b
		}
	}
	return SlopeBucket{Class: class}
}

// ElevationRatio is D+ per 100 m of distance
func (p Profile) ElevationRatio() float64 {
	if p.TotalDistanceM <= 0 {
		return 0
	}
	return p.PositiveElevationM / p.TotalDistanceM * 100
}

// Analyze computes climbing, altitude range and the slope distribution.
// Slopes are only taken between consecutive points that are apart.
func Analyze(t *Trace) Profile {
	alts := t.Altitudes()
	dist := t.DistanceM

	prof := Profile{
		TotalDistanceM: dist[len(dist)-1] - dist[0],
		AltitudeMin:    alts[0],
		AltitudeMax:    alts[0],
	}

	idx := make(map[SlopeClass]int, len(SlopeClasses))
	prof.Distribution = make([]SlopeBucket, len(SlopeClasses))
	for i, c := range SlopeClasses {
		prof.Distribution[i].Class = c
		idx[c] = i
	}

	sumAlt := alts[0]
	sumSlope := 0.0
	for i := 1; i < len(alts); i++ {
		dAlt := alts[i] - alts[i-1]
		if dAlt > 0 {
			prof.PositiveElevationM += dAlt
		} else {
			prof.NegativeElevationM -= dAlt
		}
		prof.AltitudeMin = math.Min(prof.AltitudeMin, alts[i])
		prof.AltitudeMax = math.Max(prof.AltitudeMax, alts[i])
		sumAlt += alts[i]

		dDist := dist[i] - dist[i-1]
		if dDist <= 0 {
			continue
		}
		slope := dAlt / dDist * 100
		if prof.Segments == 0 {
			prof.SlopeMin, prof.SlopeMax = slope, slope
		}
		prof.SlopeMin = math.Min(prof.SlopeMin, slope)
		prof.SlopeMax = math.Max(prof.SlopeMax, slope)
		sumSlope += slope
		prof.Segments++

		b := &prof.Distribution[idx[Classify(slope)]]
		b.Count++
		b.ExactDistanceM += dDist
	}
	prof.AltitudeAvg = sumAlt / float64(len(alts))

	if prof.Segments == 0 {
		return prof
	}
	prof.SlopeAvg = sumSlope / float64(prof.Segments)
	segLen := prof.TotalDistanceM / float64(prof.Segments)
	for i := range prof.Distribution {
		b := &prof.Distribution[i]
		b.Percent = float64(b.Count) / float64(prof.Segments) * 100
		b.DistanceM = float64(b.Count) * segLen
	}
	return prof
}
