package analysis

import (
	"errors"
	"math"
)

// ErrNoDistanceStream is returned when an activity has no distance stream
var ErrNoDistanceStream = errors.New("activity has no distance stream")

// Streams are the time-aligned samples of one activity. Any slice may be nil.
type Streams struct {
	DistanceM []float64
	TimeS     []float64
	AltitudeM []float64
	Heartrate []float64
	SpeedMps  []float64
}

// Segment holds per-window metrics. Pointer fields are nil when the
// underlying stream is missing.
type Segment struct {
	Index          int
	StartKm        float64
	DistanceKm     float64
	TimeS          *float64
	PaceMinKm      *float64
	ElevationGainM *float64
	AvgAltitudeM   *float64
	GradePct       *float64
	AvgHR          *float64
	MaxHR          *float64
	AvgSpeedKmh    *float64
	MaxSpeedKmh    *float64
}

// DefaultSegmentKm is the default segment length
const DefaultSegmentKm = 1.0

// AnalyzeSegments cuts the activity into windows of segmentKm by cumulative
// distance. A sample belongs to [start, start+segment). Windows without
// samples are skipped.
func AnalyzeSegments(s Streams, segmentKm float64) ([]Segment, error) {
	if len(s.DistanceM) == 0 {
		return nil, ErrNoDistanceStream
	}
	if segmentKm <= 0 {
		segmentKm = DefaultSegmentKm
	}

	segM := segmentKm * 1000
	maxDist := s.DistanceM[0]
	for _, d := range s.DistanceM {
		maxDist = math.Max(maxDist, d)
	}

	var segments []Segment
	for start := 0.0; start < maxDist; start += segM {
		end := start + segM

		var idx []int
		for i, d := range s.DistanceM {
			if d >= start && d < end {
				idx = append(idx, i)
			}
		}
		if len(idx) == 0 {
			continue
		}

		seg := Segment{
			Index:      len(segments) + 1,
			StartKm:    start / 1000,
			DistanceKm: math.Min(segM, maxDist-start) / 1000,
		}

		if times := pick(s.TimeS, idx); len(times) > 0 {
			elapsed := times[len(times)-1] - times[0]
			seg.TimeS = &elapsed
			if seg.DistanceKm > 0 {
				pace := elapsed / 60 / seg.DistanceKm
				seg.PaceMinKm = &pace
			}
		}

		if alts := pick(s.AltitudeM, idx); len(alts) > 0 {
			gain := math.Max(0, alts[len(alts)-1]-alts[0])
			avg := mean(alts)
			seg.ElevationGainM = &gain
			seg.AvgAltitudeM = &avg
			if seg.DistanceKm > 0 {
				grade := gain / (seg.DistanceKm * 1000) * 100
				seg.GradePct = &grade
			}
		}

		if hrs := positive(pick(s.Heartrate, idx)); len(hrs) > 0 {
			avg, peak := mean(hrs), maxOf(hrs)
			seg.AvgHR, seg.MaxHR = &avg, &peak
		}

		if speeds := pick(s.SpeedMps, idx); len(speeds) > 0 {
			avg, peak := mean(speeds)*3.6, maxOf(speeds)*3.6
			seg.AvgSpeedKmh, seg.MaxSpeedKmh = &avg, &peak
		}

		segments = append(segments, seg)
	}

	return segments, nil
}

// pick returns values at idx, skipping indexes past the end of a short stream.
func pick(values []float64, idx []int) []float64 {
	if len(values) == 0 {
		return nil
	}
	out := make([]float64, 0, len(idx))
	for _, i := range idx {
		if i < len(values) {
			out = append(out, values[i])
		}
	}
	return out
}

func positive(values []float64) []float64 {
	out := values[:0:0]
	for _, v := range values {
		if v > 0 {
			out = append(out, v)
		}
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func maxOf(values []float64) float64 {
	m := math.Inf(-1)
	for _, v := range values {
		m = math.Max(m, v)
	}
	return m
}
