package analysis

import (
	"math"
	"sort"
)

// Race distances in meters
const (
	Distance1K       = 1000.0
	Distance5K       = 5000.0
	Distance10K      = 10000.0
	DistanceHalfMara = 21097.0
	DistanceMarathon = 42195.0
	Distance50K      = 50000.0
	Distance100K     = 100000.0
)

// fatigueExponent drives the power-law extrapolation beyond the table anchors
const fatigueExponent = 1.06

// VDOTEntry is one row of the reference table: race times in seconds at
// 5K, 10K, half and full marathon.
type VDOTEntry struct {
	VDOT     float64
	Time5K   float64
	Time10K  float64
	TimeHalf float64
	TimeFull float64
}

// VDOTTable maps fitness levels 30..80 to race times
var VDOTTable = []VDOTEntry{
	{30, 1560, 3300, 7380, 16200},
	{35, 1320, 2760, 6120, 13380},
	{40, 1140, 2400, 5280, 11400},
	{45, 1020, 2100, 4620, 9900},
	{50, 900, 1860, 4080, 8700},
	{55, 810, 1680, 3660, 7800},
	{60, 735, 1530, 3300, 7020},
	{65, 675, 1395, 3000, 6360},
	{70, 615, 1275, 2730, 5820},
	{75, 570, 1170, 2505, 5310},
	{80, 525, 1080, 2310, 4860},
}

// anchor is a (distance, time) pair of one table row
type anchor struct {
	dist float64
	time float64
}

func (e VDOTEntry) anchors() [4]anchor {
	return [4]anchor{
		{Distance5K, e.Time5K},
		{Distance10K, e.Time10K},
		{DistanceHalfMara, e.TimeHalf},
		{DistanceMarathon, e.TimeFull},
	}
}

// timeAt returns the row's time for any distance: log interpolation between
// bracketing anchors, power law outside them.
func (e VDOTEntry) timeAt(distance float64) float64 {
	a := e.anchors()
	first, last := a[0], a[len(a)-1]

	if distance <= first.dist {
		return first.time * math.Pow(distance/first.dist, fatigueExponent)
	}
	if distance >= last.dist {
		return last.time * math.Pow(distance/last.dist, fatigueExponent)
	}

	for i := 1; i < len(a); i++ {
		lo, hi := a[i-1], a[i]
		if distance <= hi.dist {
			ratio := math.Log(distance/lo.dist) / math.Log(hi.dist/lo.dist)
			return lo.time + ratio*(hi.time-lo.time)
		}
	}
	return last.time
}

// PredictTime predicts the race time in seconds at distanceMeters for vdot.
// A VDOT between table levels interpolates linearly between the two rows;
// outside the table it is clamped to the nearest level.
func PredictTime(distanceMeters, vdot float64) float64 {
	if distanceMeters <= 0 {
		return 0
	}

	n := len(VDOTTable)
	if vdot <= VDOTTable[0].VDOT {
		return VDOTTable[0].timeAt(distanceMeters)
	}
	if vdot >= VDOTTable[n-1].VDOT {
		return VDOTTable[n-1].timeAt(distanceMeters)
	}

	hi := sort.Search(n, func(i int) bool { return VDOTTable[i].VDOT >= vdot })
	if VDOTTable[hi].VDOT == vdot {
		return VDOTTable[hi].timeAt(distanceMeters)
	}

	low, high := VDOTTable[hi-1], VDOTTable[hi]
	fraction := (vdot - low.VDOT) / (high.VDOT - low.VDOT)
	tLow, tHigh := low.timeAt(distanceMeters), high.timeAt(distanceMeters)
	return tLow + fraction*(tHigh-tLow)
}

// VDOTFromRace estimates VDOT from a race result. The nearest table level by
// predicted time is refined by linear interpolation toward the neighbouring
// level on the side of the actual time. When the nearest level is the table
// maximum it is returned as-is; the table bounds are never exceeded.
func VDOTFromRace(distanceMeters, timeSeconds float64) float64 {
	if distanceMeters <= 0 || timeSeconds <= 0 {
		return 0
	}

	best := 0
	bestErr := math.Inf(1)
	for i, e := range VDOTTable {
		if err := math.Abs(e.timeAt(distanceMeters) - timeSeconds); err < bestErr {
			best, bestErr = i, err
		}
	}

	if best == len(VDOTTable)-1 {
		return VDOTTable[best].VDOT
	}

	// Faster than the nearest level means a higher VDOT, slower a lower one.
	lowIdx, highIdx := best, best+1
	if timeSeconds > VDOTTable[best].timeAt(distanceMeters) {
		lowIdx, highIdx = best-1, best
	}
	if lowIdx < 0 || highIdx >= len(VDOTTable) {
		return VDOTTable[best].VDOT
	}

	low, high := VDOTTable[lowIdx], VDOTTable[highIdx]
	tLow, tHigh := low.timeAt(distanceMeters), high.timeAt(distanceMeters)
	if tLow == tHigh {
		return VDOTTable[best].VDOT
	}

	ratio := clamp((tLow-timeSeconds)/(tLow-tHigh), 0, 1)
	return low.VDOT + ratio*(high.VDOT-low.VDOT)
}

// Equivalence is a predicted performance at a named distance
type Equivalence struct {
	Name      string
	DistanceM float64
	TimeS     float64
	PaceSecKm float64
}

// EquivalenceDistances are the distances reported by RaceEquivalences
var EquivalenceDistances = []struct {
	Name      string
	DistanceM float64
}{
	{"1K", Distance1K},
	{"5K", Distance5K},
	{"10K", Distance10K},
	{"Half marathon", 21097.5},
	{"Marathon", DistanceMarathon},
	{"50K", Distance50K},
	{"100K", Distance100K},
}

// RaceEquivalences predicts times at the standard distances for vdot
func RaceEquivalences(vdot float64) []Equivalence {
	out := make([]Equivalence, 0, len(EquivalenceDistances))
	for _, d := range EquivalenceDistances {
		t := PredictTime(d.DistanceM, vdot)
		out = append(out, Equivalence{
			Name:      d.Name,
			DistanceM: d.DistanceM,
			TimeS:     t,
			PaceSecKm: t / (d.DistanceM / 1000),
		})
	}
	return out
}

// GetVDOTLabel returns a human-readable fitness level for a VDOT value
func GetVDOTLabel(vdot float64) string {
	switch {
	case vdot >= 75:
		return "Elite"
	case vdot >= 65:
		return "Highly Competitive"
	case vdot >= 55:
		return "Competitive"
	case vdot >= 45:
		return "Advanced Recreational"
	case vdot >= 38:
		return "Intermediate"
	case vdot >= 30:
		return "Beginner"
	default:
		return "Novice"
	}
}
