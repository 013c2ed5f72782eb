package analysis

import (
	"math"
	"sort"
	"time"

	"trailrunner/internal/activity"
)

// Gender selects the Banister TRIMP exponent. Only the two published
// coefficients exist, so this is a binary switch.
type Gender string

const (
	Male   Gender = "M"
	Female Gender = "F"
)

// trimpExponent returns y in TRIMP = min * r * 0.64 * e^(y*r)
func (g Gender) trimpExponent() float64 {
	if g == Female {
		return 1.67
	}
	return 1.92
}

// HRProfile holds the athlete's heart rate settings
type HRProfile struct {
	RestingHR   float64
	MaxHR       float64
	ThresholdHR float64 // 0 means derived from MaxHR
	Gender      Gender
}

// DefaultProfile returns the profile used when nothing is configured
func DefaultProfile() HRProfile {
	return HRProfile{RestingHR: 60, MaxHR: 190, Gender: Male}
}

// Threshold returns the configured threshold HR, else 85% of max HR.
func (p HRProfile) Threshold() float64 {
	if p.ThresholdHR > 0 {
		return p.ThresholdHR
	}
	return 0.85 * p.MaxHR
}

// TRIMP calculates Training Impulse (Banister model):
// duration (min) * r * 0.64 * e^(y*r), r being the clamped HR reserve ratio.
func TRIMP(durationMin, avgHR float64, p HRProfile) float64 {
	if avgHR <= 0 {
		return 0
	}

	hrReserve := p.MaxHR - p.RestingHR
	if hrReserve <= 0 {
		return 0
	}

	r := clamp((avgHR-p.RestingHR)/hrReserve, 0, 1)
	return durationMin * r * 0.64 * math.Exp(p.Gender.trimpExponent()*r)
}

// TSS is hours * IF^2 * 100 with IF chosen by strategy.
func TSS(r activity.Record, strategy IntensityStrategy) float64 {
	f := strategy.IntensityFactor(r)
	return r.DurationHours * f * f * 100
}

// LoadModel scores activities for one athlete.
type LoadModel struct {
	Profile HRProfile
	// Intensity overrides automatic strategy selection when set.
	Intensity IntensityStrategy
}

// Strategy returns the intensity strategy used for r.
func (m LoadModel) Strategy(r activity.Record) IntensityStrategy {
	if m.Intensity != nil {
		return m.Intensity
	}
	return SelectIntensity(r, m.Profile)
}

// TSS scores one activity
func (m LoadModel) TSS(r activity.Record) float64 {
	return TSS(r, m.Strategy(r))
}

// TRIMP scores one activity, 0 without heart rate
func (m LoadModel) TRIMP(r activity.Record) float64 {
	return TRIMP(r.DurationMinutes(), r.AvgHR(), m.Profile)
}

// DailyLoad is the summed load of one calendar day
type DailyLoad struct {
	Date time.Time
	TSS  float64
}

// LoadPoint is one day of the fatigue/fitness/form series
type LoadPoint struct {
	Date time.Time
	TSS  float64
	ATL  float64 // 7-day EWMA - fatigue
	CTL  float64 // 42-day EWMA - fitness
	TSB  float64 // CTL - ATL - form
}

const (
	ATLSpan = 7
	CTLSpan = 42
)

// DailyLoads sums score(r) per day over a continuous calendar from the first
// to the last activity day. Days without activities carry zero.
func DailyLoads(records []activity.Record, score func(activity.Record) float64) []DailyLoad {
	if len(records) == 0 {
		return nil
	}

	byDay := make(map[time.Time]float64)
	first, last := records[0].Day(), records[0].Day()
	for _, r := range records {
		day := r.Day()
		byDay[day] += score(r)
		if day.Before(first) {
			first = day
		}
		if day.After(last) {
			last = day
		}
	}

	var days []DailyLoad
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, DailyLoad{Date: d, TSS: byDay[d]})
	}
	return days
}

// LoadSeries computes ATL/CTL/TSB with EWMA_t = a*x_t + (1-a)*EWMA_{t-1},
// a = 2/(span+1), both seeded with the first day's load.
func LoadSeries(days []DailyLoad) []LoadPoint {
	if len(days) == 0 {
		return nil
	}

	sorted := make([]DailyLoad, len(days))
	copy(sorted, days)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	atlAlpha := 2.0 / (ATLSpan + 1)
	ctlAlpha := 2.0 / (CTLSpan + 1)

	series := make([]LoadPoint, len(sorted))
	atl, ctl := sorted[0].TSS, sorted[0].TSS
	for i, d := range sorted {
		if i > 0 {
			atl = atlAlpha*d.TSS + (1-atlAlpha)*atl
			ctl = ctlAlpha*d.TSS + (1-ctlAlpha)*ctl
		}
		series[i] = LoadPoint{Date: d.Date, TSS: d.TSS, ATL: atl, CTL: ctl, TSB: ctl - atl}
	}
	return series
}

// Overreaching lists days of excessive fatigue. The two lists are independent
// and may share days.
type Overreaching struct {
	Critical []LoadPoint // TSB below the critical threshold
	HighLoad []LoadPoint // ATL in the top decile with TSB < -10
}

// DefaultCriticalTSB is the TSB below which a day is critical
const DefaultCriticalTSB = -30.0

// DetectOverreaching flags critical and high-load days.
func DetectOverreaching(series []LoadPoint, criticalTSB float64) Overreaching {
	var out Overreaching
	if len(series) == 0 {
		return out
	}

	atls := make([]float64, len(series))
	for i, p := range series {
		atls[i] = p.ATL
	}
	p90 := Quantile(atls, 0.9)

	for _, p := range series {
		if p.TSB < criticalTSB {
			out.Critical = append(out.Critical, p)
		}
		if p.ATL > p90 && p.TSB < -10 {
			out.HighLoad = append(out.HighLoad, p)
		}
	}
	return out
}

// Quantile returns the q-quantile with linear interpolation between the two
// closest ranks.
func Quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	pos := clamp(q, 0, 1) * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	return sorted[lo] + (pos-float64(lo))*(sorted[hi]-sorted[lo])
}

// RampPoint is the weekly CTL change ending on Date
type RampPoint struct {
	Date      time.Time
	CTLChange float64
	Rate      float64 // CTL points per week
}

// DefaultRampWindow is the ramp rate look-back in days
const DefaultRampWindow = 7

// RampRates returns (CTL[t]-CTL[t-window])/window*7 for every t >= window.
func RampRates(series []LoadPoint, window int) []RampPoint {
	if window <= 0 || len(series) <= window {
		return nil
	}
	out := make([]RampPoint, 0, len(series)-window)
	for t := window; t < len(series); t++ {
		change := series[t].CTL - series[t-window].CTL
		out = append(out, RampPoint{
			Date:      series[t].Date,
			CTLChange: change,
			Rate:      change / float64(window) * 7,
		})
	}
	return out
}

// Current returns the last point of the series
func Current(series []LoadPoint) LoadPoint {
	if len(series) == 0 {
		return LoadPoint{}
	}
	return series[len(series)-1]
}

// FormDescription returns a human-readable description of TSB
func FormDescription(tsb float64) string {
	switch {
	case tsb > 25:
		return "Very fresh - ready to race"
	case tsb > 5:
		return "Fresh - good time for a hard session"
	case tsb > -10:
		return "Balanced - optimal training zone"
	case tsb > -30:
		return "Tired - consider a lighter week"
	default:
		return "Very tired - overload risk, rest needed"
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
