package activity

import (
	"time"

	"trailrunner/internal/strava"
)

// RunningTypes are the provider types kept by Normalize.
var RunningTypes = map[string]bool{
	"Run":      true,
	"TrailRun": true,
	"Trail":    true,
}

// IsRunning reports whether a provider activity type is a run.
func IsRunning(activityType string) bool {
	return RunningTypes[activityType]
}

// Normalize converts payloads to records, dropping non-running types.
// The result is ordered oldest first whatever the provider order.
func Normalize(payloads []strava.Activity) []Record {
	records := make([]Record, 0, len(payloads))
	for _, p := range payloads {
		if !IsRunning(p.Type) {
			continue
		}
		records = append(records, FromPayload(p))
	}
	SortByDate(records)
	return records
}

// FromPayload is the single place where absent provider fields are resolved.
func FromPayload(p strava.Activity) Record {
	r := Record{
		ID:              p.ID,
		AthleteID:       p.Athlete.ID,
		Name:            p.Name,
		Type:            p.Type,
		StartDate:       stripZone(p.StartDate),
		MovingTimeS:     p.MovingTime,
		ElapsedTimeS:    p.ElapsedTime,
		AverageSpeedMps: p.AverageSpeed,
		MaxSpeedMps:     p.MaxSpeed,
		SufferScore:     p.SufferScore,
	}
	if p.Distance != nil {
		r.DistanceM = *p.Distance
	}
	if p.TotalElevationGain != nil {
		r.ElevationGainM = *p.TotalElevationGain
	}
	if p.AverageHeartrate != nil && *p.AverageHeartrate > 0 {
		hr := *p.AverageHeartrate
		r.AverageHeartrate = &hr
	}
	if p.MaxHeartrate != nil && *p.MaxHeartrate > 0 {
		hr := *p.MaxHeartrate
		r.MaxHeartrate = &hr
	}
	r.derive()
	return r
}

// Renormalize recomputes derived fields from the base fields.
func Renormalize(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		r.StartDate = stripZone(r.StartDate)
		r.derive()
		out[i] = r
	}
	return out
}

// Payload converts a record back to the provider shape.
func (r Record) Payload() strava.Activity {
	dist, elev := r.DistanceM, r.ElevationGainM
	return strava.Activity{
		ID:                 r.ID,
		Athlete:            strava.Athlete{ID: r.AthleteID},
		Name:               r.Name,
		Type:               r.Type,
		StartDate:          r.StartDate,
		StartDateLocal:     r.StartDate,
		Distance:           &dist,
		MovingTime:         r.MovingTimeS,
		ElapsedTime:        r.ElapsedTimeS,
		TotalElevationGain: &elev,
		AverageSpeed:       r.AverageSpeedMps,
		MaxSpeed:           r.MaxSpeedMps,
		AverageHeartrate:   r.AverageHeartrate,
		MaxHeartrate:       r.MaxHeartrate,
		SufferScore:        r.SufferScore,
		HasHeartrate:       r.HasHeartrate(),
	}
}

// stripZone keeps the wall clock reading and drops the offset.
func stripZone(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, mo, d := t.Date()
	h, mi, s := t.Clock()
	return time.Date(y, mo, d, h, mi, s, t.Nanosecond(), time.UTC)
}
