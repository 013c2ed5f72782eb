package service

import (
	"trailrunner/internal/analysis"
	"trailrunner/internal/store"
	"trailrunner/internal/strava"
)

// convertStreams turns the provider's parallel series into stored samples
func convertStreams(s *strava.Streams) []store.StreamPoint {
	n := s.Len()
	if n == 0 {
		return nil
	}

	times := s.Time.Values()
	dist := s.Distance.Values()
	alt := s.Altitude.Values()
	vel := s.VelocitySmooth.Values()
	hr := s.Heartrate.Values()
	latlng := s.LatLng.Values()

	points := make([]store.StreamPoint, n)
	for i := range points {
		p := store.StreamPoint{Seq: i}
		if i < len(times) {
			p.TimeOffset = ptr(float64(times[i]))
		}
		if i < len(dist) {
			p.Distance = ptr(dist[i])
		}
		if i < len(alt) {
			p.Altitude = ptr(alt[i])
		}
		if i < len(vel) {
			p.VelocitySmooth = ptr(vel[i])
		}
		if i < len(hr) {
			p.Heartrate = ptr(float64(hr[i]))
		}
		if i < len(latlng) {
			p.Lat = ptr(latlng[i][0])
			p.Lng = ptr(latlng[i][1])
		}
		points[i] = p
	}
	return points
}

// toAnalysisStreams rebuilds the series used by segment analysis. A series is
// kept only when every sample has a value.
func toAnalysisStreams(points []store.StreamPoint) analysis.Streams {
	return analysis.Streams{
		DistanceM: series(points, func(p store.StreamPoint) *float64 { return p.Distance }),
		TimeS:     series(points, func(p store.StreamPoint) *float64 { return p.TimeOffset }),
		AltitudeM: series(points, func(p store.StreamPoint) *float64 { return p.Altitude }),
		Heartrate: series(points, func(p store.StreamPoint) *float64 { return p.Heartrate }),
		SpeedMps:  series(points, func(p store.StreamPoint) *float64 { return p.VelocitySmooth }),
	}
}

func series(points []store.StreamPoint, field func(store.StreamPoint) *float64) []float64 {
	if len(points) == 0 {
		return nil
	}
	out := make([]float64, len(points))
	for i, p := range points {
		v := field(p)
		if v == nil {
			return nil
		}
		out[i] = *v
	}
	return out
}

func ptr(v float64) *float64 { return &v }
