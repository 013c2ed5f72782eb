package strava

import "time"

// Activity is the summary payload of /athlete/activities. Fields Strava
// omits for some activities are pointers.
type Activity struct {
	ID                 int64     `json:"id"`
	Athlete            Athlete   `json:"athlete"`
	Name               string    `json:"name"`
	Type               string    `json:"type"`
	SportType          string    `json:"sport_type"`
	StartDate          time.Time `json:"start_date"`
	StartDateLocal     time.Time `json:"start_date_local"`
	Timezone           string    `json:"timezone"`
	Distance           *float64  `json:"distance,omitempty"`             // meters
	MovingTime         int       `json:"moving_time"`                    // seconds
	ElapsedTime        int       `json:"elapsed_time"`                   // seconds
	TotalElevationGain *float64  `json:"total_elevation_gain,omitempty"` // meters
	AverageSpeed       float64   `json:"average_speed"`                  // m/s
	MaxSpeed           float64   `json:"max_speed"`                      // m/s
	AverageHeartrate   *float64  `json:"average_heartrate,omitempty"`    // bpm
	MaxHeartrate       *float64  `json:"max_heartrate,omitempty"`        // bpm
	SufferScore        *int      `json:"suffer_score,omitempty"`
	HasHeartrate       bool      `json:"has_heartrate"`
}

// Athlete is the minimal athlete reference embedded in activities
type Athlete struct {
	ID int64 `json:"id"`
}

// Streams is the key_by_type response of /activities/{id}/streams.
// Any stream may be missing.
type Streams struct {
	Time           *StreamData[int]        `json:"time,omitempty"`
	LatLng         *StreamData[[2]float64] `json:"latlng,omitempty"`
	Distance       *StreamData[float64]    `json:"distance,omitempty"`
	Altitude       *StreamData[float64]    `json:"altitude,omitempty"`
	VelocitySmooth *StreamData[float64]    `json:"velocity_smooth,omitempty"`
	Heartrate      *StreamData[int]        `json:"heartrate,omitempty"`
	Cadence        *StreamData[int]        `json:"cadence,omitempty"`
}

// StreamData is one stream series
type StreamData[T any] struct {
	Data         []T    `json:"data"`
	SeriesType   string `json:"series_type"`
	OriginalSize int    `json:"original_size"`
	Resolution   string `json:"resolution"`
}

// Values returns the series data, or nil for a missing stream.
func (s *StreamData[T]) Values() []T {
	if s == nil {
		return nil
	}
	return s.Data
}

// Len returns the number of samples in the longest stream.
func (s *Streams) Len() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, l := range []int{
		len(s.Time.Values()), len(s.Distance.Values()), len(s.Altitude.Values()),
		len(s.VelocitySmooth.Values()), len(s.Heartrate.Values()), len(s.LatLng.Values()),
	} {
		n = max(n, l)
	}
	return n
}
