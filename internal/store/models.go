package store

import "time"

// Auth represents OAuth tokens for Strava API access
type Auth struct {
	AthleteID    int64
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// StreamPoint is one stream sample; nil fields were not recorded.
type StreamPoint struct {
	Seq            int
	TimeOffset     *float64 // seconds
	Distance       *float64 // cumulative meters
	Altitude       *float64 // meters
	VelocitySmooth *float64 // m/s
	Heartrate      *float64 // bpm
	Lat            *float64
	Lng            *float64
}

// RaceType classifies a race goal
type RaceType string

const (
	RaceTrail        RaceType = "Trail"
	RaceUltraTrail   RaceType = "Ultra-trail"
	RaceMarathon     RaceType = "Marathon"
	RaceSemiMarathon RaceType = "Semi-marathon"
	RaceMountain     RaceType = "Mountain race"
	RaceOther        RaceType = "Other"
)

// RaceTypes lists the selectable race types in display order
var RaceTypes = []RaceType{RaceTrail, RaceUltraTrail, RaceMarathon, RaceSemiMarathon, RaceMountain, RaceOther}

// RaceGoal is a target race owned by one athlete
type RaceGoal struct {
	ID                 string
	AthleteID          int64
	Name               string
	Date               time.Time
	DistanceKm         float64
	ElevationM         float64
	RaceType           RaceType
	EstimatedTimeHours float64
	PaceEstimation     float64 // min/km on flat
	ElevationPenalty   float64 // min per 100 m D+
	CreatedAt          time.Time
}
