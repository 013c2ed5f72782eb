package service

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"trailrunner/internal/activity"
	"trailrunner/internal/analysis"
	"trailrunner/internal/route"
)

// RouteReport is the full analysis of a race route file
type RouteReport struct {
	Path       string
	Profile    route.Profile
	Envelope   route.TrainingEnvelope
	Readiness  route.ReadinessReport
	VDOT       float64
	FlatTimeS  float64
	Adjustment analysis.ElevationAdjustment
	Elevation  []float64 // altitude of every point, for plotting
}

// RouteService analyses race routes against recent training
type RouteService struct {
	query *QueryService
	now   func() time.Time
}

// NewRouteService creates a route service reading history through query
func NewRouteService(query *QueryService) *RouteService {
	return &RouteService{query: query, now: time.Now}
}

// Analyze parses a GPX or FIT file and reports its profile, readiness over
// the last weeks and a climb-adjusted finish time. A vdot of 0 uses the
// estimate from recent runs.
func (s *RouteService) Analyze(path string, vdot float64) (*RouteReport, error) {
	trace, err := route.ParseFile(path)
	if err != nil {
		return nil, err
	}

	now := s.now()
	records, err := s.query.Activities(LastDays(now, ReadinessWeeks*7))
	if err != nil {
		return nil, err
	}
	return s.report(path, trace, records, vdot, now)
}

func (s *RouteService) report(path string, trace *route.Trace, records []activity.Record, vdot float64, now time.Time) (*RouteReport, error) {
	prof := route.Analyze(trace)
	if prof.TotalDistanceM <= 0 {
		return nil, fmt.Errorf("route %s has no horizontal distance", path)
	}

	env := route.Envelope(records, now)
	rep := &RouteReport{
		Path:      path,
		Profile:   prof,
		Envelope:  env,
		Elevation: trace.Altitudes(),
		Readiness: route.Readiness(env, route.RaceDemand{
			DistanceKm: prof.TotalDistanceM / MetersPerKm,
			ElevationM: prof.PositiveElevationM,
		}),
	}

	if vdot <= 0 {
		history, err := s.query.History()
		if err != nil {
			return nil, err
		}
		vdot = EstimateVDOT(history, now)
	}
	if vdot > 0 {
		rep.VDOT = vdot
		rep.FlatTimeS = analysis.PredictTime(prof.TotalDistanceM, vdot)
		rep.Adjustment = analysis.AdjustForElevation(rep.FlatTimeS, prof.PositiveElevationM, prof.TotalDistanceM, s.query.Settings().RunnerLevel)
	}

	log.WithFields(log.Fields{
		"route":     path,
		"km":        prof.TotalDistanceM / MetersPerKm,
		"dplus":     prof.PositiveElevationM,
		"readiness": rep.Readiness.Score,
	}).Info("Route analysed")
	return rep, nil
}
