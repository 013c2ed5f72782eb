package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"trailrunner/internal/activity"
	"trailrunner/internal/analysis"
	"trailrunner/internal/config"
	"trailrunner/internal/store"
)

// Settings are the athlete and analysis parameters used by queries
type Settings struct {
	Model        analysis.LoadModel
	RunnerLevel  analysis.RunnerLevel
	SegmentKm    float64
	TolerancePct float64
	CriticalTSB  float64
	RampWindow   int
	HistoryDays  int
}

// SettingsFromConfig maps the config file onto query settings
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Model: analysis.LoadModel{Profile: analysis.HRProfile{
			RestingHR:   cfg.Athlete.RestingHR,
			MaxHR:       cfg.Athlete.MaxHR,
			ThresholdHR: cfg.Athlete.ThresholdHR,
			Gender:      analysis.Gender(cfg.Athlete.Gender),
		}},
		RunnerLevel:  analysis.RunnerLevel(cfg.Athlete.RunnerLevel),
		SegmentKm:    cfg.Analysis.SegmentDistanceKm,
		TolerancePct: cfg.Analysis.TolerancePct,
		CriticalTSB:  cfg.Analysis.CriticalTSBThreshold,
		RampWindow:   cfg.Analysis.RampWindowDays,
		HistoryDays:  cfg.Analysis.HistoryDays,
	}
}

// DefaultSettings mirrors the config defaults
func DefaultSettings() Settings {
	cfg := config.DefaultConfig()
	return SettingsFromConfig(&cfg)
}

// StreamSource provides the streams of one activity
type StreamSource interface {
	FetchStreams(ctx context.Context, activityID int64) (analysis.Streams, error)
}

// QueryService provides read-only queries for the TUI
type QueryService struct {
	store     *store.Store
	cache     *ActivityCache
	streams   StreamSource
	athleteID int64
	settings  Settings
	now       func() time.Time
}

// NewQueryService creates a query service. streams may be nil, in which case
// activity details only use stored streams.
func NewQueryService(st *store.Store, cache *ActivityCache, streams StreamSource, athleteID int64, settings Settings) *QueryService {
	return &QueryService{
		store:     st,
		cache:     cache,
		streams:   streams,
		athleteID: athleteID,
		settings:  settings,
		now:       time.Now,
	}
}

// Settings returns the settings in use
func (q *QueryService) Settings() Settings { return q.settings }

// Window bounds a query by start date. Zero times are open ends.
type Window struct {
	From time.Time
	To   time.Time
}

// LastDays returns the window of the n days up to now. It starts at midnight
// so repeated calls during a day share a cache entry.
func LastDays(now time.Time, n int) Window {
	y, m, d := now.Date()
	return Window{From: time.Date(y, m, d-n, 0, 0, 0, 0, now.Location())}
}

// Activities returns the runs in w, oldest first
func (q *QueryService) Activities(w Window) ([]activity.Record, error) {
	if records, ok := q.cache.Get(q.athleteID, w.From, w.To); ok {
		return records, nil
	}
	records, err := q.store.ListActivities(q.athleteID, w.From, w.To)
	if err != nil {
		return nil, fmt.Errorf("listing activities: %w", err)
	}
	q.cache.Set(q.athleteID, w.From, w.To, records)
	return records, nil
}

// History returns the runs of the configured history window
func (q *QueryService) History() ([]activity.Record, error) {
	return q.Activities(LastDays(q.now(), q.settings.HistoryDays))
}

// ScoredActivity is an activity with its load scores
type ScoredActivity struct {
	activity.Record
	TSS       float64
	TRIMP     float64
	Strategy  string
	Intensity float64
	Label     analysis.IntensityLabel
}

// score rates one run. Runs with heart rate are labelled from avg/max HR,
// the others by the heuristic.
func (q *QueryService) score(r activity.Record) ScoredActivity {
	model := q.settings.Model
	strategy := model.Strategy(r)
	label := analysis.HeuristicLabel{}.Label(r)
	if r.HasHeartrate() && model.Profile.MaxHR > 0 {
		label = analysis.LabelFromHR(r.AvgHR(), model.Profile.MaxHR)
	}
	return ScoredActivity{
		Record:    r,
		TSS:       analysis.TSS(r, strategy),
		TRIMP:     model.TRIMP(r),
		Strategy:  strategy.Name(),
		Intensity: strategy.IntensityFactor(r),
		Label:     label,
	}
}

// LoadReport is the training load view of a window
type LoadReport struct {
	Activities   []ScoredActivity
	Series       []analysis.LoadPoint
	Overreaching analysis.Overreaching
	Ramp         []analysis.RampPoint
	Current      analysis.LoadPoint
	Form         string
	Weekly       []analysis.WeeklySummary
	HRCoverage   float64 // percent of activities scored from heart rate
}

// TrainingLoad scores every run of w and builds the ATL/CTL/TSB series
func (q *QueryService) TrainingLoad(w Window) (*LoadReport, error) {
	records, err := q.Activities(w)
	if err != nil {
		return nil, err
	}
	return q.buildLoadReport(records), nil
}

func (q *QueryService) buildLoadReport(records []activity.Record) *LoadReport {
	model := q.settings.Model
	report := &LoadReport{Activities: make([]ScoredActivity, len(records))}

	withHR := 0
	for i, r := range records {
		report.Activities[i] = q.score(r)
		if r.HasHeartrate() {
			withHR++
		}
	}
	if len(records) > 0 {
		report.HRCoverage = float64(withHR) / float64(len(records)) * 100
	}

	report.Series = analysis.LoadSeries(analysis.DailyLoads(records, model.TSS))
	report.Overreaching = analysis.DetectOverreaching(report.Series, q.settings.CriticalTSB)
	report.Ramp = analysis.RampRates(report.Series, q.settings.RampWindow)
	report.Current = analysis.Current(report.Series)
	report.Form = analysis.FormDescription(report.Current.TSB)
	report.Weekly = analysis.WeeklySummaries(records, model)
	return report
}

// DashboardData contains all data needed for the dashboard
type DashboardData struct {
	Load         *LoadReport
	Recent       []activity.Record // newest first
	ThisWeek     analysis.WeeklySummary
	ChartATL     []float64
	ChartCTL     []float64
	ChartTSB     []float64
	LastRamp     *analysis.RampPoint
	TotalRuns    int // runs in the history window
	StoredRuns   int
	LatestRun    time.Time
	CurrentVDOT  float64
	LastSyncTime time.Time
}

// Dashboard loads the history window and summarises it
func (q *QueryService) Dashboard() (*DashboardData, error) {
	records, err := q.History()
	if err != nil {
		return nil, err
	}

	now := q.now()
	data := &DashboardData{
		Load:      q.buildLoadReport(records),
		TotalRuns: len(records),
	}

	for i := len(records) - 1; i >= 0 && len(data.Recent) < RecentActivitiesLimit; i-- {
		data.Recent = append(data.Recent, records[i])
	}

	week := analysis.WeekStart(now)
	data.ThisWeek = analysis.WeeklySummary{WeekStart: week}
	for _, w := range data.Load.Weekly {
		if w.WeekStart.Equal(week) {
			data.ThisWeek = w
		}
	}

	series := data.Load.Series
	if len(series) > ChartDays {
		series = series[len(series)-ChartDays:]
	}
	for _, p := range series {
		data.ChartATL = append(data.ChartATL, p.ATL)
		data.ChartCTL = append(data.ChartCTL, p.CTL)
		data.ChartTSB = append(data.ChartTSB, p.TSB)
	}
	if n := len(data.Load.Ramp); n > 0 {
		data.LastRamp = &data.Load.Ramp[n-1]
	}

	data.CurrentVDOT = EstimateVDOT(records, now)
	if data.LastSyncTime, err = q.store.LastSync(); err != nil {
		return nil, fmt.Errorf("reading last sync: %w", err)
	}
	if data.StoredRuns, err = q.store.CountActivities(q.athleteID); err != nil {
		return nil, fmt.Errorf("counting activities: %w", err)
	}
	if data.LatestRun, err = q.store.LatestStartDate(q.athleteID); err != nil {
		return nil, fmt.Errorf("reading latest activity: %w", err)
	}
	return data, nil
}

// EstimateVDOT is the best VDOT implied by a recent run of at least
// MinVDOTDistanceM, 0 without one. Training runs understate race fitness.
func EstimateVDOT(records []activity.Record, now time.Time) float64 {
	best := 0.0
	for _, r := range activity.Between(records, now.AddDate(0, 0, -VDOTLookbackDays), time.Time{}) {
		if r.DistanceM < MinVDOTDistanceM || r.MovingTimeS <= 0 {
			continue
		}
		best = math.Max(best, analysis.VDOTFromRace(r.DistanceM, float64(r.MovingTimeS)))
	}
	return best
}

// PredictionReport is the result of a race-based prediction
type PredictionReport struct {
	DistanceM    float64
	TimeS        float64
	VDOT         float64
	Label        string
	Equivalences []analysis.Equivalence
}

// Predictions derives VDOT from a race result and predicts other distances
func (q *QueryService) Predictions(distanceM, timeS float64) (*PredictionReport, error) {
	if distanceM <= 0 || timeS <= 0 {
		return nil, errors.New("race distance and time must be positive")
	}
	vdot := analysis.VDOTFromRace(distanceM, timeS)
	return &PredictionReport{
		DistanceM:    distanceM,
		TimeS:        timeS,
		VDOT:         vdot,
		Label:        analysis.GetVDOTLabel(vdot),
		Equivalences: analysis.RaceEquivalences(vdot),
	}, nil
}

// Progression computes the improvement plan from currentS to targetS
func (q *QueryService) Progression(currentS, targetS float64, weeks int) (analysis.ProgressionPlan, error) {
	return analysis.Progression(currentS, targetS, float64(weeks))
}

// ActivityDetail is the drill-down view of one activity
type ActivityDetail struct {
	Activity   activity.Record
	Scored     ScoredActivity
	Segments   []analysis.Segment
	SegmentErr error // set when segments are unavailable
	Similar    []activity.Record
	BestMatch  *activity.Record
	Comparison *analysis.Comparison
	Aerobic    *analysis.AerobicSummary // nil without heart rate and speed streams
}

// ActivityDetail loads an activity, cuts it into segments and compares it
// with the most recent similar run.
func (q *QueryService) ActivityDetail(ctx context.Context, id int64) (*ActivityDetail, error) {
	r, err := q.store.GetActivity(id)
	if err != nil {
		return nil, err
	}

	d := &ActivityDetail{
		Activity: r,
		Scored:   q.score(r),
	}

	streams, err := q.loadStreams(ctx, id)
	if err == nil {
		if aerobic, ok := analysis.Aerobic(streams); ok {
			d.Aerobic = &aerobic
		}
		d.Segments, err = analysis.AnalyzeSegments(streams, q.settings.SegmentKm)
	}
	d.SegmentErr = err

	history, err := q.History()
	if err != nil {
		return nil, err
	}
	d.Similar = analysis.FindSimilar(r, history, q.settings.TolerancePct, true)
	if len(d.Similar) > 0 {
		best := d.Similar[0]
		cmp := analysis.Compare(best, r)
		d.BestMatch = &best
		d.Comparison = &cmp
	}
	return d, nil
}

func (q *QueryService) loadStreams(ctx context.Context, id int64) (analysis.Streams, error) {
	if q.streams != nil {
		return q.streams.FetchStreams(ctx, id)
	}
	points, err := q.store.GetStreams(id)
	if err != nil {
		return analysis.Streams{}, err
	}
	return toAnalysisStreams(points), nil
}
