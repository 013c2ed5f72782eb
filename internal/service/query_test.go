package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailrunner/internal/activity"
	"trailrunner/internal/analysis"
	"trailrunner/internal/config"
	"trailrunner/internal/store"
)

func TestSettingsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Athlete.Gender = "F"
	cfg.Athlete.ThresholdHR = 170
	cfg.Athlete.RunnerLevel = "advanced"

	s := SettingsFromConfig(&cfg)
	assert.Equal(t, analysis.Female, s.Model.Profile.Gender)
	assert.Equal(t, 170.0, s.Model.Profile.Threshold())
	assert.Equal(t, analysis.Advanced, s.RunnerLevel)
	assert.Equal(t, 1.0, s.SegmentKm)
	assert.Equal(t, 20.0, s.TolerancePct)
	assert.Equal(t, -30.0, s.CriticalTSB)
	assert.Equal(t, 7, s.RampWindow)
}

func TestActivityCache(t *testing.T) {
	c := NewActivityCache(ActivityCacheSize, time.Hour)
	from := testNow.AddDate(0, 0, -7)

	_, ok := c.Get(testAthlete, from, time.Time{})
	assert.False(t, ok)

	noHR := record(2, testNow, 8000, 0, 0)
	records := []activity.Record{record(1, testNow.AddDate(0, 0, -1), 10000, 250, 150), noHR}
	c.Set(testAthlete, from, time.Time{}, records)

	got, ok := c.Get(testAthlete, from, time.Time{})
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, records[0].ID, got[0].ID)
	assert.Equal(t, 150.0, got[0].AvgHR())
	assert.InDelta(t, 2.5, got[0].GradePercent, 1e-9)
	assert.False(t, got[1].HasHeartrate())
	assert.True(t, got[1].StartDate.Equal(testNow))

	_, ok = c.Get(testAthlete+1, from, time.Time{})
	assert.False(t, ok, "key includes the athlete")

	c.Invalidate()
	_, ok = c.Get(testAthlete, from, time.Time{})
	assert.False(t, ok)

	disabled := NewActivityCache(ActivityCacheSize, 0)
	disabled.Set(testAthlete, from, time.Time{}, records)
	_, ok = disabled.Get(testAthlete, from, time.Time{})
	assert.False(t, ok)
}

func TestActivitiesUsesCache(t *testing.T) {
	st := newTestStore(t)
	q := newTestQuery(st, nil)
	w := Window{From: testNow.AddDate(0, 0, -30)}

	seed(t, st, record(1, testNow.AddDate(0, 0, -2), 10000, 100, 0))
	got, err := q.Activities(w)
	require.NoError(t, err)
	require.Len(t, got, 1)

	seed(t, st, record(2, testNow.AddDate(0, 0, -1), 12000, 100, 0))
	got, err = q.Activities(w)
	require.NoError(t, err)
	assert.Len(t, got, 1, "served from cache")

	q.cache.Invalidate()
	got, err = q.Activities(w)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestHistoryReusesCacheWithinDay(t *testing.T) {
	st := newTestStore(t)
	q := newTestQuery(st, nil)

	seed(t, st, record(1, testNow.AddDate(0, 0, -2), 10000, 100, 0))
	got, err := q.History()
	require.NoError(t, err)
	require.Len(t, got, 1)

	seed(t, st, record(2, testNow.AddDate(0, 0, -1), 12000, 100, 0))
	q.now = func() time.Time { return testNow.Add(3 * time.Hour) }
	got, err = q.History()
	require.NoError(t, err)
	assert.Len(t, got, 1, "same day is served from cache")

	q.now = func() time.Time { return testNow.AddDate(0, 0, 1) }
	got, err = q.History()
	require.NoError(t, err)
	assert.Len(t, got, 2, "next day opens a new window")
}

func TestLastDays(t *testing.T) {
	a := LastDays(testNow, 30)
	b := LastDays(testNow.Add(5*time.Second), 30)
	assert.Equal(t, a, b)
	assert.Equal(t, time.Date(2024, 5, 16, 0, 0, 0, 0, time.UTC), a.From)
	assert.True(t, a.To.IsZero())
}

func TestTrainingLoad(t *testing.T) {
	st := newTestStore(t)
	q := newTestQuery(st, nil)
	start := testNow.AddDate(0, 0, -9)
	seed(t, st,
		record(1, start, 10000, 100, 150),
		record(2, start.AddDate(0, 0, 2), 25000, 500, 0),
		record(3, start.AddDate(0, 0, 9), 8000, 50, 160),
	)

	rep, err := q.TrainingLoad(Window{From: start.AddDate(0, 0, -1)})
	require.NoError(t, err)

	require.Len(t, rep.Activities, 3)
	assert.Equal(t, "measured-hr", rep.Activities[0].Strategy)
	assert.Equal(t, "heuristic-label", rep.Activities[1].Strategy)
	assert.Zero(t, rep.Activities[1].TRIMP)
	assert.Greater(t, rep.Activities[0].TRIMP, 0.0)
	assert.InDelta(t, 200.0/3, rep.HRCoverage, 1e-9)

	// one point per calendar day from first to last run
	require.Len(t, rep.Series, 10)
	assert.Equal(t, rep.Series[9], rep.Current)
	assert.InDelta(t, rep.Current.CTL-rep.Current.ATL, rep.Current.TSB, 1e-9)
	assert.Len(t, rep.Ramp, 3)
	assert.Equal(t, analysis.FormDescription(rep.Current.TSB), rep.Form)
	assert.NotEmpty(t, rep.Weekly)
}

func TestTrainingLoadEmpty(t *testing.T) {
	q := newTestQuery(newTestStore(t), nil)
	rep, err := q.TrainingLoad(Window{})
	require.NoError(t, err)
	assert.Empty(t, rep.Series)
	assert.Empty(t, rep.Ramp)
	assert.Zero(t, rep.HRCoverage)
}

func TestDashboard(t *testing.T) {
	st := newTestStore(t)
	q := newTestQuery(st, nil)
	for i := int64(0); i < 14; i++ {
		seed(t, st, record(i+1, testNow.AddDate(0, 0, -int(i)*2), 10000, 150, 145))
	}
	require.NoError(t, st.SetLastSync(testNow))

	d, err := q.Dashboard()
	require.NoError(t, err)
	assert.Equal(t, 14, d.TotalRuns)
	require.Len(t, d.Recent, RecentActivitiesLimit)
	assert.Equal(t, int64(1), d.Recent[0].ID, "newest first")
	assert.Equal(t, analysis.WeekStart(testNow), d.ThisWeek.WeekStart)
	assert.Greater(t, d.ThisWeek.Runs, 0)
	assert.Len(t, d.ChartCTL, len(d.Load.Series))
	assert.NotNil(t, d.LastRamp)
	assert.Greater(t, d.CurrentVDOT, 0.0)
	assert.True(t, d.LastSyncTime.Equal(testNow))
	assert.Equal(t, 14, d.StoredRuns)
	assert.True(t, d.LatestRun.Equal(testNow))
}

func TestDashboardCountsRunsOutsideHistory(t *testing.T) {
	st := newTestStore(t)
	q := newTestQuery(st, nil)
	old := testNow.AddDate(-3, 0, 0)
	seed(t, st, record(1, old, 10000, 150, 0))

	d, err := q.Dashboard()
	require.NoError(t, err)
	assert.Equal(t, 0, d.TotalRuns)
	assert.Equal(t, 1, d.StoredRuns)
	assert.True(t, d.LatestRun.Equal(old))
}

func TestScoreLabel(t *testing.T) {
	q := newTestQuery(newTestStore(t), nil)
	tests := []struct {
		name string
		r    activity.Record
		want analysis.IntensityLabel
	}{
		{"easy heart rate", record(1, testNow, 10000, 0, 120), analysis.Easy},
		{"hard heart rate", record(2, testNow, 10000, 0, 165), analysis.Hard},
		{"steep without heart rate", record(3, testNow, 10000, 1200, 0), analysis.Hard},
		{"no heart rate defaults to moderate", record(4, testNow, 12000, 0, 0), analysis.Moderate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := q.score(tt.r)
			assert.Equal(t, tt.want, got.Label)
			if tt.r.HasHeartrate() {
				assert.Equal(t, analysis.MeasuredHR{}.Name(), got.Strategy)
			}
		})
	}
}

func TestEstimateVDOT(t *testing.T) {
	fast := record(1, testNow.AddDate(0, 0, -5), 10000, 0, 0)
	fast.MovingTimeS = 40 * 60
	short := record(2, testNow.AddDate(0, 0, -3), 1000, 0, 0)
	short.MovingTimeS = 150
	old := record(3, testNow.AddDate(0, 0, -200), 10000, 0, 0)
	old.MovingTimeS = 32 * 60

	got := EstimateVDOT([]activity.Record{fast, short, old}, testNow)
	assert.InDelta(t, analysis.VDOTFromRace(10000, 2400), got, 1e-9)
	assert.Zero(t, EstimateVDOT(nil, testNow))
}

func TestPredictions(t *testing.T) {
	q := newTestQuery(newTestStore(t), nil)

	rep, err := q.Predictions(analysis.Distance5K, 20*60)
	require.NoError(t, err)
	assert.InDelta(t, analysis.VDOTFromRace(analysis.Distance5K, 1200), rep.VDOT, 1e-9)
	assert.Equal(t, analysis.GetVDOTLabel(rep.VDOT), rep.Label)
	require.Len(t, rep.Equivalences, len(analysis.EquivalenceDistances))
	for i := 1; i < len(rep.Equivalences); i++ {
		assert.Greater(t, rep.Equivalences[i].TimeS, rep.Equivalences[i-1].TimeS)
	}

	_, err = q.Predictions(0, 1200)
	assert.Error(t, err)

	_, err = q.Progression(3600, 3400, 0)
	assert.ErrorIs(t, err, analysis.ErrNoWeeks)
}

func TestActivityDetail(t *testing.T) {
	st := newTestStore(t)
	streams := analysis.Streams{
		DistanceM: []float64{0, 500, 1000, 1500, 2000, 2500},
		TimeS:     []float64{0, 150, 300, 450, 600, 750},
		AltitudeM: []float64{100, 110, 120, 115, 110, 130},
	}
	q := newTestQuery(st, fixedStreams{streams: streams})

	seed(t, st,
		record(1, testNow.AddDate(0, 0, -20), 10000, 300, 150),
		record(2, testNow.AddDate(0, 0, -10), 10500, 320, 148),
		record(3, testNow.AddDate(0, 0, -5), 30000, 1500, 140),
		record(4, testNow.AddDate(0, 0, -1), 9800, 290, 152),
	)

	d, err := q.ActivityDetail(context.Background(), 4)
	require.NoError(t, err)
	require.NoError(t, d.SegmentErr)
	assert.Len(t, d.Segments, 3)

	require.Len(t, d.Similar, 2)
	assert.Equal(t, int64(2), d.Similar[0].ID)
	require.NotNil(t, d.BestMatch)
	assert.Equal(t, int64(2), d.BestMatch.ID)
	require.NotNil(t, d.Comparison)
	assert.InDelta(t, 9.8-10.5, d.Comparison.DistanceKm.Diff, 1e-9)
	assert.NotNil(t, d.Comparison.AvgHR)
	assert.Nil(t, d.Aerobic, "no heart rate stream")

	_, err = q.ActivityDetail(context.Background(), 99)
	assert.ErrorIs(t, err, store.ErrActivityNotFound)
}

func TestActivityDetailAerobic(t *testing.T) {
	st := newTestStore(t)

	var streams analysis.Streams
	for i := range 300 {
		streams.DistanceM = append(streams.DistanceM, float64(i)*3)
		streams.TimeS = append(streams.TimeS, float64(i))
		streams.AltitudeM = append(streams.AltitudeM, 100)
		streams.SpeedMps = append(streams.SpeedMps, 3)
		streams.Heartrate = append(streams.Heartrate, 150)
	}
	q := newTestQuery(st, fixedStreams{streams: streams})
	seed(t, st, record(1, testNow.AddDate(0, 0, -1), 900, 0, 150))

	d, err := q.ActivityDetail(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, d.Aerobic)
	assert.InDelta(t, 1.2, d.Aerobic.EF, 1e-9)
	assert.InDelta(t, 0, d.Aerobic.DecouplingPct, 1e-9)
	assert.Equal(t, 300, d.Aerobic.Samples)
}

func TestActivityDetailWithoutStreams(t *testing.T) {
	st := newTestStore(t)
	q := newTestQuery(st, fixedStreams{err: errors.New("offline")})
	seed(t, st, record(1, testNow.AddDate(0, 0, -1), 5000, 20, 0))

	d, err := q.ActivityDetail(context.Background(), 1)
	require.NoError(t, err)
	assert.Error(t, d.SegmentErr)
	assert.Empty(t, d.Segments)
	assert.Nil(t, d.BestMatch)

	// stored streams without distance
	q.streams = nil
	d, err = q.ActivityDetail(context.Background(), 1)
	require.NoError(t, err)
	assert.ErrorIs(t, d.SegmentErr, analysis.ErrNoDistanceStream)
}
