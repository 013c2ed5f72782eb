package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailrunner/internal/store"
	"trailrunner/internal/strava"
)

func newTestSync(st *store.Store, src *fakeSource) *SyncService {
	s := NewSyncService(src, st, NewActivityCache(ActivityCacheSize, time.Hour), testAthlete, SyncOptions{
		MaxPages: 3, PerPage: 50, HistoryDays: 30,
	})
	s.now = func() time.Time { return testNow }
	return s
}

func TestSyncAll(t *testing.T) {
	st := newTestStore(t)
	day := testNow.AddDate(0, 0, -3)
	src := &fakeSource{activities: []strava.Activity{
		payload(1, "Run", day, 10000, 300, 150),
		payload(2, "TrailRun", day.AddDate(0, 0, 1), 15000, 800, 0),
		payload(3, "Ride", day.AddDate(0, 0, 1), 40000, 500, 130),
		payload(4, "Trail", day.AddDate(0, 0, 2), 8000, 450, 140),
	}}
	s := newTestSync(st, src)

	progress := make(chan SyncProgress, 4)
	wait := drain(progress)
	res, err := s.SyncAll(context.Background(), progress)
	require.NoError(t, err)
	require.NoError(t, res.Err())

	assert.Equal(t, 4, res.ActivitiesFetched)
	assert.Equal(t, 3, res.ActivitiesStored)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 3, res.StreamsFetched)
	assert.Equal(t, testNow.AddDate(0, 0, -30), res.Since)
	require.Len(t, src.windows, 1)
	assert.Equal(t, testNow.AddDate(0, 0, -30), src.windows[0].After)

	updates := wait()
	require.NotEmpty(t, updates)
	last := updates[len(updates)-1]
	assert.Equal(t, PhaseStreams, last.Phase)
	assert.Equal(t, last.Total, last.Completed)

	n, err := st.CountActivities(testAthlete)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	synced, err := st.LastSync()
	require.NoError(t, err)
	assert.True(t, synced.Equal(testNow))

	// the next sync starts from the recorded time and finds no new streams
	res, err = s.SyncAll(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, src.windows, 2)
	assert.True(t, src.windows[1].After.Equal(testNow))
	assert.Equal(t, 0, res.StreamsFetched)
	assert.Equal(t, 3, src.streamCalls)
}

func TestSyncAllKeepsPartialFetch(t *testing.T) {
	st := newTestStore(t)
	src := &fakeSource{
		activities: []strava.Activity{payload(1, "Run", testNow.AddDate(0, 0, -1), 5000, 50, 0)},
		fetchErr:   errors.New("page 2: 500"),
	}
	s := newTestSync(st, src)

	res, err := s.SyncAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.ActivitiesStored)
	require.Error(t, res.Err())
	assert.Contains(t, res.Err().Error(), "page 2")

	synced, err := st.LastSync()
	require.NoError(t, err)
	assert.True(t, synced.IsZero(), "a failed fetch must not advance the sync time")
}

func TestSyncAllPageCeilingResumes(t *testing.T) {
	st := newTestStore(t)
	day := testNow.AddDate(0, 0, -10)
	src := &fakeSource{activities: []strava.Activity{
		payload(1, "Run", day, 5000, 50, 0),
		payload(2, "Run", day.AddDate(0, 0, 2), 6000, 60, 0),
	}}
	s := NewSyncService(src, st, nil, testAthlete, SyncOptions{MaxPages: 1, PerPage: 2, HistoryDays: 30})
	s.now = func() time.Time { return testNow }

	res, err := s.SyncAll(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, res.Truncated)

	synced, err := st.LastSync()
	require.NoError(t, err)
	assert.True(t, synced.Equal(day.AddDate(0, 0, 2)), "sync time = %v, want newest fetched start", synced)

	src.activities = src.activities[:1]
	res, err = s.SyncAll(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, res.Truncated)
	require.Len(t, src.windows, 2)
	assert.True(t, src.windows[1].After.Equal(day.AddDate(0, 0, 2)))
}

func TestSyncStreamsErrors(t *testing.T) {
	st := newTestStore(t)
	day := testNow.AddDate(0, 0, -5)
	src := &fakeSource{
		activities: []strava.Activity{
			payload(1, "Run", day, 5000, 50, 0),
			payload(2, "Run", day.AddDate(0, 0, 1), 6000, 60, 0),
			payload(3, "Run", day.AddDate(0, 0, 2), 7000, 70, 0),
		},
		streamErrs: map[int64]error{3: &strava.APIError{Status: 404, Body: "not found"}},
	}
	s := newTestSync(st, src)

	res, err := s.SyncAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.StreamsFetched)
	require.Len(t, res.Errors, 1)
	var apiErr *strava.APIError
	assert.ErrorAs(t, res.Err(), &apiErr)
}

func TestSyncStreamsStopOnDailyQuota(t *testing.T) {
	st := newTestStore(t)
	day := testNow.AddDate(0, 0, -5)
	src := &fakeSource{
		activities: []strava.Activity{
			payload(1, "Run", day, 5000, 50, 0),
			payload(2, "Run", day.AddDate(0, 0, 1), 6000, 60, 0),
			payload(3, "Run", day.AddDate(0, 0, 2), 7000, 70, 0),
		},
		// newest first, so activity 3 is tried first
		streamErrs: map[int64]error{3: strava.ErrDailyQuota},
	}
	s := newTestSync(st, src)

	res, err := s.SyncAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.StreamsFetched)
	assert.Equal(t, 1, src.streamCalls)
	assert.ErrorIs(t, res.Err(), strava.ErrDailyQuota)
}

func TestSyncAllCancelled(t *testing.T) {
	st := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &fakeSource{fetchErr: context.Canceled}

	_, err := newTestSync(st, src).SyncAll(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchStreams(t *testing.T) {
	st := newTestStore(t)
	seed(t, st, record(1, testNow.AddDate(0, 0, -1), 2500, 50, 140))
	src := &fakeSource{}
	s := newTestSync(st, src)

	got, err := s.FetchStreams(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 900, 1800, 2500}, got.DistanceM)
	assert.Equal(t, []float64{120, 140, 150, 155}, got.Heartrate)
	assert.Nil(t, got.SpeedMps, "missing stream stays nil")
	assert.Equal(t, 1, src.streamCalls)

	again, err := s.FetchStreams(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, got, again)
	assert.Equal(t, 1, src.streamCalls, "second call is served from the store")

	_, err = s.FetchStreams(context.Background(), 99)
	assert.ErrorIs(t, err, store.ErrActivityNotFound)
}

func TestConvertStreams(t *testing.T) {
	s := sampleStreams()
	s.LatLng = &strava.StreamData[[2]float64]{Data: [][2]float64{{45, 6}, {45.1, 6.1}}}

	points := convertStreams(s)
	require.Len(t, points, 4)
	assert.Equal(t, 3, points[3].Seq)
	assert.Equal(t, 45.1, *points[1].Lat)
	assert.Nil(t, points[2].Lat)
	assert.Equal(t, 300.0, *points[1].TimeOffset)

	assert.Nil(t, convertStreams(&strava.Streams{}))

	analysed := toAnalysisStreams(points)
	assert.Len(t, analysed.AltitudeM, 4)
	assert.Nil(t, analysed.SpeedMps)
}
