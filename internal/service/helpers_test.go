package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"trailrunner/internal/activity"
	"trailrunner/internal/analysis"
	"trailrunner/internal/store"
	"trailrunner/internal/strava"
)

const testAthlete = int64(7)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func fptr(v float64) *float64 { return &v }

func payload(id int64, typ string, start time.Time, distM, elevM, avgHR float64) strava.Activity {
	a := strava.Activity{
		ID:                 id,
		Athlete:            strava.Athlete{ID: testAthlete},
		Name:               "Run " + typ,
		Type:               typ,
		StartDate:          start,
		StartDateLocal:     start,
		Distance:           fptr(distM),
		MovingTime:         int(distM / 1000 * 360), // 6:00/km
		ElapsedTime:        int(distM / 1000 * 380),
		TotalElevationGain: fptr(elevM),
		AverageSpeed:       1000.0 / 360,
	}
	if avgHR > 0 {
		a.AverageHeartrate = fptr(avgHR)
		a.HasHeartrate = true
	}
	return a
}

func record(id int64, start time.Time, distM, elevM, avgHR float64) activity.Record {
	return activity.FromPayload(payload(id, "Run", start, distM, elevM, avgHR))
}

func seed(t *testing.T, st *store.Store, records ...activity.Record) {
	t.Helper()
	require.NoError(t, st.UpsertActivities(records))
}

func sampleStreams() *strava.Streams {
	return &strava.Streams{
		Time:      &strava.StreamData[int]{Data: []int{0, 300, 600, 900}},
		Distance:  &strava.StreamData[float64]{Data: []float64{0, 900, 1800, 2500}},
		Altitude:  &strava.StreamData[float64]{Data: []float64{100, 120, 150, 140}},
		Heartrate: &strava.StreamData[int]{Data: []int{120, 140, 150, 155}},
	}
}

// fakeSource is an in-memory ActivitySource
type fakeSource struct {
	mu          sync.Mutex
	activities  []strava.Activity
	fetchErr    error
	streamErrs  map[int64]error
	streamCalls int
	windows     []strava.Window
}

func (f *fakeSource) FetchActivities(ctx context.Context, w strava.Window, maxPages, perPage int, onProgress func(int)) ([]strava.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.windows = append(f.windows, w)
	if onProgress != nil {
		onProgress(len(f.activities))
	}
	return f.activities, f.fetchErr
}

func (f *fakeSource) GetActivityStreams(ctx context.Context, id int64) (*strava.Streams, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.streamCalls++
	if err := f.streamErrs[id]; err != nil {
		return nil, err
	}
	return sampleStreams(), nil
}

func (f *fakeSource) RateLimitStatus() (int, int) { return 100, 1000 }

// fixedStreams is a StreamSource returning the same streams for every id
type fixedStreams struct {
	streams analysis.Streams
	err     error
}

func (f fixedStreams) FetchStreams(ctx context.Context, id int64) (analysis.Streams, error) {
	return f.streams, f.err
}

func newTestQuery(st *store.Store, streams StreamSource) *QueryService {
	q := NewQueryService(st, NewActivityCache(ActivityCacheSize, time.Hour), streams, testAthlete, DefaultSettings())
	q.now = func() time.Time { return testNow }
	return q
}

// drain consumes progress updates; the returned func waits for the channel
// to close and returns everything received.
func drain(ch <-chan SyncProgress) func() []SyncProgress {
	var got []SyncProgress
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range ch {
			got = append(got, p)
		}
	}()
	return func() []SyncProgress {
		<-done
		return got
	}
}
