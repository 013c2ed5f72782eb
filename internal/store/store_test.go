package store

import (
	"math"
	"testing"
	"time"

	"trailrunner/internal/activity"
)

// setupTestStore opens a migrated in-memory database
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func floatPtr(v float64) *float64 { return &v }

func testRecord(id int64, start time.Time, distance float64) activity.Record {
	r := activity.Record{
		ID:               id,
		AthleteID:        123,
		Name:             "Test Run",
		Type:             "TrailRun",
		StartDate:        start,
		DistanceM:        distance,
		MovingTimeS:      3600,
		ElapsedTimeS:     3700,
		ElevationGainM:   400,
		AverageSpeedMps:  distance / 3600,
		AverageHeartrate: floatPtr(148),
	}
	return activity.Renormalize([]activity.Record{r})[0]
}

func TestUpsertAndGetActivity(t *testing.T) {
	s := setupTestStore(t)
	start := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	if err := s.UpsertActivities([]activity.Record{testRecord(1, start, 10000)}); err != nil {
		t.Fatalf("UpsertActivities() error = %v", err)
	}

	got, err := s.GetActivity(1)
	if err != nil {
		t.Fatalf("GetActivity() error = %v", err)
	}
	if !got.StartDate.Equal(start) {
		t.Errorf("StartDate = %v, want %v", got.StartDate, start)
	}
	if got.DistanceKm != 10 || math.Abs(got.GradePercent-4) > 1e-9 {
		t.Errorf("derived fields = %v km / %v%%, want 10 / 4", got.DistanceKm, got.GradePercent)
	}
	if got.AverageHeartrate == nil || *got.AverageHeartrate != 148 {
		t.Errorf("AverageHeartrate = %v, want 148", got.AverageHeartrate)
	}
	if got.MaxHeartrate != nil || got.SufferScore != nil {
		t.Error("absent optional fields should stay nil")
	}

	// update in place
	updated := testRecord(1, start, 12000)
	if err := s.UpsertActivities([]activity.Record{updated}); err != nil {
		t.Fatalf("UpsertActivities() update error = %v", err)
	}
	got, _ = s.GetActivity(1)
	if got.DistanceM != 12000 {
		t.Errorf("DistanceM after update = %v, want 12000", got.DistanceM)
	}

	if _, err := s.GetActivity(99); err != ErrActivityNotFound {
		t.Errorf("GetActivity(99) error = %v, want ErrActivityNotFound", err)
	}
}

func TestListActivitiesWindow(t *testing.T) {
	s := setupTestStore(t)
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	records := []activity.Record{
		testRecord(3, base.AddDate(0, 0, 20), 8000),
		testRecord(1, base, 10000),
		testRecord(2, base.AddDate(0, 0, 10), 15000),
	}
	if err := s.UpsertActivities(records); err != nil {
		t.Fatal(err)
	}

	all, err := s.ListActivities(123, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("ListActivities() error = %v", err)
	}
	if len(all) != 3 || all[0].ID != 1 || all[2].ID != 3 {
		t.Errorf("ListActivities() order = %+v, want oldest first", all)
	}

	window, err := s.ListActivities(123, base.AddDate(0, 0, 5), base.AddDate(0, 0, 20))
	if err != nil {
		t.Fatal(err)
	}
	if len(window) != 1 || window[0].ID != 2 {
		t.Errorf("windowed list = %+v, want only id 2", window)
	}

	other, _ := s.ListActivities(999, time.Time{}, time.Time{})
	if len(other) != 0 {
		t.Errorf("other athlete has %d activities, want 0", len(other))
	}

	latest, err := s.LatestStartDate(123)
	if err != nil || !latest.Equal(base.AddDate(0, 0, 20)) {
		t.Errorf("LatestStartDate() = %v, %v", latest, err)
	}
	if n, _ := s.CountActivities(999); n != 0 {
		t.Errorf("CountActivities(other) = %d, want 0", n)
	}
	if latest, _ := s.LatestStartDate(999); !latest.IsZero() {
		t.Errorf("LatestStartDate(other) = %v, want zero", latest)
	}
	if n, _ := s.CountActivities(123); n != 3 {
		t.Errorf("CountActivities() = %d, want 3", n)
	}
}

func TestStreamsRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	if err := s.UpsertActivities([]activity.Record{testRecord(1, time.Now().UTC().Truncate(time.Second), 5000)}); err != nil {
		t.Fatal(err)
	}

	has, err := s.HasStreams(1)
	if err != nil || has {
		t.Fatalf("HasStreams() before save = %v, %v", has, err)
	}

	points := []StreamPoint{
		{Seq: 0, TimeOffset: floatPtr(0), Distance: floatPtr(0), Altitude: floatPtr(100)},
		{Seq: 1, TimeOffset: floatPtr(10), Distance: floatPtr(35), Heartrate: floatPtr(130)},
	}
	if err := s.SaveStreams(1, points); err != nil {
		t.Fatalf("SaveStreams() error = %v", err)
	}

	got, err := s.GetStreams(1)
	if err != nil {
		t.Fatalf("GetStreams() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("GetStreams() returned %d points, want 2", len(got))
	}
	if got[0].Heartrate != nil || got[1].Altitude != nil {
		t.Error("missing samples should come back nil")
	}
	if *got[1].Distance != 35 {
		t.Errorf("Distance = %v, want 35", *got[1].Distance)
	}

	if has, _ := s.HasStreams(1); !has {
		t.Error("HasStreams() after save = false")
	}
	if _, err := s.HasStreams(42); err != ErrActivityNotFound {
		t.Errorf("HasStreams(42) error = %v, want ErrActivityNotFound", err)
	}
}

func TestActivitiesWithoutStreams(t *testing.T) {
	s := setupTestStore(t)
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	records := []activity.Record{
		testRecord(1, base, 5000),
		testRecord(2, base.AddDate(0, 0, 1), 8000),
		testRecord(3, base.AddDate(0, 0, 2), 12000),
	}
	if err := s.UpsertActivities(records); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveStreams(2, []StreamPoint{{Seq: 0, Distance: floatPtr(0)}}); err != nil {
		t.Fatal(err)
	}

	got, err := s.ActivitiesWithoutStreams(123, 10)
	if err != nil {
		t.Fatalf("ActivitiesWithoutStreams() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != 3 || got[1].ID != 1 {
		t.Errorf("ActivitiesWithoutStreams() = %v, want ids [3 1]", ids(got))
	}

	got, _ = s.ActivitiesWithoutStreams(123, 1)
	if len(got) != 1 {
		t.Errorf("limit ignored: got %d records", len(got))
	}

	// re-syncing a summary keeps the streams flag
	if err := s.UpsertActivities(records[1:2]); err != nil {
		t.Fatal(err)
	}
	if has, _ := s.HasStreams(2); !has {
		t.Error("upsert cleared streams_synced")
	}
}

func ids(records []activity.Record) []int64 {
	out := make([]int64, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestAuth(t *testing.T) {
	s := setupTestStore(t)

	if _, err := s.GetAuth(); err != ErrNoAuth {
		t.Errorf("GetAuth() error = %v, want ErrNoAuth", err)
	}
	if err := s.UpdateTokens("a", "r", time.Now()); err != ErrNoAuth {
		t.Errorf("UpdateTokens() without auth error = %v, want ErrNoAuth", err)
	}

	exp := time.Unix(1700000000, 0)
	if err := s.SaveAuth(&Auth{AthleteID: 7, AccessToken: "a1", RefreshToken: "r1", ExpiresAt: exp}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateTokens("a2", "r2", exp.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetAuth()
	if err != nil {
		t.Fatal(err)
	}
	if got.AthleteID != 7 || got.AccessToken != "a2" || !got.ExpiresAt.Equal(exp.Add(time.Hour)) {
		t.Errorf("GetAuth() = %+v", got)
	}
}

func TestSyncState(t *testing.T) {
	s := setupTestStore(t)

	last, err := s.LastSync()
	if err != nil || !last.IsZero() {
		t.Fatalf("LastSync() = %v, %v, want zero", last, err)
	}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := s.SetLastSync(now); err != nil {
		t.Fatal(err)
	}
	last, err = s.LastSync()
	if err != nil || !last.Equal(now) {
		t.Errorf("LastSync() = %v, %v, want %v", last, err, now)
	}
}
