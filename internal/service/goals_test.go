package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailrunner/internal/analysis"
	"trailrunner/internal/store"
)

func newTestGoals(t *testing.T) (*GoalService, *store.Store) {
	st := newTestStore(t)
	g := NewGoalService(st, newTestQuery(st, nil), testAthlete)
	g.now = func() time.Time { return testNow }
	return g, st
}

func TestGoalCreate(t *testing.T) {
	svc, _ := newTestGoals(t)

	g, err := svc.Create(GoalInput{
		Name:       "  UTMB  ",
		Date:       time.Date(2024, 8, 30, 0, 0, 0, 0, time.UTC),
		DistanceKm: 171,
		ElevationM: 10000,
		RaceType:   store.RaceUltraTrail,
	})
	require.NoError(t, err)

	_, err = uuid.Parse(g.ID)
	assert.NoError(t, err)
	assert.Equal(t, "UTMB", g.Name)
	assert.Equal(t, analysis.DefaultGoalPace, g.PaceEstimation)
	assert.Equal(t, analysis.DefaultGoalPenalty, g.ElevationPenalty)
	assert.InDelta(t, (171*6.5+100*5)/60, g.EstimatedTimeHours, 1e-9)

	goals, err := svc.List()
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, g.ID, goals[0].ID)
}

func TestGoalValidation(t *testing.T) {
	svc, _ := newTestGoals(t)
	date := testNow.AddDate(0, 2, 0)

	tests := []struct {
		name string
		in   GoalInput
	}{
		{"blank name", GoalInput{Name: " ", Date: date, DistanceKm: 10}},
		{"no date", GoalInput{Name: "x", DistanceKm: 10}},
		{"no distance", GoalInput{Name: "x", Date: date}},
		{"negative elevation", GoalInput{Name: "x", Date: date, DistanceKm: 10, ElevationM: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(tt.in)
			assert.Error(t, err)
		})
	}
}

func TestGoalUpdateDelete(t *testing.T) {
	svc, _ := newTestGoals(t)
	date := testNow.AddDate(0, 3, 0)
	g, err := svc.Create(GoalInput{Name: "Trail des Cimes", Date: date, DistanceKm: 42, ElevationM: 2500})
	require.NoError(t, err)
	assert.Equal(t, store.RaceTrail, g.RaceType)

	up, err := svc.Update(g.ID, GoalInput{Name: "Trail des Cimes", Date: date, DistanceKm: 50, ElevationM: 3000, PaceEstimation: 7})
	require.NoError(t, err)
	assert.Equal(t, g.ID, up.ID)
	assert.InDelta(t, (50*7+30*5)/60.0, up.EstimatedTimeHours, 1e-9)

	_, err = svc.Update("missing", GoalInput{Name: "x", Date: date, DistanceKm: 1})
	assert.ErrorIs(t, err, store.ErrGoalNotFound)

	require.NoError(t, svc.Delete(g.ID))
	assert.ErrorIs(t, svc.Delete(g.ID), store.ErrGoalNotFound)
}

func TestSeason(t *testing.T) {
	svc, st := newTestGoals(t)

	rep, err := svc.Season()
	require.NoError(t, err)
	assert.True(t, rep.SeasonStart.IsZero())
	assert.Empty(t, rep.Goals)

	near := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)
	far := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	_, err = svc.Create(GoalInput{Name: "Far", Date: far, DistanceKm: 80, ElevationM: 4000})
	require.NoError(t, err)
	_, err = svc.Create(GoalInput{Name: "Near", Date: near, DistanceKm: 20, ElevationM: 1000})
	require.NoError(t, err)

	seasonStart := near.AddDate(0, 0, -180)
	seed(t, st,
		record(1, seasonStart.AddDate(0, 0, -1), 30000, 2000, 0), // before the season
		record(2, seasonStart.AddDate(0, 0, 10), 20000, 1000, 0),
		record(3, testNow.AddDate(0, 0, -1), 15000, 800, 0),
	)

	rep, err = svc.Season()
	require.NoError(t, err)
	assert.True(t, rep.SeasonStart.Equal(seasonStart))
	assert.Equal(t, 2, rep.Totals.Runs)
	assert.InDelta(t, 35, rep.Totals.DistanceKm, 1e-9)

	require.Len(t, rep.Goals, 2)
	assert.Equal(t, "Near", rep.Goals[0].Goal.Name)
	assert.Equal(t, analysis.CountdownRed, rep.Goals[0].Countdown)
	assert.Equal(t, analysis.CountdownGreen, rep.Goals[1].Countdown)
	assert.InDelta(t, 35.0/60*100, rep.Goals[0].DistancePct, 1e-9, "35 km done, 60 km target")
	assert.Zero(t, rep.Goals[0].WeeklyDistanceKm, "last week before the race")
	assert.Greater(t, rep.Goals[1].WeeklyDistanceKm, 0.0)
}
