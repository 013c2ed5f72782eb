package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const goalColumns = `id, athlete_id, name, race_date, distance_km, elevation_m, race_type,
	estimated_time_hours, pace_estimation, elevation_penalty, created_at`

// SaveGoal inserts a new race goal. The caller assigns ID.
func (s *Store) SaveGoal(g *RaceGoal) error {
	if g.ID == "" {
		return errors.New("race goal without id")
	}
	_, err := s.db.Exec(`
		INSERT INTO race_goals (`+goalColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, g.ID, g.AthleteID, g.Name, g.Date.Format(time.DateOnly), g.DistanceKm, g.ElevationM,
		string(g.RaceType), g.EstimatedTimeHours, g.PaceEstimation, g.ElevationPenalty,
		g.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting race goal: %w", err)
	}
	return nil
}

// GetGoal returns one goal of an athlete
func (s *Store) GetGoal(athleteID int64, id string) (*RaceGoal, error) {
	row := s.db.QueryRow(`SELECT `+goalColumns+` FROM race_goals WHERE athlete_id = ? AND id = ?`, athleteID, id)
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGoalNotFound
	}
	return g, err
}

// ListGoals returns an athlete's goals ordered by race date
func (s *Store) ListGoals(athleteID int64) ([]RaceGoal, error) {
	rows, err := s.db.Query(`
		SELECT `+goalColumns+` FROM race_goals
		WHERE athlete_id = ?
		ORDER BY race_date, created_at
	`, athleteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []RaceGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

// UpdateGoal overwrites the editable fields of an existing goal
func (s *Store) UpdateGoal(g *RaceGoal) error {
	result, err := s.db.Exec(`
		UPDATE race_goals SET
			name = ?, race_date = ?, distance_km = ?, elevation_m = ?, race_type = ?,
			estimated_time_hours = ?, pace_estimation = ?, elevation_penalty = ?
		WHERE athlete_id = ? AND id = ?
	`, g.Name, g.Date.Format(time.DateOnly), g.DistanceKm, g.ElevationM, string(g.RaceType),
		g.EstimatedTimeHours, g.PaceEstimation, g.ElevationPenalty, g.AthleteID, g.ID)
	if err != nil {
		return fmt.Errorf("updating race goal: %w", err)
	}
	return expectOneRow(result, ErrGoalNotFound)
}

// DeleteGoal removes a goal
func (s *Store) DeleteGoal(athleteID int64, id string) error {
	result, err := s.db.Exec(`DELETE FROM race_goals WHERE athlete_id = ? AND id = ?`, athleteID, id)
	if err != nil {
		return fmt.Errorf("deleting race goal: %w", err)
	}
	return expectOneRow(result, ErrGoalNotFound)
}

func expectOneRow(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func scanGoal(row scanner) (*RaceGoal, error) {
	var g RaceGoal
	var date, created, raceType string
	err := row.Scan(&g.ID, &g.AthleteID, &g.Name, &date, &g.DistanceKm, &g.ElevationM, &raceType,
		&g.EstimatedTimeHours, &g.PaceEstimation, &g.ElevationPenalty, &created)
	if err != nil {
		return nil, err
	}
	g.RaceType = RaceType(raceType)

	if g.Date, err = time.Parse(time.DateOnly, date); err != nil {
		return nil, fmt.Errorf("parsing race_date %q: %w", date, err)
	}
	if g.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return nil, fmt.Errorf("parsing created_at %q: %w", created, err)
	}
	return &g, nil
}
