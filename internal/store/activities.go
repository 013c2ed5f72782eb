package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"trailrunner/internal/activity"
)

// startDateLayout stores the zone-less start instant
const startDateLayout = "2006-01-02T15:04:05"

const activityColumns = `id, athlete_id, name, type, start_date, distance, moving_time, elapsed_time,
	total_elevation_gain, average_speed, max_speed, average_heartrate, max_heartrate, suffer_score`

// UpsertActivities inserts or updates records in one transaction
func (s *Store) UpsertActivities(records []activity.Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO activities (` + activityColumns + `, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			start_date = excluded.start_date,
			distance = excluded.distance,
			moving_time = excluded.moving_time,
			elapsed_time = excluded.elapsed_time,
			total_elevation_gain = excluded.total_elevation_gain,
			average_speed = excluded.average_speed,
			max_speed = excluded.max_speed,
			average_heartrate = excluded.average_heartrate,
			max_heartrate = excluded.max_heartrate,
			suffer_score = excluded.suffer_score,
			updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.Exec(
			r.ID, r.AthleteID, r.Name, r.Type, r.StartDate.Format(startDateLayout),
			r.DistanceM, r.MovingTimeS, r.ElapsedTimeS, r.ElevationGainM,
			r.AverageSpeedMps, r.MaxSpeedMps, r.AverageHeartrate, r.MaxHeartrate, r.SufferScore,
		)
		if err != nil {
			return fmt.Errorf("upserting activity %d: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

// GetActivity returns one activity by id
func (s *Store) GetActivity(id int64) (activity.Record, error) {
	row := s.db.QueryRow(`SELECT `+activityColumns+` FROM activities WHERE id = ?`, id)
	r, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return activity.Record{}, ErrActivityNotFound
	}
	return r, err
}

// ListActivities returns the athlete's activities starting in [from, to),
// oldest first. Zero bounds are open.
func (s *Store) ListActivities(athleteID int64, from, to time.Time) ([]activity.Record, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE athlete_id = ?`
	args := []any{athleteID}
	if !from.IsZero() {
		query += ` AND start_date >= ?`
		args = append(args, from.Format(startDateLayout))
	}
	if !to.IsZero() {
		query += ` AND start_date < ?`
		args = append(args, to.Format(startDateLayout))
	}
	query += ` ORDER BY start_date`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []activity.Record
	for rows.Next() {
		r, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// CountActivities returns the number of stored activities of an athlete
func (s *Store) CountActivities(athleteID int64) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM activities WHERE athlete_id = ?`, athleteID).Scan(&n)
	return n, err
}

// LatestStartDate returns the newest stored start date, zero if none
func (s *Store) LatestStartDate(athleteID int64) (time.Time, error) {
	var v sql.NullString
	err := s.db.QueryRow(`SELECT MAX(start_date) FROM activities WHERE athlete_id = ?`, athleteID).Scan(&v)
	if err != nil || !v.Valid {
		return time.Time{}, err
	}
	return time.Parse(startDateLayout, v.String)
}

type scanner interface {
	Scan(dest ...any) error
}

// scanActivity reads one row in activityColumns order and re-derives fields
func scanActivity(row scanner) (activity.Record, error) {
	var r activity.Record
	var startDate string
	var avgHR, maxHR sql.NullFloat64
	var suffer sql.NullInt64

	err := row.Scan(
		&r.ID, &r.AthleteID, &r.Name, &r.Type, &startDate,
		&r.DistanceM, &r.MovingTimeS, &r.ElapsedTimeS, &r.ElevationGainM,
		&r.AverageSpeedMps, &r.MaxSpeedMps, &avgHR, &maxHR, &suffer,
	)
	if err != nil {
		return r, err
	}

	r.StartDate, err = time.Parse(startDateLayout, startDate)
	if err != nil {
		return r, fmt.Errorf("parsing start_date %q: %w", startDate, err)
	}
	if avgHR.Valid {
		r.AverageHeartrate = &avgHR.Float64
	}
	if maxHR.Valid {
		r.MaxHeartrate = &maxHR.Float64
	}
	if suffer.Valid {
		v := int(suffer.Int64)
		r.SufferScore = &v
	}

	return activity.Renormalize([]activity.Record{r})[0], nil
}
