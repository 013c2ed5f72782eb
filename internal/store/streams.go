package store

import (
	"database/sql"
	"fmt"

	"trailrunner/internal/activity"
)

// SaveStreams replaces the stream samples of an activity and marks it synced
func (s *Store) SaveStreams(activityID int64, points []StreamPoint) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM streams WHERE activity_id = ?", activityID); err != nil {
		return fmt.Errorf("deleting existing streams: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO streams (
			activity_id, seq, time_offset, distance, altitude,
			velocity_smooth, heartrate, lat, lng
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		_, err := stmt.Exec(
			activityID, p.Seq, p.TimeOffset, p.Distance, p.Altitude,
			p.VelocitySmooth, p.Heartrate, p.Lat, p.Lng,
		)
		if err != nil {
			return fmt.Errorf("inserting stream point: %w", err)
		}
	}

	if _, err := tx.Exec("UPDATE activities SET streams_synced = 1 WHERE id = ?", activityID); err != nil {
		return fmt.Errorf("marking streams synced: %w", err)
	}

	return tx.Commit()
}

// GetStreams returns the samples of an activity in order
func (s *Store) GetStreams(activityID int64) ([]StreamPoint, error) {
	rows, err := s.db.Query(`
		SELECT seq, time_offset, distance, altitude, velocity_smooth, heartrate, lat, lng
		FROM streams
		WHERE activity_id = ?
		ORDER BY seq
	`, activityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []StreamPoint
	for rows.Next() {
		var p StreamPoint
		var t, d, alt, v, hr, lat, lng sql.NullFloat64
		if err := rows.Scan(&p.Seq, &t, &d, &alt, &v, &hr, &lat, &lng); err != nil {
			return nil, err
		}
		p.TimeOffset = nullable(t)
		p.Distance = nullable(d)
		p.Altitude = nullable(alt)
		p.VelocitySmooth = nullable(v)
		p.Heartrate = nullable(hr)
		p.Lat = nullable(lat)
		p.Lng = nullable(lng)
		points = append(points, p)
	}
	return points, rows.Err()
}

// HasStreams reports whether streams were stored for an activity
func (s *Store) HasStreams(activityID int64) (bool, error) {
	var synced int
	err := s.db.QueryRow(`SELECT streams_synced FROM activities WHERE id = ?`, activityID).Scan(&synced)
	if err == sql.ErrNoRows {
		return false, ErrActivityNotFound
	}
	if err != nil {
		return false, err
	}
	return synced == 1, nil
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// ActivitiesWithoutStreams returns up to limit of the athlete's activities
// whose streams were never stored, newest first.
func (s *Store) ActivitiesWithoutStreams(athleteID int64, limit int) ([]activity.Record, error) {
	rows, err := s.db.Query(`SELECT `+activityColumns+` FROM activities
		WHERE athlete_id = ? AND streams_synced = 0
		ORDER BY start_date DESC
		LIMIT ?`, athleteID, limit)
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
