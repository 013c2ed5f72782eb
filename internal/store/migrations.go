package store

import "database/sql"

// migrate creates all tables; statements are idempotent
func migrate(db *sql.DB) error {
	migrations := []string{
		// Authentication (singleton row)
		`CREATE TABLE IF NOT EXISTS auth (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			athlete_id INTEGER NOT NULL,
			access_token TEXT NOT NULL,
			refresh_token TEXT NOT NULL,
			expires_at INTEGER NOT NULL,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// Normalized running activities
		`CREATE TABLE IF NOT EXISTS activities (
			id INTEGER PRIMARY KEY,
			athlete_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			start_date TEXT NOT NULL,
			distance REAL NOT NULL,
			moving_time INTEGER NOT NULL,
			elapsed_time INTEGER NOT NULL,
			total_elevation_gain REAL NOT NULL DEFAULT 0,
			average_speed REAL NOT NULL DEFAULT 0,
			max_speed REAL NOT NULL DEFAULT 0,
			average_heartrate REAL,
			max_heartrate REAL,
			suffer_score INTEGER,
			streams_synced INTEGER NOT NULL DEFAULT 0,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_activities_athlete_date ON activities(athlete_id, start_date)`,

		// Streams (one row per sample)
		`CREATE TABLE IF NOT EXISTS streams (
			activity_id INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			time_offset REAL,
			distance REAL,
			altitude REAL,
			velocity_smooth REAL,
			heartrate REAL,
			lat REAL,
			lng REAL,
			PRIMARY KEY (activity_id, seq),
			FOREIGN KEY (activity_id) REFERENCES activities(id) ON DELETE CASCADE
		)`,

		// Race goals, keyed by athlete + uuid
		`CREATE TABLE IF NOT EXISTS race_goals (
			id TEXT PRIMARY KEY,
			athlete_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			race_date TEXT NOT NULL,
			distance_km REAL NOT NULL,
			elevation_m REAL NOT NULL DEFAULT 0,
			race_type TEXT NOT NULL,
			estimated_time_hours REAL NOT NULL DEFAULT 0,
			pace_estimation REAL NOT NULL DEFAULT 0,
			elevation_penalty REAL NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_race_goals_athlete ON race_goals(athlete_id, race_date)`,

		// Sync state (key-value)
		`CREATE TABLE IF NOT EXISTS sync_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}
