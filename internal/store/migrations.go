package store

import "database/sql"

// migrate runs all database migrations
func migrate(db *sql.DB) error {
	migrations := []string{
		// Activities (summary data from /athlete/{id}/activities)
		`CREATE TABLE IF NOT EXISTS activities (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			start_date_local TEXT NOT NULL,
			distance REAL NOT NULL,
			moving_time INTEGER NOT NULL,
			elapsed_time INTEGER NOT NULL,
			average_speed REAL,
			average_heartrate REAL,
			max_heartrate REAL,
			average_cadence REAL,
			training_load REAL,
			has_heartrate INTEGER NOT NULL,
			streams_synced INTEGER DEFAULT 0,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_activities_start_date ON activities(start_date_local)`,

		// Streams (second-by-second data from /activity/{id}/streams)
		`CREATE TABLE IF NOT EXISTS streams (
			activity_id TEXT NOT NULL,
			time_offset INTEGER NOT NULL,
			velocity_smooth REAL,
			heartrate INTEGER,
			cadence INTEGER,
			grade_smooth REAL,
			distance REAL,
			PRIMARY KEY (activity_id, time_offset),
			FOREIGN KEY (activity_id) REFERENCES activities(id) ON DELETE CASCADE
		)`,

		// Session evaluations (one per interval activity)
		`CREATE TABLE IF NOT EXISTS session_evaluations (
			activity_id TEXT PRIMARY KEY,
			planned_intent TEXT NOT NULL,
			classified_intent TEXT NOT NULL,
			execution INTEGER NOT NULL,
			dose INTEGER NOT NULL,
			strain INTEGER NOT NULL,
			intent_match INTEGER NOT NULL,
			overall INTEGER NOT NULL,
			rep_count INTEGER NOT NULL,
			pace_cv REAL,
			fade_pct REAL,
			avg_hr_frac REAL,
			cadence_drop REAL,
			hrr60_count INTEGER,
			hrr60_median REAL,
			hrr60_min REAL,
			hrr60_max REAL,
			decoupling REAL,
			notes TEXT NOT NULL DEFAULT '',
			computed_at TEXT NOT NULL,
			FOREIGN KEY (activity_id) REFERENCES activities(id) ON DELETE CASCADE
		)`,

		// Progress points (append-only history)
		`CREATE TABLE IF NOT EXISTS progress_points (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date TEXT NOT NULL,
			activity_id TEXT NOT NULL,
			planned_intent TEXT NOT NULL,
			avg_rep_sec REAL NOT NULL,
			quality_volume_m REAL NOT NULL,
			efficiency_ratio REAL,
			execution_score INTEGER NOT NULL,
			overall_score INTEGER NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_progress_points_intent ON progress_points(planned_intent, date)`,

		// One point per activity; keep the latest from databases written before the index
		`DELETE FROM progress_points WHERE id NOT IN (
			SELECT MAX(id) FROM progress_points GROUP BY activity_id
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_progress_points_activity ON progress_points(activity_id)`,

		// Learning events (coaching decisions and their outcomes)
		`CREATE TABLE IF NOT EXISTS learning_events (
			id TEXT PRIMARY KEY,
			day TEXT NOT NULL,
			arm TEXT NOT NULL,
			outcome TEXT NOT NULL,
			context_key TEXT NOT NULL,
			learning_eligible INTEGER NOT NULL,
			policy_reason TEXT NOT NULL DEFAULT '',
			created_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_learning_events_day ON learning_events(day)`,
		`CREATE INDEX IF NOT EXISTS idx_learning_events_context ON learning_events(context_key)`,

		// Daily wellness
		`CREATE TABLE IF NOT EXISTS wellness (
			date TEXT PRIMARY KEY,
			hrv REAL,
			resting_hr REAL,
			sleep_hours REAL,
			stress INTEGER,
			sick INTEGER NOT NULL DEFAULT 0,
			injured INTEGER NOT NULL DEFAULT 0
		)`,

		// Sync State (key-value store for sync tracking)
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
