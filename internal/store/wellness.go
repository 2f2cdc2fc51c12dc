package store

import "database/sql"

// UpsertWellness inserts or replaces the wellness entry for a day
func (db *DB) UpsertWellness(w *WellnessDay) error {
	_, err := db.Exec(`
		INSERT INTO wellness (date, hrv, resting_hr, sleep_hours, stress, sick, injured)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			hrv = excluded.hrv,
			resting_hr = excluded.resting_hr,
			sleep_hours = excluded.sleep_hours,
			stress = excluded.stress,
			sick = excluded.sick,
			injured = excluded.injured
	`, w.Date, w.HRV, w.RestingHR, w.SleepHours, w.Stress, boolToInt(w.Sick), boolToInt(w.Injured))
	return err
}

// ListWellness returns wellness entries with from <= date <= to, oldest first.
// Dates are YYYY-MM-DD.
func (db *DB) ListWellness(from, to string) ([]WellnessDay, error) {
	rows, err := db.Query(`
		SELECT date, hrv, resting_hr, sleep_hours, stress, sick, injured
		FROM wellness
		WHERE date >= ? AND date <= ?
		ORDER BY date
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanWellness(rows)
}

func scanWellness(rows *sql.Rows) ([]WellnessDay, error) {
	var days []WellnessDay
	for rows.Next() {
		var w WellnessDay
		var sick, injured int
		if err := rows.Scan(&w.Date, &w.HRV, &w.RestingHR, &w.SleepHours, &w.Stress, &sick, &injured); err != nil {
			return nil, err
		}
		w.Sick = sick == 1
		w.Injured = injured == 1
		days = append(days, w)
	}
	return days, rows.Err()
}
