package store

import "fmt"

// SaveProgressPoint records the progress point of an activity and sets its ID.
// An activity has at most one point; re-evaluating it replaces the old one,
// whatever intent it was filed under.
func (db *DB) SaveProgressPoint(p *ProgressPoint) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM progress_points WHERE activity_id = ?", p.ActivityID); err != nil {
		return fmt.Errorf("deleting existing progress point: %w", err)
	}

	result, err := tx.Exec(`
		INSERT INTO progress_points (
			date, activity_id, planned_intent, avg_rep_sec, quality_volume_m,
			efficiency_ratio, execution_score, overall_score
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.Date, p.ActivityID, p.PlannedIntent, p.AvgRepSec, p.QualityVolumeM,
		p.EfficiencyRatio, p.ExecutionScore, p.OverallScore,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = id
	return tx.Commit()
}

// DeleteProgressPoint removes an activity's progress point, if any
func (db *DB) DeleteProgressPoint(activityID string) error {
	_, err := db.Exec("DELETE FROM progress_points WHERE activity_id = ?", activityID)
	return err
}

// ListProgressPoints returns the progress history in insertion order.
// An empty intent returns points of every intent.
func (db *DB) ListProgressPoints(intent string) ([]ProgressPoint, error) {
	rows, err := db.Query(`
		SELECT id, date, activity_id, planned_intent, avg_rep_sec, quality_volume_m,
			efficiency_ratio, execution_score, overall_score
		FROM progress_points
		WHERE ? = '' OR planned_intent = ?
		ORDER BY date, id
	`, intent, intent)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []ProgressPoint
	for rows.Next() {
		var p ProgressPoint
		err := rows.Scan(
			&p.ID, &p.Date, &p.ActivityID, &p.PlannedIntent, &p.AvgRepSec, &p.QualityVolumeM,
			&p.EfficiencyRatio, &p.ExecutionScore, &p.OverallScore,
		)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}

	return points, rows.Err()
}
