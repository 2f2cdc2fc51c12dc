package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const evaluationColumns = `activity_id, planned_intent, classified_intent,
			execution, dose, strain, intent_match, overall, rep_count,
			pace_cv, fade_pct, avg_hr_frac, cadence_drop,
			hrr60_count, hrr60_median, hrr60_min, hrr60_max, decoupling,
			notes, computed_at`

// SaveSessionEvaluation stores the scored outcome of an activity, replacing any previous one
func (db *DB) SaveSessionEvaluation(e *SessionEvaluation) error {
	_, err := db.Exec(`
		INSERT INTO session_evaluations (`+evaluationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(activity_id) DO UPDATE SET
			planned_intent = excluded.planned_intent,
			classified_intent = excluded.classified_intent,
			execution = excluded.execution,
			dose = excluded.dose,
			strain = excluded.strain,
			intent_match = excluded.intent_match,
			overall = excluded.overall,
			rep_count = excluded.rep_count,
			pace_cv = excluded.pace_cv,
			fade_pct = excluded.fade_pct,
			avg_hr_frac = excluded.avg_hr_frac,
			cadence_drop = excluded.cadence_drop,
			hrr60_count = excluded.hrr60_count,
			hrr60_median = excluded.hrr60_median,
			hrr60_min = excluded.hrr60_min,
			hrr60_max = excluded.hrr60_max,
			decoupling = excluded.decoupling,
			notes = excluded.notes,
			computed_at = excluded.computed_at
	`,
		e.ActivityID, e.PlannedIntent, e.ClassifiedIntent,
		e.Execution, e.Dose, e.Strain, e.IntentMatch, e.Overall, e.RepCount,
		e.PaceCV, e.FadePct, e.AvgHRFrac, e.CadenceDrop,
		e.HRR60Count, e.HRR60Median, e.HRR60Min, e.HRR60Max, e.Decoupling,
		e.Notes, e.ComputedAt.Format(time.RFC3339),
	)
	return err
}

// GetSessionEvaluation retrieves the evaluation stored for an activity
func (db *DB) GetSessionEvaluation(activityID string) (*SessionEvaluation, error) {
	row := db.QueryRow(`SELECT `+evaluationColumns+` FROM session_evaluations WHERE activity_id = ?`, activityID)

	e, err := scanEvaluation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEvaluationNotFound
	}
	return e, err
}

// ListEvaluatedActivities returns activities joined with their evaluations, newest first
func (db *DB) ListEvaluatedActivities(limit int) ([]Activity, []SessionEvaluation, error) {
	rows, err := db.Query(`
		SELECT a.id
		FROM activities a
		JOIN session_evaluations e ON e.activity_id = a.id
		ORDER BY a.start_date_local DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, nil, err
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	activities := make([]Activity, 0, len(ids))
	evaluations := make([]SessionEvaluation, 0, len(ids))
	for _, id := range ids {
		a, err := db.GetActivity(id)
		if err != nil {
			return nil, nil, fmt.Errorf("loading activity %s: %w", id, err)
		}
		e, err := db.GetSessionEvaluation(id)
		if err != nil {
			return nil, nil, fmt.Errorf("loading evaluation %s: %w", id, err)
		}
		activities = append(activities, *a)
		evaluations = append(evaluations, *e)
	}

	return activities, evaluations, nil
}

func scanEvaluation(row rowScanner) (*SessionEvaluation, error) {
	var e SessionEvaluation
	var computedAt string

	err := row.Scan(
		&e.ActivityID, &e.PlannedIntent, &e.ClassifiedIntent,
		&e.Execution, &e.Dose, &e.Strain, &e.IntentMatch, &e.Overall, &e.RepCount,
		&e.PaceCV, &e.FadePct, &e.AvgHRFrac, &e.CadenceDrop,
		&e.HRR60Count, &e.HRR60Median, &e.HRR60Min, &e.HRR60Max, &e.Decoupling,
		&e.Notes, &computedAt,
	)
	if err != nil {
		return nil, err
	}

	e.ComputedAt, err = time.Parse(time.RFC3339, computedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing computed_at %q: %w", computedAt, err)
	}
	return &e, nil
}
