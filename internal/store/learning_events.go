package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"runcoach/internal/learning"
)

const dayLayout = "2006-01-02"

// SaveLearningEvent records a coaching decision and its outcome.
// Events are immutable once written; an event without an ID gets a new UUID.
func (db *DB) SaveLearningEvent(e *learning.Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	_, err := db.Exec(`
		INSERT INTO learning_events (
			id, day, arm, outcome, context_key, learning_eligible, policy_reason
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		e.ID, e.Day.Format(dayLayout), string(e.Arm), string(e.Outcome),
		e.ContextKey, boolToInt(e.LearningEligible), e.PolicyReason,
	)
	return err
}

// ListLearningEvents returns every event recorded on or before asOf, oldest first
func (db *DB) ListLearningEvents(asOf time.Time) ([]learning.Event, error) {
	rows, err := db.Query(`
		SELECT id, day, arm, outcome, context_key, learning_eligible, policy_reason
		FROM learning_events
		WHERE day <= ?
		ORDER BY day, id
	`, asOf.Format(dayLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []learning.Event
	for rows.Next() {
		var e learning.Event
		var day, arm, outcome string
		var eligible int

		if err := rows.Scan(&e.ID, &day, &arm, &outcome, &e.ContextKey, &eligible, &e.PolicyReason); err != nil {
			return nil, err
		}

		e.Day, err = time.Parse(dayLayout, day)
		if err != nil {
			return nil, fmt.Errorf("parsing day %q: %w", day, err)
		}
		e.Arm = learning.Arm(arm)
		e.Outcome = learning.Outcome(outcome)
		e.LearningEligible = eligible == 1

		events = append(events, e)
	}

	return events, rows.Err()
}
