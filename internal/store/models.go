package store

import "time"

// Activity represents an intervals.icu activity summary
type Activity struct {
	ID               string    `db:"id"` // e.g. "i12345678"
	Name             string    `db:"name"`
	Type             string    `db:"type"`
	StartDateLocal   time.Time `db:"start_date_local"`
	Distance         float64   `db:"distance"`     // meters
	MovingTime       int       `db:"moving_time"`  // seconds
	ElapsedTime      int       `db:"elapsed_time"` // seconds
	AverageSpeed     float64   `db:"average_speed"`
	AverageHeartrate *float64  `db:"average_heartrate"` // nullable
	MaxHeartrate     *float64  `db:"max_heartrate"`     // nullable
	AverageCadence   *float64  `db:"average_cadence"`   // nullable
	TrainingLoad     *float64  `db:"training_load"`     // icu_training_load, nullable
	HasHeartrate     bool      `db:"has_heartrate"`
	StreamsSynced    bool      `db:"streams_synced"`
}

// StreamPoint represents a single data point from activity streams
type StreamPoint struct {
	ActivityID     string   `db:"activity_id"`
	TimeOffset     int      `db:"time_offset"`     // seconds
	VelocitySmooth *float64 `db:"velocity_smooth"` // m/s
	Heartrate      *int     `db:"heartrate"`       // bpm
	Cadence        *int     `db:"cadence"`         // spm
	GradeSmooth    *float64 `db:"grade_smooth"`    // percent
	Distance       *float64 `db:"distance"`        // cumulative meters
}

// SessionEvaluation is the persisted outcome of scoring one interval session
type SessionEvaluation struct {
	ActivityID       string    `db:"activity_id"`
	PlannedIntent    string    `db:"planned_intent"`
	ClassifiedIntent string    `db:"classified_intent"`
	Execution        int       `db:"execution"`
	Dose             int       `db:"dose"`
	Strain           int       `db:"strain"`
	IntentMatch      int       `db:"intent_match"`
	Overall          int       `db:"overall"`
	RepCount         int       `db:"rep_count"`
	PaceCV           *float64  `db:"pace_cv"`
	FadePct          *float64  `db:"fade_pct"`
	AvgHRFrac        *float64  `db:"avg_hr_frac"`
	CadenceDrop      *float64  `db:"cadence_drop"`
	HRR60Count       *int      `db:"hrr60_count"`
	HRR60Median      *float64  `db:"hrr60_median"`
	HRR60Min         *float64  `db:"hrr60_min"`
	HRR60Max         *float64  `db:"hrr60_max"`
	Decoupling       *float64  `db:"decoupling"`
	Notes            string    `db:"notes"` // "; " separated
	ComputedAt       time.Time `db:"computed_at"`
}

// ProgressPoint is a compact per-activity summary kept for trend comparison.
// Rows are append-only.
type ProgressPoint struct {
	ID              int64    `db:"id"`
	Date            string   `db:"date"` // YYYY-MM-DD
	ActivityID      string   `db:"activity_id"`
	PlannedIntent   string   `db:"planned_intent"`
	AvgRepSec       float64  `db:"avg_rep_sec"`
	QualityVolumeM  float64  `db:"quality_volume_m"`
	EfficiencyRatio *float64 `db:"efficiency_ratio"`
	ExecutionScore  int      `db:"execution_score"`
	OverallScore    int      `db:"overall_score"`
}

// WellnessDay holds the daily wellness entry used to derive learning signals
type WellnessDay struct {
	Date       string   `db:"date"` // YYYY-MM-DD
	HRV        *float64 `db:"hrv"`  // rMSSD ms
	RestingHR  *float64 `db:"resting_hr"`
	SleepHours *float64 `db:"sleep_hours"`
	Stress     *int     `db:"stress"` // 1 (low) .. 4 (extreme)
	Sick       bool     `db:"sick"`
	Injured    bool     `db:"injured"`
}
