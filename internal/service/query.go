package service

import (
	"fmt"
	"strings"

	"runcoach/internal/analysis"
	"runcoach/internal/store"
)

// QueryService provides read-only queries for the TUI
type QueryService struct {
	store *store.DB
}

// NewQueryService creates a new query service
func NewQueryService(db *store.DB) *QueryService {
	return &QueryService{store: db}
}

// SessionRow is one evaluated session in the sessions list
type SessionRow struct {
	Activity   store.Activity
	Evaluation store.SessionEvaluation
	Duration   string
	Label      string // score grade of the overall score
}

// Sessions returns the most recent evaluated sessions, newest first
func (q *QueryService) Sessions(limit int) ([]SessionRow, error) {
	activities, evals, err := q.store.ListEvaluatedActivities(limit)
	if err != nil {
		return nil, fmt.Errorf("loading sessions: %w", err)
	}

	rows := make([]SessionRow, len(activities))
	for i := range activities {
		rows[i] = SessionRow{
			Activity:   activities[i],
			Evaluation: evals[i],
			Duration:   formatDuration(activities[i].MovingTime),
			Label:      analysis.ScoreLabel(evals[i].Overall),
		}
	}
	return rows, nil
}

// Trend is the score history of interval sessions, oldest first
type Trend struct {
	Dates     []string
	Execution []float64
	Overall   []float64
}

// ExecutionTrend returns up to limit of the latest progress points.
// An empty intent includes every intent.
func (q *QueryService) ExecutionTrend(intent string, limit int) (*Trend, error) {
	points, err := q.store.ListProgressPoints(intent)
	if err != nil {
		return nil, fmt.Errorf("loading progress points: %w", err)
	}
	if limit > 0 && len(points) > limit {
		points = points[len(points)-limit:]
	}

	t := &Trend{
		Dates:     make([]string, len(points)),
		Execution: make([]float64, len(points)),
		Overall:   make([]float64, len(points)),
	}
	for i, p := range points {
		t.Dates[i] = p.Date
		t.Execution[i] = float64(p.ExecutionScore)
		t.Overall[i] = float64(p.OverallScore)
	}
	return t, nil
}

// SessionDetail is everything shown for a single session
type SessionDetail struct {
	Activity   store.Activity
	Evaluation store.SessionEvaluation
	Stats      StreamStats
	Notes      []string
	Delta      *analysis.ProgressDelta
	HRData     []float64 // bpm per sample, 0 when missing
	PaceData   []float64 // min/km per sample, 0 when stopped
}

// GetSessionDetail loads one evaluated session with its stream summary and
// the change against the previous session of the same intent
func (q *QueryService) GetSessionDetail(activityID string) (*SessionDetail, error) {
	activity, err := q.store.GetActivity(activityID)
	if err != nil {
		return nil, err
	}
	eval, err := q.store.GetSessionEvaluation(activityID)
	if err != nil {
		return nil, err
	}
	streams, err := q.store.GetStreams(activityID)
	if err != nil {
		return nil, fmt.Errorf("loading streams: %w", err)
	}

	d := &SessionDetail{
		Activity:   *activity,
		Evaluation: *eval,
		Stats:      AggregateStreamStats(streams),
	}
	for _, p := range streams {
		hr := 0.0
		if isValidHeartrate(p.Heartrate) {
			hr = float64(*p.Heartrate)
		}
		pace := 0.0
		if p.VelocitySmooth != nil && *p.VelocitySmooth > MinSpeedForPace {
			pace = 1000 / *p.VelocitySmooth / 60
		}
		d.HRData = append(d.HRData, hr)
		d.PaceData = append(d.PaceData, pace)
	}
	if eval.Notes != "" {
		d.Notes = strings.Split(eval.Notes, "; ")
	}

	history, err := q.store.ListProgressPoints(eval.PlannedIntent)
	if err != nil {
		return nil, fmt.Errorf("loading progress points: %w", err)
	}
	for _, p := range history {
		if p.ActivityID == activityID {
			d.Delta = analysis.CompareProgress(history, p)
		}
	}
	return d, nil
}
