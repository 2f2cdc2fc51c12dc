package analysis

import "runcoach/internal/store"

// BuildProgressPoint condenses a scored session into a trend record
func BuildProgressPoint(date, activityID string, planned Intent, s SessionScores) store.ProgressPoint {
	return store.ProgressPoint{
		Date:            date,
		ActivityID:      activityID,
		PlannedIntent:   string(planned),
		AvgRepSec:       s.AvgRepSec,
		QualityVolumeM:  s.QualityDistanceM,
		EfficiencyRatio: RepEfficiency(s.Reps),
		ExecutionScore:  s.Execution,
		OverallScore:    s.Overall,
	}
}

// ProgressDelta compares a progress point with the previous comparable one
type ProgressDelta struct {
	Previous        store.ProgressPoint
	AvgRepSec       float64
	QualityVolumeM  float64
	EfficiencyRatio *float64 // nil unless both points carry a ratio
	Execution       int
	Overall         int
}

// CompareProgress finds the most recent earlier point with the same planned
// intent and returns the change against it. Returns nil when there is none.
func CompareProgress(history []store.ProgressPoint, point store.ProgressPoint) *ProgressDelta {
	var prev *store.ProgressPoint
	for i := range history {
		h := &history[i]
		if h.ActivityID == point.ActivityID || h.PlannedIntent != point.PlannedIntent {
			continue
		}
		if h.Date > point.Date {
			continue
		}
		if prev == nil || h.Date > prev.Date || (h.Date == prev.Date && h.ID > prev.ID) {
			prev = h
		}
	}
	if prev == nil {
		return nil
	}

	d := &ProgressDelta{
		Previous:       *prev,
		AvgRepSec:      point.AvgRepSec - prev.AvgRepSec,
		QualityVolumeM: point.QualityVolumeM - prev.QualityVolumeM,
		Execution:      point.ExecutionScore - prev.ExecutionScore,
		Overall:        point.OverallScore - prev.OverallScore,
	}
	if point.EfficiencyRatio != nil && prev.EfficiencyRatio != nil {
		er := *point.EfficiencyRatio - *prev.EfficiencyRatio
		d.EfficiencyRatio = &er
	}
	return d
}
