package analysis

import (
	"strings"
	"time"

	"runcoach/internal/store"
)

// SessionAnalysis bundles everything computed for one activity
type SessionAnalysis struct {
	Scores           SessionScores
	Recovery         RecoveryMetrics
	Decoupling       *float64
	CardiacDrift     *float64
	EfficiencyFactor *float64
	Drift            string // green, orange, red; empty without streams
}

// AnalyzeSession scores the intervals and, when streams are present, adds
// heart rate recovery and drift metrics.
func AnalyzeSession(activity store.Activity, streams []store.StreamPoint, intervals []ICUInterval,
	planned Intent, dose DoseTarget, cfg EvalConfig) SessionAnalysis {
	a := SessionAnalysis{
		Scores: EvaluateSession(intervals, planned, dose, cfg),
	}

	if len(streams) == 0 {
		return a
	}

	a.Recovery = ComputeRecoveryMetrics(StreamFromPoints(streams), RecoveryOptions{
		IntervalType:     string(planned),
		ActivityAvgSpeed: activity.AverageSpeed,
	})

	if ef := EfficiencyFactor(streams); ef > 0 {
		a.EfficiencyFactor = &ef
	}

	if d, ok := aerobicDecoupling(streams); ok {
		a.Decoupling = &d
	}
	a.Drift = DriftSignal(a.Decoupling)

	if activity.MovingTime > 0 {
		avgPace := activity.Distance / float64(activity.MovingTime) // m/s
		if drift := CardiacDrift(streams, avgPace); drift != 0 {
			a.CardiacDrift = &drift
		}
	}

	return a
}

// Evaluation flattens the analysis into its persisted form
func (a SessionAnalysis) Evaluation(activityID string, planned Intent, computedAt time.Time) store.SessionEvaluation {
	s := a.Scores
	return store.SessionEvaluation{
		ActivityID:       activityID,
		PlannedIntent:    string(planned),
		ClassifiedIntent: string(s.Intent),
		Execution:        s.Execution,
		Dose:             s.Dose,
		Strain:           s.Strain,
		IntentMatch:      s.IntentMatch,
		Overall:          s.Overall,
		RepCount:         len(s.Reps),
		PaceCV:           s.PaceCV,
		FadePct:          s.FadePct,
		AvgHRFrac:        s.AvgHRFrac,
		CadenceDrop:      s.CadenceDrop,
		HRR60Count:       a.Recovery.HRR60Count,
		HRR60Median:      a.Recovery.HRR60Median,
		HRR60Min:         a.Recovery.HRR60Min,
		HRR60Max:         a.Recovery.HRR60Max,
		Decoupling:       a.Decoupling,
		Notes:            strings.Join(s.Notes, "; "),
		ComputedAt:       computedAt,
	}
}

// DecouplingAssessment returns a human-readable decoupling assessment
func DecouplingAssessment(decoupling float64) string {
	switch {
	case decoupling < 3:
		return "Excellent aerobic base"
	case decoupling < 5:
		return "Good aerobic fitness"
	case decoupling < 8:
		return "Developing aerobic base"
	case decoupling < 12:
		return "Needs more easy miles"
	default:
		return "Aerobic system needs work"
	}
}

// ScoreLabel grades a 0-100 session score
func ScoreLabel(score int) string {
	switch {
	case score >= 85:
		return "Excellent"
	case score >= 70:
		return "Good"
	case score >= 50:
		return "Fair"
	default:
		return "Poor"
	}
}
