package analysis

import (
	"testing"
	"time"

	"runcoach/internal/store"
)

// pointsFromStream converts a test Stream back into persisted points
func pointsFromStream(s Stream) []store.StreamPoint {
	points := make([]store.StreamPoint, len(s.Time))
	for i := range s.Time {
		p := store.StreamPoint{
			TimeOffset:     int(s.Time[i]),
			VelocitySmooth: floatPtr(s.VelocitySmooth[i]),
		}
		if s.Heartrate[i] != nil {
			p.Heartrate = intPtr(int(*s.Heartrate[i]))
		}
		points[i] = p
	}
	return points
}

func TestAnalyzeSession(t *testing.T) {
	work := phase{sec: 120, speed: 5.0, hrFrom: 130, hrTo: 176}
	rec := phase{sec: 120, speed: 2.0, hrFrom: 176, hrTo: 130}
	streams := pointsFromStream(buildStream(repeatPhases(4, work, rec)...))

	activity := store.Activity{ID: "i1", Distance: 6720, MovingTime: 960, AverageSpeed: 3.5}
	intervals := session(
		workRep(120, 5, 172), workRep(120, 5, 172), workRep(120, 5, 172), workRep(120, 5, 172),
	)

	tests := []struct {
		name      string
		streams   []store.StreamPoint
		wantHRR   bool
		wantDrift bool
	}{
		{name: "intervals only", streams: nil},
		{name: "with streams", streams: streams, wantHRR: true, wantDrift: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := AnalyzeSession(activity, tt.streams, intervals, IntentVO2, DoseTarget{}, DefaultEvalConfig())

			if len(a.Scores.Reps) != 4 {
				t.Errorf("reps = %d, want 4", len(a.Scores.Reps))
			}
			if got := a.Recovery.HRR60Count != nil; got != tt.wantHRR {
				t.Errorf("HRR60Count set = %v, want %v", got, tt.wantHRR)
			}
			if tt.wantHRR && *a.Recovery.HRR60Count != 4 {
				t.Errorf("HRR60Count = %d, want 4", *a.Recovery.HRR60Count)
			}
			if got := a.Drift != ""; got != tt.wantDrift {
				t.Errorf("Drift = %q, want set=%v", a.Drift, tt.wantDrift)
			}
			if tt.wantDrift && a.EfficiencyFactor == nil {
				t.Error("EfficiencyFactor should be set with streams")
			}

			now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
			ev := a.Evaluation("i1", IntentVO2, now)
			if ev.RepCount != 4 || ev.Overall != a.Scores.Overall || ev.PlannedIntent != "vo2" {
				t.Errorf("Evaluation() = %+v", ev)
			}
			if ev.ClassifiedIntent != string(a.Scores.Intent) || !ev.ComputedAt.Equal(now) {
				t.Errorf("Evaluation() intent/time = %s/%v", ev.ClassifiedIntent, ev.ComputedAt)
			}
		})
	}
}

func TestScoreLabel(t *testing.T) {
	tests := []struct {
		score    int
		expected string
	}{
		{100, "Excellent"},
		{85, "Excellent"},
		{84, "Good"},
		{70, "Good"},
		{50, "Fair"},
		{49, "Poor"},
		{0, "Poor"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := ScoreLabel(tt.score); got != tt.expected {
				t.Errorf("ScoreLabel(%d) = %q, want %q", tt.score, got, tt.expected)
			}
		})
	}
}

func TestDecouplingAssessment(t *testing.T) {
	tests := []struct {
		decoupling float64
		expected   string
	}{
		{2, "Excellent aerobic base"},
		{4, "Good aerobic fitness"},
		{6, "Developing aerobic base"},
		{10, "Needs more easy miles"},
		{15, "Aerobic system needs work"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := DecouplingAssessment(tt.decoupling); got != tt.expected {
				t.Errorf("DecouplingAssessment(%v) = %q, want %q", tt.decoupling, got, tt.expected)
			}
		})
	}
}
