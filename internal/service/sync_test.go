package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"runcoach/internal/analysis"
	"runcoach/internal/intervals"
	"runcoach/internal/store"
)

// fakeSource serves canned intervals.icu responses
type fakeSource struct {
	mu           sync.Mutex
	activities   []intervals.Activity
	intervals    map[string][]analysis.ICUInterval
	streams      map[string]intervals.Streams
	wellness     []intervals.Wellness
	intervalsErr error
	streamCalls  int
}

func (f *fakeSource) GetActivities(ctx context.Context, oldest, newest time.Time) ([]intervals.Activity, error) {
	return f.activities, nil
}

func (f *fakeSource) GetActivityIntervals(ctx context.Context, id string) ([]analysis.ICUInterval, error) {
	if f.intervalsErr != nil {
		return nil, f.intervalsErr
	}
	return f.intervals[id], nil
}

func (f *fakeSource) GetActivityStreams(ctx context.Context, id string) (intervals.Streams, error) {
	f.mu.Lock()
	f.streamCalls++
	f.mu.Unlock()
	s, ok := f.streams[id]
	if !ok {
		return nil, intervals.ErrNotFound
	}
	return s, nil
}

func (f *fakeSource) GetWellness(ctx context.Context, oldest, newest time.Time) ([]intervals.Wellness, error) {
	return f.wellness, nil
}

func openTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.OpenPath(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func floatPtr(v float64) *float64 { return &v }

func localTime(s string) intervals.LocalTime {
	t, _ := time.Parse("2006-01-02T15:04:05", s)
	return intervals.LocalTime{Time: t}
}

// vo2Session is 5 x 3 min at 4.6 m/s with 2 min jogs
func vo2Session() []analysis.ICUInterval {
	var out []analysis.ICUInterval
	for i := 0; i < 5; i++ {
		out = append(out,
			analysis.ICUInterval{
				Type: "WORK", Distance: 828, MovingTime: 180, ElapsedTime: 180,
				AverageSpeed: 4.6, AverageHeartrate: floatPtr(176),
			},
			analysis.ICUInterval{Type: "RECOVERY", Distance: 300, MovingTime: 120, AverageSpeed: 2.5},
		)
	}
	return out
}

// steadyStreams is 20 minutes of even running sampled every 10 s
func steadyStreams() intervals.Streams {
	var ts, hr, v []*float64
	for i := 0; i <= 120; i++ {
		ts = append(ts, floatPtr(float64(i*10)))
		hr = append(hr, floatPtr(150))
		v = append(v, floatPtr(3.2))
	}
	return intervals.Streams{
		{Type: "time", Data: ts},
		{Type: "heartrate", Data: hr},
		{Type: "velocity_smooth", Data: v},
	}
}

func newFixture(t *testing.T) (*SyncService, *fakeSource, *store.DB) {
	t.Helper()
	db := openTestDB(t)
	src := &fakeSource{
		activities: []intervals.Activity{
			{
				ID: "i1", Name: "5x3min VO2", Type: "Run", StartDateLocal: localTime("2024-05-07T07:00:00"),
				Distance: 9000, MovingTime: 2700, ElapsedTime: 2900, AverageSpeed: 3.33,
				AverageHeartrate: floatPtr(158),
			},
			{
				ID: "i2", Name: "Commute", Type: "Ride", StartDateLocal: localTime("2024-05-07T17:00:00"),
				Distance: 12000, MovingTime: 1800, AverageSpeed: 6.6, AverageHeartrate: floatPtr(120),
			},
		},
		intervals: map[string][]analysis.ICUInterval{"i1": vo2Session()},
		streams:   map[string]intervals.Streams{"i1": steadyStreams()},
		wellness: []intervals.Wellness{
			{ID: "2024-05-07", HRV: floatPtr(61), SleepSecs: floatPtr(7 * 3600)},
		},
	}

	s := NewSyncService(src, db, analysis.DefaultEvalConfig(), 30, zerolog.Nop())
	s.now = func() time.Time { return time.Date(2024, 5, 8, 12, 0, 0, 0, time.UTC) }
	return s, src, db
}

func TestPlannedIntentFromName(t *testing.T) {
	tests := []struct {
		name string
		want analysis.Intent
	}{
		{"5x3min VO2", analysis.IntentVO2},
		{"Tempo Tuesday", analysis.IntentThreshold},
		{"3x2k @ race pace", analysis.IntentRacepace},
		{"6x1k RP", analysis.IntentRacepace},
		{"Cruise intervals", analysis.IntentThreshold},
		{"Easy run", analysis.IntentUnknown},
		{"", analysis.IntentUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PlannedIntentFromName(tt.name); got != tt.want {
				t.Errorf("PlannedIntentFromName(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestSyncAll(t *testing.T) {
	s, src, db := newFixture(t)

	progress := make(chan SyncProgress, 100)
	result, err := s.SyncAll(context.Background(), progress)
	if err != nil {
		t.Fatalf("SyncAll: %v", err)
	}

	if result.ActivitiesFetched != 2 || result.ActivitiesStored != 1 {
		t.Errorf("fetched/stored = %d/%d, want 2/1", result.ActivitiesFetched, result.ActivitiesStored)
	}
	if result.WellnessDays != 1 {
		t.Errorf("WellnessDays = %d, want 1", result.WellnessDays)
	}
	if result.TotalActivities != 1 {
		t.Errorf("TotalActivities = %d, want 1", result.TotalActivities)
	}
	if result.SessionsEvaluated != 1 || result.IntervalSessions != 1 {
		t.Errorf("evaluated/interval = %d/%d, want 1/1", result.SessionsEvaluated, result.IntervalSessions)
	}
	if len(result.Errors) != 0 {
		t.Errorf("Errors = %v", result.Errors)
	}

	var phases []string
	for p := range progress {
		phases = append(phases, p.Phase)
	}
	if len(phases) == 0 || phases[0] != "activities" || phases[len(phases)-1] != "sessions" {
		t.Errorf("progress phases = %v", phases)
	}

	eval, err := db.GetSessionEvaluation("i1")
	if err != nil {
		t.Fatalf("GetSessionEvaluation: %v", err)
	}
	if eval.PlannedIntent != "vo2" || eval.RepCount != 5 {
		t.Errorf("evaluation = %+v", eval)
	}
	if eval.HRR60Count == nil {
		t.Error("HRR60Count should be set when streams exist")
	}

	points, err := db.ListProgressPoints("vo2")
	if err != nil {
		t.Fatalf("ListProgressPoints: %v", err)
	}
	if len(points) != 1 || points[0].Date != "2024-05-07" {
		t.Errorf("progress points = %+v", points)
	}

	if _, _, ok := s.RateLimitStatus(); ok {
		t.Error("fake source has no rate limiter")
	}

	if last, _ := db.GetSyncState(lastActivitySyncKey); last == "" {
		t.Error("last activity sync should be recorded")
	}

	// A second sync finds nothing new to evaluate
	calls := src.streamCalls
	result, err = s.SyncAll(context.Background(), nil)
	if err != nil {
		t.Fatalf("second SyncAll: %v", err)
	}
	if result.SessionsEvaluated != 0 || src.streamCalls != calls {
		t.Errorf("second sync evaluated %d sessions, %d stream calls", result.SessionsEvaluated, src.streamCalls-calls)
	}
}

func TestEvaluateActivity(t *testing.T) {
	t.Run("unknown activity", func(t *testing.T) {
		s, _, _ := newFixture(t)
		_, err := s.EvaluateActivity(context.Background(), "nope", analysis.IntentVO2, analysis.DoseTarget{})
		if !errors.Is(err, store.ErrActivityNotFound) {
			t.Errorf("err = %v, want ErrActivityNotFound", err)
		}
	})

	t.Run("interval fetch failure", func(t *testing.T) {
		s, src, db := newFixture(t)
		if err := db.UpsertActivity(src.activities[0].ToStore()); err != nil {
			t.Fatal(err)
		}
		src.intervalsErr = errors.New("API error 500: boom")

		if _, err := s.EvaluateActivity(context.Background(), "i1", analysis.IntentVO2, analysis.DoseTarget{}); err == nil {
			t.Fatal("expected error")
		}
		if _, err := db.GetSessionEvaluation("i1"); !errors.Is(err, store.ErrEvaluationNotFound) {
			t.Errorf("no evaluation should be stored, got err = %v", err)
		}
	})

	t.Run("missing streams still scores", func(t *testing.T) {
		s, src, db := newFixture(t)
		if err := db.UpsertActivity(src.activities[0].ToStore()); err != nil {
			t.Fatal(err)
		}
		delete(src.streams, "i1")

		ev, err := s.EvaluateActivity(context.Background(), "i1", analysis.IntentVO2, analysis.DoseTarget{})
		if err != nil {
			t.Fatalf("EvaluateActivity: %v", err)
		}
		if len(ev.Analysis.Scores.Reps) != 5 {
			t.Errorf("reps = %d, want 5", len(ev.Analysis.Scores.Reps))
		}
		if ev.Analysis.Recovery.HRR60Count != nil {
			t.Error("recovery should be unset without streams")
		}
		if ev.Delta != nil {
			t.Error("first session of an intent has no delta")
		}
	})

	t.Run("second session compares with the first", func(t *testing.T) {
		s, src, db := newFixture(t)
		for _, id := range []string{"i1", "i3"} {
			a := src.activities[0]
			a.ID = id
			if id == "i3" {
				a.StartDateLocal = localTime("2024-05-14T07:00:00")
			}
			if err := db.UpsertActivity(a.ToStore()); err != nil {
				t.Fatal(err)
			}
		}
		src.intervals["i3"] = vo2Session()[:6] // three reps

		if _, err := s.EvaluateActivity(context.Background(), "i1", analysis.IntentVO2, analysis.DoseTarget{}); err != nil {
			t.Fatal(err)
		}
		ev, err := s.EvaluateActivity(context.Background(), "i3", analysis.IntentVO2, analysis.DoseTarget{})
		if err != nil {
			t.Fatal(err)
		}
		if ev.Delta == nil {
			t.Fatal("expected a progress delta")
		}
		if ev.Delta.Previous.ActivityID != "i1" {
			t.Errorf("Previous = %q, want i1", ev.Delta.Previous.ActivityID)
		}
		if ev.Delta.QualityVolumeM >= 0 {
			t.Errorf("QualityVolumeM delta = %v, want negative", ev.Delta.QualityVolumeM)
		}
	})

	t.Run("re-evaluation replaces the progress point", func(t *testing.T) {
		s, src, db := newFixture(t)
		if err := db.UpsertActivity(src.activities[0].ToStore()); err != nil {
			t.Fatal(err)
		}

		for _, intent := range []analysis.Intent{analysis.IntentVO2, analysis.IntentVO2, analysis.IntentThreshold} {
			if _, err := s.EvaluateActivity(context.Background(), "i1", intent, analysis.DoseTarget{}); err != nil {
				t.Fatalf("EvaluateActivity(%s): %v", intent, err)
			}
		}

		points, err := db.ListProgressPoints("")
		if err != nil {
			t.Fatal(err)
		}
		if len(points) != 1 || points[0].PlannedIntent != string(analysis.IntentThreshold) {
			t.Errorf("points = %+v, want one threshold point", points)
		}

		trend, err := NewQueryService(db).ExecutionTrend("", TrendSessions)
		if err != nil {
			t.Fatal(err)
		}
		if len(trend.Execution) != 1 {
			t.Errorf("trend entries = %d, want 1", len(trend.Execution))
		}
	})
}

func TestQueryService(t *testing.T) {
	s, _, db := newFixture(t)
	if _, err := s.SyncAll(context.Background(), nil); err != nil {
		t.Fatal(err)
	}

	q := NewQueryService(db)

	rows, err := q.Sessions(10)
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(rows) != 1 || rows[0].Activity.ID != "i1" {
		t.Fatalf("rows = %+v", rows)
	}
	if rows[0].Duration != "45:00" {
		t.Errorf("Duration = %q, want 45:00", rows[0].Duration)
	}
	if rows[0].Label != analysis.ScoreLabel(rows[0].Evaluation.Overall) {
		t.Errorf("Label = %q", rows[0].Label)
	}

	trend, err := q.ExecutionTrend("", 30)
	if err != nil {
		t.Fatalf("ExecutionTrend: %v", err)
	}
	if len(trend.Execution) != 1 || len(trend.Dates) != 1 {
		t.Errorf("trend = %+v", trend)
	}

	detail, err := q.GetSessionDetail("i1")
	if err != nil {
		t.Fatalf("GetSessionDetail: %v", err)
	}
	if detail.Stats.AvgHR() != 150 {
		t.Errorf("AvgHR = %v, want 150", detail.Stats.AvgHR())
	}
	if detail.Delta != nil {
		t.Error("single session should have no delta")
	}
	if len(detail.HRData) != 121 || detail.PaceData[0] == 0 {
		t.Errorf("chart series: %d HR samples, first pace %v", len(detail.HRData), detail.PaceData[0])
	}

	if _, err := q.GetSessionDetail("missing"); !errors.Is(err, store.ErrActivityNotFound) {
		t.Errorf("err = %v, want ErrActivityNotFound", err)
	}
}
