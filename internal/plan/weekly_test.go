package plan

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"runcoach/internal/learning"
)

var monday = time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)

func baseWeek() WeeklyPlanContext {
	return WeeklyPlanContext{
		WeekStart:     monday,
		Phase:         PhaseBuild,
		DistanceClass: Class10K,
		RunsPerWeek:   4,
		PreviousStep:  1,
		BaseKeyQuota:  0.5,
	}
}

func evidence(arm learning.Arm, c learning.Confidence) *learning.Evidence {
	return &learning.Evidence{
		Recommendation: learning.Recommendation{Arm: arm, Confidence: c, NEff: 5},
	}
}

func keyWorkouts(ws []PlannedWorkout) []PlannedWorkout {
	var out []PlannedWorkout
	for _, w := range ws {
		if w.Key {
			out = append(out, w)
		}
	}
	return out
}

func TestSelectWeeklyPlan(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *WeeklyPlanContext)
		checkFn func(t *testing.T, r WeeklyPlanResult)
	}{
		{
			name:   "standard week",
			modify: func(c *WeeklyPlanContext) {},
			checkFn: func(t *testing.T, r WeeklyPlanResult) {
				if len(r.Workouts) != 4 {
					t.Errorf("workouts = %d, want 4", len(r.Workouts))
				}
				keys := keyWorkouts(r.Workouts)
				if len(keys) != 1 || !keys[0].Date.Equal(monday.AddDate(0, 0, 1)) {
					t.Errorf("key workouts = %+v, want one on Tuesday", keys)
				}
				if r.Key.KeyType != KeyThreshold || r.Key.ProgressionStep != 2 {
					t.Errorf("Key = %+v, want threshold step 2", r.Key)
				}
				if r.Rationale != "standard week" {
					t.Errorf("Rationale = %q", r.Rationale)
				}
			},
		},
		{
			name: "run floor gap blocks keys despite learned preference",
			modify: func(c *WeeklyPlanContext) {
				c.RunFloorGap = true
				c.Evidence = evidence(learning.ArmHoldAbsorb, learning.ConfidenceHigh)
				c.SelectedType = KeyVO2
			},
			checkFn: func(t *testing.T, r WeeklyPlanResult) {
				if !r.RunfloorBlocked {
					t.Error("RunfloorBlocked = false")
				}
				if len(keyWorkouts(r.Workouts)) != 0 {
					t.Error("no key workout expected")
				}
				if !strings.HasPrefix(r.Key.KeyLabel, NoKeyPrefix) {
					t.Errorf("KeyLabel = %q, want no key", r.Key.KeyLabel)
				}
				for _, w := range r.Workouts {
					if w.Kind == WorkoutEasy && w.Provenance != "runfloor" {
						t.Errorf("easy run provenance = %q, want runfloor", w.Provenance)
					}
				}
			},
		},
		{
			name: "deload reduces the key and drops a run",
			modify: func(c *WeeklyPlanContext) {
				c.DeloadActive = true
			},
			checkFn: func(t *testing.T, r WeeklyPlanResult) {
				if !r.DeloadApplied || !r.ProgressionHeld {
					t.Errorf("DeloadApplied = %v, ProgressionHeld = %v", r.DeloadApplied, r.ProgressionHeld)
				}
				if len(r.Workouts) != 3 {
					t.Errorf("workouts = %d, want 3", len(r.Workouts))
				}
				if r.Key.ScalingLevel != -1 || r.Key.ProgressionStep != 1 {
					t.Errorf("Key = %+v, want scaling -1 at step 1", r.Key)
				}
			},
		},
		{
			name: "learned PROTECT_DELOAD acts as a deload",
			modify: func(c *WeeklyPlanContext) {
				c.Evidence = evidence(learning.ArmProtectDeload, learning.ConfidenceMedium)
			},
			checkFn: func(t *testing.T, r WeeklyPlanResult) {
				if !r.DeloadApplied {
					t.Error("DeloadApplied = false")
				}
				if r.LearnedArm != learning.ArmProtectDeload {
					t.Errorf("LearnedArm = %v", r.LearnedArm)
				}
			},
		},
		{
			name: "learned FREQ_UP adds an easy run",
			modify: func(c *WeeklyPlanContext) {
				c.Evidence = evidence(learning.ArmFreqUp, learning.ConfidenceHigh)
			},
			checkFn: func(t *testing.T, r WeeklyPlanResult) {
				if !r.FrequencyIncreased || len(r.Workouts) != 5 {
					t.Errorf("FrequencyIncreased = %v, workouts = %d", r.FrequencyIncreased, len(r.Workouts))
				}
				var tagged bool
				for _, w := range r.Workouts {
					if w.Provenance == "freq_up" {
						tagged = true
					}
				}
				if !tagged {
					t.Error("extra run should carry freq_up provenance")
				}
			},
		},
		{
			name: "learned HOLD_ABSORB holds progression",
			modify: func(c *WeeklyPlanContext) {
				c.Evidence = evidence(learning.ArmHoldAbsorb, learning.ConfidenceMedium)
			},
			checkFn: func(t *testing.T, r WeeklyPlanResult) {
				if !r.ProgressionHeld || r.Key.ProgressionStep != 1 {
					t.Errorf("ProgressionHeld = %v, step = %d", r.ProgressionHeld, r.Key.ProgressionStep)
				}
			},
		},
		{
			name: "low confidence evidence is ignored",
			modify: func(c *WeeklyPlanContext) {
				c.Evidence = evidence(learning.ArmProtectDeload, learning.ConfidenceLow)
			},
			checkFn: func(t *testing.T, r WeeklyPlanResult) {
				if r.LearnedArm != "" || r.DeloadApplied {
					t.Errorf("LearnedArm = %q, DeloadApplied = %v", r.LearnedArm, r.DeloadApplied)
				}
			},
		},
		{
			name: "taper window",
			modify: func(c *WeeklyPlanContext) {
				c.DistanceClass = Class5K
				c.DaysToRace = intPtr(6)
			},
			checkFn: func(t *testing.T, r WeeklyPlanResult) {
				if !r.TaperApplied || !r.Key.TaperApplied {
					t.Errorf("TaperApplied = %v / %v", r.TaperApplied, r.Key.TaperApplied)
				}
				var shortened bool
				for _, w := range r.Workouts {
					if w.Kind == WorkoutLong && w.Provenance == "taper" {
						shortened = true
					}
				}
				if !shortened {
					t.Error("long run should be shortened in the taper")
				}
			},
		},
		{
			name: "spacing breach suppresses the key",
			modify: func(c *WeeklyPlanContext) {
				last := monday
				c.LastKeyDate = &last
			},
			checkFn: func(t *testing.T, r WeeklyPlanResult) {
				if !strings.HasPrefix(r.Key.KeyLabel, NoKeyPrefix) {
					t.Errorf("KeyLabel = %q, want no key", r.Key.KeyLabel)
				}
				if len(keyWorkouts(r.Workouts)) != 0 {
					t.Error("no key workout expected")
				}
				if len(r.Workouts) != 4 {
					t.Errorf("workouts = %d, want 4", len(r.Workouts))
				}
			},
		},
		{
			name: "quota breach suppresses the key",
			modify: func(c *WeeklyPlanContext) {
				c.RecentKeys = []PastKey{
					{Date: monday.AddDate(0, 0, -5), Type: KeyVO2},
					{Date: monday.AddDate(0, 0, -2), Type: KeyThreshold},
				}
			},
			checkFn: func(t *testing.T, r WeeklyPlanResult) {
				if !r.Key.Suppressed() {
					t.Errorf("Key = %+v, want suppressed", r.Key)
				}
			},
		},
		{
			name: "base phase long run key by quota",
			modify: func(c *WeeklyPlanContext) {
				c.Phase = PhaseBase
				c.BaseKeyQuota = 1
			},
			checkFn: func(t *testing.T, r WeeklyPlanResult) {
				keys := keyWorkouts(r.Workouts)
				if r.Key.KeyType != KeyLongRun || len(keys) != 1 || keys[0].Kind != WorkoutKey {
					t.Fatalf("Key = %+v, keys = %+v", r.Key, keys)
				}
				if !keys[0].Date.Equal(monday.AddDate(0, 0, 5)) {
					t.Errorf("long run key on %v, want Saturday", keys[0].Date)
				}
				if len(r.Workouts) != 4 {
					t.Errorf("workouts = %d, want 4", len(r.Workouts))
				}
			},
		},
		{
			name: "banned hills run as a long run key on Saturday",
			modify: func(c *WeeklyPlanContext) {
				c.Phase = PhaseBase
				c.BaseKeyQuota = 0
				c.BannedTypes = []KeyType{KeyHills}
				// too close to Tuesday, fine for Saturday
				last := monday.Add(12 * time.Hour)
				c.LastKeyDate = &last
				c.RecentKeys = []PastKey{
					{Date: monday.AddDate(0, 0, -5), Type: KeyVO2},
					{Date: monday.AddDate(0, 0, -2), Type: KeyThreshold},
				}
			},
			checkFn: func(t *testing.T, r WeeklyPlanResult) {
				if r.Key.KeyType != KeyLongRun || !r.Key.Substituted || r.Key.RequestedType != KeyHills {
					t.Fatalf("Key = %+v, want hills substituted by long run", r.Key)
				}
				keys := keyWorkouts(r.Workouts)
				if len(keys) != 1 || !keys[0].Date.Equal(monday.AddDate(0, 0, 5)) {
					t.Errorf("key workouts = %+v, want one on Saturday", keys)
				}
			},
		},
		{
			name: "banned long run is spaced as a Tuesday hard key",
			modify: func(c *WeeklyPlanContext) {
				c.SelectedType = KeyLongRun
				c.BannedTypes = []KeyType{KeyLongRun}
				last := monday.Add(12 * time.Hour)
				c.LastKeyDate = &last
			},
			checkFn: func(t *testing.T, r WeeklyPlanResult) {
				if !r.Key.Suppressed() {
					t.Errorf("Key = %+v, want suppressed by spacing", r.Key)
				}
				if len(keyWorkouts(r.Workouts)) != 0 {
					t.Error("no key workout expected")
				}
			},
		},
		{
			name: "banned long run is charged to the hard quota",
			modify: func(c *WeeklyPlanContext) {
				c.SelectedType = KeyLongRun
				c.BannedTypes = []KeyType{KeyLongRun}
				c.RecentKeys = []PastKey{
					{Date: monday.AddDate(0, 0, -5), Type: KeyVO2},
					{Date: monday.AddDate(0, 0, -2), Type: KeyThreshold},
				}
			},
			checkFn: func(t *testing.T, r WeeklyPlanResult) {
				if !r.Key.Suppressed() {
					t.Errorf("Key = %+v, want suppressed by quota", r.Key)
				}
			},
		},
		{
			name: "base phase hills when quota says no",
			modify: func(c *WeeklyPlanContext) {
				c.Phase = PhaseBase
				c.BaseKeyQuota = 0
			},
			checkFn: func(t *testing.T, r WeeklyPlanResult) {
				if r.Key.KeyType != KeyHills {
					t.Errorf("KeyType = %v, want hills", r.Key.KeyType)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := baseWeek()
			tt.modify(&ctx)
			r := SelectWeeklyPlan(ctx)

			for i := 1; i < len(r.Workouts); i++ {
				if !r.Workouts[i-1].Date.Before(r.Workouts[i].Date) {
					t.Errorf("workouts not in date order at %d", i)
				}
			}
			tt.checkFn(t, r)
		})
	}
}

func TestSelectWeeklyPlan_Idempotent(t *testing.T) {
	ctx := baseWeek()
	ctx.Evidence = evidence(learning.ArmFreqUp, learning.ConfidenceHigh)
	ctx.DaysToRace = intPtr(9)

	if a, b := SelectWeeklyPlan(ctx), SelectWeeklyPlan(ctx); !reflect.DeepEqual(a, b) {
		t.Errorf("SelectWeeklyPlan() differs:\n%+v\n%+v", a, b)
	}
}
