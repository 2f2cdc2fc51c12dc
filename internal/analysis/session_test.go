package analysis

import (
	"math"
	"strings"
	"testing"
)

// workRep builds a WORK interval of sec seconds at speed m/s
func workRep(sec, speed, hr float64) ICUInterval {
	return ICUInterval{
		Type:             "WORK",
		Distance:         sec * speed,
		MovingTime:       sec,
		ElapsedTime:      sec,
		AverageSpeed:     speed,
		AverageHeartrate: floatPtr(hr),
	}
}

func recoveryJog(sec float64) ICUInterval {
	return ICUInterval{Type: "RECOVERY", Distance: sec * 2, MovingTime: sec, AverageSpeed: 2}
}

func session(reps ...ICUInterval) []ICUInterval {
	var out []ICUInterval
	for _, r := range reps {
		out = append(out, r, recoveryJog(90))
	}
	return out
}

func TestExtractReps(t *testing.T) {
	cfg := DefaultEvalConfig()
	intervals := []ICUInterval{
		{Type: "WARMUP", Distance: 2000, MovingTime: 600, AverageSpeed: 3.3},
		workRep(180, 5, 170),
		recoveryJog(90),
		workRep(30, 5, 170),    // below repMinSec
		workRep(180, 2.0, 120), // below repMinSpeed
		workRep(1500, 4, 160),  // above repMaxSec
		{Type: "WORK", Distance: math.NaN(), MovingTime: 180, AverageSpeed: 5},
		{Type: "WORK", Distance: 900, MovingTime: 180, AverageSpeed: math.Inf(1)},
		{Type: "WORK", Distance: 0, MovingTime: 180, AverageSpeed: 5},
		{Type: "work", Distance: 1000, MovingTime: 200}, // speed derived
		workRep(240, 4.5, 172),
	}

	reps := ExtractReps(intervals, cfg)
	if len(reps) != 3 {
		t.Fatalf("ExtractReps() returned %d reps, want 3", len(reps))
	}

	wantIdx := []int{1, 9, 10}
	for i, r := range reps {
		if r.Idx != wantIdx[i] {
			t.Errorf("rep %d Idx = %d, want %d", i, r.Idx, wantIdx[i])
		}
		if r.MovingSec < cfg.RepMinSec || r.MovingSec > cfg.RepMaxSec {
			t.Errorf("rep %d MovingSec = %v outside [%v, %v]", i, r.MovingSec, cfg.RepMinSec, cfg.RepMaxSec)
		}
		if r.Speed < cfg.RepMinSpeed {
			t.Errorf("rep %d Speed = %v below %v", i, r.Speed, cfg.RepMinSpeed)
		}
		if math.Abs(r.PaceSecPerKm-1000/r.Speed) > 1e-9 {
			t.Errorf("rep %d PaceSecPerKm = %v, want %v", i, r.PaceSecPerKm, 1000/r.Speed)
		}
	}
	if reps[1].Speed != 5 {
		t.Errorf("derived speed = %v, want 5", reps[1].Speed)
	}
}

func TestEvaluateSession(t *testing.T) {
	cfg := DefaultEvalConfig()

	withCadResp := func(iv ICUInterval, cad, resp float64) ICUInterval {
		iv.AverageCadence = floatPtr(cad)
		iv.AverageRespiration = floatPtr(resp)
		return iv
	}
	noHR := func(iv ICUInterval) ICUInterval {
		iv.AverageHeartrate = nil
		return iv
	}
	withGap := func(iv ICUInterval, gap float64) ICUInterval {
		iv.GAP = floatPtr(gap)
		return iv
	}

	tests := []struct {
		name            string
		intervals       []ICUInterval
		planned         Intent
		dose            DoseTarget
		wantExecution   int
		wantDose        int
		wantStrain      int
		wantIntent      ClassifiedIntent
		wantIntentMatch int
		wantOverall     int
		wantNote        string
	}{
		{
			name: "even vo2 session",
			intervals: session(
				workRep(180, 5, 175), workRep(180, 5, 175), workRep(180, 5, 175),
				workRep(180, 5, 175), workRep(180, 5, 175),
			),
			planned:         IntentVO2,
			wantExecution:   100,
			wantDose:        100,
			wantStrain:      100,
			wantIntent:      ClassifiedVO2,
			wantIntentMatch: 100,
			wantOverall:     100,
		},
		{
			name:            "single rep",
			intervals:       session(workRep(600, 4.5, 165)),
			planned:         IntentThreshold,
			dose:            DoseTarget{DistanceM: floatPtr(3600)},
			wantExecution:   0,
			wantDose:        75,
			wantStrain:      50,
			wantIntent:      ClassifiedThreshold,
			wantIntentMatch: 100,
			// 0.25*0.75 + 0.2*0.5 + 0.2*1.0
			wantOverall: 49,
			wantNote:    "need at least 2",
		},
		{
			name: "threshold reps planned as vo2",
			intervals: session(
				workRep(600, 4.5, 165), workRep(600, 4.5, 165), workRep(600, 4.5, 165),
			),
			planned:         IntentVO2,
			dose:            DoseTarget{TimeSec: floatPtr(1800)},
			wantExecution:   100,
			wantDose:        100,
			wantStrain:      100,
			wantIntent:      ClassifiedThreshold,
			wantIntentMatch: 35,
			// 0.35 + 0.25 + 0.2 + 0.2*0.35
			wantOverall: 87,
		},
		{
			name: "racepace reps",
			intervals: session(
				workRep(180, 5, 165), workRep(180, 5, 165), workRep(180, 5, 165), workRep(180, 5, 165),
			),
			planned:         IntentRacepace,
			wantExecution:   100,
			wantDose:        100,
			wantStrain:      100,
			wantIntent:      ClassifiedRacepace,
			wantIntentMatch: 100,
			wantOverall:     100,
		},
		{
			name: "moderate HR is mixed",
			intervals: session(
				workRep(180, 5, 150), workRep(180, 5, 150),
			),
			planned:       IntentThreshold,
			wantExecution: 100,
			// 1800 m against the 3 km default
			wantDose:        60,
			wantStrain:      100,
			wantIntent:      ClassifiedMixed,
			wantIntentMatch: 65,
			// 0.35 + 0.15 + 0.2 + 0.13
			wantOverall: 83,
			wantNote:    "no target",
		},
		{
			name: "no heart rate",
			intervals: session(
				noHR(workRep(180, 5, 0)), noHR(workRep(180, 5, 0)),
			),
			planned:         IntentVO2,
			wantExecution:   100,
			wantDose:        60,
			wantStrain:      100,
			wantIntent:      ClassifiedUnknown,
			wantIntentMatch: 50,
			// 0.35 + 0.15 + 0.2 + 0.1
			wantOverall: 80,
			wantNote:    "no heart rate",
		},
		{
			name: "cadence drop and respiration rise",
			intervals: session(
				withCadResp(workRep(180, 5, 175), 182, 30),
				withCadResp(workRep(180, 5, 175), 178, 34),
				withCadResp(workRep(180, 5, 175), 174, 40),
			),
			planned:         IntentVO2,
			wantExecution:   100,
			wantDose:        90,
			wantStrain:      58,
			wantIntent:      ClassifiedVO2,
			wantIntentMatch: 100,
			// 0.35 + 0.225 + 0.116 + 0.2
			wantOverall: 89,
			wantNote:    "cadence dropped",
		},
		{
			name: "grade-adjusted pace evens out a hilly session",
			intervals: session(
				withGap(workRep(180, 5.0, 175), 5.0),
				withGap(workRep(180, 4.2, 175), 5.0),
				withGap(workRep(180, 4.6, 175), 5.0),
			),
			planned:         IntentVO2,
			wantExecution:   100,
			wantDose:        83,
			wantStrain:      100,
			wantIntent:      ClassifiedVO2,
			wantIntentMatch: 100,
			// 0.35 + 0.25*0.828 + 0.2 + 0.2
			wantOverall: 96,
		},
		{
			name:            "no intervals",
			intervals:       nil,
			planned:         IntentUnknown,
			wantExecution:   0,
			wantDose:        0,
			wantStrain:      50,
			wantIntent:      ClassifiedUnknown,
			wantIntentMatch: 50,
			wantOverall:     20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := EvaluateSession(tt.intervals, tt.planned, tt.dose, cfg)

			if s.Execution != tt.wantExecution {
				t.Errorf("Execution = %d, want %d", s.Execution, tt.wantExecution)
			}
			if s.Dose != tt.wantDose {
				t.Errorf("Dose = %d, want %d", s.Dose, tt.wantDose)
			}
			if s.Strain != tt.wantStrain {
				t.Errorf("Strain = %d, want %d", s.Strain, tt.wantStrain)
			}
			if s.Intent != tt.wantIntent {
				t.Errorf("Intent = %v, want %v", s.Intent, tt.wantIntent)
			}
			if s.IntentMatch != tt.wantIntentMatch {
				t.Errorf("IntentMatch = %d, want %d", s.IntentMatch, tt.wantIntentMatch)
			}
			if s.Overall != tt.wantOverall {
				t.Errorf("Overall = %d, want %d", s.Overall, tt.wantOverall)
			}
			if s.Overall < 0 || s.Overall > 100 {
				t.Errorf("Overall = %d outside [0, 100]", s.Overall)
			}
			if tt.wantNote != "" && !strings.Contains(strings.Join(s.Notes, "; "), tt.wantNote) {
				t.Errorf("Notes = %v, want one containing %q", s.Notes, tt.wantNote)
			}
		})
	}
}

func TestEvaluateSession_Fade(t *testing.T) {
	s := EvaluateSession(session(
		workRep(180, 5.0, 175), workRep(180, 5.0, 175), workRep(180, 4.5, 175),
	), IntentVO2, DoseTarget{}, DefaultEvalConfig())

	if s.FadePct == nil || *s.FadePct < 10 {
		t.Fatalf("FadePct = %v, want > 10", s.FadePct)
	}
	if s.Execution <= 0 || s.Execution >= 60 {
		t.Errorf("Execution = %d, want in (0, 60)", s.Execution)
	}
	if s.PaceSource != "speed" {
		t.Errorf("PaceSource = %q, want speed", s.PaceSource)
	}

	// a faster last rep is never penalised for fade
	negative := EvaluateSession(session(
		workRep(180, 5.0, 175), workRep(180, 5.1, 175),
	), IntentVO2, DoseTarget{}, DefaultEvalConfig())
	if negative.FadePct == nil || *negative.FadePct >= 0 {
		t.Fatalf("FadePct = %v, want negative", negative.FadePct)
	}
	if negative.Execution != 100 {
		t.Errorf("Execution = %d, want 100", negative.Execution)
	}
}

func TestEvaluateSession_Idempotent(t *testing.T) {
	intervals := session(workRep(180, 5.0, 175), workRep(200, 4.8, 178), workRep(190, 4.7, 180))
	a := EvaluateSession(intervals, IntentVO2, DoseTarget{}, DefaultEvalConfig())
	b := EvaluateSession(intervals, IntentVO2, DoseTarget{}, DefaultEvalConfig())

	if a.Overall != b.Overall || a.Execution != b.Execution || strings.Join(a.Notes, "|") != strings.Join(b.Notes, "|") {
		t.Errorf("EvaluateSession() not idempotent: %+v vs %+v", a, b)
	}
}

func TestParseIntent(t *testing.T) {
	tests := []struct {
		in       string
		expected Intent
	}{
		{"vo2", IntentVO2},
		{"VO2max", IntentVO2},
		{" threshold ", IntentThreshold},
		{"tempo", IntentThreshold},
		{"racepace", IntentRacepace},
		{"", IntentUnknown},
		{"fartlek", IntentUnknown},
	}
	for _, tt := range tests {
		if got := ParseIntent(tt.in); got != tt.expected {
			t.Errorf("ParseIntent(%q) = %v, want %v", tt.in, got, tt.expected)
		}
	}
}
