package analysis

import (
	"math"
	"testing"
	"time"

	"runcoach/internal/store"
)

func TestTRIMP(t *testing.T) {
	zones := HRZones{RestingHR: 50, MaxHR: 185}

	tests := []struct {
		name     string
		activity store.Activity
		streams  []store.StreamPoint
		zones    HRZones
		expected float64
		delta    float64
	}{
		{
			name: "empty streams - uses activity avg HR",
			activity: store.Activity{
				MovingTime:       3600,
				AverageHeartrate: floatPtr(150),
			},
			zones: zones,
			// hrRatio = (150-50)/(185-50) = 0.741
			// TRIMP = 60 * 0.741 * e^(1.92*0.741)
			expected: 184.3,
			delta:    1,
		},
		{
			name:     "no HR data available",
			activity: store.Activity{MovingTime: 3600},
			zones:    zones,
			expected: 0,
		},
		{
			name: "uses stream HR over activity HR",
			activity: store.Activity{
				MovingTime:       3600,
				AverageHeartrate: floatPtr(170),
			},
			streams:  splitStream(100, 3.0, 150, 3.0, 150),
			zones:    zones,
			expected: 184.3,
			delta:    1,
		},
		{
			name: "zero HR reserve",
			activity: store.Activity{
				MovingTime:       3600,
				AverageHeartrate: floatPtr(150),
			},
			zones:    HRZones{RestingHR: 100, MaxHR: 100},
			expected: 0,
		},
		{
			name: "HR above max - clamped to 1",
			activity: store.Activity{
				MovingTime:       3600,
				AverageHeartrate: floatPtr(200),
			},
			zones: zones,
			// 60 * 1.0 * e^1.92
			expected: 409,
			delta:    2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := TRIMP(tt.activity, tt.streams, tt.zones)
			if math.Abs(result-tt.expected) > tt.delta {
				t.Errorf("TRIMP() = %v, want %v (±%v)", result, tt.expected, tt.delta)
			}
		})
	}
}

func TestActivityLoad(t *testing.T) {
	zones := HRZones{RestingHR: 50, MaxHR: 185}

	withLoad := store.Activity{MovingTime: 3600, AverageHeartrate: floatPtr(150), TrainingLoad: floatPtr(72)}
	if got := ActivityLoad(withLoad, zones); got != 72 {
		t.Errorf("ActivityLoad() = %v, want 72", got)
	}

	withoutLoad := store.Activity{MovingTime: 3600, AverageHeartrate: floatPtr(150)}
	if got := ActivityLoad(withoutLoad, zones); math.Abs(got-184.3) > 1 {
		t.Errorf("ActivityLoad() = %v, want ~184.3", got)
	}
}

func TestMonotony(t *testing.T) {
	asOf := time.Date(2024, 3, 7, 18, 0, 0, 0, time.UTC)
	week := func(loads ...float64) []DailyLoad {
		out := make([]DailyLoad, len(loads))
		for i, l := range loads {
			out[i] = DailyLoad{Date: asOf.AddDate(0, 0, i-6), Load: l}
		}
		return out
	}

	tests := []struct {
		name     string
		loads    []DailyLoad
		expected *float64
	}{
		{
			name:     "no load",
			loads:    nil,
			expected: nil,
		},
		{
			name:     "identical days hit the cap",
			loads:    week(50, 50, 50, 50, 50, 50, 50),
			expected: floatPtr(MonotonyCap),
		},
		{
			name:  "single session",
			loads: week(70, 0, 0, 0, 0, 0, 0),
			// mean 10, sd sqrt(600)
			expected: floatPtr(10 / math.Sqrt(600)),
		},
		{
			name:  "six equal days and one rest day",
			loads: week(60, 60, 60, 60, 60, 60, 0),
			// mean 51.43, sd 21.0
			expected: floatPtr(2.449),
		},
		{
			name:     "loads outside the window are ignored",
			loads:    []DailyLoad{{Date: asOf.AddDate(0, 0, -7), Load: 100}, {Date: asOf.AddDate(0, 0, 1), Load: 100}},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Monotony(tt.loads, asOf)
			if tt.expected == nil {
				if result != nil {
					t.Errorf("Monotony() = %v, want nil", *result)
				}
				return
			}
			if result == nil {
				t.Fatalf("Monotony() = nil, want %v", *tt.expected)
			}
			if math.Abs(*result-*tt.expected) > 0.01 {
				t.Errorf("Monotony() = %v, want %v", *result, *tt.expected)
			}
		})
	}
}

func TestCalculateFitnessTrend(t *testing.T) {
	baseDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		dailyLoads []DailyLoad
		checkFn    func(t *testing.T, metrics []FitnessMetrics)
	}{
		{
			name:       "empty daily loads",
			dailyLoads: []DailyLoad{},
			checkFn: func(t *testing.T, metrics []FitnessMetrics) {
				if metrics != nil {
					t.Errorf("expected nil, got %v", metrics)
				}
			},
		},
		{
			name:       "single day load",
			dailyLoads: []DailyLoad{{Date: baseDate, Load: 100}},
			checkFn: func(t *testing.T, metrics []FitnessMetrics) {
				if len(metrics) != 1 {
					t.Fatalf("expected 1 metric, got %d", len(metrics))
				}
				// CTL = 2/43 * 100, ATL = 2/8 * 100
				if math.Abs(metrics[0].CTL-4.65) > 0.5 {
					t.Errorf("CTL = %v, want ~4.65", metrics[0].CTL)
				}
				if math.Abs(metrics[0].ATL-25) > 0.5 {
					t.Errorf("ATL = %v, want ~25", metrics[0].ATL)
				}
			},
		},
		{
			name: "gap in training - fills missing days",
			dailyLoads: []DailyLoad{
				{Date: baseDate.AddDate(0, 0, 5), Load: 100},
				{Date: baseDate, Load: 100},
			},
			checkFn: func(t *testing.T, metrics []FitnessMetrics) {
				if len(metrics) != 6 {
					t.Fatalf("expected 6 metrics (filling gaps), got %d", len(metrics))
				}
				if metrics[4].CTL >= metrics[0].CTL {
					t.Errorf("CTL should decay during rest: day 0 CTL=%v, day 4 CTL=%v",
						metrics[0].CTL, metrics[4].CTL)
				}
			},
		},
		{
			name: "multiple activities same day - sums load",
			dailyLoads: []DailyLoad{
				{Date: baseDate, Load: 50},
				{Date: baseDate, Load: 50},
			},
			checkFn: func(t *testing.T, metrics []FitnessMetrics) {
				single := CalculateFitnessTrend([]DailyLoad{{Date: baseDate, Load: 100}})
				if math.Abs(metrics[0].CTL-single[0].CTL) > 0.01 {
					t.Errorf("CTL with split loads = %v, want %v", metrics[0].CTL, single[0].CTL)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateFitnessTrend(tt.dailyLoads)
			tt.checkFn(t, result)
		})
	}
}

func TestFormDescription(t *testing.T) {
	tests := []struct {
		tsb      float64
		expected string
	}{
		{30, "Very fresh (possibly detrained)"},
		{15, "Fresh and ready to race"},
		{5, "Neutral - good for training"},
		{-5, "Slightly fatigued"},
		{-15, "Tired but building fitness"},
		{-30, "Very fatigued - rest needed"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := FormDescription(tt.tsb)
			if result != tt.expected {
				t.Errorf("FormDescription(%v) = %q, want %q", tt.tsb, result, tt.expected)
			}
		})
	}
}
