package analysis

import (
	"fmt"
	"math"
	"testing"

	"runcoach/internal/store"
)

func TestCalculateVDOT(t *testing.T) {
	tests := []struct {
		name            string
		distanceMeters  float64
		durationSeconds int
		wantVDOT        float64
		tolerance       float64
	}{
		{"5K at 19:00", Distance5K, 1140, 50.0, 1.0},
		{"5K at 23:42", Distance5K, 1422, 40.0, 1.0},
		{"10K at 39:24", Distance10K, 2364, 50.0, 1.0},
		{"half marathon at 1:25:00", DistanceHalfMara, 5100, 50.0, 1.0},
		{"marathon at 2:54:54", DistanceMarathon, 10494, 50.0, 1.0},
		{"mile at 5:44", Distance1Mile, 344, 50.0, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateVDOT(tt.distanceMeters, tt.durationSeconds)
			if math.Abs(got-tt.wantVDOT) > tt.tolerance {
				t.Errorf("CalculateVDOT() = %v, want %v (±%v)", got, tt.wantVDOT, tt.tolerance)
			}
		})
	}
}

func TestCalculateVDOT_EdgeCases(t *testing.T) {
	if got := CalculateVDOT(Distance5K, 0); got != 0 {
		t.Errorf("CalculateVDOT with zero duration = %v, want 0", got)
	}
	if got := CalculateVDOT(Distance5K, 3600); got > 30 {
		t.Errorf("CalculateVDOT for very slow time = %v, want <= 30", got)
	}
	if got := CalculateVDOT(Distance5K, 600); got < 80 {
		t.Errorf("CalculateVDOT for very fast time = %v, want >= 80", got)
	}
}

func TestPredictTimeRoundTrip(t *testing.T) {
	tests := []struct {
		distance float64
		duration int
	}{
		{Distance5K, 1200},
		{Distance10K, 2400},
		{DistanceHalfMara, 5400},
		{DistanceMarathon, 11400},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%.0fm in %ds", tt.distance, tt.duration), func(t *testing.T) {
			vdot := CalculateVDOT(tt.distance, tt.duration)
			predicted := PredictTime(vdot, tt.distance)

			tolerance := float64(tt.duration) * 0.02
			if math.Abs(float64(predicted-tt.duration)) > tolerance {
				t.Errorf("PredictTime(%.1f) = %d, want %d (±%.0f)", vdot, predicted, tt.duration, tolerance)
			}
		})
	}
}

func TestRacePaceSecPerKm(t *testing.T) {
	// VDOT 50 runs 5K in 1140 s
	if got := RacePaceSecPerKm(50, Distance5K); math.Abs(got-228) > 0.5 {
		t.Errorf("RacePaceSecPerKm(50, 5K) = %v, want 228", got)
	}
	if got := RacePaceSecPerKm(0, Distance5K); got != 0 {
		t.Errorf("RacePaceSecPerKm(0, 5K) = %v, want 0", got)
	}
	if fast, slow := RacePaceSecPerKm(50, Distance5K), RacePaceSecPerKm(50, DistanceMarathon); fast >= slow {
		t.Errorf("5K pace %v should be faster than marathon pace %v", fast, slow)
	}
}

func TestGetVDOTLabel(t *testing.T) {
	tests := []struct {
		vdot      float64
		wantLabel string
	}{
		{80, "Elite"},
		{65, "Highly Competitive"},
		{55, "Competitive"},
		{45, "Advanced Recreational"},
		{38, "Intermediate"},
		{30, "Beginner"},
		{25, "Novice"},
		{0, "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.wantLabel, func(t *testing.T) {
			if got := GetVDOTLabel(tt.vdot); got != tt.wantLabel {
				t.Errorf("GetVDOTLabel(%v) = %v, want %v", tt.vdot, got, tt.wantLabel)
			}
		})
	}
}

func TestEstimateVDOT(t *testing.T) {
	activities := []store.Activity{
		{ID: "easy", Distance: 8000, MovingTime: 2880},            // not a race distance
		{ID: "5k", Distance: 5020, MovingTime: 1140},              // ~50
		{ID: "10k-slow", Distance: Distance10K, MovingTime: 3300}, // well below 50
		{ID: "no-time", Distance: Distance5K},
	}

	got := EstimateVDOT(activities)
	if math.Abs(got-50) > 1.5 {
		t.Errorf("EstimateVDOT() = %v, want ~50", got)
	}

	if got := EstimateVDOT(activities[:1]); got != 0 {
		t.Errorf("EstimateVDOT(no standard distance) = %v, want 0", got)
	}
}
