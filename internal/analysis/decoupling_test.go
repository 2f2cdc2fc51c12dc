package analysis

import (
	"math"
	"testing"

	"runcoach/internal/store"
)

// splitStream builds n seconds of data, switching pace/HR at the midpoint
func splitStream(n int, v1, hr1, v2, hr2 float64) []store.StreamPoint {
	streams := make([]store.StreamPoint, n)
	for i := range streams {
		if i < n/2 {
			streams[i] = makeStreamPoint(i, v1, hr1)
		} else {
			streams[i] = makeStreamPoint(i, v2, hr2)
		}
	}
	return streams
}

func TestAerobicDecoupling(t *testing.T) {
	tests := []struct {
		name     string
		streams  []store.StreamPoint
		expected float64
		delta    float64
		wantOK   bool
	}{
		{
			name:     "empty streams",
			streams:  []store.StreamPoint{},
			expected: 0,
		},
		{
			name:     "insufficient data - less than 2 minutes",
			streams:  splitStream(100, 3.0, 150, 3.0, 150),
			expected: 0,
		},
		{
			name:     "no decoupling - consistent efficiency",
			wantOK:   true,
			streams:  splitStream(200, 3.0, 150, 3.0, 150),
			expected: 0,
			delta:    0.1,
		},
		{
			name:    "positive decoupling - second half slower",
			wantOK:  true,
			streams: splitStream(200, 3.0, 150, 2.7, 150),
			// ((3.0/2.7) - 1) * 100 = 11.1%
			expected: 11.1,
			delta:    0.5,
		},
		{
			name:    "positive decoupling - HR drift at same pace",
			wantOK:  true,
			streams: splitStream(200, 3.0, 150, 3.0, 165),
			// ((165/150) - 1) * 100 = 10%
			expected: 10,
			delta:    0.5,
		},
		{
			name:    "negative split",
			wantOK:  true,
			streams: splitStream(200, 3.0, 150, 3.3, 150),
			// ((3.0/3.3) - 1) * 100 = -9.1%
			expected: -9.1,
			delta:    0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, ok := aerobicDecoupling(tt.streams)
			if ok != tt.wantOK {
				t.Errorf("aerobicDecoupling() ok = %v, want %v", ok, tt.wantOK)
			}
			if math.Abs(result-tt.expected) > tt.delta {
				t.Errorf("aerobicDecoupling() = %v, want %v (±%v)", result, tt.expected, tt.delta)
			}
		})
	}
}

func TestDriftSignal(t *testing.T) {
	tests := []struct {
		name       string
		decoupling *float64
		expected   string
	}{
		{"no data", nil, ""},
		{"negative split", floatPtr(-3), DriftGreen},
		{"small drift", floatPtr(4.9), DriftGreen},
		{"orange boundary", floatPtr(5), DriftOrange},
		{"orange", floatPtr(8), DriftOrange},
		{"red boundary", floatPtr(10), DriftRed},
		{"red", floatPtr(15), DriftRed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := DriftSignal(tt.decoupling); result != tt.expected {
				t.Errorf("DriftSignal() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestCardiacDrift(t *testing.T) {
	rising := make([]store.StreamPoint, 400)
	for i := range rising {
		// HR climbs from 140 to ~160 at constant pace
		rising[i] = makeStreamPoint(i, 3.0, 140+float64(i)/20)
	}

	tests := []struct {
		name     string
		streams  []store.StreamPoint
		avgPace  float64
		expected float64
		delta    float64
	}{
		{
			name:     "insufficient data - less than 4 minutes",
			streams:  splitStream(200, 3.0, 150, 3.0, 150),
			avgPace:  3.0,
			expected: 0,
		},
		{
			name:     "zero avg pace",
			streams:  splitStream(300, 3.0, 150, 3.0, 150),
			avgPace:  0,
			expected: 0,
		},
		{
			name:     "no drift - constant HR",
			streams:  splitStream(300, 3.0, 150, 3.0, 150),
			avgPace:  3.0,
			expected: 0,
			delta:    0.1,
		},
		{
			name:    "positive drift - HR increases over time",
			streams: rising,
			avgPace: 3.0,
			// first quarter avg ~142.5, last quarter avg ~157.5
			expected: 15,
			delta:    1,
		},
		{
			name:     "insufficient steady-state data",
			streams:  splitStream(300, 3.0, 150, 5.0, 150),
			avgPace:  4.0,
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CardiacDrift(tt.streams, tt.avgPace)
			if math.Abs(result-tt.expected) > tt.delta {
				t.Errorf("CardiacDrift() = %v, want %v (±%v)", result, tt.expected, tt.delta)
			}
		})
	}
}
