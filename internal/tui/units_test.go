package tui

import (
	"testing"

	"runcoach/internal/config"
)

func TestUnits(t *testing.T) {
	km := NewUnits(config.DisplayConfig{DistanceUnit: "km", PaceUnit: "min/km"})
	mi := NewUnits(config.DisplayConfig{DistanceUnit: "mi", PaceUnit: "min/mi"})

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"km distance", km.FormatDistance(10000), "10.0 km"},
		{"mi distance", mi.FormatDistance(1609.34), "1.0 mi"},
		{"km pace", km.FormatPaceWithUnit(3000, 10000), "5:00/km"},
		{"mi pace", mi.FormatPaceWithUnit(480, 1609.34), "8:00/mi"},
		{"no distance", km.FormatPaceWithUnit(3000, 0), "-"},
		{"target pace", km.FormatPaceSecPerKm(245), "4:05/km"},
		{"pace label", mi.PaceLabel(), "min/mi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}

	if got := mi.ConvertPaceData([]float64{5, 0}); got[0] < 8.04 || got[0] > 8.05 || got[1] != 0 {
		t.Errorf("ConvertPaceData = %v", got)
	}
}
