package plan

import (
	"math"
	"testing"
	"time"
)

func TestShouldSelectBaseKeyByQuota(t *testing.T) {
	t.Run("bounds", func(t *testing.T) {
		if ShouldSelectBaseKeyByQuota(0, "2024-05-01") {
			t.Error("fraction 0 should never select")
		}
		if !ShouldSelectBaseKeyByQuota(1, "2024-05-01") {
			t.Error("fraction 1 should always select")
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		for _, day := range []string{"2024-01-01", "2024-02-29", "2025-12-31"} {
			a := ShouldSelectBaseKeyByQuota(0.4, day)
			b := ShouldSelectBaseKeyByQuota(0.4, day)
			if a != b {
				t.Errorf("ShouldSelectBaseKeyByQuota(0.4, %s) not stable", day)
			}
		}
	})

	t.Run("monotone in fraction", func(t *testing.T) {
		day := "2024-03-17"
		prev := false
		for f := 0.0; f <= 1.0; f += 0.05 {
			got := ShouldSelectBaseKeyByQuota(f, day)
			if prev && !got {
				t.Fatalf("selected at a lower fraction but not at %.2f", f)
			}
			prev = got
		}
	})

	t.Run("approximate frequency", func(t *testing.T) {
		start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
		const days = 2000
		var hits int
		for i := 0; i < days; i++ {
			if ShouldSelectBaseKeyByQuota(0.3, start.AddDate(0, 0, i).Format("2006-01-02")) {
				hits++
			}
		}
		if share := float64(hits) / days; math.Abs(share-0.3) > 0.1 {
			t.Errorf("share = %.3f, want about 0.3", share)
		}
	})
}
