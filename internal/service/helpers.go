package service

import (
	"fmt"
	"time"

	"runcoach/internal/store"
)

const dayLayout = "2006-01-02"

// StreamStats holds aggregated metrics from stream points
type StreamStats struct {
	HRSum         float64
	HRCount       int
	CadenceSum    float64
	CadenceCount  int
	MovingTime    int     // seconds of moving time (velocity > MinSpeedForPace)
	TotalDistance float64 // total distance in meters
}

// AggregateStreamStats calculates HR and cadence stats from streams
func AggregateStreamStats(streams []store.StreamPoint) StreamStats {
	var stats StreamStats
	for i, p := range streams {
		if isValidHeartrate(p.Heartrate) {
			stats.HRSum += float64(*p.Heartrate)
			stats.HRCount++
		}
		if isValidCadence(p.Cadence) {
			stats.CadenceSum += float64(*p.Cadence) * CadenceMultiplier
			stats.CadenceCount++
		}
		if i > 0 && p.VelocitySmooth != nil && *p.VelocitySmooth > MinSpeedForPace {
			stats.MovingTime += p.TimeOffset - streams[i-1].TimeOffset
		}
	}
	for i := len(streams) - 1; i >= 0; i-- {
		if streams[i].Distance != nil {
			stats.TotalDistance = *streams[i].Distance
			break
		}
	}
	return stats
}

// AvgHR returns the average heart rate, or 0 if no valid readings
func (s StreamStats) AvgHR() float64 {
	if s.HRCount == 0 {
		return 0
	}
	return s.HRSum / float64(s.HRCount)
}

// AvgCadence returns the average cadence, or 0 if no valid readings
func (s StreamStats) AvgCadence() float64 {
	if s.CadenceCount == 0 {
		return 0
	}
	return s.CadenceSum / float64(s.CadenceCount)
}

func isValidHeartrate(hr *int) bool {
	return hr != nil && *hr > MinValidHeartrate && *hr < MaxValidHeartrate
}

func isValidCadence(cad *int) bool {
	return cad != nil && *cad > 0
}

// civilDay truncates t to midnight UTC of its calendar date
func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// mondayOf returns the Monday of the week containing t, at midnight
func mondayOf(t time.Time) time.Time {
	daysFromMonday := (int(t.Weekday()) + 6) % 7 // Monday = 0
	return civilDay(t).AddDate(0, 0, -daysFromMonday)
}

// since keeps activities starting on or after from
func since(activities []store.Activity, from time.Time) []store.Activity {
	var out []store.Activity
	for _, a := range activities {
		if !a.StartDateLocal.Before(from) {
			out = append(out, a)
		}
	}
	return out
}

// latest returns the newest wellness entry matching ok, or nil.
// days must be oldest first.
func latest(days []store.WellnessDay, ok func(store.WellnessDay) bool) *store.WellnessDay {
	for i := len(days) - 1; i >= 0; i-- {
		if ok(days[i]) {
			return &days[i]
		}
	}
	return nil
}

// baseline splits a wellness series into its newest value and the mean of
// the values before it. ok is false without enough history.
func baseline(days []store.WellnessDay, field func(store.WellnessDay) *float64) (current, mean float64, ok bool) {
	idx := -1
	for i := len(days) - 1; i >= 0; i-- {
		if v := field(days[i]); v != nil && *v > 0 {
			idx = i
			current = *v
			break
		}
	}
	if idx < 0 {
		return 0, 0, false
	}

	var sum float64
	var n int
	for _, d := range days[:idx] {
		if v := field(d); v != nil && *v > 0 {
			sum += *v
			n++
		}
	}
	if n < MinHRVBaseline {
		return 0, 0, false
	}
	return current, sum / float64(n), true
}

// deltaPct is the newest value's change against its baseline, in percent
func deltaPct(days []store.WellnessDay, field func(store.WellnessDay) *float64) *float64 {
	current, mean, ok := baseline(days, field)
	if !ok || mean == 0 {
		return nil
	}
	pct := (current - mean) / mean * 100
	return &pct
}

// delta is the newest value's absolute change against its baseline
func delta(days []store.WellnessDay, field func(store.WellnessDay) *float64) *float64 {
	current, mean, ok := baseline(days, field)
	if !ok {
		return nil
	}
	d := current - mean
	return &d
}

// formatDuration formats seconds as "H:MM:SS" or "M:SS"
func formatDuration(seconds int) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
