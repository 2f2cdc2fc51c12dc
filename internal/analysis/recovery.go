package analysis

import (
	"math"
	"sort"
	"strings"

	"runcoach/internal/store"
)

// Stream holds index-aligned raw samples. A nil heart rate entry marks a
// sensor dropout at that index only.
type Stream struct {
	Time           []float64  // seconds, strictly increasing
	Heartrate      []*float64 // bpm
	VelocitySmooth []float64  // m/s
}

// StreamFromPoints converts persisted stream points into a Stream.
// A missing velocity becomes NaN and is never treated as work.
func StreamFromPoints(points []store.StreamPoint) Stream {
	s := Stream{
		Time:           make([]float64, len(points)),
		Heartrate:      make([]*float64, len(points)),
		VelocitySmooth: make([]float64, len(points)),
	}
	for i, p := range points {
		s.Time[i] = float64(p.TimeOffset)
		if p.Heartrate != nil && *p.Heartrate > 0 {
			hr := float64(*p.Heartrate)
			s.Heartrate[i] = &hr
		}
		if p.VelocitySmooth != nil {
			s.VelocitySmooth[i] = *p.VelocitySmooth
		} else {
			s.VelocitySmooth[i] = math.NaN()
		}
	}
	return s
}

// RecoveryOptions tunes work detection for one session
type RecoveryOptions struct {
	IntervalType     string  // "vo2", "racepace", "threshold"; anything else uses the default split
	ActivityAvgSpeed float64 // m/s, floor for the work threshold when > 0
}

// RecoveryMetrics summarises heart rate recovery 60 s after each work interval.
// HRR60Count is nil only when the input stream was unusable.
type RecoveryMetrics struct {
	HRR60Count  *int
	HRR60Median *float64
	HRR60Min    *float64
	HRR60Max    *float64
}

// Work detection guardrails
const (
	MinWorkSec       = 30.0
	MinRecoverySec   = 60.0
	MaxDipSec        = 5.0
	HRRWindowSec     = 60.0
	HRRToleranceSec  = 5.0
	MinSpeedContrast = 0.5 // m/s between the slow and fast speed clusters
)

// workFraction places the work threshold between the slow and fast cluster means
func workFraction(intervalType string) float64 {
	switch strings.ToLower(intervalType) {
	case "threshold":
		return 0.4
	default: // vo2, racepace
		return 0.5
	}
}

// detectedInterval is a work phase found in a stream, as sample indices
type detectedInterval struct {
	start, end int
}

// ComputeRecoveryMetrics detects work/recovery cycles in the stream and
// aggregates the HRR60 of every qualifying work interval.
func ComputeRecoveryMetrics(s Stream, opts RecoveryOptions) RecoveryMetrics {
	n := len(s.Time)
	if n == 0 || len(s.Heartrate) != n || len(s.VelocitySmooth) != n {
		return RecoveryMetrics{}
	}

	threshold, ok := workThreshold(s.VelocitySmooth, opts)
	if !ok {
		return aggregateHRR(nil)
	}

	work := make([]bool, n)
	for i, v := range s.VelocitySmooth {
		work[i] = isFinite(v) && v >= threshold
	}

	phases := findWorkPhases(s.Time, work)

	var values []float64
	for i, p := range phases {
		if s.Time[p.end]-s.Time[p.start] < MinWorkSec {
			continue
		}

		recoveryEnd := s.Time[n-1]
		if i+1 < len(phases) {
			recoveryEnd = s.Time[phases[i+1].start]
		}
		if recoveryEnd-s.Time[p.end] < MinRecoverySec {
			continue
		}

		if v, ok := hrr60(s, p.end); ok {
			values = append(values, v)
		}
	}

	return aggregateHRR(values)
}

// workThreshold returns the speed above which a sample counts as work.
// It reports false when the session has no usable speed contrast.
func workThreshold(speeds []float64, opts RecoveryOptions) (float64, bool) {
	finite := make([]float64, 0, len(speeds))
	for _, v := range speeds {
		if isFinite(v) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return 0, false
	}
	sort.Float64s(finite)

	low, high := speedClusters(finite)
	if high-low < MinSpeedContrast {
		return 0, false
	}

	threshold := low + (high-low)*workFraction(opts.IntervalType)
	if opts.ActivityAvgSpeed > 0 && threshold < opts.ActivityAvgSpeed {
		threshold = opts.ActivityAvgSpeed
	}
	return threshold, true
}

// speedClusters splits ascending speeds into a slow and a fast group at the
// cut that maximises the between-group variance, and returns the group means.
// The split does not depend on how much of the session is work.
func speedClusters(sorted []float64) (low, high float64) {
	n := len(sorted)
	var total float64
	for _, v := range sorted {
		total += v
	}
	low, high = sorted[0], sorted[n-1]

	best := -1.0
	var sum float64
	for i := 0; i < n-1; i++ {
		sum += sorted[i]
		if sorted[i] == sorted[i+1] {
			continue
		}
		n0, n1 := float64(i+1), float64(n-i-1)
		m0, m1 := sum/n0, (total-sum)/n1
		if v := n0 * n1 * (m1 - m0) * (m1 - m0); v > best {
			best = v
			low, high = m0, m1
		}
	}
	if best < 0 {
		// every sample has the same speed
		return sorted[0], sorted[0]
	}
	return low, high
}

// findWorkPhases groups work samples into phases, bridging short dips
func findWorkPhases(times []float64, work []bool) []detectedInterval {
	var phases []detectedInterval
	cur := detectedInterval{start: -1}

	for i, w := range work {
		if !w {
			continue
		}
		switch {
		case cur.start < 0:
			cur = detectedInterval{start: i, end: i}
		case times[i]-times[cur.end] <= MaxDipSec+1:
			cur.end = i
		default:
			phases = append(phases, cur)
			cur = detectedInterval{start: i, end: i}
		}
	}
	if cur.start >= 0 {
		phases = append(phases, cur)
	}
	return phases
}

// hrr60 measures the heart rate drop from the end of a work phase to the
// sample 60 s later. Any dropout inside the window invalidates the value.
func hrr60(s Stream, end int) (float64, bool) {
	hrEnd := s.Heartrate[end]
	if hrEnd == nil {
		return 0, false
	}

	target := s.Time[end] + HRRWindowSec
	for i := end + 1; i < len(s.Time); i++ {
		t := s.Time[i]
		if t < target {
			if s.Heartrate[i] == nil {
				return 0, false
			}
			continue
		}
		if t > target+HRRToleranceSec || s.Heartrate[i] == nil {
			return 0, false
		}
		return *hrEnd - *s.Heartrate[i], true
	}
	return 0, false
}

func aggregateHRR(values []float64) RecoveryMetrics {
	count := len(values)
	m := RecoveryMetrics{HRR60Count: &count}
	if count == 0 {
		return m
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	median := percentile(sorted, 0.5)
	lo, hi := sorted[0], sorted[count-1]
	m.HRR60Median = &median
	m.HRR60Min = &lo
	m.HRR60Max = &hi
	return m
}

// percentile interpolates linearly inside an ascending slice
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
