package learning

import (
	"fmt"
	"strings"
)

// Signals is the athlete state on a given day, as seen by the learner
type Signals struct {
	HardRedFlag     bool     // illness, injury, or any other stop signal
	RunFloorGap     bool     // easy/base volume below the planned floor
	WarningCount    int      // number of soft warnings raised for the day
	LifeStress      string   // reported stress: "low", "med", "high"; empty when not reported
	HRVDeltaPct     *float64 // HRV vs. baseline in percent
	DriftSignal     string   // "green", "orange", "red"
	RecoverySignals RecoverySignals
	Monotony        *float64 // Foster monotony over the last 7 days
}

// RecoverySignals groups subjective recovery markers
type RecoverySignals struct {
	SleepLow bool
}

// StressBucket is the discretised stress level
type StressBucket string

const (
	StressLow  StressBucket = "LOW"
	StressMed  StressBucket = "MED"
	StressHigh StressBucket = "HIGH"
)

// HRVBucket is the discretised HRV deviation
type HRVBucket string

const (
	HRVLow    HRVBucket = "LOW"
	HRVNormal HRVBucket = "NORMAL"
	HRVHigh   HRVBucket = "HIGH"
)

// DriftBucket is the discretised cardiac drift signal
type DriftBucket string

const (
	DriftOK   DriftBucket = "OK"
	DriftWarn DriftBucket = "WARN"
	DriftBad  DriftBucket = "BAD"
)

// SleepBucket is the discretised sleep signal
type SleepBucket string

const (
	SleepOK  SleepBucket = "OK"
	SleepLow SleepBucket = "LOW"
)

// MonotonyBucket is the discretised training monotony
type MonotonyBucket string

const (
	MonotonyLow  MonotonyBucket = "LOW"
	MonotonyHigh MonotonyBucket = "HIGH"
)

// Bucket thresholds
const (
	HRVLowPct        = -8.0
	HRVHighPct       = 8.0
	MonotonyHighCut  = 2.0
	StressHighWarns  = 2
	StressMedWarns   = 1
	GlobalContextKey = "ALL"
)

// ContextKey is the bucketed fingerprint of the athlete state
type ContextKey struct {
	RunFloorGap bool
	Stress      StressBucket
	HRV         HRVBucket
	Drift       DriftBucket
	Sleep       SleepBucket
	Monotony    MonotonyBucket
}

// String renders the key in its canonical pipe-delimited form
func (k ContextKey) String() string {
	rf := "F"
	if k.RunFloorGap {
		rf = "T"
	}
	return fmt.Sprintf("RFgap=%s|stress=%s|hrv=%s|drift=%s|sleep=%s|mono=%s",
		rf, k.Stress, k.HRV, k.Drift, k.Sleep, k.Monotony)
}

// DeriveContextKey maps signals to their context buckets.
// The mapping is total: every input produces a key.
func DeriveContextKey(s Signals) ContextKey {
	return ContextKey{
		RunFloorGap: s.RunFloorGap,
		Stress:      stressBucket(s),
		HRV:         hrvBucket(s.HRVDeltaPct),
		Drift:       driftBucket(s.DriftSignal),
		Sleep:       sleepBucket(s.RecoverySignals),
		Monotony:    monotonyBucket(s.Monotony),
	}
}

func stressBucket(s Signals) StressBucket {
	switch strings.ToLower(strings.TrimSpace(s.LifeStress)) {
	case "high":
		return StressHigh
	case "med", "medium":
		return StressMed
	case "low":
		return StressLow
	}

	switch {
	case s.WarningCount >= StressHighWarns:
		return StressHigh
	case s.WarningCount >= StressMedWarns:
		return StressMed
	default:
		return StressLow
	}
}

func hrvBucket(delta *float64) HRVBucket {
	if delta == nil || *delta != *delta { // nil or NaN
		return HRVNormal
	}
	switch {
	case *delta <= HRVLowPct:
		return HRVLow
	case *delta >= HRVHighPct:
		return HRVHigh
	default:
		return HRVNormal
	}
}

func driftBucket(signal string) DriftBucket {
	switch strings.ToLower(strings.TrimSpace(signal)) {
	case "orange":
		return DriftWarn
	case "red":
		return DriftBad
	default:
		return DriftOK
	}
}

func sleepBucket(r RecoverySignals) SleepBucket {
	if r.SleepLow {
		return SleepLow
	}
	return SleepOK
}

func monotonyBucket(m *float64) MonotonyBucket {
	if m != nil && *m >= MonotonyHighCut {
		return MonotonyHigh
	}
	return MonotonyLow
}

// ParseContextKey parses the canonical string form back into buckets
func ParseContextKey(s string) (ContextKey, error) {
	var k ContextKey
	parts := strings.Split(s, "|")
	if len(parts) != 6 {
		return k, fmt.Errorf("context key %q: want 6 buckets, got %d", s, len(parts))
	}

	for _, part := range parts {
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			return k, fmt.Errorf("context key %q: malformed bucket %q", s, part)
		}
		switch name {
		case "RFgap":
			switch value {
			case "T":
				k.RunFloorGap = true
			case "F":
			default:
				return k, fmt.Errorf("context key %q: bad RFgap %q", s, value)
			}
		case "stress":
			k.Stress = StressBucket(value)
		case "hrv":
			k.HRV = HRVBucket(value)
		case "drift":
			k.Drift = DriftBucket(value)
		case "sleep":
			k.Sleep = SleepBucket(value)
		case "mono":
			k.Monotony = MonotonyBucket(value)
		default:
			return k, fmt.Errorf("context key %q: unknown bucket %q", s, name)
		}
	}

	return k, nil
}
