package analysis

import "runcoach/internal/store"

// Drift signal levels derived from aerobic decoupling
const (
	DriftGreen  = "green"
	DriftOrange = "orange"
	DriftRed    = "red"
)

// Decoupling cut-offs in percent
const (
	DriftOrangePct = 5.0
	DriftRedPct    = 10.0
)

// aerobicDecoupling calculates the pace:HR drift between first and second half
// as a percentage; positive means the second half was less efficient.
// It reports false when there is too little usable data.
func aerobicDecoupling(streams []store.StreamPoint) (float64, bool) {
	if len(streams) < 120 { // Need at least 2 minutes of data
		return 0, false
	}

	mid := len(streams) / 2
	firstEF := calculateHalfEF(streams[:mid])
	secondEF := calculateHalfEF(streams[mid:])

	if firstEF == 0 || secondEF == 0 {
		return 0, false
	}

	// ((first / second) - 1) * 100
	return ((firstEF / secondEF) - 1) * 100, true
}

// calculateHalfEF calculates efficiency factor for a portion of the run
func calculateHalfEF(streams []store.StreamPoint) float64 {
	return EfficiencyFactor(streams)
}

// DriftSignal grades a decoupling percentage as green, orange or red.
// A nil input (no usable stream) yields an empty signal.
func DriftSignal(decoupling *float64) string {
	if decoupling == nil {
		return ""
	}
	switch d := *decoupling; {
	case d >= DriftRedPct:
		return DriftRed
	case d >= DriftOrangePct:
		return DriftOrange
	default:
		return DriftGreen
	}
}

// CardiacDrift measures HR increase during steady-state running
// Filters to segments where pace is relatively constant
// Returns the HR difference (bpm) between first and last quarter
func CardiacDrift(streams []store.StreamPoint, avgPace float64) float64 {
	if len(streams) < 240 || avgPace == 0 { // Need at least 4 minutes
		return 0
	}

	// Steady state: pace within 10% of average
	var steady []store.StreamPoint
	for _, p := range streams {
		if p.VelocitySmooth == nil || p.Heartrate == nil {
			continue
		}
		paceRatio := *p.VelocitySmooth / avgPace
		if paceRatio > 0.9 && paceRatio < 1.1 {
			steady = append(steady, p)
		}
	}

	if len(steady) < 120 {
		return 0
	}

	q := len(steady) / 4
	firstHR := averageHR(steady[:q])
	lastHR := averageHR(steady[len(steady)-q:])
	if firstHR == 0 {
		return 0
	}
	return lastHR - firstHR
}

// averageHR calculates the average heart rate from stream points
func averageHR(streams []store.StreamPoint) float64 {
	var total float64
	var count int
	for _, p := range streams {
		if p.Heartrate != nil && *p.Heartrate > 0 {
			total += float64(*p.Heartrate)
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}
