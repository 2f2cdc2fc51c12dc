package learning

import "time"

// Outcome is the labelled result of a coaching decision
type Outcome string

const (
	OutcomeGood    Outcome = "GOOD"
	OutcomeNeutral Outcome = "NEUTRAL"
	OutcomeBad     Outcome = "BAD"
)

// Event is one historical coaching decision and its outcome.
// Events are immutable once recorded.
type Event struct {
	ID               string
	Day              time.Time
	Arm              Arm
	Outcome          Outcome
	ContextKey       string
	LearningEligible bool
	PolicyReason     string
}

// Options tunes the learner
type Options struct {
	HalfLifeDays     float64
	SmoothingPrior   float64 // Laplace pseudo-count added to each outcome class
	MinContextWeight float64 // decay-weighted events needed before a context is trusted
}

// Defaults
const (
	DefaultSmoothingPrior   = 1.0
	DefaultMinContextWeight = 2.0
)

// DefaultOptions returns the learner defaults
func DefaultOptions() Options {
	return Options{
		HalfLifeDays:     DefaultHalfLifeDays,
		SmoothingPrior:   DefaultSmoothingPrior,
		MinContextWeight: DefaultMinContextWeight,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.HalfLifeDays <= 0 {
		o.HalfLifeDays = d.HalfLifeDays
	}
	if o.SmoothingPrior <= 0 {
		o.SmoothingPrior = d.SmoothingPrior
	}
	if o.MinContextWeight <= 0 {
		o.MinContextWeight = d.MinContextWeight
	}
	return o
}

// ArmStats holds the decay-weighted posterior for one arm
type ArmStats struct {
	Arm      Arm
	N        int     // raw event count
	Weight   float64 // sum of decay weights
	NEff     float64 // effective sample size (Kish)
	PGood    float64
	PNeutral float64
	PBad     float64
}

// Score ranks arms: probability of a good outcome minus probability of a bad one
func (s ArmStats) Score() float64 {
	return s.PGood - s.PBad
}

// ComputeLearningStats aggregates eligible events up to asOfDay into per-arm
// posteriors. Every known arm is present in the result; arms without events
// carry the prior (1/3 each).
func ComputeLearningStats(events []Event, asOfDay time.Time, opts Options) map[Arm]ArmStats {
	opts = opts.withDefaults()

	type acc struct {
		n                  int
		good, neutral, bad float64
		sumW, sumW2        float64
	}
	accs := make(map[Arm]*acc)
	for _, a := range Arms {
		accs[a] = &acc{}
	}

	for _, e := range events {
		if !e.LearningEligible || e.Arm == "" {
			continue
		}
		if DaysBetween(e.Day, asOfDay) < 0 { // after the snapshot
			continue
		}
		w := DecayWeight(e.Day, asOfDay, opts.HalfLifeDays)

		a, ok := accs[e.Arm]
		if !ok {
			a = &acc{}
			accs[e.Arm] = a
		}
		switch e.Outcome {
		case OutcomeGood:
			a.good += w
		case OutcomeBad:
			a.bad += w
		case OutcomeNeutral:
			a.neutral += w
		default:
			continue
		}
		a.n++
		a.sumW += w
		a.sumW2 += w * w
	}

	alpha := opts.SmoothingPrior
	stats := make(map[Arm]ArmStats, len(accs))
	for arm, a := range accs {
		denom := a.sumW + 3*alpha
		s := ArmStats{
			Arm:      arm,
			N:        a.n,
			Weight:   a.sumW,
			PGood:    (a.good + alpha) / denom,
			PNeutral: (a.neutral + alpha) / denom,
			PBad:     (a.bad + alpha) / denom,
		}
		if a.sumW2 > 0 {
			s.NEff = a.sumW * a.sumW / a.sumW2
		}
		stats[arm] = s
	}
	return stats
}
