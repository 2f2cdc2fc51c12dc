package learning

import (
	"sort"
	"time"
)

// Confidence qualifies how much history backs a recommendation
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Recommendation is the arm the evidence currently favours
type Recommendation struct {
	Arm            Arm
	Score          float64
	NEff           float64
	Confidence     Confidence
	GlobalFallback bool
}

// Evidence is the learner output for one context at one point in time.
// It is derived from the event log and never stored on its own.
type Evidence struct {
	AsOf                time.Time
	RequestedContextKey string
	ContextKey          string // RequestedContextKey, or "ALL" after fallback
	ContextWeight       float64
	Arms                []ArmStats // canonical arm order
	Recommendation      Recommendation
}

// ConfidenceFor maps an effective sample size to a qualifier
func ConfidenceFor(nEff float64) Confidence {
	switch {
	case nEff >= 8:
		return ConfidenceHigh
	case nEff >= 3:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// ComputeLearningEvidence scopes the statistics to contextKey when that context
// holds enough decay-weighted history, and falls back to all contexts otherwise.
func ComputeLearningEvidence(events []Event, asOfDay time.Time, contextKey string, opts Options) Evidence {
	opts = opts.withDefaults()

	var scoped []Event
	var weight float64
	for _, e := range events {
		if e.ContextKey != contextKey || !e.LearningEligible || DaysBetween(e.Day, asOfDay) < 0 {
			continue
		}
		scoped = append(scoped, e)
		weight += DecayWeight(e.Day, asOfDay, opts.HalfLifeDays)
	}

	ev := Evidence{
		AsOf:                asOfDay,
		RequestedContextKey: contextKey,
		ContextKey:          contextKey,
		ContextWeight:       weight,
	}

	fallback := contextKey == GlobalContextKey || weight < opts.MinContextWeight
	if fallback {
		scoped = events
		ev.ContextKey = GlobalContextKey
	}

	stats := ComputeLearningStats(scoped, asOfDay, opts)
	ev.Arms = orderedStats(stats)
	ev.Recommendation = recommend(ev.Arms)
	ev.Recommendation.GlobalFallback = fallback
	return ev
}

// orderedStats returns the known arms in canonical order followed by any
// arms outside the canonical list, sorted by name.
func orderedStats(stats map[Arm]ArmStats) []ArmStats {
	out := make([]ArmStats, 0, len(stats))
	seen := make(map[Arm]bool, len(Arms))
	for _, a := range Arms {
		if s, ok := stats[a]; ok {
			out = append(out, s)
			seen[a] = true
		}
	}

	var extra []ArmStats
	for a, s := range stats {
		if !seen[a] {
			extra = append(extra, s)
		}
	}
	sort.Slice(extra, func(i, j int) bool {
		return extra[i].Arm < extra[j].Arm
	})
	return append(out, extra...)
}

func recommend(arms []ArmStats) Recommendation {
	var best *ArmStats
	for i := range arms {
		s := &arms[i]
		if s.N == 0 {
			continue
		}
		if best == nil || s.Score() > best.Score() {
			best = s
		}
	}

	if best == nil {
		return Recommendation{Arm: ArmNeutral, Confidence: ConfidenceLow}
	}
	return Recommendation{
		Arm:        best.Arm,
		Score:      best.Score(),
		NEff:       best.NEff,
		Confidence: ConfidenceFor(best.NEff),
	}
}
