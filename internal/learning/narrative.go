package learning

import (
	"fmt"
	"strings"
)

// BuildLearningNarrative renders the evidence as a short plain-text summary
func BuildLearningNarrative(ev Evidence) string {
	var b strings.Builder

	if k, err := ParseContextKey(ev.RequestedContextKey); err == nil {
		fmt.Fprintf(&b, "Context: %s\n", describeContext(k))
	} else {
		fmt.Fprintf(&b, "Context: %s\n", ev.RequestedContextKey)
	}

	if ev.Recommendation.GlobalFallback {
		fmt.Fprintf(&b, "Too little history in this context (weight %.1f), using all contexts.\n", ev.ContextWeight)
	}

	for _, s := range ev.Arms {
		if s.N == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s: good %.0f%% / neutral %.0f%% / bad %.0f%% (n=%d, n_eff=%.1f)\n",
			s.Arm, s.PGood*100, s.PNeutral*100, s.PBad*100, s.N, s.NEff)
	}

	rec := ev.Recommendation
	if rec.NEff == 0 {
		fmt.Fprintf(&b, "Recommendation: %s (confidence: %s, no history, n_eff=0.0)", rec.Arm, rec.Confidence)
	} else {
		fmt.Fprintf(&b, "Recommendation: %s (confidence: %s, n_eff=%.1f)", rec.Arm, rec.Confidence, rec.NEff)
	}

	return b.String()
}

func describeContext(k ContextKey) string {
	rf := "no"
	if k.RunFloorGap {
		rf = "yes"
	}
	return strings.Join([]string{
		"RunFloorGap=" + rf,
		"Stress=" + string(k.Stress),
		"HRV=" + string(k.HRV),
		"Drift=" + string(k.Drift),
		"Sleep=" + string(k.Sleep),
		"Monotony=" + string(k.Monotony),
	}, ", ")
}
