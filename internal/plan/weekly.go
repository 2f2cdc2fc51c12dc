package plan

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"runcoach/internal/learning"
)

// WorkoutKind classifies a planned session
type WorkoutKind string

const (
	WorkoutEasy WorkoutKind = "easy"
	WorkoutLong WorkoutKind = "long"
	WorkoutKey  WorkoutKind = "key"
)

// PlannedWorkout is one session of the week
type PlannedWorkout struct {
	Date       time.Time
	Kind       WorkoutKind
	Key        bool
	Label      string
	Provenance string // which rule put it there
}

// WeeklyPlanContext is the input to SelectWeeklyPlan
type WeeklyPlanContext struct {
	WeekStart     time.Time // first day of the planned week
	Phase         Phase
	DistanceClass DistanceClass
	DaysToRace    *int // counted from WeekStart

	RunFloorGap  bool
	DeloadActive bool
	DriftWarning bool

	LastKeyDate    *time.Time
	RecentKeys     []PastKey
	PreviousStep   int
	RunsPerWeek    int
	BaseKeyQuota   float64 // share of base-phase weeks whose key is the long run
	SelectedType   KeyType
	PreferredTypes []KeyType
	BannedTypes    []KeyType
	VDOT           float64

	MinSpacingHours float64
	MaxHardKeys     int

	Evidence *learning.Evidence // nil when no learning history is available
}

// WeeklyPlanResult is the selected week
type WeeklyPlanResult struct {
	Workouts  []PlannedWorkout
	Key       KeySuggestion
	Rationale string

	RunfloorBlocked    bool
	DeloadApplied      bool
	TaperApplied       bool
	ProgressionHeld    bool
	FrequencyIncreased bool

	LearnedArm learning.Arm // empty unless the evidence was confident enough to use
}

// Defaults for the weekly layout
const (
	DefaultRunsPerWeek = 4
	keyDayOffset       = 1 // Tuesday for a Monday week start
	longDayOffset      = 5 // Saturday
)

// easyDayOrder is the order in which remaining days receive easy runs
var easyDayOrder = []int{3, 0, 4, 2, 6}

type weekState struct {
	ctx       WeeklyPlanContext
	arm       learning.Arm
	res       WeeklyPlanResult
	blockKey  bool
	scaling   int
	hold      bool
	extraRuns int
	reasons   []string
}

// weekRule is one override; rules run in order and every matching rule applies
type weekRule struct {
	name  string
	when  func(w *weekState) bool
	apply func(w *weekState)
}

var weekRules = []weekRule{
	{
		name: "runfloor",
		when: func(w *weekState) bool { return w.ctx.RunFloorGap },
		apply: func(w *weekState) {
			w.res.RunfloorBlocked = true
			w.blockKey = true
			w.reasons = append(w.reasons, "run floor gap: key workouts blocked until easy volume is back")
		},
	},
	{
		name: "deload",
		when: func(w *weekState) bool {
			return w.ctx.DeloadActive || w.arm == learning.ArmProtectDeload
		},
		apply: func(w *weekState) {
			w.res.DeloadApplied = true
			w.scaling--
			w.hold = true
			w.extraRuns--
			w.reasons = append(w.reasons, "deload: reduced key volume and one run fewer")
		},
	},
	{
		name: "taper",
		when: func(w *weekState) bool { return InTaper(w.ctx.DistanceClass, w.ctx.DaysToRace) },
		apply: func(w *weekState) {
			w.res.TaperApplied = true
			w.reasons = append(w.reasons, fmt.Sprintf("taper: race in %d days", *w.ctx.DaysToRace))
		},
	},
	{
		name: "drift",
		when: func(w *weekState) bool { return w.ctx.DriftWarning },
		apply: func(w *weekState) {
			w.hold = true
			w.reasons = append(w.reasons, "drift warning: progression held")
		},
	},
	{
		name: "freq_up",
		when: func(w *weekState) bool {
			return w.arm == learning.ArmFreqUp && !w.res.DeloadApplied
		},
		apply: func(w *weekState) {
			w.res.FrequencyIncreased = true
			w.extraRuns++
			w.reasons = append(w.reasons, "learned FREQ_UP: one extra easy run")
		},
	},
	{
		name: "hold_absorb",
		when: func(w *weekState) bool { return w.arm == learning.ArmHoldAbsorb },
		apply: func(w *weekState) {
			w.hold = true
			w.reasons = append(w.reasons, "learned HOLD_ABSORB: progression held")
		},
	},
}

// SelectWeeklyPlan builds the week's workouts. Hard constraints (run floor,
// spacing, quota) are never overridden by learned preference.
func SelectWeeklyPlan(ctx WeeklyPlanContext) WeeklyPlanResult {
	w := &weekState{ctx: ctx}

	if ev := ctx.Evidence; ev != nil && ev.Recommendation.Confidence != learning.ConfidenceLow {
		w.arm = ev.Recommendation.Arm
		w.res.LearnedArm = w.arm
	}

	for _, r := range weekRules {
		if r.when(w) {
			r.apply(w)
		}
	}
	w.res.ProgressionHeld = w.hold

	if w.blockKey {
		w.res.Key = suppressed("", "run floor gap")
	} else {
		w.res.Key = w.selectKey()
		if w.res.Key.Suppressed() {
			w.reasons = append(w.reasons, w.res.Key.KeyLabel)
		}
		if w.res.Key.TaperApplied {
			w.res.TaperApplied = true
		}
	}

	w.res.Workouts = w.layout()

	if len(w.reasons) == 0 {
		w.reasons = append(w.reasons, "standard week")
	}
	w.res.Rationale = strings.Join(w.reasons, "; ")
	return w.res
}

func (w *weekState) selectKey() KeySuggestion {
	ctx := w.ctx

	selected := ctx.SelectedType
	if selected == "" && ctx.Phase == PhaseBase {
		selected = KeyHills
		day := ctx.WeekStart.AddDate(0, 0, longDayOffset).Format("2006-01-02")
		if ShouldSelectBaseKeyByQuota(ctx.BaseKeyQuota, day) {
			selected = KeyLongRun
		}
	}

	kc := KeyContext{
		Phase:          ctx.Phase,
		DistanceClass:  ctx.DistanceClass,
		DaysToRace:     ctx.DaysToRace,
		SelectedType:   selected,
		PreferredTypes: ctx.PreferredTypes,
		BannedTypes:    ctx.BannedTypes,
		PreviousStep:   ctx.PreviousStep,
		ScalingLevel:   w.scaling,
		HoldProgress:   w.hold,
		VDOT:           ctx.VDOT,
	}

	// spacing and quota are judged on the workout that will actually be run,
	// on the day the layout puts it
	_, actual, _ := resolveKeyType(kc)
	kc.Date = ctx.WeekStart.AddDate(0, 0, keyDayOffset)
	if actual == KeyLongRun {
		kc.Date = ctx.WeekStart.AddDate(0, 0, longDayOffset)
	}

	kc.Spacing = EvaluateKeySpacing(ctx.LastKeyDate, kc.Date, ctx.MinSpacingHours)
	kc.HardDecision = KeyHardDecision{Allowed: true}
	if actual.IsHard() {
		kc.HardDecision = EvaluateKeyHardQuota(ctx.RecentKeys, kc.Date, ctx.MaxHardKeys)
	}

	return GetWeeklyKeySuggestion(kc)
}

func (w *weekState) layout() []PlannedWorkout {
	start := w.ctx.WeekStart
	runs := w.ctx.RunsPerWeek
	if runs <= 0 {
		runs = DefaultRunsPerWeek
	}
	runs = clampInt(runs+w.extraRuns, 2, 7)

	var out []PlannedWorkout
	key := w.res.Key
	keyIsLong := key.KeyType == KeyLongRun

	if !key.Suppressed() && !keyIsLong {
		out = append(out, PlannedWorkout{
			Date:       start.AddDate(0, 0, keyDayOffset),
			Kind:       WorkoutKey,
			Key:        true,
			Label:      key.KeyLabel,
			Provenance: "key",
		})
	}

	long := PlannedWorkout{
		Date:       start.AddDate(0, 0, longDayOffset),
		Kind:       WorkoutLong,
		Label:      "long run",
		Provenance: "long",
	}
	switch {
	case keyIsLong:
		long.Kind = WorkoutKey
		long.Key = true
		long.Label = key.KeyLabel
		long.Provenance = "key"
	case w.res.TaperApplied:
		long.Label = "long run (shortened)"
		long.Provenance = "taper"
	case w.res.DeloadApplied:
		long.Label = "long run (reduced)"
		long.Provenance = "deload"
	}
	out = append(out, long)

	provenance := "easy"
	if w.res.RunfloorBlocked {
		provenance = "runfloor"
	}
	for i := 0; len(out) < runs && i < len(easyDayOrder); i++ {
		p := provenance
		if w.res.FrequencyIncreased && len(out) == runs-1 {
			p = "freq_up"
		}
		out = append(out, PlannedWorkout{
			Date:       start.AddDate(0, 0, easyDayOrder[i]),
			Kind:       WorkoutEasy,
			Label:      "easy run",
			Provenance: p,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}
