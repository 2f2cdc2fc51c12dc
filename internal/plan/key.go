package plan

import (
	"fmt"
	"math"
	"slices"
	"time"
)

// KeyType is the kind of key workout
type KeyType string

const (
	KeyVO2       KeyType = "vo2"
	KeyThreshold KeyType = "threshold"
	KeyRacepace  KeyType = "racepace"
	KeyHills     KeyType = "hills"
	KeyLongRun   KeyType = "long_run"
)

// IsHard reports whether the key type counts against the weekly hard-key quota
func (k KeyType) IsHard() bool {
	return k != KeyLongRun && k != ""
}

// KnownKeyType reports whether k names one of the key workout types
func KnownKeyType(k KeyType) bool {
	switch k {
	case KeyVO2, KeyThreshold, KeyRacepace, KeyHills, KeyLongRun:
		return true
	}
	return false
}

// Phase is the training block the week belongs to
type Phase string

const (
	PhaseBase  Phase = "base"
	PhaseBuild Phase = "build"
	PhasePeak  Phase = "peak"
)

// phaseOrder lists the key types a phase falls back to, best first
var phaseOrder = map[Phase][]KeyType{
	PhaseBase:  {KeyLongRun, KeyHills, KeyThreshold},
	PhaseBuild: {KeyThreshold, KeyVO2, KeyRacepace, KeyLongRun},
	PhasePeak:  {KeyRacepace, KeyVO2, KeyThreshold},
}

// DistanceClass is the target race distance
type DistanceClass string

const (
	Class5K       DistanceClass = "5k"
	Class10K      DistanceClass = "10k"
	ClassHalf     DistanceClass = "half"
	ClassMarathon DistanceClass = "marathon"
)

// TaperDays is the pre-race window in which volume is reduced
var TaperDays = map[DistanceClass]int{
	Class5K:       7,
	Class10K:      10,
	ClassHalf:     14,
	ClassMarathon: 21,
}

// Template is a progression of one key workout
type Template struct {
	ID         string
	Type       KeyType
	Label      string // printf format taking the rep count
	RepsByStep []int
}

// Templates holds one progression per key type
var Templates = map[KeyType]Template{
	KeyVO2:       {ID: "vo2-1000", Type: KeyVO2, Label: "%d x 1000 m @ VO2", RepsByStep: []int{4, 5, 6, 6, 7}},
	KeyThreshold: {ID: "thr-cruise", Type: KeyThreshold, Label: "%d x 8 min @ threshold", RepsByStep: []int{3, 4, 4, 5, 5}},
	KeyRacepace:  {ID: "rp-2k", Type: KeyRacepace, Label: "%d x 2 km @ race pace", RepsByStep: []int{3, 3, 4, 4, 5}},
	KeyHills:     {ID: "hills-90s", Type: KeyHills, Label: "%d x 90 s hills", RepsByStep: []int{6, 8, 8, 10, 10}},
	KeyLongRun:   {ID: "lr-steady", Type: KeyLongRun, Label: "long run, last %d km steady", RepsByStep: []int{2, 3, 4, 5, 6}},
}

// NoKeyPrefix starts the label of every suppressed suggestion
const NoKeyPrefix = "no key"

// MinScalingLevel is the strongest reduction applied to a key workout
const MinScalingLevel = -2

// KeyContext is everything the key suggestion depends on
type KeyContext struct {
	Date           time.Time
	Phase          Phase
	DistanceClass  DistanceClass
	DaysToRace     *int
	SelectedType   KeyType // empty selects the phase default
	PreferredTypes []KeyType
	BannedTypes    []KeyType
	PreviousStep   int
	ScalingLevel   int  // reduction already decided by the caller (deload)
	HoldProgress   bool // repeat PreviousStep instead of advancing
	Spacing        KeySpacing
	HardDecision   KeyHardDecision
	VDOT           float64
}

// KeySuggestion is the key workout proposed for the week
type KeySuggestion struct {
	KeyLabel           string
	KeyType            KeyType
	TemplateID         string
	ProgressionStep    int
	Reps               int
	TaperApplied       bool
	ScalingLevel       int // 0 normal, -1 reduced, -2 strongly reduced
	Substituted        bool
	RequestedType      KeyType
	TargetPaceSecPerKm float64
}

// Suppressed reports whether no key workout was suggested
func (s KeySuggestion) Suppressed() bool {
	return s.KeyType == ""
}

// GetWeeklyKeySuggestion applies spacing, quota, substitution, taper and
// progression, in that order.
func GetWeeklyKeySuggestion(ctx KeyContext) KeySuggestion {
	if !ctx.Spacing.OK {
		return suppressed(ctx.Spacing.Reason, "less than 48 h since the last key workout")
	}
	if !ctx.HardDecision.Allowed {
		return suppressed(ctx.HardDecision.Reason, "weekly hard-key quota reached")
	}

	requested, actual, ok := resolveKeyType(ctx)
	if !ok {
		return suppressed("", "every key type is banned")
	}

	s := KeySuggestion{
		KeyType:       actual,
		RequestedType: requested,
		ScalingLevel:  ctx.ScalingLevel,
	}
	if actual != requested {
		s.Substituted = true
		s.ScalingLevel--
	}

	tpl, ok := Templates[s.KeyType]
	if !ok {
		return suppressed("", fmt.Sprintf("no template for %s", s.KeyType))
	}
	maxStep := len(tpl.RepsByStep) - 1
	step := clampInt(ctx.PreviousStep, 0, maxStep)

	switch {
	case InTaper(ctx.DistanceClass, ctx.DaysToRace):
		s.TaperApplied = true
		s.ScalingLevel--
	case !ctx.HoldProgress:
		step = clampInt(step+1, 0, maxStep)
	}

	if s.ScalingLevel < MinScalingLevel {
		s.ScalingLevel = MinScalingLevel
	}

	s.TemplateID = tpl.ID
	s.ProgressionStep = step
	s.Reps = scaledReps(tpl.RepsByStep[step], s.ScalingLevel)
	s.KeyLabel = fmt.Sprintf(tpl.Label, s.Reps)
	s.TargetPaceSecPerKm = TrainingPace(ctx.VDOT, s.KeyType, ctx.DistanceClass)
	return s
}

// InTaper reports whether the race is inside the class's taper window
func InTaper(class DistanceClass, daysToRace *int) bool {
	if daysToRace == nil || *daysToRace < 0 {
		return false
	}
	window, ok := TaperDays[class]
	if !ok {
		window = TaperDays[Class10K]
	}
	return *daysToRace <= window
}

// VolumeFactor maps a scaling level to the share of template volume kept
func VolumeFactor(scalingLevel int) float64 {
	switch {
	case scalingLevel >= 0:
		return 1.0
	case scalingLevel == -1:
		return 0.75
	default:
		return 0.5
	}
}

func scaledReps(reps, scalingLevel int) int {
	n := int(math.Round(float64(reps) * VolumeFactor(scalingLevel)))
	if n < 1 {
		n = 1
	}
	return n
}

func suppressed(reason, fallback string) KeySuggestion {
	if reason == "" {
		reason = fallback
	}
	return KeySuggestion{KeyLabel: NoKeyPrefix + ": " + reason}
}

func keyAllowed(ctx KeyContext, t KeyType) bool {
	if slices.Contains(ctx.BannedTypes, t) {
		return false
	}
	return len(ctx.PreferredTypes) == 0 || slices.Contains(ctx.PreferredTypes, t)
}

// resolveKeyType returns the requested key type and the one that will
// actually be prescribed once banned or non-preferred types are substituted.
// ok is false when every candidate is banned.
func resolveKeyType(ctx KeyContext) (requested, actual KeyType, ok bool) {
	order := phaseOrder[ctx.Phase]
	if order == nil {
		order = phaseOrder[PhaseBuild]
	}

	requested = ctx.SelectedType
	if requested == "" {
		requested = order[0]
	}
	if keyAllowed(ctx, requested) {
		return requested, requested, true
	}
	actual, ok = substitute(ctx, order)
	return requested, actual, ok
}

// substitute picks the first allowed preferred type, then the phase order
func substitute(ctx KeyContext, order []KeyType) (KeyType, bool) {
	for _, t := range ctx.PreferredTypes {
		if !slices.Contains(ctx.BannedTypes, t) {
			return t, true
		}
	}
	for _, t := range order {
		if !slices.Contains(ctx.BannedTypes, t) {
			return t, true
		}
	}
	return "", false
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
