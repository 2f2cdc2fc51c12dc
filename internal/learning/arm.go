package learning

// Arm is a discrete coaching strategy whose outcomes are tracked
type Arm string

const (
	ArmNeutral       Arm = "NEUTRAL"
	ArmFreqUp        Arm = "FREQ_UP"
	ArmHoldAbsorb    Arm = "HOLD_ABSORB"
	ArmProtectDeload Arm = "PROTECT_DELOAD"
)

// Arms lists the known arms in their canonical order. Ties in the
// recommendation are broken by this order.
var Arms = []Arm{ArmNeutral, ArmFreqUp, ArmHoldAbsorb, ArmProtectDeload}

// Policy reasons
const (
	ReasonHardRedFlag            = "HARD_RED_FLAG"
	ReasonRunFloorGapHighStress  = "RUN_FLOOR_GAP_HIGH_STRESS"
	ReasonProtectMonotonyFatigue = "PROTECT_HIGH_MONOTONY_OR_FATIGUE"
	ReasonRunFloorGap            = "RUN_FLOOR_GAP"
	ReasonHoldNormalLoad         = "HOLD_ABSORB_NORMAL_LOAD"
	ReasonDefaultHold            = "DEFAULT_HOLD"
)

// ArmDecision is the strategy chosen for a day
type ArmDecision struct {
	Arm              Arm
	LearningEligible bool
	PolicyReason     string
}

// armRule is one guarded entry of the decision table
type armRule struct {
	reason   string
	arm      Arm
	eligible bool
	when     func(s Signals, k ContextKey) bool
}

// armRules is evaluated top to bottom; the first matching guard wins.
var armRules = []armRule{
	{
		reason: ReasonHardRedFlag,
		arm:    ArmNeutral,
		when:   func(s Signals, _ ContextKey) bool { return s.HardRedFlag },
	},
	{
		reason:   ReasonRunFloorGapHighStress,
		arm:      ArmFreqUp,
		eligible: true,
		when: func(s Signals, k ContextKey) bool {
			return s.RunFloorGap && k.Stress == StressHigh
		},
	},
	{
		reason:   ReasonProtectMonotonyFatigue,
		arm:      ArmProtectDeload,
		eligible: true,
		when: func(_ Signals, k ContextKey) bool {
			return k.Monotony == MonotonyHigh ||
				k.Drift == DriftBad ||
				(k.HRV == HRVLow && k.Sleep == SleepLow)
		},
	},
	{
		reason:   ReasonRunFloorGap,
		arm:      ArmFreqUp,
		eligible: true,
		when:     func(s Signals, _ ContextKey) bool { return s.RunFloorGap },
	},
	{
		reason:   ReasonHoldNormalLoad,
		arm:      ArmHoldAbsorb,
		eligible: true,
		when: func(_ Signals, k ContextKey) bool {
			return k.Stress != StressHigh && k.Drift == DriftOK && k.HRV != HRVLow
		},
	},
}

// DeriveStrategyArm picks the coaching arm for the given signals.
// A hard red flag always yields NEUTRAL and excludes the day from learning.
func DeriveStrategyArm(s Signals) ArmDecision {
	k := DeriveContextKey(s)
	for _, r := range armRules {
		if r.when(s, k) {
			return ArmDecision{Arm: r.arm, LearningEligible: r.eligible, PolicyReason: r.reason}
		}
	}
	return ArmDecision{Arm: ArmNeutral, LearningEligible: true, PolicyReason: ReasonDefaultHold}
}
