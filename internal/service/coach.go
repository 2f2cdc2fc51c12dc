package service

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"runcoach/internal/analysis"
	"runcoach/internal/config"
	"runcoach/internal/learning"
	"runcoach/internal/plan"
	"runcoach/internal/store"
)

// ErrInvalidOutcome is returned for an outcome other than GOOD, NEUTRAL or BAD
var ErrInvalidOutcome = errors.New("invalid outcome")

// ErrUnknownArm is returned when an arm override names no known arm
var ErrUnknownArm = errors.New("unknown arm")

// ManualArmReason marks events whose arm was set by the athlete
const ManualArmReason = "MANUAL_ARM"

// CoachService derives learning signals, records outcomes and plans weeks
type CoachService struct {
	store *store.DB
	cfg   *config.Config
	zones analysis.HRZones
	log   zerolog.Logger
}

// NewCoachService creates a new coaching service
func NewCoachService(db *store.DB, cfg *config.Config, log zerolog.Logger) *CoachService {
	zones := analysis.HRZones{RestingHR: cfg.Athlete.RestingHR, MaxHR: cfg.Athlete.MaxHR}
	if zones.RestingHR <= 0 || zones.MaxHR <= zones.RestingHR {
		zones = analysis.DefaultZones()
	}
	return &CoachService{
		store: db,
		cfg:   cfg,
		zones: zones,
		log:   log,
	}
}

// SignalReport is the athlete state for a day with the evidence behind it
type SignalReport struct {
	Day        time.Time
	Signals    learning.Signals
	Decision   learning.ArmDecision
	ContextKey learning.ContextKey
	WeekRunKm  float64
	Warnings   []string
}

// Signals derives the learner signals for day from stored wellness,
// activities and session evaluations
func (c *CoachService) Signals(day time.Time) (*SignalReport, error) {
	day = civilDay(day)
	r := &SignalReport{Day: day}

	if err := c.wellnessSignals(r); err != nil {
		return nil, err
	}
	if err := c.loadSignals(r); err != nil {
		return nil, err
	}
	if err := c.sessionSignals(r); err != nil {
		return nil, err
	}

	r.Signals.WarningCount = len(r.Warnings)
	r.Decision = learning.DeriveStrategyArm(r.Signals)
	r.ContextKey = learning.DeriveContextKey(r.Signals)
	return r, nil
}

// wellnessSignals fills red flags, HRV, sleep and stress from wellness entries
func (c *CoachService) wellnessSignals(r *SignalReport) error {
	from := r.Day.AddDate(0, 0, -HRVBaselineDays).Format(dayLayout)
	days, err := c.store.ListWellness(from, r.Day.Format(dayLayout))
	if err != nil {
		return fmt.Errorf("loading wellness: %w", err)
	}
	if len(days) == 0 {
		return nil
	}

	// entries from yesterday on describe the athlete today
	recentFrom := r.Day.AddDate(0, 0, -1).Format(dayLayout)
	var recent []store.WellnessDay
	for _, d := range days {
		if d.Date >= recentFrom {
			recent = append(recent, d)
		}
	}

	for i := len(recent) - 1; i >= 0; i-- {
		d := recent[i]
		if d.Sick || d.Injured {
			r.Signals.HardRedFlag = true
			r.Warnings = append(r.Warnings, fmt.Sprintf("sick or injured on %s", d.Date))
			break
		}
	}
	if d := latest(recent, func(w store.WellnessDay) bool { return w.Stress != nil }); d != nil {
		r.Signals.LifeStress = stressLevels[*d.Stress]
	}
	if d := latest(recent, func(w store.WellnessDay) bool { return w.SleepHours != nil }); d != nil {
		r.Signals.RecoverySignals.SleepLow = *d.SleepHours < SleepLowHours
	}

	r.Signals.HRVDeltaPct = deltaPct(days, func(w store.WellnessDay) *float64 { return w.HRV })

	if rise := delta(days, func(w store.WellnessDay) *float64 { return w.RestingHR }); rise != nil && *rise > RestingHRRiseBpm {
		r.Warnings = append(r.Warnings, fmt.Sprintf("resting HR up %.0f bpm", *rise))
	}
	return nil
}

// loadSignals fills the run floor gap and monotony from the last 7 days of runs
func (c *CoachService) loadSignals(r *SignalReport) error {
	from := r.Day.AddDate(0, 0, -6)
	activities, err := c.store.ListActivitiesBetween(from, r.Day.AddDate(0, 0, 1))
	if err != nil {
		return fmt.Errorf("loading activities: %w", err)
	}

	for _, a := range activities {
		r.WeekRunKm += a.Distance / 1000
	}
	r.Signals.RunFloorGap = c.cfg.Plan.RunFloorKm > 0 && r.WeekRunKm < c.cfg.Plan.RunFloorKm

	loads := analysis.DailyLoadsFromActivities(activities, c.zones)
	r.Signals.Monotony = analysis.Monotony(loads, r.Day)
	return nil
}

// sessionSignals fills drift and strain warnings from recent evaluations
func (c *CoachService) sessionSignals(r *SignalReport) error {
	activities, evals, err := c.store.ListEvaluatedActivities(RecentSessionLimit)
	if err != nil {
		return fmt.Errorf("loading evaluations: %w", err)
	}

	driftFrom := r.Day.AddDate(0, 0, -DriftLookbackDays)
	warnFrom := r.Day.AddDate(0, 0, -WarningWindowDays)
	driftSet := false

	// newest first
	for i, a := range activities {
		d := civilDay(a.StartDateLocal)
		if d.After(r.Day) {
			continue
		}
		e := evals[i]
		if !driftSet && !d.Before(driftFrom) && e.Decoupling != nil {
			r.Signals.DriftSignal = analysis.DriftSignal(e.Decoupling)
			driftSet = true
		}
		if d.After(warnFrom) && e.RepCount > 0 && e.Strain < LowStrainScore {
			r.Warnings = append(r.Warnings, fmt.Sprintf("strain flagged on %s (%d)", d.Format(dayLayout), e.Strain))
		}
	}
	return nil
}

// RecordOutcome logs the outcome of the strategy in effect on day. An empty
// arm records the arm derived from the day's signals.
func (c *CoachService) RecordOutcome(day time.Time, outcome learning.Outcome, arm learning.Arm) (*learning.Event, error) {
	switch outcome {
	case learning.OutcomeGood, learning.OutcomeNeutral, learning.OutcomeBad:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidOutcome, outcome)
	}
	if arm != "" && !slices.Contains(learning.Arms, arm) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownArm, arm)
	}

	r, err := c.Signals(day)
	if err != nil {
		return nil, err
	}

	e := &learning.Event{
		Day:              r.Day,
		Arm:              r.Decision.Arm,
		Outcome:          outcome,
		ContextKey:       r.ContextKey.String(),
		LearningEligible: r.Decision.LearningEligible,
		PolicyReason:     r.Decision.PolicyReason,
	}
	if arm != "" && arm != r.Decision.Arm {
		e.Arm = arm
		e.PolicyReason = ManualArmReason
	}

	if err := c.store.SaveLearningEvent(e); err != nil {
		return nil, fmt.Errorf("saving learning event: %w", err)
	}

	c.log.Info().
		Str("day", r.Day.Format(dayLayout)).
		Str("arm", string(e.Arm)).
		Str("outcome", string(e.Outcome)).
		Str("context", e.ContextKey).
		Bool("eligible", e.LearningEligible).
		Msg("learning event")

	return e, nil
}

// LearningReport is the learner's view of one day
type LearningReport struct {
	Signals   *SignalReport
	Evidence  learning.Evidence
	Narrative string
}

// Learning computes the evidence for the context the athlete is in on day
func (c *CoachService) Learning(day time.Time) (*LearningReport, error) {
	r, err := c.Signals(day)
	if err != nil {
		return nil, err
	}

	events, err := c.store.ListLearningEvents(r.Day)
	if err != nil {
		return nil, fmt.Errorf("loading learning events: %w", err)
	}

	ev := learning.ComputeLearningEvidence(events, r.Day, r.ContextKey.String(), c.cfg.LearningOptions())
	return &LearningReport{
		Signals:   r,
		Evidence:  ev,
		Narrative: learning.BuildLearningNarrative(ev),
	}, nil
}

// PlanOptions are per-request plan overrides
type PlanOptions struct {
	Deload bool
	Record bool // store the week's progression step for the following week
}

// WeeklyPlan is a planned week with the context it was built from
type WeeklyPlan struct {
	WeekStart time.Time
	Result    plan.WeeklyPlanResult
	Learning  *LearningReport
	Fitness   analysis.FitnessMetrics
	Form      string
	VDOT      float64
}

// PlanWeek selects the plan for the week containing date. Signals are taken
// as of the day before the week starts. The progression step is only stored
// when opts.Record is set, so viewing a week never changes the next one.
func (c *CoachService) PlanWeek(date time.Time, opts PlanOptions) (*WeeklyPlan, error) {
	weekStart := mondayOf(date)
	asOf := weekStart.AddDate(0, 0, -1)

	lr, err := c.Learning(asOf)
	if err != nil {
		return nil, err
	}

	history, err := c.store.ListActivitiesBetween(weekStart.AddDate(0, 0, -FitnessDays), weekStart)
	if err != nil {
		return nil, fmt.Errorf("loading activity history: %w", err)
	}

	lastKey, recent, err := c.recentKeys(weekStart)
	if err != nil {
		return nil, err
	}

	prevStep, err := c.previousStep(weekStart)
	if err != nil {
		return nil, err
	}

	vdot := c.cfg.Athlete.VDOT
	if vdot == 0 {
		vdot = analysis.EstimateVDOT(since(history, weekStart.AddDate(0, 0, -VDOTLookbackDays)))
	}

	var daysToRace *int
	if race := c.cfg.RaceDate(); race != nil {
		d := int(civilDay(*race).Sub(weekStart).Hours() / 24)
		daysToRace = &d
	}

	drift := lr.Signals.Signals.DriftSignal
	ctx := plan.WeeklyPlanContext{
		WeekStart:       weekStart,
		Phase:           plan.Phase(c.cfg.Plan.Phase),
		DistanceClass:   plan.DistanceClass(c.cfg.Plan.DistanceClass),
		DaysToRace:      daysToRace,
		RunFloorGap:     lr.Signals.Signals.RunFloorGap,
		DeloadActive:    opts.Deload,
		DriftWarning:    drift == analysis.DriftOrange || drift == analysis.DriftRed,
		LastKeyDate:     lastKey,
		RecentKeys:      recent,
		PreviousStep:    prevStep,
		RunsPerWeek:     c.cfg.Plan.RunsPerWeek,
		BaseKeyQuota:    c.cfg.Plan.BaseKeyQuota,
		PreferredTypes:  config.KeyTypes(c.cfg.Plan.PreferredTypes),
		BannedTypes:     config.KeyTypes(c.cfg.Plan.BannedTypes),
		VDOT:            vdot,
		MinSpacingHours: c.cfg.Plan.MinSpacingHours,
		MaxHardKeys:     c.cfg.Plan.MaxHardKeys,
		Evidence:        &lr.Evidence,
	}

	result := plan.SelectWeeklyPlan(ctx)

	if opts.Record {
		step := prevStep
		if !result.Key.Suppressed() {
			step = result.Key.ProgressionStep
		}
		if err := c.store.SetSyncState(planStepKeyPrefix+weekStart.Format(dayLayout), strconv.Itoa(step)); err != nil {
			return nil, fmt.Errorf("saving progression step: %w", err)
		}
	}

	fitness := analysis.GetCurrentFitness(analysis.DailyLoadsFromActivities(history, c.zones))

	c.log.Info().
		Str("week", weekStart.Format(dayLayout)).
		Str("key", result.Key.KeyLabel).
		Str("learned", string(result.LearnedArm)).
		Str("rationale", result.Rationale).
		Msg("weekly plan")

	return &WeeklyPlan{
		WeekStart: weekStart,
		Result:    result,
		Learning:  lr,
		Fitness:   fitness,
		Form:      analysis.FormDescription(fitness.TSB),
		VDOT:      vdot,
	}, nil
}

// FitnessReport is the training load trend up to a day
type FitnessReport struct {
	Current analysis.FitnessMetrics
	Form    string
	Trend   []analysis.FitnessMetrics
}

// Fitness computes CTL/ATL/TSB from the runs of the FitnessDays before day
func (c *CoachService) Fitness(day time.Time) (*FitnessReport, error) {
	day = civilDay(day)
	activities, err := c.store.ListActivitiesBetween(day.AddDate(0, 0, -FitnessDays), day.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("loading activity history: %w", err)
	}

	r := &FitnessReport{Trend: analysis.CalculateFitnessTrend(analysis.DailyLoadsFromActivities(activities, c.zones))}
	if n := len(r.Trend); n > 0 {
		r.Current = r.Trend[n-1]
	}
	r.Form = analysis.FormDescription(r.Current.TSB)
	return r, nil
}

// recentKeys returns the last key workout date and the key workouts of the
// week before weekStart, taken from evaluated sessions
func (c *CoachService) recentKeys(weekStart time.Time) (*time.Time, []plan.PastKey, error) {
	activities, evals, err := c.store.ListEvaluatedActivities(RecentSessionLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("loading evaluations: %w", err)
	}

	windowStart := weekStart.AddDate(0, 0, -plan.HardKeyWindowDays)
	var last *time.Time
	var recent []plan.PastKey

	for i, a := range activities {
		if !a.StartDateLocal.Before(weekStart) {
			continue
		}
		kt := keyTypeFor(analysis.ClassifiedIntent(evals[i].ClassifiedIntent))
		if kt == "" {
			continue
		}
		date := a.StartDateLocal
		if last == nil || date.After(*last) {
			last = &date
		}
		if !date.Before(windowStart) {
			recent = append(recent, plan.PastKey{Date: date, Type: kt})
		}
	}
	return last, recent, nil
}

// previousStep reads the progression step recorded for the previous week
func (c *CoachService) previousStep(weekStart time.Time) (int, error) {
	v, err := c.store.GetSyncState(planStepKeyPrefix + weekStart.AddDate(0, 0, -7).Format(dayLayout))
	if err != nil {
		return 0, fmt.Errorf("loading progression step: %w", err)
	}
	if v == "" {
		return 0, nil
	}
	step, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing progression step %q: %w", v, err)
	}
	return step, nil
}

// keyTypeFor maps what a session was classified as to the key it counts as
func keyTypeFor(ci analysis.ClassifiedIntent) plan.KeyType {
	switch ci {
	case analysis.ClassifiedVO2:
		return plan.KeyVO2
	case analysis.ClassifiedThreshold:
		return plan.KeyThreshold
	case analysis.ClassifiedRacepace:
		return plan.KeyRacepace
	case analysis.ClassifiedMixed:
		return plan.KeyThreshold
	}
	return ""
}
