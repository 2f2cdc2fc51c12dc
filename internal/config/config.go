package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"runcoach/internal/analysis"
	"runcoach/internal/learning"
	"runcoach/internal/plan"
)

// Config represents the application configuration
type Config struct {
	Intervals IntervalsConfig     `json:"intervals"`
	Athlete   AthleteConfig       `json:"athlete"`
	Display   DisplayConfig       `json:"display"`
	Eval      analysis.EvalConfig `json:"eval"`
	Learning  LearningConfig      `json:"learning"`
	Plan      PlanConfig          `json:"plan"`
	Sync      SyncConfig          `json:"sync"`
}

// IntervalsConfig holds intervals.icu API credentials. The OAuth client
// fields are only needed by the login command.
type IntervalsConfig struct {
	ClientID     string `json:"client_id,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`
	AccessToken  string `json:"access_token"`
	AthleteID    string `json:"athlete_id"` // "0" for the token owner
}

// AthleteConfig holds athlete-specific settings
type AthleteConfig struct {
	RestingHR   float64 `json:"resting_hr"`
	MaxHR       float64 `json:"max_hr"`
	ThresholdHR float64 `json:"threshold_hr"`
	VDOT        float64 `json:"vdot"` // 0 derives it from recent runs
}

// DisplayConfig holds display preferences
type DisplayConfig struct {
	DistanceUnit string `json:"distance_unit"`
	PaceUnit     string `json:"pace_unit"`
}

// LearningConfig tunes the outcome learner
type LearningConfig struct {
	HalfLifeDays     float64 `json:"half_life_days"`
	SmoothingPrior   float64 `json:"smoothing_prior"`
	MinContextWeight float64 `json:"min_context_weight"`
}

// PlanConfig describes the training block the weekly plan is built for
type PlanConfig struct {
	Phase           string   `json:"phase"`          // base, build, peak
	DistanceClass   string   `json:"distance_class"` // 5k, 10k, half, marathon
	RaceDate        string   `json:"race_date"`      // YYYY-MM-DD, optional
	RunsPerWeek     int      `json:"runs_per_week"`
	RunFloorKm      float64  `json:"run_floor_km"` // weekly easy volume below which keys are blocked
	BaseKeyQuota    float64  `json:"base_key_quota"`
	PreferredTypes  []string `json:"preferred_types"`
	BannedTypes     []string `json:"banned_types"`
	MinSpacingHours float64  `json:"min_spacing_hours"`
	MaxHardKeys     int      `json:"max_hard_keys"`
}

// SyncConfig controls how far back activities are fetched
type SyncConfig struct {
	LookbackDays int `json:"lookback_days"`
}

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Intervals: IntervalsConfig{
			AthleteID: "0",
		},
		Athlete: AthleteConfig{
			RestingHR:   analysis.DefaultZones().RestingHR,
			MaxHR:       analysis.DefaultZones().MaxHR,
			ThresholdHR: 168,
		},
		Display: DisplayConfig{
			DistanceUnit: "km",
			PaceUnit:     "min/km",
		},
		Eval: analysis.DefaultEvalConfig(),
		Learning: LearningConfig{
			HalfLifeDays:     learning.DefaultHalfLifeDays,
			SmoothingPrior:   learning.DefaultSmoothingPrior,
			MinContextWeight: learning.DefaultMinContextWeight,
		},
		Plan: PlanConfig{
			Phase:           string(plan.PhaseBase),
			DistanceClass:   string(plan.Class10K),
			RunsPerWeek:     plan.DefaultRunsPerWeek,
			RunFloorKm:      20,
			BaseKeyQuota:    0.5,
			MinSpacingHours: plan.MinKeySpacingHours,
			MaxHardKeys:     plan.MaxHardKeysPerWeek,
		},
		Sync: SyncConfig{
			LookbackDays: 90,
		},
	}
}

// Load reads the configuration from ~/.runcoach/config.json
func Load() (*Config, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadPath(path)
}

// LoadPath reads the configuration from path, fills defaults and applies
// RUNCOACH_* environment overrides
func LoadPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()
	applyEnvOverrides(&cfg)

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Intervals.AthleteID == "" {
		c.Intervals.AthleteID = defaults.Intervals.AthleteID
	}
	if c.Athlete.RestingHR == 0 {
		c.Athlete.RestingHR = defaults.Athlete.RestingHR
	}
	if c.Athlete.MaxHR == 0 {
		c.Athlete.MaxHR = defaults.Athlete.MaxHR
	}
	if c.Athlete.ThresholdHR == 0 {
		c.Athlete.ThresholdHR = defaults.Athlete.ThresholdHR
	}
	if c.Display.DistanceUnit == "" {
		c.Display.DistanceUnit = defaults.Display.DistanceUnit
	}
	if c.Display.PaceUnit == "" {
		c.Display.PaceUnit = defaults.Display.PaceUnit
	}

	// An absent eval section means the standard thresholds, tied to the athlete's max HR
	if c.Eval == (analysis.EvalConfig{}) {
		c.Eval = defaults.Eval
		c.Eval.HRMax = c.Athlete.MaxHR
	}
	if c.Eval.HRMax == 0 {
		c.Eval.HRMax = c.Athlete.MaxHR
	}

	if c.Learning.HalfLifeDays == 0 {
		c.Learning.HalfLifeDays = defaults.Learning.HalfLifeDays
	}
	if c.Learning.SmoothingPrior == 0 {
		c.Learning.SmoothingPrior = defaults.Learning.SmoothingPrior
	}
	if c.Learning.MinContextWeight == 0 {
		c.Learning.MinContextWeight = defaults.Learning.MinContextWeight
	}

	if c.Plan.Phase == "" {
		c.Plan.Phase = defaults.Plan.Phase
	}
	if c.Plan.DistanceClass == "" {
		c.Plan.DistanceClass = defaults.Plan.DistanceClass
	}
	if c.Plan.RunsPerWeek == 0 {
		c.Plan.RunsPerWeek = defaults.Plan.RunsPerWeek
	}
	if c.Plan.MinSpacingHours == 0 {
		c.Plan.MinSpacingHours = defaults.Plan.MinSpacingHours
	}
	if c.Plan.MaxHardKeys == 0 {
		c.Plan.MaxHardKeys = defaults.Plan.MaxHardKeys
	}

	if c.Sync.LookbackDays == 0 {
		c.Sync.LookbackDays = defaults.Sync.LookbackDays
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RUNCOACH_ACCESS_TOKEN"); v != "" {
		cfg.Intervals.AccessToken = v
	}
	if v := os.Getenv("RUNCOACH_ATHLETE_ID"); v != "" {
		cfg.Intervals.AthleteID = v
	}
	if v := os.Getenv("RUNCOACH_MAX_HR"); v != "" {
		if hr, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Athlete.MaxHR = hr
			cfg.Eval.HRMax = hr
		}
	}
	if v := os.Getenv("RUNCOACH_PHASE"); v != "" {
		cfg.Plan.Phase = v
	}
	if v := os.Getenv("RUNCOACH_RACE_DATE"); v != "" {
		cfg.Plan.RaceDate = v
	}
}

// Save writes the configuration to ~/.runcoach/config.json
func Save(cfg *Config) error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}
	return SavePath(cfg, path)
}

// SavePath writes the configuration to path
func SavePath(cfg *Config, path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// CreateExample creates an example config file in the default location if none exists
func CreateExample() (string, error) {
	path, err := getConfigPath()
	if err != nil {
		return "", err
	}
	return path, CreateExamplePath(path)
}

// CreateExamplePath writes an example config to path unless a file is already there
func CreateExamplePath(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	example := DefaultConfig()
	example.Intervals.AccessToken = "YOUR_ACCESS_TOKEN"
	example.Plan.PreferredTypes = []string{string(plan.KeyThreshold), string(plan.KeyVO2)}

	return SavePath(&example, path)
}

// Validate checks if the config has required fields
func (c *Config) Validate() error {
	if c.Intervals.AccessToken == "" || c.Intervals.AccessToken == "YOUR_ACCESS_TOKEN" {
		return errors.New("intervals.access_token is required - run 'runcoach login' or create an API token at https://intervals.icu/settings")
	}

	// Validate display units
	if c.Display.DistanceUnit != "" && c.Display.DistanceUnit != "km" && c.Display.DistanceUnit != "mi" {
		return fmt.Errorf("display.distance_unit must be \"km\" or \"mi\", got %q", c.Display.DistanceUnit)
	}
	if c.Display.PaceUnit != "" && c.Display.PaceUnit != "min/km" && c.Display.PaceUnit != "min/mi" {
		return fmt.Errorf("display.pace_unit must be \"min/km\" or \"min/mi\", got %q", c.Display.PaceUnit)
	}

	// Validate threshold_hr < max_hr when both are set
	if c.Athlete.ThresholdHR > 0 && c.Athlete.MaxHR > 0 && c.Athlete.ThresholdHR >= c.Athlete.MaxHR {
		return fmt.Errorf("athlete.threshold_hr (%v) must be less than athlete.max_hr (%v)", c.Athlete.ThresholdHR, c.Athlete.MaxHR)
	}

	if c.Eval.CVGood >= c.Eval.CVBad {
		return fmt.Errorf("eval.cv_good (%v) must be less than eval.cv_bad (%v)", c.Eval.CVGood, c.Eval.CVBad)
	}
	if c.Eval.FadeOK >= c.Eval.FadeBad {
		return fmt.Errorf("eval.fade_ok (%v) must be less than eval.fade_bad (%v)", c.Eval.FadeOK, c.Eval.FadeBad)
	}

	switch plan.Phase(c.Plan.Phase) {
	case plan.PhaseBase, plan.PhaseBuild, plan.PhasePeak:
	default:
		return fmt.Errorf("plan.phase must be base, build or peak, got %q", c.Plan.Phase)
	}
	if _, ok := plan.TaperDays[plan.DistanceClass(c.Plan.DistanceClass)]; !ok {
		return fmt.Errorf("plan.distance_class must be 5k, 10k, half or marathon, got %q", c.Plan.DistanceClass)
	}
	if c.Plan.RaceDate != "" {
		if _, err := time.Parse("2006-01-02", c.Plan.RaceDate); err != nil {
			return fmt.Errorf("plan.race_date must be YYYY-MM-DD, got %q", c.Plan.RaceDate)
		}
	}
	if c.Plan.BaseKeyQuota < 0 || c.Plan.BaseKeyQuota > 1 {
		return fmt.Errorf("plan.base_key_quota must be between 0 and 1, got %v", c.Plan.BaseKeyQuota)
	}
	for _, t := range append(append([]string{}, c.Plan.PreferredTypes...), c.Plan.BannedTypes...) {
		if !plan.KnownKeyType(plan.KeyType(t)) {
			return fmt.Errorf("plan: unknown key type %q", t)
		}
	}

	return nil
}

// LearningOptions returns the learner options
func (c *Config) LearningOptions() learning.Options {
	return learning.Options{
		HalfLifeDays:     c.Learning.HalfLifeDays,
		SmoothingPrior:   c.Learning.SmoothingPrior,
		MinContextWeight: c.Learning.MinContextWeight,
	}
}

// RaceDate returns the parsed race date, or nil when none is configured
func (c *Config) RaceDate() *time.Time {
	if c.Plan.RaceDate == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", c.Plan.RaceDate)
	if err != nil {
		return nil
	}
	return &t
}

// KeyTypes converts configured key type names
func KeyTypes(names []string) []plan.KeyType {
	out := make([]plan.KeyType, 0, len(names))
	for _, n := range names {
		out = append(out, plan.KeyType(n))
	}
	return out
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".runcoach"), nil
}
