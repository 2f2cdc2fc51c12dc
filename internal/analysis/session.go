package analysis

import (
	"fmt"
	"math"
	"strings"
)

// ICUInterval is one pre-segmented interval as delivered by intervals.icu
type ICUInterval struct {
	Type               string   `json:"type"` // WORK or RECOVERY
	Distance           float64  `json:"distance"`
	MovingTime         float64  `json:"moving_time"`
	ElapsedTime        float64  `json:"elapsed_time"`
	AverageSpeed       float64  `json:"average_speed"`
	GAP                *float64 `json:"gap,omitempty"`
	AverageHeartrate   *float64 `json:"average_heartrate,omitempty"`
	AverageCadence     *float64 `json:"average_cadence,omitempty"`
	AverageRespiration *float64 `json:"average_respiration,omitempty"`
	AverageTemp        *float64 `json:"average_temp,omitempty"`
	AverageGradient    *float64 `json:"average_gradient,omitempty"`
	Zone               *int     `json:"zone,omitempty"`
	Intensity          *float64 `json:"intensity,omitempty"`
	GroupID            *string  `json:"group_id,omitempty"`
}

// Rep is a WORK segment that passed the extraction filter
type Rep struct {
	Idx          int // position in the source interval list
	MovingSec    float64
	DistM        float64
	Speed        float64 // m/s
	GapSpeed     *float64
	PaceSecPerKm float64
	HR           *float64
	Cad          *float64
	Resp         *float64
	Temp         *float64
}

// Intent is the planned purpose of an interval session
type Intent string

const (
	IntentRacepace  Intent = "racepace"
	IntentThreshold Intent = "threshold"
	IntentVO2       Intent = "vo2"
	IntentUnknown   Intent = "unknown"
)

// ParseIntent maps free text to an Intent; unrecognised input is unknown
func ParseIntent(s string) Intent {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "racepace", "race", "rp":
		return IntentRacepace
	case "threshold", "tempo", "lt":
		return IntentThreshold
	case "vo2", "vo2max":
		return IntentVO2
	default:
		return IntentUnknown
	}
}

// ClassifiedIntent is the intent inferred from what was actually run
type ClassifiedIntent string

const (
	ClassifiedRacepace  ClassifiedIntent = "racepace_like"
	ClassifiedThreshold ClassifiedIntent = "threshold_like"
	ClassifiedVO2       ClassifiedIntent = "vo2_like"
	ClassifiedMixed     ClassifiedIntent = "mixed"
	ClassifiedUnknown   ClassifiedIntent = "unknown"
)

// EvalConfig holds the scoring thresholds. It is read-only during evaluation.
type EvalConfig struct {
	HRMax              float64    `json:"hr_max"`
	RepMinSec          float64    `json:"rep_min_sec"`
	RepMaxSec          float64    `json:"rep_max_sec"`
	RepMinSpeed        float64    `json:"rep_min_speed"` // m/s
	MicroSegmentMinSec float64    `json:"micro_segment_min_sec"`
	VO2HRFracMin       float64    `json:"vo2_hr_frac_min"`
	ThresholdHRFrac    [2]float64 `json:"threshold_hr_frac"` // inclusive
	RacepaceHRFrac     [2]float64 `json:"racepace_hr_frac"`  // [lo, hi)
	LongRepMinSec      float64    `json:"long_rep_min_sec"`
	CVGood             float64    `json:"cv_good"`
	CVBad              float64    `json:"cv_bad"`
	FadeOK             float64    `json:"fade_ok"`
	FadeBad            float64    `json:"fade_bad"`
	CadenceDropWarn    float64    `json:"cadence_drop_warn"` // spm
	RespRiseWarn       float64    `json:"resp_rise_warn"`    // breaths/min
	DefaultDoseKm      float64    `json:"default_dose_km"`
}

// DefaultEvalConfig returns the standard scoring thresholds
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		HRMax:              190,
		RepMinSec:          40,
		RepMaxSec:          1200,
		RepMinSpeed:        2.5,
		MicroSegmentMinSec: 20,
		VO2HRFracMin:       0.90,
		ThresholdHRFrac:    [2]float64{0.82, 0.92},
		RacepaceHRFrac:     [2]float64{0.84, 0.90},
		LongRepMinSec:      360,
		CVGood:             0.03,
		CVBad:              0.08,
		FadeOK:             0.03,
		FadeBad:            0.10,
		CadenceDropWarn:    5,
		RespRiseWarn:       6,
		DefaultDoseKm:      3.0,
	}
}

// DoseTarget is the planned quality volume. Distance wins over time when both are set.
type DoseTarget struct {
	DistanceM *float64
	TimeSec   *float64
}

// SessionScores is the evaluation of one interval session
type SessionScores struct {
	Execution   int
	Dose        int
	Strain      int
	IntentMatch int
	Overall     int

	Reps        []Rep
	PaceSource  string   // "gap" or "speed"
	PaceCV      *float64 // coefficient of variation of rep pace
	FadePct     *float64 // last vs first rep pace, percent; negative is a faster finish
	AvgHRFrac   *float64
	AvgRepSec   float64
	CadenceDrop *float64 // spm, first minus last rep
	RespDelta   *float64 // breaths/min, last minus first rep

	QualityDistanceM float64
	QualityTimeSec   float64

	Intent ClassifiedIntent
	Notes  []string
}

// ExtractReps keeps the WORK segments that look like real repetitions,
// in their original order.
func ExtractReps(intervals []ICUInterval, cfg EvalConfig) []Rep {
	var reps []Rep
	for i, iv := range intervals {
		if !strings.EqualFold(iv.Type, "WORK") {
			continue
		}
		if !isFinite(iv.Distance) || !isFinite(iv.MovingTime) || !isFinite(iv.AverageSpeed) {
			continue
		}

		speed := iv.AverageSpeed
		if speed <= 0 && iv.MovingTime > 0 {
			speed = iv.Distance / iv.MovingTime
		}
		if iv.Distance <= 0 || speed <= 0 {
			continue
		}
		if iv.MovingTime < cfg.MicroSegmentMinSec ||
			iv.MovingTime < cfg.RepMinSec || iv.MovingTime > cfg.RepMaxSec {
			continue
		}
		if speed < cfg.RepMinSpeed {
			continue
		}

		reps = append(reps, Rep{
			Idx:          i,
			MovingSec:    iv.MovingTime,
			DistM:        iv.Distance,
			Speed:        speed,
			GapSpeed:     positive(iv.GAP),
			PaceSecPerKm: 1000 / speed,
			HR:           positive(iv.AverageHeartrate),
			Cad:          positive(iv.AverageCadence),
			Resp:         positive(iv.AverageRespiration),
			Temp:         finite(iv.AverageTemp),
		})
	}
	return reps
}

// EvaluateSession scores an interval session against its planned intent
func EvaluateSession(intervals []ICUInterval, planned Intent, dose DoseTarget, cfg EvalConfig) SessionScores {
	s := SessionScores{Reps: ExtractReps(intervals, cfg)}

	s.Execution = scoreExecution(&s, cfg)
	s.Dose = scoreDose(&s, dose, cfg)
	s.Strain = scoreStrain(&s, cfg)
	s.Intent = classifyIntent(&s, cfg)
	s.IntentMatch = scoreIntentMatch(planned, s.Intent)

	overall := 0.35*float64(s.Execution)/100 +
		0.25*float64(s.Dose)/100 +
		0.20*float64(s.Strain)/100 +
		0.20*float64(s.IntentMatch)/100
	s.Overall = toScore(overall)

	return s
}

func scoreExecution(s *SessionScores, cfg EvalConfig) int {
	if len(s.Reps) < 2 {
		s.Notes = append(s.Notes, fmt.Sprintf("execution: %d rep(s), need at least 2", len(s.Reps)))
		return 0
	}

	useGap := true
	for _, r := range s.Reps {
		if r.GapSpeed == nil {
			useGap = false
			break
		}
	}
	s.PaceSource = "speed"
	if useGap {
		s.PaceSource = "gap"
	}

	paces := make([]float64, len(s.Reps))
	for i, r := range s.Reps {
		speed := r.Speed
		if useGap {
			speed = *r.GapSpeed
		}
		paces[i] = 1000 / speed
	}

	cv := coefficientOfVariation(paces)
	fade := (paces[len(paces)-1] - paces[0]) / paces[0]
	fadePct := fade * 100
	s.PaceCV = &cv
	s.FadePct = &fadePct

	cvScore := descending(cv, cfg.CVGood, cfg.CVBad)
	fadeScore := 1.0
	if fade > 0 {
		fadeScore = descending(fade, cfg.FadeOK, cfg.FadeBad)
	}
	if fade > cfg.FadeBad {
		s.Notes = append(s.Notes, fmt.Sprintf("execution: pace faded %.1f%%", fadePct))
	}

	return toScore(0.7*cvScore + 0.3*fadeScore)
}

func scoreDose(s *SessionScores, dose DoseTarget, cfg EvalConfig) int {
	for _, r := range s.Reps {
		s.QualityDistanceM += r.DistM
		s.QualityTimeSec += r.MovingSec
	}

	switch {
	case dose.DistanceM != nil && *dose.DistanceM > 0:
		return toScore(s.QualityDistanceM / *dose.DistanceM)
	case dose.TimeSec != nil && *dose.TimeSec > 0:
		return toScore(s.QualityTimeSec / *dose.TimeSec)
	}

	target := cfg.DefaultDoseKm * 1000
	if target <= 0 {
		return 0
	}
	s.Notes = append(s.Notes, fmt.Sprintf("dose: no target, scored against %.1f km", cfg.DefaultDoseKm))
	return toScore(s.QualityDistanceM / target)
}

func scoreStrain(s *SessionScores, cfg EvalConfig) int {
	if len(s.Reps) < 2 {
		return 50
	}
	first, last := s.Reps[0], s.Reps[len(s.Reps)-1]

	cadence := 1.0
	if first.Cad != nil && last.Cad != nil {
		drop := *first.Cad - *last.Cad
		s.CadenceDrop = &drop
		if drop > cfg.CadenceDropWarn {
			cadence = 0.5
			s.Notes = append(s.Notes, fmt.Sprintf("strain: cadence dropped %.0f spm", drop))
		}
	}

	resp := 1.0
	if first.Resp != nil && last.Resp != nil {
		delta := *last.Resp - *first.Resp
		s.RespDelta = &delta
		if delta > cfg.RespRiseWarn {
			resp = 0.7
			s.Notes = append(s.Notes, fmt.Sprintf("strain: respiration rose %.0f br/min", delta))
		}
	}

	return toScore(0.6*cadence + 0.4*resp)
}

func classifyIntent(s *SessionScores, cfg EvalConfig) ClassifiedIntent {
	if len(s.Reps) == 0 {
		return ClassifiedUnknown
	}

	var totalSec, totalHR float64
	var hrCount int
	for _, r := range s.Reps {
		totalSec += r.MovingSec
		if r.HR != nil {
			totalHR += *r.HR
			hrCount++
		}
	}
	s.AvgRepSec = totalSec / float64(len(s.Reps))

	if hrCount == 0 || cfg.HRMax <= 0 {
		s.Notes = append(s.Notes, "intent: no heart rate on reps")
		return ClassifiedUnknown
	}
	frac := totalHR / float64(hrCount) / cfg.HRMax
	s.AvgHRFrac = &frac

	long := s.AvgRepSec >= cfg.LongRepMinSec
	switch {
	case !long && frac >= cfg.VO2HRFracMin:
		return ClassifiedVO2
	case long && frac >= cfg.ThresholdHRFrac[0] && frac <= cfg.ThresholdHRFrac[1]:
		return ClassifiedThreshold
	case !long && frac >= cfg.RacepaceHRFrac[0] && frac < cfg.RacepaceHRFrac[1]:
		return ClassifiedRacepace
	default:
		return ClassifiedMixed
	}
}

func scoreIntentMatch(planned Intent, classified ClassifiedIntent) int {
	switch {
	case planned == IntentUnknown || planned == "":
		return 50
	case string(classified) == string(planned)+"_like":
		return 100
	case classified == ClassifiedMixed:
		return 65
	case classified == ClassifiedUnknown:
		return 50
	default:
		return 35
	}
}

// descending maps v to 1 at or below good, 0 at or above bad, linear between
func descending(v, good, bad float64) float64 {
	if v <= good {
		return 1
	}
	if v >= bad {
		return 0
	}
	return (bad - v) / (bad - good)
}

func coefficientOfVariation(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	if mean == 0 {
		return 0
	}
	var ss float64
	for _, v := range values {
		ss += (v - mean) * (v - mean)
	}
	return math.Sqrt(ss/float64(len(values))) / mean
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// toScore scales a 0..1 value to an integer 0..100
func toScore(v float64) int {
	return int(math.Round(100 * clamp01(v)))
}

func positive(p *float64) *float64 {
	if p == nil || !isFinite(*p) || *p <= 0 {
		return nil
	}
	v := *p
	return &v
}

func finite(p *float64) *float64 {
	if p == nil || !isFinite(*p) {
		return nil
	}
	v := *p
	return &v
}
