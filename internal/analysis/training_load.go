package analysis

import (
	"math"
	"sort"
	"time"

	"runcoach/internal/store"
)

// HRZones represents athlete's heart rate zones
type HRZones struct {
	RestingHR float64
	MaxHR     float64
}

// DefaultZones returns sensible defaults if not configured
func DefaultZones() HRZones {
	return HRZones{
		RestingHR: 50,
		MaxHR:     190,
	}
}

// TRIMP calculates Training Impulse (Banister model)
// TRIMP = duration (min) * ΔHR ratio * e^(b * ΔHR ratio)
// where b = 1.92 for men, 1.67 for women (using male default)
func TRIMP(activity store.Activity, streams []store.StreamPoint, zones HRZones) float64 {
	duration := float64(activity.MovingTime) / 60.0

	avgHR := averageHR(streams)
	if avgHR == 0 && activity.AverageHeartrate != nil {
		avgHR = *activity.AverageHeartrate
	}
	if avgHR == 0 {
		return 0
	}

	hrReserve := zones.MaxHR - zones.RestingHR
	if hrReserve <= 0 {
		return 0
	}

	hrRatio := math.Max(0, math.Min(1, (avgHR-zones.RestingHR)/hrReserve))

	b := 1.92
	return duration * hrRatio * math.Exp(b*hrRatio)
}

// ActivityLoad prefers the platform's training load and falls back to TRIMP
// from the activity average heart rate.
func ActivityLoad(activity store.Activity, zones HRZones) float64 {
	if activity.TrainingLoad != nil && *activity.TrainingLoad > 0 {
		return *activity.TrainingLoad
	}
	return TRIMP(activity, nil, zones)
}

// DailyLoad represents training load for a single day
type DailyLoad struct {
	Date time.Time
	Load float64
}

// DailyLoadsFromActivities maps each activity to a load entry on its start day
func DailyLoadsFromActivities(activities []store.Activity, zones HRZones) []DailyLoad {
	loads := make([]DailyLoad, 0, len(activities))
	for _, a := range activities {
		loads = append(loads, DailyLoad{
			Date: dayOf(a.StartDateLocal),
			Load: ActivityLoad(a, zones),
		})
	}
	return loads
}

// MonotonyCap is returned when every day of the week carries the same non-zero load
const MonotonyCap = 10.0

// Monotony computes Foster's training monotony (mean / standard deviation of
// daily load) over the 7 days ending on asOf. Rest days count as zero load.
// Returns nil when the week holds no load at all.
func Monotony(loads []DailyLoad, asOf time.Time) *float64 {
	end := dayOf(asOf)
	start := end.AddDate(0, 0, -6)

	var week [7]float64
	for _, dl := range loads {
		d := dayOf(dl.Date)
		if d.Before(start) || d.After(end) {
			continue
		}
		week[int(d.Sub(start).Hours()/24)] += dl.Load
	}

	var sum float64
	for _, l := range week {
		sum += l
	}
	if sum <= 0 {
		return nil
	}
	mean := sum / 7

	var ss float64
	for _, l := range week {
		ss += (l - mean) * (l - mean)
	}
	sd := math.Sqrt(ss / 7)

	m := MonotonyCap
	if sd > 0 {
		m = math.Min(mean/sd, MonotonyCap)
	}
	return &m
}

// FitnessMetrics represents CTL/ATL/TSB for a day
type FitnessMetrics struct {
	Date time.Time
	CTL  float64 // Chronic Training Load (42-day EMA) - "Fitness"
	ATL  float64 // Acute Training Load (7-day EMA) - "Fatigue"
	TSB  float64 // Training Stress Balance (CTL - ATL) - "Form"
}

// CalculateFitnessTrend computes CTL/ATL/TSB from daily loads
func CalculateFitnessTrend(dailyLoads []DailyLoad) []FitnessMetrics {
	if len(dailyLoads) == 0 {
		return nil
	}

	sorted := append([]DailyLoad(nil), dailyLoads...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	ctlDecay := 2.0 / (42.0 + 1.0)
	atlDecay := 2.0 / (7.0 + 1.0)

	loadMap := make(map[string]float64)
	for _, dl := range sorted {
		loadMap[dl.Date.Format("2006-01-02")] += dl.Load
	}

	startDate := dayOf(sorted[0].Date)
	endDate := dayOf(sorted[len(sorted)-1].Date)

	var metrics []FitnessMetrics
	var ctl, atl float64
	for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, 1) {
		load := loadMap[d.Format("2006-01-02")]

		ctl = ctl + ctlDecay*(load-ctl)
		atl = atl + atlDecay*(load-atl)

		metrics = append(metrics, FitnessMetrics{
			Date: d,
			CTL:  ctl,
			ATL:  atl,
			TSB:  ctl - atl,
		})
	}

	return metrics
}

// GetCurrentFitness returns the most recent CTL/ATL/TSB values
func GetCurrentFitness(dailyLoads []DailyLoad) FitnessMetrics {
	metrics := CalculateFitnessTrend(dailyLoads)
	if len(metrics) == 0 {
		return FitnessMetrics{}
	}
	return metrics[len(metrics)-1]
}

// FormDescription returns a human-readable description of TSB
func FormDescription(tsb float64) string {
	switch {
	case tsb > 25:
		return "Very fresh (possibly detrained)"
	case tsb > 10:
		return "Fresh and ready to race"
	case tsb > 0:
		return "Neutral - good for training"
	case tsb > -10:
		return "Slightly fatigued"
	case tsb > -25:
		return "Tired but building fitness"
	default:
		return "Very fatigued - rest needed"
	}
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
