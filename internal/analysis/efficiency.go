package analysis

import "runcoach/internal/store"

// efficiencyRatio is speed in m/min per heartbeat.
// Typical values range from 1.0 to 2.0; higher is better.
func efficiencyRatio(speedMS, hr float64) float64 {
	return speedMS * 60 / hr
}

// EfficiencyFactor calculates pace:HR efficiency over a stream
func EfficiencyFactor(streams []store.StreamPoint) float64 {
	var totalVelocity, totalHR float64
	var count int

	for _, p := range streams {
		if p.VelocitySmooth != nil && p.Heartrate != nil {
			vel := *p.VelocitySmooth
			hr := float64(*p.Heartrate)
			// Filter noise: must be actually moving with reasonable HR
			if vel > 0.5 && hr > 80 && hr < 220 {
				totalVelocity += vel
				totalHR += hr
				count++
			}
		}
	}

	if count == 0 {
		return 0
	}

	return efficiencyRatio(totalVelocity/float64(count), totalHR/float64(count))
}

// RepEfficiency averages the efficiency ratio over reps that carry heart rate.
// Grade-adjusted speed is preferred when present. Returns nil without HR.
func RepEfficiency(reps []Rep) *float64 {
	var total float64
	var count int
	for _, r := range reps {
		if r.HR == nil || *r.HR <= 0 {
			continue
		}
		speed := r.Speed
		if r.GapSpeed != nil {
			speed = *r.GapSpeed
		}
		total += efficiencyRatio(speed, *r.HR)
		count++
	}
	if count == 0 {
		return nil
	}
	avg := total / float64(count)
	return &avg
}
