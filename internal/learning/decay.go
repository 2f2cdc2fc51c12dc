package learning

import (
	"math"
	"time"
)

// DefaultHalfLifeDays is used when a non-positive half-life is given
const DefaultHalfLifeDays = 28.0

// DecayWeight returns the recency weight of an event: 1 on the as-of day,
// halving every halfLifeDays of distance in either direction.
func DecayWeight(eventDay, asOfDay time.Time, halfLifeDays float64) float64 {
	if halfLifeDays <= 0 {
		halfLifeDays = DefaultHalfLifeDays
	}
	dist := math.Abs(float64(DaysBetween(eventDay, asOfDay)))
	return math.Pow(0.5, dist/halfLifeDays)
}

// DaysBetween returns the number of calendar days from a to b.
// Only the date part of each time is considered.
func DaysBetween(a, b time.Time) int {
	da := civilDay(a)
	db := civilDay(b)
	return int(math.Round(db.Sub(da).Hours() / 24))
}

func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
