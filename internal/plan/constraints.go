package plan

import (
	"fmt"
	"time"
)

// Hard constraint defaults
const (
	MinKeySpacingHours = 48.0
	MaxHardKeysPerWeek = 2
	HardKeyWindowDays  = 7
)

// KeySpacing is the outcome of the rest-spacing check
type KeySpacing struct {
	OK             bool
	HoursSinceLast *float64
	Reason         string
}

// KeyHardDecision is the outcome of the rolling hard-key quota check
type KeyHardDecision struct {
	Allowed  bool
	HardKeys int // hard keys inside the window before the date
	Reason   string
}

// PastKey is a key workout already done
type PastKey struct {
	Date time.Time
	Type KeyType
}

// EvaluateKeySpacing checks that at least minHours have passed since the last
// key workout. A nil lastKey always passes.
func EvaluateKeySpacing(lastKey *time.Time, date time.Time, minHours float64) KeySpacing {
	if minHours <= 0 {
		minHours = MinKeySpacingHours
	}
	if lastKey == nil {
		return KeySpacing{OK: true}
	}

	hours := date.Sub(*lastKey).Hours()
	s := KeySpacing{OK: hours >= minHours, HoursSinceLast: &hours}
	if !s.OK {
		s.Reason = fmt.Sprintf("only %.0f h since the last key workout (min %.0f h)", hours, minHours)
	}
	return s
}

// EvaluateKeyHardQuota counts hard keys in the rolling window ending at date
// and allows another one only while the count is below maxKeys.
func EvaluateKeyHardQuota(recent []PastKey, date time.Time, maxKeys int) KeyHardDecision {
	if maxKeys <= 0 {
		maxKeys = MaxHardKeysPerWeek
	}
	from := date.AddDate(0, 0, -HardKeyWindowDays)

	var n int
	for _, k := range recent {
		if !k.Type.IsHard() {
			continue
		}
		if k.Date.After(from) && !k.Date.After(date) {
			n++
		}
	}

	d := KeyHardDecision{Allowed: n < maxKeys, HardKeys: n}
	if !d.Allowed {
		d.Reason = fmt.Sprintf("%d hard keys in the last %d days (max %d)", n, HardKeyWindowDays, maxKeys)
	}
	return d
}
