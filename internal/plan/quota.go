package plan

import "hash/fnv"

// ShouldSelectBaseKeyByQuota maps a calendar day to a stable yes/no so that
// roughly fraction of all days answer yes. The same day and fraction always
// give the same answer.
func ShouldSelectBaseKeyByQuota(fraction float64, dayISO string) bool {
	if fraction <= 0 {
		return false
	}
	if fraction >= 1 {
		return true
	}
	h := fnv.New32a()
	h.Write([]byte(dayISO))
	return float64(h.Sum32()%10000)/10000 < fraction
}
