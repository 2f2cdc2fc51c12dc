package plan

import "runcoach/internal/analysis"

// ClassDistance returns the race distance in meters for a class
func ClassDistance(class DistanceClass) float64 {
	switch class {
	case Class5K:
		return analysis.Distance5K
	case ClassHalf:
		return analysis.DistanceHalfMara
	case ClassMarathon:
		return analysis.DistanceMarathon
	default:
		return analysis.Distance10K
	}
}

// TrainingPace returns the target pace in seconds per km for a key workout.
// Hills are run by effort and return 0, as does an unknown VDOT.
func TrainingPace(vdot float64, keyType KeyType, class DistanceClass) float64 {
	if vdot <= 0 {
		return 0
	}
	switch keyType {
	case KeyVO2:
		return analysis.RacePaceSecPerKm(vdot, 3000)
	case KeyThreshold:
		// roughly one-hour race pace
		return analysis.RacePaceSecPerKm(vdot, 15000)
	case KeyRacepace:
		return analysis.RacePaceSecPerKm(vdot, ClassDistance(class))
	case KeyLongRun:
		return analysis.RacePaceSecPerKm(vdot, analysis.DistanceMarathon) * 1.10
	default:
		return 0
	}
}
