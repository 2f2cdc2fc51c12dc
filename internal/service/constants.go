package service

const (
	// Sync batching
	StreamBatchSize = 50
	SyncOverlapDays = 2

	// Signal windows
	HRVBaselineDays   = 28
	MinHRVBaseline    = 3
	DriftLookbackDays = 14
	WarningWindowDays = 7
	VDOTLookbackDays  = 120
	FitnessDays       = 90

	// Warning thresholds
	SleepLowHours      = 6.0
	RestingHRRiseBpm   = 5.0
	LowStrainScore     = 60
	RecentSessionLimit = 50

	// Sessions screen
	TrendSessions = 30

	// Sync state keys
	lastActivitySyncKey = "last_activity_sync"
	lastWellnessSyncKey = "last_wellness_sync"
	planStepKeyPrefix   = "plan_step:"
)

// stressLevels maps intervals.icu stress (1 low .. 4 extreme) to life stress
var stressLevels = map[int]string{
	1: "low",
	2: "med",
	3: "high",
	4: "high",
}

const (
	// HR validation thresholds
	MinValidHeartrate = 50
	MaxValidHeartrate = 220

	// intervals.icu run streams carry single-leg cadence
	CadenceMultiplier = 2.0

	// Minimum speed for pace calculation (m/s) - filters out stopped time
	MinSpeedForPace = 0.5
)
