package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"runcoach/internal/analysis"
	"runcoach/internal/intervals"
	"runcoach/internal/store"
)

// ActivitySource is the part of the intervals.icu API the sync depends on
type ActivitySource interface {
	GetActivities(ctx context.Context, oldest, newest time.Time) ([]intervals.Activity, error)
	GetActivityIntervals(ctx context.Context, activityID string) ([]analysis.ICUInterval, error)
	GetActivityStreams(ctx context.Context, activityID string) (intervals.Streams, error)
	GetWellness(ctx context.Context, oldest, newest time.Time) ([]intervals.Wellness, error)
}

// SyncService orchestrates syncing data from intervals.icu and scoring sessions
type SyncService struct {
	source       ActivitySource
	store        *store.DB
	eval         analysis.EvalConfig
	lookbackDays int
	log          zerolog.Logger
	now          func() time.Time
}

// NewSyncService creates a new sync service
func NewSyncService(source ActivitySource, db *store.DB, eval analysis.EvalConfig, lookbackDays int, log zerolog.Logger) *SyncService {
	return &SyncService{
		source:       source,
		store:        db,
		eval:         eval,
		lookbackDays: lookbackDays,
		log:          log,
		now:          time.Now,
	}
}

// RateLimitStatus reports the remaining API budget when the source tracks one
func (s *SyncService) RateLimitStatus() (shortRemaining, dailyRemaining int, ok bool) {
	rl, ok := s.source.(interface{ RateLimitStatus() (int, int) })
	if !ok {
		return 0, 0, false
	}
	shortRemaining, dailyRemaining = rl.RateLimitStatus()
	return shortRemaining, dailyRemaining, true
}

// SyncProgress reports progress during sync
type SyncProgress struct {
	Phase           string // "activities", "wellness", "sessions"
	Total           int
	Completed       int
	CurrentActivity string
	Error           error
}

// SyncResult contains the results of a sync operation
type SyncResult struct {
	ActivitiesFetched int
	ActivitiesStored  int
	WellnessDays      int
	SessionsEvaluated int
	IntervalSessions  int // sessions with at least one rep
	TotalActivities   int // runs stored locally after the sync
	Errors            []error
}

// SyncAll performs a full sync: activities -> wellness -> sessions
func (s *SyncService) SyncAll(ctx context.Context, progress chan<- SyncProgress) (*SyncResult, error) {
	if progress != nil {
		defer close(progress)
	}

	result := &SyncResult{}

	if err := s.syncActivities(ctx, progress, result); err != nil {
		return result, fmt.Errorf("syncing activities: %w", err)
	}

	if err := s.syncWellness(ctx, progress, result); err != nil {
		return result, fmt.Errorf("syncing wellness: %w", err)
	}

	if err := s.syncSessions(ctx, progress, result); err != nil {
		return result, fmt.Errorf("evaluating sessions: %w", err)
	}

	total, err := s.store.CountActivities()
	if err != nil {
		return result, fmt.Errorf("counting activities: %w", err)
	}
	result.TotalActivities = total

	s.log.Info().
		Int("fetched", result.ActivitiesFetched).
		Int("stored", result.ActivitiesStored).
		Int("wellness", result.WellnessDays).
		Int("evaluated", result.SessionsEvaluated).
		Int("total", result.TotalActivities).
		Int("errors", len(result.Errors)).
		Msg("sync complete")

	return result, nil
}

// syncWindow returns the date range to fetch for a sync state key.
// Incremental syncs overlap the previous one so late edits are picked up.
func (s *SyncService) syncWindow(key string) (oldest, newest time.Time) {
	newest = s.now()
	oldest = newest.AddDate(0, 0, -s.lookbackDays)

	last, _ := s.store.GetSyncState(key)
	if last != "" {
		if t, err := time.Parse(time.RFC3339, last); err == nil {
			if since := t.AddDate(0, 0, -SyncOverlapDays); since.After(oldest) {
				oldest = since
			}
		}
	}
	return oldest, newest
}

// syncActivities fetches runs from intervals.icu and stores them
func (s *SyncService) syncActivities(ctx context.Context, progress chan<- SyncProgress, result *SyncResult) error {
	oldest, newest := s.syncWindow(lastActivitySyncKey)

	if progress != nil {
		progress <- SyncProgress{Phase: "activities"}
	}

	activities, err := s.source.GetActivities(ctx, oldest, newest)
	if err != nil {
		return err
	}
	result.ActivitiesFetched = len(activities)

	for _, a := range activities {
		if !a.IsRun() {
			continue
		}
		if err := s.store.UpsertActivity(a.ToStore()); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("storing activity %s: %w", a.ID, err))
			continue
		}
		result.ActivitiesStored++
	}

	if progress != nil {
		progress <- SyncProgress{
			Phase:     "activities",
			Total:     result.ActivitiesFetched,
			Completed: result.ActivitiesStored,
		}
	}

	return s.store.SetSyncState(lastActivitySyncKey, newest.Format(time.RFC3339))
}

// syncWellness fetches daily wellness entries used for learning signals
func (s *SyncService) syncWellness(ctx context.Context, progress chan<- SyncProgress, result *SyncResult) error {
	oldest, newest := s.syncWindow(lastWellnessSyncKey)

	if progress != nil {
		progress <- SyncProgress{Phase: "wellness"}
	}

	days, err := s.source.GetWellness(ctx, oldest, newest)
	if err != nil {
		return err
	}

	for _, d := range days {
		if err := s.store.UpsertWellness(d.ToStore()); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("storing wellness %s: %w", d.ID, err))
			continue
		}
		result.WellnessDays++
	}

	return s.store.SetSyncState(lastWellnessSyncKey, newest.Format(time.RFC3339))
}

// syncSessions fetches streams and intervals for new runs and scores them
func (s *SyncService) syncSessions(ctx context.Context, progress chan<- SyncProgress, result *SyncResult) error {
	activities, err := s.store.GetActivitiesNeedingStreams(StreamBatchSize)
	if err != nil {
		return fmt.Errorf("getting activities needing streams: %w", err)
	}

	for i, activity := range activities {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if progress != nil {
			progress <- SyncProgress{
				Phase:           "sessions",
				Total:           len(activities),
				Completed:       i,
				CurrentActivity: activity.Name,
			}
		}

		ev, err := s.EvaluateActivity(ctx, activity.ID, PlannedIntentFromName(activity.Name), analysis.DoseTarget{})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			// Keep going, one bad activity should not stop the sync
			s.log.Warn().Err(err).Str("activity", activity.ID).Msg("evaluate")
			result.Errors = append(result.Errors, fmt.Errorf("activity %s (%s): %w", activity.ID, activity.Name, err))
			continue
		}

		result.SessionsEvaluated++
		if len(ev.Analysis.Scores.Reps) > 0 {
			result.IntervalSessions++
		}
	}

	if progress != nil && len(activities) > 0 {
		progress <- SyncProgress{Phase: "sessions", Total: len(activities), Completed: len(activities)}
	}

	return nil
}

// Evaluation is the outcome of scoring one activity
type Evaluation struct {
	Activity store.Activity
	Planned  analysis.Intent
	Analysis analysis.SessionAnalysis
	Progress store.ProgressPoint
	Delta    *analysis.ProgressDelta // nil for the first session of its intent
}

// EvaluateActivity fetches intervals and streams for a stored activity,
// scores the session and records the evaluation and progress point
func (s *SyncService) EvaluateActivity(ctx context.Context, activityID string, planned analysis.Intent, dose analysis.DoseTarget) (*Evaluation, error) {
	activity, err := s.store.GetActivity(activityID)
	if err != nil {
		return nil, err
	}

	var (
		icuIntervals []analysis.ICUInterval
		streams      intervals.Streams
	)

	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		var err error
		icuIntervals, err = s.source.GetActivityIntervals(gctx, activityID)
		return err
	})
	grp.Go(func() error {
		var err error
		streams, err = s.source.GetActivityStreams(gctx, activityID)
		if errors.Is(err, intervals.ErrNotFound) {
			return nil // manual entries have no streams
		}
		return err
	})
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	points := streams.ToPoints(activityID)
	if len(points) > 0 {
		if err := s.store.SaveStreams(activityID, points); err != nil {
			return nil, fmt.Errorf("saving streams: %w", err)
		}
	}
	if err := s.store.MarkStreamsSynced(activityID); err != nil {
		return nil, fmt.Errorf("marking synced: %w", err)
	}

	sa := analysis.AnalyzeSession(*activity, points, icuIntervals, planned, dose, s.eval)

	eval := sa.Evaluation(activityID, planned, s.now().UTC().Truncate(time.Second))
	if err := s.store.SaveSessionEvaluation(&eval); err != nil {
		return nil, fmt.Errorf("saving evaluation: %w", err)
	}

	history, err := s.store.ListProgressPoints(string(planned))
	if err != nil {
		return nil, fmt.Errorf("loading progress history: %w", err)
	}
	point := analysis.BuildProgressPoint(activity.StartDateLocal.Format("2006-01-02"), activityID, planned, sa.Scores)
	delta := analysis.CompareProgress(history, point)
	if len(sa.Scores.Reps) > 0 {
		err = s.store.SaveProgressPoint(&point)
	} else {
		err = s.store.DeleteProgressPoint(activityID)
	}
	if err != nil {
		return nil, fmt.Errorf("saving progress point: %w", err)
	}

	s.log.Debug().
		Str("activity", activityID).
		Str("planned", string(planned)).
		Str("classified", string(sa.Scores.Intent)).
		Int("reps", len(sa.Scores.Reps)).
		Int("overall", sa.Scores.Overall).
		Msg("evaluated")

	return &Evaluation{
		Activity: *activity,
		Planned:  planned,
		Analysis: sa,
		Progress: point,
		Delta:    delta,
	}, nil
}

// intentWords maps workout name fragments to a planned intent, checked in order
var intentWords = []struct {
	word   string
	intent analysis.Intent
}{
	{"vo2", analysis.IntentVO2},
	{"race pace", analysis.IntentRacepace},
	{"racepace", analysis.IntentRacepace},
	{"threshold", analysis.IntentThreshold},
	{"tempo", analysis.IntentThreshold},
	{"cruise", analysis.IntentThreshold},
}

// PlannedIntentFromName guesses the planned intent from an activity name
func PlannedIntentFromName(name string) analysis.Intent {
	lower := strings.ToLower(name)
	for _, w := range intentWords {
		if strings.Contains(lower, w.word) {
			return w.intent
		}
	}
	for _, field := range strings.Fields(lower) {
		if in := analysis.ParseIntent(field); in != analysis.IntentUnknown {
			return in
		}
	}
	return analysis.IntentUnknown
}
