package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"trailrunner/internal/activity"
	"trailrunner/internal/analysis"
	"trailrunner/internal/config"
	"trailrunner/internal/store"
	"trailrunner/internal/strava"
)

// ActivitySource is the part of the Strava client used by sync
type ActivitySource interface {
	FetchActivities(ctx context.Context, w strava.Window, maxPages, perPage int, onProgress func(fetched int)) ([]strava.Activity, error)
	GetActivityStreams(ctx context.Context, activityID int64) (*strava.Streams, error)
	RateLimitStatus() (shortRemaining, dailyRemaining int)
}

// SyncOptions bound how much one sync fetches
type SyncOptions struct {
	MaxPages    int
	PerPage     int
	HistoryDays int
	StreamBatch int
}

// SyncOptionsFromConfig reads the fetch settings of the analysis section
func SyncOptionsFromConfig(cfg config.AnalysisConfig) SyncOptions {
	return SyncOptions{
		MaxPages:    cfg.MaxPages,
		PerPage:     cfg.PerPage,
		HistoryDays: cfg.HistoryDays,
		StreamBatch: StreamBatchSize,
	}
}

// SyncService orchestrates syncing data from Strava
type SyncService struct {
	client    ActivitySource
	store     *store.Store
	cache     *ActivityCache
	athleteID int64
	opts      SyncOptions
	now       func() time.Time
}

// NewSyncService creates a sync service for one athlete
func NewSyncService(client ActivitySource, st *store.Store, cache *ActivityCache, athleteID int64, opts SyncOptions) *SyncService {
	if opts.StreamBatch <= 0 {
		opts.StreamBatch = StreamBatchSize
	}
	return &SyncService{
		client:    client,
		store:     st,
		cache:     cache,
		athleteID: athleteID,
		opts:      opts,
		now:       time.Now,
	}
}

// Sync phases
const (
	PhaseActivities = "activities"
	PhaseStreams    = "streams"
)

// SyncProgress reports progress during sync
type SyncProgress struct {
	Phase           string
	Total           int
	Completed       int
	CurrentActivity string
}

// SyncResult contains the results of a sync operation. Failures that did not
// stop the sync are collected in Errors.
type SyncResult struct {
	ActivitiesFetched int
	ActivitiesStored  int
	Skipped           int // non-running activities
	StreamsFetched    int
	Since             time.Time
	Truncated         bool // page ceiling reached, newer activities remain
	Errors            []error
}

// Err combines the collected errors, nil when there are none
func (r *SyncResult) Err() error {
	return multierr.Combine(r.Errors...)
}

// SyncAll fetches new activities, stores the runs, then fetches streams for
// a batch of runs that have none. The progress channel is closed on return.
func (s *SyncService) SyncAll(ctx context.Context, progress chan<- SyncProgress) (*SyncResult, error) {
	if progress != nil {
		defer close(progress)
	}

	result := &SyncResult{}

	if err := s.syncActivities(ctx, progress, result); err != nil {
		return result, fmt.Errorf("syncing activities: %w", err)
	}

	if err := s.syncStreams(ctx, progress, result); err != nil {
		return result, fmt.Errorf("syncing streams: %w", err)
	}

	log.WithFields(log.Fields{
		"fetched": result.ActivitiesFetched,
		"stored":  result.ActivitiesStored,
		"streams": result.StreamsFetched,
		"errors":  len(result.Errors),
	}).Info("Sync finished")
	return result, nil
}

// syncActivities fetches activities since the last sync and stores the runs.
// A fetch error keeps the pages already received.
func (s *SyncService) syncActivities(ctx context.Context, progress chan<- SyncProgress, result *SyncResult) error {
	started := s.now()

	after, err := s.store.LastSync()
	if err != nil {
		return fmt.Errorf("reading last sync: %w", err)
	}
	if after.IsZero() && s.opts.HistoryDays > 0 {
		after = started.AddDate(0, 0, -s.opts.HistoryDays)
	}
	result.Since = after

	send(progress, SyncProgress{Phase: PhaseActivities})

	payloads, fetchErr := s.client.FetchActivities(ctx, strava.Window{After: after}, s.opts.MaxPages, s.opts.PerPage, func(fetched int) {
		send(progress, SyncProgress{Phase: PhaseActivities, Total: fetched, Completed: fetched})
	})
	if fetchErr != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.WithError(fetchErr).WithField("partial", len(payloads)).Warn("Activity fetch interrupted")
		result.Errors = append(result.Errors, fmt.Errorf("fetching activities: %w", fetchErr))
	}
	result.ActivitiesFetched = len(payloads)

	records := activity.Normalize(payloads)
	result.Skipped = len(payloads) - len(records)
	if len(records) > 0 {
		if err := s.store.UpsertActivities(records); err != nil {
			return fmt.Errorf("storing activities: %w", err)
		}
		result.ActivitiesStored = len(records)
		s.cache.Invalidate()
	}

	send(progress, SyncProgress{Phase: PhaseActivities, Total: result.ActivitiesFetched, Completed: result.ActivitiesStored})

	// a failed fetch leaves the window open so the next sync retries it
	if fetchErr != nil {
		return nil
	}
	synced := started
	if s.opts.MaxPages > 0 && s.opts.PerPage > 0 && len(payloads) >= s.opts.MaxPages*s.opts.PerPage {
		// pages come oldest first, so resume after the newest one received
		result.Truncated = true
		synced = newestStart(payloads)
		log.WithField("resume_after", synced).Info("Page ceiling reached, next sync continues")
	}
	if err := s.store.SetLastSync(synced); err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("recording sync time: %w", err))
	}
	return nil
}

func newestStart(payloads []strava.Activity) time.Time {
	var newest time.Time
	for _, p := range payloads {
		if p.StartDate.After(newest) {
			newest = p.StartDate
		}
	}
	return newest
}

// syncStreams fetches streams for the newest runs that have none
func (s *SyncService) syncStreams(ctx context.Context, progress chan<- SyncProgress, result *SyncResult) error {
	pending, err := s.store.ActivitiesWithoutStreams(s.athleteID, s.opts.StreamBatch)
	if err != nil {
		return fmt.Errorf("getting activities needing streams: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	for i, r := range pending {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		send(progress, SyncProgress{Phase: PhaseStreams, Total: len(pending), Completed: i, CurrentActivity: r.Name})

		if _, err := s.downloadStreams(ctx, r.ID); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("activity %d (%s): %w", r.ID, r.Name, err))
			if errors.Is(err, strava.ErrDailyQuota) {
				log.Warn("Daily quota reached, remaining streams deferred")
				break
			}
			continue
		}
		result.StreamsFetched++
	}

	send(progress, SyncProgress{Phase: PhaseStreams, Total: len(pending), Completed: len(pending)})
	return nil
}

// FetchStreams returns an activity's streams, downloading and storing them
// on first use.
func (s *SyncService) FetchStreams(ctx context.Context, activityID int64) (analysis.Streams, error) {
	has, err := s.store.HasStreams(activityID)
	if err != nil {
		return analysis.Streams{}, err
	}
	if has {
		points, err := s.store.GetStreams(activityID)
		if err != nil {
			return analysis.Streams{}, fmt.Errorf("loading streams: %w", err)
		}
		return toAnalysisStreams(points), nil
	}

	points, err := s.downloadStreams(ctx, activityID)
	if err != nil {
		return analysis.Streams{}, err
	}
	return toAnalysisStreams(points), nil
}

func (s *SyncService) downloadStreams(ctx context.Context, activityID int64) ([]store.StreamPoint, error) {
	raw, err := s.client.GetActivityStreams(ctx, activityID)
	if err != nil {
		return nil, err
	}
	points := convertStreams(raw)
	if err := s.store.SaveStreams(activityID, points); err != nil {
		return nil, fmt.Errorf("saving streams: %w", err)
	}
	log.WithFields(log.Fields{"activity": activityID, "samples": len(points)}).Debug("Streams stored")
	return points, nil
}

// RateLimitStatus returns the current rate limit status from the client
func (s *SyncService) RateLimitStatus() (shortRemaining, dailyRemaining int) {
	return s.client.RateLimitStatus()
}

func send(progress chan<- SyncProgress, p SyncProgress) {
	if progress != nil {
		progress <- p
	}
}
