package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/career-roadmap/internal/db"
	"github.com/jonathan/career-roadmap/internal/events"
	"github.com/jonathan/career-roadmap/internal/logger"
	"github.com/jonathan/career-roadmap/internal/types"
)

// DefaultMaxAttempts bounds the read-apply-write cycle on version conflicts
const DefaultMaxAttempts = 3

// Engine applies progress actions to stored roadmaps
type Engine struct {
	store       db.Store
	publisher   events.Publisher
	log         *logger.Logger
	now         func() time.Time
	maxAttempts int
}

// NewEngine creates a progress engine. A nil publisher disables events.
func NewEngine(store db.Store, publisher events.Publisher, log *logger.Logger) *Engine {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Engine{
		store:       store,
		publisher:   publisher,
		log:         logger.OrNop(log).With("component", "progress"),
		now:         time.Now,
		maxAttempts: DefaultMaxAttempts,
	}
}

// UpdateModuleStatus moves a module to status and persists the roadmap
func (e *Engine) UpdateModuleStatus(ctx context.Context, roadmapID, userID uuid.UUID, moduleID string, status types.ModuleStatus, progress *float64) (*types.Roadmap, error) {
	return e.mutate(ctx, roadmapID, userID, func(rm *types.Roadmap, now time.Time) (*Change, error) {
		return ApplyModuleStatus(rm, moduleID, status, progress, now)
	})
}

// UpdateResourceStatus checks or unchecks a resource and persists the roadmap
func (e *Engine) UpdateResourceStatus(ctx context.Context, roadmapID, userID uuid.UUID, moduleID, resourceID string, completed bool) (*types.Roadmap, error) {
	return e.mutate(ctx, roadmapID, userID, func(rm *types.Roadmap, now time.Time) (*Change, error) {
		return ApplyResourceStatus(rm, moduleID, resourceID, completed, now)
	})
}

// CalculateProgress recomputes the overall progress of a roadmap and persists
// it when the stored value is stale.
func (e *Engine) CalculateProgress(ctx context.Context, roadmapID, userID uuid.UUID) (float64, error) {
	rm, err := e.store.GetRoadmap(ctx, userID, roadmapID)
	if err != nil {
		return 0, err
	}
	overall := OverallProgress(rm)
	if overall == rm.OverallProgress {
		return overall, nil
	}

	for attempt := 1; ; attempt++ {
		rm.OverallProgress = OverallProgress(rm)
		rm.UpdatedAt = e.now().UTC()
		err = e.store.UpdateRoadmap(ctx, rm)
		if err == nil {
			return rm.OverallProgress, nil
		}
		if !errors.Is(err, db.ErrVersionConflict) || attempt >= e.maxAttempts {
			return 0, err
		}
		if rm, err = e.store.GetRoadmap(ctx, userID, roadmapID); err != nil {
			return 0, err
		}
	}
}

type action func(rm *types.Roadmap, now time.Time) (*Change, error)

// mutate runs read, apply, write with optimistic versioning. On a version
// conflict the roadmap is re-read and the action re-applied.
func (e *Engine) mutate(ctx context.Context, roadmapID, userID uuid.UUID, apply action) (*types.Roadmap, error) {
	var (
		rm     *types.Roadmap
		change *Change
	)
	for attempt := 1; ; attempt++ {
		var err error
		rm, err = e.store.GetRoadmap(ctx, userID, roadmapID)
		if err != nil {
			return nil, err
		}
		now := e.now().UTC()
		change, err = apply(rm, now)
		if err != nil {
			return nil, err
		}
		rm.OverallProgress = OverallProgress(rm)
		rm.UpdatedAt = now

		err = e.store.UpdateRoadmap(ctx, rm)
		if err == nil {
			break
		}
		if !errors.Is(err, db.ErrVersionConflict) {
			return nil, fmt.Errorf("failed to save roadmap: %w", err)
		}
		if attempt >= e.maxAttempts {
			return nil, fmt.Errorf("giving up after %d attempts: %w", attempt, err)
		}
		e.log.Debug("roadmap version conflict, retrying", "roadmap_id", roadmapID.String(), "attempt", attempt)
	}

	for i := range change.Records {
		if err := e.store.UpsertProgress(ctx, &change.Records[i]); err != nil {
			return nil, fmt.Errorf("failed to record progress: %w", err)
		}
	}

	if len(change.Unlocked) > 0 {
		e.log.Info("modules unlocked", "roadmap_id", roadmapID.String(), "modules", change.Unlocked)
	}
	evt := events.ProgressEvent{
		UserID:          userID,
		RoadmapID:       roadmapID,
		ModuleID:        change.ModuleID,
		ResourceID:      change.ResourceID,
		Status:          string(change.Status),
		OverallProgress: rm.OverallProgress,
		Unlocked:        change.Unlocked,
		Timestamp:       rm.UpdatedAt,
	}
	if err := e.publisher.Publish(ctx, events.TopicRoadmapProgress, evt); err != nil {
		e.log.Warn("failed to publish progress event", "roadmap_id", roadmapID.String(), "error", err)
	}
	return rm, nil
}
