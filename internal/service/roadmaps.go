package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/career-roadmap/internal/db"
	"github.com/jonathan/career-roadmap/internal/events"
	"github.com/jonathan/career-roadmap/internal/logger"
	"github.com/jonathan/career-roadmap/internal/matching"
	"github.com/jonathan/career-roadmap/internal/progress"
	"github.com/jonathan/career-roadmap/internal/roadmap"
	"github.com/jonathan/career-roadmap/internal/types"
)

// Generator produces an assembled, enriched roadmap
type Generator interface {
	Run(ctx context.Context, req roadmap.GenerationRequest, userID uuid.UUID, observe roadmap.Observer) (*types.Roadmap, *roadmap.Outcome, error)
}

// DefaultGenerationTimeout bounds one generation request end to end
const DefaultGenerationTimeout = 10 * time.Minute

// RoadmapService generates roadmaps and manages the user's collection
type RoadmapService struct {
	gen       Generator
	store     db.Store
	engine    *progress.Engine
	publisher events.Publisher
	log       *logger.Logger
	timeout   time.Duration
}

// NewRoadmapService creates a RoadmapService. A nil publisher disables events;
// a non-positive timeout uses DefaultGenerationTimeout.
func NewRoadmapService(gen Generator, store db.Store, engine *progress.Engine, publisher events.Publisher, timeout time.Duration, log *logger.Logger) *RoadmapService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	if timeout <= 0 {
		timeout = DefaultGenerationTimeout
	}
	return &RoadmapService{
		gen:       gen,
		store:     store,
		engine:    engine,
		publisher: publisher,
		log:       logger.OrNop(log).With("component", "roadmap_service"),
		timeout:   timeout,
	}
}

// Timeout returns the end-to-end generation deadline
func (s *RoadmapService) Timeout() time.Duration {
	return s.timeout
}

// BuildRequest validates req and resolves it into a generation request: the
// stored user profile fills fields the request leaves empty, and a referenced
// match result contributes its skill gaps.
func (s *RoadmapService) BuildRequest(ctx context.Context, userID uuid.UUID, req *types.GenerateRoadmapRequest) (roadmap.GenerationRequest, error) {
	if err := req.Validate(); err != nil {
		return roadmap.GenerationRequest{}, classify("roadmap", err)
	}

	greq := roadmap.GenerationRequest{
		Category: req.Category,
		Source:   req.Source,
		Context:  req.Context,
		Profile:  req.Profile,
	}

	if u, err := s.store.GetUser(ctx, userID); err == nil {
		greq.Profile = mergeProfile(req.Profile, u.Profile)
	} else if !errors.Is(err, db.ErrNotFound) {
		return roadmap.GenerationRequest{}, classify("user", err)
	}

	if req.MatchResultID != "" {
		id, err := uuid.Parse(req.MatchResultID)
		if err != nil {
			return roadmap.GenerationRequest{}, &ValidationError{Field: "match_result_id", Message: "must be a uuid", Cause: err}
		}
		mr, err := s.store.GetMatchResult(ctx, userID, id)
		if err != nil {
			return roadmap.GenerationRequest{}, notFound("match result", id, err)
		}
		greq.Gaps = matching.SkillGaps(mr)
		if gaps := matching.FormatGaps(greq.Gaps); gaps != "" {
			if greq.Context != "" {
				greq.Context += "\n\n"
			}
			greq.Context += gaps
		}
	}
	return greq, nil
}

// Generate runs the generate-validate-refine loop and stores the result.
// Exceeding the generation deadline returns a TimeoutError.
func (s *RoadmapService) Generate(ctx context.Context, userID uuid.UUID, req *types.GenerateRoadmapRequest) (*types.Roadmap, *roadmap.Outcome, error) {
	greq, err := s.BuildRequest(ctx, userID, req)
	if err != nil {
		return nil, nil, err
	}

	gctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rm, out, err := s.gen.Run(gctx, greq, userID, nil)
	if err != nil {
		return nil, nil, GenerationError(gctx, err)
	}
	if err := s.Save(ctx, rm, out, req.Activate); err != nil {
		return nil, nil, err
	}
	return rm, out, nil
}

// GenerationError classifies a failed generation that ran under ctx. A
// generation cut off by the deadline of ctx is a TimeoutError.
func GenerationError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{Operation: "roadmap generation", Cause: err}
	}
	return classify("roadmap", err)
}

// Save persists a generated roadmap, optionally activates it and announces it
func (s *RoadmapService) Save(ctx context.Context, rm *types.Roadmap, out *roadmap.Outcome, activate bool) error {
	if err := s.store.CreateRoadmap(ctx, rm); err != nil {
		return classify("roadmap", err)
	}
	if activate {
		if err := s.store.SetActive(ctx, rm.UserID, rm.ID, true); err != nil {
			return classify("roadmap", err)
		}
		rm.IsActive = true
	}

	fallback := out != nil && out.Fallback
	evt := events.RoadmapEvent{
		UserID:    rm.UserID,
		RoadmapID: rm.ID,
		Category:  rm.Category,
		Modules:   rm.ModuleCount(),
		Fallback:  fallback,
		Timestamp: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, events.TopicRoadmapGenerated, evt); err != nil {
		s.log.Warn("failed to publish roadmap event", "roadmap_id", rm.ID.String(), "error", err)
	}

	s.log.Info("roadmap stored",
		"user_id", rm.UserID.String(),
		"roadmap_id", rm.ID.String(),
		"modules", rm.ModuleCount(),
		"fallback", fallback,
		"active", rm.IsActive,
	)
	return nil
}

// List returns the user's roadmaps, optionally only the active one
func (s *RoadmapService) List(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]types.Roadmap, error) {
	rms, err := s.store.ListRoadmaps(ctx, userID, activeOnly)
	if err != nil {
		return nil, classify("roadmap", err)
	}
	return rms, nil
}

// Get returns a roadmap after recomputing its overall progress
func (s *RoadmapService) Get(ctx context.Context, userID, id uuid.UUID) (*types.Roadmap, error) {
	if _, err := s.engine.CalculateProgress(ctx, id, userID); err != nil {
		return nil, notFound("roadmap", id, err)
	}
	rm, err := s.store.GetRoadmap(ctx, userID, id)
	if err != nil {
		return nil, notFound("roadmap", id, err)
	}
	return rm, nil
}

// SetActive activates or deactivates a roadmap
func (s *RoadmapService) SetActive(ctx context.Context, userID, id uuid.UUID, active bool) error {
	if err := s.store.SetActive(ctx, userID, id, active); err != nil {
		return notFound("roadmap", id, err)
	}
	return nil
}

// Delete removes a roadmap and its progress records
func (s *RoadmapService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.store.DeleteRoadmap(ctx, userID, id); err != nil {
		return notFound("roadmap", id, err)
	}
	return nil
}

// UpdateModule applies a module status change
func (s *RoadmapService) UpdateModule(ctx context.Context, userID, id uuid.UUID, moduleID string, req *types.UpdateModuleRequest) (*types.Roadmap, error) {
	if err := req.Validate(); err != nil {
		return nil, classify("module", err)
	}
	rm, err := s.engine.UpdateModuleStatus(ctx, id, userID, moduleID, req.Status, req.Progress)
	if err != nil {
		return nil, notFound("roadmap", id, err)
	}
	return rm, nil
}

// UpdateResource checks or unchecks a resource
func (s *RoadmapService) UpdateResource(ctx context.Context, userID, id uuid.UUID, moduleID, resourceID string, req *types.UpdateResourceRequest) (*types.Roadmap, error) {
	if err := req.Validate(); err != nil {
		return nil, classify("resource", err)
	}
	rm, err := s.engine.UpdateResourceStatus(ctx, id, userID, moduleID, resourceID, *req.Completed)
	if err != nil {
		return nil, notFound("roadmap", id, err)
	}
	return rm, nil
}

// ProgressReport is the body of GET /roadmaps/{id}/progress
type ProgressReport struct {
	RoadmapID       uuid.UUID            `json:"roadmap_id"`
	OverallProgress float64              `json:"overall_progress"`
	Modules         []ModuleProgress     `json:"modules"`
	Records         []types.UserProgress `json:"records"`
}

// ModuleProgress summarizes one module in a ProgressReport
type ModuleProgress struct {
	ModuleID           string             `json:"module_id"`
	Title              string             `json:"title"`
	Status             types.ModuleStatus `json:"status"`
	Progress           float64            `json:"progress"`
	ResourcesCompleted int                `json:"resources_completed"`
	ResourcesTotal     int                `json:"resources_total"`
}

// Progress recomputes and reports the progress of a roadmap
func (s *RoadmapService) Progress(ctx context.Context, userID, id uuid.UUID) (*ProgressReport, error) {
	rm, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	records, err := s.store.ListProgress(ctx, userID, id)
	if err != nil {
		return nil, classify("progress", err)
	}

	report := &ProgressReport{RoadmapID: rm.ID, OverallProgress: rm.OverallProgress, Records: records}
	for _, m := range progress.Ordered(rm) {
		mp := ModuleProgress{
			ModuleID:       m.ID,
			Title:          m.Title,
			Status:         m.Status,
			Progress:       m.Progress,
			ResourcesTotal: len(m.Resources),
		}
		for _, r := range m.Resources {
			if r.Completed {
				mp.ResourcesCompleted++
			}
		}
		report.Modules = append(report.Modules, mp)
	}
	return report, nil
}

// mergeProfile fills empty request fields from the stored profile
func mergeProfile(req, stored types.UserProfile) types.UserProfile {
	if req.LearningStyle == "" {
		req.LearningStyle = stored.LearningStyle
	}
	if req.HoursPerWeek == 0 {
		req.HoursPerWeek = stored.HoursPerWeek
	}
	if len(req.Goals) == 0 {
		req.Goals = stored.Goals
	}
	if req.ExperienceLevel == "" {
		req.ExperienceLevel = stored.ExperienceLevel
	}
	if len(req.PreferredLanguages) == 0 {
		req.PreferredLanguages = stored.PreferredLanguages
	}
	return req
}
