// Package service holds the use cases behind the HTTP API and the CLI:
// matching, roadmap generation and management, and document ingestion.
// Errors returned from this package belong to the typed taxonomy in errors.go.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/career-roadmap/internal/db"
	"github.com/jonathan/career-roadmap/internal/events"
	"github.com/jonathan/career-roadmap/internal/extraction"
	"github.com/jonathan/career-roadmap/internal/ingestion"
	"github.com/jonathan/career-roadmap/internal/logger"
	"github.com/jonathan/career-roadmap/internal/types"
)

// Matcher scores a CV against a job description
type Matcher interface {
	Match(ctx context.Context, cvText, jdText string, userID uuid.UUID, cvSource, jdSource string) (*types.MatchResult, error)
}

// DefaultMatchListLimit caps GET /matches
const DefaultMatchListLimit = 50

// MatchService runs and stores CV/JD matches
type MatchService struct {
	matcher   Matcher
	store     db.Store
	publisher events.Publisher
	log       *logger.Logger
}

// NewMatchService creates a MatchService. A nil publisher disables events.
func NewMatchService(matcher Matcher, store db.Store, publisher events.Publisher, log *logger.Logger) *MatchService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &MatchService{
		matcher:   matcher,
		store:     store,
		publisher: publisher,
		log:       logger.OrNop(log).With("component", "match_service"),
	}
}

// Match resolves the CV and JD texts (inline or by document id), scores them
// and persists the result unless the request opts out.
func (s *MatchService) Match(ctx context.Context, userID uuid.UUID, req *types.MatchRequest) (*types.MatchResult, error) {
	if err := req.Validate(); err != nil {
		return nil, classify("match", err)
	}

	cvText, cvSource, err := s.resolve(ctx, userID, req.CVText, req.CVDocumentID, req.CVSource, "cv")
	if err != nil {
		return nil, err
	}
	jdText, jdSource, err := s.resolve(ctx, userID, req.JDText, req.JDDocumentID, req.JDSource, "jd")
	if err != nil {
		return nil, err
	}

	result, err := s.matcher.Match(ctx, cvText, jdText, userID, cvSource, jdSource)
	if err != nil {
		return nil, classify("match", err)
	}

	if req.PersistResult == nil || *req.PersistResult {
		if err := s.store.SaveMatchResult(ctx, result); err != nil {
			return nil, classify("match", err)
		}
		s.publish(ctx, result)
	}

	s.log.Info("match completed",
		"user_id", userID.String(),
		"match_id", result.ID.String(),
		"overall_score", result.OverallScore,
		"requirements", result.Summary.TotalRequirements,
	)
	return result, nil
}

// Get returns a stored match result
func (s *MatchService) Get(ctx context.Context, userID, id uuid.UUID) (*types.MatchResult, error) {
	r, err := s.store.GetMatchResult(ctx, userID, id)
	if err != nil {
		return nil, notFound("match result", id, err)
	}
	return r, nil
}

// List returns the user's most recent match results
func (s *MatchService) List(ctx context.Context, userID uuid.UUID, limit int) ([]types.MatchResult, error) {
	if limit <= 0 || limit > DefaultMatchListLimit {
		limit = DefaultMatchListLimit
	}
	results, err := s.store.ListMatchResults(ctx, userID, limit)
	if err != nil {
		return nil, classify("match result", err)
	}
	return results, nil
}

// resolve returns inline text, or the source text of an ingested document.
// Documents stored without a source text are rebuilt from their chunks.
func (s *MatchService) resolve(ctx context.Context, userID uuid.UUID, text, documentID, source, side string) (string, string, error) {
	if text != "" {
		if source == "" {
			source = "user-paste"
		}
		return text, source, nil
	}

	id, err := uuid.Parse(documentID)
	if err != nil {
		return "", "", &ValidationError{Field: side + "_document_id", Message: "must be a uuid", Cause: err}
	}
	chunks, err := s.store.GetDocumentChunks(ctx, userID, id)
	if err != nil {
		return "", "", notFound("document", id, err)
	}
	if len(chunks) == 0 {
		return "", "", &NotFoundError{Resource: "document", ID: id.String()}
	}

	if source == "" {
		source = chunks[0].Source
	}

	src, err := s.store.GetDocumentText(ctx, userID, id)
	switch {
	case err == nil:
		return src.Text, source, nil
	case !errors.Is(err, db.ErrNotFound):
		return "", "", classify("document", err)
	}

	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Text
	}
	return extraction.JoinChunks(parts, ingestion.DefaultChunkOverlap), source, nil
}

func (s *MatchService) publish(ctx context.Context, r *types.MatchResult) {
	evt := events.MatchEvent{
		UserID:       r.UserID,
		MatchID:      r.ID,
		OverallScore: r.OverallScore,
		Timestamp:    time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, events.TopicMatchCompleted, evt); err != nil {
		s.log.Warn("failed to publish match event", "match_id", r.ID.String(), "error", err)
	}
}

// notFound classifies err, naming id when the row itself is missing
func notFound(resource string, id uuid.UUID, err error) error {
	ce := classify(resource, err)
	if nf, ok := ce.(*NotFoundError); ok && nf.ID == "" && errors.Is(err, db.ErrNotFound) {
		nf.ID = id.String()
	}
	return ce
}
