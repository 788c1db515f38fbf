package db

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/jonathan/career-roadmap/internal/types"
)

var (
	// ErrNotFound is returned when a row does not exist or belongs to another user
	ErrNotFound = errors.New("record not found")
	// ErrVersionConflict is returned when a roadmap changed since it was read
	ErrVersionConflict = errors.New("roadmap version conflict")
)

// Store is the persistence contract shared by the PostgreSQL and SQLite backends.
// Every read and write is scoped to the owning user.
type Store interface {
	UpsertUser(ctx context.Context, u *types.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*types.User, error)

	// SaveDocument stores the source text and the chunks of one upload atomically.
	SaveDocument(ctx context.Context, src *types.SourceText, chunks []types.Document) error
	GetDocumentText(ctx context.Context, userID, documentID uuid.UUID) (*types.SourceText, error)
	GetDocumentChunks(ctx context.Context, userID, documentID uuid.UUID) ([]types.Document, error)
	// ListUserChunks returns every embedded chunk the user owns.
	ListUserChunks(ctx context.Context, userID uuid.UUID) ([]types.Document, error)
	ListDocuments(ctx context.Context, userID uuid.UUID) ([]types.DocumentSummary, error)
	DeleteDocument(ctx context.Context, userID, documentID uuid.UUID) error

	SaveMatchResult(ctx context.Context, r *types.MatchResult) error
	GetMatchResult(ctx context.Context, userID, id uuid.UUID) (*types.MatchResult, error)
	ListMatchResults(ctx context.Context, userID uuid.UUID, limit int) ([]types.MatchResult, error)

	CreateRoadmap(ctx context.Context, rm *types.Roadmap) error
	GetRoadmap(ctx context.Context, userID, id uuid.UUID) (*types.Roadmap, error)
	ListRoadmaps(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]types.Roadmap, error)
	// UpdateRoadmap writes rm if the stored version still equals rm.Version,
	// then increments rm.Version. Otherwise it returns ErrVersionConflict.
	UpdateRoadmap(ctx context.Context, rm *types.Roadmap) error
	// SetActive marks a roadmap active (deactivating the user's others) or inactive.
	SetActive(ctx context.Context, userID, id uuid.UUID, active bool) error
	// DeleteRoadmap removes a roadmap and its progress records.
	DeleteRoadmap(ctx context.Context, userID, id uuid.UUID) error

	UpsertProgress(ctx context.Context, p *types.UserProgress) error
	ListProgress(ctx context.Context, userID, roadmapID uuid.UUID) ([]types.UserProgress, error)

	Close()
}
