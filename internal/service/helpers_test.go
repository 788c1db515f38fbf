package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/career-roadmap/internal/db/sqlite"
	"github.com/jonathan/career-roadmap/internal/roadmap"
	"github.com/jonathan/career-roadmap/internal/types"
)

var fixedNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

// sampleRoadmap has one stage with an available module A (two resources)
// and a locked module B.
func sampleRoadmap(userID uuid.UUID) *types.Roadmap {
	return &types.Roadmap{
		ID:       uuid.New(),
		UserID:   userID,
		Title:    "Platform engineering",
		Category: "platform engineering",
		Source:   types.SourceProfile,
		Stages: []types.RoadmapStage{{
			ID:    "stage-1",
			Name:  "Foundations",
			Order: 1,
			Modules: []types.RoadmapModule{
				{
					ID: "A", Title: "Linux", Status: types.ModuleAvailable, Order: 1,
					Resources: []types.LearningResource{
						{ID: "a1", Type: types.ResourceVideo, Title: "Shell basics", Difficulty: types.DifficultyBeginner},
						{ID: "a2", Type: types.ResourceBook, Title: "The Linux Command Line", Difficulty: types.DifficultyBeginner},
					},
				},
				{ID: "B", Title: "Containers", Status: types.ModuleLocked, Order: 2},
			},
		}},
		Version:   1,
		CreatedAt: fixedNow,
		UpdatedAt: fixedNow,
	}
}

// fakeGenerator returns a fresh sample roadmap and records the requests it saw
type fakeGenerator struct {
	mu       sync.Mutex
	requests []roadmap.GenerationRequest
	err      error
	block    bool
	fallback bool
}

func (g *fakeGenerator) Run(ctx context.Context, req roadmap.GenerationRequest, userID uuid.UUID, observe roadmap.Observer) (*types.Roadmap, *roadmap.Outcome, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	g.mu.Unlock()

	if g.block {
		<-ctx.Done()
		return nil, nil, &roadmap.UnavailableError{Stage: "generate", Cause: ctx.Err()}
	}
	if g.err != nil {
		return nil, nil, g.err
	}
	if observe != nil {
		observe(roadmap.StateDraft)
		observe(roadmap.StateDone)
	}
	rm := sampleRoadmap(userID)
	rm.Category = req.Category
	rm.Source = req.Source
	return rm, &roadmap.Outcome{Accepted: !g.fallback, Fallback: g.fallback}, nil
}

func (g *fakeGenerator) last() roadmap.GenerationRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requests[len(g.requests)-1]
}
