package roadmap

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/career-roadmap/internal/config"
	"github.com/jonathan/career-roadmap/internal/types"
)

func configGeneration(maxRefinements, generate, validate, probe int) config.GenerationConfig {
	return config.GenerationConfig{
		MaxRefinements:         maxRefinements,
		GenerateTimeoutSeconds: generate,
		ValidateTimeoutSeconds: validate,
		ProbeTimeoutSeconds:    probe,
	}
}

func TestAssembleInitialStatuses(t *testing.T) {
	d := validDraft(3, 3)
	d.Stages[0].Modules[2].Prerequisites = []string{"m-1-2"}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	rm := Assemble(d, uuid.New(), GenerationRequest{Category: "Data", Source: types.SourceHybrid}, now)

	assert.Equal(t, 1, rm.Version)
	assert.Equal(t, now, rm.CreatedAt)
	assert.Equal(t, types.SourceHybrid, rm.Source)

	first := rm.Stages[0].Modules
	assert.Equal(t, types.ModuleAvailable, first[0].Status)
	assert.Equal(t, types.ModuleAvailable, first[1].Status)
	assert.Equal(t, types.ModuleLocked, first[2].Status)
	assert.Equal(t, []string{"m-1-2"}, first[2].Prerequisites)

	for _, stage := range rm.Stages[1:] {
		for _, m := range stage.Modules {
			assert.Equal(t, types.ModuleLocked, m.Status)
			assert.NotNil(t, m.Resources)
		}
	}
}

func TestAssembleNormalisesOrderAndIDs(t *testing.T) {
	d := &Draft{
		Title: "Out of order",
		Stages: []DraftStage{
			{Name: "Second", Order: 2, Modules: []DraftModule{{ID: "dup", Title: "B1", EstimatedHours: 5}}},
			{Name: "First", Order: 1, Modules: []DraftModule{
				{ID: "dup", Title: "A2", Order: 2, EstimatedHours: 500},
				{Title: "A1", Order: 1, EstimatedHours: 0},
			}},
		},
	}

	rm := Assemble(d, uuid.New(), GenerationRequest{Category: "x"}, time.Now())

	require.Len(t, rm.Stages, 2)
	assert.Equal(t, "First", rm.Stages[0].Name)
	assert.Equal(t, 1, rm.Stages[0].Order)
	assert.Equal(t, "A1", rm.Stages[0].Modules[0].Title)
	assert.Equal(t, "m-1-1", rm.Stages[0].Modules[0].ID)
	assert.Equal(t, 1.0, rm.Stages[0].Modules[0].EstimatedHours)
	assert.Equal(t, "dup", rm.Stages[0].Modules[1].ID)
	assert.Equal(t, float64(MaxModuleHours), rm.Stages[0].Modules[1].EstimatedHours)
	assert.Equal(t, "m-2-1", rm.Stages[1].Modules[0].ID)

	seen := map[string]bool{}
	for _, s := range rm.Stages {
		for _, m := range s.Modules {
			assert.False(t, seen[m.ID], "duplicate id %s", m.ID)
			seen[m.ID] = true
		}
	}
}

func TestAssembleDropsForwardAndDanglingPrerequisites(t *testing.T) {
	d := validDraft(3, 3)
	d.Stages[0].Modules[0].Prerequisites = []string{"m-2-1"}
	d.Stages[1].Modules[0].Prerequisites = []string{"m-1-3", "ghost", "m-1-3"}

	rm := Assemble(d, uuid.New(), GenerationRequest{}, time.Now())

	assert.Empty(t, rm.Stages[0].Modules[0].Prerequisites)
	assert.Equal(t, []string{"m-1-3"}, rm.Stages[1].Modules[0].Prerequisites)
}

func TestAssembleEstimates(t *testing.T) {
	d := validDraft(3, 3) // 9 modules * 10 hours
	req := GenerationRequest{Profile: types.UserProfile{HoursPerWeek: 5}}

	rm := Assemble(d, uuid.New(), req, time.Now())

	assert.Equal(t, "18 weeks", rm.EstimatedCompletionTime)
	assert.Equal(t, "10 hours", rm.Stages[0].Modules[0].EstimatedTime)
}

func TestAssembleFallbackDraft(t *testing.T) {
	rm := Assemble(FallbackDraft(GenerationRequest{Category: "Go"}), uuid.New(), GenerationRequest{Category: "Go"}, time.Now())

	require.Len(t, rm.Stages, 1)
	for _, m := range rm.Stages[0].Modules {
		assert.Equal(t, types.ModuleAvailable, m.Status)
	}
}
