package roadmap

import (
	"fmt"

	"github.com/jonathan/career-roadmap/internal/types"
)

const (
	fallbackModuleHours = 8
	maxFallbackGaps     = 5
)

// FallbackDraft is the deterministic single-stage roadmap used when the model
// output cannot be decoded. Skill gaps become modules when there are any.
func FallbackDraft(req GenerationRequest) *Draft {
	category := req.Category
	if category == "" {
		category = "your field"
	}

	var modules []DraftModule
	for _, g := range req.Gaps {
		if len(modules) == maxFallbackGaps {
			break
		}
		if g.Type == types.RequirementQualification {
			continue
		}
		modules = append(modules, DraftModule{
			Title:          "Build up: " + g.Requirement,
			Description:    fmt.Sprintf("Close the gap on %q identified in your CV analysis.", g.Requirement),
			EstimatedHours: fallbackModuleHours,
		})
	}
	if len(modules) == 0 {
		modules = []DraftModule{
			{Title: fmt.Sprintf("Core concepts of %s", category), Description: "Learn the vocabulary and fundamental ideas.", EstimatedHours: fallbackModuleHours},
			{Title: fmt.Sprintf("Hands-on practice with %s", category), Description: "Work through guided exercises.", EstimatedHours: fallbackModuleHours},
			{Title: fmt.Sprintf("Build a small %s project", category), Description: "Apply what you learned end to end.", EstimatedHours: 2 * fallbackModuleHours},
		}
	}
	for i := range modules {
		modules[i].ID = fmt.Sprintf("m-1-%d", i+1)
		modules[i].Order = Ordinal(i + 1)
	}

	return &Draft{
		Title:       fmt.Sprintf("Getting started with %s", category),
		Description: fmt.Sprintf("A starter roadmap for %s.", category),
		Stages: []DraftStage{{
			ID:          "stage-1",
			Name:        "Getting started",
			Description: "Essential first steps.",
			Order:       1,
			Modules:     modules,
		}},
	}
}
