package pipeline

import "github.com/jonathan/career-roadmap/internal/roadmap"

// Step categories
const (
	CategoryGeneration = "generation"
	CategoryValidation = "validation"
	CategoryEnrichment = "enrichment"
	CategoryStorage    = "storage"
)

// Steps reported by a run in addition to the controller states
const (
	StepStarted    = "started"
	StepPersisting = "persisting"
	StepPaused     = "paused"
	StepResumed    = "resumed"
)

// StepDefinition describes how a step is reported to clients
type StepDefinition struct {
	Name     string
	Category string
	Progress float64 // percentage reached when the step starts
	Message  string
}

// StepRegistry maps generation states and run steps to their reporting
var StepRegistry = map[string]StepDefinition{
	StepStarted: {
		Name: StepStarted, Category: CategoryGeneration, Progress: 5,
		Message: "Checking the language model",
	},
	string(roadmap.StateDraft): {
		Name: string(roadmap.StateDraft), Category: CategoryGeneration, Progress: 20,
		Message: "Drafting roadmap",
	},
	string(roadmap.StateValidating): {
		Name: string(roadmap.StateValidating), Category: CategoryValidation, Progress: 40,
		Message: "Reviewing draft",
	},
	string(roadmap.StateRefining): {
		Name: string(roadmap.StateRefining), Category: CategoryGeneration, Progress: 50,
		Message: "Refining draft from review feedback",
	},
	string(roadmap.StateAccepted): {
		Name: string(roadmap.StateAccepted), Category: CategoryValidation, Progress: 65,
		Message: "Draft accepted",
	},
	string(roadmap.StateFallback): {
		Name: string(roadmap.StateFallback), Category: CategoryGeneration, Progress: 65,
		Message: "Using template roadmap",
	},
	string(roadmap.StateEnriching): {
		Name: string(roadmap.StateEnriching), Category: CategoryEnrichment, Progress: 70,
		Message: "Finding learning resources",
	},
	string(roadmap.StateDone): {
		Name: string(roadmap.StateDone), Category: CategoryEnrichment, Progress: 90,
		Message: "Roadmap generated",
	},
	StepPaused: {
		Name: StepPaused, Category: CategoryGeneration,
		Message: "Paused",
	},
	StepResumed: {
		Name: StepResumed, Category: CategoryGeneration,
		Message: "Resumed",
	},
	StepPersisting: {
		Name: StepPersisting, Category: CategoryStorage, Progress: 95,
		Message: "Saving roadmap",
	},
}

// Lookup returns the definition of a step; unknown steps keep progress at 0
func Lookup(step string) StepDefinition {
	if def, ok := StepRegistry[step]; ok {
		return def
	}
	return StepDefinition{Name: step, Category: CategoryGeneration, Message: step}
}
