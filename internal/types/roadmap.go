package types

import (
	"time"

	"github.com/google/uuid"
)

// RoadmapSource records what drove the generation of a roadmap
type RoadmapSource string

// Roadmap sources
const (
	SourceProfile    RoadmapSource = "profile"
	SourceCVAnalysis RoadmapSource = "cv-analysis"
	SourceJDAnalysis RoadmapSource = "jd-analysis"
	SourceHybrid     RoadmapSource = "hybrid"
	SourceManual     RoadmapSource = "manual"
)

// Valid reports whether s is a known roadmap source
func (s RoadmapSource) Valid() bool {
	switch s {
	case SourceProfile, SourceCVAnalysis, SourceJDAnalysis, SourceHybrid, SourceManual:
		return true
	}
	return false
}

// ModuleStatus is the lifecycle state of a roadmap module.
// Statuses only advance: locked → available → in-progress → completed.
type ModuleStatus string

// Module statuses
const (
	ModuleLocked     ModuleStatus = "locked"
	ModuleAvailable  ModuleStatus = "available"
	ModuleInProgress ModuleStatus = "in-progress"
	ModuleCompleted  ModuleStatus = "completed"
)

// Rank orders module statuses; -1 for unknown values
func (s ModuleStatus) Rank() int {
	switch s {
	case ModuleLocked:
		return 0
	case ModuleAvailable:
		return 1
	case ModuleInProgress:
		return 2
	case ModuleCompleted:
		return 3
	}
	return -1
}

// ResourceType is the modality of a learning resource
type ResourceType string

// Resource types
const (
	ResourceVideo   ResourceType = "video"
	ResourceArticle ResourceType = "article"
	ResourceCourse  ResourceType = "course"
	ResourceBook    ResourceType = "book"
	ResourceProject ResourceType = "project"
	ResourceQuiz    ResourceType = "quiz"
	ResourcePodcast ResourceType = "podcast"
)

// Difficulty levels for learning resources
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// Roadmap is a multi-stage learning plan owned by a user
type Roadmap struct {
	ID                      uuid.UUID      `json:"id"`
	UserID                  uuid.UUID      `json:"user_id"`
	Title                   string         `json:"title"`
	Description             string         `json:"description"`
	Category                string         `json:"category"`
	Source                  RoadmapSource  `json:"source"`
	SourceData              map[string]any `json:"source_data,omitempty"`
	Stages                  []RoadmapStage `json:"stages"`
	OverallProgress         float64        `json:"overall_progress"`
	EstimatedCompletionTime string         `json:"estimated_completion_time"`
	IsActive                bool           `json:"is_active"`
	Version                 int            `json:"version"`
	CreatedAt               time.Time      `json:"created_at"`
	UpdatedAt               time.Time      `json:"updated_at"`
}

// RoadmapStage groups modules at one level of the plan
type RoadmapStage struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Order         int             `json:"order"`
	Modules       []RoadmapModule `json:"modules"`
	Prerequisites []string        `json:"prerequisites,omitempty"`
}

// RoadmapModule is a unit of learning within a stage
type RoadmapModule struct {
	ID             string             `json:"id"`
	Title          string             `json:"title"`
	Description    string             `json:"description"`
	Status         ModuleStatus       `json:"status"`
	Order          int                `json:"order"`
	EstimatedTime  string             `json:"estimated_time"`
	EstimatedHours float64            `json:"estimated_hours"`
	Resources      []LearningResource `json:"resources"`
	Prerequisites  []string           `json:"prerequisites,omitempty"`
	Progress       float64            `json:"progress"`
	StartedAt      *time.Time         `json:"started_at,omitempty"`
	CompletedAt    *time.Time         `json:"completed_at,omitempty"`
}

// LearningResource is a concrete piece of material attached to a module
type LearningResource struct {
	ID          string       `json:"id"`
	Type        ResourceType `json:"type"`
	Title       string       `json:"title"`
	URL         string       `json:"url,omitempty"`
	Description string       `json:"description,omitempty"`
	Provider    string       `json:"provider,omitempty"`
	Difficulty  string       `json:"difficulty"`
	Completed   bool         `json:"completed"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

// FindModule returns a pointer to the module with the given id, or nil
func (r *Roadmap) FindModule(moduleID string) *RoadmapModule {
	for i := range r.Stages {
		for j := range r.Stages[i].Modules {
			if r.Stages[i].Modules[j].ID == moduleID {
				return &r.Stages[i].Modules[j]
			}
		}
	}
	return nil
}

// ModuleCount returns the total number of modules across all stages
func (r *Roadmap) ModuleCount() int {
	n := 0
	for _, stage := range r.Stages {
		n += len(stage.Modules)
	}
	return n
}

// FindResource returns a pointer to the resource with the given id, or nil
func (m *RoadmapModule) FindResource(resourceID string) *LearningResource {
	for i := range m.Resources {
		if m.Resources[i].ID == resourceID {
			return &m.Resources[i]
		}
	}
	return nil
}
