package types

import (
	"time"

	"github.com/google/uuid"
)

// ProgressStatus is the status recorded in a UserProgress record
type ProgressStatus string

// Progress statuses
const (
	ProgressStarted   ProgressStatus = "started"
	ProgressCompleted ProgressStatus = "completed"
)

// UserProgress is the durable record of a user's action on a module or resource.
// There is one record per (user, roadmap, module[, resource]).
type UserProgress struct {
	UserID     uuid.UUID      `json:"user_id"`
	RoadmapID  uuid.UUID      `json:"roadmap_id"`
	ModuleID   string         `json:"module_id"`
	ResourceID string         `json:"resource_id,omitempty"`
	Status     ProgressStatus `json:"status"`
	Progress   float64        `json:"progress"`
	TimeSpent  int            `json:"time_spent"` // minutes
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}
