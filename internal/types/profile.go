package types

import (
	"time"

	"github.com/google/uuid"
)

// LearningStyle is the learner's preferred modality
type LearningStyle string

// Learning styles
const (
	StyleVisual   LearningStyle = "visual"
	StyleReading  LearningStyle = "reading"
	StyleHandsOn  LearningStyle = "hands-on"
	StyleAuditory LearningStyle = "auditory"
	StyleMixed    LearningStyle = "mixed"
)

// UserProfile holds the learner preferences used for generation and enrichment
type UserProfile struct {
	LearningStyle      LearningStyle `json:"learning_style,omitempty" validate:"omitempty,oneof=visual reading hands-on auditory mixed"`
	HoursPerWeek       int           `json:"hours_per_week,omitempty" validate:"omitempty,min=1,max=80"`
	Goals              []string      `json:"goals,omitempty"`
	ExperienceLevel    string        `json:"experience_level,omitempty" validate:"omitempty,oneof=beginner intermediate advanced"`
	PreferredLanguages []string      `json:"preferred_languages,omitempty"`
}

// WithDefaults returns a copy with unset fields filled
func (p UserProfile) WithDefaults() UserProfile {
	if p.LearningStyle == "" {
		p.LearningStyle = StyleMixed
	}
	if p.HoursPerWeek == 0 {
		p.HoursPerWeek = 10
	}
	if p.ExperienceLevel == "" {
		p.ExperienceLevel = DifficultyBeginner
	}
	return p
}

// User is a row of the users collection
type User struct {
	ID        uuid.UUID   `json:"id"`
	Email     string      `json:"email"`
	Name      string      `json:"name,omitempty"`
	Profile   UserProfile `json:"profile"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
