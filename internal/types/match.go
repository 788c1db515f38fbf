// Package types provides type definitions for structured data used throughout the career-roadmap system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"time"

	"github.com/google/uuid"
)

// RequirementType classifies a requirement extracted from a job description
type RequirementType string

// Requirement types
const (
	RequirementSkill         RequirementType = "skill"
	RequirementExperience    RequirementType = "experience"
	RequirementQualification RequirementType = "qualification"
	RequirementOther         RequirementType = "other"
)

// SectionType classifies a chunk extracted from a CV
type SectionType string

// CV section types
const (
	SectionSkills     SectionType = "skills"
	SectionExperience SectionType = "experience"
	SectionEducation  SectionType = "education"
	SectionSummary    SectionType = "summary"
	SectionOther      SectionType = "other"
)

// MatchStatus is the band a requirement falls into based on its best similarity
type MatchStatus string

// Match statuses
const (
	StatusMatched          MatchStatus = "matched"
	StatusPartiallyMatched MatchStatus = "partially_matched"
	StatusNotMatched       MatchStatus = "not_matched"
)

// Requirement is a discrete statement of a job's needs
type Requirement struct {
	Text string          `json:"text"`
	Type RequirementType `json:"type"`
}

// CVSection is a discrete chunk of a résumé
type CVSection struct {
	Text string      `json:"text"`
	Type SectionType `json:"type"`
}

// MatchedSection is a CV section that supports a requirement
type MatchedSection struct {
	CVSectionText string      `json:"cv_section_text"`
	Similarity    float64     `json:"similarity"`
	SectionType   SectionType `json:"section_type"`
}

// RequirementMatch holds the scoring outcome for one requirement
type RequirementMatch struct {
	Requirement     string           `json:"requirement"`
	RequirementType RequirementType  `json:"requirement_type"`
	MatchedSections []MatchedSection `json:"matched_sections"`
	MatchScore      float64          `json:"match_score"`
	Status          MatchStatus      `json:"status"`
}

// MatchSummary aggregates requirement statuses
type MatchSummary struct {
	TotalRequirements            int     `json:"total_requirements"`
	MatchedRequirements          int     `json:"matched_requirements"`
	PartiallyMatchedRequirements int     `json:"partially_matched_requirements"`
	UnmatchedRequirements        int     `json:"unmatched_requirements"`
	AverageScore                 float64 `json:"average_score"`
}

// MatchResult is the immutable outcome of one matching invocation
type MatchResult struct {
	ID              uuid.UUID          `json:"id"`
	UserID          uuid.UUID          `json:"user_id"`
	CVSource        string             `json:"cv_source"`
	JDSource        string             `json:"jd_source"`
	OverallScore    float64            `json:"overall_score"`
	Requirements    []RequirementMatch `json:"requirements"`
	Summary         MatchSummary       `json:"summary"`
	Recommendations []string           `json:"recommendations"`
	Timestamp       time.Time          `json:"timestamp"`
}

// SkillGap is a requirement judged not (fully) covered by the CV
type SkillGap struct {
	Requirement string          `json:"requirement"`
	Type        RequirementType `json:"type"`
	Status      MatchStatus     `json:"status"`
	Score       float64         `json:"score"`
	Weight      float64         `json:"weight"`
}
