// Package roadmap drives a language model through a bounded
// generate-validate-refine loop and turns the result into a Roadmap.
package roadmap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/jonathan/career-roadmap/internal/llm"
	"github.com/jonathan/career-roadmap/internal/schemas"
	"github.com/jonathan/career-roadmap/internal/types"
)

// Draft is the roadmap shape requested from the model
type Draft struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Stages      []DraftStage `json:"stages"`
}

// Ordinal is a 1-based position. Models sometimes write 2 as 2.0, so any
// JSON number is accepted and rounded to the nearest integer.
type Ordinal int

// UnmarshalJSON implements json.Unmarshaler
func (o *Ordinal) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("order must be a number: %w", err)
	}
	*o = Ordinal(math.Round(f))
	return nil
}

// DraftStage is one stage of a Draft
type DraftStage struct {
	ID            string        `json:"id,omitempty"`
	Name          string        `json:"name"`
	Description   string        `json:"description,omitempty"`
	Order         Ordinal       `json:"order,omitempty"`
	Prerequisites []string      `json:"prerequisites,omitempty"`
	Modules       []DraftModule `json:"modules"`
}

// DraftModule is one module of a DraftStage
type DraftModule struct {
	ID             string   `json:"id,omitempty"`
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	Order          Ordinal  `json:"order,omitempty"`
	EstimatedHours float64  `json:"estimatedHours,omitempty"`
	Prerequisites  []string `json:"prerequisites,omitempty"`
}

// GenerationRequest carries everything the generator and validator see
type GenerationRequest struct {
	Category string
	Source   types.RoadmapSource
	Context  string
	Profile  types.UserProfile
	Gaps     []types.SkillGap
}

// ModuleCount returns the number of modules across all stages
func (d *Draft) ModuleCount() int {
	n := 0
	for _, s := range d.Stages {
		n += len(s.Modules)
	}
	return n
}

// DecodeDraft extracts the first JSON object from raw model output, validates
// it against the draft schema and decodes it strictly. Every failure is a
// *ParseError.
func DecodeDraft(raw string) (*Draft, error) {
	obj, err := llm.ExtractJSONObject(raw)
	if err != nil {
		return nil, &ParseError{Message: "no JSON object in model output", Raw: raw, Cause: err}
	}
	if err := schemas.Validate(schemas.RoadmapDraft, obj); err != nil {
		return nil, &ParseError{Message: "draft does not match schema", Raw: raw, Cause: err}
	}

	var d Draft
	dec := json.NewDecoder(bytes.NewReader([]byte(obj)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		return nil, &ParseError{Message: "failed to decode draft", Raw: raw, Cause: err}
	}
	if len(d.Stages) == 0 || d.ModuleCount() == 0 {
		return nil, &ParseError{Message: "draft has no stages", Raw: raw}
	}
	return &d, nil
}

// describeProfile renders a profile for prompts.
func describeProfile(p types.UserProfile) string {
	p = p.WithDefaults()
	var b strings.Builder
	fmt.Fprintf(&b, "- learning style: %s\n", p.LearningStyle)
	fmt.Fprintf(&b, "- available time: %d hours per week\n", p.HoursPerWeek)
	fmt.Fprintf(&b, "- experience level: %s\n", p.ExperienceLevel)
	if len(p.Goals) > 0 {
		fmt.Fprintf(&b, "- goals: %s\n", strings.Join(p.Goals, "; "))
	}
	if len(p.PreferredLanguages) > 0 {
		fmt.Fprintf(&b, "- preferred languages: %s\n", strings.Join(p.PreferredLanguages, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}
