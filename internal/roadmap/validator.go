package roadmap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/career-roadmap/internal/llm"
	"github.com/jonathan/career-roadmap/internal/logger"
	"github.com/jonathan/career-roadmap/internal/prompts"
	"github.com/jonathan/career-roadmap/internal/schemas"
)

// Structural limits of an acceptable draft.
const (
	MinStages         = 3
	MaxStages         = 5
	MinModulesInStage = 3
	MaxModulesInStage = 6
	MaxModuleHours    = 200
)

// Verdict is the outcome of validating a draft
type Verdict struct {
	Valid    bool     `json:"valid"`
	Issues   []string `json:"issues,omitempty"`
	Feedback string   `json:"feedback,omitempty"`
	// FailedOpen is set when the model critique could not be obtained and
	// the draft was accepted without it.
	FailedOpen bool `json:"-"`
}

// Validator critiques drafts with deterministic checks and a language model
type Validator struct {
	client llm.Client
	tier   llm.ModelTier
	log    *logger.Logger
}

// NewValidator creates a Validator using the standard model tier
func NewValidator(client llm.Client, log *logger.Logger) *Validator {
	return &Validator{client: client, tier: llm.TierStandard, log: logger.OrNop(log)}
}

// Validate merges the structural issues of draft with the model critique.
// A failing model call accepts the draft (fail-open); it never returns an error.
func (v *Validator) Validate(ctx context.Context, req GenerationRequest, draft *Draft) Verdict {
	structural := StructuralIssues(draft)

	lm, err := v.critique(ctx, req, draft)
	if err != nil {
		v.log.Warn("roadmap validation failed open", "error", err, "structural_issues", len(structural))
		return Verdict{Valid: true, Issues: structural, FailedOpen: true}
	}

	if len(structural) == 0 {
		return lm
	}
	merged := Verdict{
		Valid:  false,
		Issues: append(append([]string{}, structural...), lm.Issues...),
	}
	merged.Feedback = strings.TrimSpace(strings.Join([]string{
		lm.Feedback,
		"- " + strings.Join(structural, "\n- "),
	}, "\n"))
	return merged
}

func (v *Validator) critique(ctx context.Context, req GenerationRequest, draft *Draft) (Verdict, error) {
	body, err := json.MarshalIndent(draft, "", "  ")
	if err != nil {
		return Verdict{}, fmt.Errorf("failed to marshal draft: %w", err)
	}
	prompt := prompts.Format(prompts.MustGet(promptFile, "validate-roadmap"), map[string]string{
		"Category": req.Category,
		"Profile":  describeProfile(req.Profile),
		"Context":  contextFor(req),
		"Roadmap":  string(body),
	})

	raw, err := v.client.GenerateJSON(ctx, prompts.MustGet(promptFile, "validate-roadmap-system"), prompt, v.tier)
	if err != nil {
		return Verdict{}, err
	}
	return DecodeVerdict(raw)
}

// DecodeVerdict decodes and schema-checks a validator reply.
func DecodeVerdict(raw string) (Verdict, error) {
	obj, err := llm.ExtractJSONObject(raw)
	if err != nil {
		return Verdict{}, &ParseError{Message: "no JSON object in verdict", Raw: raw, Cause: err}
	}
	if err := schemas.Validate(schemas.ValidationVerdict, obj); err != nil {
		return Verdict{}, &ParseError{Message: "verdict does not match schema", Raw: raw, Cause: err}
	}
	var verdict Verdict
	dec := json.NewDecoder(bytes.NewReader([]byte(obj)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&verdict); err != nil {
		return Verdict{}, &ParseError{Message: "failed to decode verdict", Raw: raw, Cause: err}
	}
	if !verdict.Valid && verdict.Feedback == "" && len(verdict.Issues) > 0 {
		verdict.Feedback = "- " + strings.Join(verdict.Issues, "\n- ")
	}
	return verdict, nil
}

// StructuralIssues returns the deterministic problems of a draft.
func StructuralIssues(d *Draft) []string {
	var issues []string

	if n := len(d.Stages); n < MinStages || n > MaxStages {
		issues = append(issues, fmt.Sprintf("roadmap has %d stages, expected %d to %d", n, MinStages, MaxStages))
	}

	titles := map[string]string{}
	earlier := map[string]bool{}
	all := map[string]bool{}
	for _, s := range d.Stages {
		for _, m := range s.Modules {
			if m.ID != "" {
				all[m.ID] = true
			}
		}
	}

	for i, s := range d.Stages {
		if int(s.Order) != i+1 {
			issues = append(issues, fmt.Sprintf("stage %q has order %d, expected %d", s.Name, s.Order, i+1))
		}
		if n := len(s.Modules); n < MinModulesInStage || n > MaxModulesInStage {
			issues = append(issues, fmt.Sprintf("stage %q has %d modules, expected %d to %d", s.Name, n, MinModulesInStage, MaxModulesInStage))
		}
		for _, m := range s.Modules {
			key := strings.ToLower(strings.TrimSpace(m.Title))
			if prev, dup := titles[key]; dup {
				issues = append(issues, fmt.Sprintf("module %q duplicates module %q", m.Title, prev))
			} else {
				titles[key] = m.Title
			}

			for _, p := range m.Prerequisites {
				switch {
				case !all[p]:
					issues = append(issues, fmt.Sprintf("module %q has unknown prerequisite %q", m.Title, p))
				case !earlier[p]:
					issues = append(issues, fmt.Sprintf("module %q depends on %q which does not come before it", m.Title, p))
				}
			}

			if m.EstimatedHours <= 0 || m.EstimatedHours > MaxModuleHours {
				issues = append(issues, fmt.Sprintf("module %q has estimatedHours %g, expected more than 0 and at most %d", m.Title, m.EstimatedHours, MaxModuleHours))
			}
			if m.ID != "" {
				earlier[m.ID] = true
			}
		}
	}
	return issues
}
