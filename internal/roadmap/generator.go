package roadmap

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/career-roadmap/internal/llm"
	"github.com/jonathan/career-roadmap/internal/logger"
	"github.com/jonathan/career-roadmap/internal/matching"
	"github.com/jonathan/career-roadmap/internal/prompts"
)

const promptFile = "roadmap.json"

// maxContextChars bounds the upstream context embedded in prompts.
const maxContextChars = 8000

// Generator produces roadmap drafts with a language model
type Generator struct {
	client llm.Client
	tier   llm.ModelTier
	log    *logger.Logger
}

// NewGenerator creates a Generator using the advanced model tier
func NewGenerator(client llm.Client, log *logger.Logger) *Generator {
	return &Generator{client: client, tier: llm.TierAdvanced, log: logger.OrNop(log)}
}

// Generate asks the model for a draft. feedback, when not empty, is the
// reviewer's critique of the previous draft. Transport failures are returned
// as is; undecodable output is a *ParseError.
func (g *Generator) Generate(ctx context.Context, req GenerationRequest, feedback string) (*Draft, error) {
	prompt := buildGeneratePrompt(req, feedback)
	system := prompts.MustGet(promptFile, "generate-roadmap-system")

	raw, err := g.client.GenerateJSON(ctx, system, prompt, g.tier)
	if err != nil {
		return nil, err
	}

	draft, err := DecodeDraft(raw)
	if err != nil {
		g.log.Warn("roadmap draft rejected by decoder", "error", err, "output_chars", len(raw))
		return nil, err
	}
	g.log.Debug("roadmap draft generated", "stages", len(draft.Stages), "modules", draft.ModuleCount(), "refinement", feedback != "")
	return draft, nil
}

func buildGeneratePrompt(req GenerationRequest, feedback string) string {
	fb := ""
	if strings.TrimSpace(feedback) != "" {
		fb = prompts.Format(prompts.MustGet(promptFile, "refinement-feedback"), map[string]string{"Feedback": feedback})
	}
	return prompts.Format(prompts.MustGet(promptFile, "generate-roadmap"), map[string]string{
		"Category": req.Category,
		"Profile":  describeProfile(req.Profile),
		"Source":   string(req.Source),
		"Context":  contextFor(req),
		"Feedback": fb,
	})
}

// contextFor joins the caller context with the skill-gap list.
func contextFor(req GenerationRequest) string {
	parts := make([]string, 0, 2)
	if c := strings.TrimSpace(req.Context); c != "" {
		parts = append(parts, truncateRunes(c, maxContextChars))
	}
	if gaps := matching.FormatGaps(req.Gaps); gaps != "" {
		parts = append(parts, gaps)
	}
	if len(parts) == 0 {
		return fmt.Sprintf("No CV or job description was provided; build a general roadmap for %s.", req.Category)
	}
	return strings.Join(parts, "\n\n")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
