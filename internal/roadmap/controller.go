package roadmap

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/career-roadmap/internal/config"
	"github.com/jonathan/career-roadmap/internal/enrichment"
	"github.com/jonathan/career-roadmap/internal/llm"
	"github.com/jonathan/career-roadmap/internal/logger"
	"github.com/jonathan/career-roadmap/internal/types"
)

// State is a step of the generation state machine
type State string

// Generation states
const (
	StateDraft      State = "draft"
	StateValidating State = "validating"
	StateAccepted   State = "accepted"
	StateRefining   State = "refining"
	StateEnriching  State = "enriching"
	StateDone       State = "done"
	StateFallback   State = "fallback"
)

// Options bounds the controller
type Options struct {
	MaxRefinements  int
	ProbeTimeout    time.Duration
	GenerateTimeout time.Duration
	ValidateTimeout time.Duration
}

// DefaultOptions returns the default bounds
func DefaultOptions() Options {
	return Options{
		MaxRefinements:  2,
		ProbeTimeout:    5 * time.Second,
		GenerateTimeout: 2 * time.Minute,
		ValidateTimeout: 45 * time.Second,
	}
}

// OptionsFrom builds Options from the application configuration
func OptionsFrom(gc config.GenerationConfig) Options {
	o := DefaultOptions()
	if gc.MaxRefinements >= 0 {
		o.MaxRefinements = gc.MaxRefinements
	}
	if gc.ProbeTimeoutSeconds > 0 {
		o.ProbeTimeout = config.Seconds(gc.ProbeTimeoutSeconds)
	}
	if gc.GenerateTimeoutSeconds > 0 {
		o.GenerateTimeout = config.Seconds(gc.GenerateTimeoutSeconds)
	}
	if gc.ValidateTimeoutSeconds > 0 {
		o.ValidateTimeout = config.Seconds(gc.ValidateTimeoutSeconds)
	}
	return o
}

// Enricher attaches learning resources to a roadmap in place
type Enricher interface {
	Enrich(ctx context.Context, rm *types.Roadmap, profile types.UserProfile) enrichment.Report
}

// Outcome describes how a draft was obtained
type Outcome struct {
	Draft       *Draft
	Trace       []State
	Refinements int
	Accepted    bool
	Fallback    bool
	Verdict     Verdict
	Report      *enrichment.Report
}

// Observer is notified of every state the controller enters
type Observer func(State)

// Controller runs the generate-validate-refine loop
type Controller struct {
	client    llm.Client
	generator *Generator
	validator *Validator
	enricher  Enricher
	opts      Options
	log       *logger.Logger
	now       func() time.Time
}

// NewController creates a Controller. enricher may be nil.
func NewController(client llm.Client, enricher Enricher, opts Options, log *logger.Logger) *Controller {
	log = logger.OrNop(log)
	return &Controller{
		client:    client,
		generator: NewGenerator(client, log),
		validator: NewValidator(client, log),
		enricher:  enricher,
		opts:      opts,
		log:       log,
		now:       time.Now,
	}
}

// GenerateRoadmap probes the model, then generates, validates and refines a
// draft. An unreachable or timed-out model returns ErrServiceUnavailable; an
// undecodable first draft yields FallbackDraft.
func (c *Controller) GenerateRoadmap(ctx context.Context, req GenerationRequest, observe Observer) (*Outcome, error) {
	out := &Outcome{}
	enter := func(s State) {
		out.Trace = append(out.Trace, s)
		if observe != nil {
			observe(s)
		}
	}

	if err := c.probe(ctx); err != nil {
		return nil, err
	}

	enter(StateDraft)
	draft, err := c.generate(ctx, req, "")
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			c.log.Warn("falling back to template roadmap", "category", req.Category, "error", err)
			enter(StateFallback)
			out.Draft = FallbackDraft(req)
			out.Fallback = true
			return out, nil
		}
		return nil, err
	}

	for {
		enter(StateValidating)
		verdict := c.validate(ctx, req, draft)
		out.Verdict = verdict

		if verdict.Valid {
			enter(StateAccepted)
			out.Accepted = true
			break
		}
		if out.Refinements >= c.opts.MaxRefinements {
			c.log.Info("refinement rounds exhausted, keeping latest draft", "rounds", out.Refinements, "issues", len(verdict.Issues))
			break
		}

		enter(StateRefining)
		out.Refinements++
		next, err := c.generate(ctx, req, verdict.Feedback)
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				c.log.Warn("refined draft undecodable, keeping previous draft", "round", out.Refinements, "error", err)
				break
			}
			return nil, err
		}
		enter(StateDraft)
		draft = next
	}

	out.Draft = draft
	return out, nil
}

// Run generates a draft, assembles it into a Roadmap for userID and enriches it.
func (c *Controller) Run(ctx context.Context, req GenerationRequest, userID uuid.UUID, observe Observer) (*types.Roadmap, *Outcome, error) {
	out, err := c.GenerateRoadmap(ctx, req, observe)
	if err != nil {
		return nil, nil, err
	}

	rm := Assemble(out.Draft, userID, req, c.now())
	if c.enricher != nil {
		out.Trace = append(out.Trace, StateEnriching)
		if observe != nil {
			observe(StateEnriching)
		}
		report := c.enricher.Enrich(ctx, rm, req.Profile)
		out.Report = &report
	}
	out.Trace = append(out.Trace, StateDone)
	if observe != nil {
		observe(StateDone)
	}
	return rm, out, nil
}

func (c *Controller) probe(ctx context.Context) error {
	pctx, cancel := context.WithTimeout(ctx, c.opts.ProbeTimeout)
	defer cancel()
	if err := c.client.Ping(pctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("language model probe failed", "error", err)
		return &UnavailableError{Stage: "probe", Cause: err}
	}
	return nil
}

func (c *Controller) generate(ctx context.Context, req GenerationRequest, feedback string) (*Draft, error) {
	gctx, cancel := context.WithTimeout(ctx, c.opts.GenerateTimeout)
	defer cancel()

	draft, err := c.generator.Generate(gctx, req, feedback)
	if err == nil {
		return draft, nil
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return nil, &UnavailableError{Stage: "generate", Cause: err}
}

func (c *Controller) validate(ctx context.Context, req GenerationRequest, draft *Draft) Verdict {
	vctx, cancel := context.WithTimeout(ctx, c.opts.ValidateTimeout)
	defer cancel()
	return c.validator.Validate(vctx, req, draft)
}
