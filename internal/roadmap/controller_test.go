package roadmap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/career-roadmap/internal/enrichment"
	"github.com/jonathan/career-roadmap/internal/types"
)

func testOptions(maxRefinements int) Options {
	return Options{
		MaxRefinements:  maxRefinements,
		ProbeTimeout:    time.Second,
		GenerateTimeout: time.Second,
		ValidateTimeout: time.Second,
	}
}

func TestGenerateRoadmapRefinesOnce(t *testing.T) {
	first := validDraft(3, 3)
	first.Stages[1].Modules[0].Title = "Topic 1.1"
	second := validDraft(3, 3)

	client := &scriptedClient{
		drafts: []reply{{text: draftJSON(t, first)}, {text: draftJSON(t, second)}},
		verdicts: []reply{
			{text: `{"valid": false, "issues": ["module \"Topic 1.1\" duplicates module \"Topic 1.1\""], "feedback": "rename the duplicate"}`},
			{text: `{"valid": true}`},
		},
	}
	var observed []State
	c := NewController(client, nil, testOptions(2), nil)

	out, err := c.GenerateRoadmap(context.Background(), GenerationRequest{Category: "Data"}, func(s State) { observed = append(observed, s) })

	require.NoError(t, err)
	assert.True(t, out.Accepted)
	assert.False(t, out.Fallback)
	assert.Equal(t, 1, out.Refinements)
	assert.Equal(t, []State{StateDraft, StateValidating, StateRefining, StateDraft, StateValidating, StateAccepted}, observed)
	assert.Equal(t, observed, out.Trace)
	assert.Empty(t, StructuralIssues(out.Draft))

	require.Len(t, client.genPrompts, 2)
	assert.NotContains(t, client.genPrompts[0], "reviewer rejected")
	assert.Contains(t, client.genPrompts[1], "rename the duplicate")
	assert.Contains(t, client.genPrompts[1], "duplicates module")
}

func TestGenerateRoadmapKeepsLatestDraftWhenExhausted(t *testing.T) {
	bad := validDraft(2, 3)
	client := &scriptedClient{
		drafts: []reply{{text: draftJSON(t, bad)}, {text: draftJSON(t, bad)}},
		verdicts: []reply{
			{text: `{"valid": false, "feedback": "add a stage"}`},
			{text: `{"valid": false, "feedback": "still two stages"}`},
		},
	}
	c := NewController(client, nil, testOptions(1), nil)

	out, err := c.GenerateRoadmap(context.Background(), GenerationRequest{Category: "Data"}, nil)

	require.NoError(t, err)
	assert.False(t, out.Accepted)
	assert.False(t, out.Fallback)
	assert.Equal(t, 1, out.Refinements)
	assert.Len(t, out.Draft.Stages, 2)
	assert.Len(t, client.genPrompts, 2)
	assert.Len(t, client.valPrompts, 2)
}

func TestGenerateRoadmapNoRefinements(t *testing.T) {
	client := &scriptedClient{
		drafts:   []reply{{text: draftJSON(t, validDraft(3, 3))}},
		verdicts: []reply{{text: `{"valid": false, "feedback": "too generic"}`}},
	}
	c := NewController(client, nil, testOptions(0), nil)

	out, err := c.GenerateRoadmap(context.Background(), GenerationRequest{Category: "Data"}, nil)

	require.NoError(t, err)
	assert.Equal(t, 0, out.Refinements)
	assert.Len(t, client.genPrompts, 1)
}

func TestGenerateRoadmapProbeFailure(t *testing.T) {
	client := &scriptedClient{pingErr: errors.New("dial tcp 127.0.0.1:11434: connection refused")}
	c := NewController(client, nil, testOptions(2), nil)

	out, err := c.GenerateRoadmap(context.Background(), GenerationRequest{Category: "Data"}, nil)

	require.Error(t, err)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.Empty(t, client.genPrompts)
}

func TestGenerateRoadmapTransportFailureIsSurfaced(t *testing.T) {
	client := &scriptedClient{drafts: []reply{{err: errors.New("503 from provider")}}}
	c := NewController(client, nil, testOptions(2), nil)

	_, err := c.GenerateRoadmap(context.Background(), GenerationRequest{Category: "Data"}, nil)

	assert.ErrorIs(t, err, ErrServiceUnavailable)
	var ue *UnavailableError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "generate", ue.Stage)
}

func TestGenerateRoadmapTimeoutIsSurfaced(t *testing.T) {
	client := &scriptedClient{blockOnDraw: true}
	opts := testOptions(2)
	opts.GenerateTimeout = 20 * time.Millisecond
	c := NewController(client, nil, opts, nil)

	_, err := c.GenerateRoadmap(context.Background(), GenerationRequest{Category: "Data"}, nil)

	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGenerateRoadmapFallbackOnParseError(t *testing.T) {
	client := &scriptedClient{drafts: []reply{{text: "Sure! Here is a great roadmap for you."}}}
	c := NewController(client, nil, testOptions(2), nil)

	out, err := c.GenerateRoadmap(context.Background(), GenerationRequest{Category: "Data", Gaps: gapsOf("Spark")}, nil)

	require.NoError(t, err)
	assert.True(t, out.Fallback)
	assert.Equal(t, []State{StateDraft, StateFallback}, out.Trace)
	assert.Equal(t, "Build up: Spark", out.Draft.Stages[0].Modules[0].Title)
	assert.Empty(t, client.valPrompts)
}

func TestGenerateRoadmapKeepsPreviousDraftOnRefinementParseError(t *testing.T) {
	first := validDraft(3, 3)
	client := &scriptedClient{
		drafts:   []reply{{text: draftJSON(t, first)}, {text: "not json"}},
		verdicts: []reply{{text: `{"valid": false, "feedback": "more depth"}`}},
	}
	c := NewController(client, nil, testOptions(2), nil)

	out, err := c.GenerateRoadmap(context.Background(), GenerationRequest{Category: "Data"}, nil)

	require.NoError(t, err)
	assert.False(t, out.Fallback)
	assert.Equal(t, first.Title, out.Draft.Title)
	assert.Equal(t, 1, out.Refinements)
}

func TestGenerateRoadmapValidatorFailOpenAccepts(t *testing.T) {
	client := &scriptedClient{
		drafts:   []reply{{text: draftJSON(t, validDraft(3, 3))}},
		verdicts: []reply{{err: errors.New("timeout")}},
	}
	c := NewController(client, nil, testOptions(2), nil)

	out, err := c.GenerateRoadmap(context.Background(), GenerationRequest{Category: "Data"}, nil)

	require.NoError(t, err)
	assert.True(t, out.Accepted)
	assert.True(t, out.Verdict.FailedOpen)
	assert.Len(t, client.genPrompts, 1)
}

type stubEnricher struct{ calls int }

func (s *stubEnricher) Enrich(_ context.Context, rm *types.Roadmap, _ types.UserProfile) enrichment.Report {
	s.calls++
	for i := range rm.Stages {
		for j := range rm.Stages[i].Modules {
			rm.Stages[i].Modules[j].Resources = append(rm.Stages[i].Modules[j].Resources, types.LearningResource{ID: "r-1", Title: "Docs", Type: types.ResourceArticle})
		}
	}
	return enrichment.Report{Modules: rm.ModuleCount()}
}

func TestRunAssemblesAndEnriches(t *testing.T) {
	client := &scriptedClient{
		drafts:   []reply{{text: draftJSON(t, validDraft(3, 4))}},
		verdicts: []reply{{text: `{"valid": true}`}},
	}
	enricher := &stubEnricher{}
	c := NewController(client, enricher, testOptions(2), nil)
	userID := uuid.New()

	rm, out, err := c.Run(context.Background(), GenerationRequest{Category: "Data", Source: types.SourceProfile}, userID, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, enricher.calls)
	assert.Equal(t, userID, rm.UserID)
	assert.Equal(t, 12, rm.ModuleCount())
	assert.Len(t, rm.Stages[0].Modules[0].Resources, 1)
	require.NotNil(t, out.Report)
	assert.Equal(t, 12, out.Report.Modules)
	assert.Equal(t, []State{StateDraft, StateValidating, StateAccepted, StateEnriching, StateDone}, out.Trace)
}

func TestOptionsFromConfig(t *testing.T) {
	o := OptionsFrom(configGeneration(3, 60, 30, 2))
	assert.Equal(t, 3, o.MaxRefinements)
	assert.Equal(t, time.Minute, o.GenerateTimeout)
	assert.Equal(t, 30*time.Second, o.ValidateTimeout)
	assert.Equal(t, 2*time.Second, o.ProbeTimeout)
}
