package roadmap

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jonathan/career-roadmap/internal/llm"
)

// scriptedClient replays canned generator and validator replies in order.
type scriptedClient struct {
	mu          sync.Mutex
	pingErr     error
	drafts      []reply
	verdicts    []reply
	genPrompts  []string
	valPrompts  []string
	pingCalls   int
	blockOnDraw bool
}

type reply struct {
	text string
	err  error
}

func (c *scriptedClient) GenerateContent(ctx context.Context, system, prompt string, tier llm.ModelTier) (string, error) {
	return c.GenerateJSON(ctx, system, prompt, tier)
}

func (c *scriptedClient) GenerateJSON(ctx context.Context, system, prompt string, _ llm.ModelTier) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if strings.Contains(system, "reviewer") {
		c.valPrompts = append(c.valPrompts, prompt)
		return pop(&c.verdicts)
	}
	c.genPrompts = append(c.genPrompts, prompt)
	if c.blockOnDraw {
		c.mu.Unlock()
		<-ctx.Done()
		c.mu.Lock()
		return "", ctx.Err()
	}
	return pop(&c.drafts)
}

func pop(q *[]reply) (string, error) {
	if len(*q) == 0 {
		return "", fmt.Errorf("no scripted reply left")
	}
	r := (*q)[0]
	*q = (*q)[1:]
	return r.text, r.err
}

func (c *scriptedClient) Ping(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pingCalls++
	return c.pingErr
}

func (c *scriptedClient) GetModel(llm.ModelTier) string { return "scripted" }
func (c *scriptedClient) Close() error                  { return nil }

// validDraft builds a draft that passes every structural check.
func validDraft(stages, modules int) *Draft {
	d := &Draft{Title: "Data engineering roadmap", Description: "From SQL to pipelines"}
	for s := 1; s <= stages; s++ {
		stage := DraftStage{ID: fmt.Sprintf("stage-%d", s), Name: fmt.Sprintf("Stage %d", s), Order: Ordinal(s)}
		for m := 1; m <= modules; m++ {
			stage.Modules = append(stage.Modules, DraftModule{
				ID:             fmt.Sprintf("m-%d-%d", s, m),
				Title:          fmt.Sprintf("Topic %d.%d", s, m),
				Order:          Ordinal(m),
				EstimatedHours: 10,
			})
		}
		d.Stages = append(d.Stages, stage)
	}
	return d
}

func draftJSON(t *testing.T, d *Draft) string {
	t.Helper()
	b, err := json.Marshal(d)
	require.NoError(t, err)
	return string(b)
}
