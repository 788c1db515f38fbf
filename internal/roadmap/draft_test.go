package roadmap

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDraft(t *testing.T) {
	raw := "Here you go:\n```json\n" + `{"title":"Go","stages":[{"name":"Basics","order":1,"modules":[{"id":"m-1-1","title":"Syntax","estimatedHours":4}]}]}` + "\n```"

	d, err := DecodeDraft(raw)
	require.NoError(t, err)
	assert.Equal(t, "Go", d.Title)
	require.Len(t, d.Stages, 1)
	assert.Equal(t, 4.0, d.Stages[0].Modules[0].EstimatedHours)
	assert.Equal(t, 1, d.ModuleCount())
}

func TestDecodeDraftFloatOrders(t *testing.T) {
	raw := `{"title":"Go","stages":[
		{"name":"Later","order":2.0,"modules":[{"title":"Generics","order":1.0}]},
		{"name":"Basics","order":1.0,"modules":[{"title":"Tooling","order":2.4},{"title":"Syntax","order":0.6}]}
	]}`

	d, err := DecodeDraft(raw)
	require.NoError(t, err)
	assert.Equal(t, Ordinal(2), d.Stages[0].Order)
	assert.Equal(t, Ordinal(1), d.Stages[1].Order)
	assert.Equal(t, Ordinal(2), d.Stages[1].Modules[0].Order)
	assert.Equal(t, Ordinal(1), d.Stages[1].Modules[1].Order)

	rm := Assemble(d, uuid.New(), GenerationRequest{Category: "Go"}, time.Now())
	assert.Equal(t, "Basics", rm.Stages[0].Name)
	assert.Equal(t, "Syntax", rm.Stages[0].Modules[0].Title)
	assert.Equal(t, "Tooling", rm.Stages[0].Modules[1].Title)
}

func TestDecodeDraftRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"prose only", "I cannot help with that."},
		{"missing stages", `{"title":"x"}`},
		{"empty stages", `{"title":"x","stages":[]}`},
		{"unknown field", `{"title":"x","stages":[{"name":"a","modules":[{"title":"t"}]}],"extra":1}`},
		{"module without title", `{"title":"x","stages":[{"name":"a","modules":[{"id":"m"}]}]}`},
		{"hours as string", `{"title":"x","stages":[{"name":"a","modules":[{"title":"t","estimatedHours":"ten"}]}]}`},
		{"order as string", `{"title":"x","stages":[{"name":"a","order":"1","modules":[{"title":"t"}]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeDraft(tt.raw)
			require.Error(t, err)
			var pe *ParseError
			assert.ErrorAs(t, err, &pe)
		})
	}
}

func TestFallbackDraftUsesGaps(t *testing.T) {
	req := GenerationRequest{Category: "Backend", Gaps: gapsOf("Leadership", "Kubernetes")}

	d := FallbackDraft(req)

	require.Len(t, d.Stages, 1)
	mods := d.Stages[0].Modules
	require.Len(t, mods, 2)
	assert.Equal(t, "Build up: Leadership", mods[0].Title)
	assert.Equal(t, "m-1-2", mods[1].ID)
	assert.Equal(t, "Getting started with Backend", d.Title)
}

func TestFallbackDraftGeneric(t *testing.T) {
	d := FallbackDraft(GenerationRequest{Category: "Rust"})

	require.Len(t, d.Stages[0].Modules, 3)
	assert.Contains(t, d.Stages[0].Modules[0].Title, "Rust")
	issues := StructuralIssues(d)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0], "roadmap has 1 stages")
}
