package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/career-roadmap/internal/llm"
	"github.com/jonathan/career-roadmap/internal/types"
)

// keywordEmbedder puts each text on the axes of the keywords it mentions
type keywordEmbedder struct{}

var chatKeywords = []string{"kubernetes", "python", "sales"}

func (keywordEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, len(chatKeywords)+1)
		v[len(chatKeywords)] = 0.1
		lower := strings.ToLower(t)
		for j, k := range chatKeywords {
			v[j] = float32(strings.Count(lower, k))
		}
		out[i] = v
	}
	return out, nil
}

type fakeLLM struct {
	system, prompt string
	tier           llm.ModelTier
	reply          string
	err            error
}

func (f *fakeLLM) GenerateContent(_ context.Context, system, prompt string, tier llm.ModelTier) (string, error) {
	f.system, f.prompt, f.tier = system, prompt, tier
	return f.reply, f.err
}

func (f *fakeLLM) GenerateJSON(ctx context.Context, system, prompt string, tier llm.ModelTier) (string, error) {
	return f.GenerateContent(ctx, system, prompt, tier)
}

func (f *fakeLLM) Ping(context.Context) error         { return nil }
func (f *fakeLLM) GetModel(tier llm.ModelTier) string { return string(tier) }
func (f *fakeLLM) Close() error                       { return nil }

func saveChunk(t *testing.T, store interface {
	SaveDocument(context.Context, *types.SourceText, []types.Document) error
}, userID uuid.UUID, source, text string) uuid.UUID {
	t.Helper()
	vecs, err := keywordEmbedder{}.EmbedBatch(context.Background(), []string{text})
	require.NoError(t, err)
	doc := types.Document{
		ID: uuid.New(), DocumentID: uuid.New(), UserID: userID, Source: source,
		Type: types.DocumentCV, Text: text, Embedding: vecs[0], CreatedAt: fixedNow,
	}
	require.NoError(t, store.SaveDocument(context.Background(), nil, []types.Document{doc}))
	return doc.DocumentID
}

func TestChatRetrievesUserTopK(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	userID, other := uuid.New(), uuid.New()

	saveChunk(t, store, userID, "cv.pdf", "Ran Kubernetes clusters and Kubernetes operators")
	saveChunk(t, store, userID, "jd.txt", "Kubernetes experience required")
	saveChunk(t, store, userID, "notes", "Python scripting for Kubernetes")
	saveChunk(t, store, userID, "", "Enterprise sales quota")
	saveChunk(t, store, other, "theirs.pdf", "Kubernetes Kubernetes Kubernetes")

	svc := NewChatService(keywordEmbedder{}, store, &fakeLLM{}, nil)
	turn, err := svc.Prepare(ctx, userID, &types.ChatRequest{Messages: []types.ChatMessage{
		{Role: "user", Content: "What Kubernetes work have I done?"},
	}})
	require.NoError(t, err)

	require.Len(t, turn.Sources, DefaultChatTopK)
	for i := 1; i < len(turn.Sources); i++ {
		assert.GreaterOrEqual(t, turn.Sources[i-1].Score, turn.Sources[i].Score)
	}
	for _, s := range turn.Sources {
		assert.NotEqual(t, "theirs.pdf", s.Source, "other users' chunks are never retrieved")
		assert.NotEqual(t, "unknown", s.Source, "the sales chunk ranks last")
	}
	assert.Len(t, turn.Context, DefaultChatTopK)
}

func TestChatUnknownSourceAndEmptyCorpus(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	userID := uuid.New()
	svc := NewChatService(keywordEmbedder{}, store, &fakeLLM{}, nil)
	req := &types.ChatRequest{Messages: []types.ChatMessage{{Role: "user", Content: "sales?"}}}

	turn, err := svc.Prepare(ctx, userID, req)
	require.NoError(t, err)
	assert.Empty(t, turn.Sources)

	saveChunk(t, store, userID, "", "Enterprise sales quota")
	turn, err = svc.Prepare(ctx, userID, req)
	require.NoError(t, err)
	require.Len(t, turn.Sources, 1)
	assert.Equal(t, "unknown", turn.Sources[0].Source)
}

func TestChatReplyUsesContextAndHistory(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	userID := uuid.New()
	saveChunk(t, store, userID, "cv.pdf", "Ran Kubernetes clusters at Acme")

	model := &fakeLLM{reply: "  You ran Kubernetes clusters at Acme.\n"}
	svc := NewChatService(keywordEmbedder{}, store, model, nil)
	turn, err := svc.Prepare(ctx, userID, &types.ChatRequest{Messages: []types.ChatMessage{
		{Role: "user", Content: "Hi"},
		{Role: "assistant", Content: "Hello! Ask me about your documents."},
		{Role: "user", Content: "Where did I use Kubernetes?"},
	}})
	require.NoError(t, err)

	answer, err := svc.Reply(ctx, turn)
	require.NoError(t, err)
	assert.Equal(t, "You ran Kubernetes clusters at Acme.", answer)
	assert.Contains(t, model.system, "Ran Kubernetes clusters at Acme")
	assert.Contains(t, model.system, "If the answer is not in the context, say so.")
	assert.Contains(t, model.prompt, "assistant: Hello! Ask me about your documents.")
	assert.True(t, strings.HasSuffix(model.prompt, "user: Where did I use Kubernetes?"))
	assert.Equal(t, llm.TierStandard, model.tier)
}

func TestChatErrors(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	var ve *ValidationError

	svc := NewChatService(keywordEmbedder{}, store, &fakeLLM{err: errors.New("connection refused")}, nil)
	_, err := svc.Prepare(ctx, uuid.New(), &types.ChatRequest{})
	assert.ErrorAs(t, err, &ve)

	_, err = svc.Prepare(ctx, uuid.New(), &types.ChatRequest{Messages: []types.ChatMessage{{Role: "robot", Content: "hi"}}})
	assert.ErrorAs(t, err, &ve)

	turn, err := svc.Prepare(ctx, uuid.New(), &types.ChatRequest{Messages: []types.ChatMessage{{Role: "user", Content: "hi"}}})
	require.NoError(t, err)
	_, err = svc.Reply(ctx, turn)
	var ue *UpstreamUnavailableError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "llm", ue.Service)
}
