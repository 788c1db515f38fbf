package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/career-roadmap/internal/db"
	"github.com/jonathan/career-roadmap/internal/embedding"
	"github.com/jonathan/career-roadmap/internal/ingestion"
	"github.com/jonathan/career-roadmap/internal/llm"
	"github.com/jonathan/career-roadmap/internal/logger"
	"github.com/jonathan/career-roadmap/internal/types"
)

// DefaultChatTopK is the number of chunks retrieved as answer context
const DefaultChatTopK = 3

const chatSystemPrompt = `You are a helpful career assistant. Use the following context from the user's documents to answer the user's question.
If the answer is not in the context, say so.

Context:
%s`

// ChatTurn is a question with the context retrieved for it
type ChatTurn struct {
	UserID   uuid.UUID
	Question string
	History  []types.ChatMessage
	Context  []string
	Sources  []types.ChatSource
}

// ChatService answers questions about a user's own ingested documents
type ChatService struct {
	embedder ingestion.Embedder
	store    db.Store
	llm      llm.Client
	topK     int
	log      *logger.Logger
}

// NewChatService creates a ChatService
func NewChatService(embedder ingestion.Embedder, store db.Store, client llm.Client, log *logger.Logger) *ChatService {
	return &ChatService{
		embedder: embedder,
		store:    store,
		llm:      client,
		topK:     DefaultChatTopK,
		log:      logger.OrNop(log).With("component", "chat_service"),
	}
}

// Prepare validates the request and retrieves the user's chunks closest to
// the question. Only chunks owned by userID are considered.
func (s *ChatService) Prepare(ctx context.Context, userID uuid.UUID, req *types.ChatRequest) (*ChatTurn, error) {
	if err := req.Validate(); err != nil {
		return nil, classify("chat", err)
	}
	question := strings.TrimSpace(req.Question())
	if question == "" {
		return nil, &ValidationError{Field: "messages", Message: "the last message is empty"}
	}

	vecs, err := s.embedder.EmbedBatch(ctx, []string{question})
	if err != nil {
		return nil, classify("chat", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedding service returned %d vectors for 1 question", len(vecs))
	}

	chunks, err := s.store.ListUserChunks(ctx, userID)
	if err != nil {
		return nil, classify("document", err)
	}

	type hit struct {
		doc   types.Document
		score float64
	}
	hits := make([]hit, 0, len(chunks))
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			continue
		}
		hits = append(hits, hit{doc: c, score: embedding.CosineSimilarity(vecs[0], c.Embedding)})
	}
	slices.SortStableFunc(hits, func(a, b hit) int { return cmp.Compare(b.score, a.score) })
	if len(hits) > s.topK {
		hits = hits[:s.topK]
	}

	turn := &ChatTurn{
		UserID:   userID,
		Question: question,
		History:  req.Messages[:len(req.Messages)-1],
		Context:  make([]string, len(hits)),
		Sources:  make([]types.ChatSource, len(hits)),
	}
	for i, h := range hits {
		turn.Context[i] = h.doc.Text
		source := h.doc.Source
		if source == "" {
			source = "unknown"
		}
		turn.Sources[i] = types.ChatSource{
			Source:     source,
			DocumentID: h.doc.DocumentID,
			ChunkIndex: h.doc.ChunkIndex,
			Score:      h.score,
		}
	}
	return turn, nil
}

// Reply asks the model to answer the turn from its retrieved context
func (s *ChatService) Reply(ctx context.Context, turn *ChatTurn) (string, error) {
	system := fmt.Sprintf(chatSystemPrompt, strings.Join(turn.Context, "\n\n"))

	var prompt strings.Builder
	for _, m := range turn.History {
		fmt.Fprintf(&prompt, "%s: %s\n\n", m.Role, m.Content)
	}
	if prompt.Len() > 0 {
		prompt.WriteString("user: ")
	}
	prompt.WriteString(turn.Question)

	answer, err := s.llm.GenerateContent(ctx, system, prompt.String(), llm.TierStandard)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", &TimeoutError{Operation: "chat", Cause: err}
		}
		return "", &UpstreamUnavailableError{Service: "llm", Cause: err}
	}

	s.log.Info("chat answered",
		"user_id", turn.UserID.String(),
		"sources", len(turn.Sources),
		"answer_length", len(answer),
	)
	return strings.TrimSpace(answer), nil
}
