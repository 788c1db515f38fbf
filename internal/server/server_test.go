package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/career-roadmap/internal/config"
	"github.com/jonathan/career-roadmap/internal/db/sqlite"
	"github.com/jonathan/career-roadmap/internal/events"
	"github.com/jonathan/career-roadmap/internal/extraction"
	"github.com/jonathan/career-roadmap/internal/ingestion"
	"github.com/jonathan/career-roadmap/internal/llm"
	"github.com/jonathan/career-roadmap/internal/pipeline"
	"github.com/jonathan/career-roadmap/internal/progress"
	"github.com/jonathan/career-roadmap/internal/roadmap"
	"github.com/jonathan/career-roadmap/internal/server/ratelimit"
	"github.com/jonathan/career-roadmap/internal/service"
	"github.com/jonathan/career-roadmap/internal/types"
)

type constEmbedder struct{}

func (constEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

type stubMatcher struct {
	err error
}

func (m *stubMatcher) Match(_ context.Context, cvText, jdText string, userID uuid.UUID, cvSource, jdSource string) (*types.MatchResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &types.MatchResult{
		ID:           uuid.New(),
		UserID:       userID,
		CVSource:     cvSource,
		JDSource:     jdSource,
		OverallScore: 0.71,
		Timestamp:    time.Now().UTC(),
	}, nil
}

// stubGenerator returns a two-module roadmap. With block set it waits for
// the context, which lets tests stop or time out a run.
type stubGenerator struct {
	mu    sync.Mutex
	block bool
	err   error
}

func (g *stubGenerator) Run(ctx context.Context, req roadmap.GenerationRequest, userID uuid.UUID, observe roadmap.Observer) (*types.Roadmap, *roadmap.Outcome, error) {
	g.mu.Lock()
	block, err := g.block, g.err
	g.mu.Unlock()

	if observe != nil {
		observe(roadmap.StateDraft)
	}
	if block {
		<-ctx.Done()
		return nil, nil, &roadmap.UnavailableError{Stage: "generate", Cause: ctx.Err()}
	}
	if err != nil {
		return nil, nil, err
	}
	if observe != nil {
		observe(roadmap.StateDone)
	}
	now := time.Now().UTC()
	rm := &types.Roadmap{
		ID:       uuid.New(),
		UserID:   userID,
		Title:    "Learning " + req.Category,
		Category: req.Category,
		Source:   req.Source,
		Stages: []types.RoadmapStage{{
			ID: "stage-1", Name: "Foundations", Order: 1,
			Modules: []types.RoadmapModule{
				{
					ID: "A", Title: "Basics", Status: types.ModuleAvailable, Order: 1,
					Resources: []types.LearningResource{
						{ID: "a1", Type: types.ResourceVideo, Title: "Intro", Difficulty: types.DifficultyBeginner},
					},
				},
				{ID: "B", Title: "Next steps", Status: types.ModuleLocked, Order: 2},
			},
		}},
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return rm, &roadmap.Outcome{Accepted: true, Trace: []roadmap.State{roadmap.StateDraft, roadmap.StateDone}}, nil
}

// stubLLM answers every prompt with reply, or fails with err
type stubLLM struct {
	mu     sync.Mutex
	system string
	reply  string
	err    error
}

func (l *stubLLM) GenerateContent(_ context.Context, system, _ string, _ llm.ModelTier) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.system = system
	return l.reply, l.err
}

func (l *stubLLM) GenerateJSON(ctx context.Context, system, prompt string, tier llm.ModelTier) (string, error) {
	return l.GenerateContent(ctx, system, prompt, tier)
}

func (l *stubLLM) Ping(context.Context) error    { return nil }
func (l *stubLLM) GetModel(llm.ModelTier) string { return "stub" }
func (l *stubLLM) Close() error                  { return nil }

type testEnv struct {
	handler   http.Handler
	jwt       *JWTService
	matcher   *stubMatcher
	gen       *stubGenerator
	llm       *stubLLM
	publisher *events.Recorder
}

func newTestEnv(t *testing.T, timeout time.Duration, limiter *ratelimit.Limiter) *testEnv {
	t.Helper()
	store, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(store.Close)

	env := &testEnv{
		jwt:       NewJWTService(&config.JWTConfig{Secret: testSecret, ExpirationHours: 1}),
		matcher:   &stubMatcher{},
		gen:       &stubGenerator{},
		llm:       &stubLLM{reply: "You have operated Kafka."},
		publisher: &events.Recorder{},
	}
	in := ingestion.New(store, constEmbedder{}, nil, nil, ingestion.Options{}, nil)
	engine := progress.NewEngine(store, env.publisher, nil)
	srv := New(Config{}, Deps{
		Documents:   service.NewDocumentService(in, store, nil),
		Matches:     service.NewMatchService(env.matcher, store, env.publisher, nil),
		Roadmaps:    service.NewRoadmapService(env.gen, store, engine, env.publisher, timeout, nil),
		Health:      service.NewHealthService(nil, nil, time.Second),
		Chat:        service.NewChatService(constEmbedder{}, store, env.llm, nil),
		Runs:        pipeline.NewManager(env.gen, nil),
		Tokens:      env.jwt.AsTokenValidator(),
		RateLimiter: limiter,
	})
	env.handler = srv.Handler()
	return env
}

func (e *testEnv) token(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token, err := e.jwt.GenerateToken(userID)
	require.NoError(t, err)
	return token
}

// do sends a JSON request as userID and returns the recorder
func (e *testEnv) do(t *testing.T, userID uuid.UUID, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != uuid.Nil {
		req.Header.Set("Authorization", "Bearer "+e.token(t, userID))
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth_IsPublic(t *testing.T) {
	env := newTestEnv(t, time.Minute, nil)

	w := env.do(t, uuid.Nil, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = env.do(t, uuid.Nil, http.MethodGet, "/health/upstreams", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, uuid.New(), http.MethodGet, "/health/upstreams", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	report := decode[service.UpstreamReport](t, w)
	assert.Equal(t, "degraded", report.Status)
}

func TestRoutes_RequireAuth(t *testing.T) {
	env := newTestEnv(t, time.Minute, nil)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/documents"},
		{http.MethodPost, "/matches"},
		{http.MethodGet, "/roadmaps"},
		{http.MethodPost, "/roadmaps/generate"},
		{http.MethodPatch, "/roadmaps/" + uuid.NewString() + "/modules/A"},
	} {
		w := env.do(t, uuid.Nil, route.method, route.path, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, route.path)
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, time.Minute, nil)

	req := httptest.NewRequest(http.MethodOptions, "/roadmaps", nil)
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	assert.Equal(t, SourcesHeader, w.Header().Get("Access-Control-Expose-Headers"))
}

func TestDocuments_TextFileListDelete(t *testing.T) {
	env := newTestEnv(t, time.Minute, nil)
	userID := uuid.New()

	w := env.do(t, userID, http.MethodPost, "/documents/text", types.IngestTextRequest{
		Text: strings.Repeat("Built data pipelines in Go. ", 20), Source: "notes", Type: types.DocumentCV,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	meta := decode[ingestion.Metadata](t, w)
	assert.Equal(t, "notes", meta.Source)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("type", "jd"))
	part, err := mw.CreateFormFile("file", "jd.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("Requirements:\n- Kubernetes\n- Go\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/documents/file", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+env.token(t, userID))
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	w = env.do(t, userID, http.MethodGet, "/documents", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Documents []types.DocumentSummary `json:"documents"`
		Count     int                     `json:"count"`
	}](t, w)
	assert.Equal(t, 2, list.Count)

	w = env.do(t, uuid.New(), http.MethodGet, "/documents", nil)
	assert.JSONEq(t, `{"documents":[],"count":0}`, w.Body.String())

	w = env.do(t, userID, http.MethodDelete, "/documents/"+meta.DocumentID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(t, userID, http.MethodDelete, "/documents/"+meta.DocumentID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, userID, http.MethodDelete, "/documents/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDocuments_Validation(t *testing.T) {
	env := newTestEnv(t, time.Minute, nil)
	userID := uuid.New()

	w := env.do(t, userID, http.MethodPost, "/documents/text", types.IngestTextRequest{Text: "x", Type: "poem"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, userID, http.MethodPost, "/documents/url", types.IngestURLRequest{URL: "not a url"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/documents/text", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer "+env.token(t, userID))
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_request")
}

func TestMatches_CreateGetList(t *testing.T) {
	env := newTestEnv(t, time.Minute, nil)
	userID := uuid.New()

	w := env.do(t, userID, http.MethodPost, "/matches", types.MatchRequest{CVText: "Go developer", JDText: "Requires Go"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode[types.MatchResult](t, w)
	assert.InDelta(t, 0.71, result.OverallScore, 1e-9)

	w = env.do(t, userID, http.MethodGet, "/matches/"+result.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, uuid.New(), http.MethodGet, "/matches/"+result.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "results are scoped to their owner")

	w = env.do(t, userID, http.MethodGet, "/matches?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)

	w = env.do(t, userID, http.MethodGet, "/matches?limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMatches_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "no requirements", err: extraction.ErrNoRequirements, want: http.StatusUnprocessableEntity},
		{name: "embedding down", err: fmt.Errorf("embed: %w", &service.UpstreamUnavailableError{Service: "embedding"}), want: http.StatusServiceUnavailable},
		{name: "unexpected", err: assert.AnError, want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, time.Minute, nil)
			env.matcher.err = tt.err

			w := env.do(t, uuid.New(), http.MethodPost, "/matches", types.MatchRequest{CVText: "cv", JDText: "jd"})
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusInternalServerError {
				assert.NotContains(t, w.Body.String(), assert.AnError.Error())
			}
		})
	}

	env := newTestEnv(t, time.Minute, nil)
	w := env.do(t, uuid.New(), http.MethodPost, "/matches", types.MatchRequest{CVText: "cv"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRoadmaps_GenerateAndTrackProgress(t *testing.T) {
	env := newTestEnv(t, time.Minute, nil)
	userID := uuid.New()

	w := env.do(t, userID, http.MethodPost, "/roadmaps/generate", types.GenerateRoadmapRequest{
		Category: "data engineering", Source: types.SourceProfile, Activate: true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode[GenerateResponse](t, w)
	require.NotNil(t, resp.Roadmap)
	assert.True(t, resp.Accepted)
	assert.True(t, resp.Roadmap.IsActive)
	id := resp.Roadmap.ID.String()

	w = env.do(t, userID, http.MethodGet, "/roadmaps?active=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)

	w = env.do(t, userID, http.MethodPatch, "/roadmaps/"+id+"/modules/B", types.UpdateModuleRequest{Status: types.ModuleInProgress})
	assert.Equal(t, http.StatusBadRequest, w.Code, "locked modules cannot start")

	completed := true
	w = env.do(t, userID, http.MethodPatch, "/roadmaps/"+id+"/modules/A/resources/a1", types.UpdateResourceRequest{Completed: &completed})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rm := decode[types.Roadmap](t, w)
	a := rm.FindModule("A")
	require.NotNil(t, a)
	assert.Equal(t, types.ModuleCompleted, a.Status)
	b := rm.FindModule("B")
	require.NotNil(t, b)
	assert.Equal(t, types.ModuleAvailable, b.Status)

	w = env.do(t, userID, http.MethodPatch, "/roadmaps/"+id+"/modules/Z", types.UpdateModuleRequest{Status: types.ModuleCompleted})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, userID, http.MethodGet, "/roadmaps/"+id+"/progress", nil)
	require.Equal(t, http.StatusOK, w.Code)
	report := decode[service.ProgressReport](t, w)
	assert.InDelta(t, 40, report.OverallProgress, 1e-9)

	w = env.do(t, userID, http.MethodPost, "/roadmaps/"+id+"/deactivate", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, userID, http.MethodGet, "/roadmaps?active=true", nil)
	assert.Contains(t, w.Body.String(), `"count":0`)

	w = env.do(t, userID, http.MethodDelete, "/roadmaps/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(t, userID, http.MethodGet, "/roadmaps/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRoadmaps_GenerateErrors(t *testing.T) {
	env := newTestEnv(t, time.Minute, nil)
	userID := uuid.New()

	w := env.do(t, userID, http.MethodPost, "/roadmaps/generate", types.GenerateRoadmapRequest{Source: types.SourceProfile})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	env.gen.err = &roadmap.UnavailableError{Stage: "probe", Cause: assert.AnError}
	w = env.do(t, userID, http.MethodPost, "/roadmaps/generate", types.GenerateRoadmapRequest{Category: "go", Source: types.SourceProfile})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "upstream_unavailable")

	env.gen.err = &roadmap.ParseError{Message: "not json"}
	w = env.do(t, userID, http.MethodPost, "/roadmaps/generate", types.GenerateRoadmapRequest{Category: "go", Source: types.SourceProfile})
	assert.Equal(t, http.StatusBadGateway, w.Code)

	slow := newTestEnv(t, 20*time.Millisecond, nil)
	slow.gen.block = true
	w = slow.do(t, userID, http.MethodPost, "/roadmaps/generate", types.GenerateRoadmapRequest{Category: "go", Source: types.SourceProfile})
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}

type sseEvent struct {
	name string
	data string
}

// readEvents parses an SSE stream into events, sending each on the channel
func readEvents(body io.Reader) <-chan sseEvent {
	out := make(chan sseEvent, 64)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(body)
		var ev sseEvent
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "event: "):
				ev.name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				ev.data = strings.TrimPrefix(line, "data: ")
			case line == "" && ev.name != "":
				out <- ev
				ev = sseEvent{}
			}
		}
	}()
	return out
}

func startStream(t *testing.T, env *testEnv, userID uuid.UUID) (<-chan sseEvent, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(env.handler)
	t.Cleanup(ts.Close)

	body, err := json.Marshal(types.GenerateRoadmapRequest{Category: "security", Source: types.SourceProfile})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/roadmaps/generate/stream", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+env.token(t, userID))

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	return readEvents(resp.Body), ts
}

func TestStream_DeliversResult(t *testing.T) {
	env := newTestEnv(t, time.Minute, nil)
	userID := uuid.New()
	stream, _ := startStream(t, env, userID)

	var names []string
	var result pipeline.Event
	for ev := range stream {
		names = append(names, ev.name)
		if ev.name == string(pipeline.EventResult) {
			require.NoError(t, json.Unmarshal([]byte(ev.data), &result))
		}
	}

	require.NotEmpty(t, names)
	assert.Equal(t, "run", names[0])
	assert.Contains(t, names, string(pipeline.EventStatus))
	assert.Equal(t, string(pipeline.EventComplete), names[len(names)-1])
	require.NotNil(t, result.Roadmap)

	w := env.do(t, userID, http.MethodGet, "/roadmaps/"+result.Roadmap.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code, "streamed roadmaps are stored")
}

func TestStream_StopCommand(t *testing.T) {
	env := newTestEnv(t, time.Minute, nil)
	env.gen.block = true
	userID := uuid.New()
	stream, _ := startStream(t, env, userID)

	first := <-stream
	require.Equal(t, "run", first.name)
	var started struct {
		RunID string `json:"run_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(first.data), &started))

	w := env.do(t, uuid.New(), http.MethodPost, "/roadmaps/runs/"+started.RunID+"/stop", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "runs are scoped to their owner")

	w = env.do(t, userID, http.MethodPost, "/roadmaps/runs/"+started.RunID+"/jump", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, userID, http.MethodPost, "/roadmaps/runs/"+started.RunID+"/stop", nil)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var last sseEvent
	for ev := range stream {
		last = ev
	}
	assert.Equal(t, "stopped", last.name)

	w = env.do(t, userID, http.MethodPost, "/roadmaps/runs/"+started.RunID+"/resume", nil)
	assert.Contains(t, []int{http.StatusNotFound, http.StatusConflict}, w.Code)
}

func TestStream_TimeoutReportsError(t *testing.T) {
	env := newTestEnv(t, 50*time.Millisecond, nil)
	env.gen.block = true
	stream, _ := startStream(t, env, uuid.New())

	var last sseEvent
	for ev := range stream {
		last = ev
	}
	assert.Equal(t, string(pipeline.EventError), last.name)
	assert.Contains(t, last.data, `"error":"timeout"`)
}

func TestChat_StreamsAnswerWithSources(t *testing.T) {
	env := newTestEnv(t, time.Minute, nil)
	userID := uuid.New()

	w := env.do(t, userID, http.MethodPost, "/documents/text", types.IngestTextRequest{
		Text: "Operated Kafka clusters in production for five years.", Source: "cv.pdf", Type: types.DocumentCV,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, userID, http.MethodPost, "/chat", types.ChatRequest{Messages: []types.ChatMessage{
		{Role: "user", Content: "Which message brokers have I run?"},
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	raw, err := base64.StdEncoding.DecodeString(w.Header().Get(SourcesHeader))
	require.NoError(t, err)
	var sources []types.ChatSource
	require.NoError(t, json.Unmarshal(raw, &sources))
	require.Len(t, sources, 1)
	assert.Equal(t, "cv.pdf", sources[0].Source)
	assert.Contains(t, env.llm.system, "Operated Kafka clusters in production")

	var names []string
	var answer string
	for ev := range readEvents(w.Body) {
		names = append(names, ev.name)
		if ev.name == "answer" {
			answer = ev.data
		}
	}
	assert.Equal(t, []string{"answer", "complete"}, names)
	assert.JSONEq(t, `{"content":"You have operated Kafka."}`, answer)

	w = env.do(t, uuid.New(), http.MethodPost, "/chat", types.ChatRequest{Messages: []types.ChatMessage{
		{Role: "user", Content: "Which message brokers have I run?"},
	}})
	require.Equal(t, http.StatusOK, w.Code)
	raw, err = base64.StdEncoding.DecodeString(w.Header().Get(SourcesHeader))
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw), "another user's documents are not retrieved")
}

func TestChat_Errors(t *testing.T) {
	env := newTestEnv(t, time.Minute, nil)
	userID := uuid.New()

	w := env.do(t, uuid.Nil, http.MethodPost, "/chat", types.ChatRequest{})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, userID, http.MethodPost, "/chat", types.ChatRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	env.llm.err = errors.New("connection refused")
	w = env.do(t, userID, http.MethodPost, "/chat", types.ChatRequest{Messages: []types.ChatMessage{{Role: "user", Content: "hi"}}})
	require.Equal(t, http.StatusOK, w.Code, "the stream has started before the model is called")
	var last sseEvent
	for ev := range readEvents(w.Body) {
		last = ev
	}
	assert.Equal(t, string(pipeline.EventError), last.name)
	assert.Contains(t, last.data, `"error":"upstream_unavailable"`)
}

func TestRateLimit_Returns429(t *testing.T) {
	limiter := ratelimit.NewLimiter(&ratelimit.Config{Enabled: true, DefaultLimit: 2, DefaultWindow: time.Hour})
	t.Cleanup(limiter.Stop)
	env := newTestEnv(t, time.Minute, limiter)
	userID := uuid.New()

	for i := 0; i < 2; i++ {
		w := env.do(t, userID, http.MethodGet, "/roadmaps", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}
	w := env.do(t, userID, http.MethodGet, "/roadmaps", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate_limit_exceeded")
}
