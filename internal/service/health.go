package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/career-roadmap/internal/embedding"
	"github.com/jonathan/career-roadmap/internal/llm"
)

// EmbeddingProbe reports the embedding service health
type EmbeddingProbe interface {
	HealthCheck(ctx context.Context) (*embedding.Health, error)
}

// UpstreamStatus is the reachability of one upstream service
type UpstreamStatus struct {
	Status string `json:"status"` // "ok" or "unavailable"
	Model  string `json:"model,omitempty"`
	Error  string `json:"error,omitempty"`
}

// UpstreamReport is the body of GET /health/upstreams
type UpstreamReport struct {
	Status    string         `json:"status"` // "ok" or "degraded"
	Embedding UpstreamStatus `json:"embedding"`
	LLM       UpstreamStatus `json:"llm"`
}

// HealthService probes the embedding service and the language model
type HealthService struct {
	embedder EmbeddingProbe
	llm      llm.Client
	timeout  time.Duration
}

// NewHealthService creates a HealthService. Either probe may be nil.
func NewHealthService(embedder EmbeddingProbe, client llm.Client, timeout time.Duration) *HealthService {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HealthService{embedder: embedder, llm: client, timeout: timeout}
}

// Upstreams probes both services concurrently
func (s *HealthService) Upstreams(ctx context.Context) UpstreamReport {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var report UpstreamReport
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		report.Embedding = s.probeEmbedding(gctx)
		return nil
	})
	g.Go(func() error {
		report.LLM = s.probeLLM(gctx)
		return nil
	})
	_ = g.Wait()

	report.Status = "ok"
	if report.Embedding.Status != "ok" || report.LLM.Status != "ok" {
		report.Status = "degraded"
	}
	return report
}

func (s *HealthService) probeEmbedding(ctx context.Context) UpstreamStatus {
	if s.embedder == nil {
		return UpstreamStatus{Status: "unavailable", Error: "not configured"}
	}
	h, err := s.embedder.HealthCheck(ctx)
	if err != nil {
		return UpstreamStatus{Status: "unavailable", Error: err.Error()}
	}
	return UpstreamStatus{Status: "ok", Model: h.Model}
}

func (s *HealthService) probeLLM(ctx context.Context) UpstreamStatus {
	if s.llm == nil {
		return UpstreamStatus{Status: "unavailable", Error: "not configured"}
	}
	if err := s.llm.Ping(ctx); err != nil {
		return UpstreamStatus{Status: "unavailable", Error: err.Error()}
	}
	return UpstreamStatus{Status: "ok", Model: s.llm.GetModel(llm.TierAdvanced)}
}
