package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/google/uuid"

	"github.com/jonathan/career-roadmap/internal/cache"
	"github.com/jonathan/career-roadmap/internal/config"
	"github.com/jonathan/career-roadmap/internal/db"
	"github.com/jonathan/career-roadmap/internal/db/sqlite"
	"github.com/jonathan/career-roadmap/internal/embedding"
	"github.com/jonathan/career-roadmap/internal/enrichment"
	"github.com/jonathan/career-roadmap/internal/enrichment/catalogs"
	"github.com/jonathan/career-roadmap/internal/events"
	"github.com/jonathan/career-roadmap/internal/fetch"
	"github.com/jonathan/career-roadmap/internal/ingestion"
	"github.com/jonathan/career-roadmap/internal/llm"
	"github.com/jonathan/career-roadmap/internal/logger"
	"github.com/jonathan/career-roadmap/internal/matching"
	"github.com/jonathan/career-roadmap/internal/progress"
	"github.com/jonathan/career-roadmap/internal/roadmap"
	"github.com/jonathan/career-roadmap/internal/service"
	"github.com/jonathan/career-roadmap/internal/storage"
)

// localUserID owns data created from the CLI when no user is given
var localUserID = uuid.MustParse("00000000-0000-4000-8000-000000000001")

// loadConfig resolves defaults, then the optional config file, then the environment
func loadConfig(path string) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		fileCfg, err := config.LoadConfig(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = fileCfg.MergeWithDefaults(cfg)
	}
	cfg = config.FromEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// resolveUser picks the user for CLI commands
func resolveUser(flag string) (uuid.UUID, error) {
	raw := flag
	if raw == "" {
		raw = os.Getenv("ROADMAP_USER_ID")
	}
	if raw == "" {
		return localUserID, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user id %q: %w", raw, err)
	}
	return id, nil
}

// openStore connects to PostgreSQL when a URL is configured and to SQLite
// otherwise. The schema is applied in both cases.
func openStore(ctx context.Context, cfg config.Config, log *logger.Logger) (db.Store, error) {
	if cfg.DatabaseURL != "" {
		pg, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		log.Info("using postgres store")
		return pg, nil
	}
	s, err := sqlite.Open(ctx, cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	log.Info("using sqlite store", "path", cfg.SQLitePath)
	return s, nil
}

// app holds the components shared by the commands. Fields are built on
// demand so commands only reach the upstreams they use.
type app struct {
	cfg       config.Config
	log       *logger.Logger
	store     db.Store
	publisher events.Publisher
	embedder  *embedding.Client
	llm       llm.Client
	cache     *cache.Cache
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogMode, logger.Options{Redact: true, HashSalt: os.Getenv("LOG_HASH_SALT")})
	if err != nil {
		return nil, err
	}
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:       cfg,
		log:       log,
		store:     store,
		publisher: events.FromConfig(cfg.Events, log),
	}, nil
}

// Close releases every component that was built
func (a *app) Close() {
	if a.llm != nil {
		_ = a.llm.Close()
	}
	if a.cache != nil {
		_ = a.cache.Close()
	}
	_ = a.publisher.Close()
	a.store.Close()
	a.log.Sync()
}

func (a *app) embeddingClient() *embedding.Client {
	if a.embedder == nil {
		a.embedder = embedding.New(a.cfg.Embedding.URL,
			embedding.WithHTTPClient(&http.Client{Timeout: config.Seconds(a.cfg.Embedding.TimeoutSeconds)}),
			embedding.WithLogger(a.log),
		)
	}
	return a.embedder
}

func (a *app) llmClient(ctx context.Context) (llm.Client, error) {
	if a.llm == nil {
		client, err := llm.NewClient(ctx, llm.ConfigFrom(a.cfg.LLM), a.cfg.LLM.APIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
		a.llm = client
	}
	return a.llm, nil
}

func (a *app) documentService(ctx context.Context) *service.DocumentService {
	archive := storage.FromConfig(ctx, a.cfg.Storage, a.log)
	fetcher := fetch.NewClient(fetch.DefaultOptions())
	in := ingestion.New(a.store, a.embeddingClient(), archive, fetcher, ingestion.Options{}, a.log)
	return service.NewDocumentService(in, a.store, a.log)
}

func (a *app) matchService() *service.MatchService {
	matcher := matching.New(a.embeddingClient(), matching.ConfigFrom(a.cfg.Matching), a.log)
	return service.NewMatchService(matcher, a.store, a.publisher, a.log)
}

// controller builds the generate-validate-refine loop with catalog enrichment
func (a *app) controller(ctx context.Context) (*roadmap.Controller, error) {
	client, err := a.llmClient(ctx)
	if err != nil {
		return nil, err
	}
	if a.cache == nil {
		a.cache = cache.FromConfig(ctx, a.cfg.Cache, a.log)
	}
	cats := catalogs.FromConfig(ctx, a.cfg.Enrichment, a.cache, a.log)
	enricher := enrichment.New(cats, enrichment.OptionsFrom(a.cfg.Enrichment), a.log)
	return roadmap.NewController(client, enricher, roadmap.OptionsFrom(a.cfg.Generation), a.log), nil
}

func (a *app) roadmapService(ctx context.Context) (*service.RoadmapService, *roadmap.Controller, error) {
	ctrl, err := a.controller(ctx)
	if err != nil {
		return nil, nil, err
	}
	engine := progress.NewEngine(a.store, a.publisher, a.log)
	timeout := config.Seconds(a.cfg.Generation.TotalTimeoutSeconds)
	return service.NewRoadmapService(ctrl, a.store, engine, a.publisher, timeout, a.log), ctrl, nil
}
