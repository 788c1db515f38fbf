// Package config provides configuration loading and validation for the server and CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is the application configuration. It can be loaded from a JSON file
// and is then overlaid with environment variables (see FromEnv).
type Config struct {
	Port        int    `json:"port,omitempty"`
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL
	SQLitePath  string `json:"sqlite_path,omitempty"`  // Used when DatabaseURL is empty
	LogMode     string `json:"log_mode,omitempty"`     // "dev" or "prod"

	Embedding  EmbeddingConfig  `json:"embedding"`
	LLM        LLMConfig        `json:"llm"`
	Matching   MatchingConfig   `json:"matching"`
	Generation GenerationConfig `json:"generation"`
	Enrichment EnrichmentConfig `json:"enrichment"`
	Cache      CacheConfig      `json:"cache"`
	Events     EventsConfig     `json:"events"`
	Storage    StorageConfig    `json:"storage"`
}

// EmbeddingConfig configures the embedding service client
type EmbeddingConfig struct {
	URL            string `json:"url,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

// LLMConfig configures the language model backend
type LLMConfig struct {
	Provider string `json:"provider,omitempty"` // "gemini" or "ollama"
	APIKey   string `json:"api_key,omitempty"`
	BaseURL  string `json:"base_url,omitempty"` // Ollama / OpenAI-compatible endpoint
	Model    string `json:"model,omitempty"`    // Overrides every tier when set
}

// MatchingConfig holds the tunables of the semantic matcher
type MatchingConfig struct {
	Threshold         float64 `json:"threshold,omitempty"`          // Minimum similarity for partially_matched
	MatchedThreshold  float64 `json:"matched_threshold,omitempty"`  // Minimum similarity for matched
	TopSections       int     `json:"top_sections,omitempty"`       // Sections kept per requirement
	ExactMatchBoost   float64 `json:"exact_match_boost,omitempty"`  // Added on case-insensitive equality
	ContainmentFloor  float64 `json:"containment_floor,omitempty"`  // Floor applied on text containment
	DegenerateBelow   float64 `json:"degenerate_below,omitempty"`   // Containment floor only replaces similarities below this
	TopFraction       float64 `json:"top_fraction,omitempty"`       // Share of requirement scores averaged
	MaxRequirements   int     `json:"max_requirements,omitempty"`   // Cap on extracted requirements
	SectionTextLength int     `json:"section_text_length,omitempty"` // Truncation of matched section text
}

// GenerationConfig holds the generate-validate-refine loop settings
type GenerationConfig struct {
	MaxRefinements         int `json:"max_refinements,omitempty"`
	GenerateTimeoutSeconds int `json:"generate_timeout_seconds,omitempty"`
	ValidateTimeoutSeconds int `json:"validate_timeout_seconds,omitempty"`
	ProbeTimeoutSeconds    int `json:"probe_timeout_seconds,omitempty"`
	TotalTimeoutSeconds    int `json:"total_timeout_seconds,omitempty"` // whole request, enrichment included
}

// EnrichmentConfig holds catalog fan-out settings
type EnrichmentConfig struct {
	ModuleTimeoutSeconds  int    `json:"module_timeout_seconds,omitempty"`
	GlobalTimeoutSeconds  int    `json:"global_timeout_seconds,omitempty"`
	MaxResultsPerSource   int    `json:"max_results_per_source,omitempty"`
	MaxResourcesPerModule int    `json:"max_resources_per_module,omitempty"`
	Concurrency           int    `json:"concurrency,omitempty"`
	YouTubeAPIKey         string `json:"youtube_api_key,omitempty"`
	BooksAPIKey           string `json:"books_api_key,omitempty"`
	EnableOCW             bool   `json:"enable_ocw,omitempty"`
	EnableCoursera        bool   `json:"enable_coursera,omitempty"`
}

// CacheConfig configures the catalog result cache
type CacheConfig struct {
	RedisURL   string `json:"redis_url,omitempty"`
	TTLMinutes int    `json:"ttl_minutes,omitempty"`
	MaxEntries int    `json:"max_entries,omitempty"`
}

// EventsConfig configures roadmap event publishing
type EventsConfig struct {
	RabbitMQURL string `json:"rabbitmq_url,omitempty"`
	Exchange    string `json:"exchange,omitempty"`
}

// StorageConfig configures the raw upload archive
type StorageConfig struct {
	S3Bucket    string `json:"s3_bucket,omitempty"`
	S3Endpoint  string `json:"s3_endpoint,omitempty"`
	S3Region    string `json:"s3_region,omitempty"`
	S3AccessKey string `json:"s3_access_key,omitempty"`
	S3SecretKey string `json:"s3_secret_key,omitempty"`
}

// Default returns the configuration used when nothing else is specified
func Default() Config {
	return Config{
		Port:       8080,
		SQLitePath: "career-roadmap.db",
		LogMode:    "dev",
		Embedding: EmbeddingConfig{
			URL:            "http://localhost:8000",
			TimeoutSeconds: 30,
		},
		LLM: LLMConfig{
			Provider: "gemini",
			BaseURL:  "http://127.0.0.1:11434",
		},
		Matching: MatchingConfig{
			Threshold:         0.5,
			MatchedThreshold:  0.75,
			TopSections:       3,
			ExactMatchBoost:   0.05,
			ContainmentFloor:  0.6,
			DegenerateBelow:   0.2,
			TopFraction:       0.75,
			MaxRequirements:   30,
			SectionTextLength: 200,
		},
		Generation: GenerationConfig{
			MaxRefinements:         2,
			GenerateTimeoutSeconds: 120,
			ValidateTimeoutSeconds: 45,
			ProbeTimeoutSeconds:    5,
			TotalTimeoutSeconds:    600,
		},
		Enrichment: EnrichmentConfig{
			ModuleTimeoutSeconds:  5,
			GlobalTimeoutSeconds:  45,
			MaxResultsPerSource:   3,
			MaxResourcesPerModule: 6,
			Concurrency:           4,
			EnableOCW:             true,
			EnableCoursera:        true,
		},
		Cache: CacheConfig{
			TTLMinutes: 60,
			MaxEntries: 1000,
		},
		Events: EventsConfig{
			Exchange: "roadmap_updates",
		},
		Storage: StorageConfig{
			S3Region: "auto",
		},
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}

	m := c.Matching
	if m.Threshold < 0 || m.Threshold > 1 {
		return fmt.Errorf("config error: 'matching.threshold' must be within [0,1]")
	}
	if m.MatchedThreshold < 0 || m.MatchedThreshold > 1 {
		return fmt.Errorf("config error: 'matching.matched_threshold' must be within [0,1]")
	}
	if m.MatchedThreshold != 0 && m.Threshold > m.MatchedThreshold {
		return fmt.Errorf("config error: 'matching.threshold' must not exceed 'matching.matched_threshold'")
	}
	if m.ExactMatchBoost < 0 || m.ExactMatchBoost > 0.05 {
		return fmt.Errorf("config error: 'matching.exact_match_boost' must be within [0,0.05]")
	}
	if m.MatchedThreshold != 0 && m.ContainmentFloor >= m.MatchedThreshold {
		return fmt.Errorf("config error: 'matching.containment_floor' must be below 'matching.matched_threshold'")
	}
	if m.DegenerateBelow < 0 || m.DegenerateBelow > 1 {
		return fmt.Errorf("config error: 'matching.degenerate_below' must be within [0,1]")
	}
	if m.TopFraction < 0 || m.TopFraction > 1 {
		return fmt.Errorf("config error: 'matching.top_fraction' must be within [0,1]")
	}

	if c.Generation.MaxRefinements < 0 {
		return fmt.Errorf("config error: 'generation.max_refinements' must be non-negative")
	}
	if c.Enrichment.MaxResourcesPerModule < 0 || c.Enrichment.MaxResultsPerSource < 0 {
		return fmt.Errorf("config error: enrichment limits must be non-negative")
	}

	switch c.LLM.Provider {
	case "", "gemini", "ollama":
	default:
		return fmt.Errorf("config error: unknown llm provider %q", c.LLM.Provider)
	}

	return nil
}

// MergeWithDefaults returns a new Config with zero fields filled from defaults.
// Bool fields cannot distinguish unset from false and are taken as-is.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	result.Port = orInt(result.Port, defaults.Port)
	result.DatabaseURL = orString(result.DatabaseURL, defaults.DatabaseURL)
	result.SQLitePath = orString(result.SQLitePath, defaults.SQLitePath)
	result.LogMode = orString(result.LogMode, defaults.LogMode)

	result.Embedding.URL = orString(result.Embedding.URL, defaults.Embedding.URL)
	result.Embedding.TimeoutSeconds = orInt(result.Embedding.TimeoutSeconds, defaults.Embedding.TimeoutSeconds)

	result.LLM.Provider = orString(result.LLM.Provider, defaults.LLM.Provider)
	result.LLM.APIKey = orString(result.LLM.APIKey, defaults.LLM.APIKey)
	result.LLM.BaseURL = orString(result.LLM.BaseURL, defaults.LLM.BaseURL)
	result.LLM.Model = orString(result.LLM.Model, defaults.LLM.Model)

	dm := defaults.Matching
	result.Matching.Threshold = orFloat(result.Matching.Threshold, dm.Threshold)
	result.Matching.MatchedThreshold = orFloat(result.Matching.MatchedThreshold, dm.MatchedThreshold)
	result.Matching.TopSections = orInt(result.Matching.TopSections, dm.TopSections)
	result.Matching.ExactMatchBoost = orFloat(result.Matching.ExactMatchBoost, dm.ExactMatchBoost)
	result.Matching.ContainmentFloor = orFloat(result.Matching.ContainmentFloor, dm.ContainmentFloor)
	result.Matching.DegenerateBelow = orFloat(result.Matching.DegenerateBelow, dm.DegenerateBelow)
	result.Matching.TopFraction = orFloat(result.Matching.TopFraction, dm.TopFraction)
	result.Matching.MaxRequirements = orInt(result.Matching.MaxRequirements, dm.MaxRequirements)
	result.Matching.SectionTextLength = orInt(result.Matching.SectionTextLength, dm.SectionTextLength)

	dg := defaults.Generation
	result.Generation.MaxRefinements = orInt(result.Generation.MaxRefinements, dg.MaxRefinements)
	result.Generation.GenerateTimeoutSeconds = orInt(result.Generation.GenerateTimeoutSeconds, dg.GenerateTimeoutSeconds)
	result.Generation.ValidateTimeoutSeconds = orInt(result.Generation.ValidateTimeoutSeconds, dg.ValidateTimeoutSeconds)
	result.Generation.ProbeTimeoutSeconds = orInt(result.Generation.ProbeTimeoutSeconds, dg.ProbeTimeoutSeconds)
	result.Generation.TotalTimeoutSeconds = orInt(result.Generation.TotalTimeoutSeconds, dg.TotalTimeoutSeconds)

	de := defaults.Enrichment
	result.Enrichment.ModuleTimeoutSeconds = orInt(result.Enrichment.ModuleTimeoutSeconds, de.ModuleTimeoutSeconds)
	result.Enrichment.GlobalTimeoutSeconds = orInt(result.Enrichment.GlobalTimeoutSeconds, de.GlobalTimeoutSeconds)
	result.Enrichment.MaxResultsPerSource = orInt(result.Enrichment.MaxResultsPerSource, de.MaxResultsPerSource)
	result.Enrichment.MaxResourcesPerModule = orInt(result.Enrichment.MaxResourcesPerModule, de.MaxResourcesPerModule)
	result.Enrichment.Concurrency = orInt(result.Enrichment.Concurrency, de.Concurrency)
	result.Enrichment.YouTubeAPIKey = orString(result.Enrichment.YouTubeAPIKey, de.YouTubeAPIKey)
	result.Enrichment.BooksAPIKey = orString(result.Enrichment.BooksAPIKey, de.BooksAPIKey)

	result.Cache.RedisURL = orString(result.Cache.RedisURL, defaults.Cache.RedisURL)
	result.Cache.TTLMinutes = orInt(result.Cache.TTLMinutes, defaults.Cache.TTLMinutes)
	result.Cache.MaxEntries = orInt(result.Cache.MaxEntries, defaults.Cache.MaxEntries)

	result.Events.RabbitMQURL = orString(result.Events.RabbitMQURL, defaults.Events.RabbitMQURL)
	result.Events.Exchange = orString(result.Events.Exchange, defaults.Events.Exchange)

	ds := defaults.Storage
	result.Storage.S3Bucket = orString(result.Storage.S3Bucket, ds.S3Bucket)
	result.Storage.S3Endpoint = orString(result.Storage.S3Endpoint, ds.S3Endpoint)
	result.Storage.S3Region = orString(result.Storage.S3Region, ds.S3Region)
	result.Storage.S3AccessKey = orString(result.Storage.S3AccessKey, ds.S3AccessKey)
	result.Storage.S3SecretKey = orString(result.Storage.S3SecretKey, ds.S3SecretKey)

	return result
}

// Seconds converts a seconds setting to a duration
func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func orString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func orFloat(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}
