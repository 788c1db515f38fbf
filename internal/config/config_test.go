package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_ValidJSON(t *testing.T) {
	content := `{
		"port": 9090,
		"database_url": "postgres://localhost/roadmaps",
		"matching": {"threshold": 0.6, "top_sections": 5},
		"llm": {"provider": "ollama", "base_url": "http://ollama:11434"}
	}`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "postgres://localhost/roadmaps", cfg.DatabaseURL)
	assert.Equal(t, 0.6, cfg.Matching.Threshold)
	assert.Equal(t, 5, cfg.Matching.TopSections)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(tmpFile, []byte(`{ invalid json }`), 0644))

	cfg, err := LoadConfig(tmpFile)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config path is empty")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.Port = 70000 }, wantErr: "port"},
		{name: "threshold above one", mutate: func(c *Config) { c.Matching.Threshold = 1.5 }, wantErr: "matching.threshold"},
		{name: "threshold above matched", mutate: func(c *Config) { c.Matching.Threshold = 0.9 }, wantErr: "must not exceed"},
		{name: "boost too large", mutate: func(c *Config) { c.Matching.ExactMatchBoost = 0.2 }, wantErr: "exact_match_boost"},
		{name: "floor in matched band", mutate: func(c *Config) { c.Matching.ContainmentFloor = 0.8 }, wantErr: "containment_floor"},
		{name: "degenerate above one", mutate: func(c *Config) { c.Matching.DegenerateBelow = 2 }, wantErr: "degenerate_below"},
		{name: "negative refinements", mutate: func(c *Config) { c.Generation.MaxRefinements = -1 }, wantErr: "max_refinements"},
		{name: "unknown provider", mutate: func(c *Config) { c.LLM.Provider = "gpt" }, wantErr: "unknown llm provider"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := &Config{
		Port:     9000,
		Matching: MatchingConfig{Threshold: 0.6},
	}

	merged := cfg.MergeWithDefaults(Default())

	assert.Equal(t, 9000, merged.Port, "explicit value should be kept")
	assert.Equal(t, 0.6, merged.Matching.Threshold)
	assert.Equal(t, 0.75, merged.Matching.MatchedThreshold, "zero value should take default")
	assert.Equal(t, 3, merged.Matching.TopSections)
	assert.Equal(t, 2, merged.Generation.MaxRefinements)
	assert.Equal(t, 6, merged.Enrichment.MaxResourcesPerModule)
	assert.Equal(t, "roadmap_updates", merged.Events.Exchange)
	// original is not modified
	assert.Equal(t, 0, cfg.Matching.TopSections)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("PORT", "7070")
	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("MATCH_THRESHOLD", "0.55")
	t.Setenv("ENRICH_OCW", "false")
	t.Setenv("REDIS_URL", "")

	cfg := FromEnv(Default())

	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, "postgres://env/db", cfg.DatabaseURL)
	assert.Equal(t, 0.55, cfg.Matching.Threshold)
	assert.False(t, cfg.Enrichment.EnableOCW)
	assert.Empty(t, cfg.Cache.RedisURL)
}

func TestFromEnv_IgnoresMalformed(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	t.Setenv("MATCH_THRESHOLD", "high")

	cfg := FromEnv(Default())

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 0.5, cfg.Matching.Threshold)
}
