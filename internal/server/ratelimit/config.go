package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// LoadConfig loads rate limiting configuration from environment variables.
func LoadConfig() *Config {
	if !env("RATE_LIMIT_ENABLED", true, strconv.ParseBool) {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    env("RATE_LIMIT_DEFAULT_LIMIT", 1000, strconv.Atoi),
		DefaultWindow:   env("RATE_LIMIT_DEFAULT_WINDOW", time.Minute, time.ParseDuration),
		CleanupInterval: env("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute, time.ParseDuration),
		IdleTTL:         env("RATE_LIMIT_IDLE_TTL", time.Hour, time.ParseDuration),
		Whitelist:       parseIPList(env("RATE_LIMIT_WHITELIST", "", asString)),
		Blacklist:       parseIPList(env("RATE_LIMIT_BLACKLIST", "", asString)),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Tier 1: model-backed generation
		{Path: "/roadmaps/generate", Method: "POST", Limit: 10, Window: time.Hour, Burst: 2},
		{Path: "/roadmaps/generate/stream", Method: "POST", Limit: 10, Window: time.Hour, Burst: 2},
		{Path: "/chat", Method: "POST", Limit: 60, Window: time.Hour, Burst: 5},

		// Tier 2: embedding-backed work
		{Path: "/matches", Method: "POST", Limit: 60, Window: time.Hour, Burst: 5},
		{Path: "/documents/", Method: "POST", Limit: 60, Window: time.Hour, Burst: 5},

		// Tier 3: progress writes
		{Path: "/roadmaps/", Method: "PATCH", Limit: 300, Window: time.Minute, Burst: 30},
		{Path: "/roadmaps/", Method: "POST", Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/roadmaps/", Method: "DELETE", Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/documents/", Method: "DELETE", Limit: 100, Window: time.Minute, Burst: 10},

		// Reads use the default limit; health checks are unlimited (see MatchEndpoint)
	}
}

// env reads key with parse, falling back to def when unset or malformed
func env[T any](key string, def T, parse func(string) (T, error)) T {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		return def
	}
	return v
}

func asString(s string) (string, error) { return s, nil }

// parseIPList turns "a, b,c" into a lookup set
func parseIPList(list string) map[string]bool {
	set := make(map[string]bool)
	for _, ip := range strings.FieldsFunc(list, func(r rune) bool { return r == ',' || r == ' ' }) {
		set[ip] = true
	}
	return set
}
