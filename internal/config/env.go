package config

import (
	"os"
	"strconv"
)

// FromEnv overlays environment variables onto cfg. Set variables win over
// file values; unset variables leave cfg unchanged.
func FromEnv(cfg Config) Config {
	cfg.Port = getEnvInt("PORT", cfg.Port)
	cfg.DatabaseURL = getEnvString("DATABASE_URL", cfg.DatabaseURL)
	cfg.SQLitePath = getEnvString("SQLITE_PATH", cfg.SQLitePath)
	cfg.LogMode = getEnvString("LOG_MODE", cfg.LogMode)

	cfg.Embedding.URL = getEnvString("EMBEDDING_URL", cfg.Embedding.URL)

	cfg.LLM.Provider = getEnvString("LLM_PROVIDER", cfg.LLM.Provider)
	cfg.LLM.APIKey = getEnvString("GEMINI_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.BaseURL = getEnvString("OLLAMA_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.Model = getEnvString("LLM_MODEL", cfg.LLM.Model)

	cfg.Matching.Threshold = getEnvFloat("MATCH_THRESHOLD", cfg.Matching.Threshold)

	cfg.Enrichment.YouTubeAPIKey = getEnvString("YOUTUBE_API_KEY", cfg.Enrichment.YouTubeAPIKey)
	cfg.Enrichment.BooksAPIKey = getEnvString("GOOGLE_BOOKS_API_KEY", cfg.Enrichment.BooksAPIKey)
	cfg.Enrichment.EnableOCW = getEnvBool("ENRICH_OCW", cfg.Enrichment.EnableOCW)
	cfg.Enrichment.EnableCoursera = getEnvBool("ENRICH_COURSERA", cfg.Enrichment.EnableCoursera)

	cfg.Cache.RedisURL = getEnvString("REDIS_URL", cfg.Cache.RedisURL)
	cfg.Events.RabbitMQURL = getEnvString("RABBITMQ_URL", cfg.Events.RabbitMQURL)

	cfg.Storage.S3Bucket = getEnvString("S3_BUCKET", cfg.Storage.S3Bucket)
	cfg.Storage.S3Endpoint = getEnvString("S3_ENDPOINT", cfg.Storage.S3Endpoint)
	cfg.Storage.S3Region = getEnvString("S3_REGION", cfg.Storage.S3Region)
	cfg.Storage.S3AccessKey = getEnvString("S3_ACCESS_KEY", cfg.Storage.S3AccessKey)
	cfg.Storage.S3SecretKey = getEnvString("S3_SECRET_KEY", cfg.Storage.S3SecretKey)

	return cfg
}

// getEnvString gets an environment variable as a string with a default value.
func getEnvString(key string, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as an integer with a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat gets an environment variable as a float with a default value.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvBool gets an environment variable as a boolean with a default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
