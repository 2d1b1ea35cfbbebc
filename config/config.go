// Package config provides configuration for the assistant service.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the service configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Database
	DatabaseURL string

	// Inference provider settings
	InferenceBaseURL string
	InferenceAPIKey  string
	InferenceModel   string
	InferenceTimeout time.Duration

	// Assistant persona
	AssistantID   string
	AssistantName string

	// Polling
	PollInterval    time.Duration
	PollMaxAttempts int

	// Grace period for a stale job cancellation to be acknowledged
	CancelGrace time.Duration

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		HTTPPort:         getEnvInt("HTTP_PORT", 8080),
		DatabaseURL:      getEnv("DATABASE_URL", "file:assistant.db?cache=shared&mode=rwc"),
		InferenceBaseURL: getEnv("INFERENCE_BASE_URL", "https://api.openai.com"),
		InferenceAPIKey:  getEnv("INFERENCE_API_KEY", ""),
		InferenceModel:   getEnv("INFERENCE_MODEL", "gpt-4o-mini"),
		InferenceTimeout: time.Duration(getEnvInt("INFERENCE_TIMEOUT_MS", 30000)) * time.Millisecond,
		AssistantID:      getEnv("ASSISTANT_ID", ""),
		AssistantName:    getEnv("ASSISTANT_NAME", "Portal Assistant"),
		PollInterval:     time.Duration(getEnvInt("POLL_INTERVAL_MS", 1000)) * time.Millisecond,
		PollMaxAttempts:  getEnvInt("POLL_MAX_ATTEMPTS", 60),
		CancelGrace:      time.Duration(getEnvInt("CANCEL_GRACE_MS", 1500)) * time.Millisecond,
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
