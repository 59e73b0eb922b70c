// Package config loads the assistant configuration from the environment,
// with .env support for local development.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds everything the commands need to wire the services.
type Config struct {
	// HTTP
	HTTPAddr string
	BaseURL  string

	// Queue
	NATSURL string

	// LLM
	LLMAPIKey         string
	LLMBaseURL        string
	LLMModel          string
	LLMEmbeddingModel string

	// Storage
	KnowledgePath string
	DBPath        string

	// Personas
	DefaultPersona  string
	InformalPersona string

	// Notifications
	PushoverToken   string
	PushoverUserKey string

	// Gmail OAuth
	GoogleCredentialsPath string
	GoogleTokenPath       string
	GmailAccount          string
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// Load reads the configuration, merging a local .env file when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		BaseURL:  getEnv("BASE_URL", "http://localhost:8080"),

		NATSURL: getEnv("NATS_URL", "nats://localhost:4222"),

		LLMAPIKey:         getEnv("LLM_API_KEY", ""),
		LLMBaseURL:        getEnv("LLM_BASE_URL", ""),
		LLMModel:          getEnv("LLM_MODEL", "gpt-4.1-mini"),
		LLMEmbeddingModel: getEnv("LLM_EMBEDDING_MODEL", "text-embedding-3-small"),

		KnowledgePath: getEnv("KNOWLEDGE_PATH", "./knowledge.yaml"),
		DBPath:        getEnv("DB_PATH", "./data/assistant.db"),

		DefaultPersona:  getEnv("DEFAULT_PERSONA", "formal"),
		InformalPersona: getEnv("INFORMAL_PERSONA", "informal"),

		PushoverToken:   getEnv("PUSHOVER_TOKEN", ""),
		PushoverUserKey: getEnv("PUSHOVER_USER_KEY", ""),

		GoogleCredentialsPath: getEnv("GOOGLE_CREDENTIALS_PATH", "./credentials.json"),
		GoogleTokenPath:       getEnv("GOOGLE_TOKEN_PATH", "./token.json"),
		GmailAccount:          getEnv("GMAIL_ACCOUNT", "me"),
	}
}
