// Package config loads the engine's configuration as one enumerated struct.
// Nothing here accepts a free-form option bag: every field spec.md's
// Configuration section names gets its own field with its own default.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ProviderConfig holds connection settings for one LLM provider.
type ProviderConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Region  string // Bedrock only
}

// OTelConfig controls optional OpenTelemetry export.
type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
	enabled        bool
}

func (c OTelConfig) Enabled() bool { return c.enabled && c.Endpoint != "" }

// Config holds all engine configuration, loaded once at process start.
type Config struct {
	Env  string
	Port string

	RedisURL string // optional; when empty the session store stays in-memory only

	ArangoURL      string
	ArangoUser     string
	ArangoPassword string
	ArangoDatabase string

	TypesenseURL    string
	TypesenseAPIKey string

	ExpertA ProviderConfig // OpenAI
	ExpertB ProviderConfig // Anthropic
	ExpertC ProviderConfig // Bedrock
	ExpertD ProviderConfig // moderator, langchaingo/OpenAI-compatible

	OTel OTelConfig

	// Engine tunables — defaults match spec.md §6 exactly.
	TurnTimeout        time.Duration
	ExpertTimeout      time.Duration
	ModeratorTimeout   time.Duration
	ClassifierTimeout  time.Duration
	MaxExperts         int
	MinExpertsForDebate int
	SessionIdleTimeout time.Duration
	MaxHistoryTurns    int
	ConfidenceFloor    float64
	ConfidenceCeiling  float64
}

// Load loads configuration from environment variables (and a .env file if
// present), falling back to the engine's documented defaults.
func Load() Config {
	_ = godotenv.Load() // best-effort; absence of a .env file is not an error

	return Config{
		Env:  getEnv("ADVISOR_ENV", "development"),
		Port: getEnv("PORT", "8080"),

		RedisURL: getEnv("REDIS_URL", ""),

		ArangoURL:      getEnv("ARANGO_URL", "http://localhost:8529"),
		ArangoUser:     getEnv("ARANGO_USER", "root"),
		ArangoPassword: getEnv("ARANGO_PASSWORD", ""),
		ArangoDatabase: getEnv("ARANGO_DATABASE", "advisor"),

		TypesenseURL:    getEnv("TYPESENSE_URL", "http://localhost:8108"),
		TypesenseAPIKey: getEnv("TYPESENSE_API_KEY", ""),

		ExpertA: ProviderConfig{
			APIKey:  getEnv("EXPERT_A_API_KEY", ""),
			BaseURL: getEnv("EXPERT_A_BASE_URL", ""),
			Model:   getEnv("EXPERT_A_MODEL", "gpt-4o-mini"),
		},
		ExpertB: ProviderConfig{
			APIKey:  getEnv("EXPERT_B_API_KEY", ""),
			BaseURL: getEnv("EXPERT_B_BASE_URL", ""),
			Model:   getEnv("EXPERT_B_MODEL", "claude-sonnet-4-5-20250514"),
		},
		ExpertC: ProviderConfig{
			APIKey: getEnv("EXPERT_C_API_KEY", ""),
			Model:  getEnv("EXPERT_C_MODEL", "anthropic.claude-3-5-sonnet-20241022-v2:0"),
			Region: getEnv("EXPERT_C_REGION", "us-east-1"),
		},
		ExpertD: ProviderConfig{
			APIKey:  getEnv("EXPERT_D_API_KEY", ""),
			BaseURL: getEnv("EXPERT_D_BASE_URL", ""),
			Model:   getEnv("EXPERT_D_MODEL", "gpt-4o"),
		},

		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "advisor-engine"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
			enabled:        getEnvBool("OTEL_ENABLED", false),
		},

		TurnTimeout:         time.Duration(getEnvInt("TURN_TIMEOUT_S", 180)) * time.Second,
		ExpertTimeout:       time.Duration(getEnvInt("EXPERT_TIMEOUT_S", 60)) * time.Second,
		ModeratorTimeout:    time.Duration(getEnvInt("MODERATOR_TIMEOUT_S", 60)) * time.Second,
		ClassifierTimeout:   time.Duration(getEnvInt("CLASSIFIER_TIMEOUT_S", 10)) * time.Second,
		MaxExperts:          getEnvInt("MAX_EXPERTS", 3),
		MinExpertsForDebate: getEnvInt("MIN_EXPERTS_FOR_DEBATE", 2),
		SessionIdleTimeout:  time.Duration(getEnvInt("SESSION_IDLE_HOURS", 24)) * time.Hour,
		MaxHistoryTurns:     getEnvInt("MAX_HISTORY_TURNS", 50),
		ConfidenceFloor:     getEnvFloat("CONFIDENCE_FLOOR", 0.3),
		ConfidenceCeiling:   getEnvFloat("CONFIDENCE_CEILING", 0.95),
	}
}

// IsProduction returns true if running in production environment.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// IsDevelopment returns true if running in development environment.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
