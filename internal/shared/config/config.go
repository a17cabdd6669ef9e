package config

import (
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultModelID            = "amazon.nova-lite-v1:0"
	DefaultRegion             = "us-east-1"
	DefaultMaxTokens          = 4000
	DefaultInitialTemperature = 0.3
	DefaultRetryTemperature   = 0.1
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	Env             string
	DatabaseURL     string

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string
	KeepUploads     bool

	LLM       LLMConfig
	Telemetry TelemetryConfig

	RedisURL         string
	RedisQueue       string
	GenerationsQueue string
	AIRatePerMinute  int

	// Worker marks queue-consumer processes; set by their entrypoints.
	Worker bool
}

// LLMConfig selects the model transport and the invocation constants.
type LLMConfig struct {
	Provider           string
	ModelID            string
	APIKey             string
	Timeout            time.Duration
	MaxTokens          int
	InitialTemperature float64
	RetryTemperature   float64
	TransportRetry     bool
}

// TelemetryConfig controls where generation events are published.
type TelemetryConfig struct {
	Enabled  bool
	Sink     string
	Endpoint string
	APIKey   string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	provider := normalizeProvider(getEnv("LLM_PROVIDER", "bedrock"))
	return Config{
		Port:            getEnv("PORT", "8080"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		Env:             env,
		DatabaseURL:     dbURL,
		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", DefaultRegion),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),
		KeepUploads:     getEnvBool("KEEP_UPLOADS", false),
		LLM: LLMConfig{
			Provider:           provider,
			ModelID:            getEnv("MODEL_ID", defaultModelFor(provider)),
			APIKey:             apiKeyFor(provider),
			Timeout:            time.Duration(getEnvInt("LLM_TIMEOUT_SECONDS", 120)) * time.Second,
			MaxTokens:          getEnvInt("LLM_MAX_TOKENS", DefaultMaxTokens),
			InitialTemperature: getEnvFloat("LLM_INITIAL_TEMPERATURE", DefaultInitialTemperature),
			RetryTemperature:   getEnvFloat("LLM_RETRY_TEMPERATURE", DefaultRetryTemperature),
			TransportRetry:     getEnvBool("LLM_TRANSPORT_RETRY", false),
		},
		Telemetry: TelemetryConfig{
			Enabled:  getEnvBool("TELEMETRY_ENABLED", false),
			Sink:     normalizeSink(getEnv("TELEMETRY_SINK", "postgres")),
			Endpoint: getEnv("TELEMETRY_ENDPOINT", ""),
			APIKey:   getEnv("TELEMETRY_API_KEY", ""),
		},
		RedisURL:         getEnv("REDIS_URL", ""),
		RedisQueue:       getEnv("REDIS_GENERATIONS_QUEUE", "generations"),
		GenerationsQueue: getEnv("GENERATIONS_QUEUE_URL", ""),
		AIRatePerMinute:  getEnvInt("AI_RATE_PER_MINUTE", 30),
	}
}

// IsDevLike reports whether in-memory fallbacks are acceptable.
func (c Config) IsDevLike() bool {
	return c.Env == "dev" || c.Env == "local"
}

func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		// Existing environment wins over file values.
		if err := godotenv.Load(path); err != nil {
			log.Printf("env file %s ignored: %v", path, err)
		}
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func getEnvFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || v < 0 || v > 1 {
		log.Printf("config: ignoring %s=%q, want a number in [0, 1]", key, raw)
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "anthropic", "claude":
		return "anthropic"
	case "openai":
		return "openai"
	default:
		return "bedrock"
	}
}

func normalizeSink(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "sqs", "queue":
		return "sqs"
	case "redis":
		return "redis"
	case "http", "endpoint":
		return "http"
	default:
		return "postgres"
	}
}

func defaultModelFor(provider string) string {
	switch provider {
	case "anthropic":
		return "claude-3-5-haiku-latest"
	case "openai":
		return "gpt-4o-mini"
	default:
		return DefaultModelID
	}
}

func apiKeyFor(provider string) string {
	switch provider {
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	default:
		return ""
	}
}
