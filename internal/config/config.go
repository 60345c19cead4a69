package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Keys      APIKeys
	Embedding EmbeddingConfig
	Naming    NamingConfig
	Topic     TopicConfig
	Scheduler SchedulerConfig
	Tracing   TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	SchedulerLogPath   string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	Timezone           string
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	JWTSecret string
}

type EmbeddingConfig struct {
	Provider   string // "gemini", "ollama", "jina" or "hash"
	Model      string
	BaseURL    string
	APIKey     string
	Dimensions int
	BatchSize  int // 0 lets the provider decide
	MaxChars   int
}

type NamingConfig struct {
	Provider string // "ollama" or "huggingface"
	Model    string
	BaseURL  string
	APIKey   string
}

type TopicConfig struct {
	MatchThreshold float64
	MaxNotes       int
	Concurrency    int
	NamingSample   int
	RetentionDays  int
}

type SchedulerConfig struct {
	Enabled           bool
	IntervalMinutes   int
	ActiveWindowHours int
	OwnerBatch        int
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			SchedulerLogPath:   getEnv("SCHEDULER_LOG_FILE_PATH", "scheduler.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			Timezone:           getEnv("APP_TIMEZONE", "UTC"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Embedding: EmbeddingConfig{
			Provider:   strings.ToLower(getEnv("EMBEDDING_PROVIDER", "gemini")),
			Model:      getEnv("EMBEDDING_MODEL", ""),
			BaseURL:    getEnv("EMBEDDING_BASE_URL", ""),
			APIKey:     getEnv("EMBEDDING_API_KEY", getEnv("GOOGLE_GEMINI_API_KEY", "")),
			Dimensions: getEnvAsInt("EMBEDDING_DIMENSIONS", 0),
			BatchSize:  getEnvAsInt("EMBEDDING_BATCH_SIZE", 0),
			MaxChars:   getEnvAsInt("EMBEDDING_MAX_CHARS", 8000),
		},
		Naming: NamingConfig{
			Provider: getEnv("LLM_PROVIDER", "ollama"),
			Model:    getEnv("LLM_MODEL", "llama3"),
			BaseURL:  getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			APIKey:   getEnv("HUGGINGFACE_API_KEY", ""),
		},
		Topic: TopicConfig{
			MatchThreshold: getEnvAsFloat("TOPIC_MATCH_THRESHOLD", 0.85),
			MaxNotes:       getEnvAsInt("TOPIC_MAX_NOTES", 500),
			Concurrency:    getEnvAsInt("TOPIC_REBUILD_CONCURRENCY", 4),
			NamingSample:   getEnvAsInt("TOPIC_NAMING_SAMPLE", 12),
			RetentionDays:  getEnvAsInt("TOPIC_RETENTION_DAYS", 30),
		},
		Scheduler: SchedulerConfig{
			Enabled:           getEnvAsBool("SCHEDULER_ENABLED", true),
			IntervalMinutes:   getEnvAsInt("SCHEDULER_INTERVAL_MINUTES", 60),
			ActiveWindowHours: getEnvAsInt("SCHEDULER_ACTIVE_WINDOW_HOURS", 24),
			OwnerBatch:        getEnvAsInt("SCHEDULER_OWNER_BATCH", 50),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "newsbox-topics"),
		},
	}
}

// Location resolves the configured timezone, falling back to UTC.
func (c AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
