package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Vector    VectorConfig
	Ai        AIConfig
	Interview InterviewConfig
	Keys      APIKeys
	Tracing   TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	LogLevel           string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type VectorConfig struct {
	Backend    string // "pgvector", "qdrant" or "memory"
	URL        string // pgvector DSN or Qdrant base URL; empty disables vector features
	APIKey     string
	Collection string
}

func (v VectorConfig) Enabled() bool {
	return v.Backend == "memory" || v.URL != ""
}

type AIConfig struct {
	LLMProvider        string // "openai" (any OpenAI-compatible endpoint) or "ollama"
	LLMBaseURL         string
	PrimaryModel       string
	SecondaryModel     string
	EmbeddingProvider  string // "openai", "gemini" or "ollama"
	EmbeddingBaseURL   string
	EmbeddingModel     string
	EmbeddingDimension int
	OllamaBaseURL      string
}

type InterviewConfig struct {
	ConfidenceThreshold int
	SessionTTL          time.Duration
	ChunkSize           int
	ChunkOverlap        int
	RAGContextSize      int
	TopicsFile          string
	IndexingMode        string // "sync" or "async"
	IndexTopicName      string
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string  // OTLP/HTTP host:port
	SampleRatio float64 // fraction of new traces recorded
	ServiceName string
}

type APIKeys struct {
	LLM       string
	Embedding string
	JWTSecret string
}

const defaultOpenAICompatibleURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	llmKey := getEnv("LLM_API_KEY", getEnv("GEMINI_API_KEY", ""))

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/kt_assistant.log"),
			LogLevel:           getEnv("LOG_LEVEL", "INFO"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Vector: VectorConfig{
			Backend:    getEnv("VECTOR_BACKEND", "pgvector"),
			URL:        getEnv("VECTOR_URL", ""),
			APIKey:     getEnv("VECTOR_API_KEY", ""),
			Collection: getEnv("VECTOR_COLLECTION", "kt_topic_vectors"),
		},
		Ai: AIConfig{
			LLMProvider:        getEnv("LLM_PROVIDER", "openai"),
			LLMBaseURL:         getEnv("LLM_BASE_URL", defaultOpenAICompatibleURL),
			PrimaryModel:       getEnv("PRIMARY_MODEL_NAME", "gemini-2.0-flash"),
			SecondaryModel:     getEnv("SECONDARY_MODEL_NAME", "gemini-2.0-flash-lite"),
			EmbeddingProvider:  getEnv("EMBEDDING_PROVIDER", "openai"),
			EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", defaultOpenAICompatibleURL),
			EmbeddingModel:     getEnv("EMBEDDING_MODEL", "text-embedding-004"),
			EmbeddingDimension: getEnvAsInt("EMBEDDING_DIM", 768),
			OllamaBaseURL:      getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		},
		Interview: InterviewConfig{
			ConfidenceThreshold: getEnvAsInt("KT_CONFIDENCE_THRESHOLD", 80),
			SessionTTL:          getEnvAsDuration("SESSION_TTL", 6*time.Hour),
			ChunkSize:           getEnvAsInt("CHUNK_SIZE", 8000),
			ChunkOverlap:        getEnvAsInt("CHUNK_OVERLAP", 200),
			RAGContextSize:      getEnvAsInt("RAG_CONTEXT_SIZE", 5),
			TopicsFile:          getEnv("TOPICS_FILE", ""),
			IndexingMode:        getEnv("INDEXING_MODE", "sync"),
			IndexTopicName:      getEnv("INDEX_TOPIC_NAME", "INDEX_TOPIC_SUMMARY"),
		},
		Keys: APIKeys{
			LLM:       llmKey,
			Embedding: getEnv("EMBEDDING_API_KEY", llmKey),
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Tracing: TracingConfig{
			Enabled:     getEnv("OTEL_ENABLED", "false") == "true",
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			SampleRatio: getEnvAsFloat("OTEL_SAMPLE_RATIO", 1.0),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "kt-assistant"),
		},
	}
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
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("6h", "90m") or a bare number of hours.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if d, err := time.ParseDuration(strValue); err == nil {
		return d
	}
	if hours, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(hours) * time.Hour
	}
	return fallback
}
