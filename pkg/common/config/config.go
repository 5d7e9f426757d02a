package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	ServerPort   string
	ServerHost   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Database
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Kafka
	KafkaBrokers []string
	KafkaGroupID string

	// Neo4j (graph store collaborator)
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
	Neo4jDatabase string

	// Embedding provider
	EmbeddingBaseURL        string
	EmbeddingModel          string
	EmbeddingAPIKey         string
	EmbeddingOAuthTokenURL  string
	EmbeddingOAuthClientID  string
	EmbeddingOAuthSecret    string
	EmbeddingChunkSize      int
	EmbeddingMaxAttempts    int
	EmbeddingBaseDelay      time.Duration
	EmbeddingRequestTimeout time.Duration
	EmbeddingMaxInflight    int

	// Ingest
	IngestAllowedSources []string
	MaxRequestBody       int64

	// Pipeline
	PipelineWorkers  int
	AdmissionTimeout time.Duration
	TerminologyPath  string
	IngestStatusTTL  time.Duration
	VectorCacheTTL   time.Duration
	AdmissionTopic   string
	EmbeddedTopic    string
	PipelineDLQTopic string
	PipelineGroupID  string
}

func Load() *Config {
	return &Config{
		ServerPort:   getEnv("SERVER_PORT", "8080"),
		ServerHost:   getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:  getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout: getDuration("WRITE_TIMEOUT", 30*time.Second),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "uttree"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "uttree123"),
		PostgresDB:       getEnv("POSTGRES_DB", "uttree"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		KafkaBrokers: getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaGroupID: getEnv("KAFKA_GROUP_ID", "uttree-platform"),

		Neo4jURI:      getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:     getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword: getEnv("NEO4J_PASSWORD", ""),
		Neo4jDatabase: getEnv("NEO4J_DATABASE", ""),

		EmbeddingBaseURL:        getEnv("EMBEDDING_BASE_URL", "http://localhost:11434"),
		EmbeddingModel:          getEnv("EMBEDDING_MODEL", "mxbai-embed-large"),
		EmbeddingAPIKey:         getEnv("EMBEDDING_API_KEY", ""),
		EmbeddingOAuthTokenURL:  getEnv("EMBEDDING_OAUTH_TOKEN_URL", ""),
		EmbeddingOAuthClientID:  getEnv("EMBEDDING_OAUTH_CLIENT_ID", ""),
		EmbeddingOAuthSecret:    getEnv("EMBEDDING_OAUTH_CLIENT_SECRET", ""),
		EmbeddingChunkSize:      getIntEnv("EMBEDDING_CHUNK_SIZE", 2000),
		EmbeddingMaxAttempts:    getIntEnv("EMBEDDING_MAX_ATTEMPTS", 4),
		EmbeddingBaseDelay:      getDuration("EMBEDDING_BASE_DELAY", 250*time.Millisecond),
		EmbeddingRequestTimeout: getDuration("EMBEDDING_REQUEST_TIMEOUT", 30*time.Second),
		EmbeddingMaxInflight:    getIntEnv("EMBEDDING_MAX_INFLIGHT", 8),

		IngestAllowedSources: getStringSliceEnv("INGEST_ALLOWED_SOURCES", []string{"mimic", "ehr", "manual"}),
		MaxRequestBody:       int64(getIntEnv("MAX_REQUEST_BODY", 10<<20)),

		PipelineWorkers:  getIntEnv("PIPELINE_WORKERS", 4),
		AdmissionTimeout: getDuration("ADMISSION_TIMEOUT", 2*time.Minute),
		TerminologyPath:  getEnv("TERMINOLOGY_PATH", ""),
		IngestStatusTTL:  getDuration("INGEST_STATUS_TTL", 24*time.Hour),
		VectorCacheTTL:   getDuration("VECTOR_CACHE_TTL", 12*time.Hour),
		AdmissionTopic:   getEnv("ADMISSION_TOPIC", "admission-ready"),
		EmbeddedTopic:    getEnv("EMBEDDED_TOPIC", "admission-embedded"),
		PipelineDLQTopic: getEnv("PIPELINE_DLQ_TOPIC", "uttree-pipeline-dlq"),
		PipelineGroupID:  getEnv("PIPELINE_GROUP_ID", "pipeline-service"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
