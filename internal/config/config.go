package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"
)

// Config centralizes runtime settings for the graph worker.
type Config struct {
	LogLevel string

	RedisURL       string
	GraphStream    string
	GraphGroup     string
	GraphDLQStream string
	ConsumerID     string

	MongoURI              string
	MongoDBName           string
	MongoJobsCollection   string
	MongoScenesCollection string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	PollBlockMS    int
	ErrorBackoffMS int
}

func Load() Config {
	return Config{
		LogLevel: getEnv("LOG_LEVEL", "info"),

		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379"),
		GraphStream:    getEnv("REDIS_STREAM_GRAPH_GENERATION", "stream_graph_generation"),
		GraphGroup:     getEnv("REDIS_GROUP_GRAPH_WORKERS", "group_graph_workers"),
		GraphDLQStream: getEnv("REDIS_STREAM_GRAPH_DLQ", "stream_graph_generation_dlq"),
		ConsumerID:     getEnv("REDIS_CONSUMER", defaultConsumerID()),

		MongoURI:              getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:           getEnv("MONGO_DB_NAME", "site2data"),
		MongoJobsCollection:   getEnv("MONGO_JOBS_COLLECTION", "jobs"),
		MongoScenesCollection: getEnv("MONGO_SCENES_COLLECTION", "scenes"),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
		MinioBucket:    getEnv("MINIO_BUCKET", "scripts"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		PollBlockMS:    getEnvInt("WORKER_POLL_BLOCK_MS", 5000),
		ErrorBackoffMS: getEnvInt("WORKER_ERROR_BACKOFF_MS", 5000),
	}
}

// defaultConsumerID is unique per process so multiple workers can share the
// consumer group without colliding, even across hosts with equal pids.
func defaultConsumerID() string {
	return fmt.Sprintf("graph-worker-%d-%s", os.Getpid(), uuid.NewString()[:8])
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
