package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	AggregatorBaseURL string
	APITimeout        time.Duration
	SearchPageSize    int

	// LogFile is where the TUI writes structured logs. Empty disables
	// logging so the terminal stays clean.
	LogFile string

	NATSURL          string
	NATSConnTimeout  time.Duration
	IngestSubject    string
	IngestQueueGroup string
	IngestBatchSize  int
	FlushInterval    time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SeenTTL       time.Duration

	OTELCollectorURL string
}

func LoadConfig() (*Config, error) {
	config := &Config{
		AggregatorBaseURL: getEnvString("AGGREGATOR_BASE_URL", "http://localhost:8000"),
		APITimeout:        getEnvDuration("AGGREGATOR_API_TIMEOUT", 10*time.Second),
		SearchPageSize:    getEnvInt("SEARCH_PAGE_SIZE", 20),

		LogFile: getEnvString("JOBSEARCH_LOG_FILE", ""),

		NATSURL:          getEnvString("NATS_URL", "nats://localhost:4222"),
		NATSConnTimeout:  getEnvDuration("NATS_CONN_TIMEOUT", 10*time.Second),
		IngestSubject:    getEnvString("INGEST_SUBJECT", "jobs.postings"),
		IngestQueueGroup: getEnvString("INGEST_QUEUE_GROUP", "ingest-bridge"),
		IngestBatchSize:  getEnvInt("INGEST_BATCH_SIZE", 50),
		FlushInterval:    getEnvDuration("INGEST_FLUSH_INTERVAL", 5*time.Second),

		RedisAddr:     getEnvString("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnvString("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		SeenTTL:       getEnvDuration("SEEN_TTL", 24*time.Hour),

		OTELCollectorURL: getEnvString("OTEL_COLLECTOR_URL", "localhost:4317"),
	}

	return config, nil
}

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
