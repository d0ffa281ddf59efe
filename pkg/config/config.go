package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string
	JWTSecret   string

	// Reader service (Google-Reader-compatible API)
	ReaderBaseURL      string
	ReaderClientID     string
	ReaderClientSecret string
	ReaderDailyQuota   int
	RemoteCallTimeout  time.Duration

	// Batch processor tuning
	SyncInterval    time.Duration
	MinBatchSize    int
	MaxStaleness    time.Duration
	TriggerDebounce time.Duration
	ChunkSize       int
	BackoffBase     time.Duration
	BackoffCap      time.Duration
	RunRetention    time.Duration
	FastStoreLinger time.Duration

	// Push/alerting (optional)
	GoogleProjectID     string
	GooglePubSubTopic   string
	GoogleCredentials   string
	FirebaseCredentials string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", "host=localhost user=feedbox dbname=feedbox port=5432 sslmode=disable"),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379/0"),
		JWTSecret:   getEnv("JWT_SECRET", "your-secret-key-change-in-production"),

		ReaderBaseURL:      getEnv("READER_BASE_URL", "https://www.inoreader.com"),
		ReaderClientID:     getEnv("READER_CLIENT_ID", ""),
		ReaderClientSecret: getEnv("READER_CLIENT_SECRET", ""),
		ReaderDailyQuota:   getEnvInt("READER_DAILY_QUOTA", 100),
		RemoteCallTimeout:  getEnvDuration("REMOTE_CALL_TIMEOUT", 30*time.Second),

		SyncInterval:    getEnvDuration("SYNC_INTERVAL", 5*time.Minute),
		MinBatchSize:    getEnvInt("SYNC_MIN_BATCH", 5),
		MaxStaleness:    getEnvDuration("SYNC_MAX_STALENESS", 15*time.Minute),
		TriggerDebounce: getEnvDuration("SYNC_TRIGGER_DEBOUNCE", 500*time.Millisecond),
		ChunkSize:       getEnvInt("SYNC_CHUNK_SIZE", 100),
		BackoffBase:     getEnvDuration("SYNC_BACKOFF_BASE", 30*time.Second),
		BackoffCap:      getEnvDuration("SYNC_BACKOFF_CAP", 30*time.Minute),
		RunRetention:    getEnvDuration("SYNC_RUN_RETENTION", 24*time.Hour),
		FastStoreLinger: getEnvDuration("SYNC_FAST_STORE_LINGER", 60*time.Second),

		GoogleProjectID:     getEnv("GOOGLE_PROJECT_ID", ""),
		GooglePubSubTopic:   getEnv("GOOGLE_PUBSUB_TOPIC", "feedbox-sync"),
		GoogleCredentials:   getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		FirebaseCredentials: getEnv("FIREBASE_CREDENTIALS", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
