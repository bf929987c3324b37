package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	// Server
	ServerPort      string
	ServerHost      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	MaxRequestBody  int64
	RateLimitRPS    int
	RateLimitBurst  int
	CORSAllowOrigin string

	// Store
	StoreDriver string

	// Database
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Redis
	RedisEnabled  bool
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RunReportTTL  time.Duration

	// Kafka
	KafkaBrokers     []string
	KafkaGroupID     string
	KafkaReviewTopic string

	// Hostaway
	HostawayBaseURL     string
	HostawayAccountID   string
	HostawayAPIKey      string
	HostawayTokenURL    string
	HostawayTimeout     time.Duration
	HostawayFixturePath string

	// Property page
	PropertyCatalogPath string
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	return &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		ServerHost:      getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:     getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:    getDuration("WRITE_TIMEOUT", 30*time.Second),
		MaxRequestBody:  int64(getIntEnv("MAX_REQUEST_BODY_BYTES", 1024*1024)),
		RateLimitRPS:    getIntEnv("RATE_LIMIT_RPS", 50),
		RateLimitBurst:  getIntEnv("RATE_LIMIT_BURST", 100),
		CORSAllowOrigin: getEnv("CORS_ALLOW_ORIGIN", "*"),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "reviews"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "reviews"),
		PostgresDB:       getEnv("POSTGRES_DB", "reviews"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisEnabled:  getBoolEnv("REDIS_ENABLED", false),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),
		RunReportTTL:  getDuration("RUN_REPORT_TTL", 7*24*time.Hour),

		KafkaBrokers:     getStringSliceEnv("KAFKA_BROKERS", nil),
		KafkaGroupID:     getEnv("KAFKA_GROUP_ID", "reviews-service"),
		KafkaReviewTopic: getEnv("KAFKA_REVIEW_TOPIC", "review-events"),

		HostawayBaseURL:     strings.TrimRight(getEnv("HOSTAWAY_BASE_URL", "https://api.hostaway.com/v1"), "/"),
		HostawayAccountID:   getEnv("HOSTAWAY_ACCOUNT_ID", ""),
		HostawayAPIKey:      getEnv("HOSTAWAY_API_KEY", ""),
		HostawayTokenURL:    getEnv("HOSTAWAY_TOKEN_URL", ""),
		HostawayTimeout:     getDuration("HOSTAWAY_TIMEOUT", 15*time.Second),
		HostawayFixturePath: getEnv("HOSTAWAY_FIXTURE_PATH", "data/hostaway_mock_reviews.json"),

		PropertyCatalogPath: getEnv("PROPERTY_CATALOG_PATH", ""),
	}
}

// KafkaEnabled reports whether review events should be published.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
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

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
