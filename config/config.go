package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	StoreBackend string
	StoreDir     string
	SQLitePath   string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	CacheTTL         time.Duration
	CacheSize        int
	FetchConcurrency int
	FetchRetries     int
	FetchRetryDelay  time.Duration

	RulesPath string
	ExportDir string
	HTTPAddr  string

	LogLevel  string
	LogFormat string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		StoreBackend: getEnv("STORE_BACKEND", "dir"),
		StoreDir:     getEnv("STORE_DIR", "./data"),
		SQLitePath:   getEnv("SQLITE_PATH", "./data/snapshots.db"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scooper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scooper"),
		PostgresDB:       getEnv("POSTGRES_DB", "scoops"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		CacheTTL:         getEnvDuration("CACHE_TTL", 10*time.Minute),
		CacheSize:        getEnvInt("CACHE_SIZE", 64),
		FetchConcurrency: getEnvInt("FETCH_CONCURRENCY", 4),
		FetchRetries:     getEnvInt("FETCH_RETRIES", 3),
		FetchRetryDelay:  getEnvDuration("FETCH_RETRY_DELAY", 500*time.Millisecond),

		RulesPath: getEnv("RULES_PATH", "rules.yaml"),
		ExportDir: getEnv("EXPORT_DIR", "./output"),
		HTTPAddr:  getEnv("HTTP_ADDR", ":8080"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err == nil {
			return d
		}
	}
	return fallback
}
