package config

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Token store backends.
const (
	TokenStoreFile  = "file"
	TokenStoreRedis = "redis"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	APIBaseURL   string
	APITimeoutMs int

	MaxRetries       int
	RetryBaseDelayMs int
	MaxConcurrency   int
	RateLimitMs      int
	PageSize         int

	FeaturesCacheTTLMs int

	TokenStore    string
	TokenFile     string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LogLevel  string
	LogFormat string
	LogFile   string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	ChromeBin          string

	CSVOutputPath string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		APIBaseURL:   getEnv("API_BASE_URL", "http://localhost:5000/"),
		APITimeoutMs: getEnvInt("API_TIMEOUT_MS", 15000),

		MaxRetries:       getEnvInt("MAX_RETRIES", 3),
		RetryBaseDelayMs: getEnvInt("RETRY_BASE_DELAY_MS", 500),
		MaxConcurrency:   getEnvInt("MAX_CONCURRENCY", 3),
		RateLimitMs:      getEnvInt("RATE_LIMIT_MS", 0),
		PageSize:         getEnvInt("PAGE_SIZE", 20),

		FeaturesCacheTTLMs: getEnvInt("FEATURES_CACHE_TTL_MS", 600000),

		TokenStore:    getEnv("TOKEN_STORE", TokenStoreFile),
		TokenFile:     getEnv("TOKEN_FILE", defaultTokenFile()),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
		LogFile:   getEnv("LOG_FILE", ""),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8085/callback"),
		ChromeBin:          getEnv("CHROME_BIN", ""),

		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./output/rooms.csv"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "dormhop"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "dormhop"),
		PostgresDB:       getEnv("POSTGRES_DB", "dormhop"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
	}
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return errors.New("config: API_BASE_URL is required")
	}
	if c.PageSize < 1 {
		return errors.New("config: PAGE_SIZE must be positive")
	}
	if c.MaxConcurrency < 1 {
		return errors.New("config: MAX_CONCURRENCY must be positive")
	}
	if c.TokenStore != TokenStoreFile && c.TokenStore != TokenStoreRedis {
		return errors.New("config: TOKEN_STORE must be \"file\" or \"redis\"")
	}
	return nil
}

// APITimeout returns the per-request timeout of the REST client.
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.APITimeoutMs) * time.Millisecond
}

// RetryBaseDelay returns the first back-off interval for GET loads.
func (c *Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.RetryBaseDelayMs) * time.Millisecond
}

// FeaturesCacheTTL returns how long the dorm features map stays cached.
func (c *Config) FeaturesCacheTTL() time.Duration {
	return time.Duration(c.FeaturesCacheTTLMs) * time.Millisecond
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

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".dormhop/token"
	}
	return filepath.Join(home, ".dormhop", "token")
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
		if err != nil {
			log.Printf("[config] Invalid int for %s=%q, using default %d", key, val, fallback)
			return fallback
		}
		return n
	}
	return fallback
}
