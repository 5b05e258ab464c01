package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	CORS     CORSConfig
	Log      LogConfig
	Quote    QuoteConfig
	Redis    RedisConfig
	Snapshot SnapshotConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// LogConfig selects the logrus level and formatter.
type LogConfig struct {
	Level  string
	Format string // "text" or "json"
}

// QuoteConfig configures price retrieval.
type QuoteConfig struct {
	Source           string // "yahoo" or "static"
	TablesPath       string
	YahooBaseURL     string
	CacheTTL         time.Duration
	BatchSize        int
	Timeout          time.Duration
	RequestsPerSec   float64
	DefaultUSDPerEUR float64
}

// RedisConfig enables the shared quote cache when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// SnapshotConfig configures the in-process snapshot trigger.
type SnapshotConfig struct {
	Cron string // empty disables the trigger
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	p := &parser{}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/portfolio.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost")),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		Quote: QuoteConfig{
			Source:           strings.ToLower(getEnv("QUOTE_SOURCE", "yahoo")),
			TablesPath:       getEnv("QUOTE_TABLES_PATH", ""),
			YahooBaseURL:     getEnv("YAHOO_BASE_URL", ""),
			CacheTTL:         p.duration("QUOTE_CACHE_TTL", 60*time.Second),
			BatchSize:        p.int("QUOTE_BATCH_SIZE", 5),
			Timeout:          p.duration("QUOTE_TIMEOUT", 10*time.Second),
			RequestsPerSec:   p.float("QUOTE_RPS", 0),
			DefaultUSDPerEUR: p.float("DEFAULT_USD_PER_EUR", 1.09),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       p.int("REDIS_DB", 0),
		},
		Snapshot: SnapshotConfig{
			Cron: getEnv("SNAPSHOT_CRON", ""),
		},
	}

	if p.err != nil {
		return nil, p.err
	}

	switch config.Quote.Source {
	case "yahoo", "static":
	default:
		return nil, fmt.Errorf("invalid QUOTE_SOURCE %q: must be yahoo or static", config.Quote.Source)
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// parser reads typed variables and keeps the first error.
type parser struct {
	err error
}

func (p *parser) fail(key, value string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
}

func (p *parser) int(key string, def int) int {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		p.fail(key, value, err)
		return def
	}
	return n
}

func (p *parser) float(key string, def float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		p.fail(key, value, err)
		return def
	}
	return f
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		p.fail(key, value, err)
		return def
	}
	return d
}
