package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// SSOT: all environment variables are read here and nowhere else.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External collaborators
	ERP         ERPConfig
	SupplyChain SupplyChainConfig
	Qdrant      QdrantConfig
	Embedding   EmbeddingConfig
	Market      MarketConfig
	Ingest      IngestConfig

	// Pipeline tuning
	Pipeline PipelineConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	URL      string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// ERPConfig holds the internal-data (ERP/WMS/MES) API configuration
type ERPConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// SupplyChainConfig holds the supply-chain monitoring feed configuration
type SupplyChainConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// QdrantConfig holds the vector store configuration
type QdrantConfig struct {
	Addr       string
	APIKey     string
	Collection string
	VectorSize int
}

// EmbeddingConfig holds the embedding API configuration
// (OpenAI-compatible endpoint)
type EmbeddingConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// MarketConfig holds the market-analysis LLM API configuration
// (OpenAI-compatible chat endpoint)
type MarketConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
	RatePerSec float64
}

// IngestConfig holds market-news ingestion configuration
type IngestConfig struct {
	FeedURLs  []string
	UserAgent string
}

// PipelineConfig holds forecast pipeline tuning
type PipelineConfig struct {
	HorizonPeriods      int
	MinHistoryPeriods   int
	ContextTopK         int
	OverCapacityMargin  float64
	UnderUtilizedMargin float64
	RunDeadline         time.Duration
	CollectTimeout      time.Duration
	NotifyRecipients    []string
	ProductCodes        []string
}

// Load reads configuration from environment variables
// SSOT: only this function calls os.Getenv().
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8090"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "demandcast"),
			User:            getEnv("DB_USER", "demandcast"),
			Password:        getEnv("DB_PASSWORD", ""),
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		// External collaborators
		ERP: ERPConfig{
			BaseURL: getEnv("ERP_BASE_URL", "http://localhost:9001"),
			APIKey:  getEnv("ERP_API_KEY", ""),
			Timeout: getEnvAsDuration("ERP_TIMEOUT", "20s"),
		},

		SupplyChain: SupplyChainConfig{
			BaseURL: getEnv("SUPPLY_CHAIN_BASE_URL", "http://localhost:9002"),
			APIKey:  getEnv("SUPPLY_CHAIN_API_KEY", ""),
			Timeout: getEnvAsDuration("SUPPLY_CHAIN_TIMEOUT", "20s"),
		},

		Qdrant: QdrantConfig{
			Addr:       getEnv("QDRANT_ADDR", "localhost:6334"),
			APIKey:     getEnv("QDRANT_API_KEY", ""),
			Collection: getEnv("QDRANT_COLLECTION", "market_context"),
			VectorSize: getEnvAsInt("QDRANT_VECTOR_SIZE", 1536),
		},

		Embedding: EmbeddingConfig{
			BaseURL: getEnv("EMBEDDING_API_BASE_URL", "https://api.openai.com/v1"),
			APIKey:  getEnv("EMBEDDING_API_KEY", ""),
			Model:   getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		},

		Market: MarketConfig{
			BaseURL:    getEnv("MARKET_API_BASE_URL", "https://api.openai.com/v1"),
			APIKey:     getEnv("MARKET_API_KEY", ""),
			Model:      getEnv("MARKET_MODEL", "gpt-4o-mini"),
			Timeout:    getEnvAsDuration("MARKET_TIMEOUT", "30s"),
			MaxRetries: getEnvAsInt("MARKET_MAX_RETRIES", 2),
			RatePerSec: getEnvAsFloat("MARKET_RATE_PER_SEC", 2.0),
		},

		Ingest: IngestConfig{
			FeedURLs:  getEnvAsSlice("INGEST_FEED_URLS", nil),
			UserAgent: getEnv("INGEST_USER_AGENT", "demandcast-ingest/1.0"),
		},

		// Pipeline tuning
		Pipeline: PipelineConfig{
			HorizonPeriods:      getEnvAsInt("PIPELINE_HORIZON_PERIODS", 3),
			MinHistoryPeriods:   getEnvAsInt("PIPELINE_MIN_HISTORY_PERIODS", 24),
			ContextTopK:         getEnvAsInt("PIPELINE_CONTEXT_TOP_K", 5),
			OverCapacityMargin:  getEnvAsFloat("PIPELINE_OVER_CAPACITY_MARGIN", 0.0),
			UnderUtilizedMargin: getEnvAsFloat("PIPELINE_UNDER_UTILIZED_MARGIN", 0.20),
			RunDeadline:         getEnvAsDuration("PIPELINE_RUN_DEADLINE", "10m"),
			CollectTimeout:      getEnvAsDuration("PIPELINE_COLLECT_TIMEOUT", "60s"),
			NotifyRecipients:    getEnvAsSlice("PIPELINE_NOTIFY_RECIPIENTS", nil),
			ProductCodes:        getEnvAsSlice("PIPELINE_PRODUCT_CODES", nil),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Pipeline.HorizonPeriods < 1 {
		return fmt.Errorf("PIPELINE_HORIZON_PERIODS must be >= 1")
	}

	if c.Pipeline.MinHistoryPeriods < 2 {
		return fmt.Errorf("PIPELINE_MIN_HISTORY_PERIODS must be >= 2")
	}

	if c.Pipeline.ContextTopK < 1 {
		return fmt.Errorf("PIPELINE_CONTEXT_TOP_K must be >= 1")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
			filepath.Join(exeDir, "..", "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
