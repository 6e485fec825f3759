package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Blockfrost settings
	BlockfrostURL       string
	BlockfrostProjectID string
	BlockfrostRPS       int

	// REST APIs
	MuesliSwapAPIURL string
	TokenRegistryURL string

	// Fetch behaviour
	AllowAPIFallback bool
	FetchMetadata    bool
	FetchConcurrency int
	ProtocolsFile    string

	// Redis settings
	RedisAddr        string
	MetadataCacheTTL time.Duration

	// ClickHouse settings
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string

	// HTTP client settings
	HTTPTimeout  time.Duration
	MaxRetries   int
	RetryBackoff time.Duration

	// API server
	APIAddr string
	APIKey  string
	DevMode bool

	// Indexer
	PollInterval time.Duration
}

func Load() *Config {
	return &Config{
		// Blockfrost
		BlockfrostURL:       getEnv("BLOCKFROST_URL", "https://cardano-mainnet.blockfrost.io/api/v0"),
		BlockfrostProjectID: getEnv("BLOCKFROST_PROJECT_ID", ""),
		BlockfrostRPS:       getIntEnv("BLOCKFROST_RPS", 10),

		// APIs
		MuesliSwapAPIURL: getEnv("MUESLISWAP_API_URL", "https://api.muesliswap.com"),
		TokenRegistryURL: getEnv("TOKEN_REGISTRY_URL", "https://tokens.cardano.org"),

		// Fetch
		AllowAPIFallback: getBoolEnv("ALLOW_API_FALLBACK", true),
		FetchMetadata:    getBoolEnv("FETCH_METADATA", true),
		FetchConcurrency: getIntEnv("FETCH_CONCURRENCY", 8),
		ProtocolsFile:    getEnv("PROTOCOLS_FILE", ""),

		// Redis
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		MetadataCacheTTL: getDurationEnv("METADATA_CACHE_TTL", 24*time.Hour),

		// ClickHouse
		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", "localhost:9000"),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "cardano"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),

		// HTTP
		HTTPTimeout:  getDurationEnv("HTTP_TIMEOUT", 30*time.Second),
		MaxRetries:   getIntEnv("MAX_RETRIES", 5),
		RetryBackoff: getDurationEnv("RETRY_BACKOFF", 2*time.Second),

		// API
		APIAddr: getEnv("API_ADDR", ":8080"),
		APIKey:  getEnv("API_KEY", ""),
		DevMode: getBoolEnv("DEV_MODE", false),

		// Indexer
		PollInterval: getDurationEnv("POLL_INTERVAL", 60*time.Second),
	}
}

// HasLedgerProvider reports whether a Blockfrost project is configured
func (c *Config) HasLedgerProvider() bool {
	return c.BlockfrostProjectID != ""
}

// Validate checks settings that have no safe fallback
func (c *Config) Validate() error {
	if c.FetchConcurrency <= 0 {
		return fmt.Errorf("FETCH_CONCURRENCY must be > 0, got %d", c.FetchConcurrency)
	}
	if c.BlockfrostRPS <= 0 {
		return fmt.Errorf("BLOCKFROST_RPS must be > 0, got %d", c.BlockfrostRPS)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be > 0")
	}
	if !c.HasLedgerProvider() && !c.AllowAPIFallback {
		return fmt.Errorf("either BLOCKFROST_PROJECT_ID or ALLOW_API_FALLBACK is required")
	}
	return nil
}

// ValidateAPI is Validate plus the settings only the HTTP server needs
func (c *Config) ValidateAPI() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if !c.DevMode && c.APIKey == "" {
		return fmt.Errorf("API_KEY is required unless DEV_MODE is set")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
