// Package config loads gridrules settings from environment variables.
// Defaults cover local use; Validate reports every bad setting at once so
// a misconfigured deployment fails on startup rather than on first use.
package config

import (
	"strconv"
	"time"
)

// Store backends for RuleSetConfig.Store.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Dataset  DatasetConfig
	RuleSets RuleSetConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds PostgreSQL settings. Only used by the postgres store.
type DatabaseConfig struct {
	// URL is the connection string. Required when RULESETS_STORE=postgres.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"1"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// DatasetConfig controls file loading and revalidation.
type DatasetConfig struct {
	// MaxFileSize is the largest accepted upload in bytes (default: 20MB)
	MaxFileSize int64 `env:"DATASET_MAX_FILE_SIZE" default:"20971520"`

	// MaxRows caps data rows per file (default: 100000)
	MaxRows int `env:"DATASET_MAX_ROWS" default:"100000"`

	// InferNumbers stores numeric-looking cells as numbers (default: true)
	InferNumbers bool `env:"DATASET_INFER_NUMBERS" default:"true"`

	// MaxConcurrent is the number of files loaded in parallel (default: 5)
	MaxConcurrent int `env:"DATASET_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long a load waits for a slot (default: 30s)
	MaxWaitTime time.Duration `env:"DATASET_MAX_WAIT_TIME" default:"30s"`

	// RevalidateWorkers bounds parallel revalidation; 0 uses GOMAXPROCS.
	RevalidateWorkers int `env:"DATASET_REVALIDATE_WORKERS" default:"0"`

	// BatchSize is rows per revalidation batch (default: 1000)
	BatchSize int `env:"DATASET_BATCH_SIZE" default:"1000"`
}

// RuleSetConfig selects and prepares the rule set store.
type RuleSetConfig struct {
	// Store is memory or postgres (default: memory)
	Store string `env:"RULESETS_STORE" default:"memory"`

	// CacheTTL expires the cached rule set list; 0 caches until a mutation.
	CacheTTL time.Duration `env:"RULESETS_CACHE_TTL" default:"5m"`

	// SeedDemo creates the demo rule set when the store is empty.
	SeedDemo bool `env:"RULESETS_SEED_DEMO" default:"false"`

	// AutoMigrate applies schema migrations on startup (postgres only).
	AutoMigrate bool `env:"RULESETS_AUTO_MIGRATE" default:"false"`

	// Default is selected for newly loaded datasets when it exists.
	Default string `env:"RULESETS_DEFAULT"`
}

// RateLimitConfig holds per-IP rate limits.
type RateLimitConfig struct {
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default limit per IP (default: 300)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"300"`

	// UploadLimit is requests per minute for file uploads (default: 10)
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`

	// RequireAPIKey enables API key checks on /api routes.
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is debug, info, warn or error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port form.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
