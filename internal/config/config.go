package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const DefaultConfigFile = "./bollette.toml"

type Config struct {
	// Backend selection
	DataBackend  string `toml:"data_backend"`
	SQLiteDBPath string `toml:"sqlite_db_path"`
	// SeedFile is an optional TOML file of obligations, budgets and expenses
	// loaded at startup.
	SeedFile string `toml:"seed_file"`

	// AMQP, disabled when the URL is empty
	AMQPURL      string `toml:"amqp_url"`
	AMQPExchange string `toml:"amqp_exchange"`
	AMQPQueue    string `toml:"amqp_queue"`

	// Notification dedup log
	DedupBackend  string `toml:"dedup_backend"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`

	// Scheduling
	ReconcileInterval    time.Duration `toml:"reconcile_interval"`
	HorizonSize          int           `toml:"horizon_size"`
	ReconcileConcurrency int           `toml:"reconcile_concurrency"`
	DueSoonDays          int           `toml:"due_soon_days"`

	// Budget spend cache
	SpendCacheSize int           `toml:"spend_cache_size"`
	SpendCacheTTL  time.Duration `toml:"spend_cache_ttl"`

	// Logging
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	// ConfigFile is the TOML file the values were read from, if any.
	ConfigFile string `toml:"-"`
}

func Default() *Config {
	return &Config{
		DataBackend:  "memory",
		SQLiteDBPath: "./data/bollette.db",

		AMQPExchange: "bollette",
		AMQPQueue:    "notifications",

		DedupBackend: "store",
		RedisAddr:    "localhost:6379",

		ReconcileInterval:    time.Hour,
		HorizonSize:          6,
		ReconcileConcurrency: 4,
		DueSoonDays:          7,

		SpendCacheSize: 256,
		SpendCacheTTL:  5 * time.Minute,

		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load applies defaults, then the optional TOML file named by BOLLETTE_CONFIG,
// then environment variables. A missing file is not an error.
func Load() (*Config, error) {
	cfg := Default()

	path := getEnv("BOLLETTE_CONFIG", DefaultConfigFile)
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if _, err := toml.Decode(string(data), c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	c.ConfigFile = path
	return nil
}

func (c *Config) applyEnv() {
	c.DataBackend = getEnv("DATA_BACKEND", c.DataBackend)
	c.SQLiteDBPath = getEnv("SQLITE_DB_PATH", c.SQLiteDBPath)
	c.SeedFile = getEnv("SEED_FILE", c.SeedFile)

	c.AMQPURL = getEnv("AMQP_URL", c.AMQPURL)
	c.AMQPExchange = getEnv("AMQP_EXCHANGE", c.AMQPExchange)
	c.AMQPQueue = getEnv("AMQP_QUEUE", c.AMQPQueue)

	c.DedupBackend = getEnv("DEDUP_BACKEND", c.DedupBackend)
	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = getEnvInt("REDIS_DB", c.RedisDB)

	c.ReconcileInterval = getEnvDuration("RECONCILE_INTERVAL", c.ReconcileInterval)
	c.HorizonSize = getEnvInt("HORIZON_SIZE", c.HorizonSize)
	c.ReconcileConcurrency = getEnvInt("RECONCILE_CONCURRENCY", c.ReconcileConcurrency)
	c.DueSoonDays = getEnvInt("DUE_SOON_DAYS", c.DueSoonDays)

	c.SpendCacheSize = getEnvInt("SPEND_CACHE_SIZE", c.SpendCacheSize)
	c.SpendCacheTTL = getEnvDuration("SPEND_CACHE_TTL", c.SpendCacheTTL)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate data backend
	validBackends := []string{"memory", "sqlite"}
	if !oneOf(c.DataBackend, validBackends) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	// Check if seed file exists (if specified)
	if c.SeedFile != "" {
		if _, err := os.Stat(c.SeedFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("seed file does not exist: %s", c.SeedFile))
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate dedup backend
	validDedup := []string{"store", "redis"}
	if !oneOf(c.DedupBackend, validDedup) {
		errors = append(errors, fmt.Sprintf("invalid dedup backend '%s': must be one of %v", c.DedupBackend, validDedup))
	}
	if c.DedupBackend == "redis" {
		if c.RedisAddr == "" {
			errors = append(errors, "Redis address cannot be empty when using redis dedup backend")
		}
		if c.RedisDB < 0 || c.RedisDB > 15 {
			errors = append(errors, fmt.Sprintf("invalid Redis DB %d: must be between 0 and 15", c.RedisDB))
		}
	}

	// Validate scheduling
	if c.ReconcileInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid reconcile interval %v: must be at least 1 minute", c.ReconcileInterval))
	} else if c.ReconcileInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid reconcile interval %v: must be at most 24 hours", c.ReconcileInterval))
	}
	if c.HorizonSize < 1 || c.HorizonSize > 120 {
		errors = append(errors, fmt.Sprintf("invalid horizon size %d: must be between 1 and 120", c.HorizonSize))
	}
	if c.ReconcileConcurrency < 1 || c.ReconcileConcurrency > 64 {
		errors = append(errors, fmt.Sprintf("invalid reconcile concurrency %d: must be between 1 and 64", c.ReconcileConcurrency))
	}
	if c.DueSoonDays < 0 || c.DueSoonDays > 365 {
		errors = append(errors, fmt.Sprintf("invalid due soon days %d: must be between 0 and 365", c.DueSoonDays))
	}

	// Validate spend cache
	if c.SpendCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid spend cache size %d: must be at least 1", c.SpendCacheSize))
	}
	if c.SpendCacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid spend cache TTL %v: must be positive", c.SpendCacheTTL))
	}

	// Validate logging
	validLevels := []string{"debug", "info", "warn", "error"}
	if !oneOf(strings.ToLower(c.LogLevel), validLevels) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLevels))
	}
	validFormats := []string{"text", "json"}
	if !oneOf(c.LogFormat, validFormats) {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be one of %v", c.LogFormat, validFormats))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func oneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
