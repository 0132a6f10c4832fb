package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
	StoreDriverMemory   = "memory"
)

// File storage drivers.
const (
	StorageDriverLocal = "local"
	StorageDriverAzure = "azure"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Store        StoreConfig
	Postgres     PostgresConfig
	Mongo        MongoConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Storage      StorageConfig
	Notification NotificationConfig
	Migration    MigrationConfig
	Directory    DirectoryConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	BodyLimitMB           int
}

// StoreConfig selects the document store backend.
type StoreConfig struct {
	Driver string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// MongoConfig holds MongoDB connection values.
type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout int
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr            string
	Password        string
	DB              int
	CacheTTLSeconds int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level   string
	Format  string
	Service string
	Env     string
}

// StorageConfig configures where attachment bytes live.
type StorageConfig struct {
	Driver                string
	LocalPath             string
	PublicBaseURL         string
	AzureConnectionString string
	AzureContainer        string
	LegacyRootMarker      string
}

// NotificationConfig configures outbound email.
type NotificationConfig struct {
	EmailFrom      string
	WebhookURL     string
	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
	TimeoutSeconds int
}

// MigrationConfig drives the legacy attachment sweep.
type MigrationConfig struct {
	Enabled       bool
	Schedule      string
	Concurrency   int
	SweepPageSize int
}

// DirectoryConfig controls directory bootstrapping.
type DirectoryConfig struct {
	SeedFixtures bool
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "maintenance-tickets"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			BodyLimitMB:           getEnvAsInt("HTTP_BODY_LIMIT_MB", 25),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getEnv("DOCUMENT_STORE", StoreDriverPostgres)),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Mongo: MongoConfig{
			URI:            getEnv("MONGO_URI", "mongodb://127.0.0.1:27017"),
			Database:       getEnv("MONGO_DATABASE", "maintenance"),
			ConnectTimeout: getEnvAsInt("MONGO_CONNECT_TIMEOUT_SECONDS", 10),
		},
		Redis: RedisConfig{
			Addr:            os.Getenv("REDIS_ADDR"),
			Password:        os.Getenv("REDIS_PASSWORD"),
			DB:              redisDB,
			CacheTTLSeconds: getEnvAsInt("REDIS_CACHE_TTL_SECONDS", 300),
		},
		Logger: LoggerConfig{
			Level:   getEnv("LOG_LEVEL", "info"),
			Format:  strings.ToLower(getEnv("LOG_FORMAT", "json")),
			Service: getEnv("APP_NAME", "maintenance-tickets"),
			Env:     getEnv("APP_ENV", "development"),
		},
		Storage: StorageConfig{
			Driver:                strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverLocal)),
			LocalPath:             getEnv("STORAGE_LOCAL_PATH", "./data/files"),
			PublicBaseURL:         getEnv("STORAGE_PUBLIC_BASE_URL", "http://localhost:8080/files"),
			AzureConnectionString: os.Getenv("AZURE_STORAGE_CONNECTION_STRING"),
			AzureContainer:        getEnv("AZURE_STORAGE_CONTAINER", "maintenance"),
			LegacyRootMarker:      getEnv("STORAGE_LEGACY_ROOT_MARKER", "/maintenance/"),
		},
		Notification: NotificationConfig{
			EmailFrom:      getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL:     getEnv("NOTIFY_WEBHOOK_URL", ""),
			SMTPHost:       os.Getenv("SMTP_HOST"),
			SMTPPort:       getEnvAsInt("SMTP_PORT", 587),
			SMTPUsername:   os.Getenv("SMTP_USERNAME"),
			SMTPPassword:   os.Getenv("SMTP_PASSWORD"),
			TimeoutSeconds: getEnvAsInt("NOTIFY_TIMEOUT_SECONDS", 10),
		},
		Migration: MigrationConfig{
			Enabled:       getEnvAsBool("MIGRATION_SWEEP_ENABLED", false),
			Schedule:      getEnv("MIGRATION_SCHEDULE", "0 3 * * *"),
			Concurrency:   getEnvAsInt("MIGRATION_CONCURRENCY", 4),
			SweepPageSize: getEnvAsInt("MIGRATION_SWEEP_PAGE_SIZE", 100),
		},
		Directory: DirectoryConfig{
			SeedFixtures: getEnvAsBool("DIRECTORY_SEED_FIXTURES", false),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case StoreDriverPostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("POSTGRES_DSN required for the postgres document store")
		}
	case StoreDriverMongo, StoreDriverMemory:
	default:
		return fmt.Errorf("invalid DOCUMENT_STORE %q", c.Store.Driver)
	}
	switch c.Storage.Driver {
	case StorageDriverLocal:
	case StorageDriverAzure:
		if c.Storage.AzureConnectionString == "" {
			return fmt.Errorf("AZURE_STORAGE_CONNECTION_STRING required for azure storage")
		}
	default:
		return fmt.Errorf("invalid STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if c.Migration.Concurrency <= 0 {
		c.Migration.Concurrency = 4
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// CacheTTL returns the directory cache lifetime.
func (r RedisConfig) CacheTTL() time.Duration {
	if r.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(r.CacheTTLSeconds) * time.Second
}

// Timeout bounds a single notification send.
func (n NotificationConfig) Timeout() time.Duration {
	if n.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(n.TimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
