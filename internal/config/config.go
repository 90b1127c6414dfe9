package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store types.
const (
	StoreDynamoDB = "dynamodb"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreMemory   = "memory"
	StoreNone     = "none"
)

// Config holds all configuration for the application
type Config struct {
	Server ServerConfig `yaml:"server"`
	CORS   CORSConfig   `yaml:"cors"`
	Log    LogConfig    `yaml:"log"`
	Store  StoreConfig  `yaml:"store"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
	// MaxBodyBytes caps request bodies on write endpoints.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// GetHost returns the server host, with ECS detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	// Allow override via environment
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// Addr returns host:port for the listener.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.GetHost(), c.Port)
}

// CORSConfig holds cross-origin settings for the browser UI.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level     string `yaml:"level"`
	RedactPII *bool  `yaml:"redact_pii"`
}

// Redact reports whether PII redaction is on. It defaults to true.
func (c LogConfig) Redact() bool {
	return c.RedactPII == nil || *c.RedactPII
}

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	Type       string         `yaml:"type"`
	Collection string         `yaml:"collection"`
	DynamoDB   DynamoDBConfig `yaml:"dynamodb"`
	Postgres   PostgresConfig `yaml:"postgres"`
	Redis      RedisConfig    `yaml:"redis"`

	// Env records which connection variables were present in the
	// environment. It is reported by diagnostics, never read from YAML.
	Env EnvPresence `yaml:"-"`
}

// EnvPresence flags the database environment variables that were set.
type EnvPresence struct {
	DatabaseURL  bool
	DatabaseName bool
}

// DynamoDBConfig holds DynamoDB table settings.
type DynamoDBConfig struct {
	Table     string `yaml:"table"`
	Region    string `yaml:"region"`
	Profile   string `yaml:"profile"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// PostgresConfig holds the Postgres connection string.
type PostgresConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig holds the Redis connection URL.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// Validate checks that the selected backend has what it needs to connect.
func (c StoreConfig) Validate() error {
	switch c.Type {
	case StoreMemory, StoreNone, StoreDynamoDB:
		return nil
	case StorePostgres:
		if c.Postgres.URL == "" {
			return errors.New("store.postgres.url (DATABASE_URL) is required for the postgres store")
		}
		return nil
	case StoreRedis:
		if c.Redis.URL == "" {
			return errors.New("store.redis.url (REDIS_URL) is required for the redis store")
		}
		return nil
	}
	return fmt.Errorf("unknown store type %q", c.Type)
}

// Load reads configuration from a YAML file. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = 1 << 20
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowedOrigins = []string{"*"}
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = StoreDynamoDB
	}
	if cfg.Store.Collection == "" {
		cfg.Store.Collection = "jobapplication"
	}
	if cfg.Store.DynamoDB.Table == "" {
		cfg.Store.DynamoDB.Table = cfg.Store.Collection
	}
	if cfg.Store.DynamoDB.Region == "" {
		cfg.Store.DynamoDB.Region = "us-east-1"
	}
}

// LoadFromEnv loads configuration from file and overrides with environment variables
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORS.AllowedOrigins = splitList(v)
	}

	// Store overrides
	if v := os.Getenv("STORE_TYPE"); v != "" {
		cfg.Store.Type = strings.ToLower(v)
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Store.Postgres.URL = v
		cfg.Store.Env.DatabaseURL = true
	}
	cfg.Store.Env.DatabaseName = os.Getenv("DATABASE_NAME") != ""
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Store.Redis.URL = v
	}
	if v := os.Getenv("DYNAMODB_TABLE"); v != "" {
		cfg.Store.DynamoDB.Table = v
	}
	if v := os.Getenv("DYNAMODB_ENDPOINT"); v != "" {
		cfg.Store.DynamoDB.Endpoint = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.Store.DynamoDB.Region = v
	}
	if v := os.Getenv("AWS_PROFILE_OVERRIDE"); v != "" {
		cfg.Store.DynamoDB.Profile = v
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
