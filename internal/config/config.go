package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config captures the runtime configuration for the vidrate client.
type Config struct {
	Log         LogConfig
	Gateway     GatewayConfig
	Session     SessionConfig
	Metadata    MetadataConfig
	Export      ExportConfig
	ObjectStore ObjectStoreConfig `mapstructure:"object_store"`
	MockBackend MockBackendConfig `mapstructure:"mock_backend"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string
	Format string
}

// GatewayConfig describes how to reach the rating backend.
type GatewayConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int
}

// SessionConfig selects where the bearer token and username are persisted.
type SessionConfig struct {
	Driver        string
	Path          string
	RedisURL      string        `mapstructure:"redis_url"`
	RedisTTL      time.Duration `mapstructure:"redis_ttl"`
	DatabaseURL   string        `mapstructure:"database_url"`
	Profile       string
	EncryptionKey string `mapstructure:"encryption_key"`
}

// MetadataConfig controls yt-dlp based video enrichment.
type MetadataConfig struct {
	YTDLPPath string        `mapstructure:"ytdlp_path"`
	Timeout   time.Duration
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
}

// ExportConfig controls where collection snapshots are written when no bucket is set.
type ExportConfig struct {
	Dir string
}

// ObjectStoreConfig describes an S3-compatible bucket for collection exports.
type ObjectStoreConfig struct {
	Bucket        string
	Endpoint      string
	Region        string
	PublicBaseURL string `mapstructure:"public_base_url"`
}

// MockBackendConfig controls the local development backend.
type MockBackendConfig struct {
	Port           int
	LoginPerMinute int `mapstructure:"login_per_minute"`
}

// Session store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Load reads configuration from an optional config file and VIDRATE_ prefixed
// environment variables. A .env.local file in the working directory (or its
// parent) is loaded into the environment first.
func Load() (Config, error) {
	loadEnvFile()

	v := viper.New()
	setDefaults(v)

	if path := os.Getenv("VIDRATE_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "vidrate"))
		}
	}

	v.SetEnvPrefix("VIDRATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || os.Getenv("VIDRATE_CONFIG") != "" {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("gateway.base_url", "http://localhost:8080")
	v.SetDefault("gateway.timeout", 15*time.Second)
	v.SetDefault("gateway.requests_per_second", 10.0)
	v.SetDefault("gateway.burst", 5)

	v.SetDefault("session.driver", DriverSQLite)
	v.SetDefault("session.path", defaultSessionPath())
	v.SetDefault("session.redis_url", "redis://127.0.0.1:6379/0")
	v.SetDefault("session.redis_ttl", time.Duration(0))
	v.SetDefault("session.database_url", "")
	v.SetDefault("session.profile", "default")
	v.SetDefault("session.encryption_key", "")

	v.SetDefault("metadata.ytdlp_path", "yt-dlp")
	v.SetDefault("metadata.timeout", 30*time.Second)
	v.SetDefault("metadata.cache_ttl", 15*time.Minute)

	v.SetDefault("export.dir", ".")

	v.SetDefault("object_store.bucket", "")
	v.SetDefault("object_store.endpoint", "")
	v.SetDefault("object_store.region", "us-east-1")
	v.SetDefault("object_store.public_base_url", "")

	v.SetDefault("mock_backend.port", 8080)
	v.SetDefault("mock_backend.login_per_minute", 30)
}

// Validate rejects configurations the client cannot start with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Gateway.BaseURL) == "" {
		return fmt.Errorf("gateway.base_url is required")
	}
	switch c.Session.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Session.Path == "" {
			return fmt.Errorf("session.path is required for the sqlite driver")
		}
	case DriverRedis:
		if c.Session.RedisURL == "" {
			return fmt.Errorf("session.redis_url is required for the redis driver")
		}
	case DriverPostgres:
		if c.Session.DatabaseURL == "" {
			return fmt.Errorf("session.database_url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown session.driver %q", c.Session.Driver)
	}
	return nil
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "vidrate-session.db"
	}
	return filepath.Join(dir, "vidrate", "session.db")
}

func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}
