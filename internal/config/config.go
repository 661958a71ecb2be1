package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds client configuration
type Config struct {
	API       APIConfig
	Shell     ShellConfig
	Storage   StorageConfig
	Redis     RedisConfig
	MongoDB   MongoDBConfig
	Postgres  PostgresConfig
	MinIO     MinIOConfig
	RateLimit RateLimitConfig
	LogLevel  string
	// LogDir additionally receives rotated log files when set.
	LogDir string
}

type APIConfig struct {
	BaseURL     string
	Timeout     time.Duration
	AuthTimeout time.Duration
}

type ShellConfig struct {
	Host string
	Port string
	// AllowedOrigins are front-end origins allowed to call the shell
	// cross-origin. Empty means same-origin only.
	AllowedOrigins []string
}

type StorageConfig struct {
	Backend string
	Dir     string
	Prefix  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type PostgresConfig struct {
	DSN     string
	Timeout time.Duration
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// Storage backends understood by storage.Open.
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
	BackendMinIO    = "minio"
)

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	viper.AutomaticEnv()

	viper.SetDefault("API_BASE_URL", "http://localhost:8000")
	viper.SetDefault("API_TIMEOUT_SECONDS", 120)
	viper.SetDefault("AUTH_TIMEOUT_SECONDS", 20)
	viper.SetDefault("SHELL_HOST", "127.0.0.1")
	viper.SetDefault("SHELL_PORT", "8080")
	viper.SetDefault("STORAGE_BACKEND", BackendFile)
	viper.SetDefault("STORAGE_DIR", defaultStorageDir())
	viper.SetDefault("STORAGE_PREFIX", "mindcare:")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("MONGODB_DATABASE", "mindcare")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("POSTGRES_TIMEOUT", 10)
	viper.SetDefault("MINIO_BUCKET", "mindcare")
	viper.SetDefault("ACTION_RATE_LIMIT_RPS", 1.0)
	viper.SetDefault("ACTION_RATE_LIMIT_BURST", 5)
	viper.SetDefault("LOG_LEVEL", "info")

	cfg := &Config{
		API: APIConfig{
			BaseURL:     strings.TrimRight(viper.GetString("API_BASE_URL"), "/"),
			Timeout:     time.Duration(viper.GetInt("API_TIMEOUT_SECONDS")) * time.Second,
			AuthTimeout: time.Duration(viper.GetInt("AUTH_TIMEOUT_SECONDS")) * time.Second,
		},
		Shell: ShellConfig{
			Host:           viper.GetString("SHELL_HOST"),
			Port:           viper.GetString("SHELL_PORT"),
			AllowedOrigins: splitList(viper.GetString("SHELL_ALLOWED_ORIGIN")),
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(strings.TrimSpace(viper.GetString("STORAGE_BACKEND"))),
			Dir:     viper.GetString("STORAGE_DIR"),
			Prefix:  viper.GetString("STORAGE_PREFIX"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		MongoDB: MongoDBConfig{
			URI:      viper.GetString("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Postgres: PostgresConfig{
			DSN:     postgresDSN(),
			Timeout: time.Duration(viper.GetInt("POSTGRES_TIMEOUT")) * time.Second,
		},
		MinIO: MinIOConfig{
			Endpoint:  viper.GetString("MINIO_ENDPOINT"),
			AccessKey: viper.GetString("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			UseSSL:    viper.GetBool("MINIO_USE_SSL"),
			Bucket:    viper.GetString("MINIO_BUCKET"),
		},
		RateLimit: RateLimitConfig{
			RPS:   viper.GetFloat64("ACTION_RATE_LIMIT_RPS"),
			Burst: viper.GetInt("ACTION_RATE_LIMIT_BURST"),
		},
		LogLevel: viper.GetString("LOG_LEVEL"),
		LogDir:   viper.GetString("LOG_DIR"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the client cannot start with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: API_BASE_URL must be an absolute http(s) URL, got %q", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 || c.API.AuthTimeout <= 0 {
		return fmt.Errorf("config: API timeouts must be positive")
	}
	for _, o := range c.Shell.AllowedOrigins {
		u, err := url.Parse(o)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" || (u.Path != "" && u.Path != "/") {
			return fmt.Errorf("config: SHELL_ALLOWED_ORIGIN entries must be scheme://host[:port], got %q", o)
		}
	}
	switch c.Storage.Backend {
	case BackendFile:
		if c.Storage.Dir == "" {
			return fmt.Errorf("config: STORAGE_DIR is required for the file backend")
		}
	case BackendMemory:
	case BackendRedis:
		if c.Redis.Host == "" {
			return fmt.Errorf("config: REDIS_HOST is required for the redis backend")
		}
	case BackendMongo:
		if c.MongoDB.URI == "" {
			return fmt.Errorf("config: MONGODB_URI is required for the mongo backend")
		}
	case BackendPostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("config: POSTGRES_DSN is required for the postgres backend")
		}
	case BackendMinIO:
		if c.MinIO.Endpoint == "" {
			return fmt.Errorf("config: MINIO_ENDPOINT is required for the minio backend")
		}
	default:
		return fmt.Errorf("config: unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}
	return nil
}

// Addr is the loopback address the shell listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Shell.Host, c.Shell.Port)
}

// splitList reads a comma separated value, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// POSTGRES_DSN wins over DATABASE_URL.
func postgresDSN() string {
	if dsn := viper.GetString("POSTGRES_DSN"); dsn != "" {
		return dsn
	}
	return viper.GetString("DATABASE_URL")
}

func defaultStorageDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".mindcare"
	}
	return filepath.Join(home, ".mindcare")
}
