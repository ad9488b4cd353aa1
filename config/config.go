package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Blob     BlobConfig
	App      AppConfig
}

type ServerConfig struct {
	Port        string
	CORSOrigins []string
}

type DatabaseConfig struct {
	DSN      string
	MaxConns int
	MinConns int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AuthConfig selects how requests are authenticated.
// Mode "firebase" verifies bearer ID tokens against the Firebase project;
// mode "dev" trusts the X-User-Id header and is for local runs only.
type AuthConfig struct {
	Mode            string
	CredentialsPath string
	AdminUIDs       []string
}

// BlobConfig selects where snapshot content lives: "inline" keeps it in the
// snapshots table, "s3" writes it to an object bucket keyed by content hash.
type BlobConfig struct {
	Backend  string
	Bucket   string
	Region   string
	Endpoint string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string

	UsernameGracePeriod time.Duration
	ProjectRetention    time.Duration
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			CORSOrigins: getEnvAsList("CORS_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			DSN:      getEnv("DB_DSN", ""),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns: getEnvAsInt("DB_MIN_CONNS", 2),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			Mode:            getEnv("AUTH_MODE", "firebase"),
			CredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
			AdminUIDs:       getEnvAsList("ADMIN_UIDS", ""),
		},
		Blob: BlobConfig{
			Backend:  getEnv("BLOB_BACKEND", "inline"),
			Bucket:   getEnv("BLOB_S3_BUCKET", ""),
			Region:   getEnv("BLOB_S3_REGION", "us-east-1"),
			Endpoint: getEnv("BLOB_S3_ENDPOINT", ""),
		},
		App: AppConfig{
			Environment:         getEnv("APP_ENV", "development"),
			LogLevel:            getEnv("LOG_LEVEL", "info"),
			Version:             getEnv("APP_VERSION", "1.0.0"),
			UsernameGracePeriod: getEnvAsDuration("USERNAME_GRACE_PERIOD", 30*24*time.Hour),
			ProjectRetention:    getEnvAsDuration("PROJECT_RETENTION", 30*24*time.Hour),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Database.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}

	switch c.Auth.Mode {
	case "firebase":
		if c.Auth.CredentialsPath == "" {
			return fmt.Errorf("FIREBASE_CREDENTIALS_PATH is required when AUTH_MODE=firebase")
		}
	case "dev":
		if c.App.Environment == "production" {
			return fmt.Errorf("AUTH_MODE=dev is not allowed in production")
		}
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.Auth.Mode)
	}

	if c.Blob.Backend == "s3" && c.Blob.Bucket == "" {
		return fmt.Errorf("BLOB_S3_BUCKET is required when BLOB_BACKEND=s3")
	}
	if c.Blob.Backend != "s3" && c.Blob.Backend != "inline" {
		return fmt.Errorf("unknown BLOB_BACKEND %q", c.Blob.Backend)
	}

	return nil
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
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
