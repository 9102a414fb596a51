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

const (
	BackendSupabase = "supabase"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"

	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

type Config struct {
	Server      ServerConfig
	DataService DataServiceConfig
	Media       MediaConfig
	Admin       AdminConfig
	Mail        MailConfig
	Jobs        JobsConfig
	Site        SiteConfig
}

type ServerConfig struct {
	Port        string
	Environment string
	Version     string
	CORSOrigins []string
}

type DataServiceConfig struct {
	Backend     string
	URL         string
	AnonKey     string
	SQLitePath  string
	PostgresDSN string
}

// Configured reports whether the hosted data service has both an endpoint and a key.
func (d DataServiceConfig) Configured() bool {
	return d.URL != "" && d.AnonKey != ""
}

type MediaConfig struct {
	CloudName      string
	UploadPreset   string
	MaxUploadBytes int64
}

type AdminConfig struct {
	Email         string
	Password      string
	PasswordHash  string
	SessionSecret string
	SessionStore  string
	SessionTTL    time.Duration
	RedisAddr     string
}

type MailConfig struct {
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	ToEmail  string
}

// Enabled reports whether contact notifications can be sent.
func (m MailConfig) Enabled() bool {
	return m.SMTPUser != "" && m.SMTPPass != ""
}

type JobsConfig struct {
	KeepAliveSchedule string
}

type SiteConfig struct {
	ContentPath string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	return FromEnv()
}

// FromEnv builds the configuration from the current environment without touching .env files.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("APP_ENV", "development"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			CORSOrigins: getEnvAsList("CORS_ORIGINS", []string{"*"}),
		},
		DataService: DataServiceConfig{
			Backend:     strings.ToLower(getEnv("DATA_BACKEND", BackendSupabase)),
			URL:         firstEnv("VITE_SUPABASE_URL", "SUPABASE_URL"),
			AnonKey:     firstEnv("VITE_SUPABASE_ANON_KEY", "SUPABASE_ANON_KEY"),
			SQLitePath:  getEnv("SQLITE_PATH", "portfolio.db"),
			PostgresDSN: getEnv("DATABASE_URL", ""),
		},
		Media: MediaConfig{
			CloudName:      firstEnv("VITE_CLOUDINARY_CLOUD_NAME", "CLOUDINARY_CLOUD_NAME"),
			UploadPreset:   firstEnvOr("portfolio", "VITE_CLOUDINARY_UPLOAD_PRESET", "CLOUDINARY_UPLOAD_PRESET"),
			MaxUploadBytes: int64(getEnvAsInt("MAX_UPLOAD_BYTES", 8*1024*1024)),
		},
		Admin: AdminConfig{
			Email:         getEnv("ADMIN_EMAIL", ""),
			Password:      getEnv("ADMIN_PASSWORD", ""),
			PasswordHash:  getEnv("ADMIN_PASSWORD_HASH", ""),
			SessionSecret: getEnv("SESSION_SECRET", ""),
			SessionStore:  strings.ToLower(getEnv("SESSION_STORE", SessionStoreMemory)),
			SessionTTL:    getEnvAsDuration("SESSION_TTL", 24*time.Hour),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		},
		Mail: MailConfig{
			SMTPHost: getEnv("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort: getEnv("SMTP_PORT", "587"),
			SMTPUser: getEnv("SMTP_USER", ""),
			SMTPPass: getEnv("SMTP_PASS", ""),
			ToEmail:  getEnv("TO_EMAIL", ""),
		},
		Jobs: JobsConfig{
			KeepAliveSchedule: getEnv("KEEPALIVE_SCHEDULE", "0 0 */6 * *"),
		},
		Site: SiteConfig{
			ContentPath: getEnv("CONTENT_PATH", "content/site.yaml"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	switch c.DataService.Backend {
	case BackendSupabase, BackendSQLite:
	case BackendPostgres:
		if c.DataService.PostgresDSN == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown DATA_BACKEND %q", c.DataService.Backend)
	}

	switch c.Admin.SessionStore {
	case SessionStoreMemory, SessionStoreRedis:
	default:
		return fmt.Errorf("unknown SESSION_STORE %q", c.Admin.SessionStore)
	}

	if c.IsProduction() && len(c.Admin.SessionSecret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 bytes in production")
	}

	if c.Media.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// firstEnv returns the first non-empty value among keys.
func firstEnv(keys ...string) string {
	return firstEnvOr("", keys...)
}

func firstEnvOr(defaultValue string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
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

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
