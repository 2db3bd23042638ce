package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port     string `yaml:"port"`
	GinMode  string `yaml:"gin_mode"`
	LogLevel string `yaml:"log_level"`
	// json or console
	LogFormat string `yaml:"log_format"`

	StorageDriver string         `yaml:"storage_driver"`
	Database      DatabaseConfig `yaml:"database"`

	JWTSecret       string        `yaml:"jwt_secret"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl"`

	GeminiAPIKey    string `yaml:"gemini_api_key"`
	GeminiModel     string `yaml:"gemini_model"`
	AIRatePerMinute int    `yaml:"ai_rate_per_minute"`

	NATSURL           string `yaml:"nats_url"`
	NATSSubjectPrefix string `yaml:"nats_subject_prefix"`

	SMTP SMTPConfig `yaml:"smtp"`

	CORSOrigins  []string `yaml:"cors_origins"`
	CronSchedule string   `yaml:"cron_schedule"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
	TimeZone string `yaml:"timezone"`
}

// DSN renders the libpq keyword/value connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode, d.TimeZone)
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// Enabled reports whether enough SMTP settings are present to send mail.
func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.From != ""
}

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

func Default() Config {
	return Config{
		Port:          "9000",
		GinMode:       "release",
		LogLevel:      "info",
		LogFormat:     "json",
		StorageDriver: StorageDriverPostgres,
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     "5432",
			User:     "postgres",
			Name:     "siteguard",
			SSLMode:  "disable",
			TimeZone: "Africa/Lagos",
		},
		AccessTokenTTL:    15 * time.Minute,
		RefreshTokenTTL:   15 * 24 * time.Hour,
		GeminiModel:       "gemini-2.5-flash",
		AIRatePerMinute:   10,
		NATSSubjectPrefix: "siteguard.invalidate",
		SMTP: SMTPConfig{
			Port: "587",
		},
		CORSOrigins: []string{
			"http://localhost:3000",
			"http://localhost:5173",
			"http://localhost:9000",
		},
		CronSchedule: "30 0 * * *",
	}
}

// Load reads .env (when present), then the optional YAML file named by
// CONFIG_FILE, then environment variables. Later sources win.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadYAML(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Port = envString("PORT", cfg.Port)
	cfg.GinMode = envString("GIN_MODE", cfg.GinMode)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = envString("LOG_FORMAT", cfg.LogFormat)
	cfg.StorageDriver = strings.ToLower(envString("STORAGE_DRIVER", cfg.StorageDriver))

	cfg.Database.Host = envString("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = envString("DB_PORT", cfg.Database.Port)
	cfg.Database.User = envString("DB_USER", cfg.Database.User)
	cfg.Database.Password = envString("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.Name = envString("DB_NAME", cfg.Database.Name)
	cfg.Database.SSLMode = envString("DB_SSLMODE", cfg.Database.SSLMode)
	cfg.Database.TimeZone = envString("DB_TIMEZONE", cfg.Database.TimeZone)

	cfg.JWTSecret = envString("JWT_SECRET", cfg.JWTSecret)
	cfg.AccessTokenTTL = envDuration("ACCESS_TOKEN_TTL", cfg.AccessTokenTTL)
	cfg.RefreshTokenTTL = envDuration("REFRESH_TOKEN_TTL", cfg.RefreshTokenTTL)

	// API_KEY is the name the web client used for the same key.
	cfg.GeminiAPIKey = envString("API_KEY", cfg.GeminiAPIKey)
	cfg.GeminiAPIKey = envString("GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.GeminiModel = envString("GEMINI_MODEL", cfg.GeminiModel)
	cfg.AIRatePerMinute = envInt("AI_RATE_PER_MINUTE", cfg.AIRatePerMinute)

	cfg.NATSURL = envString("NATS_URL", cfg.NATSURL)
	cfg.NATSSubjectPrefix = envString("NATS_SUBJECT_PREFIX", cfg.NATSSubjectPrefix)

	cfg.SMTP.Host = envString("SMTP_HOST", cfg.SMTP.Host)
	cfg.SMTP.Port = envString("SMTP_PORT", cfg.SMTP.Port)
	cfg.SMTP.User = envString("SMTP_USER", cfg.SMTP.User)
	cfg.SMTP.Password = envString("SMTP_PASSWORD", cfg.SMTP.Password)
	cfg.SMTP.From = envString("SMTP_FROM", cfg.SMTP.From)

	if raw := os.Getenv("CORS_ORIGINS"); raw != "" {
		cfg.CORSOrigins = splitList(raw)
	}
	cfg.CronSchedule = envString("CRON_SCHEDULE", cfg.CronSchedule)
}

func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.StorageDriver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 0 || port > 65535 {
		return fmt.Errorf("invalid PORT %q: must be a number between 0 and 65535", c.Port)
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.AIRatePerMinute <= 0 {
		return fmt.Errorf("invalid AI_RATE_PER_MINUTE %d", c.AIRatePerMinute)
	}
	return nil
}

// AIEnabled reports whether a Gemini key is configured.
func (c Config) AIEnabled() bool {
	return c.GeminiAPIKey != ""
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func envInt(key string, fallback int) int {
	raw := envString(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := envString(key, "")
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return v
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
