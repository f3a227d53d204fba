package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Board         BoardConfig
	Assignments   AssignmentConfig
	Urgency       UrgencyConfig
	Notifications NotificationConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// BoardConfig tunes the enriched absence-board listing.
type BoardConfig struct {
	CacheTTL        time.Duration
	DefaultWindow   time.Duration
	DefaultPageSize int
}

// AssignmentConfig governs assignment creation discipline.
type AssignmentConfig struct {
	LockTTL time.Duration
}

// UrgencyConfig holds the fallback deadline applied to schools without an
// explicit replace_after_days value. Zero disables the fallback (no deadline).
type UrgencyConfig struct {
	DefaultThresholdDays int
}

// NotificationConfig toggles the background reminder dispatcher.
type NotificationConfig struct {
	Enabled  bool
	Interval time.Duration
	Workers  int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Board = BoardConfig{
		CacheTTL:        parseDuration(v.GetString("BOARD_CACHE_TTL"), 2*time.Minute),
		DefaultWindow:   parseDuration(v.GetString("BOARD_DEFAULT_WINDOW"), 30*24*time.Hour),
		DefaultPageSize: v.GetInt("BOARD_DEFAULT_PAGE_SIZE"),
	}

	cfg.Assignments = AssignmentConfig{
		LockTTL: parseDuration(v.GetString("ASSIGNMENT_LOCK_TTL"), 10*time.Second),
	}

	cfg.Urgency = UrgencyConfig{
		DefaultThresholdDays: v.GetInt("URGENCY_DEFAULT_THRESHOLD_DAYS"),
	}

	cfg.Notifications = NotificationConfig{
		Enabled:  v.GetBool("ENABLE_NOTIFICATIONS"),
		Interval: parseDuration(v.GetString("NOTIFICATION_INTERVAL"), time.Hour),
		Workers:  v.GetInt("NOTIFICATION_WORKERS"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "remplacement")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "remplacement-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("BOARD_CACHE_TTL", "2m")
	v.SetDefault("BOARD_DEFAULT_WINDOW", "720h")
	v.SetDefault("BOARD_DEFAULT_PAGE_SIZE", 50)

	v.SetDefault("ASSIGNMENT_LOCK_TTL", "10s")
	v.SetDefault("URGENCY_DEFAULT_THRESHOLD_DAYS", 0)

	v.SetDefault("ENABLE_NOTIFICATIONS", false)
	v.SetDefault("NOTIFICATION_INTERVAL", "1h")
	v.SetDefault("NOTIFICATION_WORKERS", 1)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
