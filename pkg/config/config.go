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

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Identity IdentityConfig
	Advisor  AdvisorConfig
	Notifier NotifierConfig
	Metrics  MetricsConfig
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
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// IdentityConfig governs institutional identity generation.
type IdentityConfig struct {
	EmailDomain     string
	RegNoPrefix     string
	AdminEmail      string
	AdminName       string
	AdminCredential string
}

// AdvisorConfig configures the AI advisory collaborator.
type AdvisorConfig struct {
	Enabled  bool
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// NotifierConfig controls email delivery of notifications.
type NotifierConfig struct {
	EmailEnabled bool
	ResendAPIKey string
	FromAddress  string
}

// MetricsConfig gates the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
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
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Identity = IdentityConfig{
		EmailDomain:     v.GetString("IDENTITY_EMAIL_DOMAIN"),
		RegNoPrefix:     v.GetString("IDENTITY_REGNO_PREFIX"),
		AdminEmail:      v.GetString("ADMIN_EMAIL"),
		AdminName:       v.GetString("ADMIN_NAME"),
		AdminCredential: v.GetString("ADMIN_CREDENTIAL"),
	}

	cfg.Advisor = AdvisorConfig{
		Enabled:  v.GetBool("ENABLE_ADVISOR"),
		BaseURL:  v.GetString("ADVISOR_BASE_URL"),
		APIKey:   v.GetString("ADVISOR_API_KEY"),
		Timeout:  parseDuration(v.GetString("ADVISOR_TIMEOUT"), 10*time.Second),
		CacheTTL: parseDuration(v.GetString("ADVISOR_CACHE_TTL"), 30*time.Minute),
	}

	cfg.Notifier = NotifierConfig{
		EmailEnabled: v.GetBool("NOTIFIER_EMAIL_ENABLED"),
		ResendAPIKey: v.GetString("RESEND_API_KEY"),
		FromAddress:  v.GetString("NOTIFIER_FROM_ADDRESS"),
	}

	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("ENABLE_METRICS")}

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
	v.SetDefault("DB_NAME", "gapt_portal")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("IDENTITY_EMAIL_DOMAIN", "bitsathy.ac.in")
	v.SetDefault("IDENTITY_REGNO_PREFIX", "BIT")
	v.SetDefault("ADMIN_EMAIL", "admin@bitsathy.ac.in")
	v.SetDefault("ADMIN_NAME", "CHIEF ADMINISTRATOR")
	v.SetDefault("ADMIN_CREDENTIAL", "admin")

	v.SetDefault("ENABLE_ADVISOR", false)
	v.SetDefault("ADVISOR_BASE_URL", "http://localhost:9000")
	v.SetDefault("ADVISOR_API_KEY", "")
	v.SetDefault("ADVISOR_TIMEOUT", "10s")
	v.SetDefault("ADVISOR_CACHE_TTL", "30m")

	v.SetDefault("NOTIFIER_EMAIL_ENABLED", false)
	v.SetDefault("RESEND_API_KEY", "")
	v.SetDefault("NOTIFIER_FROM_ADDRESS", "governance@bitsathy.ac.in")

	v.SetDefault("ENABLE_METRICS", true)
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
