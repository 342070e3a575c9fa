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

	Database   DatabaseConfig
	Redis      RedisConfig
	Session    SessionConfig
	Storage    StorageConfig
	Prediction PredictionConfig
	Messaging  MessagingConfig
	Feed       FeedConfig
	CORS       CORSConfig
	Log        LogConfig
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

// SessionConfig controls the signed session token and its cookie.
type SessionConfig struct {
	Secret     string
	TTL        time.Duration
	CookieName string
}

// StorageConfig points at the S3-compatible bucket holding handwriting samples.
type StorageConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PublicBaseURL string
}

// PredictionConfig configures the external dyslexia prediction service.
type PredictionConfig struct {
	URL             string
	Timeout         time.Duration
	DefaultLanguage string
}

// MessagingConfig holds Twilio credentials for WhatsApp notifications.
type MessagingConfig struct {
	AccountSID  string
	AuthToken   string
	From        string
	CountryCode string
	BaseURL     string
}

// FeedConfig tunes community feed caching.
type FeedConfig struct {
	CacheTTL time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
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

	cfg.Session = SessionConfig{
		Secret:     v.GetString("SESSION_SECRET"),
		TTL:        parseDuration(v.GetString("SESSION_TTL"), 7*24*time.Hour),
		CookieName: v.GetString("SESSION_COOKIE_NAME"),
	}

	cfg.Storage = StorageConfig{
		Endpoint:      v.GetString("STORAGE_ENDPOINT"),
		AccessKey:     v.GetString("STORAGE_ACCESS_KEY"),
		SecretKey:     v.GetString("STORAGE_SECRET_KEY"),
		Bucket:        v.GetString("STORAGE_BUCKET"),
		UseSSL:        v.GetBool("STORAGE_USE_SSL"),
		PublicBaseURL: v.GetString("STORAGE_PUBLIC_BASE_URL"),
	}

	cfg.Prediction = PredictionConfig{
		URL:             v.GetString("PREDICTION_URL"),
		Timeout:         parseDuration(v.GetString("PREDICTION_TIMEOUT"), 30*time.Second),
		DefaultLanguage: v.GetString("PREDICTION_DEFAULT_LANGUAGE"),
	}

	cfg.Messaging = MessagingConfig{
		AccountSID:  v.GetString("TWILIO_ACCOUNT_SID"),
		AuthToken:   v.GetString("TWILIO_AUTH_TOKEN"),
		From:        v.GetString("TWILIO_WHATSAPP_FROM"),
		CountryCode: v.GetString("TWILIO_COUNTRY_CODE"),
		BaseURL:     v.GetString("TWILIO_BASE_URL"),
	}

	cfg.Feed = FeedConfig{
		CacheTTL: parseDuration(v.GetString("FEED_CACHE_TTL"), 2*time.Minute),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "neuroread")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("SESSION_SECRET", "dev_secret")
	v.SetDefault("SESSION_TTL", "168h")
	v.SetDefault("SESSION_COOKIE_NAME", "neuroread_session")

	v.SetDefault("STORAGE_ENDPOINT", "localhost:9000")
	v.SetDefault("STORAGE_ACCESS_KEY", "minioadmin")
	v.SetDefault("STORAGE_SECRET_KEY", "minioadmin")
	v.SetDefault("STORAGE_BUCKET", "diagnosis-images")
	v.SetDefault("STORAGE_USE_SSL", false)
	v.SetDefault("STORAGE_PUBLIC_BASE_URL", "http://localhost:9000/diagnosis-images")

	v.SetDefault("PREDICTION_URL", "http://localhost:8000/predict")
	v.SetDefault("PREDICTION_TIMEOUT", "30s")
	v.SetDefault("PREDICTION_DEFAULT_LANGUAGE", "en")

	v.SetDefault("TWILIO_ACCOUNT_SID", "")
	v.SetDefault("TWILIO_AUTH_TOKEN", "")
	v.SetDefault("TWILIO_WHATSAPP_FROM", "whatsapp:+14155238886")
	v.SetDefault("TWILIO_COUNTRY_CODE", "+91")
	v.SetDefault("TWILIO_BASE_URL", "https://api.twilio.com")

	v.SetDefault("FEED_CACHE_TTL", "2m")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
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
