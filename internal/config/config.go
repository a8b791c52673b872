package config

import (
	"log"
	"log/slog"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    Server    `yaml:"server"`
	Database  Database  `yaml:"database"`
	Auth      Auth      `yaml:"auth"`
	Ayrshare  Ayrshare  `yaml:"ayrshare"`
	Gemini    Gemini    `yaml:"gemini"`
	DeepSeek  DeepSeek  `yaml:"deepseek"`
	S3        S3        `yaml:"s3"`
	Analytics Analytics `yaml:"analytics"`
	Autosave  Autosave  `yaml:"autosave"`
	Secrets   Secrets   `yaml:"secrets"`
	Log       Log       `yaml:"log"`
}

// Server holds HTTP server configuration
type Server struct {
	Host         string        `yaml:"host" env:"SERVER_HOST" env-default:"0.0.0.0"`
	Port         string        `yaml:"port" env:"SERVER_PORT" env-default:"8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"90s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`
}

// Address returns the full server address
func (s Server) Address() string {
	return s.Host + ":" + s.Port
}

// Database holds database configuration
type Database struct {
	PostgresDSN    string `yaml:"postgres_dsn" env:"DATABASE_URL"`
	MaxConns       int32  `yaml:"max_conns" env:"DB_MAX_CONNS" env-default:"25"`
	MinConns       int32  `yaml:"min_conns" env:"DB_MIN_CONNS" env-default:"5"`
	MigrateOnStart bool   `yaml:"migrate_on_start" env:"DB_MIGRATE_ON_START" env-default:"true"`
}

// Auth holds settings for verifying session tokens issued by the hosted auth provider
type Auth struct {
	JWTSecret string `yaml:"jwt_secret" env:"AUTH_JWT_SECRET"`
	Issuer    string `yaml:"issuer" env:"AUTH_JWT_ISSUER"`
}

// Ayrshare holds publishing aggregator configuration.
// API keys are per user and stored on the profile, not here.
type Ayrshare struct {
	BaseURL string        `yaml:"base_url" env:"AYRSHARE_BASE_URL" env-default:"https://app.ayrshare.com/api"`
	Timeout time.Duration `yaml:"timeout" env:"AYRSHARE_TIMEOUT" env-default:"30s"`
}

// Gemini holds the primary text and image generation backend configuration
type Gemini struct {
	BaseURL    string `yaml:"base_url" env:"GEMINI_BASE_URL" env-default:"https://generativelanguage.googleapis.com"`
	APIKey     string `yaml:"api_key" env:"GEMINI_API_KEY"`
	TextModel  string `yaml:"text_model" env:"GEMINI_TEXT_MODEL" env-default:"gemini-3-flash-preview"`
	ImageModel string `yaml:"image_model" env:"GEMINI_IMAGE_MODEL" env-default:"gemini-2.5-flash-image"`
}

// DeepSeek holds the alternate text generation backend configuration
type DeepSeek struct {
	BaseURL string `yaml:"base_url" env:"DEEPSEEK_BASE_URL" env-default:"https://api.deepseek.com"`
	Model   string `yaml:"model" env:"DEEPSEEK_MODEL" env-default:"deepseek-chat"`
}

// S3 holds S3/MinIO storage configuration
type S3 struct {
	Endpoint        string `yaml:"endpoint" env:"S3_ENDPOINT" env-default:"http://localhost:9000"`
	AccessKeyID     string `yaml:"access_key_id" env:"S3_ACCESS_KEY_ID" env-default:"minioadmin"`
	SecretAccessKey string `yaml:"secret_access_key" env:"S3_SECRET_ACCESS_KEY" env-default:"minioadmin"`
	Bucket          string `yaml:"bucket" env:"S3_BUCKET" env-default:"media"`
	Region          string `yaml:"region" env:"S3_REGION" env-default:"us-east-1"`
	PublicURL       string `yaml:"public_url" env:"S3_PUBLIC_URL" env-default:"http://localhost:9000/media"`
}

// Analytics holds the periodic analytics sync configuration
type Analytics struct {
	SchedulerEnabled bool          `yaml:"scheduler_enabled" env:"ANALYTICS_SCHEDULER_ENABLED" env-default:"false"`
	Interval         time.Duration `yaml:"interval" env:"ANALYTICS_INTERVAL" env-default:"1h"`
	StuckAfter       time.Duration `yaml:"stuck_after" env:"ANALYTICS_STUCK_AFTER" env-default:"15m"`
}

// Autosave holds draft autosave configuration
type Autosave struct {
	QuietPeriod time.Duration `yaml:"quiet_period" env:"AUTOSAVE_QUIET_PERIOD" env-default:"2s"`
}

// Secrets holds the key material used to seal per-user API keys at rest
type Secrets struct {
	Key string `yaml:"key" env:"SECRETS_KEY" env-required:"true"`
}

// Log holds logging configuration
type Log struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

// SlogLevel maps the configured level name to a slog.Level
func (l Log) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MustLoad loads configuration from environment and panics on error
func MustLoad() Config {
	// Load .env file if exists (for development)
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	return cfg
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
