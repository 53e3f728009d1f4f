package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Redis     RedisConfig     `mapstructure:"redis" validate:"required"`
	Queue     QueueConfig     `mapstructure:"queue" validate:"required"`
	Retention RetentionConfig `mapstructure:"retention" validate:"required"`
	LLM       LLMConfig       `mapstructure:"llm" validate:"required"`
	Storage   StorageConfig   `mapstructure:"storage" validate:"required"`
	Kit       KitConfig       `mapstructure:"kit"`
	Auth      AuthConfig      `mapstructure:"auth" validate:"required"`
}

// ServerConfig contains the ops API and process-wide settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains settings for the business-record database.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// RedisConfig points at the backing store used for all queue state.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" validate:"required,hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0,lte=15"`
}

// QueueConfig tunes retry behaviour and the poll cycle of each worker loop.
type QueueConfig struct {
	MaxAttempts int `mapstructure:"max_attempts" validate:"required,gte=1,lte=20"`
	// MaxBackoff caps the exponential retry delay.
	MaxBackoff time.Duration `mapstructure:"max_backoff" validate:"required,gte=1s"`
	// LeaseTimeout enables the stale-lease reaper when non-zero.
	LeaseTimeout time.Duration `mapstructure:"lease_timeout" validate:"gte=0"`

	GenerationPollInterval time.Duration `mapstructure:"generation_poll_interval" validate:"required,gt=0"`
	GenerationErrorBackoff time.Duration `mapstructure:"generation_error_backoff" validate:"required,gt=0"`
	DeletionPollInterval   time.Duration `mapstructure:"deletion_poll_interval" validate:"required,gt=0"`
	DeletionErrorBackoff   time.Duration `mapstructure:"deletion_error_backoff" validate:"required,gt=0"`
}

// RetentionConfig controls the periodic sweep of expired generated files.
type RetentionConfig struct {
	Months   int           `mapstructure:"months" validate:"required,gte=1"`
	Interval time.Duration `mapstructure:"interval" validate:"required,gte=1m"`
}

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	GeminiAPIKey      string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName         string `mapstructure:"model_name" validate:"required"`
	FallbackModelName string `mapstructure:"fallback_model_name"`
	MaxRetries        int    `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	RetryDelaySeconds int    `mapstructure:"retry_delay_seconds" validate:"gte=1,lte=60"`
	// PromptTemplatePath overrides the built-in rewrite prompt when set.
	PromptTemplatePath string `mapstructure:"prompt_template_path"`
}

// StorageConfig points at the object storage service holding generated files.
type StorageConfig struct {
	URL        string `mapstructure:"url" validate:"required,url"`
	ServiceKey string `mapstructure:"service_key" validate:"required"`
	Bucket     string `mapstructure:"bucket" validate:"required"`
}

// KitConfig configures email-list tracking. An empty APIKey disables it.
type KitConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`
}

// AuthConfig contains settings for validating API bearer tokens.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
}
