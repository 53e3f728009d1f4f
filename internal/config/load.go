package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "RESUMEQ"

// Load reads configuration from environment variables only.
// See LoadFile for the precedence rules.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile reads configuration from defaults, then the optional file at path,
// then environment variables. Environment variables take precedence over values
// from the file. Returns a populated Config or an error if loading/validation fails.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return nil, fmt.Errorf("config validation failed: %s", strings.Join(fields, ", "))
		}
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("queue.max_attempts", 3)
	v.SetDefault("queue.max_backoff", "5m")
	v.SetDefault("queue.lease_timeout", "0s")
	v.SetDefault("queue.generation_poll_interval", "5s")
	v.SetDefault("queue.generation_error_backoff", "10s")
	v.SetDefault("queue.deletion_poll_interval", "30s")
	v.SetDefault("queue.deletion_error_backoff", "60s")

	v.SetDefault("retention.months", 6)
	v.SetDefault("retention.interval", "24h")

	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay_seconds", 2)

	v.SetDefault("storage.bucket", "resumes")

	v.SetDefault("kit.base_url", "https://api.kit.com/v4")
}

// bindEnvs registers keys that have no default so AutomaticEnv picks them up
// during Unmarshal.
func bindEnvs(v *viper.Viper) {
	for _, key := range []string{
		"database.url",
		"redis.password",
		"llm.gemini_api_key",
		"llm.fallback_model_name",
		"llm.prompt_template_path",
		"storage.url",
		"storage.service_key",
		"kit.api_key",
		"auth.jwt_secret",
	} {
		_ = v.BindEnv(key)
	}
}
