// Package config loads service configuration from layered sources:
// built-in defaults, an optional YAML file, and environment variables,
// in ascending order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/sourceblend/recommender/internal/domain"
)

// EnvPrefix namespaces every environment override. A double underscore
// separates the section from the key, so RECOMMENDER_ENGINE__MAX_CONCURRENCY
// maps to engine.max_concurrency.
const EnvPrefix = "RECOMMENDER_"

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "RECOMMENDER_CONFIG"

// Config is the root service configuration.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Engine  EngineConfig  `koanf:"engine"`
	Adapter AdapterConfig `koanf:"adapter"`
	Logging LoggingConfig `koanf:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// EngineConfig bounds the aggregation fan-out.
type EngineConfig struct {
	MaxConcurrency int `koanf:"max_concurrency" validate:"gte=1,lte=64"`
}

// AdapterConfig applies to every provider adapter in the chain.
type AdapterConfig struct {
	// Timeout bounds a single provider call; an expired deadline
	// surfaces as a network issue on the source, never a failed run.
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`

	// RateLimitRPS of 0 disables rate limiting.
	RateLimitRPS   float64 `koanf:"rate_limit_rps" validate:"gte=0"`
	RateLimitBurst int     `koanf:"rate_limit_burst" validate:"gte=0"`
}

// LoggingConfig controls zerolog output.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Pretty bool   `koanf:"pretty"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Engine: EngineConfig{
			MaxConcurrency: 4,
		},
		Adapter: AdapterConfig{
			Timeout:        30 * time.Second,
			RateLimitRPS:   0,
			RateLimitBurst: 0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: false,
		},
	}
}

// Load assembles the configuration from defaults, the YAML file at
// path (or $RECOMMENDER_CONFIG when path is empty; a missing file is
// not an error), and RECOMMENDER_-prefixed environment variables.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path == "" {
		path = os.Getenv(ConfigPathEnvVar)
	}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("loading config file %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envToPath), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field constraint. Violations are aggregated
// into a domain.ValidationError wrapping domain.ErrInvalidConfiguration
// so callers can match either.
func (c *Config) Validate() error {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", domain.ErrInvalidConfiguration, err)
	}

	verr := domain.NewValidationError("Config")
	for _, fe := range fieldErrs {
		verr.AddError(fmt.Sprintf("%s failed on the %q rule", fe.Namespace(), fe.Tag()))
	}
	if !verr.HasErrors() {
		return nil
	}
	return fmt.Errorf("%w: %w", domain.ErrInvalidConfiguration, verr)
}

// envToPath maps RECOMMENDER_SERVER__READ_TIMEOUT to server.read_timeout.
func envToPath(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}
