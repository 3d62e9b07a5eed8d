// Package config loads the function's settings from environment variables and
// validates them before anything else starts.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"aura-chat/internal/usecase"
)

// ErrConfiguration wraps every load or validation failure.
var ErrConfiguration = errors.New("configuration error")

const (
	DefaultProviderTimeout = 60 * time.Second
	DefaultAllowOrigin     = "*"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "json"
)

type Config struct {
	APIKey          string        `mapstructure:"gemini_api_key"       validate:"required_without=APIKeyParam"`
	APIKeyParam     string        `mapstructure:"gemini_api_key_param" validate:"required_without=APIKey"`
	Model           string        `mapstructure:"gemini_model"         validate:"required"`
	BaseURL         string        `mapstructure:"gemini_base_url"      validate:"omitempty,url"`
	ProviderTimeout time.Duration `mapstructure:"provider_timeout"     validate:"min=1s,max=15m"`
	AllowOrigin     string        `mapstructure:"cors_allow_origin"    validate:"required"`
	LogLevel        string        `mapstructure:"log_level"            validate:"oneof=debug info warn error"`
	LogFormat       string        `mapstructure:"log_format"           validate:"oneof=json text"`
}

var keys = []string{
	"gemini_api_key",
	"gemini_api_key_param",
	"gemini_model",
	"gemini_base_url",
	"provider_timeout",
	"cors_allow_origin",
	"log_level",
	"log_format",
}

// Load reads configuration from the environment over the defaults and
// validates the result.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for _, k := range keys {
		if err := v.BindEnv(k, strings.ToUpper(k)); err != nil {
			return nil, fmt.Errorf("%w: bind %s: %v", ErrConfiguration, k, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: parse: %v", ErrConfiguration, err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("gemini_model", usecase.DefaultModel)
	v.SetDefault("provider_timeout", DefaultProviderTimeout)
	v.SetDefault("cors_allow_origin", DefaultAllowOrigin)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_format", DefaultLogFormat)
}

func (c *Config) normalize() {
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.APIKeyParam = strings.TrimSpace(c.APIKeyParam)
	c.Model = strings.TrimSpace(c.Model)
	c.BaseURL = strings.TrimSpace(c.BaseURL)
	c.AllowOrigin = strings.TrimSpace(c.AllowOrigin)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
}

// Validate checks struct constraints. A missing API key source is reported
// with the environment variable names an operator has to set.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() == "required_without" {
			msgs = append(msgs, "GEMINI_API_KEY or GEMINI_API_KEY_PARAM must be set")
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Field(), fe.Tag(), fe.Value()))
	}
	return errors.New(strings.Join(dedupe(msgs), "; "))
}

// SlogLevel maps LogLevel to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
