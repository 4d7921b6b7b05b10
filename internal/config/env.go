package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// envBindings maps config keys to the environment variables that override
// them. The names follow the variables the browser client's backend has
// always read (PORT, GEMINI_API_KEY, ...).
var envBindings = []struct {
	key string
	env string
}{
	{"server.port", "PORT"},
	{"pipeline.call_timeout", "PROVIDER_TIMEOUT"},
	{"providers.gemini.api_key", "GEMINI_API_KEY"},
	{"providers.gemini.model", "GEMINI_MODEL"},
	{"providers.openai.api_key", "OPENAI_API_KEY"},
	{"providers.openai.model", "OPENAI_MODEL"},
	{"providers.openai.base_url", "OPENAI_BASE_URL"},
	{"providers.claude.api_key", "ANTHROPIC_API_KEY"},
	{"providers.claude.model", "ANTHROPIC_MODEL"},
	{"providers.libretranslate.base_url", "LIBRETRANSLATE_URL"},
	{"providers.libretranslate.api_key", "LIBRETRANSLATE_API_KEY"},
}

// BindEnv registers the environment overrides on v.
func BindEnv(v *viper.Viper) error {
	for _, b := range envBindings {
		if err := v.BindEnv(b.key, b.env); err != nil {
			return fmt.Errorf("bind %s to %s: %w", b.env, b.key, err)
		}
	}
	return nil
}

// Overlay copies every key set in v (through a bound flag or environment
// variable) onto cfg and validates the result.
func Overlay(v *viper.Viper, cfg Config) (Config, error) {
	setString := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}

	if v.IsSet("server.port") {
		cfg.Server.Port = v.GetInt("server.port")
	}
	if v.IsSet("pipeline.call_timeout") {
		timeout, err := parseSeconds(v.GetString("pipeline.call_timeout"))
		if err != nil {
			return Config{}, fmt.Errorf("PROVIDER_TIMEOUT: %w", err)
		}
		cfg.Pipeline.CallTimeout = timeout
	}

	setString("providers.gemini.api_key", &cfg.Providers.Gemini.APIKey)
	setString("providers.gemini.model", &cfg.Providers.Gemini.Model)
	setString("providers.openai.api_key", &cfg.Providers.OpenAI.APIKey)
	setString("providers.openai.model", &cfg.Providers.OpenAI.Model)
	setString("providers.openai.base_url", &cfg.Providers.OpenAI.BaseURL)
	setString("providers.claude.api_key", &cfg.Providers.Claude.APIKey)
	setString("providers.claude.model", &cfg.Providers.Claude.Model)
	setString("providers.libretranslate.base_url", &cfg.Providers.LibreTranslate.BaseURL)
	setString("providers.libretranslate.api_key", &cfg.Providers.LibreTranslate.APIKey)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// parseSeconds reads a duration such as "1m30s". A bare number is taken as
// seconds.
func parseSeconds(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return time.Duration(n * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: use seconds (20) or a unit (20s, 1m)", raw)
	}
	return d, nil
}
