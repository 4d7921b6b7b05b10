package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/gommon/bytes"
	"gopkg.in/yaml.v3"
)

// MinCallTimeout is the smallest accepted pipeline.call_timeout.
const MinCallTimeout = time.Second

// Provider names accepted in routes.
const (
	ProviderGemini         = "gemini"
	ProviderOpenAI         = "openai"
	ProviderClaude         = "claude"
	ProviderLibreTranslate = "libretranslate"
)

// Config represents the application configuration parsed from YAML.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Providers ProvidersConfig `yaml:"providers"`
	Breaker   BreakerConfig   `yaml:"breaker"`
	Routes    RoutesConfig    `yaml:"routes"`
}

// ServerConfig defines listener configuration.
type ServerConfig struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
	BodyLimit   string   `yaml:"body_limit"`
}

// PipelineConfig tunes how operations call providers.
type PipelineConfig struct {
	CallTimeout time.Duration `yaml:"call_timeout"`
	SourceLang  string        `yaml:"source_lang"`
	TargetLang  string        `yaml:"target_lang"`
}

// ProvidersConfig catalogues upstream providers.
type ProvidersConfig struct {
	Gemini         ProviderConfig `yaml:"gemini"`
	OpenAI         ProviderConfig `yaml:"openai"`
	Claude         ProviderConfig `yaml:"claude"`
	LibreTranslate ProviderConfig `yaml:"libretranslate"`
}

// ProviderConfig captures authentication and endpoint info for a provider.
// An empty APIKey leaves the provider registered but unavailable.
type ProviderConfig struct {
	APIKey    string  `yaml:"api_key"`
	BaseURL   string  `yaml:"base_url"`
	Model     string  `yaml:"model"`
	MaxTokens int     `yaml:"max_tokens"`
	Headers   Headers `yaml:"headers"`
}

// Headers contains additional HTTP headers to send with a provider request.
type Headers map[string]string

// BreakerConfig configures the optional per-provider circuit breaker. A zero
// MaxFailures, the default, disables it.
type BreakerConfig struct {
	MaxFailures uint32        `yaml:"max_failures"`
	OpenTimeout time.Duration `yaml:"open_timeout"`
}

// RoutesConfig lists, per operation, the providers to try in order.
type RoutesConfig struct {
	Classify    []string `yaml:"classify"`
	Translate   []string `yaml:"translate"`
	VocabLookup []string `yaml:"vocab_lookup"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:        4000,
			CORSOrigins: []string{"*"},
			BodyLimit:   "1M",
		},
		Pipeline: PipelineConfig{
			CallTimeout: 20 * time.Second,
			SourceLang:  "ja",
			TargetLang:  "vi",
		},
		Providers: ProvidersConfig{
			Gemini:         ProviderConfig{Model: "gemini-2.5-flash"},
			OpenAI:         ProviderConfig{Model: "gpt-4o-mini"},
			Claude:         ProviderConfig{Model: "claude-3-5-haiku-latest", BaseURL: "https://api.anthropic.com", MaxTokens: 2048},
			LibreTranslate: ProviderConfig{BaseURL: "https://libretranslate.de"},
		},
		Breaker: BreakerConfig{
			OpenTimeout: 30 * time.Second,
		},
		Routes: RoutesConfig{
			Classify:    []string{ProviderGemini, ProviderOpenAI, ProviderClaude},
			Translate:   []string{ProviderGemini, ProviderOpenAI, ProviderClaude, ProviderLibreTranslate},
			VocabLookup: []string{ProviderGemini, ProviderOpenAI, ProviderClaude},
		},
	}
}

// Load reads YAML configuration from disk on top of Default and validates
// the result.
func Load(path string) (Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return Config{}, fmt.Errorf("resolve config path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return Config{}, fmt.Errorf("read config file %q: %w", absPath, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file %q: %w", absPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate performs strict sanity checks on the configuration.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be a valid TCP port, got %d", c.Server.Port)
	}
	if limit, err := bytes.Parse(c.Server.BodyLimit); err != nil || limit <= 0 {
		return fmt.Errorf("server.body_limit %q must be a positive size such as 1M or 512KB", c.Server.BodyLimit)
	}
	if len(c.Server.CORSOrigins) == 0 {
		return fmt.Errorf("server.cors_origins must list at least one origin")
	}
	if c.Pipeline.CallTimeout < MinCallTimeout {
		return fmt.Errorf("pipeline.call_timeout must be at least %s, got %s", MinCallTimeout, c.Pipeline.CallTimeout)
	}
	if strings.TrimSpace(c.Pipeline.SourceLang) == "" || strings.TrimSpace(c.Pipeline.TargetLang) == "" {
		return fmt.Errorf("pipeline.source_lang and pipeline.target_lang must be set")
	}
	if c.Breaker.MaxFailures > 0 && c.Breaker.OpenTimeout <= 0 {
		return fmt.Errorf("breaker.open_timeout must be positive when breaker.max_failures is set")
	}

	for name, provider := range c.Providers.byName() {
		if err := validateProvider(name, provider); err != nil {
			return err
		}
	}

	routes := []struct {
		name            string
		providers       []string
		allowTranslator bool
	}{
		{"classify", c.Routes.Classify, false},
		{"translate", c.Routes.Translate, true},
		{"vocab_lookup", c.Routes.VocabLookup, false},
	}
	for _, route := range routes {
		if err := validateRoute(route.name, route.providers, route.allowTranslator); err != nil {
			return err
		}
	}

	return nil
}

// RequestBudget is the longest a single request can spend calling providers:
// every provider of the longest route timing out in turn.
func (c Config) RequestBudget() time.Duration {
	longest := max(len(c.Routes.Classify), len(c.Routes.Translate), len(c.Routes.VocabLookup))
	return time.Duration(longest) * c.Pipeline.CallTimeout
}

// byName maps provider names to their configuration.
func (p ProvidersConfig) byName() map[string]ProviderConfig {
	return map[string]ProviderConfig{
		ProviderGemini:         p.Gemini,
		ProviderOpenAI:         p.OpenAI,
		ProviderClaude:         p.Claude,
		ProviderLibreTranslate: p.LibreTranslate,
	}
}

func validateProvider(name string, provider ProviderConfig) error {
	if provider.MaxTokens < 0 {
		return fmt.Errorf("provider %s: max_tokens must not be negative", name)
	}
	if u := strings.TrimSpace(provider.BaseURL); u != "" && !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return fmt.Errorf("provider %s: base_url %q must be an http(s) URL", name, u)
	}

	for headerKey := range provider.Headers {
		if !isCanonicalHTTPHeader(headerKey) {
			return fmt.Errorf("provider %s: header %q is not a valid canonical HTTP header", name, headerKey)
		}
	}

	return nil
}

func validateRoute(name string, providers []string, allowTranslator bool) error {
	seen := make(map[string]bool, len(providers))
	for _, p := range providers {
		switch p {
		case ProviderGemini, ProviderOpenAI, ProviderClaude:
		case ProviderLibreTranslate:
			if !allowTranslator {
				return fmt.Errorf("routes.%s: provider %q only supports translate", name, p)
			}
		default:
			return fmt.Errorf("routes.%s: unknown provider %q", name, p)
		}
		if seen[p] {
			return fmt.Errorf("routes.%s: provider %q listed twice", name, p)
		}
		seen[p] = true
	}
	return nil
}

func isCanonicalHTTPHeader(header string) bool {
	if header == "" {
		return false
	}

	for _, r := range header {
		if !(r == '-' || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')) {
			return false
		}
	}
	return true
}
