package factory

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"kotoba-gateway/internal/config"
	"kotoba-gateway/internal/provider"
	claudeProvider "kotoba-gateway/internal/provider/claude"
	geminiProvider "kotoba-gateway/internal/provider/gemini"
	libreProvider "kotoba-gateway/internal/provider/libretranslate"
	openaiProvider "kotoba-gateway/internal/provider/openai"
)

const (
	// Per-call deadlines come from the pipeline; this is only a backstop.
	defaultHTTPTimeout     = 90 * time.Second
	defaultDialTimeout     = 10 * time.Second
	defaultKeepAlive       = 30 * time.Second
	defaultIdleConnTimeout = 90 * time.Second
)

type constructor func(name string, cfg config.ProviderConfig, client *http.Client) (provider.Provider, error)

// RegisterConfiguredProviders constructs every known provider from
// configuration, guards it with a circuit breaker and stores it in the
// registry. Providers without credentials are registered too; they report
// themselves unavailable.
func RegisterConfiguredProviders(cfg config.Config, registry *provider.Registry) error {
	if registry == nil {
		return errors.New("registry must not be nil")
	}

	builders := []struct {
		name string
		cfg  config.ProviderConfig
		new  constructor
	}{
		{config.ProviderGemini, cfg.Providers.Gemini, func(n string, c config.ProviderConfig, hc *http.Client) (provider.Provider, error) {
			return geminiProvider.New(n, c, hc)
		}},
		{config.ProviderOpenAI, cfg.Providers.OpenAI, func(n string, c config.ProviderConfig, hc *http.Client) (provider.Provider, error) {
			return openaiProvider.New(n, c, hc)
		}},
		{config.ProviderClaude, cfg.Providers.Claude, func(n string, c config.ProviderConfig, hc *http.Client) (provider.Provider, error) {
			return claudeProvider.New(n, c, hc)
		}},
		{config.ProviderLibreTranslate, cfg.Providers.LibreTranslate, func(n string, c config.ProviderConfig, hc *http.Client) (provider.Provider, error) {
			return libreProvider.New(n, c, hc)
		}},
	}

	breaker := provider.BreakerSettings{
		MaxFailures: cfg.Breaker.MaxFailures,
		OpenTimeout: cfg.Breaker.OpenTimeout,
	}

	for _, b := range builders {
		p, err := b.new(b.name, b.cfg, newHTTPClient(max(defaultHTTPTimeout, cfg.Pipeline.CallTimeout)))
		if err != nil {
			return fmt.Errorf("initialise %s provider: %w", b.name, err)
		}
		if err := registry.Register(provider.WithBreaker(p, breaker)); err != nil {
			return fmt.Errorf("register %s provider: %w", b.name, err)
		}
	}

	return nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: defaultDialTimeout, KeepAlive: defaultKeepAlive}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          50,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
