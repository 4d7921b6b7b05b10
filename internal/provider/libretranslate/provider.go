// Package libretranslate talks to a LibreTranslate machine-translation server.
package libretranslate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"kotoba-gateway/internal/config"
	"kotoba-gateway/internal/provider"
)

const (
	contentTypeJSON = "application/json"
	userAgent       = "kotoba-gateway/0.1"
	maxBodyBytes    = 1 << 20

	defaultBaseURL = "https://libretranslate.de"
	defaultSource  = "ja"
	defaultTarget  = "vi"
)

// Provider sends source text to /translate. The key is optional on public
// instances, so the provider is always available.
type Provider struct {
	name      string
	apiKey    string
	headers   map[string]string
	client    *http.Client
	translate string
}

// New constructs a LibreTranslate provider.
func New(name string, cfg config.ProviderConfig, client *http.Client) (*Provider, error) {
	if client == nil {
		return nil, errors.New("http client must not be nil")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Provider{
		name:      name,
		apiKey:    strings.TrimSpace(cfg.APIKey),
		headers:   cfg.Headers,
		client:    client,
		translate: baseURL + "/translate",
	}, nil
}

func (p *Provider) Name() string {
	return p.name
}

func (p *Provider) Kind() provider.Kind {
	return provider.KindTranslator
}

func (p *Provider) Available() bool {
	return true
}

type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

// Call translates text and returns the raw JSON body, e.g.
// {"translatedText":"..."}, for the caller to decode.
func (p *Provider) Call(ctx context.Context, text string, opts provider.CallOptions) (string, error) {
	req := translateRequest{
		Q:      text,
		Source: firstNonEmpty(opts.SourceLang, defaultSource),
		Target: firstNonEmpty(opts.TargetLang, defaultTarget),
		Format: "text",
		APIKey: p.apiKey,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.translate, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("construct request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentTypeJSON)
	httpReq.Header.Set("Accept", contentTypeJSON)
	httpReq.Header.Set("User-Agent", userAgent)
	for k, v := range p.headers {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return "", &provider.TransportError{Provider: p.name, Err: fmt.Errorf("libretranslate request failed: %w", err)}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		return "", &provider.TransportError{Provider: p.name, Status: httpResp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if httpResp.StatusCode >= 300 {
		return "", &provider.TransportError{Provider: p.name, Status: httpResp.StatusCode, Err: parseAPIError(httpResp.StatusCode, respBody)}
	}

	return string(respBody), nil
}

func parseAPIError(status int, body []byte) error {
	var apiErr struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != "" {
		return fmt.Errorf("libretranslate error: %s", apiErr.Error)
	}
	return fmt.Errorf("upstream error status %d: %s", status, strings.TrimSpace(string(body)))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
