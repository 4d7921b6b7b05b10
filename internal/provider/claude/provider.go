package claude

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
	apiVersion      = "2023-06-01"

	// DefaultModel is used when the configuration leaves the model blank.
	DefaultModel     = "claude-3-5-haiku-latest"
	defaultBaseURL   = "https://api.anthropic.com"
	defaultMaxTokens = 2048
)

// Provider implements Anthropic Claude API interactions.
type Provider struct {
	name      string
	apiKey    string
	model     string
	maxTokens int
	headers   map[string]string
	client    *http.Client
	messages  string
}

// New constructs a Claude provider instance.
func New(name string, cfg config.ProviderConfig, client *http.Client) (*Provider, error) {
	if client == nil {
		return nil, errors.New("http client must not be nil")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &Provider{
		name:      name,
		apiKey:    strings.TrimSpace(cfg.APIKey),
		model:     model,
		maxTokens: maxTokens,
		headers:   cfg.Headers,
		client:    client,
		messages:  baseURL + "/v1/messages",
	}, nil
}

func (p *Provider) Name() string {
	return p.name
}

func (p *Provider) Kind() provider.Kind {
	return provider.KindLLM
}

func (p *Provider) Available() bool {
	return p.apiKey != ""
}

func (p *Provider) Call(ctx context.Context, prompt string, opts provider.CallOptions) (string, error) {
	if !p.Available() {
		return "", provider.ErrMissingCredential
	}

	payload, err := p.buildMessagePayload(prompt, opts)
	if err != nil {
		return "", err
	}

	httpReq, err := p.newRequest(ctx, http.MethodPost, p.messages, payload)
	if err != nil {
		return "", err
	}

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return "", &provider.TransportError{Provider: p.name, Err: fmt.Errorf("claude messages request failed: %w", err)}
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode >= 300 {
		return "", &provider.TransportError{Provider: p.name, Status: httpResp.StatusCode, Err: parseAPIError(httpResp)}
	}

	var providerResp messageResponse
	if err := decodeJSON(httpResp.Body, &providerResp); err != nil {
		return "", &provider.TransportError{Provider: p.name, Status: httpResp.StatusCode, Err: err}
	}

	return providerResp.text(), nil
}

func (p *Provider) newRequest(ctx context.Context, method, url string, payload any) (*http.Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("construct request: %w", err)
	}

	req.Header.Set("Content-Type", contentTypeJSON)
	req.Header.Set("Accept", contentTypeJSON)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	for k, v := range p.headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

type messagePayload struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	System      string    `json:"system,omitempty"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

func (p *Provider) buildMessagePayload(prompt string, opts provider.CallOptions) (messagePayload, error) {
	text := strings.TrimSpace(prompt)
	if text == "" {
		return messagePayload{}, errors.New("claude messages must not be empty")
	}

	maxTokens := p.maxTokens
	if opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}

	payload := messagePayload{
		Model: p.model,
		Messages: []message{
			{Role: "user", Content: []contentBlock{{Type: "text", Text: text}}},
		},
		MaxTokens:   maxTokens,
		Temperature: opts.Temperature,
	}
	if opts.JSON {
		payload.System = "Respond with a single valid JSON object and nothing else."
	}
	return payload, nil
}

type messageResponse struct {
	ID         string         `json:"id"`
	Role       string         `json:"role"`
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
}

// text concatenates the text blocks; other block types are ignored.
func (r messageResponse) text() string {
	var b strings.Builder
	for _, block := range r.Content {
		if block.Type != "text" {
			continue
		}
		b.WriteString(block.Text)
	}
	return b.String()
}

type apiErrorResponse struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func parseAPIError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return fmt.Errorf("upstream error status %d and failed to read body: %w", resp.StatusCode, err)
	}

	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return fmt.Errorf("claude error (%s): %s", apiErr.Error.Type, apiErr.Error.Message)
	}

	return fmt.Errorf("upstream error status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}

func decodeJSON(reader io.Reader, target any) error {
	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("decode provider response: %w", err)
	}
	return nil
}
