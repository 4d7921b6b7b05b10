package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"kotoba-gateway/internal/config"
	"kotoba-gateway/internal/provider"
)

// DefaultModel is used when the configuration leaves the model blank.
const DefaultModel = goopenai.GPT4oMini

const systemPrompt = "You are a careful Japanese-Vietnamese language assistant. Follow the requested output format exactly."

// Provider implements the Provider interface for OpenAI-compatible chat APIs.
type Provider struct {
	name   string
	apiKey string
	model  string
	client *goopenai.Client
}

// New creates a new OpenAI provider.
func New(name string, cfg config.ProviderConfig, client *http.Client) (*Provider, error) {
	if client == nil {
		return nil, errors.New("http client must not be nil")
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	clientCfg := goopenai.DefaultConfig(apiKey)
	if baseURL := strings.TrimRight(cfg.BaseURL, "/"); baseURL != "" {
		clientCfg.BaseURL = baseURL
	}
	clientCfg.HTTPClient = client

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	return &Provider{
		name:   name,
		apiKey: apiKey,
		model:  model,
		client: goopenai.NewClientWithConfig(clientCfg),
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

	req := goopenai.ChatCompletionRequest{
		Model: p.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if opts.Temperature != nil {
		req.Temperature = float32(*opts.Temperature)
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}
	if opts.JSON {
		req.ResponseFormat = &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", &provider.TransportError{Provider: p.name, Status: statusOf(err), Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func statusOf(err error) int {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
