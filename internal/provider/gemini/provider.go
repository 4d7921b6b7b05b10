package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"kotoba-gateway/internal/config"
	"kotoba-gateway/internal/provider"
)

// DefaultModel is used when the configuration leaves the model blank.
const DefaultModel = "gemini-2.5-flash"

// Provider calls the Gemini generative-language API.
type Provider struct {
	name    string
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// New constructs a Gemini provider. The underlying SDK client is created per
// call, so an empty API key is allowed here and reported through Available.
func New(name string, cfg config.ProviderConfig, client *http.Client) (*Provider, error) {
	if client == nil {
		return nil, errors.New("http client must not be nil")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	return &Provider{
		name:    name,
		apiKey:  strings.TrimSpace(cfg.APIKey),
		model:   model,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  client,
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

	clientCfg := &genai.ClientConfig{
		APIKey:     p.apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: p.client,
	}
	if p.baseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: p.baseURL + "/"}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return "", fmt.Errorf("initialise gemini client: %w", err)
	}

	resp, err := client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), generateConfig(opts))
	if err != nil {
		return "", &provider.TransportError{Provider: p.name, Status: statusOf(err), Err: err}
	}
	if resp == nil {
		return "", nil
	}
	return resp.Text(), nil
}

func generateConfig(opts provider.CallOptions) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if opts.Temperature != nil {
		t := float32(*opts.Temperature)
		cfg.Temperature = &t
	}
	if opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(opts.MaxTokens)
	}
	if opts.JSON {
		cfg.ResponseMIMEType = "application/json"
	}
	return cfg
}

func statusOf(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code
	}
	return 0
}
