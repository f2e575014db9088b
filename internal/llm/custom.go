package llm

import (
	"context"
	"fmt"
	"net/http"
)

// Custom is the generic backend for any endpoint accepting the
// {prompt, model, max_tokens, temperature} contract and answering
// {response}.
type Custom struct {
	url         string
	model       string
	maxTokens   int
	temperature float64
	client      *http.Client
}

// NewCustom constructs a backend for the configured URL.
func NewCustom(opts Options) (*Custom, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("%w: custom backend requires a URL", ErrConfiguration)
	}
	return &Custom{
		url:         opts.Endpoint,
		model:       opts.Model,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
		client:      httpClient(opts.Timeout),
	}, nil
}

func (c *Custom) Name() string { return "custom" }

type customRequest struct {
	Prompt      string  `json:"prompt"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

type customResponse struct {
	Response *string `json:"response"`
}

// Generate posts the prompt to the configured endpoint.
func (c *Custom) Generate(ctx context.Context, prompt string) (string, error) {
	req := customRequest{
		Prompt:      prompt,
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	var resp customResponse
	if err := postJSON(ctx, c.client, c.url, nil, req, &resp); err != nil {
		return "", err
	}
	if resp.Response == nil {
		return NoResponseText, nil
	}
	return *resp.Response, nil
}
