package llm

import (
	"context"
	"net/http"
)

// DefaultOllamaEndpoint is the local generate endpoint.
const DefaultOllamaEndpoint = "http://localhost:11434/api/generate"

// Ollama is the local generate-endpoint backend.
type Ollama struct {
	url    string
	model  string
	client *http.Client
}

// NewOllama constructs the local backend. No credential is needed.
func NewOllama(opts Options) (*Ollama, error) {
	url := opts.Endpoint
	if url == "" {
		url = DefaultOllamaEndpoint
	}
	return &Ollama{
		url:    url,
		model:  opts.Model,
		client: httpClient(opts.Timeout),
	}, nil
}

func (o *Ollama) Name() string { return "ollama" }

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response *string `json:"response"`
}

// Generate asks the generate endpoint for a non-streamed completion.
func (o *Ollama) Generate(ctx context.Context, prompt string) (string, error) {
	req := ollamaRequest{Model: o.model, Prompt: prompt, Stream: false}

	var resp ollamaResponse
	if err := postJSON(ctx, o.client, o.url, nil, req, &resp); err != nil {
		return "", err
	}
	if resp.Response == nil {
		return NoResponseText, nil
	}
	return *resp.Response, nil
}
