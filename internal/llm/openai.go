package llm

import (
	"context"
	"fmt"
	"net/http"
)

// DefaultOpenAIEndpoint is the hosted chat-completions endpoint.
const DefaultOpenAIEndpoint = "https://api.openai.com/v1/chat/completions"

// OpenAI is the hosted chat-completions backend.
type OpenAI struct {
	url         string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	client      *http.Client
}

// NewOpenAI constructs the hosted backend. Construction fails without an
// API key; that is an operator error, not something to discover per-request.
func NewOpenAI(opts Options) (*OpenAI, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%w: openai backend requires an API key", ErrConfiguration)
	}
	url := opts.Endpoint
	if url == "" {
		url = DefaultOpenAIEndpoint
	}
	return &OpenAI{
		url:         url,
		apiKey:      opts.APIKey,
		model:       opts.Model,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
		client:      httpClient(opts.Timeout),
	}, nil
}

func (o *OpenAI) Name() string { return "openai" }

type openAIMessage struct {
	Role    string  `json:"role"`
	Content *string `json:"content,omitempty"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
}

// Generate asks the chat-completions API for a single user-turn reply.
func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	req := openAIRequest{
		Model:       o.model,
		Messages:    []openAIMessage{{Role: "user", Content: &prompt}},
		MaxTokens:   o.maxTokens,
		Temperature: o.temperature,
	}

	var resp openAIResponse
	headers := map[string]string{"Authorization": "Bearer " + o.apiKey}
	if err := postJSON(ctx, o.client, o.url, headers, req, &resp); err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == nil {
		return NoResponseText, nil
	}
	return *resp.Choices[0].Message.Content, nil
}
