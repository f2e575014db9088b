// Package llm abstracts "produce text for a prompt" over interchangeable
// HTTP backends: the hosted OpenAI chat-completions API, a local Ollama
// generate endpoint, or any custom endpoint speaking a small JSON contract.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// MaxResponseBytes caps what a backend answer may occupy after truncation:
// 16 TXT character-strings of 255 bytes each.
const MaxResponseBytes = 255 * 16

// NoResponseText is returned when a backend reply has no usable content.
const NoResponseText = "No response generated"

var (
	// ErrConfiguration means a backend cannot be constructed (e.g. the
	// hosted backend without an API key). Fatal at startup.
	ErrConfiguration = errors.New("llm configuration error")

	// ErrAPI means the backend answered with a non-2xx status. The error
	// text carries the response body.
	ErrAPI = errors.New("llm api error")
)

// Backend produces text for a prompt. Implementations are safe for
// concurrent use; each call is bounded by the configured request timeout.
type Backend interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

// Options configures a backend.
type Options struct {
	Backend     string        // "openai", "ollama", or a custom http(s) URL
	APIKey      string        // hosted-backend credential
	Model       string        // model identifier
	MaxTokens   int           // per-response token cap
	Temperature float64       // sampling temperature
	Timeout     time.Duration // per-request HTTP timeout
	Endpoint    string        // endpoint override; empty picks the variant default
}

// Client wraps a Backend and enforces the response size limit.
type Client struct {
	backend Backend
}

// New selects and constructs the backend named by opts.Backend.
// A value starting with http:// or https:// selects the custom backend with
// that URL; anything else must be "openai" or "ollama".
func New(opts Options) (*Client, error) {
	var (
		b   Backend
		err error
	)
	switch {
	case opts.Backend == "openai":
		b, err = NewOpenAI(opts)
	case opts.Backend == "ollama":
		b, err = NewOllama(opts)
	case strings.HasPrefix(opts.Backend, "http://"), strings.HasPrefix(opts.Backend, "https://"):
		custom := opts
		custom.Endpoint = opts.Backend
		b, err = NewCustom(custom)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrConfiguration, opts.Backend)
	}
	if err != nil {
		return nil, err
	}
	return &Client{backend: b}, nil
}

// NewWithBackend wraps an already-constructed backend. Used by tests and by
// callers that assemble backends themselves.
func NewWithBackend(b Backend) *Client {
	return &Client{backend: b}
}

// Name reports the active backend variant.
func (c *Client) Name() string { return c.backend.Name() }

// Query generates a response for prompt and truncates it to MaxResponseBytes,
// appending "..." when truncation occurred.
func (c *Client) Query(ctx context.Context, prompt string) (string, error) {
	resp, err := c.backend.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	if len(resp) > MaxResponseBytes {
		resp = resp[:MaxResponseBytes] + "..."
	}
	return resp, nil
}

// httpClient builds the shared HTTP client for a backend.
func httpClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// postJSON sends body as JSON to url and decodes a 2xx response into out.
// A non-2xx status is surfaced as ErrAPI carrying the response body;
// transport failures (including timeout) propagate unwrapped so the caller
// can log them as network errors.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: status %d: %s", ErrAPI, resp.StatusCode, strings.TrimSpace(string(errBody)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
