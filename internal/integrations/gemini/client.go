// Package gemini is a lazily initialized client for the Gemini generative
// language API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"
)

const defaultTimeout = 60 * time.Second

// KeySource supplies the API key. It is asked on every call and is expected to
// cache.
type KeySource interface {
	APIKey(ctx context.Context) (string, error)
}

// modelsAPI is the subset of *genai.Models used by Client.
type modelsAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// UnavailableError reports that the SDK client could not be built, so no
// request was sent.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("gemini: client unavailable: %v", e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

func (e *UnavailableError) Unavailable() bool {
	return true
}

// Client generates text with a single prompt per call. The SDK client is
// built on first use and reused until the key source hands out a different
// key.
type Client struct {
	keys       KeySource
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger

	mu     sync.Mutex
	apiKey string
	models modelsAPI
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.log = logger
		}
	}
}

func NewClient(keys KeySource, opts ...Option) (*Client, error) {
	if keys == nil {
		return nil, errors.New("gemini: key source must not be nil")
	}
	c := &Client{
		keys:       keys,
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With("component", "gemini_client")
	return c, nil
}

// GenerateContent sends prompt to model and returns the text of the first
// candidate.
func (c *Client) GenerateContent(ctx context.Context, model, prompt string) (string, error) {
	if strings.TrimSpace(model) == "" {
		return "", errors.New("gemini: model must not be empty")
	}

	models, err := c.ensureModels(ctx)
	if err != nil {
		return "", err
	}

	start := time.Now()
	resp, err := models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}
	c.log.DebugContext(ctx, "gemini response received", "model", model, "duration", time.Since(start))

	return extractText(resp)
}

func (c *Client) ensureModels(ctx context.Context) (modelsAPI, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	apiKey, err := c.keys.APIKey(ctx)
	if err != nil {
		c.log.ErrorContext(ctx, "gemini api key unavailable", "err", err)
		return nil, &UnavailableError{Err: err}
	}
	if c.models != nil && apiKey == c.apiKey {
		return c.models, nil
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.httpClient,
	}
	if c.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: c.baseURL}
	}

	gc, err := genai.NewClient(ctx, cfg)
	if err != nil {
		c.log.ErrorContext(ctx, "failed to create genai client", "err", err)
		return nil, &UnavailableError{Err: err}
	}

	c.log.InfoContext(ctx, "gemini client initialized", "rebuilt", c.models != nil)
	c.apiKey = apiKey
	c.models = gc.Models
	return c.models, nil
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", errors.New("gemini: nil response")
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" && fb.BlockReason != genai.BlockedReasonUnspecified {
		reason := string(fb.BlockReason)
		if fb.BlockReasonMessage != "" {
			reason = fb.BlockReasonMessage
		}
		return "", fmt.Errorf("gemini: prompt blocked: %s", reason)
	}
	if len(resp.Candidates) == 0 {
		return "", errors.New("gemini: no candidates in response")
	}
	cand := resp.Candidates[0]
	if cand.Content == nil || len(cand.Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: candidate has no content (finish reason %q)", cand.FinishReason)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini: empty text (finish reason %q)", cand.FinishReason)
	}
	return text, nil
}
