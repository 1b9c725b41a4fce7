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

	"github.com/rs/zerolog"

	"cloud-cost-advisor/internal/analysis"
)

const (
	chatCompletionsPath = "/chat/completions"

	// systemPrompt pins the persona; the per-resource prompt carries the
	// full response contract.
	systemPrompt = "You are a helpful cloud optimization assistant. Your response must be in the specified JSON format only."
)

// Options parameterise the chat-completions client.
type Options struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	UserAgent   string
}

// Client calls an OpenAI-compatible chat-completions endpoint.
type Client struct {
	opts    Options
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewClient constructs a generation client.
func NewClient(opts Options, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &Client{
		opts:    opts,
		logger:  logger.With().Str("component", "llm_client").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Complete sends the prompt and returns the first choice's message content.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("prompt must not be empty")
	}

	payload := chatRequest{
		Model: c.model(),
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: c.temperature(),
	}
	if c.opts.MaxTokens > 0 {
		payload.MaxTokens = c.opts.MaxTokens
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	endpoint := c.baseURL + chatCompletionsPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.opts.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	}
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		req.Header.Set("User-Agent", "costadvisor/1.0")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	payloadBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", parseHTTPError(resp.StatusCode, payloadBytes)
	}

	var completion chatResponse
	if err := json.Unmarshal(payloadBytes, &completion); err != nil {
		return "", err
	}

	if len(completion.Choices) == 0 {
		return "", errors.New("completion held no choices")
	}

	return completion.Choices[0].Message.Content, nil
}

func (c *Client) model() string {
	if c.opts.Model != "" {
		return c.opts.Model
	}
	return "gpt-4o-mini"
}

func (c *Client) temperature() float64 {
	if c.opts.Temperature > 0 {
		return c.opts.Temperature
	}
	return 0.3
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

func parseHTTPError(status int, payload []byte) error {
	var apiErr errorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil {
		if apiErr.Error.Message != "" {
			return fmt.Errorf("completion api error (%d): %s", status, apiErr.Error.Message)
		}
		if apiErr.Error.Type != "" {
			return fmt.Errorf("completion api error (%d): %s", status, apiErr.Error.Type)
		}
	}
	if len(payload) > 0 {
		return fmt.Errorf("completion api error (%d): %s", status, strings.TrimSpace(string(payload)))
	}
	return fmt.Errorf("completion api error (%d)", status)
}

var _ analysis.TextGenerator = (*Client)(nil)
