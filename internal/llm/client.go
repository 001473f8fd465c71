// Package llm wraps the external language model behind a small
// interface so the generation core stays testable without a live
// endpoint.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Options tunes a single completion call. Zero values fall back to the
// client's configured defaults.
type Options struct {
	Temperature float64
	MaxTokens   int
	TimeoutMs   int
}

// Client is the external model dependency of the generation
// orchestrator.
type Client interface {
	// Complete sends a prompt and returns the raw text answer.
	Complete(ctx context.Context, prompt string, opts Options) (string, error)
}

// Config holds connection settings for an OpenAI-compatible
// chat-completions endpoint.
type Config struct {
	Endpoint    string  `yaml:"endpoint"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutMs   int     `yaml:"timeout_ms"`
}

// HTTPClient talks to an OpenAI-compatible /chat/completions endpoint.
type HTTPClient struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger
}

// NewHTTPClient creates a model client. The per-call timeout is
// enforced via context, not on the http.Client, so callers can shorten
// it per request.
func NewHTTPClient(cfg Config, log *slog.Logger) *HTTPClient {
	return &HTTPClient{
		cfg: cfg,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
			},
		},
		log: log,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete implements Client. A timeout or transport failure is mapped
// to the package sentinels so the orchestrator can classify it without
// string matching.
func (c *HTTPClient) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	temp := c.cfg.Temperature
	if opts.Temperature > 0 {
		temp = opts.Temperature
	}
	maxTok := c.cfg.MaxTokens
	if opts.MaxTokens > 0 {
		maxTok = opts.MaxTokens
	}
	timeoutMs := c.cfg.TimeoutMs
	if opts.TimeoutMs > 0 {
		timeoutMs = opts.TimeoutMs
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeoutMs)*time.Millisecond)
	defer cancel()

	body := chatRequest{
		Model:       c.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: temp,
		MaxTokens:   maxTok,
	}

	start := time.Now()
	text, err := c.doRequest(ctx, body)
	latency := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			c.log.Warn("model call timed out", "latency", latency.String())
			return "", ErrTimeout
		}
		c.log.Warn("model call failed", "error", err, "latency", latency.String())
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}

	c.log.Debug("model call complete", "latency", latency.String(), "chars", len(text))
	return text, nil
}

func (c *HTTPClient) doRequest(ctx context.Context, body chatRequest) (string, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := c.cfg.Endpoint + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("model endpoint returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if parsed.Error != nil {
		return "", errors.New(parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("response contained no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
