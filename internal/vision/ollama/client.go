// Package ollama speaks the local Ollama chat API directly. There is
// no official Go SDK for it; the HTTP surface is small enough that a
// plain client keeps the dependency out.
package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/orderlens/orderlens/internal/vision"
)

var _ vision.Provider = (*Client)(nil)

type Config struct {
	url   string
	model string

	client *http.Client
}

type Option func(*Config)

func WithClient(client *http.Client) Option {
	return func(c *Config) {
		c.client = client
	}
}

type Client struct {
	*Config
}

func New(url, model string, options ...Option) (*Client, error) {
	cfg := &Config{
		url:   url,
		model: model,
	}

	for _, option := range options {
		option(cfg)
	}

	if cfg.url == "" {
		cfg.url = "http://localhost:11434"
	}

	if cfg.model == "" {
		cfg.model = "llava"
	}

	if cfg.client == nil {
		cfg.client = http.DefaultClient
	}

	return &Client{Config: cfg}, nil
}

func (c *Client) Name() string {
	return "ollama"
}

type chatMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Error   string      `json:"error,omitempty"`
}

func (c *Client) Extract(ctx context.Context, req vision.Request) (string, error) {
	body := chatRequest{
		Model:  c.model,
		Stream: false,
		Messages: []chatMessage{
			{
				Role:    "user",
				Content: req.Prompt,
				Images:  []string{base64.StdEncoding.EncodeToString(req.Image)},
			},
		},
		Options: map[string]any{
			"temperature": vision.DefaultTemperature,
		},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	url := strings.TrimRight(c.url, "/") + "/api/chat"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if out.Error != "" {
		return "", errors.New(out.Error)
	}
	if out.Message.Content == "" {
		return "", errors.New("empty completion")
	}

	return out.Message.Content, nil
}
