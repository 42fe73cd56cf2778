package anthropic

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/orderlens/orderlens/internal/vision"

	"github.com/anthropics/anthropic-sdk-go"
)

var _ vision.Provider = (*Client)(nil)

type Client struct {
	*Config
	messages anthropic.MessageService
}

func New(token, model string, options ...Option) (*Client, error) {
	cfg := &Config{
		token: token,
		model: model,
	}

	for _, option := range options {
		option(cfg)
	}

	if cfg.model == "" {
		cfg.model = "claude-sonnet-4-5"
	}

	return &Client{
		Config:   cfg,
		messages: anthropic.NewMessageService(cfg.Options()...),
	}, nil
}

func (c *Client) Name() string {
	return "anthropic"
}

func (c *Client) Extract(ctx context.Context, req vision.Request) (string, error) {
	data := base64.StdEncoding.EncodeToString(req.Image)

	msg, err := c.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   1024,
		Temperature: anthropic.Float(vision.DefaultTemperature),

		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlockBase64(req.MIME, data),
				anthropic.NewTextBlock(req.Prompt),
			),
		},
	})

	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		switch block := block.AsAny().(type) {
		case anthropic.TextBlock:
			sb.WriteString(block.Text)
		}
	}

	if sb.Len() == 0 {
		return "", errors.New("empty completion")
	}

	return sb.String(), nil
}
