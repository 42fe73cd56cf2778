package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/orderlens/orderlens/internal/vision"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/shared"
)

var _ vision.Provider = (*Client)(nil)

type Client struct {
	*Config
	chat openai.ChatCompletionService
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
		cfg.model = "gpt-4o"
	}

	return &Client{
		Config: cfg,
		chat:   openai.NewChatCompletionService(cfg.Options()...),
	}, nil
}

func (c *Client) Name() string {
	return "openai"
}

func (c *Client) Extract(ctx context.Context, req vision.Request) (string, error) {
	url := fmt.Sprintf("data:%s;base64,%s", req.MIME, base64.StdEncoding.EncodeToString(req.Image))

	parts := []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(req.Prompt),
		openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL:    url,
			Detail: "high",
		}),
	}

	resp, err := c.chat.New(ctx, openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(c.model),
		MaxTokens:   openai.Int(1000),
		Temperature: openai.Float(vision.DefaultTemperature),

		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(parts),
		},
	})

	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion")
	}

	return resp.Choices[0].Message.Content, nil
}
