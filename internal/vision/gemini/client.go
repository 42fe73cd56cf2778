package gemini

import (
	"context"
	"errors"

	"github.com/orderlens/orderlens/internal/vision"

	"google.golang.org/genai"
)

var _ vision.Provider = (*Client)(nil)

type Client struct {
	*Config
	genai *genai.Client
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
		cfg.model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:     cfg.token,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.client,
	})

	if err != nil {
		return nil, err
	}

	return &Client{
		Config: cfg,
		genai:  client,
	}, nil
}

func (c *Client) Name() string {
	return "gemini"
}

func (c *Client) Extract(ctx context.Context, req vision.Request) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromBytes(req.Image, req.MIME),
		genai.NewPartFromText(req.Prompt),
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	resp, err := c.genai.Models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](vision.DefaultTemperature),
	})

	if err != nil {
		return "", err
	}

	text := resp.Text()

	if text == "" {
		return "", errors.New("empty completion")
	}

	return text, nil
}
