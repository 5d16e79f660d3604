// Package anthropic generates text through the Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"fastlookup/internal/domain"
	"fastlookup/internal/generation"
)

type Config struct {
	BaseURL   string
	APIKeyEnv string
	APIKey    string
	Model     string
	Timeout   time.Duration
}

type Client struct {
	client sdk.Client
	model  string
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "ANTHROPIC_API_KEY"
	}
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		key = strings.TrimSpace(os.Getenv(cfg.APIKeyEnv))
	}
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = "claude-3-5-haiku-latest"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	opts := []option.RequestOption{
		option.WithAPIKey(key),
		option.WithRequestTimeout(cfg.Timeout),
		option.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	return &Client{client: sdk.NewClient(opts...), model: cfg.Model}, nil
}

func (c *Client) Name() string { return "anthropic/" + c.model }

func (c *Client) Generate(ctx context.Context, prompt string, sampling domain.Sampling) (string, error) {
	maxTokens := int64(sampling.MaxOutputTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:       sdk.Model(c.model),
		MaxTokens:   maxTokens,
		Temperature: sdk.Float(sampling.Temperature),
		Messages:    []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(prompt))},
	})
	if err != nil {
		err = fmt.Errorf("anthropic messages: %w", err)
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) && generation.PermanentStatus(apiErr.StatusCode) {
			return "", generation.Permanent(err)
		}
		return "", err
	}
	var sb strings.Builder
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(sdk.TextBlock); ok {
			sb.WriteString(tb.Text)
		}
	}
	return sb.String(), nil
}

var _ domain.Generator = (*Client)(nil)
