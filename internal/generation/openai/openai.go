// Package openai generates text through an OpenAI-compatible Chat Completions API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

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
		cfg.APIKeyEnv = "OPENAI_API_KEY"
	}
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		key = strings.TrimSpace(os.Getenv(cfg.APIKeyEnv))
	}
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	// Retries belong to generation.Client, so the SDK makes one attempt.
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

func (c *Client) Name() string { return "openai/" + c.model }

func (c *Client) Generate(ctx context.Context, prompt string, sampling domain.Sampling) (string, error) {
	params := sdk.ChatCompletionNewParams{
		Model:       sdk.ChatModel(c.model),
		Messages:    []sdk.ChatCompletionMessageParamUnion{sdk.UserMessage(prompt)},
		Temperature: sdk.Float(sampling.Temperature),
	}
	if sampling.MaxOutputTokens > 0 {
		params.MaxCompletionTokens = sdk.Int(int64(sampling.MaxOutputTokens))
	}
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		err = fmt.Errorf("openai chat completion: %w", err)
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) && generation.PermanentStatus(apiErr.StatusCode) {
			return "", generation.Permanent(err)
		}
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

var _ domain.Generator = (*Client)(nil)
