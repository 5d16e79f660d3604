// Package gemini calls the Google Generative Language generateContent API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"fastlookup/internal/domain"
	"fastlookup/internal/generation"
)

// Config configures the Gemini client.
type Config struct {
	BaseURL   string
	Model     string
	APIKeyEnv string
	APIKey    string
	Timeout   time.Duration
	// KeyInHeader sends the key as x-goog-api-key instead of the key query
	// parameter.
	KeyInHeader bool
}

type Client struct {
	hc          *http.Client
	url         string
	model       string
	apiKey      string
	keyInHeader bool
}

var ErrBlocked = errors.New("prompt blocked")

func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "GOOGLE_API_KEY"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	key := cfg.APIKey
	if key == "" {
		key = os.Getenv(cfg.APIKeyEnv)
	}
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	endpoint := strings.TrimRight(cfg.BaseURL, "/") + "/v1beta/models/" + url.PathEscape(cfg.Model) + ":generateContent"
	return &Client{
		hc:          &http.Client{Timeout: cfg.Timeout},
		url:         endpoint,
		model:       cfg.Model,
		apiKey:      key,
		keyInHeader: cfg.KeyInHeader,
	}, nil
}

func (c *Client) Name() string { return "gemini/" + c.model }

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type request struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type response struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

// Generate sends a single-turn prompt and returns the first candidate's text.
func (c *Client) Generate(ctx context.Context, prompt string, sampling domain.Sampling) (string, error) {
	body, err := json.Marshal(request{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     sampling.Temperature,
			MaxOutputTokens: sampling.MaxOutputTokens,
		},
	})
	if err != nil {
		return "", err
	}
	u := c.url
	if !c.keyInHeader {
		u += "?key=" + url.QueryEscape(c.apiKey)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.keyInHeader {
		req.Header.Set("x-goog-api-key", c.apiKey)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		err := fmt.Errorf("gemini upstream %d: %s", resp.StatusCode, strings.TrimSpace(string(slurp)))
		if generation.PermanentStatus(resp.StatusCode) {
			return "", generation.Permanent(err)
		}
		return "", err
	}
	var gr response
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return "", fmt.Errorf("gemini decode: %w", err)
	}
	if gr.PromptFeedback != nil && gr.PromptFeedback.BlockReason != "" {
		return "", generation.Permanent(fmt.Errorf("%w: %s", ErrBlocked, gr.PromptFeedback.BlockReason))
	}
	if len(gr.Candidates) == 0 {
		return "", errors.New("gemini: no candidates")
	}
	var sb strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

var _ domain.Generator = (*Client)(nil)
