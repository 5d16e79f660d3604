// Package generation invokes a generative model and turns every failure into
// a displayable fallback.
package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"fastlookup/internal/domain"
)

// FallbackMessage is shown to the reader whenever generation fails.
const FallbackMessage = "Error: Could not retrieve a response from the model."

var (
	ErrEmptyResponse = errors.New("empty model response")
	ErrNoGenerator   = errors.New("no generator configured")

	// ErrPermanent marks failures that a retry cannot fix.
	ErrPermanent = errors.New("permanent generation failure")
)

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() []error { return []error{e.err, ErrPermanent} }

// Permanent wraps err so that Client does not retry it. errors.Is matches
// both err and ErrPermanent.
func Permanent(err error) error {
	if err == nil || errors.Is(err, ErrPermanent) {
		return err
	}
	return &permanentError{err: err}
}

// PermanentStatus reports whether an HTTP status from a model API should not
// be retried: every 4xx except request timeout and rate limiting.
func PermanentStatus(code int) bool {
	if code == http.StatusRequestTimeout || code == http.StatusTooManyRequests {
		return false
	}
	return code >= 400 && code < 500
}

// Result is the outcome of one generation call.
type Result struct {
	Text     string
	Err      error
	Attempts int
}

// OK reports whether the call produced text.
func (r Result) OK() bool { return r.Err == nil }

// String returns the model text, or FallbackMessage on failure.
func (r Result) String() string {
	if r.Err != nil {
		return FallbackMessage
	}
	return r.Text
}

// Options configures a Client.
type Options struct {
	// MaxRetries is the number of extra attempts after a failure. Zero means
	// a single attempt.
	MaxRetries int
	Logger     *slog.Logger
	// sleep is replaced in tests.
	sleep func(context.Context, time.Duration) error
}

// Client wraps a domain.Generator and never lets its failures escape.
type Client struct {
	gen        domain.Generator
	maxRetries int
	log        *slog.Logger
	sleep      func(context.Context, time.Duration) error
}

func NewClient(gen domain.Generator, opts Options) (*Client, error) {
	if gen == nil {
		return nil, ErrNoGenerator
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.sleep == nil {
		opts.sleep = sleepCtx
	}
	return &Client{gen: gen, maxRetries: opts.MaxRetries, log: opts.Logger, sleep: opts.sleep}, nil
}

// Name returns the wrapped generator's name.
func (c *Client) Name() string { return c.gen.Name() }

// Generate sends prompt with the given sampling parameters.
func (c *Client) Generate(ctx context.Context, prompt string, sampling domain.Sampling) Result {
	var res Result
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, retryDelay(attempt-1)); err != nil {
				break
			}
		}
		res.Attempts++
		text, err := c.call(ctx, prompt, sampling)
		if err == nil {
			res.Text, res.Err = text, nil
			return res
		}
		res.Err = err
		c.log.Warn("generation failed", "generator", c.gen.Name(), "attempt", res.Attempts, "err", err)
		if errors.Is(err, ErrPermanent) {
			break
		}
	}
	return res
}

func (c *Client) call(ctx context.Context, prompt string, sampling domain.Sampling) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = Permanent(fmt.Errorf("%s panicked: %v", c.gen.Name(), r))
		}
	}()
	text, err = c.gen.Generate(ctx, prompt, sampling)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", Permanent(ErrEmptyResponse)
	}
	return text, nil
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 5 {
		return 5 * time.Second
	}
	base := 200 * time.Millisecond
	// exponential backoff capped at 5s
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
