package generation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fastlookup/internal/domain"
)

type scriptedGenerator struct {
	replies  []string
	errs     []error
	panicMsg string
	calls    int
	prompts  []string
	sampling []domain.Sampling
}

func (g *scriptedGenerator) Name() string { return "scripted" }

func (g *scriptedGenerator) Generate(_ context.Context, prompt string, s domain.Sampling) (string, error) {
	i := g.calls
	g.calls++
	g.prompts = append(g.prompts, prompt)
	g.sampling = append(g.sampling, s)
	if g.panicMsg != "" {
		panic(g.panicMsg)
	}
	var err error
	if i < len(g.errs) {
		err = g.errs[i]
	}
	if err != nil {
		return "", err
	}
	if i < len(g.replies) {
		return g.replies[i], nil
	}
	return "", nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noSleep(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestNewClient_NilGenerator(t *testing.T) {
	_, err := NewClient(nil, Options{})
	assert.ErrorIs(t, err, ErrNoGenerator)
}

func TestClient_Success(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{"The dragon is Smaug."}}
	c, err := NewClient(gen, Options{Logger: quietLogger()})
	require.NoError(t, err)

	s := domain.Sampling{Temperature: 0.5, MaxOutputTokens: 150}
	res := c.Generate(context.Background(), "who is the dragon", s)
	require.True(t, res.OK())
	assert.Equal(t, "The dragon is Smaug.", res.String())
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, []string{"who is the dragon"}, gen.prompts)
	assert.Equal(t, []domain.Sampling{s}, gen.sampling)
}

func TestClient_FailureBecomesFallback(t *testing.T) {
	cases := []struct {
		name string
		gen  *scriptedGenerator
		want error
	}{
		{"transport error", &scriptedGenerator{errs: []error{errors.New("connection refused")}}, nil},
		{"empty text", &scriptedGenerator{replies: []string{"  \n"}}, ErrEmptyResponse},
		{"panic", &scriptedGenerator{panicMsg: "boom"}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := NewClient(tc.gen, Options{Logger: quietLogger()})
			require.NoError(t, err)
			res := c.Generate(context.Background(), "p", domain.Sampling{})
			require.Error(t, res.Err)
			if tc.want != nil {
				assert.ErrorIs(t, res.Err, tc.want)
			}
			assert.False(t, res.OK())
			assert.Equal(t, FallbackMessage, res.String())
			assert.Equal(t, 1, tc.gen.calls, "no retries by default")
		})
	}
}

func TestClient_Retries(t *testing.T) {
	gen := &scriptedGenerator{
		errs:    []error{errors.New("503"), errors.New("503"), nil},
		replies: []string{"", "", "ok"},
	}
	var delays []time.Duration
	c, err := NewClient(gen, Options{MaxRetries: 3, Logger: quietLogger(), sleep: noSleep(&delays)})
	require.NoError(t, err)

	res := c.Generate(context.Background(), "p", domain.Sampling{})
	require.True(t, res.OK())
	assert.Equal(t, "ok", res.Text)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, []time.Duration{200 * time.Millisecond, 400 * time.Millisecond}, delays)
}

func TestClient_RetriesExhausted(t *testing.T) {
	boom := errors.New("always down")
	gen := &scriptedGenerator{errs: []error{boom, boom, boom}}
	var delays []time.Duration
	c, err := NewClient(gen, Options{MaxRetries: 2, Logger: quietLogger(), sleep: noSleep(&delays)})
	require.NoError(t, err)

	res := c.Generate(context.Background(), "p", domain.Sampling{})
	assert.ErrorIs(t, res.Err, boom)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, FallbackMessage, res.String())
}

func TestClient_PermanentFailureSkipsRetries(t *testing.T) {
	cases := []struct {
		name string
		gen  *scriptedGenerator
	}{
		{"marked permanent", &scriptedGenerator{errs: []error{Permanent(errors.New("400 bad request")), nil}, replies: []string{"", "ok"}}},
		{"empty text", &scriptedGenerator{replies: []string{"", "ok"}}},
		{"panic", &scriptedGenerator{panicMsg: "boom"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var delays []time.Duration
			c, err := NewClient(tc.gen, Options{MaxRetries: 3, Logger: quietLogger(), sleep: noSleep(&delays)})
			require.NoError(t, err)

			res := c.Generate(context.Background(), "p", domain.Sampling{})
			assert.ErrorIs(t, res.Err, ErrPermanent)
			assert.Equal(t, 1, res.Attempts)
			assert.Equal(t, 1, tc.gen.calls)
			assert.Empty(t, delays)
			assert.Equal(t, FallbackMessage, res.String())
		})
	}
}

func TestPermanent(t *testing.T) {
	assert.NoError(t, Permanent(nil))

	base := errors.New("blocked")
	err := Permanent(base)
	assert.ErrorIs(t, err, base)
	assert.ErrorIs(t, err, ErrPermanent)
	assert.Equal(t, "blocked", err.Error())
	assert.Same(t, err, Permanent(err))

	assert.True(t, PermanentStatus(400))
	assert.True(t, PermanentStatus(403))
	assert.False(t, PermanentStatus(408))
	assert.False(t, PermanentStatus(429))
	assert.False(t, PermanentStatus(500))
	assert.False(t, PermanentStatus(529))
}

func TestClient_CanceledDuringBackoff(t *testing.T) {
	gen := &scriptedGenerator{errs: []error{errors.New("down"), nil}, replies: []string{"", "late"}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c, err := NewClient(gen, Options{MaxRetries: 1, Logger: quietLogger()})
	require.NoError(t, err)

	res := c.Generate(ctx, "p", domain.Sampling{})
	assert.False(t, res.OK())
	assert.Equal(t, 1, gen.calls)
}

func TestRetryDelay(t *testing.T) {
	assert.Equal(t, 200*time.Millisecond, retryDelay(0))
	assert.Equal(t, 800*time.Millisecond, retryDelay(2))
	assert.Equal(t, 5*time.Second, retryDelay(5))
	assert.Equal(t, 5*time.Second, retryDelay(40))
	assert.Equal(t, 200*time.Millisecond, retryDelay(-3))
}
