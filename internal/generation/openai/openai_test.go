package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fastlookup/internal/domain"
	"fastlookup/internal/generation"
)

func TestGenerate(t *testing.T) {
	var req map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-test",
"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Alice met the dragon."}}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, APIKey: "sk-test", Model: "gpt-test"})
	require.NoError(t, err)
	out, err := c.Generate(context.Background(), "who did Alice meet", domain.Sampling{Temperature: 0.5, MaxOutputTokens: 150})
	require.NoError(t, err)
	assert.Equal(t, "Alice met the dragon.", out)

	assert.Equal(t, "gpt-test", req["model"])
	assert.InDelta(t, 0.5, req["temperature"], 1e-9)
	assert.InDelta(t, 150, req["max_completion_tokens"], 1e-9)
	msgs, ok := req["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 1)
	first := msgs[0].(map[string]any)
	assert.Equal(t, "user", first["role"])
	assert.Equal(t, "who did Alice meet", first["content"])
}

func TestGenerate_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, APIKey: "sk-test"})
	require.NoError(t, err)
	_, err = c.Generate(context.Background(), "p", domain.Sampling{})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, generation.ErrPermanent)
}

func TestGenerate_ClientErrorIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, APIKey: "sk-test"})
	require.NoError(t, err)
	_, err = c.Generate(context.Background(), "p", domain.Sampling{})
	assert.ErrorIs(t, err, generation.ErrPermanent)
	assert.ErrorContains(t, err, "openai chat completion")
}

func TestNewClient_MissingKey(t *testing.T) {
	t.Setenv("FASTLOOKUP_TEST_NO_KEY", "")
	_, err := NewClient(Config{APIKeyEnv: "FASTLOOKUP_TEST_NO_KEY"})
	assert.ErrorContains(t, err, "FASTLOOKUP_TEST_NO_KEY")
}
