package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "window", cfg.Chunker.Type)
	assert.Equal(t, 1000, cfg.Chunker.ChunkSize)
	assert.Equal(t, 500, cfg.Chunker.OverlapRunes())
	assert.Equal(t, 1, cfg.Chunker.OverlapSentenceCount())
	assert.Equal(t, "tfidf", cfg.Embedder.Type)
	assert.Equal(t, "cosine", cfg.Index.Metric)
	assert.Equal(t, 10, cfg.Index.TopK)
	assert.Equal(t, "gemini", cfg.Generator.Type)
	assert.Equal(t, "GOOGLE_API_KEY", cfg.Generator.APIKeyEnv)
	assert.Equal(t, 0, cfg.Generator.MaxRetries)
	assert.Equal(t, ":5000", cfg.Server.Addr)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "sqlite", cfg.Highlights.Type)
	assert.NotEmpty(t, cfg.Highlights.Path)
	assert.Equal(t, 4000, cfg.Reader.RecapWindow)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_PartialFileGetsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
chunker:
  chunk_size: 400
  overlap: 100
embedder:
  type: openai
  openai:
    model: text-embedding-3-large
generator:
  type: anthropic
  max_retries: 2
highlights:
  type: memory
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 400, cfg.Chunker.ChunkSize)
	assert.Equal(t, 100, cfg.Chunker.OverlapRunes())
	require.NotNil(t, cfg.Embedder.OpenAI)
	assert.Equal(t, "text-embedding-3-large", cfg.Embedder.OpenAI.Model)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Embedder.OpenAI.APIKeyEnv)
	assert.Equal(t, 32, cfg.Embedder.OpenAI.BatchSize)
	assert.Equal(t, "ANTHROPIC_API_KEY", cfg.Generator.APIKeyEnv)
	assert.Equal(t, "claude-3-5-haiku-latest", cfg.Generator.Model)
	assert.Equal(t, 2, cfg.Generator.MaxRetries)
	assert.Empty(t, cfg.Highlights.Path)
}

func TestLoad_ExplicitZeroOverlapIsKept(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
chunker:
  overlap: 0
  overlap_sentences: 0
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.Chunker.ChunkSize)
	require.NotNil(t, cfg.Chunker.Overlap)
	assert.Equal(t, 0, cfg.Chunker.OverlapRunes())
	require.NotNil(t, cfg.Chunker.OverlapSentences)
	assert.Equal(t, 0, cfg.Chunker.OverlapSentenceCount())
}

func TestLoad_OverlapDefaultsToHalfChunk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chunker: {chunk_size: 300}\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 150, cfg.Chunker.OverlapRunes())
}

func TestLoad_InvalidFile(t *testing.T) {
	cases := map[string]string{
		"bad yaml":         "chunker: [",
		"unknown chunker":  "chunker: {type: paragraph}",
		"overlap too big":  "chunker: {chunk_size: 10, overlap: 10}",
		"unknown metric":   "index: {metric: manhattan}",
		"unknown provider": "generator: {type: llama}",
		"negative retries": "generator: {max_retries: -1}",
		"negative overlap": "chunker: {overlap_sentences: -1}",
		"openai no block":  "embedder: {type: openai}",
		"bad log level":    "log: {level: loud}",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultConfig()
	cfg.Generator.Type = "openai"
	cfg.Generator.Model = "gpt-test"
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(LogConfig{Level: "warn", Format: "json"}, &buf)
	log.Info("hidden")
	log.Warn("shown", "op", "lookup")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "lookup", rec["op"])

	buf.Reset()
	NewLogger(LogConfig{Level: "debug"}, &buf).Debug("text handler")
	assert.Contains(t, buf.String(), "msg=\"text handler\"")
}
