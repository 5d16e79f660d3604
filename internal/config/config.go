package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"fastlookup/internal/vectorstore"
)

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	BatchSize   int    `yaml:"batch_size"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// ChunkerConfig configures how source text is split into passages.
// ChunkSize and Overlap are in runes and apply to the window chunker.
// The overlaps are pointers so an explicit 0 is kept rather than defaulted.
type ChunkerConfig struct {
	Type              string `yaml:"type"`
	ChunkSize         int    `yaml:"chunk_size"`
	Overlap           *int   `yaml:"overlap"`
	SentencesPerChunk int    `yaml:"sentences_per_chunk"`
	OverlapSentences  *int   `yaml:"overlap_sentences"`
}

// OverlapRunes returns the window overlap, 0 when unset.
func (c ChunkerConfig) OverlapRunes() int { return deref(c.Overlap) }

// OverlapSentenceCount returns the sentence overlap, 0 when unset.
func (c ChunkerConfig) OverlapSentenceCount() int { return deref(c.OverlapSentences) }

// Int returns a pointer to v, for building configs in code.
func Int(v int) *int { return &v }

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// IndexConfig configures passage retrieval.
type IndexConfig struct {
	Metric string `yaml:"metric"`
	TopK   int    `yaml:"top_k"`
}

// GeneratorConfig selects the generative model provider.
type GeneratorConfig struct {
	Type        string `yaml:"type"`
	Model       string `yaml:"model"`
	BaseURL     string `yaml:"base_url,omitempty"`
	APIKeyEnv   string `yaml:"api_key_env"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// HighlightsConfig selects the highlight store backend.
type HighlightsConfig struct {
	Type string `yaml:"type"`
	Path string `yaml:"path"`
}

// ReaderConfig configures the terminal reader.
type ReaderConfig struct {
	PageSize    int `yaml:"page_size"`
	RecapWindow int `yaml:"recap_window"`
	// SummarySentences is the length of the header blurb.
	SummarySentences int `yaml:"summary_sentences"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Chunker    ChunkerConfig    `yaml:"chunker"`
	Embedder   EmbedderConfig   `yaml:"embedder"`
	Index      IndexConfig      `yaml:"index"`
	Generator  GeneratorConfig  `yaml:"generator"`
	Server     ServerConfig     `yaml:"server"`
	Highlights HighlightsConfig `yaml:"highlights"`
	Reader     ReaderConfig     `yaml:"reader"`
	Log        LogConfig        `yaml:"log"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/fastlookup/config.yaml.
// If neither exists, it writes defaults to ~/.config/fastlookup/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate rejects unknown implementation names and impossible sizes.
func (c *AppConfig) Validate() error {
	var errs []error
	switch c.Chunker.Type {
	case "window", "sentence":
	default:
		errs = append(errs, fmt.Errorf("chunker.type: unknown %q", c.Chunker.Type))
	}
	overlap := c.Chunker.OverlapRunes()
	if c.Chunker.ChunkSize < 0 || overlap < 0 || c.Chunker.OverlapSentenceCount() < 0 {
		errs = append(errs, errors.New("chunker: sizes and overlaps must not be negative"))
	}
	if overlap >= c.Chunker.ChunkSize && c.Chunker.ChunkSize > 0 {
		errs = append(errs, fmt.Errorf("chunker: overlap %d must be smaller than chunk_size %d", overlap, c.Chunker.ChunkSize))
	}
	switch c.Embedder.Type {
	case "tfidf":
	case "openai":
		if c.Embedder.OpenAI == nil {
			errs = append(errs, errors.New("embedder.openai: section required for type openai"))
		}
	default:
		errs = append(errs, fmt.Errorf("embedder.type: unknown %q", c.Embedder.Type))
	}
	if _, err := vectorstore.ParseMetric(c.Index.Metric); err != nil {
		errs = append(errs, fmt.Errorf("index.metric: %w", err))
	}
	if c.Index.TopK < 0 {
		errs = append(errs, errors.New("index.top_k must not be negative"))
	}
	switch c.Generator.Type {
	case "gemini", "openai", "anthropic":
	default:
		errs = append(errs, fmt.Errorf("generator.type: unknown %q", c.Generator.Type))
	}
	if c.Generator.MaxRetries < 0 {
		errs = append(errs, errors.New("generator.max_retries must not be negative"))
	}
	switch c.Highlights.Type {
	case "memory":
	case "sqlite", "bolt":
		if c.Highlights.Path == "" {
			errs = append(errs, fmt.Errorf("highlights.path: required for type %s", c.Highlights.Type))
		}
	default:
		errs = append(errs, fmt.Errorf("highlights.type: unknown %q", c.Highlights.Type))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "fastlookup", "config.yaml"), nil
}

func defaultHighlightsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "highlights.db"
	}
	return filepath.Join(home, ".config", "fastlookup", "highlights.db")
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Chunker.Type == "" {
		cfg.Chunker.Type = "window"
	}
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 1000
	}
	if cfg.Chunker.Overlap == nil {
		cfg.Chunker.Overlap = Int(cfg.Chunker.ChunkSize / 2)
	}
	if cfg.Chunker.SentencesPerChunk == 0 {
		cfg.Chunker.SentencesPerChunk = 5
	}
	if cfg.Chunker.OverlapSentences == nil {
		cfg.Chunker.OverlapSentences = Int(1)
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "tfidf"
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI != nil {
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
		if cfg.Embedder.OpenAI.BatchSize == 0 {
			cfg.Embedder.OpenAI.BatchSize = 32
		}
	}
	if cfg.Index.Metric == "" {
		cfg.Index.Metric = "cosine"
	}
	if cfg.Index.TopK == 0 {
		cfg.Index.TopK = vectorstore.DefaultTopK
	}
	if cfg.Generator.Type == "" {
		cfg.Generator.Type = "gemini"
	}
	if cfg.Generator.APIKeyEnv == "" {
		switch cfg.Generator.Type {
		case "openai":
			cfg.Generator.APIKeyEnv = "OPENAI_API_KEY"
		case "anthropic":
			cfg.Generator.APIKeyEnv = "ANTHROPIC_API_KEY"
		default:
			cfg.Generator.APIKeyEnv = "GOOGLE_API_KEY"
		}
	}
	if cfg.Generator.Model == "" {
		switch cfg.Generator.Type {
		case "openai":
			cfg.Generator.Model = "gpt-4o-mini"
		case "anthropic":
			cfg.Generator.Model = "claude-3-5-haiku-latest"
		default:
			cfg.Generator.Model = "gemini-2.0-flash"
		}
	}
	if cfg.Generator.TimeoutSecs == 0 {
		cfg.Generator.TimeoutSecs = 60
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":5000"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.Highlights.Type == "" {
		cfg.Highlights.Type = "sqlite"
	}
	if cfg.Highlights.Path == "" && cfg.Highlights.Type != "memory" {
		cfg.Highlights.Path = defaultHighlightsPath()
	}
	if cfg.Reader.PageSize == 0 {
		cfg.Reader.PageSize = 2000
	}
	if cfg.Reader.RecapWindow == 0 {
		cfg.Reader.RecapWindow = 4000
	}
	if cfg.Reader.SummarySentences == 0 {
		cfg.Reader.SummarySentences = 3
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
