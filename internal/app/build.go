// Package app assembles the core components from configuration for the
// fastlookup binaries.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fastlookup/internal/chunker"
	"fastlookup/internal/config"
	"fastlookup/internal/domain"
	"fastlookup/internal/embedding/openai"
	"fastlookup/internal/embedding/tfidf"
	"fastlookup/internal/generation"
	"fastlookup/internal/generation/anthropic"
	"fastlookup/internal/generation/gemini"
	genopenai "fastlookup/internal/generation/openai"
	"fastlookup/internal/service"
	"fastlookup/internal/vectorstore"
)

func NewChunker(cfg config.ChunkerConfig) (domain.Chunker, error) {
	switch cfg.Type {
	case "window", "":
		return chunker.NewWindowChunker(cfg.ChunkSize, cfg.OverlapRunes()), nil
	case "sentence":
		return chunker.NewSentenceChunker(cfg.SentencesPerChunk, cfg.OverlapSentenceCount()), nil
	default:
		return nil, fmt.Errorf("unknown chunker: %s", cfg.Type)
	}
}

func NewEmbedder(cfg config.EmbedderConfig) (domain.Embedder, error) {
	switch cfg.Type {
	case "tfidf", "":
		return tfidf.NewEmbedder(), nil
	case "openai":
		if cfg.OpenAI == nil {
			return nil, errors.New("openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:   cfg.OpenAI.BaseURL,
			APIKeyEnv: cfg.OpenAI.APIKeyEnv,
			Model:     cfg.OpenAI.Model,
			Timeout:   time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
			BatchSize: cfg.OpenAI.BatchSize,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Type)
	}
}

func NewGenerator(cfg config.GeneratorConfig) (domain.Generator, error) {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	switch cfg.Type {
	case "gemini", "":
		return gemini.NewClient(gemini.Config{
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			APIKeyEnv: cfg.APIKeyEnv,
			Timeout:   timeout,
		})
	case "openai":
		return genopenai.NewClient(genopenai.Config{
			BaseURL:   cfg.BaseURL,
			APIKeyEnv: cfg.APIKeyEnv,
			Model:     cfg.Model,
			Timeout:   timeout,
		})
	case "anthropic":
		return anthropic.NewClient(anthropic.Config{
			BaseURL:   cfg.BaseURL,
			APIKeyEnv: cfg.APIKeyEnv,
			Model:     cfg.Model,
			Timeout:   timeout,
		})
	default:
		return nil, fmt.Errorf("unknown generator: %s", cfg.Type)
	}
}

// NewService builds the lookup service described by cfg.
func NewService(cfg *config.AppConfig, logger *slog.Logger) (*service.LookupService, error) {
	ch, err := NewChunker(cfg.Chunker)
	if err != nil {
		return nil, err
	}
	emb, err := NewEmbedder(cfg.Embedder)
	if err != nil {
		return nil, err
	}
	metric, err := vectorstore.ParseMetric(cfg.Index.Metric)
	if err != nil {
		return nil, err
	}
	gen, err := NewGenerator(cfg.Generator)
	if err != nil {
		return nil, fmt.Errorf("%s generator: %w", cfg.Generator.Type, err)
	}
	client, err := generation.NewClient(gen, generation.Options{
		MaxRetries: cfg.Generator.MaxRetries,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	return service.NewLookupService(client, service.Options{
		Chunker:  ch,
		Embedder: emb,
		Metric:   metric,
		TopK:     cfg.Index.TopK,
		Logger:   logger,
	})
}
