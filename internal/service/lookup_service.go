package service

import (
	"context"
	"log/slog"
	"time"

	"fastlookup/internal/chunker"
	"fastlookup/internal/domain"
	"fastlookup/internal/embedding/tfidf"
	"fastlookup/internal/generation"
	"fastlookup/internal/prompt"
	"fastlookup/internal/vectorstore"
	"fastlookup/internal/vectorstore/memory"
)

// Options configures a LookupService. Zero values select the defaults: a
// window chunker, an unfitted TF-IDF embedder, cosine scoring and
// vectorstore.DefaultTopK passages.
type Options struct {
	Chunker  domain.Chunker
	Embedder domain.Embedder
	Metric   vectorstore.Metric
	TopK     int
	Logger   *slog.Logger
}

// LookupService answers reader questions against the text read so far.
// It keeps no per-request state, so one value serves concurrent requests.
type LookupService struct {
	chunker  domain.Chunker
	embedder domain.Embedder
	gen      *generation.Client
	metric   vectorstore.Metric
	topK     int
	log      *slog.Logger
}

func NewLookupService(gen *generation.Client, opts Options) (*LookupService, error) {
	if gen == nil {
		return nil, generation.ErrNoGenerator
	}
	if opts.Chunker == nil {
		opts.Chunker = chunker.NewWindowChunker(chunker.DefaultChunkSize, chunker.DefaultOverlap)
	}
	if opts.Embedder == nil {
		opts.Embedder = tfidf.NewEmbedder()
	}
	if opts.TopK <= 0 {
		opts.TopK = vectorstore.DefaultTopK
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &LookupService{
		chunker:  opts.Chunker,
		embedder: opts.Embedder,
		gen:      gen,
		metric:   opts.Metric,
		topK:     opts.TopK,
		log:      opts.Logger,
	}, nil
}

// Lookup retrieves the passages of sourceText most similar to query and asks
// the model to answer from them alone. If retrieval fails the model is not
// called and the fallback message is returned.
func (s *LookupService) Lookup(ctx context.Context, query, sourceText string) string {
	start := time.Now()
	passages := s.chunker.Split(sourceText)
	results, err := s.retrieve(ctx, query, passages)
	if err != nil {
		s.log.Error("lookup retrieval failed",
			"passages", len(passages), "embedder", s.embedder.Name(), "err", err,
			"duration", time.Since(start))
		return generation.FallbackMessage
	}
	res := s.gen.Generate(ctx, prompt.ComposeLookup(query, prompt.JoinPassages(results)), prompt.Lookup.Sampling())
	s.logResult("lookup", start, res, "passages", len(passages), "retrieved", len(results))
	return res.String()
}

// Recap summarizes recapText.
func (s *LookupService) Recap(ctx context.Context, recapText string) string {
	start := time.Now()
	res := s.gen.Generate(ctx, prompt.ComposeRecap(recapText), prompt.Recap.Sampling())
	s.logResult("recap", start, res, "chars", len(recapText))
	return res.String()
}

// OpenEnded answers an interpretive question using the whole source text and
// the page the reader is on.
func (s *LookupService) OpenEnded(ctx context.Context, query, sourceText, currentPageText string) string {
	start := time.Now()
	p := prompt.ComposeOpenEnded(query, sourceText, currentPageText)
	res := s.gen.Generate(ctx, p, prompt.OpenEnded.Sampling())
	s.logResult("open_ended", start, res, "chars", len(sourceText), "page_chars", len(currentPageText))
	return res.String()
}

func (s *LookupService) retrieve(ctx context.Context, query string, passages []domain.Passage) ([]domain.SearchResult, error) {
	ix, err := memory.Build(ctx, passages, s.embedder, memory.WithMetric(s.metric))
	if err != nil {
		return nil, err
	}
	return ix.Query(ctx, query, s.topK)
}

func (s *LookupService) logResult(op string, start time.Time, res generation.Result, attrs ...any) {
	attrs = append(attrs, "op", op, "generator", s.gen.Name(), "attempts", res.Attempts, "duration", time.Since(start))
	if res.Err != nil {
		s.log.Warn("request answered with fallback", append(attrs, "err", res.Err)...)
		return
	}
	s.log.Info("request answered", attrs...)
}

var _ domain.Assistant = (*LookupService)(nil)
