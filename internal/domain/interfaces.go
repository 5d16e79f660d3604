package domain

import "context"

// Passage is a contiguous span of the source text used for retrieval.
// Start and End are rune offsets into the source; End is exclusive.
type Passage struct {
	Index int
	Start int
	End   int
	Text  string
}

// Len returns the passage length in runes.
func (p Passage) Len() int { return p.End - p.Start }

// SearchResult represents a matching passage with a relevance score.
// Higher scores are better regardless of the underlying metric.
type SearchResult struct {
	Passage Passage
	Score   float64
}

// Sampling holds the generation parameters a prompt contract runs with.
type Sampling struct {
	Temperature     float64
	MaxOutputTokens int
}

// Chunker splits a text into passages suitable for retrieval indexing.
type Chunker interface {
	Split(text string) []Passage
}

// Embedder converts free text into a numeric vector representation.
// Query and passage vectors produced by one Embedder share a vector space.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// Generator sends one prompt to a generative model and returns its text.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string, sampling Sampling) (string, error)
}

// Assistant defines the reader-facing operations exposed by the core.
// Every operation resolves to a displayable string.
type Assistant interface {
	Lookup(ctx context.Context, query, sourceText string) string
	Recap(ctx context.Context, recapText string) string
	OpenEnded(ctx context.Context, query, sourceText, currentPageText string) string
}
