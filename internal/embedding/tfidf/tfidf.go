package tfidf

import (
	"context"
	"math"
	"sort"

	"fastlookup/internal/domain"
	"fastlookup/internal/embedding"
	"fastlookup/internal/textutil"
)

// Embedder implements a simple TF-IDF vectorizer.
// The zero-corpus value produced by NewEmbedder only knows how to Fit; the
// fitted copy returned by Fit holds the vocabulary and IDF values.
type Embedder struct {
	vocabulary map[string]int
	idf        []float64
	dimension  int
	fitted     bool
}

// NewEmbedder creates an unfitted TF-IDF embedder.
func NewEmbedder() *Embedder {
	return &Embedder{vocabulary: make(map[string]int)}
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "tfidf" }

// Fit builds the vocabulary and IDF values from corpus and returns them as a
// new Embedder. The receiver is left untouched.
func (e *Embedder) Fit(ctx context.Context, corpus []string) (domain.Embedder, error) {
	if len(corpus) == 0 {
		return nil, embedding.ErrEmptyCorpus
	}
	// Build vocabulary and document frequencies
	df := make(map[string]int)
	for _, text := range corpus {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		seen := make(map[string]struct{})
		for _, tok := range textutil.ContentWords(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	// Create stable ordering for vocabulary
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	out := &Embedder{
		vocabulary: make(map[string]int, len(terms)),
		idf:        make([]float64, len(terms)),
		dimension:  len(terms),
		fitted:     true,
	}
	N := float64(len(corpus))
	for i, term := range terms {
		out.vocabulary[term] = i
		// Smoothed IDF
		out.idf[i] = math.Log((1+N)/(1+float64(df[term]))) + 1.0
	}
	return out, nil
}

// Dimension returns the dimensionality of the produced embedding vectors.
func (e *Embedder) Dimension() int { return e.dimension }

// Embed computes the L2-normalized TF-IDF embedding for the given text.
// Texts without known terms map to the zero vector.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if !e.fitted {
		return nil, embedding.ErrNotFitted
	}
	vec := make([]float64, e.dimension)
	tf := make(map[int]int)
	total := 0
	for _, tok := range textutil.ContentWords(text) {
		if idx, ok := e.vocabulary[tok]; ok {
			tf[idx]++
			total++
		}
	}
	if total == 0 {
		return vec, nil
	}
	for idx, count := range tf {
		tfv := float64(count) / float64(total)
		vec[idx] = tfv * e.idf[idx]
	}
	// L2 normalize
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}

// EmbedBatch embeds each text in order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

var (
	_ domain.Embedder  = (*Embedder)(nil)
	_ embedding.Fitter = (*Embedder)(nil)
)
