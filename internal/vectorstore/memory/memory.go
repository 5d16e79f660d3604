package memory

import (
	"container/heap"
	"context"
	"fmt"
	"sort"

	"fastlookup/internal/domain"
	"fastlookup/internal/embedding"
	"fastlookup/internal/vectorstore"
)

// Index is an in-memory similarity index over the passages of one source
// text. It is built for a single request and never modified after Build.
type Index struct {
	embedder domain.Embedder
	metric   vectorstore.Metric
	passages []domain.Passage
	vectors  [][]float64
}

// Option configures Build.
type Option func(*Index)

// WithMetric selects the scoring metric. The default is cosine.
func WithMetric(m vectorstore.Metric) Option {
	return func(ix *Index) { ix.metric = m }
}

// Build embeds every passage once and returns a fresh index. When emb is an
// embedding.Fitter it is first fitted on the passage texts, and the fitted
// embedder is also used for queries.
func Build(ctx context.Context, passages []domain.Passage, emb domain.Embedder, opts ...Option) (*Index, error) {
	ix := &Index{embedder: emb, metric: vectorstore.Cosine}
	for _, o := range opts {
		o(ix)
	}
	if len(passages) == 0 {
		return ix, nil
	}
	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}
	if f, ok := emb.(embedding.Fitter); ok {
		fitted, err := f.Fit(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("fit %s: %w", emb.Name(), err)
		}
		ix.embedder = fitted
	}
	vectors, err := embedding.EmbedAll(ctx, ix.embedder, texts)
	if err != nil {
		return nil, err
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("passage %d: got %d, want %d: %w", i, len(v), dim, vectorstore.ErrDimensionMismatch)
		}
	}
	ix.passages = append([]domain.Passage(nil), passages...)
	ix.vectors = vectors
	return ix, nil
}

// Len returns the number of indexed passages.
func (ix *Index) Len() int { return len(ix.passages) }

// Query embeds text once and returns up to k passages, best first. Equal
// scores are ordered by passage start offset. k <= 0 means DefaultTopK.
func (ix *Index) Query(ctx context.Context, text string, k int) ([]domain.SearchResult, error) {
	if k <= 0 {
		k = vectorstore.DefaultTopK
	}
	if len(ix.passages) == 0 {
		return nil, nil
	}
	q, err := ix.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(q) != len(ix.vectors[0]) {
		return nil, fmt.Errorf("query: got %d, want %d: %w", len(q), len(ix.vectors[0]), vectorstore.ErrDimensionMismatch)
	}
	if k > len(ix.passages) {
		k = len(ix.passages)
	}
	h := make(resultHeap, 0, k)
	for i, v := range ix.vectors {
		r := domain.SearchResult{Passage: ix.passages[i], Score: ix.metric.Score(v, q)}
		if len(h) < k {
			heap.Push(&h, r)
			continue
		}
		if better(r, h[0]) {
			h[0] = r
			heap.Fix(&h, 0)
		}
	}
	results := []domain.SearchResult(h)
	sort.Slice(results, func(i, j int) bool { return better(results[i], results[j]) })
	return results, nil
}

// better reports whether a ranks ahead of b.
func better(a, b domain.SearchResult) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Passage.Start != b.Passage.Start {
		return a.Passage.Start < b.Passage.Start
	}
	return a.Passage.Index < b.Passage.Index
}

// resultHeap keeps the worst retained result at the root.
type resultHeap []domain.SearchResult

func (h resultHeap) Len() int           { return len(h) }
func (h resultHeap) Less(i, j int) bool { return better(h[j], h[i]) }
func (h resultHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *resultHeap) Push(x any)        { *h = append(*h, x.(domain.SearchResult)) }
func (h *resultHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
