package embedding

import (
	"context"
	"errors"
	"fmt"

	"fastlookup/internal/domain"
)

var (
	ErrNotFitted     = errors.New("embedder not fitted")
	ErrEmptyCorpus   = errors.New("empty corpus")
	ErrCountMismatch = errors.New("embedding count mismatch")
)

// Fitter is implemented by embedders whose vector space depends on a corpus.
// Fit must not modify the receiver; it returns a new embedder fitted on corpus.
type Fitter interface {
	Fit(ctx context.Context, corpus []string) (domain.Embedder, error)
}

// EmbedAll embeds texts with one batch call and checks the result count.
func EmbedAll(ctx context.Context, emb domain.Embedder, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vecs, err := emb.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%s embed batch: %w", emb.Name(), err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("%s: got %d vectors for %d texts: %w", emb.Name(), len(vecs), len(texts), ErrCountMismatch)
	}
	return vecs, nil
}
