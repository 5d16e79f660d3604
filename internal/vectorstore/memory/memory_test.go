package memory

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fastlookup/internal/chunker"
	"fastlookup/internal/domain"
	"fastlookup/internal/embedding"
	"fastlookup/internal/embedding/tfidf"
	"fastlookup/internal/vectorstore"
)

// keywordEmbedder counts occurrences of each vocabulary word.
type keywordEmbedder struct {
	vocab   []string
	batches int
}

func (e *keywordEmbedder) Name() string   { return "keyword" }
func (e *keywordEmbedder) Dimension() int { return len(e.vocab) }

func (e *keywordEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	lower := strings.ToLower(text)
	v := make([]float64, len(e.vocab))
	for i, w := range e.vocab {
		v[i] = float64(strings.Count(lower, w))
	}
	return v, nil
}

func (e *keywordEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	e.batches++
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i], _ = e.Embed(ctx, t)
	}
	return out, nil
}

type failingEmbedder struct{ err error }

func (e failingEmbedder) Name() string   { return "failing" }
func (e failingEmbedder) Dimension() int { return 0 }
func (e failingEmbedder) Embed(context.Context, string) ([]float64, error) {
	return nil, e.err
}
func (e failingEmbedder) EmbedBatch(context.Context, []string) ([][]float64, error) {
	return nil, e.err
}

// constEmbedder maps every text to the same vector.
type constEmbedder struct{}

func (constEmbedder) Name() string   { return "const" }
func (constEmbedder) Dimension() int { return 2 }
func (constEmbedder) Embed(context.Context, string) ([]float64, error) {
	return []float64{1, 1}, nil
}
func (c constEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i], _ = c.Embed(ctx, texts[i])
	}
	return out, nil
}

func passages(texts ...string) []domain.Passage {
	out := make([]domain.Passage, len(texts))
	off := 0
	for i, t := range texts {
		n := len([]rune(t))
		out[i] = domain.Passage{Index: i, Start: off, End: off + n, Text: t}
		off += n
	}
	return out
}

func TestQuery_DragonScenario(t *testing.T) {
	ctx := context.Background()
	ps := passages("Alice walked home alone.", "Alice met the dragon in the cave.", "The cave was cold.")
	ix, err := Build(ctx, ps, tfidf.NewEmbedder())
	require.NoError(t, err)

	res, err := ix.Query(ctx, "dragon", 2)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Contains(t, res[0].Passage.Text, "dragon")
	assert.NotContains(t, res[1].Passage.Text, "dragon")
	assert.Greater(t, res[0].Score, res[1].Score)
}

func TestQuery_ChunkedSource(t *testing.T) {
	ctx := context.Background()
	text := "Alice met the dragon in the cave. The dragon was ancient."
	ps := chunker.NewWindowChunker(1000, 500).Split(text)
	require.Len(t, ps, 1)
	ix, err := Build(ctx, ps, tfidf.NewEmbedder())
	require.NoError(t, err)
	res, err := ix.Query(ctx, "dragon", 2)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, text, res[0].Passage.Text)
}

func TestQuery_TopKBoundAndOrder(t *testing.T) {
	ctx := context.Background()
	emb := &keywordEmbedder{vocab: []string{"dragon", "cave"}}
	ps := passages(
		"cave",
		"dragon dragon dragon",
		"nothing here",
		"dragon cave",
		"dragon",
	)
	ix, err := Build(ctx, ps, emb, WithMetric(vectorstore.Dot))
	require.NoError(t, err)
	assert.Equal(t, 1, emb.batches, "passages are embedded in one batch")

	res, err := ix.Query(ctx, "dragon", 3)
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, "dragon dragon dragon", res[0].Passage.Text)
	for i := 1; i < len(res); i++ {
		assert.GreaterOrEqual(t, res[i-1].Score, res[i].Score)
	}
	// "dragon cave" and "dragon" tie on dot score; the earlier passage wins.
	assert.Equal(t, "dragon cave", res[1].Passage.Text)
	assert.Equal(t, "dragon", res[2].Passage.Text)
}

func TestQuery_FewerPassagesThanK(t *testing.T) {
	ctx := context.Background()
	ix, err := Build(ctx, passages("one dragon", "two", "three dragon dragon"), &keywordEmbedder{vocab: []string{"dragon"}}, WithMetric(vectorstore.Dot))
	require.NoError(t, err)
	res, err := ix.Query(ctx, "dragon", 10)
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, []string{"three dragon dragon", "one dragon", "two"},
		[]string{res[0].Passage.Text, res[1].Passage.Text, res[2].Passage.Text})
}

func TestQuery_TieBreakByStart(t *testing.T) {
	ctx := context.Background()
	ps := []domain.Passage{
		{Index: 2, Start: 20, End: 30, Text: "c"},
		{Index: 0, Start: 0, End: 10, Text: "a"},
		{Index: 1, Start: 10, End: 20, Text: "b"},
	}
	ix, err := Build(ctx, ps, constEmbedder{})
	require.NoError(t, err)
	for _, k := range []int{1, 2, 3, 0} {
		res, err := ix.Query(ctx, "anything", k)
		require.NoError(t, err)
		for i, r := range res {
			assert.Equal(t, i*10, r.Passage.Start, "k=%d rank %d", k, i)
		}
	}
}

func TestQuery_DefaultK(t *testing.T) {
	ctx := context.Background()
	texts := make([]string, 25)
	for i := range texts {
		texts[i] = strings.Repeat("dragon ", i%4)
	}
	ix, err := Build(ctx, passages(texts...), &keywordEmbedder{vocab: []string{"dragon"}})
	require.NoError(t, err)
	res, err := ix.Query(ctx, "dragon", 0)
	require.NoError(t, err)
	assert.Len(t, res, vectorstore.DefaultTopK)
}

func TestBuild_Empty(t *testing.T) {
	ctx := context.Background()
	ix, err := Build(ctx, nil, failingEmbedder{err: errors.New("unused")})
	require.NoError(t, err)
	assert.Equal(t, 0, ix.Len())
	res, err := ix.Query(ctx, "dragon", 10)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestBuild_EmbedderFailure(t *testing.T) {
	boom := errors.New("embedding service down")
	_, err := Build(context.Background(), passages("a", "b"), failingEmbedder{err: boom})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestBuild_DoesNotMutateFitter(t *testing.T) {
	ctx := context.Background()
	emb := tfidf.NewEmbedder()
	_, err := Build(ctx, passages("Alice met the dragon."), emb)
	require.NoError(t, err)
	_, err = emb.Embed(ctx, "dragon")
	assert.ErrorIs(t, err, embedding.ErrNotFitted)
}

func TestBuild_IndependentIndices(t *testing.T) {
	ctx := context.Background()
	emb := tfidf.NewEmbedder()
	a, err := Build(ctx, passages("The dragon slept."), emb)
	require.NoError(t, err)
	b, err := Build(ctx, passages("The wizard read a book.", "The wizard left."), emb)
	require.NoError(t, err)

	ra, err := a.Query(ctx, "wizard", 5)
	require.NoError(t, err)
	require.Len(t, ra, 1)
	assert.Equal(t, "The dragon slept.", ra[0].Passage.Text)
	assert.Zero(t, ra[0].Score)

	rb, err := b.Query(ctx, "wizard", 5)
	require.NoError(t, err)
	assert.Len(t, rb, 2)
}
