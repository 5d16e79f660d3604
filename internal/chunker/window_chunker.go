package chunker

import "fastlookup/internal/domain"

const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 500
)

// WindowChunker splits text into fixed-size rune windows that overlap their
// neighbour by a fixed number of runes.
type WindowChunker struct {
	chunkSize int
	overlap   int
}

func NewWindowChunker(chunkSize, overlap int) *WindowChunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize - 1
	}
	return &WindowChunker{chunkSize: chunkSize, overlap: overlap}
}

// ChunkSize returns the effective window size in runes.
func (c *WindowChunker) ChunkSize() int { return c.chunkSize }

// Overlap returns the effective overlap in runes.
func (c *WindowChunker) Overlap() int { return c.overlap }

// Split returns the passages covering text. Windows start every
// chunkSize-overlap runes; the last one ends at the end of the text.
func (c *WindowChunker) Split(text string) []domain.Passage {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}
	step := c.chunkSize - c.overlap
	passages := make([]domain.Passage, 0, n/step+1)
	for start := 0; ; start += step {
		end := start + c.chunkSize
		if end > n {
			end = n
		}
		passages = append(passages, domain.Passage{
			Index: len(passages),
			Start: start,
			End:   end,
			Text:  string(runes[start:end]),
		})
		if end == n {
			break
		}
	}
	return passages
}
