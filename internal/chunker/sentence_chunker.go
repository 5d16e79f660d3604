package chunker

import (
	"regexp"
	"unicode/utf8"

	"fastlookup/internal/domain"
)

// SentenceChunker splits text into sentence-based passages with overlap.
type SentenceChunker struct {
	sentencesPerChunk int
	overlapSentences  int
	splitter          *regexp.Regexp
}

func NewSentenceChunker(sentencesPerChunk, overlapSentences int) *SentenceChunker {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = 5
	}
	if overlapSentences < 0 {
		overlapSentences = 0
	}
	if overlapSentences >= sentencesPerChunk {
		overlapSentences = sentencesPerChunk - 1
	}
	return &SentenceChunker{
		sentencesPerChunk: sentencesPerChunk,
		overlapSentences:  overlapSentences,
		splitter:          regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
	}
}

// Split groups sentences into passages. Text between and after sentence
// matches is attached to the neighbouring sentence so the passages still
// cover the whole input.
func (c *SentenceChunker) Split(text string) []domain.Passage {
	if text == "" {
		return nil
	}
	spans := c.sentenceSpans(text)
	offsets := runeOffsets(text, spans)
	var passages []domain.Passage
	i := 0
	for i < len(spans) {
		end := i + c.sentencesPerChunk
		if end > len(spans) {
			end = len(spans)
		}
		lo, hi := spans[i][0], spans[end-1][1]
		passages = append(passages, domain.Passage{
			Index: len(passages),
			Start: offsets[i],
			End:   offsets[end],
			Text:  text[lo:hi],
		})
		if end == len(spans) {
			break
		}
		i = end - c.overlapSentences
	}
	return passages
}

// sentenceSpans returns byte spans that tile text without gaps.
func (c *SentenceChunker) sentenceSpans(text string) [][2]int {
	matches := c.splitter.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return [][2]int{{0, len(text)}}
	}
	spans := make([][2]int, len(matches))
	for i, m := range matches {
		spans[i] = [2]int{m[0], m[1]}
	}
	spans[0][0] = 0
	for i := 1; i < len(spans); i++ {
		spans[i][0] = spans[i-1][1]
	}
	spans[len(spans)-1][1] = len(text)
	return spans
}

// runeOffsets returns the rune offset of every span boundary: offsets[i] is
// where spans[i] starts and offsets[len(spans)] is the rune length of text.
func runeOffsets(text string, spans [][2]int) []int {
	offsets := make([]int, len(spans)+1)
	for i, sp := range spans {
		offsets[i+1] = offsets[i] + utf8.RuneCountInString(text[sp[0]:sp[1]])
	}
	return offsets
}
