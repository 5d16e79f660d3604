// Package highlight persists reader highlights.
package highlight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the day-precision format highlights are stored and served in.
const DateLayout = "2006-01-02"

var (
	ErrNotFound  = errors.New("highlight not found")
	ErrDuplicate = errors.New("highlight already exists")
	ErrInvalid   = errors.New("invalid highlight")
)

// Highlight is a passage the reader marked in a book.
type Highlight struct {
	ID       string
	Text     string
	CFIRange string
	Chapter  string
	Date     time.Time
}

type wireHighlight struct {
	ID       string `json:"id"`
	Text     string `json:"highlight_text"`
	CFIRange string `json:"cfi_range"`
	Chapter  string `json:"chapter"`
	Date     string `json:"date,omitempty"`
}

func (h Highlight) MarshalJSON() ([]byte, error) {
	w := wireHighlight{ID: h.ID, Text: h.Text, CFIRange: h.CFIRange, Chapter: h.Chapter}
	if !h.Date.IsZero() {
		w.Date = h.Date.Format(DateLayout)
	}
	return json.Marshal(w)
}

func (h *Highlight) UnmarshalJSON(data []byte) error {
	var w wireHighlight
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*h = Highlight{ID: w.ID, Text: w.Text, CFIRange: w.CFIRange, Chapter: w.Chapter}
	if w.Date != "" {
		d, err := time.Parse(DateLayout, w.Date)
		if err != nil {
			return fmt.Errorf("date: %w", err)
		}
		h.Date = d
	}
	return nil
}

// Store persists highlights. Implementations are safe for concurrent use.
type Store interface {
	// Add stores h, assigning an ID and today's date when they are empty.
	Add(ctx context.Context, h Highlight) (Highlight, error)
	// List returns every highlight ordered by date, then ID.
	List(ctx context.Context) ([]Highlight, error)
	// Delete removes the highlight with the given ID or returns ErrNotFound.
	Delete(ctx context.Context, id string) error
	Close() error
}

// Open returns the store backend named by kind. path is ignored for memory.
func Open(kind, path string) (Store, error) {
	switch kind {
	case "memory":
		return NewMemStore(), nil
	case "sqlite":
		return OpenSQLite(path)
	case "bolt":
		return OpenBolt(path)
	default:
		return nil, fmt.Errorf("unknown highlight store %q", kind)
	}
}

// prepare validates h and fills the generated fields.
func prepare(h Highlight, now time.Time) (Highlight, error) {
	h.ID = strings.TrimSpace(h.ID)
	if strings.TrimSpace(h.Text) == "" {
		return h, fmt.Errorf("%w: highlight_text is required", ErrInvalid)
	}
	if strings.TrimSpace(h.CFIRange) == "" {
		return h, fmt.Errorf("%w: cfi_range is required", ErrInvalid)
	}
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	if h.Date.IsZero() {
		h.Date = now
	}
	h.Date = day(h.Date)
	return h, nil
}

// day keeps the calendar day of t in its own location, so time.Now yields the
// server-local date.
func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sortHighlights(hs []Highlight) {
	sort.Slice(hs, func(i, j int) bool {
		if !hs[i].Date.Equal(hs[j].Date) {
			return hs[i].Date.Before(hs[j].Date)
		}
		return hs[i].ID < hs[j].ID
	})
}
