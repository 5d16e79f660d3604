package highlight

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps highlights in a local SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens or creates the database at path. ":memory:" is accepted.
func OpenSQLite(path string) (*SQLiteStore, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("missing db path")
	}
	if p != ":memory:" {
		p = filepath.Clean(p)
		if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	// A single connection also keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func initSchema(db *sql.DB) error {
	if _, err := db.Exec(`PRAGMA busy_timeout=3000;`); err != nil {
		return err
	}
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS highlights (
  id TEXT PRIMARY KEY NOT NULL,
  highlight_text TEXT NOT NULL,
  chapter TEXT,
  cfi_range TEXT NOT NULL,
  date TEXT NOT NULL
);`)
	return err
}

func (s *SQLiteStore) Add(ctx context.Context, h Highlight) (Highlight, error) {
	h, err := prepare(h, s.now())
	if err != nil {
		return Highlight{}, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO highlights(id, highlight_text, chapter, cfi_range, date) VALUES(?, ?, ?, ?, ?) ON CONFLICT(id) DO NOTHING`,
		h.ID, h.Text, h.Chapter, h.CFIRange, h.Date.Format(DateLayout))
	if err != nil {
		return Highlight{}, fmt.Errorf("insert highlight: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Highlight{}, fmt.Errorf("%w: %s", ErrDuplicate, h.ID)
	}
	return h, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Highlight, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, highlight_text, COALESCE(chapter, ''), cfi_range, date FROM highlights ORDER BY date, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Highlight{}
	for rows.Next() {
		var h Highlight
		var date string
		if err := rows.Scan(&h.ID, &h.Text, &h.Chapter, &h.CFIRange, &date); err != nil {
			return nil, err
		}
		if h.Date, err = time.Parse(DateLayout, date); err != nil {
			return nil, fmt.Errorf("highlight %s: bad date %q: %w", h.ID, date, err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM highlights WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
