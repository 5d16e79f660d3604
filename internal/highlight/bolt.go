package highlight

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var bucketHighlights = []byte("highlights")

// BoltStore keeps highlights as JSON values in a bbolt bucket keyed by ID.
type BoltStore struct {
	db  *bbolt.DB
	now func() time.Time
}

func OpenBolt(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketHighlights)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltStore{db: db, now: time.Now}, nil
}

func (s *BoltStore) Add(_ context.Context, h Highlight) (Highlight, error) {
	h, err := prepare(h, s.now())
	if err != nil {
		return Highlight{}, err
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketHighlights)
		if b.Get([]byte(h.ID)) != nil {
			return fmt.Errorf("%w: %s", ErrDuplicate, h.ID)
		}
		data, err := json.Marshal(h)
		if err != nil {
			return err
		}
		return b.Put([]byte(h.ID), data)
	})
	if err != nil {
		return Highlight{}, err
	}
	return h, nil
}

func (s *BoltStore) List(_ context.Context) ([]Highlight, error) {
	out := []Highlight{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketHighlights).ForEach(func(k, v []byte) error {
			var h Highlight
			if err := json.Unmarshal(v, &h); err != nil {
				return fmt.Errorf("highlight %s: %w", k, err)
			}
			out = append(out, h)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortHighlights(out)
	return out, nil
}

func (s *BoltStore) Delete(_ context.Context, id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketHighlights)
		if b.Get([]byte(id)) == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return b.Delete([]byte(id))
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

var _ Store = (*BoltStore)(nil)
