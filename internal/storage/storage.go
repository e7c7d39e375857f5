// Package storage persists the labeled token corpus and trained model
// artifacts on the local filesystem.
//
// The corpus lives in a BoltDB file with one JSON document per token,
// keyed by lower-cased address, so re-ingesting a token replaces it.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/mollybeach/ai-rug-checker/internal/features"
)

const (
	dbFile        = "rugcheck.db"
	recordsBucket = "records"
)

// Store is a Corpus backed by BoltDB.
type Store struct {
	db  *bbolt.DB
	now func() time.Time
}

var _ Corpus = (*Store)(nil)

// New opens (or creates) the corpus database under dataPath.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, dbFile)

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(recordsBucket)); err != nil {
			return fmt.Errorf("create records bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database. Closing twice is safe.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Upsert inserts rec or replaces the record with the same token address.
func (s *Store) Upsert(_ context.Context, rec LabeledRecord) error {
	key := rec.Key()
	if key == "" {
		return fmt.Errorf("record has no token address")
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(recordsBucket))

		var existing *LabeledRecord
		if data := b.Get([]byte(key)); data != nil {
			var prev LabeledRecord
			if err := json.Unmarshal(data, &prev); err == nil {
				existing = &prev
			}
		}

		data, err := json.Marshal(stamp(rec, existing, s.now().UTC()))
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		return b.Put([]byte(key), data)
	})
}

// Get returns the record for token or ErrNotFound.
func (s *Store) Get(_ context.Context, token string) (LabeledRecord, error) {
	var rec LabeledRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(recordsBucket)).Get([]byte(features.NormalizeAddress(token)))
		if data == nil {
			return ErrNotFound
		}
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("unmarshal record: %w", err)
		}
		return nil
	})
	return rec, err
}

// Load returns every record in key order. Malformed entries are skipped.
func (s *Store) Load(ctx context.Context) ([]LabeledRecord, error) {
	var records []LabeledRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(recordsBucket)).ForEach(func(_, v []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var rec LabeledRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return nil
			}
			records = append(records, rec)
			return nil
		})
	})

	return records, err
}

// Count returns the number of records.
func (s *Store) Count(_ context.Context) (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket([]byte(recordsBucket)).Stats().KeyN
		return nil
	})
	return n, err
}
