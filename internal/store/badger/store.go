// Package badger persists artifact metadata in an embedded BadgerDB
// key-value store. Records are keyed by their ULID, so a prefix scan
// returns them in upload order without a secondary index.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"seedvault.org/internal/artifact"
)

const keyPrefix = "artifact:"

type Store struct {
	db *badger.DB
}

var _ artifact.Store = (*Store)(nil)

// Open creates or opens the database at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func key(id string) []byte { return []byte(keyPrefix + id) }

func (s *Store) Append(ctx context.Context, m artifact.Metadata) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		k := key(m.ID)
		if _, err := txn.Get(k); err == nil {
			return artifact.ErrDuplicateID
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(k, data)
	})
}

func (s *Store) Get(ctx context.Context, id string) (artifact.Metadata, error) {
	var m artifact.Metadata
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return artifact.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &m)
		})
	})
	if err != nil {
		return artifact.Metadata{}, err
	}
	return m, nil
}

func (s *Store) List(ctx context.Context) ([]artifact.Metadata, error) {
	var out []artifact.Metadata
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var m artifact.Metadata
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &m)
			}); err != nil {
				return err
			}
			out = append(out, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		k := key(id)
		if _, err := txn.Get(k); errors.Is(err, badger.ErrKeyNotFound) {
			return artifact.ErrNotFound
		} else if err != nil {
			return err
		}
		return txn.Delete(k)
	})
}
