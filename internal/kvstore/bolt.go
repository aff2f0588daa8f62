package kvstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"
)

// BoltStore is a pure-Go Store backend on a single bbolt file, one bucket
// per namespace. Useful where cgo-free single-file storage is preferred.
type BoltStore struct {
	db     *bbolt.DB
	dbPath string
}

// OpenBolt opens or creates the bbolt database at path.
func OpenBolt(path string) (*BoltStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, unavailable("open bolt db", err)
	}
	return &BoltStore{db: db, dbPath: path}, nil
}

// EnsureNamespace creates the namespace bucket if it doesn't exist.
func (s *BoltStore) EnsureNamespace(ctx context.Context, namespace string) error {
	if err := validNamespace(namespace); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(namespace))
		return err
	})
	if err != nil {
		return unavailable("ensure namespace "+namespace, err)
	}
	return nil
}

// BatchGet returns the subset of keys present in the namespace.
func (s *BoltStore) BatchGet(ctx context.Context, namespace string, keys []string) (map[string][]byte, error) {
	if err := validNamespace(namespace); err != nil {
		return nil, err
	}
	result := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(namespace))
		if b == nil {
			return fmt.Errorf("namespace not provisioned: %s", namespace)
		}
		for _, k := range dedupeKeys(keys) {
			v := b.Get([]byte(k))
			if v == nil {
				continue
			}
			// Copy: bbolt values are only valid inside the transaction.
			out := make([]byte, len(v))
			copy(out, v)
			result[k] = out
		}
		return nil
	})
	if err != nil {
		return nil, unavailable("batch get", err)
	}
	return result, nil
}

// BatchPutIfAbsent inserts entries whose key is not already present.
func (s *BoltStore) BatchPutIfAbsent(ctx context.Context, namespace string, entries []Entry) error {
	if err := validNamespace(namespace); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(namespace))
		if b == nil {
			return fmt.Errorf("namespace not provisioned: %s", namespace)
		}
		for _, entry := range entries {
			if b.Get([]byte(entry.Key)) != nil {
				continue
			}
			if err := b.Put([]byte(entry.Key), entry.Value); err != nil {
				return fmt.Errorf("put %s: %w", entry.Key, err)
			}
		}
		return nil
	})
	if err != nil {
		return unavailable("batch put", err)
	}
	return nil
}

// Stats returns entry count and total value bytes for a namespace.
func (s *BoltStore) Stats(ctx context.Context, namespace string) (*Stats, error) {
	if err := validNamespace(namespace); err != nil {
		return nil, err
	}
	var stats Stats
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(namespace))
		if b == nil {
			return fmt.Errorf("namespace not provisioned: %s", namespace)
		}
		return b.ForEach(func(k, v []byte) error {
			stats.Entries++
			stats.ValueBytes += int64(len(v))
			return nil
		})
	})
	if err != nil {
		return nil, unavailable("namespace stats", err)
	}
	return &stats, nil
}

// Close closes the database.
func (s *BoltStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *BoltStore) Path() string {
	return s.dbPath
}
