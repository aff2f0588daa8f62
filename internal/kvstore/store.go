// Package kvstore provides durable, namespace-partitioned key-value storage
// with batch semantics. Each namespace maps opaque string keys to opaque byte
// values; entries are write-once and never overwritten by this package.
package kvstore

import (
	"context"
	"errors"
	"fmt"
)

// ErrStoreUnavailable is returned when the backing store cannot be reached
// or a batch operation fails. Callers own retry policy.
var ErrStoreUnavailable = errors.New("kv store unavailable")

// Entry is a single key-value pair destined for a namespace.
type Entry struct {
	Key   string
	Value []byte
}

// Stats holds per-namespace storage statistics.
type Stats struct {
	Entries    int64
	ValueBytes int64
}

// Store is durable namespace-partitioned byte-to-byte storage.
//
// BatchGet returns only the keys present in the store; absent keys are
// omitted, never an error. BatchPutIfAbsent inserts entries whose key is not
// already present and silently skips the rest, which makes it safe under
// concurrent writers racing on the same keys (first writer wins). Both
// operations treat empty input as a no-op without a round trip.
type Store interface {
	// EnsureNamespace idempotently provisions storage for a namespace.
	EnsureNamespace(ctx context.Context, namespace string) error

	// BatchGet returns the subset of keys present in the namespace.
	BatchGet(ctx context.Context, namespace string, keys []string) (map[string][]byte, error)

	// BatchPutIfAbsent inserts entries whose key is not already present.
	BatchPutIfAbsent(ctx context.Context, namespace string, entries []Entry) error

	// Stats returns entry count and total value bytes for a namespace.
	Stats(ctx context.Context, namespace string) (*Stats, error)

	// Close releases the underlying database handle.
	Close() error
}

// Supported store backends.
const (
	BackendSQLite = "sqlite"
	BackendDolt   = "dolt"
	BackendBolt   = "bolt"
	BackendMemory = "memory"
)

// Open opens a store of the given backend at path. The memory backend
// ignores path and holds entries for the life of the process only.
func Open(backend, path string) (Store, error) {
	switch backend {
	case BackendSQLite:
		return OpenSQLite(path)
	case BackendDolt:
		return OpenDolt(path)
	case BackendBolt:
		return OpenBolt(path)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %s", backend)
	}
}

// validNamespace reports whether a namespace is safe to use as a table or
// bucket identifier. Namespaces are generated, not user input, but they are
// interpolated into SQL so they are checked here regardless.
func validNamespace(namespace string) error {
	if namespace == "" {
		return fmt.Errorf("empty namespace")
	}
	for i, r := range namespace {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return fmt.Errorf("invalid namespace %q: must not start with a digit", namespace)
			}
		default:
			return fmt.Errorf("invalid namespace %q: character %q not allowed", namespace, r)
		}
	}
	return nil
}

// unavailable wraps a backend failure in ErrStoreUnavailable so callers see
// a single error kind for connectivity and serialization problems.
func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}

// dedupeKeys returns keys with duplicates removed, preserving first-seen
// order. BatchGet accepts duplicate keys but round trips shouldn't carry them.
func dedupeKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
