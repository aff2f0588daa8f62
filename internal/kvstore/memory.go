package kvstore

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-process Store used by tests and the no-persist path.
// It honors the same first-writer-wins semantics as the durable backends.
type MemoryStore struct {
	mu         sync.RWMutex
	namespaces map[string]map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{namespaces: make(map[string]map[string][]byte)}
}

// EnsureNamespace provisions the namespace map if it doesn't exist.
func (s *MemoryStore) EnsureNamespace(ctx context.Context, namespace string) error {
	if err := validNamespace(namespace); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.namespaces[namespace]; !ok {
		s.namespaces[namespace] = make(map[string][]byte)
	}
	return nil
}

// BatchGet returns the subset of keys present in the namespace.
func (s *MemoryStore) BatchGet(ctx context.Context, namespace string, keys []string) (map[string][]byte, error) {
	if err := validNamespace(namespace); err != nil {
		return nil, err
	}
	result := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	ns, ok := s.namespaces[namespace]
	if !ok {
		return nil, unavailable("batch get", fmt.Errorf("namespace not provisioned: %s", namespace))
	}
	for _, k := range keys {
		if v, ok := ns[k]; ok {
			out := make([]byte, len(v))
			copy(out, v)
			result[k] = out
		}
	}
	return result, nil
}

// BatchPutIfAbsent inserts entries whose key is not already present.
func (s *MemoryStore) BatchPutIfAbsent(ctx context.Context, namespace string, entries []Entry) error {
	if err := validNamespace(namespace); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ns, ok := s.namespaces[namespace]
	if !ok {
		return unavailable("batch put", fmt.Errorf("namespace not provisioned: %s", namespace))
	}
	for _, entry := range entries {
		if _, exists := ns[entry.Key]; exists {
			continue
		}
		v := make([]byte, len(entry.Value))
		copy(v, entry.Value)
		ns[entry.Key] = v
	}
	return nil
}

// Stats returns entry count and total value bytes for a namespace.
func (s *MemoryStore) Stats(ctx context.Context, namespace string) (*Stats, error) {
	if err := validNamespace(namespace); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	ns, ok := s.namespaces[namespace]
	if !ok {
		return nil, unavailable("namespace stats", fmt.Errorf("namespace not provisioned: %s", namespace))
	}
	var stats Stats
	for _, v := range ns {
		stats.Entries++
		stats.ValueBytes += int64(len(v))
	}
	return &stats, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
