// Package cache implements a cache-aside layer in front of an embedding
// backend. Sentence vectors are computed at most once per namespace and
// persisted in a key-value store; repeated requests are served from the
// store. Entries are permanent: no eviction, no TTL, no overwrites.
package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/hargabyte/embedcache/internal/embedder"
	"github.com/hargabyte/embedcache/internal/kvstore"
)

// Engine performs transparent cache-aside batch embedding against one
// namespace. It holds no persistent state of its own: the store is the
// single source of truth, and nothing is memoized in process across calls.
// An Engine is safe for concurrent use; concurrent calls racing on the same
// new sentence may both compute it, but first-writer-wins insertion keeps
// the stored value consistent.
type Engine struct {
	store     kvstore.Store
	embedder  embedder.Embedder
	namespace string

	// dims pins the namespace dimensionality once the first vector is seen.
	mu   sync.Mutex
	dims int
}

// Result is the outcome of one Embed call.
type Result struct {
	// Vectors holds one embedding per input sentence, in input order.
	Vectors [][]float32
	// Hits is the number of distinct sentences served from the store.
	Hits int
	// Misses is the number of distinct sentences that were computed.
	Misses int
}

// New creates an Engine over the given store and embedding backend and
// provisions the namespace derived from cfg. The caller retains ownership
// of the store and embedder lifecycles.
func New(ctx context.Context, store kvstore.Store, emb embedder.Embedder, cfg ModelConfig) (*Engine, error) {
	namespace := cfg.Namespace()
	if err := store.EnsureNamespace(ctx, namespace); err != nil {
		return nil, fmt.Errorf("ensure namespace: %w", err)
	}
	return &Engine{
		store:     store,
		embedder:  emb,
		namespace: namespace,
	}, nil
}

// Namespace returns the cache partition this engine reads and writes.
func (e *Engine) Namespace() string {
	return e.namespace
}

// Embed returns one embedding per sentence, in input order. Duplicate
// sentences share a single lookup and a single computation. All cache
// misses are embedded in one backend call and persisted in one batch write;
// either the full result is returned or the call fails as a whole.
func (e *Engine) Embed(ctx context.Context, sentences []string) (*Result, error) {
	if len(sentences) == 0 {
		return &Result{Vectors: [][]float32{}}, nil
	}

	// Deduplicate in first-seen order.
	seen := make(map[string]struct{}, len(sentences))
	distinct := make([]string, 0, len(sentences))
	for _, s := range sentences {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		distinct = append(distinct, s)
	}

	keys := make([]string, len(distinct))
	for i, s := range distinct {
		keys[i] = cacheKey(s)
	}

	cached, err := e.store.BatchGet(ctx, e.namespace, keys)
	if err != nil {
		return nil, err
	}

	vectors := make(map[string][]float32, len(distinct))
	var misses []string
	for i, s := range distinct {
		raw, ok := cached[keys[i]]
		if !ok {
			misses = append(misses, s)
			continue
		}
		v, err := decodeVector(raw)
		if err != nil {
			return nil, fmt.Errorf("decode cached vector for key %s: %w", keys[i], err)
		}
		if err := e.checkDims(len(v)); err != nil {
			return nil, err
		}
		vectors[s] = v
	}

	if len(misses) > 0 {
		computed, err := e.embedder.EmbedBatch(ctx, misses)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrComputationFailed, err)
		}
		if len(computed) != len(misses) {
			return nil, fmt.Errorf("%w: embedder returned %d vectors for %d sentences", ErrIntegrity, len(computed), len(misses))
		}

		entries := make([]kvstore.Entry, len(misses))
		for i, s := range misses {
			v := computed[i]
			if err := e.checkDims(len(v)); err != nil {
				return nil, err
			}
			vectors[s] = v
			entries[i] = kvstore.Entry{Key: cacheKey(s), Value: encodeVector(v)}
		}

		if err := e.store.BatchPutIfAbsent(ctx, e.namespace, entries); err != nil {
			return nil, err
		}
	}

	out := make([][]float32, len(sentences))
	for i, s := range sentences {
		out[i] = vectors[s]
	}
	return &Result{
		Vectors: out,
		Hits:    len(distinct) - len(misses),
		Misses:  len(misses),
	}, nil
}

// checkDims pins the namespace dimensionality on first sight and rejects
// any vector that disagrees with it afterwards.
func (e *Engine) checkDims(n int) error {
	if n == 0 {
		return fmt.Errorf("%w: zero-dimensional vector", ErrIntegrity)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dims == 0 {
		e.dims = n
		return nil
	}
	if n != e.dims {
		return fmt.Errorf("%w: vector has %d dimensions, namespace has %d", ErrIntegrity, n, e.dims)
	}
	return nil
}

// Stats reports entry count and stored bytes for this engine's namespace.
func (e *Engine) Stats(ctx context.Context) (*kvstore.Stats, error) {
	return e.store.Stats(ctx, e.namespace)
}
