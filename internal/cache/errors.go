package cache

import "errors"

// Error kinds surfaced by the engine. The store's own failures pass through
// as kvstore.ErrStoreUnavailable; nothing is retried here.
var (
	// ErrComputationFailed means the embedding backend returned an error.
	ErrComputationFailed = errors.New("embedding computation failed")

	// ErrIntegrity means computed or stored data does not line up: a vector
	// count mismatch from the backend, or a stored value whose byte length
	// does not match the namespace dimensionality. Results are never
	// silently truncated or padded.
	ErrIntegrity = errors.New("embedding cache integrity error")
)
