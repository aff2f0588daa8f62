package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// cacheKey returns the cache key for a sentence: the SHA-256 hex digest of
// the sentence text and nothing else. Model identity, normalization, and
// truncation are captured by the namespace, so one sentence has exactly one
// key per namespace.
func cacheKey(sentence string) string {
	sum := sha256.Sum256([]byte(sentence))
	return hex.EncodeToString(sum[:])
}
