package cache

import (
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"strings"
)

// ModelConfig identifies one embedding configuration. Two configurations
// that could produce different vectors for the same text must compare
// unequal here, because every field feeds the namespace.
type ModelConfig struct {
	// Backend is the embedding backend family ("ollama", "hugot").
	Backend string
	// ModelID identifies the model within the backend.
	ModelID string
	// Normalize indicates vectors are L2-normalized before caching.
	Normalize bool
	// TruncateDim is the output truncation dimension, 0 for none.
	TruncateDim int
}

// Namespace derives the cache partition name for this configuration.
//
// The function is pure and total: it is a sanitized, length-bounded prefix of
// the model id for readability, followed by a digest of the full canonical
// tuple (backend, model id, normalize, truncate dim). The digest guarantees
// that configurations whose prefixes sanitize to the same string still map to
// distinct namespaces. The result is a valid SQL/bucket identifier.
func (c ModelConfig) Namespace() string {
	canonical := fmt.Sprintf("%s|%s|normalize=%t|dim=%d", c.Backend, c.ModelID, c.Normalize, c.TruncateDim)

	h := fnv.New64a()
	h.Write([]byte(canonical))
	digest := hex.EncodeToString(h.Sum(nil))

	return "emb_" + sanitizeIdentifier(c.ModelID, 32) + "_" + digest
}

// sanitizeIdentifier lowercases s, maps every run of non-identifier
// characters to a single underscore, and truncates to maxLen.
func sanitizeIdentifier(s string, maxLen int) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		out = "model"
	}
	if len(out) > maxLen {
		out = out[:maxLen]
	}
	return strings.TrimRight(out, "_")
}
