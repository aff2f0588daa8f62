// Package embedder generates vector embeddings from text. Backends are
// selected explicitly at configuration time; every backend is deterministic
// for a fixed model configuration and embeds whole batches in one call.
package embedder

import (
	"context"
	"fmt"
	"math"
)

// Embedder generates vector embeddings from text.
type Embedder interface {
	// EmbedBatch generates one embedding per text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// ModelID returns the model identifier for cache partitioning.
	ModelID() string

	// Close releases resources held by the embedder.
	Close() error
}

// Backend identifies a supported embedding backend family.
type Backend string

const (
	// BackendOllama calls a local Ollama server over HTTP.
	BackendOllama Backend = "ollama"
	// BackendHugot runs an ONNX feature-extraction pipeline in process.
	BackendHugot Backend = "hugot"
)

// ParseBackend validates and converts a backend name from configuration.
func ParseBackend(s string) (Backend, error) {
	switch Backend(s) {
	case BackendOllama:
		return BackendOllama, nil
	case BackendHugot:
		return BackendHugot, nil
	default:
		return "", fmt.Errorf("unknown embedding backend: %q (supported: %s, %s)", s, BackendOllama, BackendHugot)
	}
}

// Options control post-processing applied to every computed vector.
// They are part of the model configuration: changing either produces
// different output bytes for the same text.
type Options struct {
	// Normalize L2-normalizes each vector after any truncation.
	Normalize bool
	// TruncateDim keeps only the first TruncateDim components when > 0.
	TruncateDim int
}

// postprocess applies truncation then normalization in place.
// Truncation happens first so normalization is over the kept components.
func postprocess(vecs [][]float32, opts Options) [][]float32 {
	for i, v := range vecs {
		if opts.TruncateDim > 0 && len(v) > opts.TruncateDim {
			v = v[:opts.TruncateDim]
		}
		if opts.Normalize {
			normalize(v)
		}
		vecs[i] = v
	}
	return vecs
}

// normalize scales v to unit L2 norm. Zero vectors are left unchanged.
func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
}
