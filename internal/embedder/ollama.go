package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const (
	// DefaultModel is the default embedding model to use.
	DefaultModel = "all-minilm"
	// DefaultOllamaURL is the default Ollama API endpoint.
	DefaultOllamaURL = "http://localhost:11434"
)

// OllamaEmbedder implements Embedder using the Ollama API.
type OllamaEmbedder struct {
	client  *http.Client
	baseURL string
	model   string
	opts    Options
}

// ollamaEmbedRequest is the request body for Ollama embeddings API.
type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// ollamaEmbedResponse is the response from Ollama embeddings API.
type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewOllamaEmbedder creates an OllamaEmbedder. Empty baseURL or model fall
// back to the EMBEDCACHE_OLLAMA_HOST / EMBEDCACHE_MODEL environment
// variables, then to the package defaults.
func NewOllamaEmbedder(baseURL, model string, opts Options) *OllamaEmbedder {
	if baseURL == "" {
		baseURL = os.Getenv("EMBEDCACHE_OLLAMA_HOST")
	}
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	if model == "" {
		model = os.Getenv("EMBEDCACHE_MODEL")
	}
	if model == "" {
		model = DefaultModel
	}
	return &OllamaEmbedder{
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		baseURL: baseURL,
		model:   model,
		opts:    opts,
	}
}

// EmbedBatch generates embeddings for multiple texts in a single API call.
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	reqBody := ollamaEmbedRequest{
		Model: e.model,
		Input: texts,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return postprocess(result.Embeddings, e.opts), nil
}

// ModelID returns the model identifier for cache partitioning.
func (e *OllamaEmbedder) ModelID() string {
	return e.model
}

// IsAvailable checks if Ollama is running and has the embedding model.
func (e *OllamaEmbedder) IsAvailable(ctx context.Context) bool {
	_, err := e.EmbedBatch(ctx, []string{"test"})
	return err == nil
}

// Close is a no-op for the HTTP-based embedder.
func (e *OllamaEmbedder) Close() error {
	return nil
}
