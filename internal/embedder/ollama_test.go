package embedder

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

// fakeOllama serves /api/embed with deterministic 4-dimensional vectors
// derived from text length.
func fakeOllama(t *testing.T) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			http.NotFound(w, r)
			return
		}
		var req ollamaEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp := ollamaEmbedResponse{Embeddings: make([][]float32, len(req.Input))}
		for i, s := range req.Input {
			n := float32(len(s))
			resp.Embeddings[i] = []float32{n, n * 2, n * 3, 1}
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestOllamaEmbedBatch(t *testing.T) {
	srv := fakeOllama(t)
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "test-model", Options{})
	vecs, err := e.EmbedBatch(context.Background(), []string{"hi", "hello"})
	if err != nil {
		t.Fatalf("EmbedBatch() error: %v", err)
	}
	if len(vecs) != 2 {
		t.Fatalf("EmbedBatch() returned %d vectors, want 2", len(vecs))
	}
	if vecs[0][0] != 2 || vecs[1][0] != 5 {
		t.Errorf("EmbedBatch() vectors not in input order: %v", vecs)
	}
}

func TestOllamaEmbedBatchEmpty(t *testing.T) {
	// No server: an empty batch must not make a request.
	e := NewOllamaEmbedder("http://127.0.0.1:1", "test-model", Options{})
	vecs, err := e.EmbedBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("EmbedBatch(empty) error: %v", err)
	}
	if len(vecs) != 0 {
		t.Errorf("EmbedBatch(empty) returned %d vectors, want 0", len(vecs))
	}
}

func TestOllamaErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "test-model", Options{})
	if _, err := e.EmbedBatch(context.Background(), []string{"x"}); err == nil {
		t.Error("EmbedBatch() expected error on non-200 status, got nil")
	}
}

func TestOllamaTruncation(t *testing.T) {
	srv := fakeOllama(t)
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "test-model", Options{TruncateDim: 2})
	vecs, err := e.EmbedBatch(context.Background(), []string{"abc"})
	if err != nil {
		t.Fatalf("EmbedBatch() error: %v", err)
	}
	if len(vecs[0]) != 2 {
		t.Errorf("truncated vector has %d components, want 2", len(vecs[0]))
	}
	if vecs[0][0] != 3 || vecs[0][1] != 6 {
		t.Errorf("truncation changed leading components: %v", vecs[0])
	}
}

func TestOllamaNormalization(t *testing.T) {
	srv := fakeOllama(t)
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "test-model", Options{Normalize: true})
	vecs, err := e.EmbedBatch(context.Background(), []string{"abc"})
	if err != nil {
		t.Fatalf("EmbedBatch() error: %v", err)
	}

	var sum float64
	for _, x := range vecs[0] {
		sum += float64(x) * float64(x)
	}
	if math.Abs(sum-1) > 1e-5 {
		t.Errorf("normalized vector has squared norm %f, want 1", sum)
	}
}

func TestOllamaDefaults(t *testing.T) {
	e := NewOllamaEmbedder("", "", Options{})
	if e.ModelID() == "" {
		t.Error("ModelID() empty after default construction")
	}
	if e.baseURL == "" {
		t.Error("baseURL empty after default construction")
	}
}

func TestParseBackend(t *testing.T) {
	tests := []struct {
		in      string
		want    Backend
		wantErr bool
	}{
		{"ollama", BackendOllama, false},
		{"hugot", BackendHugot, false},
		{"", "", true},
		{"openai", "", true},
	}
	for _, tt := range tests {
		got, err := ParseBackend(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseBackend(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseBackend(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeZeroVector(t *testing.T) {
	v := []float32{0, 0, 0}
	normalize(v)
	for i, x := range v {
		if x != 0 {
			t.Errorf("normalize(zero)[%d] = %f, want 0", i, x)
		}
	}
}
