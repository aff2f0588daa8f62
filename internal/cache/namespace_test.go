package cache

import "testing"

func TestNamespaceDeterministic(t *testing.T) {
	cfg := ModelConfig{Backend: "ollama", ModelID: "all-MiniLM-L6-v2", Normalize: true, TruncateDim: 256}
	if cfg.Namespace() != cfg.Namespace() {
		t.Error("Namespace() not deterministic for identical config")
	}
}

func TestNamespaceDistinguishesConfigs(t *testing.T) {
	base := ModelConfig{Backend: "ollama", ModelID: "all-minilm", Normalize: true, TruncateDim: 0}

	variants := []ModelConfig{
		{Backend: "hugot", ModelID: "all-minilm", Normalize: true, TruncateDim: 0},
		{Backend: "ollama", ModelID: "all-minilm-l6", Normalize: true, TruncateDim: 0},
		{Backend: "ollama", ModelID: "all-minilm", Normalize: false, TruncateDim: 0},
		{Backend: "ollama", ModelID: "all-minilm", Normalize: true, TruncateDim: 128},
	}
	seen := map[string]ModelConfig{base.Namespace(): base}
	for _, v := range variants {
		ns := v.Namespace()
		if prev, dup := seen[ns]; dup {
			t.Errorf("configs %+v and %+v share namespace %s", prev, v, ns)
		}
		seen[ns] = v
	}
}

func TestNamespaceSanitizationCollisions(t *testing.T) {
	// These model ids sanitize to the same prefix; the digest must split them.
	a := ModelConfig{Backend: "ollama", ModelID: "org/model"}
	b := ModelConfig{Backend: "ollama", ModelID: "org_model"}
	c := ModelConfig{Backend: "ollama", ModelID: "org model"}

	if a.Namespace() == b.Namespace() || a.Namespace() == c.Namespace() {
		t.Errorf("sanitization collision: %s / %s / %s", a.Namespace(), b.Namespace(), c.Namespace())
	}
}

func TestNamespaceIsValidIdentifier(t *testing.T) {
	configs := []ModelConfig{
		{Backend: "ollama", ModelID: "all-MiniLM-L6-v2"},
		{Backend: "hugot", ModelID: "sentence-transformers/all-mpnet-base-v2"},
		{Backend: "ollama", ModelID: "4bit/weird model!!"},
		{Backend: "ollama", ModelID: ""},
		{Backend: "ollama", ModelID: "____"},
		{Backend: "ollama", ModelID: "a-very-long-model-identifier-that-keeps-going-and-going-and-going"},
	}
	for _, cfg := range configs {
		ns := cfg.Namespace()
		for i, r := range ns {
			valid := r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9' && i > 0)
			if !valid {
				t.Errorf("Namespace(%+v) = %q contains invalid identifier character %q", cfg, ns, r)
			}
		}
	}
}

func TestSanitizeIdentifier(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"all-MiniLM-L6-v2", 32, "all_minilm_l6_v2"},
		{"org/model", 32, "org_model"},
		{"a  b", 32, "a_b"},
		{"___", 32, "model"},
		{"", 32, "model"},
		{"abcdef", 4, "abcd"},
	}
	for _, tt := range tests {
		if got := sanitizeIdentifier(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("sanitizeIdentifier(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}
