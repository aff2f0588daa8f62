package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Errorf("Validate(DefaultConfig()) error: %v", err)
	}
}

func TestLoadMissingConfigReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	want := DefaultConfig()
	if cfg.Model.Backend != want.Model.Backend || cfg.Store.Backend != want.Store.Backend {
		t.Errorf("Load() without config = %+v, want defaults %+v", cfg, want)
	}
}

func TestLoadFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
model:
  backend: ollama
  id: nomic-embed-text
  normalize: false
  truncate_dim: 256
store:
  backend: bolt
  path: /tmp/custom.bolt
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}
	if cfg.Model.ID != "nomic-embed-text" {
		t.Errorf("Model.ID = %q, want nomic-embed-text", cfg.Model.ID)
	}
	if cfg.Model.Normalize {
		t.Error("Model.Normalize = true, want false")
	}
	if cfg.Model.TruncateDim != 256 {
		t.Errorf("Model.TruncateDim = %d, want 256", cfg.Model.TruncateDim)
	}
	if cfg.Store.Backend != "bolt" || cfg.Store.Path != "/tmp/custom.bolt" {
		t.Errorf("Store = %+v, want bolt at /tmp/custom.bolt", cfg.Store)
	}
	// Unspecified sections keep defaults.
	if cfg.Ollama.URL != DefaultConfig().Ollama.URL {
		t.Errorf("Ollama.URL = %q, want default", cfg.Ollama.URL)
	}
}

func TestLoadPartialConfigKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("store:\n  backend: bolt\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}
	if cfg.Store.Backend != "bolt" {
		t.Errorf("Store.Backend = %q, want bolt", cfg.Store.Backend)
	}
	if !cfg.Model.Normalize {
		t.Error("Model.Normalize lost its default (true) on partial config")
	}
	if cfg.Model.ID != DefaultConfig().Model.ID {
		t.Errorf("Model.ID = %q, want default", cfg.Model.ID)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown model backend", func(c *Config) { c.Model.Backend = "openai" }},
		{"empty model id", func(c *Config) { c.Model.ID = "" }},
		{"negative truncate_dim", func(c *Config) { c.Model.TruncateDim = -1 }},
		{"unknown store backend", func(c *Config) { c.Store.Backend = "redis" }},
		{"hugot without model path", func(c *Config) { c.Model.Backend = "hugot" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatal("Validate() expected error, got nil")
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error = %v, want ErrInvalidConfig kind", err)
			}
		})
	}
}

func TestFindConfigDirWalksUp(t *testing.T) {
	root := t.TempDir()
	configDir := filepath.Join(root, ConfigDirName)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	found, err := FindConfigDir(nested)
	if err != nil {
		t.Fatalf("FindConfigDir() error: %v", err)
	}
	if found != configDir {
		t.Errorf("FindConfigDir() = %q, want %q", found, configDir)
	}
}

func TestFindConfigDirNotFound(t *testing.T) {
	_, err := FindConfigDir(t.TempDir())
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("FindConfigDir() error = %v, want ErrConfigNotFound", err)
	}
}

func TestSaveDefaultThenLoad(t *testing.T) {
	dir := t.TempDir()

	path, err := SaveDefault(dir)
	if err != nil {
		t.Fatalf("SaveDefault() error: %v", err)
	}
	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("saved default config fails validation: %v", err)
	}

	// A second save must refuse to overwrite.
	if _, err := SaveDefault(dir); err == nil {
		t.Error("SaveDefault() second call expected error, got nil")
	}
}

func TestStorePathDefaults(t *testing.T) {
	tests := []struct {
		backend string
		want    string
	}{
		{"sqlite", "cache.db"},
		{"bolt", "cache.bolt"},
		{"dolt", "cache-dolt"},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.Store.Backend = tt.backend
		got := cfg.StorePath("/cfgdir")
		if got != filepath.Join("/cfgdir", tt.want) {
			t.Errorf("StorePath(%s) = %q, want %q", tt.backend, got, filepath.Join("/cfgdir", tt.want))
		}
	}

	cfg := DefaultConfig()
	cfg.Store.Path = "/elsewhere/db"
	if cfg.StorePath("/cfgdir") != "/elsewhere/db" {
		t.Errorf("StorePath() ignored explicit path: %q", cfg.StorePath("/cfgdir"))
	}
}
