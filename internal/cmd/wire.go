package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/hargabyte/embedcache/internal/cache"
	"github.com/hargabyte/embedcache/internal/config"
	"github.com/hargabyte/embedcache/internal/embedder"
	"github.com/hargabyte/embedcache/internal/kvstore"
)

// loadConfig reads the effective configuration, honoring the global
// --config flag, and resolves the config directory used for default store
// paths. When no config directory exists yet, the working directory's
// .embedcache is used as the anchor without being created.
func loadConfig() (*config.Config, string, error) {
	if configPath != "" {
		cfg, err := config.LoadFromPath(configPath)
		if err != nil {
			return nil, "", err
		}
		cwd, err := os.Getwd()
		if err != nil {
			return nil, "", fmt.Errorf("get working directory: %w", err)
		}
		return cfg, cwd, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("get working directory: %w", err)
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return nil, "", err
	}
	configDir, err := config.FindConfigDir(cwd)
	if err != nil {
		configDir = cwd
	}
	return cfg, configDir, nil
}

// openStore opens the configured key-value store backend.
func openStore(cfg *config.Config, configDir string) (kvstore.Store, error) {
	path := cfg.StorePath(configDir)
	if verbose {
		fmt.Fprintf(os.Stderr, "opening %s store at %s\n", cfg.Store.Backend, path)
	}
	return kvstore.Open(cfg.Store.Backend, path)
}

// newEmbedder constructs the configured embedding backend.
func newEmbedder(cfg *config.Config) (embedder.Embedder, error) {
	backend, err := embedder.ParseBackend(cfg.Model.Backend)
	if err != nil {
		return nil, err
	}
	opts := embedder.Options{
		Normalize:   cfg.Model.Normalize,
		TruncateDim: cfg.Model.TruncateDim,
	}
	switch backend {
	case embedder.BackendHugot:
		return embedder.NewHugotEmbedder(cfg.Hugot.ModelPath, cfg.Model.ID, opts)
	default:
		return embedder.NewOllamaEmbedder(cfg.Ollama.URL, cfg.Model.ID, opts), nil
	}
}

// modelConfig maps configuration to the engine's namespace identity.
func modelConfig(cfg *config.Config) cache.ModelConfig {
	return cache.ModelConfig{
		Backend:     cfg.Model.Backend,
		ModelID:     cfg.Model.ID,
		Normalize:   cfg.Model.Normalize,
		TruncateDim: cfg.Model.TruncateDim,
	}
}

// newEngine wires store, embedder, and engine from configuration.
// The returned cleanup closes both collaborators.
func newEngine(ctx context.Context) (*cache.Engine, func(), error) {
	cfg, configDir, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	store, err := openStore(cfg, configDir)
	if err != nil {
		return nil, nil, err
	}

	emb, err := newEmbedder(cfg)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	engine, err := cache.New(ctx, store, emb, modelConfig(cfg))
	if err != nil {
		emb.Close()
		store.Close()
		return nil, nil, err
	}

	cleanup := func() {
		emb.Close()
		store.Close()
	}
	return engine, cleanup, nil
}
