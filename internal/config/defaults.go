package config

// DefaultConfig returns configuration with sensible defaults.
// These defaults are used when no config file exists or when
// the config file is missing specific fields.
func DefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			Backend:     "ollama",
			ID:          "all-minilm",
			Normalize:   true,
			TruncateDim: 0,
		},
		Store: StoreConfig{
			Backend: "sqlite",
		},
		Ollama: OllamaConfig{
			URL: "http://localhost:11434",
		},
	}
}
