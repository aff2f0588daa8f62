// Package config loads embedcache configuration from .embedcache/config.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the name of the embedcache configuration file
const ConfigFileName = "config.yaml"

// ConfigDirName is the name of the embedcache configuration directory
const ConfigDirName = ".embedcache"

// Config holds all embedcache configuration
type Config struct {
	Model  ModelConfig  `yaml:"model"`
	Store  StoreConfig  `yaml:"store"`
	Ollama OllamaConfig `yaml:"ollama"`
	Hugot  HugotConfig  `yaml:"hugot"`
}

// ModelConfig selects the embedding backend and its output shape.
// Every field participates in cache namespace derivation.
type ModelConfig struct {
	Backend     string `yaml:"backend"`
	ID          string `yaml:"id"`
	Normalize   bool   `yaml:"normalize"`
	TruncateDim int    `yaml:"truncate_dim"`
}

// StoreConfig selects the key-value store backend.
// Path is the database file (sqlite, bolt) or repository directory (dolt);
// empty means a default location under the config directory.
type StoreConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// OllamaConfig holds settings for the ollama backend.
type OllamaConfig struct {
	URL string `yaml:"url"`
}

// HugotConfig holds settings for the hugot backend.
type HugotConfig struct {
	ModelPath string `yaml:"model_path"`
}

// ErrConfigNotFound is returned when no config file can be found
var ErrConfigNotFound = errors.New("config file not found")

// ErrInvalidConfig is returned when config validation fails
var ErrInvalidConfig = errors.New("invalid configuration")

// ValidModelBackends lists the supported embedding backends.
var ValidModelBackends = []string{"ollama", "hugot"}

// ValidStoreBackends lists the supported store backends.
var ValidStoreBackends = []string{"sqlite", "dolt", "bolt", "memory"}

// Load reads config from .embedcache/config.yaml, falling back to defaults.
// It searches for the config directory starting from workDir and walking up
// the directory tree. If no config is found, returns defaults.
func Load(workDir string) (*Config, error) {
	configDir, err := FindConfigDir(workDir)
	if err != nil {
		// No config dir found, return defaults
		return DefaultConfig(), nil
	}

	configPath := filepath.Join(configDir, ConfigFileName)
	return LoadFromPath(configPath)
}

// LoadFromPath reads config from a specific path. Missing fields keep their
// default values; the merged result is validated.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Unmarshal over defaults so absent keys keep their default values,
	// including booleans that default to true.
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindConfigDir locates the .embedcache directory by walking up from startDir.
// Returns the path to the .embedcache directory if found.
func FindConfigDir(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	currentDir := absDir
	for {
		configDir := filepath.Join(currentDir, ConfigDirName)
		info, err := os.Stat(configDir)
		if err == nil && info.IsDir() {
			return configDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root, config not found
			return "", ErrConfigNotFound
		}
		currentDir = parentDir
	}
}

// EnsureConfigDir creates the .embedcache directory if it doesn't exist.
// Returns the path to the .embedcache directory.
func EnsureConfigDir(workDir string) (string, error) {
	absDir, err := filepath.Abs(workDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	configDir := filepath.Join(absDir, ConfigDirName)

	info, err := os.Stat(configDir)
	if err == nil {
		if info.IsDir() {
			return configDir, nil
		}
		return "", fmt.Errorf("%s exists but is not a directory", configDir)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	return configDir, nil
}

// Validate checks that config values are valid.
// Returns an error if validation fails.
func Validate(cfg *Config) error {
	if !contains(ValidModelBackends, cfg.Model.Backend) {
		return fmt.Errorf("%w: model backend must be one of %v, got %q",
			ErrInvalidConfig, ValidModelBackends, cfg.Model.Backend)
	}

	if cfg.Model.ID == "" {
		return fmt.Errorf("%w: model id must not be empty", ErrInvalidConfig)
	}

	if cfg.Model.TruncateDim < 0 {
		return fmt.Errorf("%w: truncate_dim must be non-negative, got %d",
			ErrInvalidConfig, cfg.Model.TruncateDim)
	}

	if !contains(ValidStoreBackends, cfg.Store.Backend) {
		return fmt.Errorf("%w: store backend must be one of %v, got %q",
			ErrInvalidConfig, ValidStoreBackends, cfg.Store.Backend)
	}

	if cfg.Model.Backend == "hugot" && cfg.Hugot.ModelPath == "" {
		return fmt.Errorf("%w: hugot backend requires hugot.model_path", ErrInvalidConfig)
	}

	return nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// StorePath resolves the store location, defaulting to a file or directory
// under configDir named after the store backend.
func (c *Config) StorePath(configDir string) string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	switch c.Store.Backend {
	case "dolt":
		return filepath.Join(configDir, "cache-dolt")
	case "bolt":
		return filepath.Join(configDir, "cache.bolt")
	default:
		return filepath.Join(configDir, "cache.db")
	}
}

// SaveDefault writes the default configuration to .embedcache/config.yaml in
// workDir. Creates the .embedcache directory if it doesn't exist.
func SaveDefault(workDir string) (string, error) {
	configDir, err := EnsureConfigDir(workDir)
	if err != nil {
		return "", err
	}

	configPath := filepath.Join(configDir, ConfigFileName)

	if _, err := os.Stat(configPath); err == nil {
		return "", fmt.Errorf("config file already exists: %s", configPath)
	}

	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}

	// Add header comment
	header := "# embedcache configuration\n# model.* selects the embedding backend; store.* selects the cache backend.\n\n"
	data = append([]byte(header), data...)

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}

	return configPath, nil
}
