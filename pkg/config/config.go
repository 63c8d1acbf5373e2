package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds the application configuration
type Config struct {
	Remote   RemoteConfig   `json:"remote"`
	Local    LocalConfig    `json:"local"`
	Analysis AnalysisConfig `json:"analysis"`
	Storage  StorageConfig  `json:"storage"`
}

// RemoteConfig selects and parameterizes the remote vision backend
type RemoteConfig struct {
	// Backend is "openai" (OpenAI-compatible chat completions) or "ollama"
	Backend string `json:"backend"`
	URL     string `json:"url"`
	Model   string `json:"model"`
	// APIKeyEnv names the environment variable holding the API key
	APIKeyEnv string `json:"api_key_env"`
}

// LocalConfig points at the on-disk ONNX model artifacts
type LocalConfig struct {
	ModelPath    string `json:"model_path"`
	FallbackPath string `json:"fallback_path"`
}

// AnalysisConfig tunes the orchestrator
type AnalysisConfig struct {
	RetryBaseDelaySeconds int  `json:"retry_base_delay_seconds"`
	KeepImage             bool `json:"keep_image"`
}

// StorageConfig locates the analysis history database
type StorageConfig struct {
	DatabasePath string `json:"database_path"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Remote: RemoteConfig{
			Backend:   "openai",
			URL:       "http://localhost:8080",
			Model:     "gpt-4o-mini",
			APIKeyEnv: "BIOMASA_API_KEY",
		},
		Local: LocalConfig{
			ModelPath:    "models/biomass.onnx",
			FallbackPath: "models/biomass_fallback.onnx",
		},
		Analysis: AnalysisConfig{
			RetryBaseDelaySeconds: 1,
			KeepImage:             true,
		},
		Storage: StorageConfig{
			DatabasePath: "biomasa.db",
		},
	}
}

// LoadFromFile loads configuration from a JSON file
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Remote.Backend {
	case "openai", "ollama":
	default:
		return fmt.Errorf("remote.backend must be \"openai\" or \"ollama\"")
	}

	if c.Remote.URL == "" {
		return fmt.Errorf("remote.url cannot be empty")
	}

	if c.Remote.Model == "" {
		return fmt.Errorf("remote.model cannot be empty")
	}

	if c.Analysis.RetryBaseDelaySeconds < 0 {
		return fmt.Errorf("analysis.retry_base_delay_seconds must not be negative")
	}

	return nil
}

// RetryBaseDelay returns the configured backoff base as a duration
func (c *Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.Analysis.RetryBaseDelaySeconds) * time.Second
}

// APIKey resolves the remote API key from the environment
func (c *Config) APIKey() string {
	if c.Remote.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.Remote.APIKeyEnv)
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "biomasa", "config.json")
}
