package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Remote.Backend = "smoke-signals" }},
		{"empty url", func(c *Config) { c.Remote.URL = "" }},
		{"empty model", func(c *Config) { c.Remote.Model = "" }},
		{"negative delay", func(c *Config) { c.Analysis.RetryBaseDelaySeconds = -1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := Default()
	cfg.Remote.Backend = "ollama"
	cfg.Remote.Model = "llama3.2-vision"
	cfg.Analysis.RetryBaseDelaySeconds = 3

	if err := cfg.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if loaded.Remote.Backend != "ollama" || loaded.Remote.Model != "llama3.2-vision" {
		t.Errorf("remote config not preserved: %+v", loaded.Remote)
	}
	if got := loaded.RetryBaseDelay(); got != 3*time.Second {
		t.Errorf("RetryBaseDelay = %v, want 3s", got)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
