package biomasa

import (
	"testing"

	"github.com/Evils19/BioMasa/pkg/config"
)

func TestNewFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Local.ModelPath = "" // no local model in the test environment

	app, err := NewFromConfig(cfg)
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}
	defer app.Close()

	if app.LocalModelAvailable() {
		t.Error("no local model configured, but predictor reports available")
	}
}

func TestNewFromConfigOllamaBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Local.ModelPath = ""
	cfg.Remote.Backend = "ollama"
	cfg.Remote.URL = "http://localhost:11434"
	cfg.Remote.Model = "llama3.2-vision"

	app, err := NewFromConfig(cfg)
	if err != nil {
		t.Fatalf("NewFromConfig with ollama backend failed: %v", err)
	}
	app.Close()
}

func TestNewFromConfigRejectsInvalid(t *testing.T) {
	cfg := config.Default()
	cfg.Remote.Backend = "carrier-pigeon"

	if _, err := NewFromConfig(cfg); err == nil {
		t.Error("invalid backend must be rejected")
	}
}

func TestNewFromConfigRejectsEmptyModel(t *testing.T) {
	cfg := config.Default()
	cfg.Remote.Model = ""

	if _, err := NewFromConfig(cfg); err == nil {
		t.Error("empty remote model must be rejected")
	}
}
