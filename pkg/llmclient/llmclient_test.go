package llmclient

import (
	"strings"
	"testing"
)

func TestResolveAppliesProviderPreset(t *testing.T) {
	t.Parallel()

	cfg := Config{Provider: "groq"}
	baseURL, model, err := cfg.Resolve()
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if baseURL != "https://api.groq.com/openai/v1" {
		t.Fatalf("unexpected base url: %s", baseURL)
	}
	if model != "mixtral-8x7b-32768" {
		t.Fatalf("unexpected model: %s", model)
	}
}

func TestResolveExplicitValuesWin(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Provider: "together",
		BaseURL:  "https://proxy.internal/v1/",
		Model:    "meta-llama/Llama-3-70b",
	}
	baseURL, model, err := cfg.Resolve()
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if baseURL != "https://proxy.internal/v1" {
		t.Fatalf("expected trailing slash trimmed, got %s", baseURL)
	}
	if model != "meta-llama/Llama-3-70b" {
		t.Fatalf("unexpected model: %s", model)
	}
}

func TestResolveUnknownProvider(t *testing.T) {
	t.Parallel()

	cfg := Config{Provider: "carrier-pigeon"}
	if _, _, err := cfg.Resolve(); err == nil {
		t.Fatal("expected error for unknown provider")
	}

	cfg.BaseURL = "https://pigeon.example/v1"
	cfg.Model = "homing-1"
	if _, _, err := cfg.Resolve(); err != nil {
		t.Fatalf("explicit base url and model must satisfy Resolve, got %v", err)
	}
}

func TestResolveOpenRouterRequiresModel(t *testing.T) {
	t.Parallel()

	cfg := Config{Provider: "openrouter"}
	_, _, err := cfg.Resolve()
	if err == nil {
		t.Fatal("expected error when no model is configured")
	}
	if !strings.Contains(err.Error(), "model is required") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Parallel()

	if client := NewClient(Config{Provider: "groq"}); client != nil {
		t.Fatal("expected nil client without an api key")
	}
	if client := NewClient(Config{Provider: "groq", APIKey: "sk-123"}); client == nil {
		t.Fatal("expected client with an api key")
	}
}
