package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidatorRequireNonEmpty(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		wantError bool
	}{
		{name: "non-empty value", value: "valid", wantError: false},
		{name: "empty value", value: "", wantError: true},
		{name: "whitespace only", value: "   ", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator()
			v.RequireNonEmpty("test_field", tt.value)
			if v.HasErrors() != tt.wantError {
				t.Errorf("HasErrors() = %v, want %v", v.HasErrors(), tt.wantError)
			}
		})
	}
}

func TestValidatorAccumulatesErrors(t *testing.T) {
	v := NewValidator()
	v.RequireNonEmpty("a", "").
		RequirePositive("b", 0).
		ValidateOneOf("c", "nope", "yes", "no")

	if len(v.Errors()) != 3 {
		t.Fatalf("expected 3 errors, got %d", len(v.Errors()))
	}
	err := v.Error()
	if err == nil {
		t.Fatal("expected combined error")
	}
	for _, field := range []string{"a", "b", "c"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("combined error missing field %q: %s", field, err)
		}
	}
}

func TestValidatorRanges(t *testing.T) {
	v := NewValidator()
	v.ValidateRange("k", 3, 1, 10).
		ValidateFloatRange("temp", 0.7, 0, 2).
		ValidatePort("port", 5432)
	if v.HasErrors() {
		t.Fatalf("in-range values flagged: %v", v.Errors())
	}

	v = NewValidator()
	v.ValidateRange("k", 0, 1, 10).
		ValidateFloatRange("temp", 2.5, 0, 2).
		ValidatePort("port", 90000)
	if len(v.Errors()) != 3 {
		t.Fatalf("expected 3 range errors, got %d", len(v.Errors()))
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := &Config{
		Provider:    ProviderOpenAI,
		OpenAIKey:   "sk-test",
		Mode:        "responsible",
		TopK:        3,
		CallTimeout: time.Minute,
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cfg.Provider = "mystery"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown provider must be rejected")
	}

	cfg.Provider = ProviderClaude
	if err := cfg.Validate(); err == nil {
		t.Error("claude provider without an anthropic key must be rejected")
	}
	cfg.AnthropicKey = "sk-ant-test"
	if err := cfg.Validate(); err != nil {
		t.Errorf("claude config with key rejected: %v", err)
	}
}

func TestConfigValidateIndexingNeedsEmbeddingKey(t *testing.T) {
	cfg := &Config{
		Provider:     ProviderClaude,
		AnthropicKey: "sk-ant-test",
		Mode:         "grounded",
		TopK:         3,
		CorpusDir:    "corpus",
	}
	if err := cfg.ValidateIndexing(); err == nil {
		t.Error("indexing without an embedding key must be rejected")
	}
	cfg.OpenAIKey = "sk-test"
	if err := cfg.ValidateIndexing(); err != nil {
		t.Errorf("indexing config rejected: %v", err)
	}
}

func TestAPIKeySelection(t *testing.T) {
	cfg := &Config{
		OpenAIKey:    "open",
		AnthropicKey: "anthropic",
		GeminiKey:    "gemini",
	}
	cases := map[string]string{
		ProviderOpenAI: "open",
		ProviderClaude: "anthropic",
		ProviderGemini: "gemini",
	}
	for provider, want := range cases {
		cfg.Provider = provider
		if got := cfg.APIKey(); got != want {
			t.Errorf("APIKey(%s) = %q, want %q", provider, got, want)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("VERACITY_TOP_K", "")
	t.Setenv("VERACITY_MODE", "")
	t.Setenv("VERACITY_CALL_TIMEOUT", "")

	cfg := Load()
	if cfg.TopK != 3 {
		t.Errorf("default top_k = %d, want 3", cfg.TopK)
	}
	if cfg.Mode != "responsible" {
		t.Errorf("default mode = %q, want responsible", cfg.Mode)
	}
	if cfg.CallTimeout != 60*time.Second {
		t.Errorf("default call timeout = %v, want 60s", cfg.CallTimeout)
	}
}
