package registry

import (
	"testing"

	"keymaster-proxy-go/internal/config"
)

func testConfig(openaiKey, cohereKey, hfKey string) *config.Config {
	return &config.Config{
		Providers: config.ProvidersConfig{
			OpenAI:      config.ProviderConfig{APIKey: openaiKey, BaseURL: config.DefaultOpenAIBaseURL},
			Cohere:      config.ProviderConfig{APIKey: cohereKey, BaseURL: config.DefaultCohereBaseURL},
			HuggingFace: config.ProviderConfig{APIKey: hfKey, BaseURL: config.DefaultHuggingFaceBaseURL},
		},
	}
}

func TestNew_RegistersConfiguredProviders(t *testing.T) {
	reg, err := New(testConfig("sk-1", "co-1", "hf-1"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	openai, ok := reg.Resolve(TokenOpenAI)
	if !ok {
		t.Fatal("Resolve(openai) not found")
	}
	if openai.Provider != "openai" {
		t.Errorf("Provider = %q, want %q", openai.Provider, "openai")
	}
	if openai.Credential != "sk-1" {
		t.Errorf("Credential = %q, want %q", openai.Credential, "sk-1")
	}
	if openai.BaseURL.String() != config.DefaultOpenAIBaseURL {
		t.Errorf("BaseURL = %q, want %q", openai.BaseURL.String(), config.DefaultOpenAIBaseURL)
	}
	if openai.Gated {
		t.Error("openai route should not be gated")
	}
	if openai.StripPrefix != "" {
		t.Errorf("openai StripPrefix = %q, want empty", openai.StripPrefix)
	}

	hf, ok := reg.Resolve(TokenHuggingFace)
	if !ok {
		t.Fatal("Resolve(hugging_face) not found")
	}
	if !hf.Gated {
		t.Error("huggingface route should be gated")
	}
	if hf.StripPrefix != "/hf" {
		t.Errorf("huggingface StripPrefix = %q, want %q", hf.StripPrefix, "/hf")
	}
}

func TestNew_AbsentCredentialNotRegistered(t *testing.T) {
	reg, err := New(testConfig("sk-1", "", ""))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, ok := reg.Resolve(TokenCohere); ok {
		t.Error("Resolve(cohere) should fail without a configured key")
	}
	if _, ok := reg.Resolve(TokenHuggingFace); ok {
		t.Error("Resolve(hugging_face) should fail without a configured key")
	}
	if _, ok := reg.Resolve(TokenOpenAI); !ok {
		t.Error("Resolve(openai) should succeed")
	}
}

func TestResolve_ExactMatchOnly(t *testing.T) {
	reg, err := New(testConfig("sk-1", "co-1", "hf-1"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for _, token := range []string{"OpenAI", "OPENAI", " openai", "openai ", "openai2", ""} {
		if _, ok := reg.Resolve(token); ok {
			t.Errorf("Resolve(%q) should fail; only exact matches resolve", token)
		}
	}
}

func TestResolve_Idempotent(t *testing.T) {
	reg, err := New(testConfig("sk-1", "", ""))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	first, ok := reg.Resolve(TokenOpenAI)
	if !ok {
		t.Fatal("Resolve(openai) not found")
	}
	second, ok := reg.Resolve(TokenOpenAI)
	if !ok {
		t.Fatal("Resolve(openai) not found on second call")
	}
	if first != second {
		t.Error("repeated Resolve should yield the same route value")
	}
}

func TestGated_AvailableWithoutCredential(t *testing.T) {
	reg, err := New(testConfig("", "", ""))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	gated := reg.Gated()
	if gated == nil {
		t.Fatal("Gated() = nil; anonymous pass-through needs the gated upstream")
	}
	if gated.Credential != "" {
		t.Errorf("Credential = %q, want empty", gated.Credential)
	}
	if gated.StripPrefix != "/hf" {
		t.Errorf("StripPrefix = %q, want %q", gated.StripPrefix, "/hf")
	}
}

func TestRoutes_DefinitionOrder(t *testing.T) {
	reg, err := New(testConfig("sk-1", "co-1", "hf-1"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	routes := reg.Routes()
	if len(routes) != 3 {
		t.Fatalf("len(Routes()) = %d, want 3", len(routes))
	}
	want := []string{"openai", "cohere", "huggingface"}
	for i, route := range routes {
		if route.Provider != want[i] {
			t.Errorf("Routes()[%d].Provider = %q, want %q", i, route.Provider, want[i])
		}
	}
}

func TestNew_InvalidBaseURL(t *testing.T) {
	cfg := testConfig("sk-1", "", "")
	cfg.Providers.OpenAI.BaseURL = "://not-a-url"

	if _, err := New(cfg); err == nil {
		t.Fatal("New() expected error for invalid base URL, got nil")
	}
}
