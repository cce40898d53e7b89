package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeTestConfig(t, `
[llm]
enabled  = true
provider = "anthropic"
api_key  = "sk-ant-test"
model    = "claude-sonnet-4-5-20250514"

[intel]
endpoint   = "https://intel.example.com"
api_key    = "intel-key"
cache_size = 64

[server]
addr         = ":9090"
api_key      = "hook-key"
callback_url = "https://soc.example.com/callback"

[storage]
database_url = "postgres://triage:pw@localhost:5432/triage"

[analysis]
adjust_severity = true
similarity      = false

[output]
dir = "out"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.LLM.Provider != "anthropic" {
		t.Errorf("provider = %q, want %q", cfg.LLM.Provider, "anthropic")
	}
	if cfg.Intel.Endpoint != "https://intel.example.com" {
		t.Errorf("intel.endpoint = %q", cfg.Intel.Endpoint)
	}
	if cfg.Intel.CacheSize != 64 {
		t.Errorf("intel.cache_size = %d, want 64", cfg.Intel.CacheSize)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("server.addr = %q, want :9090", cfg.Server.Addr)
	}
	if cfg.Storage.DatabaseURL == "" {
		t.Error("storage.database_url not loaded")
	}
	if cfg.Analysis.Similarity {
		t.Error("analysis.similarity should be disabled")
	}
	if !cfg.Analysis.AdjustSeverity {
		t.Error("analysis.adjust_severity should be enabled")
	}
	if cfg.Output.Dir != "out" {
		t.Errorf("output.dir = %q, want %q", cfg.Output.Dir, "out")
	}
}

func TestLoad_LLMDisabledNeedsNothing(t *testing.T) {
	path := writeTestConfig(t, `
[output]
dir = "out"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LLM.Enabled {
		t.Error("llm should default to disabled")
	}
}

func TestLoad_ValidOllamaConfig(t *testing.T) {
	path := writeTestConfig(t, `
[llm]
enabled  = true
provider = "ollama"
model    = "foundation-sec:8b"
endpoint = "http://localhost:11434"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.LLM.Provider != "ollama" {
		t.Errorf("provider = %q, want %q", cfg.LLM.Provider, "ollama")
	}
	if cfg.LLM.APIKey != "" {
		t.Errorf("ollama should not require api_key, got %q", cfg.LLM.APIKey)
	}
}

func TestLoad_MissingProvider(t *testing.T) {
	path := writeTestConfig(t, `
[llm]
enabled = true
model   = "gpt-4o"
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for missing provider")
	}
}

func TestLoad_MissingAPIKey(t *testing.T) {
	path := writeTestConfig(t, `
[llm]
enabled  = true
provider = "openai"
model    = "gpt-4o"
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for missing api_key with openai provider")
	}
}

func TestLoad_MissingModel(t *testing.T) {
	path := writeTestConfig(t, `
[llm]
enabled  = true
provider = "ollama"
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for missing model")
	}
}

func TestLoad_UnsupportedProvider(t *testing.T) {
	path := writeTestConfig(t, `
[llm]
enabled  = true
provider = "gemini"
api_key  = "test"
model    = "gemini-pro"
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for unsupported provider")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeTestConfig(t, `
[llm]
enabled  = true
provider = "anthropic"
api_key  = "from-file"
model    = "claude-sonnet-4-5-20250514"

[intel]
api_key = "intel-from-file"
`)

	t.Setenv("TRIAGE_API_KEY", "from-env")
	t.Setenv("TRIAGE_INTEL_KEY", "intel-from-env")
	t.Setenv("TRIAGE_DB_URL", "postgres://env")
	t.Setenv("TRIAGE_SERVER_KEY", "server-from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.LLM.APIKey != "from-env" {
		t.Errorf("llm api_key = %q, want env override", cfg.LLM.APIKey)
	}
	if cfg.Intel.APIKey != "intel-from-env" {
		t.Errorf("intel api_key = %q, want env override", cfg.Intel.APIKey)
	}
	if cfg.Storage.DatabaseURL != "postgres://env" {
		t.Errorf("database_url = %q, want env override", cfg.Storage.DatabaseURL)
	}
	if cfg.Server.APIKey != "server-from-env" {
		t.Errorf("server api_key = %q, want env override", cfg.Server.APIKey)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeTestConfig(t, `
[analysis]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Output.Dir != "output" {
		t.Errorf("output.dir = %q, want default %q", cfg.Output.Dir, "output")
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("server.addr = %q, want default :8080", cfg.Server.Addr)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.toml")
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
	errMsg := err.Error()
	if !strings.Contains(errMsg, "not found") {
		t.Errorf("error should mention 'not found', got: %s", errMsg)
	}
	if !strings.Contains(errMsg, "config.example.toml") {
		t.Errorf("error should mention config.example.toml, got: %s", errMsg)
	}
}

func TestLoad_ProviderCaseInsensitive(t *testing.T) {
	path := writeTestConfig(t, `
[llm]
enabled  = true
provider = "Anthropic"
api_key  = "test"
model    = "claude-sonnet-4-5-20250514"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.LLM.Provider != "anthropic" {
		t.Errorf("provider = %q, want normalized %q", cfg.LLM.Provider, "anthropic")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if !cfg.Analysis.AdjustSeverity || !cfg.Analysis.Similarity || !cfg.Analysis.SigmaRules {
		t.Error("default config should enable optional analysis stages")
	}
	if cfg.LLM.Enabled {
		t.Error("default config should not enable llm")
	}
}
