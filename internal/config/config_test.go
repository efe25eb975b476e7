package config

import (
	"strings"
	"testing"
	"time"
)

const minimalYAML = `
github:
  token: ghp_test
  owner: acme
  repo: widget
  webhook_secret: wh-secret
providers:
  llm:
    type: anthropic
    api_key: sk-test
`

func TestParse_Minimal(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	if cfg.GitHub.Token != "ghp_test" {
		t.Errorf("expected token ghp_test, got %q", cfg.GitHub.Token)
	}
	if cfg.GitHub.FullName() != "acme/widget" {
		t.Errorf("expected acme/widget, got %q", cfg.GitHub.FullName())
	}
	if cfg.Providers.LLM.Type != "anthropic" {
		t.Errorf("expected anthropic provider, got %q", cfg.Providers.LLM.Type)
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	if cfg.Server.Port != 8000 {
		t.Errorf("expected default port 8000, got %d", cfg.Server.Port)
	}
	if cfg.Server.Addr() != "0.0.0.0:8000" {
		t.Errorf("expected default addr 0.0.0.0:8000, got %q", cfg.Server.Addr())
	}
	if cfg.GitHub.Auth != "token" {
		t.Errorf("expected default auth token, got %q", cfg.GitHub.Auth)
	}
	if cfg.Analysis.MaxTokens != 4000 {
		t.Errorf("expected default max_tokens 4000, got %d", cfg.Analysis.MaxTokens)
	}
	if cfg.Analysis.Temperature != 0.1 {
		t.Errorf("expected default temperature 0.1, got %f", cfg.Analysis.Temperature)
	}
	if cfg.Batch.Workers != 3 {
		t.Errorf("expected default workers 3, got %d", cfg.Batch.Workers)
	}
	if cfg.Vector.TopK != 5 {
		t.Errorf("expected default top_k 5, got %d", cfg.Vector.TopK)
	}

	if d, err := cfg.Analysis.RequestTimeout(); err != nil || d != 90*time.Second {
		t.Errorf("expected default request timeout 90s, got %v (%v)", d, err)
	}
	if d, err := cfg.Analysis.GitHubTimeout(); err != nil || d != 15*time.Second {
		t.Errorf("expected default github timeout 15s, got %v (%v)", d, err)
	}
}

func TestParse_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_GH_TOKEN", "ghp_from_env")

	yaml := strings.Replace(minimalYAML, "ghp_test", "${TEST_GH_TOKEN}", 1)
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if cfg.GitHub.Token != "ghp_from_env" {
		t.Errorf("expected expanded token, got %q", cfg.GitHub.Token)
	}
}

func TestParse_MissingEnvVar(t *testing.T) {
	yaml := strings.Replace(minimalYAML, "ghp_test", "${DEFINITELY_NOT_SET_12345}", 1)
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("expected error for missing env var")
	}
	if !strings.Contains(err.Error(), "DEFINITELY_NOT_SET_12345") {
		t.Errorf("expected error to name the missing variable, got %v", err)
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(string) string
	}{
		{"missing_token", func(s string) string { return strings.Replace(s, "token: ghp_test", "token: \"\"", 1) }},
		{"missing_owner", func(s string) string { return strings.Replace(s, "owner: acme", "owner: \"\"", 1) }},
		{"bad_auth", func(s string) string { return strings.Replace(s, "github:", "github:\n  auth: oauth", 1) }},
		{"bad_port", func(s string) string { return s + "\nserver:\n  port: 70000\n" }},
		{"bad_temperature", func(s string) string { return s + "\nanalysis:\n  temperature: 1.5\n" }},
		{"bad_workers", func(s string) string { return s + "\nbatch:\n  workers: 99\n" }},
		{"bad_timeout", func(s string) string { return s + "\nanalysis:\n  request_timeout: ninety\n" }},
		{"bad_embed_type", func(s string) string {
			return strings.Replace(s, "providers:", "providers:\n  embedding:\n    type: pinecone", 1)
		}},
		{"bad_llm_type", func(s string) string { return strings.Replace(s, "type: anthropic", "type: bedrock", 1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.mutate(minimalYAML))); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestParse_AppAuthRequiresIDs(t *testing.T) {
	yaml := `
github:
  auth: app
  owner: acme
  repo: widget
providers:
  llm:
    type: openai
    api_key: sk-test
`
	if _, err := Parse([]byte(yaml)); err == nil {
		t.Fatal("expected error for app auth without app_id")
	}

	yaml = strings.Replace(yaml, "auth: app", "auth: app\n  app_id: \"123\"\n  installation_id: \"456\"", 1)
	if _, err := Parse([]byte(yaml)); err != nil {
		t.Fatalf("expected app auth with ids to validate, got %v", err)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("github: [not: valid")); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}
