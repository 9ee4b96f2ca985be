package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
llm_model: gpt-4o-mini
knowledge:
  articles_path: data/articles.yaml
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Knowledge.ConfidenceThreshold != 0.7 {
		t.Errorf("ConfidenceThreshold = %v, want 0.7", cfg.Knowledge.ConfidenceThreshold)
	}
	if cfg.Knowledge.TopK != 3 {
		t.Errorf("TopK = %v, want 3", cfg.Knowledge.TopK)
	}
	if cfg.CheckpointTTL != 24*time.Hour {
		t.Errorf("CheckpointTTL = %v, want 24h", cfg.CheckpointTTL)
	}
	if got := cfg.Escalation.AlwaysEscalate; len(got) != 1 || got[0] != "legal" {
		t.Errorf("AlwaysEscalate = %v, want [legal]", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("Load() expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "valid with mock provider",
			mutate: func(c *Config) { c.Knowledge.Provider = "mock" },
		},
		{
			name:    "openai provider without key",
			mutate:  func(c *Config) { c.OpenAIKey = "" },
			wantErr: true,
		},
		{
			name:    "threshold out of range",
			mutate:  func(c *Config) { c.Knowledge.Provider = "mock"; c.Knowledge.ConfidenceThreshold = 1.5 },
			wantErr: true,
		},
		{
			name:    "top_k below one",
			mutate:  func(c *Config) { c.Knowledge.Provider = "mock"; c.Knowledge.TopK = -1 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.OpenAIKey = ""
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnvFallback(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	cfg := Default()
	if cfg.OpenAIKey != "sk-test" {
		t.Errorf("OpenAIKey = %q, want env fallback", cfg.OpenAIKey)
	}
}
