package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("default port = %q", cfg.Port)
	}
	if cfg.DefaultLLMProvider != "mock" {
		t.Errorf("default provider = %q", cfg.DefaultLLMProvider)
	}
	if cfg.MaxUploadSizeMB != 10 {
		t.Errorf("default upload limit = %d", cfg.MaxUploadSizeMB)
	}
	if cfg.JobTTL != time.Hour {
		t.Errorf("default job ttl = %s", cfg.JobTTL)
	}
	if cfg.ComplexCommentThreshold != 5 {
		t.Errorf("default complex threshold = %d", cfg.ComplexCommentThreshold)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("DEFAULT_LLM_PROVIDER", "gemini")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Port != "9999" {
		t.Errorf("env port not applied: %q", cfg.Port)
	}
	if cfg.DefaultLLMProvider != "gemini" {
		t.Errorf("env provider not applied: %q", cfg.DefaultLLMProvider)
	}
}
