package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "SAVE_DEBOUNCE_MS", "AI_PROVIDER", "REDIS_ADDR"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.SaveDebounce != 2000*time.Millisecond {
		t.Fatalf("expected 2s default debounce, got %v", cfg.SaveDebounce)
	}
	if cfg.AIProvider != "gemini" {
		t.Fatalf("expected gemini provider, got %q", cfg.AIProvider)
	}
	if cfg.RedisAddr != "" {
		t.Fatalf("bridge must default to disabled, got %q", cfg.RedisAddr)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("SAVE_DEBOUNCE_MS", "500")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9000" {
		t.Fatalf("expected port 9000, got %q", cfg.Port)
	}
	if cfg.SaveDebounce != 500*time.Millisecond {
		t.Fatalf("expected 500ms debounce, got %v", cfg.SaveDebounce)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Fatalf("expected redis addr, got %q", cfg.RedisAddr)
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	t.Setenv("AI_PROVIDER", "oracle")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unsupported provider")
	}
}

func TestLoadRejectsNonPositiveDebounce(t *testing.T) {
	t.Setenv("SAVE_DEBOUNCE_MS", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for zero debounce")
	}
}
