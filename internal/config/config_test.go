package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	// t.Setenv registers the restore; the vars must be absent, not empty,
	// for envDefault to apply.
	for _, key := range []string{"PEACEWAR_ADDR", "PEACEWAR_DATABASE_URL", "PEACEWAR_DEBUG"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("default addr %q, want :8080", cfg.Addr)
	}
	if cfg.DatabaseURL != "" {
		t.Fatalf("default database url %q, want empty", cfg.DatabaseURL)
	}
	if cfg.Debug {
		t.Fatal("debug enabled by default")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PEACEWAR_ADDR", ":9999")
	t.Setenv("PEACEWAR_DATABASE_URL", "postgres://localhost/peacewar")
	t.Setenv("PEACEWAR_DEBUG", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9999" || cfg.DatabaseURL != "postgres://localhost/peacewar" || !cfg.Debug {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoadRejectsBadBool(t *testing.T) {
	t.Setenv("PEACEWAR_DEBUG", "definitely")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed PEACEWAR_DEBUG")
	}
}
