package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if errWrite := os.WriteFile(path, []byte(content), 0644); errWrite != nil {
		t.Fatalf("write config: %v", errWrite)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, "jwt:\n  secret: test-secret\n")

	cfg, errLoad := Load(path)
	if errLoad != nil {
		t.Fatalf("load: %v", errLoad)
	}
	if cfg.Server.Addr != ":8318" {
		t.Fatalf("expected default addr, got %q", cfg.Server.Addr)
	}
	if cfg.Database.DSN != "cookiedeck.db" {
		t.Fatalf("expected default dsn, got %q", cfg.Database.DSN)
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("expected default log level, got %q", cfg.Log.Level)
	}
}

func TestLoadRejectsMissingJWTSecret(t *testing.T) {
	path := writeTempConfig(t, "server:\n  addr: \":9000\"\n")

	if _, errLoad := Load(path); errLoad == nil {
		t.Fatalf("expected error for missing jwt secret")
	}
}

func TestJWTExpiryDefault(t *testing.T) {
	cfg := JWTConfig{Secret: "s"}
	if cfg.Expiry().Hours() != 72 {
		t.Fatalf("expected 72h default expiry, got %v", cfg.Expiry())
	}
	cfg.ExpiryHours = 2
	if cfg.Expiry().Hours() != 2 {
		t.Fatalf("expected 2h expiry, got %v", cfg.Expiry())
	}
}

func TestResolveConfigPathPrecedence(t *testing.T) {
	t.Setenv(ConfigPathEnv, "/etc/cookiedeck/env.yaml")

	if got := ResolveConfigPath("flag.yaml"); got != "flag.yaml" {
		t.Fatalf("flag path must win, got %q", got)
	}
	if got := ResolveConfigPath(""); got != "/etc/cookiedeck/env.yaml" {
		t.Fatalf("env path must win over default, got %q", got)
	}

	t.Setenv(ConfigPathEnv, "")
	if got := ResolveConfigPath(" "); got != DefaultConfigFile {
		t.Fatalf("expected default path, got %q", got)
	}
}
