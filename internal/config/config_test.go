package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

func TestLoadDatabaseDSN_FromFile(t *testing.T) {
	path := writeConfigFile(t, "database-dsn: file:test.db\n")

	dsn, err := LoadDatabaseDSN(path)
	if err != nil {
		t.Fatalf("LoadDatabaseDSN: %v", err)
	}
	if dsn != "file:test.db" {
		t.Fatalf("unexpected dsn %q", dsn)
	}
}

func TestLoadDatabaseDSN_NestedForm(t *testing.T) {
	path := writeConfigFile(t, "database:\n  dsn: file:nested.db\n")

	dsn, err := LoadDatabaseDSN(path)
	if err != nil {
		t.Fatalf("LoadDatabaseDSN: %v", err)
	}
	if dsn != "file:nested.db" {
		t.Fatalf("unexpected dsn %q", dsn)
	}
}

func TestLoadDatabaseDSN_EnvWins(t *testing.T) {
	path := writeConfigFile(t, "database-dsn: file:file.db\n")
	t.Setenv(EnvDBConnection, "file:env.db")

	dsn, err := LoadDatabaseDSN(path)
	if err != nil {
		t.Fatalf("LoadDatabaseDSN: %v", err)
	}
	if dsn != "file:env.db" {
		t.Fatalf("expected env to win, got %q", dsn)
	}
}

func TestLoadDatabaseDSN_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")
	if _, err := LoadDatabaseDSN(path); !errors.Is(err, ErrMissingDatabaseDSN) {
		t.Fatalf("expected ErrMissingDatabaseDSN, got %v", err)
	}
}

func TestLoadJWTConfig_Defaults(t *testing.T) {
	path := writeConfigFile(t, "jwt:\n  secret: topsecret\n")

	cfg, err := LoadJWTConfig(path)
	if err != nil {
		t.Fatalf("LoadJWTConfig: %v", err)
	}
	if cfg.Secret != "topsecret" {
		t.Fatalf("unexpected secret %q", cfg.Secret)
	}
	if cfg.Expiry != 30*24*time.Hour {
		t.Fatalf("expected default expiry, got %v", cfg.Expiry)
	}
}

func TestLoadJWTConfig_EnvOverride(t *testing.T) {
	path := writeConfigFile(t, "jwt:\n  secret: file-secret\n  expiry: 1h\n")
	t.Setenv(EnvJWTSecret, "env-secret")
	t.Setenv(EnvJWTExpiry, "15m")

	cfg, err := LoadJWTConfig(path)
	if err != nil {
		t.Fatalf("LoadJWTConfig: %v", err)
	}
	if cfg.Secret != "env-secret" {
		t.Fatalf("expected env secret, got %q", cfg.Secret)
	}
	if cfg.Expiry != 15*time.Minute {
		t.Fatalf("expected env expiry, got %v", cfg.Expiry)
	}
}

func TestLoadGatewayConfig_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")

	cfg, err := LoadGatewayConfig(path)
	if err != nil {
		t.Fatalf("LoadGatewayConfig: %v", err)
	}
	if cfg.UpstreamTimeout != 60*time.Second {
		t.Fatalf("expected 60s default upstream timeout, got %v", cfg.UpstreamTimeout)
	}
	if cfg.RateLimit != 0 {
		t.Fatalf("expected rate limiting disabled by default, got %d", cfg.RateLimit)
	}
}

func TestLoadGatewayConfig_FromFileAndEnv(t *testing.T) {
	path := writeConfigFile(t, "gateway:\n  upstream-timeout: 5s\n  rate-limit: 10\n")

	cfg, err := LoadGatewayConfig(path)
	if err != nil {
		t.Fatalf("LoadGatewayConfig: %v", err)
	}
	if cfg.UpstreamTimeout != 5*time.Second || cfg.RateLimit != 10 {
		t.Fatalf("unexpected gateway config %+v", cfg)
	}

	t.Setenv(EnvUpstreamTimeout, "2s")
	t.Setenv(EnvRateLimit, "3")
	cfg, err = LoadGatewayConfig(path)
	if err != nil {
		t.Fatalf("LoadGatewayConfig: %v", err)
	}
	if cfg.UpstreamTimeout != 2*time.Second || cfg.RateLimit != 3 {
		t.Fatalf("expected env overrides, got %+v", cfg)
	}
}

func TestLoadSealerKey_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")
	if _, err := LoadSealerKey(path); !errors.Is(err, ErrMissingSealerKey) {
		t.Fatalf("expected ErrMissingSealerKey, got %v", err)
	}
}

func TestLoadRedisConfig_DefaultPrefix(t *testing.T) {
	path := writeConfigFile(t, "redis:\n  addr: localhost:6379\n")

	cfg, err := LoadRedisConfig(path)
	if err != nil {
		t.Fatalf("LoadRedisConfig: %v", err)
	}
	if cfg.Addr != "localhost:6379" {
		t.Fatalf("unexpected addr %q", cfg.Addr)
	}
	if cfg.Prefix != "mcpflow" {
		t.Fatalf("expected default prefix, got %q", cfg.Prefix)
	}
}

func TestLoadAdminConfig(t *testing.T) {
	path := writeConfigFile(t, "admin:\n  username: root\n  password: changeme\n")

	cfg, err := LoadAdminConfig(path)
	if err != nil {
		t.Fatalf("LoadAdminConfig: %v", err)
	}
	if cfg.Username != "root" || cfg.Password != "changeme" {
		t.Fatalf("unexpected admin config %+v", cfg)
	}
}
