package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAddrDefaults(t *testing.T) {
	c := &Config{}
	if got := c.Addr(); got != "0.0.0.0:8080" {
		t.Fatalf("expected default addr; got %q", got)
	}
	c.Server.Address = "127.0.0.1"
	c.Server.Port = 9090
	if got := c.Addr(); got != "127.0.0.1:9090" {
		t.Fatalf("unexpected addr %q", got)
	}
}

func TestDatabaseNameDefault(t *testing.T) {
	c := &Config{}
	if got := c.DatabaseName(); got != "chatdb" {
		t.Fatalf("expected default database name; got %q", got)
	}
	c.Storage.Database = "other"
	if got := c.DatabaseName(); got != "other" {
		t.Fatalf("unexpected database name %q", got)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
server:
  address: "10.0.0.1"
  port: 9000
  rate_limit:
    rps: 2.5
    burst: 20
storage:
  uri: "mongodb://db:27017"
  database: "chat_prod"
logging:
  level: "debug"
  format: "json"
reports:
  enabled: true
  cron: "0 3 * * *"
  window_days: 7
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr() != "10.0.0.1:9000" {
		t.Fatalf("unexpected addr %q", cfg.Addr())
	}
	if cfg.Storage.URI != "mongodb://db:27017" || cfg.DatabaseName() != "chat_prod" {
		t.Fatalf("unexpected storage config %+v", cfg.Storage)
	}
	if cfg.Server.RateLimit.RPS != 2.5 || cfg.Server.RateLimit.Burst != 20 {
		t.Fatalf("unexpected rate limit %+v", cfg.Server.RateLimit)
	}
	if !cfg.Reports.Enabled || cfg.Reports.Cron != "0 3 * * *" || cfg.Reports.WindowDays != 7 {
		t.Fatalf("unexpected reports config %+v", cfg.Reports)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for a missing config file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CHATDB_ADDR", "0.0.0.0:9999")
	t.Setenv("CHATDB_MONGO_URI", "mongodb://env:27017")
	t.Setenv("CHATDB_DATABASE", "envdb")
	t.Setenv("CHATDB_LOG_LEVEL", " DEBUG ")
	t.Setenv("CHATDB_REPORTS_ENABLED", "true")
	t.Setenv("CHATDB_REPORTS_WINDOW_DAYS", "3")

	cfg := &Config{}
	if !LoadEnvOverrides(cfg) {
		t.Fatalf("env overrides must be reported as used")
	}
	if cfg.Server.Address != "0.0.0.0" || cfg.Server.Port != 9999 {
		t.Fatalf("addr env must split host and port: %+v", cfg.Server)
	}
	if cfg.Storage.URI != "mongodb://env:27017" || cfg.Storage.Database != "envdb" {
		t.Fatalf("unexpected storage config %+v", cfg.Storage)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("log level must be trimmed and lowered: %q", cfg.Logging.Level)
	}
	if !cfg.Reports.Enabled || cfg.Reports.WindowDays != 3 {
		t.Fatalf("unexpected reports config %+v", cfg.Reports)
	}
}

func TestEnvOverridesUnset(t *testing.T) {
	for _, k := range []string{
		"CHATDB_ADDR", "CHATDB_MONGO_URI", "CHATDB_DATABASE",
		"CHATDB_LOG_LEVEL", "CHATDB_LOG_FORMAT",
		"CHATDB_RATE_RPS", "CHATDB_RATE_BURST",
		"CHATDB_REPORTS_ENABLED", "CHATDB_REPORTS_CRON", "CHATDB_REPORTS_WINDOW_DAYS",
		"CHATDB_TLS_CERT", "CHATDB_TLS_KEY",
	} {
		t.Setenv(k, "")
	}
	cfg := &Config{}
	if LoadEnvOverrides(cfg) {
		t.Fatalf("no env vars set, none must be reported")
	}
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv("CHATDB_CONFIG", "/etc/chatdb.yaml")
	if got := ResolveConfigPath("./config.yaml", true); got != "./config.yaml" {
		t.Fatalf("explicit flag must win: %q", got)
	}
	if got := ResolveConfigPath("./config.yaml", false); got != "/etc/chatdb.yaml" {
		t.Fatalf("env must win over the flag default: %q", got)
	}
	t.Setenv("CHATDB_CONFIG", "")
	if got := ResolveConfigPath("./config.yaml", false); got != "./config.yaml" {
		t.Fatalf("flag default must be the fallback: %q", got)
	}
}
