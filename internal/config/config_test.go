package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
host: "0.0.0.0"
port: 8080
app-name: "my-gateway"
logging-level: "debug"
request-log: true
upstream:
  base-url: "http://127.0.0.1:9090"
  api-key: "sk-test"
  timeout-seconds: 60
  models:
    - gpt-4o
    - gpt-4o-mini
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Host != "0.0.0.0" || cfg.Port != 8080 {
		t.Fatalf("listen settings: %+v", cfg)
	}
	if cfg.AppName != "my-gateway" {
		t.Fatalf("app name %q", cfg.AppName)
	}
	if !cfg.RequestLog {
		t.Fatal("request-log not parsed")
	}
	if cfg.Upstream.BaseURL != "http://127.0.0.1:9090" || cfg.Upstream.APIKey != "sk-test" {
		t.Fatalf("upstream: %+v", cfg.Upstream)
	}
	if len(cfg.Upstream.Models) != 2 || cfg.Upstream.Models[0] != "gpt-4o" {
		t.Fatalf("models: %v", cfg.Upstream.Models)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `upstream: {base-url: "http://x"}`))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Port != DefaultPort {
		t.Fatalf("default port: %d", cfg.Port)
	}
	if cfg.AppName != DefaultAppName {
		t.Fatalf("default app name: %q", cfg.AppName)
	}
	if cfg.LoggingLevel != "info" {
		t.Fatalf("default logging level: %q", cfg.LoggingLevel)
	}
	if cfg.LogDir != "logs" {
		t.Fatalf("default log dir: %q", cfg.LogDir)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadConfigMalformedYAML(t *testing.T) {
	if _, err := LoadConfig(writeConfig(t, "port: [not a number")); err == nil {
		t.Fatal("expected parse error")
	}
}
