package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
quiz:
  fetchTimeout: 3s
  defaults:
    timer: true
    tsec: 45
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("expected port 9090, got %q", cfg.Server.Port)
	}
	d := cfg.Quiz.Defaults
	if !d.TimerEnabled || d.TimerSeconds != 45 {
		t.Fatalf("expected timer override, got %+v", d)
	}
	if !d.InstantDisclosure || !d.ShuffleOptions || !d.KeyboardShortcuts || d.LimitCount != 10 {
		t.Fatalf("expected untouched defaults, got %+v", d)
	}
	if got := cfg.Quiz.FetchTimeoutDuration(); got != 3*time.Second {
		t.Fatalf("expected 3s fetch timeout, got %s", got)
	}
	if len(cfg.Quiz.Sources) != 4 || cfg.Quiz.Sources[0].ID != "def" {
		t.Fatalf("expected default sources, got %+v", cfg.Quiz.Sources)
	}
	if cfg.Quiz.PassThreshold != 0.75 || cfg.Quiz.Profile != "default" {
		t.Fatalf("unexpected quiz section %+v", cfg.Quiz)
	}
}

func TestLoadSources(t *testing.T) {
	path := writeConfig(t, `
quiz:
  passThreshold: 0.5
  sources:
    - id: alpha
      label: Alpha
      url: https://example.test/alpha.json
    - id: beta
      url: pg:beta
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Quiz.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(cfg.Quiz.Sources))
	}
	if cfg.Quiz.Sources[1].Label != "beta" {
		t.Fatalf("expected label to default to id, got %q", cfg.Quiz.Sources[1].Label)
	}
	if cfg.Quiz.PassThreshold != 0.5 {
		t.Fatalf("expected threshold 0.5, got %v", cfg.Quiz.PassThreshold)
	}
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("expected defaults, got %v", err)
	}
	if len(cfg.Quiz.Sources) != 4 {
		t.Fatalf("expected default sources")
	}
	if _, err := Load(writeConfig(t, "quiz: [")); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestTTLDuration(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %s", got)
	}
	if got := TTLDuration("bogus", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback on parse error, got %s", got)
	}
	if got := TTLDuration("90s", time.Minute); got != 90*time.Second {
		t.Fatalf("expected 90s, got %s", got)
	}
}
