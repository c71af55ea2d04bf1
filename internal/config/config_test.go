package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		if k, _, _ := strings.Cut(kv, "="); strings.HasPrefix(k, "FOCUSCYCLE_") {
			t.Setenv(k, "")
		}
	}
}

func TestDefaultConfigValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Timer.FocusMinutes != 50 {
		t.Errorf("focus = %d, want 50", cfg.Timer.FocusMinutes)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
backend:
  url: https://study.example/api
  timeout: 3s
timer:
  focus_minutes: 25
  break_minutes: 5
presence:
  interval: 30s
beacon:
  transport: nats
  nats_url: nats://broker:4222
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FOCUSCYCLE_BREAK_MINUTES", "7")
	t.Setenv("FOCUSCYCLE_TOKEN", "secret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend.URL != "https://study.example/api" {
		t.Errorf("url = %q", cfg.Backend.URL)
	}
	if cfg.Backend.Timeout != 3*time.Second {
		t.Errorf("timeout = %s, want 3s", cfg.Backend.Timeout)
	}
	if cfg.Timer.FocusMinutes != 25 || cfg.Timer.BreakMinutes != 7 {
		t.Errorf("timer = %+v, want 25/7", cfg.Timer)
	}
	if cfg.Presence.Interval != 30*time.Second {
		t.Errorf("interval = %s, want 30s", cfg.Presence.Interval)
	}
	if cfg.Presence.ActivityCooldown != 15*time.Second {
		t.Errorf("cooldown = %s, want default 15s", cfg.Presence.ActivityCooldown)
	}
	if cfg.Beacon.Transport != "nats" || cfg.Backend.Token != "secret" {
		t.Errorf("beacon = %+v token = %q", cfg.Beacon, cfg.Backend.Token)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_BadEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("FOCUSCYCLE_FOCUS_MINUTES", "lots")
	if _, err := Load(""); err == nil {
		t.Error("expected error for non-numeric minutes")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("timer: [1, 2"), 0o644)
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no url", func(c *Config) { c.Backend.URL = "" }},
		{"zero focus", func(c *Config) { c.Timer.FocusMinutes = 0 }},
		{"fast presence", func(c *Config) { c.Presence.Interval = time.Millisecond }},
		{"bad transport", func(c *Config) { c.Beacon.Transport = "carrier-pigeon" }},
		{"nats without url", func(c *Config) { c.Beacon.Transport = "nats"; c.Beacon.NATSURL = "" }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
