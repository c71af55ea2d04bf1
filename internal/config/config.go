// Package config loads focuscycle settings from defaults, an optional YAML
// file and FOCUSCYCLE_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all runtime configuration.
type Config struct {
	Backend  BackendConfig  `yaml:"backend"`
	Timer    TimerConfig    `yaml:"timer"`
	Presence PresenceConfig `yaml:"presence"`
	Beacon   BeaconConfig   `yaml:"beacon"`
	Store    StoreConfig    `yaml:"store"`
	Log      LogConfig      `yaml:"log"`
}

// BackendConfig points at the study backend.
type BackendConfig struct {
	URL     string        `yaml:"url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

// TimerConfig holds the fallback phase lengths used until the backend
// settings arrive.
type TimerConfig struct {
	FocusMinutes int `yaml:"focus_minutes"`
	BreakMinutes int `yaml:"break_minutes"`
}

// PresenceConfig tunes the heartbeat.
type PresenceConfig struct {
	Interval         time.Duration `yaml:"interval"`
	ActivityCooldown time.Duration `yaml:"activity_cooldown"`
}

// BeaconConfig selects the fire-and-forget transport.
type BeaconConfig struct {
	// Transport is "http" or "nats".
	Transport       string        `yaml:"transport"`
	DispatchTimeout time.Duration `yaml:"dispatch_timeout"`
	NATSURL         string        `yaml:"nats_url"`
	SubjectPrefix   string        `yaml:"subject_prefix"`
}

// StoreConfig locates the local journal.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// LogConfig configures the file logger.
type LogConfig struct {
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Backend: BackendConfig{
			URL:     "http://localhost:8000/api",
			Timeout: 10 * time.Second,
		},
		Timer: TimerConfig{
			FocusMinutes: 50,
			BreakMinutes: 10,
		},
		Presence: PresenceConfig{
			Interval:         60 * time.Second,
			ActivityCooldown: 15 * time.Second,
		},
		Beacon: BeaconConfig{
			Transport:       "http",
			DispatchTimeout: 2 * time.Second,
			NATSURL:         "nats://127.0.0.1:4222",
			SubjectPrefix:   "focuscycle.beacon",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/focuscycle/config.yaml, falling
// back to ~/.config.
func DefaultPath() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "focuscycle", "config.yaml"), nil
}

// Load reads defaults, then the YAML file at path (a missing file is not
// an error), then the environment.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from FOCUSCYCLE_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("FOCUSCYCLE_BACKEND_URL"); v != "" {
		c.Backend.URL = v
	}
	if v := os.Getenv("FOCUSCYCLE_TOKEN"); v != "" {
		c.Backend.Token = v
	}
	if err := envDuration("FOCUSCYCLE_BACKEND_TIMEOUT", &c.Backend.Timeout); err != nil {
		return err
	}

	if err := envInt("FOCUSCYCLE_FOCUS_MINUTES", &c.Timer.FocusMinutes); err != nil {
		return err
	}
	if err := envInt("FOCUSCYCLE_BREAK_MINUTES", &c.Timer.BreakMinutes); err != nil {
		return err
	}

	if err := envDuration("FOCUSCYCLE_PRESENCE_INTERVAL", &c.Presence.Interval); err != nil {
		return err
	}

	if v := os.Getenv("FOCUSCYCLE_BEACON_TRANSPORT"); v != "" {
		c.Beacon.Transport = v
	}
	if v := os.Getenv("FOCUSCYCLE_NATS_URL"); v != "" {
		c.Beacon.NATSURL = v
	}
	if v := os.Getenv("FOCUSCYCLE_NATS_SUBJECT_PREFIX"); v != "" {
		c.Beacon.SubjectPrefix = v
	}

	if v := os.Getenv("FOCUSCYCLE_DB"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("FOCUSCYCLE_LOG_FILE"); v != "" {
		c.Log.File = v
	}
	if v := os.Getenv("FOCUSCYCLE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

// Validate checks the configuration for values that cannot work.
func (c Config) Validate() error {
	if c.Backend.URL == "" {
		return fmt.Errorf("backend url is required (FOCUSCYCLE_BACKEND_URL)")
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend timeout must be positive, got %s", c.Backend.Timeout)
	}
	if c.Timer.FocusMinutes <= 0 || c.Timer.BreakMinutes <= 0 {
		return fmt.Errorf("timer durations must be positive, got focus=%d break=%d",
			c.Timer.FocusMinutes, c.Timer.BreakMinutes)
	}
	if c.Presence.Interval < time.Second {
		return fmt.Errorf("presence interval must be at least 1s, got %s", c.Presence.Interval)
	}
	switch c.Beacon.Transport {
	case "http":
	case "nats":
		if c.Beacon.NATSURL == "" {
			return fmt.Errorf("beacon nats_url is required for the nats transport")
		}
	default:
		return fmt.Errorf("unknown beacon transport: %q", c.Beacon.Transport)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %q", c.Log.Level)
	}
	return nil
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
