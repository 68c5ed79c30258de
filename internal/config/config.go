// Package config holds all configuration types and loading logic for flashline.
// Config structure never shrinks — fields are only added, never renamed or removed.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for a flashline daemon instance.
type Config struct {
	Bar        BarConfig       `yaml:"bar"`
	Export     ExportConfig    `yaml:"export"`
	Server     ServerConfig    `yaml:"server"`
	Submitters SubmitterConfig `yaml:"submitters"`
	Auth       AuthConfig      `yaml:"auth"`
	Metrics    MetricsConfig   `yaml:"metrics"`
	UI         UIConfig        `yaml:"ui"`
	Log        LogConfig       `yaml:"log"`
}

// BarConfig controls the message buffer and display scheduling.
type BarConfig struct {
	// Capacity is the history buffer size. Values below the built-in floor
	// of 100 are clamped up, never rejected.
	Capacity int `yaml:"capacity"`
	// PageSize is the jump width of page-up/page-down navigation.
	PageSize int `yaml:"page_size"`
	// ZeroTimeoutHoldMs is how long a zero-timeout message keeps the
	// display before the bar moves on.
	ZeroTimeoutHoldMs int64 `yaml:"zero_timeout_hold_ms"`
	// StrictDeleteAll makes delete-all drop the wait queue too, instead of
	// only the history buffer.
	StrictDeleteAll bool `yaml:"strict_delete_all"`
	// Presets are extra named styles registered at startup, alongside the
	// builtins.
	Presets map[string]PresetConfig `yaml:"presets"`
}

// PresetConfig is one named style in the config file.
type PresetConfig struct {
	Foreground string `yaml:"foreground"`
	Background string `yaml:"background"`
	Bold       bool   `yaml:"bold"`
}

// ExportConfig controls buffer export. An empty Dir disables export.
type ExportConfig struct {
	Dir string `yaml:"dir"`
}

// ServerConfig controls the HTTP/WebSocket listener.
type ServerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// SubmitterConfig sets rate limiting applied per submitting client.
type SubmitterConfig struct {
	// MaxRate is submissions per second per client.
	MaxRate int `yaml:"max_rate"`
	// Burst allows temporary spikes above MaxRate.
	Burst int `yaml:"burst"`
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
}

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// UIConfig controls the terminal bar renderer. The renderer also requires a
// TTY; Enabled false forces headless mode even on a terminal.
type UIConfig struct {
	Enabled bool `yaml:"enabled"`
	// WaitingBackground is the bar background while more messages queue
	// behind the displayed one.
	WaitingBackground string `yaml:"waiting_background"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `yaml:"level"`
}

// Default returns a Config populated with safe, sensible defaults.
// It is the canonical source of truth for default values.
func Default() *Config {
	return &Config{
		Bar: BarConfig{
			Capacity:          100,
			PageSize:          10,
			ZeroTimeoutHoldMs: 1500,
			StrictDeleteAll:   false,
		},
		Export: ExportConfig{
			Dir: "",
		},
		Server: ServerConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    8080,
		},
		Submitters: SubmitterConfig{
			MaxRate: 100,
			Burst:   200,
		},
		Auth: AuthConfig{
			Enabled: false,
			APIKey:  "",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
		UI: UIConfig{
			Enabled:           true,
			WaitingBackground: "rgba(170,255,255,255)",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML config file at path and overlays it on top of Default().
// If the file does not exist the default config is returned without error,
// making it easy to run flashline with no config file at all.
//
// After loading the file, environment variables are applied as overrides:
//
//	FLASHLINE_AUTH_API_KEY — sets auth.api_key and enables auth (auth.enabled = true)
//	FLASHLINE_EXPORT_DIR   — sets export.dir
//	FLASHLINE_PORT         — sets server.port
//	FLASHLINE_LOG_LEVEL    — sets log.level
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnv(cfg)
	return cfg, nil
}

// applyEnv overlays environment variable overrides onto cfg.
func applyEnv(cfg *Config) {
	if v := os.Getenv("FLASHLINE_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
		cfg.Auth.Enabled = true
	}
	if v := os.Getenv("FLASHLINE_EXPORT_DIR"); v != "" {
		cfg.Export.Dir = v
	}
	if v := os.Getenv("FLASHLINE_PORT"); v != "" {
		var p int
		if _, err := fmt.Sscanf(v, "%d", &p); err == nil && p > 0 {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("FLASHLINE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// Validate checks that the config values are consistent and within acceptable
// ranges. It returns the first error found.
func (c *Config) Validate() error {
	if c.Bar.Capacity < 1 {
		return errors.New("bar.capacity must be at least 1")
	}
	if c.Bar.PageSize < 1 {
		return errors.New("bar.page_size must be at least 1")
	}
	if c.Bar.ZeroTimeoutHoldMs < 1 {
		return errors.New("bar.zero_timeout_hold_ms must be at least 1")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.New("server.port must be between 1 and 65535")
	}
	if c.Submitters.MaxRate < 1 {
		return errors.New("submitters.max_rate must be at least 1")
	}
	if c.Submitters.Burst < 1 {
		return errors.New("submitters.burst must be at least 1")
	}
	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return errors.New("metrics.port must be between 1 and 65535")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return errors.New(`log.level must be one of "debug", "info", "warn", "error"`)
	}
	return nil
}
