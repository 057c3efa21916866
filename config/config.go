// Package config loads the board controller configuration: JSON file with
// sensible defaults, overridable per-field from BOARD_* environment
// variables.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"

	"boardlink/core"
	"boardlink/host/motor"
)

// Config is the full controller configuration. All durations are in
// milliseconds on the wire/file side and converted at the edges.
type Config struct {
	// Serial link to the motor controller
	Device string `json:"device" env:"BOARD_DEVICE"`
	Baud   int    `json:"baud" env:"BOARD_BAUD"`

	// Sensing engine
	ScanIntervalMS   int `json:"scan_interval_ms" env:"BOARD_SCAN_INTERVAL_MS"`
	DebounceWindowMS int `json:"debounce_window_ms" env:"BOARD_DEBOUNCE_WINDOW_MS"`
	ConsistentReads  int `json:"consistent_reads" env:"BOARD_CONSISTENT_READS"`
	StartupWindowMS  int `json:"startup_window_ms" env:"BOARD_STARTUP_WINDOW_MS"`
	MoveTimeoutMS    int `json:"move_timeout_ms" env:"BOARD_MOVE_TIMEOUT_MS"`

	// Motor link protocol
	StageTimeoutMS int `json:"stage_timeout_ms" env:"BOARD_STAGE_TIMEOUT_MS"`
	RetryLimit     int `json:"retry_limit" env:"BOARD_RETRY_LIMIT"`

	// Reset coordinator
	ResetDebounceMS int `json:"reset_debounce_ms" env:"BOARD_RESET_DEBOUNCE_MS"`

	// Optional event journal; empty disables it
	JournalPath string `json:"journal_path" env:"BOARD_JOURNAL_PATH"`

	// Diagnostics
	Debug bool `json:"debug" env:"BOARD_DEBUG"`
}

// Load reads an optional JSON config file, overlays environment variables
// and fills the remaining zero fields with defaults. An empty path skips the
// file entirely.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	applyDefaults(cfg)
	return cfg, nil
}

// Parse loads a configuration from raw JSON, without env overlay. Used by
// targets that embed their configuration.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(cfg)
	return cfg, nil
}

// applyDefaults fills in missing configuration values with the stock timing
// configuration.
func applyDefaults(cfg *Config) {
	if cfg.Baud == 0 {
		cfg.Baud = 115200
	}
	if cfg.ScanIntervalMS == 0 {
		cfg.ScanIntervalMS = 20
	}
	if cfg.DebounceWindowMS == 0 {
		cfg.DebounceWindowMS = 50
	}
	if cfg.ConsistentReads == 0 {
		cfg.ConsistentReads = 3
	}
	if cfg.StartupWindowMS == 0 {
		cfg.StartupWindowMS = 3000
	}
	if cfg.MoveTimeoutMS == 0 {
		cfg.MoveTimeoutMS = 10000
	}
	if cfg.StageTimeoutMS == 0 {
		cfg.StageTimeoutMS = 5000
	}
	if cfg.RetryLimit == 0 {
		cfg.RetryLimit = 3
	}
	if cfg.ResetDebounceMS == 0 {
		cfg.ResetDebounceMS = 300
	}
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// Timings converts the sensing fields to the engine's configuration.
func (c *Config) Timings() core.Timings {
	return core.Timings{
		ScanInterval:    millis(c.ScanIntervalMS),
		DebounceWindow:  millis(c.DebounceWindowMS),
		ConsistentReads: uint8(c.ConsistentReads),
		StartupWindow:   millis(c.StartupWindowMS),
		MoveTimeout:     millis(c.MoveTimeoutMS),
	}
}

// LinkConfig converts the protocol fields to the link controller's
// configuration.
func (c *Config) LinkConfig() motor.Config {
	return motor.Config{
		StageTimeout: millis(c.StageTimeoutMS),
		RetryLimit:   c.RetryLimit,
	}
}

// ResetConfig converts the reset fields to the coordinator's configuration.
func (c *Config) ResetConfig() motor.ResetConfig {
	cfg := motor.DefaultResetConfig()
	cfg.TriggerDebounce = millis(c.ResetDebounceMS)
	return cfg
}
