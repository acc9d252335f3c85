// Package config loads and exposes application configuration (TOML).
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Default configuration values used when a field is missing in TOML.
const (
	DefaultConfigPath       = "relayd.toml"
	DefaultAddr             = "127.0.0.1:8170"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "console"
	DefaultTransportProcess = "adb"

	DefaultActivationAttempts      = 3
	DefaultActivationIntervalMS    = 1000
	DefaultStabilizationAttempts   = 10
	DefaultStabilizationIntervalMS = 500
	DefaultSettleDelayMS           = 500
	DefaultPreClickDelayMS         = 100
	DefaultClickAttempts           = 3
	DefaultClickIntervalMS         = 500
	DefaultHealthIntervalSec       = 30
)

// Config is the root application configuration loaded from TOML.
type Config struct {
	Log        LogConfig        `toml:"log"`
	Server     ServerConfig     `toml:"server"`
	Heuristics HeuristicsConfig `toml:"heuristics"`
	Pipeline   PipelineConfig   `toml:"pipeline"`
	Automation AutomationConfig `toml:"automation"`
	Bridge     BridgeConfig     `toml:"bridge"`
}

// LogConfig holds logging level and format (console or json).
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ServerConfig holds the control API listen address.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// HeuristicsConfig points at an optional TOML override for the target-app
// heuristic data.
type HeuristicsConfig struct {
	Path string `toml:"path"`
}

// PipelineConfig holds the conversation-activation retry policy.
type PipelineConfig struct {
	ActivationAttempts   int `toml:"activation_attempts"`
	ActivationIntervalMS int `toml:"activation_interval_ms"`
}

// AutomationConfig holds the reply engine's timing and retry policy.
type AutomationConfig struct {
	StabilizationAttempts   int `toml:"stabilization_attempts"`
	StabilizationIntervalMS int `toml:"stabilization_interval_ms"`
	SettleDelayMS           int `toml:"settle_delay_ms"`
	PreClickDelayMS         int `toml:"pre_click_delay_ms"`
	ClickAttempts           int `toml:"click_attempts"`
	ClickIntervalMS         int `toml:"click_interval_ms"`
}

// BridgeConfig holds bridge-adjacent host settings.
type BridgeConfig struct {
	TransportProcess  string `toml:"transport_process"`
	HealthIntervalSec int    `toml:"health_interval_sec"`
}

// Load reads the TOML file at path and fills missing fields with defaults.
// A missing file at the default path is not an error; everything defaults.
func Load(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err) && path == DefaultConfigPath:
		// Run with defaults.
	default:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	applyDefaults(&cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultAddr
	}
	if cfg.Pipeline.ActivationAttempts == 0 {
		cfg.Pipeline.ActivationAttempts = DefaultActivationAttempts
	}
	if cfg.Pipeline.ActivationIntervalMS == 0 {
		cfg.Pipeline.ActivationIntervalMS = DefaultActivationIntervalMS
	}
	if cfg.Automation.StabilizationAttempts == 0 {
		cfg.Automation.StabilizationAttempts = DefaultStabilizationAttempts
	}
	if cfg.Automation.StabilizationIntervalMS == 0 {
		cfg.Automation.StabilizationIntervalMS = DefaultStabilizationIntervalMS
	}
	if cfg.Automation.SettleDelayMS == 0 {
		cfg.Automation.SettleDelayMS = DefaultSettleDelayMS
	}
	if cfg.Automation.PreClickDelayMS == 0 {
		cfg.Automation.PreClickDelayMS = DefaultPreClickDelayMS
	}
	if cfg.Automation.ClickAttempts == 0 {
		cfg.Automation.ClickAttempts = DefaultClickAttempts
	}
	if cfg.Automation.ClickIntervalMS == 0 {
		cfg.Automation.ClickIntervalMS = DefaultClickIntervalMS
	}
	if cfg.Bridge.TransportProcess == "" {
		cfg.Bridge.TransportProcess = DefaultTransportProcess
	}
	if cfg.Bridge.HealthIntervalSec == 0 {
		cfg.Bridge.HealthIntervalSec = DefaultHealthIntervalSec
	}
}
