// Package config loads the settings shared by the trader commands and the
// HTTP server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/scot00671234/tradingjournal/backtest"
	"github.com/scot00671234/tradingjournal/market"
)

// Environment variables that override values read from a file.
const (
	EnvDatabase = "TRADER_DB"
	EnvAddr     = "TRADER_ADDR"
	EnvLogLevel = "TRADER_LOG_LEVEL"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `json:"server" yaml:"server"`
	Database DatabaseConfig `json:"database" yaml:"database"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging"`
	Backtest BacktestConfig `json:"backtest" yaml:"backtest"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
}

// ServerConfig contains the HTTP listener settings
type ServerConfig struct {
	Addr         string   `json:"addr" yaml:"addr"`
	ReadTimeout  Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout Duration `json:"write_timeout" yaml:"write_timeout"`
}

// DatabaseConfig points at the SQLite file holding prices and the journal
type DatabaseConfig struct {
	Path string `json:"path" yaml:"path"`
}

// LoggingConfig selects the zap level and encoding
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // "json" or "console"
}

// BacktestConfig holds the defaults applied to backtest requests
type BacktestConfig struct {
	InitialBalance      float64 `json:"initial_balance" yaml:"initial_balance"`
	PositionSizePercent float64 `json:"position_size_percent" yaml:"position_size_percent"`
	Commission          float64 `json:"commission" yaml:"commission"`
	StopLossPercent     float64 `json:"stop_loss_percent" yaml:"stop_loss_percent"`
	TakeProfitPercent   float64 `json:"take_profit_percent" yaml:"take_profit_percent"`
	Direction           string  `json:"direction" yaml:"direction"`
	CloseAtEnd          bool    `json:"close_at_end" yaml:"close_at_end"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Enabled      bool `json:"enabled" yaml:"enabled"`
	HistoryLimit int  `json:"history_limit" yaml:"history_limit"` // 0 keeps every run
}

// Duration is a time.Duration written as "15s" in config files.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	return d.parse(s)
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.parse(node.Value)
}

func (d *Duration) parse(s string) error {
	if s == "" {
		d.Duration = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration %q: %w", s, err)
	}
	d.Duration = v
	return nil
}

// Load reads path when it is not empty, starting from Default otherwise,
// and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a file (YAML or JSON). Keys missing
// from the file keep their Default values.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg = Default()
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", jerr)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from the TRADER_* variables returned by getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvDatabase); v != "" {
		c.Database.Path = v
	}
	if v := getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.ReadTimeout.Duration < 0 || c.Server.WriteTimeout.Duration < 0 {
		return fmt.Errorf("server timeouts must not be negative")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}
	if c.Backtest.InitialBalance <= 0 {
		return fmt.Errorf("backtest.initial_balance must be positive")
	}
	if c.Backtest.PositionSizePercent <= 0 || c.Backtest.PositionSizePercent > 100 {
		return fmt.Errorf("backtest.position_size_percent must be between 0 and 100")
	}
	if c.Backtest.Commission < 0 {
		return fmt.Errorf("backtest.commission must not be negative")
	}
	if c.Backtest.StopLossPercent < 0 || c.Backtest.StopLossPercent >= 100 {
		return fmt.Errorf("backtest.stop_loss_percent must be between 0 and 100")
	}
	if c.Backtest.TakeProfitPercent < 0 {
		return fmt.Errorf("backtest.take_profit_percent must not be negative")
	}
	if _, err := market.ParseSide(c.Backtest.Direction); err != nil {
		return fmt.Errorf("backtest.direction: %w", err)
	}
	if c.Journal.HistoryLimit < 0 {
		return fmt.Errorf("journal.history_limit must not be negative")
	}
	return nil
}

// BacktestDefaults converts the backtest section for backtest.Service.
func (c *Config) BacktestDefaults() backtest.Defaults {
	d := backtest.StandardDefaults()
	d.InitialBalance = c.Backtest.InitialBalance
	d.PositionSizePercent = c.Backtest.PositionSizePercent
	d.Commission = c.Backtest.Commission
	d.StopLossPercent = c.Backtest.StopLossPercent
	d.TakeProfitPercent = c.Backtest.TakeProfitPercent
	d.Direction = c.Backtest.Direction
	d.CloseAtEnd = c.Backtest.CloseAtEnd
	return d
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	d := backtest.StandardDefaults()
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  Duration{15 * time.Second},
			WriteTimeout: Duration{60 * time.Second},
		},
		Database: DatabaseConfig{
			Path: "./data/trader.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Backtest: BacktestConfig{
			InitialBalance:      d.InitialBalance,
			PositionSizePercent: d.PositionSizePercent,
			Commission:          d.Commission,
			StopLossPercent:     d.StopLossPercent,
			TakeProfitPercent:   d.TakeProfitPercent,
			Direction:           d.Direction,
			CloseAtEnd:          d.CloseAtEnd,
		},
		Journal: JournalConfig{
			Enabled:      true,
			HistoryLimit: 5,
		},
	}
}
