package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Parser  ParserConfig  `yaml:"parser"`
	Logging LoggingConfig `yaml:"logging"`
}

// ParserConfig holds the knobs of the AI response parser. Every value has a
// safe default, so an empty file (or DefaultConfig) is a valid configuration.
type ParserConfig struct {
	DefaultTimeframe      string  `yaml:"default_timeframe"`
	DefaultConfidence     float64 `yaml:"default_confidence"`
	FallbackStopLossPct   float64 `yaml:"fallback_stop_loss_pct"`
	FallbackTakeProfitPct float64 `yaml:"fallback_take_profit_pct"`
	MaxRepairIterations   int     `yaml:"max_repair_iterations"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Default returns a config with every default applied, for callers that use
// the parser as a library without a config file.
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

func setDefaults(cfg *Config) {
	if cfg.Parser.DefaultTimeframe == "" {
		cfg.Parser.DefaultTimeframe = "M15"
	}
	if cfg.Parser.DefaultConfidence == 0 {
		cfg.Parser.DefaultConfidence = 50
	}
	if cfg.Parser.FallbackStopLossPct == 0 {
		cfg.Parser.FallbackStopLossPct = 0.5
	}
	if cfg.Parser.FallbackTakeProfitPct == 0 {
		cfg.Parser.FallbackTakeProfitPct = 1.5
	}
	if cfg.Parser.MaxRepairIterations == 0 {
		cfg.Parser.MaxRepairIterations = 10
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

func (c *Config) Validate() error {
	if c.Parser.DefaultConfidence < 0 || c.Parser.DefaultConfidence > 100 {
		return fmt.Errorf("parser.default_confidence must be in [0,100], got %v", c.Parser.DefaultConfidence)
	}
	if c.Parser.FallbackStopLossPct <= 0 || c.Parser.FallbackStopLossPct >= 100 {
		return fmt.Errorf("parser.fallback_stop_loss_pct must be in (0,100), got %v", c.Parser.FallbackStopLossPct)
	}
	if c.Parser.FallbackTakeProfitPct <= 0 {
		return fmt.Errorf("parser.fallback_take_profit_pct must be positive, got %v", c.Parser.FallbackTakeProfitPct)
	}
	if c.Parser.MaxRepairIterations < 1 {
		return fmt.Errorf("parser.max_repair_iterations must be at least 1, got %d", c.Parser.MaxRepairIterations)
	}
	return nil
}
