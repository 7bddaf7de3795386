package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Parser.DefaultTimeframe != "M15" {
		t.Errorf("DefaultTimeframe = %q, want M15", cfg.Parser.DefaultTimeframe)
	}
	if cfg.Parser.DefaultConfidence != 50 {
		t.Errorf("DefaultConfidence = %v, want 50", cfg.Parser.DefaultConfidence)
	}
	if cfg.Parser.FallbackStopLossPct != 0.5 {
		t.Errorf("FallbackStopLossPct = %v, want 0.5", cfg.Parser.FallbackStopLossPct)
	}
	if cfg.Parser.FallbackTakeProfitPct != 1.5 {
		t.Errorf("FallbackTakeProfitPct = %v, want 1.5", cfg.Parser.FallbackTakeProfitPct)
	}
	if cfg.Parser.MaxRepairIterations != 10 {
		t.Errorf("MaxRepairIterations = %v, want 10", cfg.Parser.MaxRepairIterations)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
parser:
  default_timeframe: H1
  fallback_stop_loss_pct: 1.0
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Parser.DefaultTimeframe != "H1" {
		t.Errorf("DefaultTimeframe = %q, want H1", cfg.Parser.DefaultTimeframe)
	}
	if cfg.Parser.FallbackStopLossPct != 1.0 {
		t.Errorf("FallbackStopLossPct = %v, want 1.0", cfg.Parser.FallbackStopLossPct)
	}
	// Unset values still pick up defaults.
	if cfg.Parser.FallbackTakeProfitPct != 1.5 {
		t.Errorf("FallbackTakeProfitPct = %v, want 1.5", cfg.Parser.FallbackTakeProfitPct)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() on a missing file should fail")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("parser: [not a mapping"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() on malformed yaml should fail")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(*Config) {}, wantErr: false},
		{name: "confidence above 100", mutate: func(c *Config) { c.Parser.DefaultConfidence = 120 }, wantErr: true},
		{name: "negative stop loss pct", mutate: func(c *Config) { c.Parser.FallbackStopLossPct = -1 }, wantErr: true},
		{name: "negative take profit pct", mutate: func(c *Config) { c.Parser.FallbackTakeProfitPct = -2 }, wantErr: true},
		{name: "negative repair iterations", mutate: func(c *Config) { c.Parser.MaxRepairIterations = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
