package config

import (
	"os"
	"path/filepath"
	"testing"
)

// -----------------------------------------------------------------------------

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

// -----------------------------------------------------------------------------

func TestNewConfigDefaults(t *testing.T) {
	// A minimal file keeps every documented default.
	cfg, err := NewConfig(writeConfig(t, "name: scanner\n"))
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}

	if cfg.Name != "scanner" {
		t.Errorf("Name = %q, want scanner", cfg.Name)
	}
	if cfg.Port != 8090 {
		t.Errorf("Port = %d, want default 8090", cfg.Port)
	}
	if cfg.Scan.PrefilterInterval != 7200 {
		t.Errorf("PrefilterInterval = %d, want 7200", cfg.Scan.PrefilterInterval)
	}
	if cfg.Scan.MinVolume != 5_000_000 {
		t.Errorf("MinVolume = %v, want 5000000", cfg.Scan.MinVolume)
	}
	if cfg.Scan.MinPrice != 0.75 || cfg.Scan.MaxPrice != 17.00 {
		t.Errorf("price bounds = %v..%v, want 0.75..17.00", cfg.Scan.MinPrice, cfg.Scan.MaxPrice)
	}
	if cfg.Feeds.Tradier.BatchSize != 50 {
		t.Errorf("BatchSize = %d, want 50", cfg.Feeds.Tradier.BatchSize)
	}
	if cfg.Rules.Pregap.GapPctMin != 10.0 {
		t.Errorf("pregap gap threshold = %v, want 10.0", cfg.Rules.Pregap.GapPctMin)
	}
}

// -----------------------------------------------------------------------------

func TestNewConfigOverrides(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, `
port: 9001
scan:
  min_price: 1.00
  max_price: 20.00
storage:
  backend: sqlite
  db_path: /tmp/test.db
`))
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}

	if cfg.Port != 9001 {
		t.Errorf("Port = %d, want 9001", cfg.Port)
	}
	if cfg.Scan.MinPrice != 1.00 || cfg.Scan.MaxPrice != 20.00 {
		t.Errorf("price bounds = %v..%v, want 1.00..20.00", cfg.Scan.MinPrice, cfg.Scan.MaxPrice)
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("Backend = %q, want sqlite", cfg.Storage.Backend)
	}
	// Untouched sections keep defaults.
	if cfg.Scan.ValidatorInterval != 10 {
		t.Errorf("ValidatorInterval = %d, want 10", cfg.Scan.ValidatorInterval)
	}
}

// -----------------------------------------------------------------------------

func TestNewConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad port", "port: 80\n"},
		{"unknown backend", "storage:\n  backend: redis\n"},
		{"inverted price bounds", "scan:\n  min_price: 20.0\n  max_price: 1.0\n"},
		{"zero interval", "scan:\n  halt_interval: 0\n"},
		{"postgres without connection string", "storage:\n  backend: postgres\n"},
		{"zero batch size", "feeds:\n  tradier:\n    batch_size: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewConfig(writeConfig(t, tt.content)); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

// -----------------------------------------------------------------------------

func TestConfigSaveRoundTrip(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, "name: roundtrip\nport: 9002\n"))
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}

	path := filepath.Join(t.TempDir(), "saved.yaml")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := NewConfig(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Name != "roundtrip" || reloaded.Port != 9002 {
		t.Errorf("reloaded = %q/%d, want roundtrip/9002", reloaded.Name, reloaded.Port)
	}
}
