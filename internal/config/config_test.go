package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.MinPlayers != 2 || cfg.MaxPlayers != 32 {
		t.Errorf("player bounds = %d..%d, want 2..32", cfg.MinPlayers, cfg.MaxPlayers)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("MAX_SPEED_KMH", "80")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	if cfg.HTTPAddr != ":9999" {
		t.Errorf("HTTPAddr = %q, want :9999", cfg.HTTPAddr)
	}
	if cfg.MaxSpeedKmh != 80 {
		t.Errorf("MaxSpeedKmh = %g, want 80", cfg.MaxSpeedKmh)
	}
}
