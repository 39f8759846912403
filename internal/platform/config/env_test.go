package config

import (
	"errors"
	"strings"
	"testing"
)

type envTestConfig struct {
	Slots int    `env:"SLOTTED_TEST_SLOTS" envDefault:"8"`
	Path  string `env:"SLOTTED_TEST_PATH"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Slots != 8 {
		t.Fatalf("slots = %d, want 8", cfg.Slots)
	}
}

func TestParseEnvOverrides(t *testing.T) {
	t.Setenv("SLOTTED_TEST_SLOTS", "16")
	t.Setenv("SLOTTED_TEST_PATH", "journal.db")

	var cfg envTestConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Slots != 16 || cfg.Path != "journal.db" {
		t.Fatalf("cfg = %+v, want slots 16 and path journal.db", cfg)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("SLOTTED_TEST_SLOTS", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestParseEnvRequiresTarget(t *testing.T) {
	if err := ParseEnv(nil); !errors.Is(err, ErrTargetRequired) {
		t.Fatalf("err = %v, want %v", err, ErrTargetRequired)
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("SLOTTED_TEST_SLOTS", "4")
	cfg, err := Load[envTestConfig]()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Slots != 4 {
		t.Fatalf("slots = %d, want 4", cfg.Slots)
	}

	t.Setenv("SLOTTED_TEST_SLOTS", "many")
	cfg, err = Load[envTestConfig]()
	if err == nil {
		t.Fatal("expected parse error")
	}
	if cfg != (envTestConfig{}) {
		t.Fatalf("cfg = %+v, want zero value on error", cfg)
	}
}
