package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatal(err)
	}
	if *cfg.RoundDigits != 6 || *cfg.SpeedUnits != "mps" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestLoadConfigMergesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.json")
	if err := os.WriteFile(path, []byte(`{"speed_units":"kmph","default_srid":4326}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if *cfg.SpeedUnits != "kmph" || *cfg.DefaultSRID != 4326 {
		t.Fatalf("file fields not merged: %+v", cfg)
	}
	if *cfg.RoundDigits != 6 {
		t.Fatalf("unset fields must keep defaults: %+v", cfg)
	}
}

func TestLoadConfigRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("malformed config must fail")
	}
}
