// Package config loads the engine's host-supplied configuration. The schema
// uses pointer fields so a partial JSON file only overrides what it names;
// LoadConfig starts from the built-in defaults and merges the file on top.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// DefaultConfigPath is the conventional location of the engine config file.
const DefaultConfigPath = "config/engine.defaults.json"

// EngineConfig is the root configuration.
type EngineConfig struct {
	// SRIDRegistryPath points at the host's SRID registry; empty disables
	// coordinate-system transforms.
	SRIDRegistryPath *string `json:"srid_registry_path,omitempty"`

	// DefaultSRID is assigned to parsed geometries without an explicit SRID.
	DefaultSRID *int `json:"default_srid,omitempty"`

	// RoundDigits is the coordinate precision used by the tools' output.
	RoundDigits *int `json:"round_digits,omitempty"`

	// SpeedUnits selects the unit for speed reports (see internal/units).
	SpeedUnits *string `json:"speed_units,omitempty"`

	// PlotOutputDir is where the tools drop generated plots and reports.
	PlotOutputDir *string `json:"plot_output_dir,omitempty"`
}

func ptrString(v string) *string { return &v }
func ptrInt(v int) *int          { return &v }

// Defaults returns the built-in configuration.
func Defaults() *EngineConfig {
	return &EngineConfig{
		SRIDRegistryPath: ptrString(""),
		DefaultSRID:      ptrInt(0),
		RoundDigits:      ptrInt(6),
		SpeedUnits:       ptrString("mps"),
		PlotOutputDir:    ptrString("plots"),
	}
}

// LoadConfig reads path and merges it over the defaults. A missing file is
// not an error: the defaults are returned unchanged.
func LoadConfig(path string) (*EngineConfig, error) {
	cfg := Defaults()
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var file EngineConfig
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Merge(&file)
	return cfg, nil
}

// Merge overlays non-nil fields of other onto the config.
func (c *EngineConfig) Merge(other *EngineConfig) {
	if other == nil {
		return
	}
	if other.SRIDRegistryPath != nil {
		c.SRIDRegistryPath = other.SRIDRegistryPath
	}
	if other.DefaultSRID != nil {
		c.DefaultSRID = other.DefaultSRID
	}
	if other.RoundDigits != nil {
		c.RoundDigits = other.RoundDigits
	}
	if other.SpeedUnits != nil {
		c.SpeedUnits = other.SpeedUnits
	}
	if other.PlotOutputDir != nil {
		c.PlotOutputDir = other.PlotOutputDir
	}
}
