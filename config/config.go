// Package config decodes and validates the engine's tunable options
// (grid resolution, scan parameters, kinematic limits, SLAM and
// exploration thresholds) from a loosely-typed input map.
package config

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Engine holds every tunable recognized by the core, with defaults
// matching the spec's external-interfaces table.
type Engine struct {
	GridResolution               float64 `mapstructure:"grid_resolution"`
	MaxRange                     float64 `mapstructure:"max_range"`
	ScanRays                     int     `mapstructure:"scan_rays"`
	LinearSpeed                  float64 `mapstructure:"linear_speed"`
	AngularSpeed                 float64 `mapstructure:"angular_speed"`
	KeyframeInterval             int     `mapstructure:"keyframe_interval"`
	LoopSearchRadius             float64 `mapstructure:"loop_search_radius"`
	ICPMaxError                  float64 `mapstructure:"icp_max_error"`
	ExitInefficiencyThreshold    float64 `mapstructure:"exit_inefficiency_threshold"`
	ExplorationThreshold         float64 `mapstructure:"exploration_threshold"`
	MaxSteps                    int     `mapstructure:"max_steps"`
	MissionTimeoutSeconds        float64 `mapstructure:"mission_timeout_seconds"`
}

// Default returns the engine configuration with every option at its
// spec-mandated default.
func Default() Engine {
	return Engine{
		GridResolution:            0.1,
		MaxRange:                  4.0,
		ScanRays:                  90,
		LinearSpeed:               0.5,
		AngularSpeed:              1.0,
		KeyframeInterval:          100,
		LoopSearchRadius:          2.0,
		ICPMaxError:               0.5,
		ExitInefficiencyThreshold: 0.6,
		ExplorationThreshold:      0.98,
		MaxSteps:                  100000,
		MissionTimeoutSeconds:     300,
	}
}

// Decode overlays fields present in raw onto the default configuration
// and validates the result. raw is typically produced by an external
// map/JSON loader and may supply only a subset of recognized options.
func Decode(raw map[string]interface{}) (Engine, error) {
	cfg := Default()
	if err := mapstructure.Decode(raw, &cfg); err != nil {
		return Engine{}, fmt.Errorf("config: decode failed: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Engine{}, err
	}
	return cfg, nil
}

func (c Engine) validate() error {
	switch {
	case c.GridResolution <= 0:
		return fmt.Errorf("config: grid_resolution must be positive")
	case c.MaxRange <= 0:
		return fmt.Errorf("config: max_range must be positive")
	case c.ScanRays <= 0:
		return fmt.Errorf("config: scan_rays must be positive")
	case c.LinearSpeed <= 0:
		return fmt.Errorf("config: linear_speed must be positive")
	case c.AngularSpeed <= 0:
		return fmt.Errorf("config: angular_speed must be positive")
	case c.KeyframeInterval <= 0:
		return fmt.Errorf("config: keyframe_interval must be positive")
	case c.LoopSearchRadius <= 0:
		return fmt.Errorf("config: loop_search_radius must be positive")
	case c.ICPMaxError <= 0:
		return fmt.Errorf("config: icp_max_error must be positive")
	case c.ExitInefficiencyThreshold <= 0 || c.ExitInefficiencyThreshold > 1:
		return fmt.Errorf("config: exit_inefficiency_threshold must be in (0, 1]")
	case c.ExplorationThreshold <= 0 || c.ExplorationThreshold > 1:
		return fmt.Errorf("config: exploration_threshold must be in (0, 1]")
	}
	return nil
}
