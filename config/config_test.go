package config

import (
	"testing"

	"go.viam.com/test"
)

func TestDefaultMatchesSpec(t *testing.T) {
	cfg := Default()
	test.That(t, cfg.GridResolution, test.ShouldAlmostEqual, 0.1)
	test.That(t, cfg.MaxRange, test.ShouldAlmostEqual, 4.0)
	test.That(t, cfg.ScanRays, test.ShouldEqual, 90)
	test.That(t, cfg.KeyframeInterval, test.ShouldEqual, 100)
	test.That(t, cfg.LoopSearchRadius, test.ShouldAlmostEqual, 2.0)
	test.That(t, cfg.ICPMaxError, test.ShouldAlmostEqual, 0.5)
	test.That(t, cfg.ExitInefficiencyThreshold, test.ShouldAlmostEqual, 0.6)
	test.That(t, cfg.ExplorationThreshold, test.ShouldAlmostEqual, 0.98)
	test.That(t, cfg.MissionTimeoutSeconds, test.ShouldAlmostEqual, 300.0)
}

func TestDecodeOverlaysPartialInput(t *testing.T) {
	cfg, err := Decode(map[string]interface{}{"max_range": 6.0, "scan_rays": 360})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.MaxRange, test.ShouldAlmostEqual, 6.0)
	test.That(t, cfg.ScanRays, test.ShouldEqual, 360)
	test.That(t, cfg.GridResolution, test.ShouldAlmostEqual, 0.1)
}

func TestDecodeRejectsInvalidThreshold(t *testing.T) {
	_, err := Decode(map[string]interface{}{"exploration_threshold": 1.5})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestDecodeRejectsNonPositiveSpeed(t *testing.T) {
	_, err := Decode(map[string]interface{}{"linear_speed": 0.0})
	test.That(t, err, test.ShouldNotBeNil)
}
