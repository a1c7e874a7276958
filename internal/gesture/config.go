package gesture

import (
	"time"

	"github.com/aretw0/cerebro/pkg/domain"
)

// Config holds the tunable thresholds of the state machine.
type Config struct {
	HoldDuration        time.Duration `mapstructure:"hold_duration"`
	MoveTolerance       float64       `mapstructure:"move_tolerance"`
	NavigateThreshold   float64       `mapstructure:"navigate_threshold"`
	AffordanceThreshold float64       `mapstructure:"affordance_threshold"`
	FrameInterval       time.Duration `mapstructure:"frame_interval"`
	ControlSize         float64       `mapstructure:"control_size"`

	// DoubleTapGuard is how long a double tap stays refused after a
	// navigating release.
	DoubleTapGuard time.Duration `mapstructure:"double_tap_guard"`

	// Viewport bounds the floating control while dragging. A zero size
	// disables clamping.
	Viewport domain.Size `mapstructure:"viewport"`
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		HoldDuration:        time.Second,
		MoveTolerance:       20,
		NavigateThreshold:   30,
		AffordanceThreshold: 25,
		FrameInterval:       16 * time.Millisecond,
		ControlSize:         96,
		DoubleTapGuard:      300 * time.Millisecond,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.HoldDuration <= 0 {
		c.HoldDuration = d.HoldDuration
	}
	if c.MoveTolerance <= 0 {
		c.MoveTolerance = d.MoveTolerance
	}
	if c.NavigateThreshold <= 0 {
		c.NavigateThreshold = d.NavigateThreshold
	}
	if c.AffordanceThreshold <= 0 {
		c.AffordanceThreshold = d.AffordanceThreshold
	}
	if c.FrameInterval <= 0 {
		c.FrameInterval = d.FrameInterval
	}
	if c.ControlSize <= 0 {
		c.ControlSize = d.ControlSize
	}
	if c.DoubleTapGuard <= 0 {
		c.DoubleTapGuard = d.DoubleTapGuard
	}
	return c
}
