package robustness

import (
	"strings"

	"github.com/pkg/errors"
)

// Distribution names accepted in Config.
const (
	DistributionNormal  = "normal"
	DistributionUniform = "uniform"
)

// Config describes how object poses are perturbed.
type Config struct {
	// Samples is the number of perturbed poses evaluated per grasp.
	Samples int `yaml:"samples"`
	// MaxPositionDelta bounds the translation of each axis, in millimeters.
	MaxPositionDelta float64 `yaml:"max_position_delta"`
	// MaxOrientationDelta bounds the rotation about each axis, in degrees.
	MaxOrientationDelta float64 `yaml:"max_orientation_delta"`
	Distribution        string  `yaml:"distribution"`
	// VariationFactor scales the standard deviation of the normal distribution relative to the
	// maximum delta.
	VariationFactor float64 `yaml:"variation_factor"`
	Seed            uint64  `yaml:"seed"`
}

// DefaultConfig returns 500 samples within 10mm and 10 degrees.
func DefaultConfig() Config {
	return Config{
		Samples:             500,
		MaxPositionDelta:    10,
		MaxOrientationDelta: 10,
		Distribution:        DistributionNormal,
		VariationFactor:     0.5,
		Seed:                1,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Samples < 0 {
		return errors.New("samples must be non-negative")
	}
	if c.MaxPositionDelta < 0 || c.MaxOrientationDelta < 0 {
		return errors.New("pose deltas must be non-negative")
	}
	switch strings.ToLower(c.Distribution) {
	case DistributionNormal:
		if c.VariationFactor <= 0 {
			return errors.New("variation factor must be positive for a normal distribution")
		}
	case DistributionUniform:
	default:
		return errors.Errorf("unknown distribution %q", c.Distribution)
	}
	return nil
}
