// Package anchors - multi-scale, multi-aspect-ratio anchor grids for single-shot detectors.
package anchors

import (
	"github.com/pkg/errors"
)

// ErrInvalidConfig is returned when a generator configuration or image size cannot produce anchors.
var ErrInvalidConfig = errors.New("invalid anchor configuration")

// ErrInvalidLevel is returned when a feature-map level index is out of range.
var ErrInvalidLevel = errors.New("invalid anchor level")

// Config describes the anchor grid.
//
// Strides and BaseScales are per feature-map level and must have the same length.
// ScaleMultipliers and AspectRatios are applied at every level. All values are in
// pixels of the input image except the multipliers and ratios, which are unitless.
type Config struct {
	// Strides is the feature-map stride of every level, e.g. [8, 16, 32, 64, 128].
	Strides []int `json:"strides" yaml:"strides"`
	// BaseScales is the anchor side length of every level, e.g. [32, 64, 128, 256, 512].
	BaseScales []float32 `json:"base_scales" yaml:"base_scales"`
	// ScaleMultipliers multiply each level's base scale, e.g. [1, 2^(1/3), 2^(2/3)].
	ScaleMultipliers []float32 `json:"scale_multipliers" yaml:"scale_multipliers"`
	// AspectRatios are width/height ratios, e.g. [0.5, 1, 2].
	AspectRatios []float32 `json:"aspect_ratios" yaml:"aspect_ratios"`
}

// DefaultConfig returns a five-level RetinaNet-style grid.
func DefaultConfig() Config {
	return Config{
		Strides:          []int{8, 16, 32, 64, 128},
		BaseScales:       []float32{32, 64, 128, 256, 512},
		ScaleMultipliers: []float32{1, 1.2599210, 1.5874011},
		AspectRatios:     []float32{0.5, 1, 2},
	}
}

// Levels is the number of feature-map levels.
func (c Config) Levels() int {
	return len(c.Strides)
}

// AnchorsPerLocation is the number of anchors centered on every grid cell.
func (c Config) AnchorsPerLocation() int {
	return len(c.ScaleMultipliers) * len(c.AspectRatios)
}

// Validate checks the configuration.
//
// Returns:
//   - An error wrapping ErrInvalidConfig that names the offending field, or nil.
func (c Config) Validate() error {
	if len(c.Strides) == 0 {
		return errors.Wrap(ErrInvalidConfig, "strides is empty")
	}
	if len(c.Strides) != len(c.BaseScales) {
		return errors.Wrapf(ErrInvalidConfig,
			"strides has %d entries but base scales has %d", len(c.Strides), len(c.BaseScales))
	}
	if len(c.ScaleMultipliers) == 0 {
		return errors.Wrap(ErrInvalidConfig, "scale multipliers is empty")
	}
	if len(c.AspectRatios) == 0 {
		return errors.Wrap(ErrInvalidConfig, "aspect ratios is empty")
	}
	for i, s := range c.Strides {
		if s <= 0 {
			return errors.Wrapf(ErrInvalidConfig, "strides[%d] = %d, must be positive", i, s)
		}
	}
	if err := positive("base scales", c.BaseScales); err != nil {
		return err
	}
	if err := positive("scale multipliers", c.ScaleMultipliers); err != nil {
		return err
	}
	return positive("aspect ratios", c.AspectRatios)
}

func positive(name string, values []float32) error {
	for i, v := range values {
		// Written as !(v > 0) so NaN is rejected too.
		if !(v > 0) {
			return errors.Wrapf(ErrInvalidConfig, "%s[%d] = %v, must be positive", name, i, v)
		}
	}
	return nil
}
