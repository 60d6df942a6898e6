package config

import (
	"fmt"

	"pqctdensity/internal/models"
)

// radialStepsPerPixel is the number of ray-marching steps per pixel.
const radialStepsPerPixel = 10

// InvalidConfigurationError reports a configuration value the analyses
// cannot work with.
type InvalidConfigurationError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s=%v: %s", e.Field, e.Value, e.Reason)
}

func invalid(field string, value interface{}, reason string) error {
	return &InvalidConfigurationError{Field: field, Value: value, Reason: reason}
}

// Validate checks the configuration independently of any image.
func (c *Config) Validate() error {
	if err := validateSectorWidth("distribution.sectorWidth", c.Distribution.SectorWidth); err != nil {
		return err
	}
	if err := validateSectorWidth("concentric.sectorWidth", c.Concentric.SectorWidth); err != nil {
		return err
	}
	if c.Distribution.Divisions <= 0 {
		return invalid("distribution.divisions", c.Distribution.Divisions, "must be positive")
	}
	if c.Concentric.Divisions <= 0 {
		return invalid("concentric.divisions", c.Concentric.Divisions, "must be positive")
	}
	if !c.Selection.Rule.Valid() {
		return invalid("selection.rule", int(c.Selection.Rule), "unknown selection rule")
	}
	if !c.Selection.RotationRule.Valid() {
		return invalid("selection.rotationRule", int(c.Selection.RotationRule), "unknown rotation rule")
	}
	if c.Calibration.PixelSpacing <= 0 {
		return invalid("calibration.pixelSpacing", c.Calibration.PixelSpacing, "must be positive")
	}
	if c.Selection.AllowCleaving {
		if c.Selection.CleaveMinRatio <= 1 {
			return invalid("selection.cleaveMinRatio", c.Selection.CleaveMinRatio, "must exceed 1")
		}
		if c.Selection.CleaveMinLengthDivisor <= 0 {
			return invalid("selection.cleaveMinLengthDivisor", c.Selection.CleaveMinLengthDivisor, "must be positive")
		}
	}
	if c.Processing.NumCores < 0 {
		return invalid("processing.numCores", c.Processing.NumCores, "must not be negative")
	}
	if n := len(c.Selection.ManualROI); n > 0 && n < 3 {
		return invalid("selection.manualRoi", n, "polygon needs at least three vertices")
	}
	return nil
}

// ValidateForImage runs Validate and additionally rejects division counts
// finer than the radial sampling of a width x height slice.
func (c *Config) ValidateForImage(width, height int) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if width <= 0 || height <= 0 {
		return invalid("image", fmt.Sprintf("%dx%d", width, height), "empty image")
	}
	limit := radialStepsPerPixel * min(width, height) / 2
	if c.Distribution.Divisions > limit {
		return invalid("distribution.divisions", c.Distribution.Divisions,
			fmt.Sprintf("exceeds %d radial samples available", limit))
	}
	if c.Concentric.Divisions > limit {
		return invalid("concentric.divisions", c.Concentric.Divisions,
			fmt.Sprintf("exceeds %d radial samples available", limit))
	}
	return nil
}

func validateSectorWidth(field string, width int) error {
	if width <= 0 || models.NativeAngles%width != 0 {
		return invalid(field, width, "must be a positive divisor of 360")
	}
	return nil
}
