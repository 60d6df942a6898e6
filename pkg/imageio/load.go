// Package imageio reads pQCT slices from 16-bit grayscale images, applies
// the scanner calibration and writes masks for inspection.
package imageio

import (
	"fmt"
	"image"
	"image/color"
	_ "image/png"
	"os"

	_ "golang.org/x/image/tiff"
	"gonum.org/v1/gonum/floats"

	"pqctdensity/internal/models"
	"pqctdensity/pkg/config"
)

// medianSize is the side of the median filter window.
const medianSize = 3

// Calibration converts raw scanner values to densities.
type Calibration struct {
	// Density = Slope * raw + Intercept
	Slope     float64
	Intercept float64

	// PixelSpacing is the pixel size in mm
	PixelSpacing float64

	// Filter applies a 3x3 median filter after calibration
	Filter bool

	// FlipHorizontal swaps top and bottom, FlipVertical swaps left and
	// right
	FlipHorizontal bool
	FlipVertical   bool
}

// CalibrationFromConfig extracts the calibration section of cfg.
func CalibrationFromConfig(cfg *config.Config) Calibration {
	return Calibration{
		Slope:          cfg.Calibration.Slope,
		Intercept:      cfg.Calibration.Intercept,
		PixelSpacing:   cfg.Calibration.PixelSpacing,
		Filter:         !cfg.Calibration.NoFiltering,
		FlipHorizontal: cfg.Calibration.FlipHorizontal,
		FlipVertical:   cfg.Calibration.FlipVertical,
	}
}

// Load decodes a PNG or TIFF slice and calibrates it.
func Load(path string, cal Calibration) (*models.CalibratedImage, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if format != "png" && format != "tiff" {
		return nil, fmt.Errorf("unsupported image format %q, want png or tiff", format)
	}

	return Calibrate(img, cal)
}

// Calibrate converts the 16-bit gray values of img to densities. The
// background value of the result is the smallest calibrated value before
// filtering.
func Calibrate(img image.Image, cal Calibration) (*models.CalibratedImage, error) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	data := make([]float64, width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			raw := color.Gray16Model.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray16).Y
			data[y*width+x] = float64(raw)*cal.Slope + cal.Intercept
		}
	}

	if cal.Filter && len(data) > 0 {
		data = MedianFilter(data, width, height, medianSize, floats.Min(data))
	}
	if cal.FlipHorizontal {
		flipRows(data, width, height)
	}
	if cal.FlipVertical {
		flipColumns(data, width, height)
	}

	return models.NewCalibratedImage(width, height, cal.PixelSpacing, data)
}
