package models

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// CalibratedImage represents a single pQCT slice after calibration. Every
// pixel holds a physical density value (mg/cm³ for the usual vendor
// calibration).
type CalibratedImage struct {
	// Width is the width of the slice in pixels
	Width int

	// Height is the height of the slice in pixels
	Height int

	// PixelSpacing is the physical size of one pixel in mm
	PixelSpacing float64

	// Minimum is the background value, also used for pixels outside
	// the image
	Minimum float64

	// data holds the densities in row-major order
	data []float64
}

// NewCalibratedImage wraps a row-major density array. The array is copied so
// the image stays immutable after construction. Minimum is taken from the
// data itself.
func NewCalibratedImage(width, height int, pixelSpacing float64, data []float64) (*CalibratedImage, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid image dimensions %dx%d", width, height)
	}
	if len(data) != width*height {
		return nil, fmt.Errorf("density array has %d values, want %d", len(data), width*height)
	}
	if pixelSpacing <= 0 {
		return nil, fmt.Errorf("pixel spacing must be positive, got %f", pixelSpacing)
	}

	owned := make([]float64, len(data))
	copy(owned, data)

	return &CalibratedImage{
		Width:        width,
		Height:       height,
		PixelSpacing: pixelSpacing,
		Minimum:      floats.Min(owned),
		data:         owned,
	}, nil
}

// Len returns the number of pixels.
func (img *CalibratedImage) Len() int { return len(img.data) }

// Index converts pixel coordinates to a row-major index.
func (img *CalibratedImage) Index(x, y int) int { return x + y*img.Width }

// InBounds reports whether (x, y) lies on the image grid.
func (img *CalibratedImage) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < img.Width && y < img.Height
}

// At returns the density at (x, y), or Minimum outside the image.
func (img *CalibratedImage) At(x, y int) float64 {
	if !img.InBounds(x, y) {
		return img.Minimum
	}
	return img.data[x+y*img.Width]
}

// AtIndex returns the density at a row-major index.
func (img *CalibratedImage) AtIndex(i int) float64 { return img.data[i] }

// Data returns a copy of the density array.
func (img *CalibratedImage) Data() []float64 {
	out := make([]float64, len(img.data))
	copy(out, img.data)
	return out
}

// Range returns the observed minimum and maximum density.
func (img *CalibratedImage) Range() (min, max float64) {
	return floats.Min(img.data), floats.Max(img.data)
}

// Values returns the densities at points.
func (img *CalibratedImage) Values(points []Point) []float64 {
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = img.At(p.X, p.Y)
	}
	return values
}

// WithData returns a new image with the same geometry and Minimum but with
// different densities. It is used for masked working copies, which must keep
// the background value of the original slice.
func (img *CalibratedImage) WithData(data []float64) (*CalibratedImage, error) {
	if len(data) != len(img.data) {
		return nil, fmt.Errorf("density array has %d values, want %d", len(data), len(img.data))
	}
	owned := make([]float64, len(data))
	copy(owned, data)
	return &CalibratedImage{
		Width:        img.Width,
		Height:       img.Height,
		PixelSpacing: img.PixelSpacing,
		Minimum:      img.Minimum,
		data:         owned,
	}, nil
}
