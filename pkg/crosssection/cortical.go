// Package crosssection computes the cross-sectional geometry and density
// indices of the selected bone from its pixel sets.
package crosssection

import (
	"fmt"
	"log"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"pqctdensity/internal/models"
	"pqctdensity/pkg/config"
	"pqctdensity/pkg/orientation"
	"pqctdensity/pkg/selection"
)

// Water densities in the calibrated unit: 0 for a water-zero calibration,
// 50 for the Stratec calibration where fat is 0.
const (
	waterDensity        = 0.0
	stratecWaterDensity = 50.0
)

// Result holds the cross-sectional figures of one slice. Areas are in mm²,
// moments of inertia in mm⁴ and density-weighted moments in mg·cm.
type Result struct {
	// Total bone area and mean density under the sieve
	TotalArea    float64 `yaml:"toA"`
	TotalDensity float64 `yaml:"toD"`

	// Marrow pixels are covered pixels below the marrow threshold. The
	// density is NaN without marrow.
	MarrowArea    float64 `yaml:"marrowArea"`
	MarrowDensity float64 `yaml:"marrowDensity"`

	// Marrow mass density in g/cm³ via Hounsfield units, for a water-zero
	// and for the Stratec calibration
	MarrowMassDensity        float64 `yaml:"maMassD"`
	StratecMarrowMassDensity float64 `yaml:"stratecMaMassD"`

	// DensityWeightedStrength is the bone strength index ToD²·ToA in g²/cm⁴
	DensityWeightedStrength float64 `yaml:"bSId"`

	CorticalDensity float64 `yaml:"coD"`
	CorticalArea    float64 `yaml:"coA"`
	MedullaryArea   float64 `yaml:"medullaryArea"`

	// Moments of inertia about the cortical centroid
	IPolar float64 `yaml:"iPolar"`
	IMax   float64 `yaml:"iMax"`
	IMin   float64 `yaml:"iMin"`

	// Density-weighted moments of inertia
	DwIPolar float64 `yaml:"dwIPolar"`
	DwIMax   float64 `yaml:"dwIMax"`
	DwIMin   float64 `yaml:"dwIMin"`

	// Stress-strain indices normalized by the largest cortical radius
	SSI    float64 `yaml:"ssi"`
	SSIMax float64 `yaml:"ssiMax"`
	SSIMin float64 `yaml:"ssiMin"`

	// Cortical density and area of a region traced at the rotation
	// threshold, comparable to the scanner vendor's figures
	VendorCorticalDensity float64 `yaml:"vendorCoD"`
	VendorCorticalArea    float64 `yaml:"vendorCoA"`

	// VendorSieve marks the pixels behind VendorCorticalDensity
	VendorSieve *models.Sieve `yaml:"-"`
}

// Analyze computes the cross-sectional figures of the selected bone.
//
// The vendor-compatible figures need a second trace at the rotation
// threshold. When that trace fails the failure is written to logger, the
// vendor figures stay 0 and the remaining figures are still returned.
func Analyze(roi *selection.ROI, cfg *config.Config, logger *log.Logger) *Result {
	img := roi.Image
	spacing := img.PixelSpacing
	spacingSq := spacing * spacing
	res := &Result{}

	// Total and marrow figures over the whole sieve
	densities := img.Values(roi.Sieve.CoveredPoints())
	var marrow []float64
	for _, d := range densities {
		if d < cfg.Thresholds.Marrow {
			marrow = append(marrow, d)
		}
	}
	res.TotalDensity = stat.Mean(densities, nil)
	res.TotalArea = float64(len(densities)) * spacingSq
	res.MarrowDensity = stat.Mean(marrow, nil)
	res.MarrowArea = float64(len(marrow)) * spacingSq

	slope, intercept := cfg.Calibration.Slope, cfg.Calibration.Intercept
	res.MarrowMassDensity = massDensity(res.MarrowDensity, waterDensity, slope, intercept)
	res.StratecMarrowMassDensity = massDensity(res.MarrowDensity, stratecWaterDensity, slope, intercept)
	res.DensityWeightedStrength = res.TotalDensity * res.TotalDensity * res.TotalArea / 1e8

	res.CorticalDensity = stat.Mean(img.Values(roi.Cortex), nil)
	res.CorticalArea = float64(len(roi.CortexArea)) * spacingSq
	res.MedullaryArea = res.TotalArea - res.CorticalArea

	res.moments(img, roi.CortexArea)

	if err := res.vendorFigures(roi, cfg); err != nil {
		logger.Printf("Warning: vendor-compatible cortical figures unavailable: %v", err)
		res.VendorCorticalDensity = 0
		res.VendorCorticalArea = 0
		res.VendorSieve = models.NewSieve(img.Width, img.Height)
	}
	return res
}

// massDensity converts a density to a mass density in g/cm³ through
// Hounsfield units (Schneider et al. 2000, equations 6 and 21).
func massDensity(density, water, slope, intercept float64) float64 {
	muWater := (water - intercept) / slope
	mu := (density - intercept) / slope
	h := mu/muWater - 1
	return 1.018 + 0.893*h
}

// moments integrates the plain, density-weighted and stress-strain moments
// over the cortical area pixels about their centroid.
func (r *Result) moments(img *models.CalibratedImage, cortex []models.Point) {
	if len(cortex) == 0 {
		return
	}
	spacing := img.PixelSpacing
	spacingSq := spacing * spacing

	// Coordinates in mm about the centroid
	xs, ys := models.Coordinates(cortex)
	floats.AddConst(-stat.Mean(xs, nil), xs)
	floats.AddConst(-stat.Mean(ys, nil), ys)
	floats.Scale(spacing, xs)
	floats.Scale(spacing, ys)

	radii := make([]float64, len(xs))
	for i := range radii {
		radii[i] = math.Hypot(xs[i], ys[i])
	}
	ssiMaxR := floats.Max(radii)

	xx := floats.Dot(xs, xs) * spacingSq
	yy := floats.Dot(ys, ys) * spacingSq
	xy := floats.Dot(xs, ys) * spacingSq

	// Density-weighted sums of x², y² and x·y
	d := img.Values(cortex)
	dxs := make([]float64, len(xs))
	dys := make([]float64, len(ys))
	floats.MulTo(dxs, d, xs)
	floats.MulTo(dys, d, ys)
	wxx := floats.Dot(dxs, xs)
	wyy := floats.Dot(dys, ys)
	wxy := floats.Dot(dxs, ys)

	// mm to cm for the coordinates and the pixel area
	dwScale := spacingSq / 1e4
	ssiScale := spacingSq / 1200 / ssiMaxR

	r.IPolar = xx + yy
	r.DwIPolar = (wxx + wyy) * dwScale
	r.SSI = (wxx + wyy) * ssiScale

	// All three tensors are rotated by the angle of the plain moments
	alpha := orientation.PrincipalAngle(xx, yy, xy)
	r.IMin, r.IMax = orientation.PrincipalMoments(xx, yy, xy, alpha)
	r.DwIMin, r.DwIMax = orientation.PrincipalMoments(wxx*dwScale, wyy*dwScale, wxy*dwScale, alpha)
	r.SSIMin, r.SSIMax = orientation.PrincipalMoments(wxx*ssiScale, wyy*ssiScale, wxy*ssiScale, alpha)
}

// vendorFigures traces the bone again at the rotation threshold and takes
// cortical density and area from that region regardless of whether the
// cortex is continuous.
func (r *Result) vendorFigures(roi *selection.ROI, cfg *config.Config) error {
	temp, err := selection.NewROI(roi.Image, cfg, cfg.Thresholds.Rotation)
	if err != nil {
		return fmt.Errorf("error tracing vendor-compatible region: %w", err)
	}

	img := roi.Image
	r.VendorSieve = models.NewSieve(img.Width, img.Height)
	var cortical []float64
	area := 0
	for _, p := range temp.Sieve.CoveredPoints() {
		d := img.At(p.X, p.Y)
		if d >= cfg.Thresholds.BMD {
			cortical = append(cortical, d)
			r.VendorSieve.Set(p.X, p.Y, models.Member)
		}
		if d >= cfg.Thresholds.Area {
			area++
		}
	}
	r.VendorCorticalDensity = stat.Mean(cortical, nil)
	r.VendorCorticalArea = float64(area) * img.PixelSpacing * img.PixelSpacing
	return nil
}
