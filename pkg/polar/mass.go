package polar

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"pqctdensity/internal/models"
	"pqctdensity/pkg/config"
	"pqctdensity/pkg/orientation"
	"pqctdensity/pkg/selection"
)

// MassResult holds the bone mineral content per sector for a 1 mm thick
// slice, in mg for densities in mg/cm³.
type MassResult struct {
	Sectors      int       `yaml:"sectors"`
	Center       Center    `yaml:"center"`
	SectorMasses []float64 `yaml:"sectorMasses"`
	Total        float64   `yaml:"total"`
}

// Mass integrates density times annulus area along every ray from the
// centre of the sieve and sums the rays into sectors.
func Mass(roi *selection.ROI, rot *orientation.Result, cfg *config.Config) *MassResult {
	width := cfg.Distribution.SectorWidth
	spacing := roi.Image.PixelSpacing

	res := &MassResult{
		Sectors: models.NativeAngles / width,
		Center:  sieveCenter(roi.Sieve),
	}

	var masses models.RayArray
	forEachRay(cfg.Processing.NumCores, func(angle int) {
		r := newRay(res.Center, angle)
		r.march(roi.Sieve, 0, math.Inf(1), func(radius float64) {
			outer := radius * spacing
			inner := (radius - radialStep) * spacing
			// density in mg/cm³ over an area in mm²
			masses[angle] += r.density(roi.Image, radius) / 1000 * math.Pi / models.NativeAngles * (outer*outer - inner*inner)
		})
	})

	res.SectorMasses = sectorSums(&masses, &rot.Permutation, width)
	res.Total = floats.Sum(res.SectorMasses)
	return res
}
