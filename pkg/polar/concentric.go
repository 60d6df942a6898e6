package polar

import (
	"math"

	"pqctdensity/internal/models"
	"pqctdensity/pkg/config"
	"pqctdensity/pkg/orientation"
	"pqctdensity/pkg/selection"
)

// ConcentricResult holds the pericortical radius (mm) and the density of
// each concentric ring per sector.
type ConcentricResult struct {
	Sectors           int       `yaml:"sectors"`
	Divisions         int       `yaml:"divisions"`
	Center            Center    `yaml:"center"`
	PericorticalRadii []float64 `yaml:"pericorticalRadii"`

	// DivisionDensities[d][s] is the mean density of ring d, counted from
	// the centre, in sector s
	DivisionDensities [][]float64 `yaml:"divisionDensities"`
}

// Concentric marches every ray from the centre of the sieve to its outer
// border, sampling the slice along the way, and splits the samples into
// rings of equal radial extent.
func Concentric(roi *selection.ROI, rot *orientation.Result, cfg *config.Config) *ConcentricResult {
	width := cfg.Concentric.SectorWidth
	divisions := cfg.Concentric.Divisions

	res := &ConcentricResult{
		Sectors:   models.NativeAngles / width,
		Divisions: divisions,
		Center:    sieveCenter(roi.Sieve),
	}

	var radii models.RayArray
	densities := make([]models.RayArray, divisions)

	forEachRay(cfg.Processing.NumCores, func(angle int) {
		r := newRay(res.Center, angle)
		var samples []float64
		radii[angle] = r.march(roi.Sieve, 0, math.Inf(1), func(radius float64) {
			samples = append(samples, r.density(roi.Image, radius))
		})

		means, ok := divisionMeans(samples, divisions)
		if !ok {
			return
		}
		for div, m := range means {
			densities[div][angle] = m
		}
	})

	perm := &rot.Permutation
	res.PericorticalRadii = sectorMeans(scaled(&radii, roi.Image.PixelSpacing), perm, width)
	res.DivisionDensities = make([][]float64, divisions)
	for div := range densities {
		res.DivisionDensities[div] = sectorMeans(&densities[div], perm, width)
	}
	return res
}
